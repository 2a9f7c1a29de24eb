package signal

import (
	"math"
	"strconv"
	"time"

	"github.com/okian/momentum/internal/domain/model"
)

// Resample buckets samples into calendar days in loc and returns a
// gap-free daily series: the mean value of each day (0 for days without
// samples) and whether any sample that day had a positive value.
//
// The series starts on the day of the earliest sample and ends on the day
// of until, or of the latest sample when until is zero. Samples after
// until are ignored.
func Resample(samples []model.RawSample, loc *time.Location, until time.Time) ([]float64, []bool, error) {
	if loc == nil {
		loc = time.UTC
	}
	if len(samples) == 0 {
		return []float64{}, []bool{}, nil
	}

	type bucket struct {
		sum   float64
		count int
		event bool
	}
	buckets := make(map[civilDay]*bucket)
	var first, last civilDay
	for i, s := range samples {
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			return nil, nil, &SampleError{Index: i, ID: s.ID, Err: ErrNonFinite}
		}
		day := dayOf(s.Timestamp, loc)
		b, ok := buckets[day]
		if !ok {
			b = &bucket{}
			buckets[day] = b
		}
		b.sum += s.Value
		b.count++
		b.event = b.event || s.Value > 0
		if i == 0 || day.before(first) {
			first = day
		}
		if i == 0 || last.before(day) {
			last = day
		}
	}
	if !until.IsZero() {
		last = dayOf(until, loc)
	}

	values := []float64{}
	events := []bool{}
	for day := first; !last.before(day); day = day.next() {
		b, ok := buckets[day]
		if !ok {
			values = append(values, 0)
			events = append(events, false)
			continue
		}
		values = append(values, b.sum/float64(b.count))
		events = append(events, b.event)
	}
	return values, events, nil
}

// civilDay is a calendar date with no clock or zone attached. Local
// midnight does not exist in every zone, so days are not keyed by instants.
type civilDay struct {
	year  int
	month time.Month
	day   int
}

func dayOf(ts time.Time, loc *time.Location) civilDay {
	y, m, d := ts.In(loc).Date()
	return civilDay{year: y, month: m, day: d}
}

func (c civilDay) utc() time.Time {
	return time.Date(c.year, c.month, c.day, 0, 0, 0, 0, time.UTC)
}

func (c civilDay) before(o civilDay) bool { return c.utc().Before(o.utc()) }

func (c civilDay) next() civilDay { return dayOf(c.utc().AddDate(0, 0, 1), time.UTC) }

// SampleError reports which sample broke a precondition.
type SampleError struct {
	Index int
	ID    string
	Err   error
}

func (e *SampleError) Error() string {
	if e.ID != "" {
		return "sample " + e.ID + ": " + e.Err.Error()
	}
	return "sample #" + strconv.Itoa(e.Index) + ": " + e.Err.Error()
}

func (e *SampleError) Unwrap() error { return e.Err }
