package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a private registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 2, 3}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered under the namespace", func() {
				So(m, ShouldNotBeNil)
				m.trackedDomains.Set(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_tracked_domains")
			})
		})

		Convey("When empty options are passed", func() {
			m := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(registry))

			Convey("Then defaults are kept", func() {
				So(m.namespace, ShouldEqual, "momentum")
				So(m.subsystem, ShouldEqual, "signals")
				So(m.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording ingestion", func() {
			before := testutil.ToFloat64(globalManager.samplesIngested.WithLabelValues("Health"))
			RecordSampleIngested("Health")
			RecordSampleDuplicate()
			RecordSampleRejected("invalid")

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.samplesIngested.WithLabelValues("Health")), ShouldEqual, before+1)
			})
		})

		Convey("When the phase of a domain changes", func() {
			UpdateDomainPhase("Focus", "Ramp")
			UpdateDomainPhase("Focus", "Cruise")

			Convey("Then only the latest phase is reported", func() {
				So(testutil.ToFloat64(globalManager.domainPhase.WithLabelValues("Focus", "Cruise")), ShouldEqual, 1)
				So(testutil.CollectAndCount(globalManager.domainPhase), ShouldBeGreaterThanOrEqualTo, 1)
				count := 0
				families, err := customRegistry.Gather()
				So(err, ShouldBeNil)
				for _, f := range families {
					if f.GetName() != "momentum_signals_domain_phase" {
						continue
					}
					for _, metric := range f.GetMetric() {
						for _, l := range metric.GetLabel() {
							if l.GetName() == "domain" && l.GetValue() == "Focus" {
								count++
							}
						}
					}
				}
				So(count, ShouldEqual, 1)
			})
		})

		Convey("When recording pipeline, queue and HTTP activity", func() {
			So(func() {
				RecordPipelineRun("Mood", 0.2)
				RecordPipelineError("length_mismatch")
				UpdateDomainScore("Mood", 63)
				UpdateTrackedDomains(5)
				UpdateQueueSize(2)
				UpdateQueueCapacity(10)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError("queue_full")
				UpdateWorkerCount(4)
				RecordWorkerError()
				RecordHTTPRequest("samples", "POST", "202", 1.5)
				RecordErrorByComponent("worker", "store_error")
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.domainScore.WithLabelValues("Mood")), ShouldEqual, 63)
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}
