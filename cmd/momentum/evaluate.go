package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	service "github.com/okian/momentum/internal/app"
	"github.com/okian/momentum/internal/config"
	"github.com/okian/momentum/internal/domain/model"
	"github.com/okian/momentum/pkg/logger"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

func evaluate(ctx context.Context, cmd *cli.Command) error {
	if err := logger.InitWithWriter(errWriter(cmd)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	cfg, err := config.LoadFile(ctx, cmd.String("config"))
	if err != nil {
		return err
	}
	req, err := readHistory(cmd.String("file"))
	if err != nil {
		return err
	}
	if tt := cmd.String("task-type"); tt != "" {
		parsed, err := model.ParseTaskType(tt)
		if err != nil {
			return err
		}
		req.TaskType = parsed
	}

	svc, err := service.New(serviceOptions(cfg, logger.Get())...)
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}
	res, err := svc.Evaluate(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(writer(cmd))
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func errWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}

// readHistory decodes a YAML daily history file.
func readHistory(path string) (service.EvaluateRequest, error) {
	var req service.EvaluateRequest
	raw, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("read history: %w", err)
	}
	if err := yaml.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("decode history %s: %w", path, err)
	}
	return req, nil
}
