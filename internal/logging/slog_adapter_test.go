// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSlogHandlerWritesThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf)

	slogger := slog.New(NewSlogHandlerWithLogger(zl))
	slogger.Info("service started", "service", "sweeper", "interval", int64(60))

	out := buf.String()
	if !strings.Contains(out, `"message":"service started"`) {
		t.Errorf("message missing: %q", out)
	}
	if !strings.Contains(out, `"service":"sweeper"`) {
		t.Errorf("string attr missing: %q", out)
	}
	if !strings.Contains(out, `"interval":60`) {
		t.Errorf("int attr missing: %q", out)
	}
}

func TestSlogHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf)

	slogger := slog.New(NewSlogHandlerWithLogger(zl)).WithGroup("supervisor")
	slogger.Warn("service backoff", "name", "reaper")

	if !strings.Contains(buf.String(), `"supervisor.name":"reaper"`) {
		t.Errorf("group-prefixed attr missing: %q", buf.String())
	}
}

func TestSlogHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf)

	slogger := slog.New(NewSlogHandlerWithLogger(zl)).With("tree", "hivestored")
	slogger.Error("service failed")

	if !strings.Contains(buf.String(), `"tree":"hivestored"`) {
		t.Errorf("pre-configured attr missing: %q", buf.String())
	}
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Errorf("level mapping wrong: %q", buf.String())
	}
}

func TestSlogHandlerEnabled(t *testing.T) {
	zl := zerolog.New(nil).Level(zerolog.WarnLevel)
	h := NewSlogHandlerWithLogger(zl)

	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}
