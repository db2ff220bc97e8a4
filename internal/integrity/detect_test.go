// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package integrity

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
)

func TestDetectHealthy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"v":1}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if report := Detect(path, DetectOptions{}); report != nil {
		t.Errorf("healthy file reported corrupt: %v", report)
	}
}

func TestDetectMissingFile(t *testing.T) {
	report := Detect(filepath.Join(t.TempDir(), "absent.json"), DetectOptions{})
	if report == nil {
		t.Fatal("missing file reported healthy")
	}
	if report.Type != MissingFile {
		t.Errorf("Type = %s, want %s", report.Type, MissingFile)
	}
	if report.Err == nil {
		t.Error("original error missing from report")
	}
}

func TestDetectReadError(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks are not enforced for root")
	}

	path := filepath.Join(t.TempDir(), "locked.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o000); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chmod(path, 0o644) }()

	report := Detect(path, DetectOptions{})
	if report == nil || report.Type != ReadError {
		t.Errorf("report = %v, want %s", report, ReadError)
	}
}

func TestDetectParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte(`{"v":`), 0o644); err != nil {
		t.Fatal(err)
	}

	report := Detect(path, DetectOptions{})
	if report == nil || report.Type != ParseError {
		t.Errorf("report = %v, want %s", report, ParseError)
	}
}

func TestDetectValidationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrong.json")
	if err := os.WriteFile(path, []byte(`{"v":2}`), 0o644); err != nil {
		t.Fatal(err)
	}

	requireV1 := func(content []byte) error {
		var rec struct {
			V int `json:"v"`
		}
		if err := json.Unmarshal(content, &rec); err != nil {
			return err
		}
		if rec.V != 1 {
			return fmt.Errorf("v = %d, want 1", rec.V)
		}
		return nil
	}

	report := Detect(path, DetectOptions{Validate: requireV1})
	if report == nil || report.Type != ValidationError {
		t.Errorf("report = %v, want %s", report, ValidationError)
	}
}

func TestDetectOrderParseBeforeValidation(t *testing.T) {
	// A file that is both unparseable and predicate-failing must be
	// classified by the earlier check.
	path := filepath.Join(t.TempDir(), "both.json")
	if err := os.WriteFile(path, []byte(`not json`), 0o644); err != nil {
		t.Fatal(err)
	}

	alwaysFail := func([]byte) error { return fmt.Errorf("never valid") }
	report := Detect(path, DetectOptions{Validate: alwaysFail})
	if report == nil || report.Type != ParseError {
		t.Errorf("report = %v, want %s first", report, ParseError)
	}
}

func TestDetectCustomParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.bin")
	if err := os.WriteFile(path, []byte("MAGIC-payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	magicParse := func(content []byte) error {
		if len(content) < 5 || string(content[:5]) != "MAGIC" {
			return fmt.Errorf("missing magic prefix")
		}
		return nil
	}

	if report := Detect(path, DetectOptions{Parse: magicParse}); report != nil {
		t.Errorf("custom parse rejected valid content: %v", report)
	}
}
