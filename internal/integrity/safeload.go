// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package integrity

import (
	"context"
	"fmt"
	"os"
)

// SafeLoadError is raised when a corrupt record could not be recovered.
// It carries both the corruption report and the recovery result so a
// caller has the full forensic context in one error.
type SafeLoadError struct {
	Report *Report
	Result RecoveryResult
}

func (e *SafeLoadError) Error() string {
	return fmt.Sprintf("unrecoverable record %q: detected %s (%v); recovery via %s failed: %v",
		e.Report.FilePath, e.Report.Type, e.Report.Err, e.Result.Method, e.Result.Err)
}

func (e *SafeLoadError) Unwrap() error {
	return e.Result.Err
}

// SafeLoad reads the record at path, recovering it from backup first if
// it is corrupt. Healthy files are read directly; corrupt files go
// through AttemptRecovery and are re-read after a successful restore.
// An unrecoverable file raises a *SafeLoadError.
func SafeLoad(ctx context.Context, path string, opts RecoverOptions) ([]byte, error) {
	report := Detect(path, opts.Detect)
	if report == nil {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read healthy record %q: %w", path, err)
		}
		return content, nil
	}

	result := AttemptRecovery(ctx, path, opts)
	if !result.Success {
		return nil, &SafeLoadError{Report: report, Result: result}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recovered record %q: %w", path, err)
	}
	return content, nil
}
