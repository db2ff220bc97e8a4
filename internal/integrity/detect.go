// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

// Package integrity classifies record files as healthy or corrupt and
// restores corrupt ones from their newest valid backup.
//
// Detection is a four-way classifier evaluated in order, first match
// wins: missing_file, read_error, parse_error, validation_error. A file
// passing all four checks is healthy and produces no report. The
// layering lets callers distinguish "nothing to recover" from "actively
// broken" from "structurally fine but semantically wrong".
//
// Each load attempt moves through a small state machine:
//
//	Unknown -> {Healthy, Corrupt}
//	Corrupt -> {Recovered, Unrecoverable}
//
// Healthy and Recovered return content; Unrecoverable raises a
// *SafeLoadError carrying the full forensic context.
package integrity

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/kestrane/hivestore/internal/metrics"
)

// CorruptionType classifies why a file failed its health check.
type CorruptionType string

const (
	// MissingFile means the target does not exist.
	MissingFile CorruptionType = "missing_file"

	// ReadError means the target exists but could not be read, e.g.
	// permission denied.
	ReadError CorruptionType = "read_error"

	// ParseError means the content was readable but failed the baseline
	// structural parse.
	ParseError CorruptionType = "parse_error"

	// ValidationError means the content parsed but failed the
	// caller-supplied validator predicate.
	ValidationError CorruptionType = "validation_error"
)

// Report is the classified reason a file failed its health check.
// Produced fresh on every detection call, never persisted.
type Report struct {
	FilePath   string
	Type       CorruptionType
	Err        error
	DetectedAt time.Time
}

func (r *Report) String() string {
	return fmt.Sprintf("%s: %s (%v)", r.FilePath, r.Type, r.Err)
}

// Validator is the predicate record-schema layers supply to judge
// content that already parsed. A nil return means valid; the error
// carries the rejection reason into the corruption report.
type Validator func(content []byte) error

// ParseFunc is the baseline structural parse applied before the
// validator.
type ParseFunc func(content []byte) error

// ParseJSON is the default baseline parse: the content must be a
// single well-formed JSON value. Record files in this store are JSON.
func ParseJSON(content []byte) error {
	if !json.Valid(content) {
		return fmt.Errorf("not well-formed JSON")
	}
	return nil
}

// DetectOptions configure one detection pass.
type DetectOptions struct {
	// Parse is the baseline structural check. Nil means ParseJSON.
	Parse ParseFunc

	// Validate is the optional record-specific predicate, applied only
	// after Parse succeeds.
	Validate Validator
}

// Detect classifies the file at path. A nil return means healthy.
func Detect(path string, opts DetectOptions) *Report {
	report := detect(path, opts)
	if report != nil {
		metrics.CorruptionsDetected.WithLabelValues(string(report.Type)).Inc()
	}
	return report
}

// detect runs the classifier without touching metrics; recovery uses it
// to probe backup candidates silently.
func detect(path string, opts DetectOptions) *Report {
	parse := opts.Parse
	if parse == nil {
		parse = ParseJSON
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &Report{FilePath: path, Type: MissingFile, Err: err, DetectedAt: time.Now()}
		}
		return &Report{FilePath: path, Type: ReadError, Err: err, DetectedAt: time.Now()}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return &Report{FilePath: path, Type: ReadError, Err: err, DetectedAt: time.Now()}
	}

	if err := parse(content); err != nil {
		return &Report{FilePath: path, Type: ParseError, Err: err, DetectedAt: time.Now()}
	}

	if opts.Validate != nil {
		if err := opts.Validate(content); err != nil {
			return &Report{FilePath: path, Type: ValidationError, Err: err, DetectedAt: time.Now()}
		}
	}

	return nil
}
