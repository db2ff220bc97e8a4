// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package diskspace

import (
	"errors"
	"strings"
	"testing"
)

// snap builds a synthetic snapshot for evaluate tests. Sizes in MiB for
// readability.
func snap(totalMiB, availMiB uint64) Snapshot {
	const mib = 1024 * 1024
	s := Snapshot{
		Path:           "/data",
		TotalBytes:     totalMiB * mib,
		AvailableBytes: availMiB * mib,
		FreeBytes:      availMiB * mib,
	}
	s.UsedBytes = s.TotalBytes - s.FreeBytes
	if s.TotalBytes > 0 {
		s.AvailablePercent = float64(s.AvailableBytes) / float64(s.TotalBytes) * 100
	}
	return s
}

func TestEvaluateOrderedConditions(t *testing.T) {
	const mib = 1024 * 1024
	th := Thresholds{MinFreeBytes: 100 * mib, MinFreePercent: 5}

	tests := []struct {
		name       string
		snap       Snapshot
		required   uint64
		sufficient bool
		reasonPart string
	}{
		{
			name:       "plenty of space",
			snap:       snap(10240, 5120),
			required:   100 * mib,
			sufficient: true,
		},
		{
			name:       "outright insufficient",
			snap:       snap(10240, 50),
			required:   100 * mib,
			reasonPart: "not enough available space",
		},
		{
			name:       "breaches absolute floor",
			snap:       snap(10240, 150),
			required:   100 * mib,
			reasonPart: "free-space floor",
		},
		{
			name: "breaches relative floor",
			// 4% of total would remain: above 100MiB absolute floor,
			// below the 5% relative floor.
			snap:       snap(102400, 5096),
			required:   1000 * mib,
			reasonPart: "below the 5.0% floor",
		},
		{
			name:       "zero required still applies floors",
			snap:       snap(10240, 50),
			required:   0,
			reasonPart: "free-space floor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := evaluate(tt.snap, tt.required, th)
			if res.Sufficient != tt.sufficient {
				t.Fatalf("Sufficient = %v, want %v (reason %q)", res.Sufficient, tt.sufficient, res.Reason)
			}
			if !tt.sufficient && !strings.Contains(res.Reason, tt.reasonPart) {
				t.Errorf("Reason = %q, want substring %q", res.Reason, tt.reasonPart)
			}
		})
	}
}

func TestFirstFailureWins(t *testing.T) {
	// A snapshot failing all three conditions must report the first.
	res := evaluate(snap(10240, 10), 100*1024*1024, Thresholds{}.withDefaults())
	if res.Sufficient {
		t.Fatal("expected insufficient verdict")
	}
	if !strings.Contains(res.Reason, "not enough available space") {
		t.Errorf("Reason = %q, want the outright-insufficiency condition first", res.Reason)
	}
}

func TestStatRealFilesystem(t *testing.T) {
	dir := t.TempDir()

	s, err := Stat(dir)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if s.TotalBytes == 0 {
		t.Error("TotalBytes = 0 on a real filesystem")
	}
	if s.AvailableBytes > s.TotalBytes {
		t.Errorf("AvailableBytes %d > TotalBytes %d", s.AvailableBytes, s.TotalBytes)
	}
	if s.Path != dir {
		t.Errorf("Path = %q, want %q", s.Path, dir)
	}
}

func TestStatMissingPath(t *testing.T) {
	_, err := Stat("/no/such/path/anywhere")
	if err == nil {
		t.Fatal("expected error for missing path")
	}
	var se *StatError
	if !errors.As(err, &se) {
		t.Errorf("error is not *StatError: %T", err)
	}
}

func TestEnsureReturnsTypedError(t *testing.T) {
	dir := t.TempDir()

	// Demanding more bytes than any filesystem holds must fail with the
	// typed error carrying diagnostics.
	err := Ensure(dir, ^uint64(0)/2, Thresholds{})
	if err == nil {
		t.Fatal("expected insufficiency error")
	}
	var ise *InsufficientSpaceError
	if !errors.As(err, &ise) {
		t.Fatalf("error is not *InsufficientSpaceError: %T", err)
	}
	if ise.Path != dir {
		t.Errorf("Path = %q, want %q", ise.Path, dir)
	}
	if ise.TotalBytes == 0 {
		t.Error("TotalBytes missing from error")
	}
}

func TestEnsureSucceedsForTinyWrite(t *testing.T) {
	dir := t.TempDir()
	if err := Ensure(dir, 1, Thresholds{MinFreeBytes: 1, MinFreePercent: 0.0001}); err != nil {
		t.Errorf("Ensure rejected a 1-byte write with minimal floors: %v", err)
	}
}
