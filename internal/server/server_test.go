// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/kestrane/hivestore/internal/backup"
	"github.com/kestrane/hivestore/internal/config"
	"github.com/kestrane/hivestore/internal/proclock"
	"github.com/kestrane/hivestore/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store, string) {
	t.Helper()
	st, err := store.Open(store.Config{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	lockDir := t.TempDir()
	cfg := config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		Timeout:         5 * time.Second,
		RateLimitReqs:   1000,
		RateLimitWindow: time.Minute,
	}
	return New(cfg, st, lockDir), st, lockDir
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := get(t, srv.Router(), "/healthz")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := get(t, srv.Router(), "/metrics")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("metrics body is empty")
	}
}

func TestDiskEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := get(t, srv.Router(), "/api/v1/disk")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var result struct {
		Sufficient bool `json:"sufficient"`
		Snapshot   struct {
			TotalBytes uint64 `json:"total_bytes"`
		} `json:"snapshot"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Snapshot.TotalBytes == 0 {
		t.Error("snapshot reports zero total bytes")
	}
}

func TestLocksEndpoint(t *testing.T) {
	srv, _, lockDir := newTestServer(t)

	release, err := proclock.Acquire(lockDir, "test-holder")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = release() }()

	rec := get(t, srv.Router(), "/api/v1/locks")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var body struct {
		Locks []proclock.Record `json:"locks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Locks) != 1 || body.Locks[0].ProcessName != "test-holder" {
		t.Errorf("locks = %+v", body.Locks)
	}
}

func TestLocksEndpointEmpty(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := get(t, srv.Router(), "/api/v1/locks")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Locks []proclock.Record `json:"locks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Locks == nil {
		t.Error("locks field omitted instead of empty list")
	}
}

func TestBackupsPreviewEndpoint(t *testing.T) {
	srv, st, _ := newTestServer(t)

	// Plant an expired backup the preview should list.
	at := time.Now().Add(-30 * 24 * time.Hour)
	path := filepath.Join(st.BaseDir(), backup.Name("config.json", at))
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, at, at); err != nil {
		t.Fatal(err)
	}

	rec := get(t, srv.Router(), "/api/v1/backups/preview")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var result store.SweepResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.WouldDelete) != 1 {
		t.Errorf("WouldDelete = %v, want the expired backup", result.WouldDelete)
	}

	// Preview must not delete anything.
	if _, err := os.Stat(path); err != nil {
		t.Error("preview deleted the backup")
	}
}

func TestUnknownRoute(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := get(t, srv.Router(), "/api/v1/nope")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
