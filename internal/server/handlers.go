// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package server

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/kestrane/hivestore/internal/diskspace"
	"github.com/kestrane/hivestore/internal/logging"
	"github.com/kestrane/hivestore/internal/proclock"
)

// respondJSON writes a JSON body with the given status.
func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Warn().Err(err).Msg("failed to encode admin response")
	}
}

// respondError writes a JSON error body.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// handleHealthz reports liveness plus a writability probe of the store
// root: a daemon whose disk is gone is alive but not healthy.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	snap, err := diskspace.Stat(s.store.BaseDir())
	if err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"base_dir":        s.store.BaseDir(),
		"available_bytes": snap.AvailableBytes,
	})
}

// handleDisk returns the current disk snapshot and the admission
// verdict for a zero-byte write.
func (s *Server) handleDisk(w http.ResponseWriter, r *http.Request) {
	result, err := diskspace.Check(s.store.BaseDir(), 0, diskspace.Thresholds{})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// handleLocks lists the live process locks.
func (s *Server) handleLocks(w http.ResponseWriter, r *http.Request) {
	active, err := proclock.ListActive(s.lockDir)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if active == nil {
		active = []proclock.Record{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"locks": active})
}

// handleBackupsPreview dry-runs the store-wide retention sweep and
// reports what it would delete.
func (s *Server) handleBackupsPreview(w http.ResponseWriter, r *http.Request) {
	result, err := s.store.SweepBackups(r.Context(), true)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}
