package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"giftpoints/custodian/pkg/activity"
	"giftpoints/custodian/pkg/backup"
	"giftpoints/custodian/pkg/lock"
	"giftpoints/custodian/pkg/store"
	"giftpoints/custodian/pkg/telemetry/logging"

	"github.com/go-chi/chi/v5"
)

// ActorHeader names the person behind an admin request.
const ActorHeader = "X-Actor"

// defaultActor is used when ActorHeader is absent.
const defaultActor = "admin"

type handlers struct {
	deps   Deps
	logger *slog.Logger
}

type backupResponse struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Collections int      `json:"collections"`
	Documents   int      `json:"documents"`
	Failed      []string `json:"failed,omitempty"`
	SizeBytes   int64    `json:"sizeBytes"`
	Rotated     []string `json:"rotated,omitempty"`
	DurationMS  int64    `json:"durationMs"`
}

type restoreResponse struct {
	Name        string   `json:"name"`
	Actor       string   `json:"actor"`
	Collections int      `json:"collections"`
	Documents   int      `json:"documents"`
	Skipped     []string `json:"skipped,omitempty"`
	DurationMS  int64    `json:"durationMs"`
}

type retentionResponse struct {
	RunID      string           `json:"runId"`
	Candidates map[string]int   `json:"candidates"`
	Deleted    map[string]int64 `json:"deleted"`
	Errors     []string         `json:"errors,omitempty"`
	DurationMS int64            `json:"durationMs"`
}

func (h *handlers) listBackups(w http.ResponseWriter, r *http.Request) {
	infos, err := h.deps.Backups.List()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"backups": infos})
}

func (h *handlers) createBackup(w http.ResponseWriter, r *http.Request) {
	ctx := h.requestContext(r)
	result, err := h.deps.Backups.Create(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.notify(r, "backup.create", result.Name)
	writeJSON(w, http.StatusCreated, backupResponse{
		Name:        result.Name,
		Type:        result.Type,
		Collections: result.Collections,
		Documents:   result.Documents,
		Failed:      result.Failed,
		SizeBytes:   result.SizeBytes,
		Rotated:     result.Rotated,
		DurationMS:  result.Duration.Milliseconds(),
	})
}

func (h *handlers) restoreBackup(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ctx := h.requestContext(r)

	result, err := h.deps.Backups.Restore(ctx, name)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.notify(r, "backup.restore", name)
	writeJSON(w, http.StatusOK, restoreResponse{
		Name:        result.Name,
		Actor:       result.Actor,
		Collections: result.Collections,
		Documents:   result.Documents,
		Skipped:     result.Skipped,
		DurationMS:  result.Duration.Milliseconds(),
	})
}

func (h *handlers) runRetention(w http.ResponseWriter, r *http.Request) {
	ctx := h.requestContext(r)
	report, err := h.deps.Retention.Run(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.notify(r, "retention.run", fmt.Sprintf("%d expired records", report.Total()))

	resp := retentionResponse{
		RunID:      report.RunID,
		Candidates: report.Candidates,
		Deleted:    report.Deleted,
		DurationMS: report.Duration.Milliseconds(),
	}
	for _, e := range report.Errors {
		resp.Errors = append(resp.Errors, e.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

// requestContext carries the manual trigger and the actor into the run.
func (h *handlers) requestContext(r *http.Request) context.Context {
	ctx := logging.WithTrigger(r.Context(), logging.TriggerManual)
	return logging.WithActor(ctx, actor(r))
}

func (h *handlers) notify(r *http.Request, action, details string) {
	if h.deps.Notifier == nil {
		return
	}
	h.deps.Notifier.LogAdminAction(actor(r), action, details, activity.FromRequest(r))
}

// fail maps run errors to status codes.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, lock.ErrLocked):
		code = http.StatusConflict
	case errors.Is(err, backup.ErrInvalidName):
		code = http.StatusBadRequest
	case errors.Is(err, backup.ErrManifestNotFound):
		code = http.StatusNotFound
	case errors.Is(err, store.ErrConnectTimeout), errors.Is(err, store.ErrNotConnected):
		code = http.StatusServiceUnavailable
	}

	h.logger.Warn("admin request failed",
		"path", r.URL.Path,
		"status", code,
		"error", err,
	)
	writeError(w, code, err.Error())
}

func actor(r *http.Request) string {
	if a := r.Header.Get(ActorHeader); a != "" {
		return a
	}
	return defaultActor
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
