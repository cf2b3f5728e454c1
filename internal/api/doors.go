package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/door-core/internal/auth"
	"github.com/nerrad567/door-core/internal/door"
)

const (
	defaultHistoryLimit  = 50
	maxHistoryLimit      = 200
	maxQueryParamLen     = 128
	defaultMetricsRange  = time.Hour
	defaultMetricsWindow = time.Minute
)

// doorFromRequest resolves the {doorID} URL parameter to a controller.
// On failure it writes the error response and returns false.
func (s *Server) doorFromRequest(w http.ResponseWriter, r *http.Request) (*door.Controller, bool) {
	doorID := chi.URLParam(r, "doorID")
	if doorID == "" || len(doorID) > maxQueryParamLen {
		respondBadRequest(w, "invalid door ID")
		return nil, false
	}

	ctrl, err := s.registry.Get(doorID)
	if err != nil {
		if errors.Is(err, door.ErrDoorNotFound) {
			respondNotFound(w, "door not found")
			return nil, false
		}
		respondInternalError(w, "failed to get door")
		return nil, false
	}

	return ctrl, true
}

// handleListDoors returns the status report of every registered door.
func (s *Server) handleListDoors(w http.ResponseWriter, _ *http.Request) {
	ctrls := s.registry.List()

	reports := make([]door.StatusReport, 0, len(ctrls))
	for _, ctrl := range ctrls {
		reports = append(reports, ctrl.Status())
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"doors": reports,
		"count": len(reports),
	})
}

// handleGetDoor returns the status report of a single door.
func (s *Server) handleGetDoor(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.doorFromRequest(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, ctrl.Status())
}

// handleDoorReport returns the human-readable diagnostic report for a door.
// Plain text, intended for curl and commissioning checks rather than UIs.
func (s *Server) handleDoorReport(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.doorFromRequest(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write([]byte(ctrl.Status().String()))
}

// DoorCommandRequest is the request body for POST /doors/{doorID}/commands.
type DoorCommandRequest struct {
	Command string `json:"command"`
}

// handleDoorCommand executes a command against a door.
//
// Commands run synchronously — the simulated actuators respond
// instantaneously, so by the time the handler returns the door has either
// completed the sequence or faulted. The response carries the resulting
// status report. Safety rejections and hardware faults return 409 with a
// machine-readable code.
func (s *Server) handleDoorCommand(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.doorFromRequest(w, r)
	if !ok {
		return
	}

	var cmd DoorCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondBadRequest(w, "malformed JSON body")
		return
	}
	if cmd.Command == "" {
		respondBadRequest(w, "command field is required")
		return
	}

	perm, known := commandPermission(cmd.Command)
	if !known {
		respondBadRequest(w, fmt.Sprintf("unknown command %q", cmd.Command))
		return
	}

	claims := claimsFromContext(r.Context())
	if claims == nil {
		respondUnauthorized(w, "authentication required")
		return
	}
	if !auth.HasPermission(claims.Role, perm) {
		respondForbidden(w, "insufficient permissions")
		return
	}

	if err := executeDoorCommand(ctrl, cmd.Command); err != nil {
		switch {
		case errors.Is(err, door.ErrNotSafe):
			respondError(w, http.StatusConflict, "not_safe", err.Error())
		case errors.Is(err, door.ErrHardwareFault):
			respondError(w, http.StatusConflict, "hardware_fault", err.Error())
		default:
			respondInternalError(w, "command failed")
		}
		return
	}

	s.logger.Info("door command executed",
		"door_id", ctrl.ID(),
		"command", cmd.Command,
		"user", claims.Subject,
	)

	respondJSON(w, http.StatusOK, ctrl.Status())
}

// commandPermission maps a door command to the permission it requires.
// Initialize re-runs hardware calibration, so it needs more than the
// everyday operator permission.
func commandPermission(command string) (auth.Permission, bool) {
	switch command {
	case "initialize":
		return auth.PermDoorInitialize, true
	case "open", "close", "stop", "reset":
		return auth.PermDoorCommand, true
	default:
		return "", false
	}
}

// executeDoorCommand dispatches a named command to the controller.
func executeDoorCommand(ctrl *door.Controller, command string) error {
	switch command {
	case "initialize":
		return ctrl.Initialize()
	case "open":
		return ctrl.Open()
	case "close":
		return ctrl.Close()
	case "stop":
		ctrl.EmergencyStop()
		return nil
	case "reset":
		return ctrl.Reset()
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// handleDoorHistory returns recent state transitions for a door.
func (s *Server) handleDoorHistory(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.doorFromRequest(w, r)
	if !ok {
		return
	}

	limit, err := parseHistoryLimit(r.URL.Query().Get("limit"))
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	if s.history == nil {
		respondUnavailable(w, "transition history unavailable")
		return
	}

	records, err := s.history.GetHistory(r.Context(), ctrl.ID(), limit)
	if err != nil {
		respondInternalError(w, "failed to load door history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"door_id": ctrl.ID(),
		"history": records,
		"count":   len(records),
	})
}

// handleDoorMetrics returns aggregated telemetry for a door field.
//
// Query parameters:
//   - field: metric field name (required), e.g. ram_position or lock_angle
//   - since: range start, RFC3339 or Unix timestamp (default: 1h ago)
//   - window: aggregate window as a Go duration (default: 1m)
func (s *Server) handleDoorMetrics(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.doorFromRequest(w, r)
	if !ok {
		return
	}

	field := strings.TrimSpace(r.URL.Query().Get("field"))
	if field == "" {
		respondBadRequest(w, "field is required")
		return
	}
	if len(field) > maxQueryParamLen {
		respondBadRequest(w, "field exceeds maximum length")
		return
	}

	since, err := parseTimeParam(r.URL.Query().Get("since"), time.Now().UTC().Add(-defaultMetricsRange))
	if err != nil {
		respondBadRequest(w, "invalid since timestamp")
		return
	}

	window, err := parseWindowParam(r.URL.Query().Get("window"))
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	if s.influx == nil || !s.influx.IsConnected() {
		respondUnavailable(w, "telemetry unavailable")
		return
	}

	points, err := s.influx.QueryDoorMetric(r.Context(), ctrl.ID(), field, since, window)
	if err != nil {
		respondUnavailable(w, "telemetry unavailable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"door_id": ctrl.ID(),
		"field":   field,
		"points":  points,
		"count":   len(points),
	})
}

// parseHistoryLimit parses the limit query parameter with bounds enforcement.
func parseHistoryLimit(raw string) (int, error) {
	if raw == "" {
		return defaultHistoryLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid limit")
	}
	if limit > maxHistoryLimit {
		return 0, fmt.Errorf("limit exceeds maximum")
	}

	return limit, nil
}

// parseWindowParam parses the aggregate window as a Go duration.
func parseWindowParam(raw string) (time.Duration, error) {
	if raw == "" {
		return defaultMetricsWindow, nil
	}

	window, err := time.ParseDuration(raw)
	if err != nil || window <= 0 {
		return 0, fmt.Errorf("invalid window")
	}

	return window, nil
}

// parseTimeParam parses an RFC3339 or Unix timestamp, with a fallback default.
func parseTimeParam(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}

	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC(), nil
	}

	return parseUnixTimestamp(raw)
}

// parseUnixTimestamp parses a Unix timestamp string into time.Time.
func parseUnixTimestamp(raw string) (time.Time, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, err
	}

	seconds, fraction := math.Modf(value)
	return time.Unix(int64(seconds), int64(fraction*float64(time.Second))).UTC(), nil
}
