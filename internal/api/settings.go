package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"rutago/pkg/location"
	"rutago/pkg/recorder"
	"rutago/pkg/store"
)

// StateKeyInterval is the state-store key holding the sampling interval
// setting.
const StateKeyInterval = "interval_setting"

// SettingsHandler serves the sampling-interval setting. Changes are persisted
// and applied to a live recording immediately.
type SettingsHandler struct {
	st  store.StateStore
	rec *recorder.Recorder
	def int
}

// NewSettingsHandler creates the settings handler. def is the configured
// default returned before any setting has been stored.
func NewSettingsHandler(st store.StateStore, rec *recorder.Recorder, def int) *SettingsHandler {
	return &SettingsHandler{st: st, rec: rec, def: def}
}

type intervalPayload struct {
	Interval int `json:"interval"`
}

func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, intervalPayload{Interval: h.Current(r.Context())})
}

func (h *SettingsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	var req intervalPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !location.ValidSetting(req.Interval) {
		writeError(w, http.StatusBadRequest, "interval must be 0 (fast) or 1-30 seconds")
		return
	}

	if err := h.st.SetState(r.Context(), StateKeyInterval, strconv.Itoa(req.Interval)); err != nil {
		slog.Error("Failed to persist interval setting", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to persist setting")
		return
	}
	h.rec.SetInterval(location.IntervalFromSetting(req.Interval))

	slog.Info("Sampling interval updated", "setting", req.Interval)
	writeJSON(w, http.StatusOK, req)
}

// Current returns the stored interval setting, falling back to the configured
// default when nothing is stored or the stored value is unreadable.
func (h *SettingsHandler) Current(ctx context.Context) int {
	raw, ok := h.st.GetState(ctx, StateKeyInterval)
	if !ok {
		return h.def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || !location.ValidSetting(v) {
		slog.Warn("Ignoring invalid stored interval setting", "value", raw)
		return h.def
	}
	return v
}
