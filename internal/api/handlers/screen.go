package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/fuyaseru/brain/internal/api/jobs"
	"github.com/fuyaseru/brain/internal/brain"
	"github.com/fuyaseru/brain/internal/contracts"
	"github.com/fuyaseru/brain/internal/report"
	"github.com/fuyaseru/brain/internal/s1_universe"
	"github.com/fuyaseru/brain/pkg/logger"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// CodeInput accepts either free text ("7203 6758、9984") or a list
type CodeInput []string

// UnmarshalJSON normalizes and deduplicates the codes
func (c *CodeInput) UnmarshalJSON(b []byte) error {
	var text string
	if err := json.Unmarshal(b, &text); err == nil {
		*c = s1_universe.ParseCodes(text)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return errors.New("codes must be a string or a list of strings")
	}
	*c = s1_universe.ParseCodeList(list)
	return nil
}

// ScreenRequest is the body of screening requests
type ScreenRequest struct {
	Codes          CodeInput `json:"codes" validate:"required,min=1,max=200"`
	IncludeHistory bool      `json:"include_history"`
}

// ScreenResponse is a finished bundle
type ScreenResponse struct {
	Codes       []string                 `json:"codes"`
	Rows        []report.Row             `json:"rows"`
	Results     []contracts.TickerResult `json:"results"`
	FromCache   bool                     `json:"from_cache"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// JobResponse is the state of an async job
type JobResponse struct {
	jobs.Snapshot
	ETAText string          `json:"eta_text"`
	Result  *ScreenResponse `json:"result,omitempty"`
}

// ScreenHandler serves synchronous and async screening
type ScreenHandler struct {
	jobs         *jobs.Manager
	baseCtx      context.Context
	etaPerTicker time.Duration
	logger       *logger.Logger
}

// NewScreenHandler creates a new screen handler. Async jobs run under baseCtx.
func NewScreenHandler(baseCtx context.Context, manager *jobs.Manager, etaPerTicker time.Duration, log *logger.Logger) *ScreenHandler {
	return &ScreenHandler{
		jobs:         manager,
		baseCtx:      baseCtx,
		etaPerTicker: etaPerTicker,
		logger:       log,
	}
}

// Screen runs a batch and waits for the bundle
// POST /api/screen
func (h *ScreenHandler) Screen(w http.ResponseWriter, r *http.Request) {
	var req ScreenRequest
	if err := decodeRequest(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	bundle, fromCache, err := h.jobs.RunSync(r.Context(), req.Codes)
	if err != nil {
		switch {
		case errors.Is(err, brain.ErrNoCodes):
			respondError(w, http.StatusBadRequest, "有効な証券コードがありません")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			respondError(w, http.StatusServiceUnavailable, "処理が中断されました")
		default:
			h.logger.WithError(err).Error("Screening failed")
			respondError(w, http.StatusInternalServerError, "Screening failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, newScreenResponse(bundle, fromCache, req.IncludeHistory))
}

// SubmitJob queues a batch and returns its id and ETA
// POST /api/screen/jobs
func (h *ScreenHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req ScreenRequest
	if err := decodeRequest(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap := h.jobs.Submit(h.baseCtx, req.Codes)
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":     snap.ID,
		"state":      snap.State,
		"total":      snap.Total,
		"eta":        snap.ETA.Seconds(),
		"eta_text":   report.ETAText(snap.ETA),
		"status_url": "/api/screen/jobs/" + snap.ID,
		"ws_url":     "/ws/jobs/" + snap.ID,
	})
}

// GetJob reports job progress, with the bundle once done
// GET /api/screen/jobs/{id}
func (h *ScreenHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	snap, err := h.jobs.Get(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}

	resp := JobResponse{Snapshot: snap, ETAText: report.ETAText(snap.ETA)}
	if snap.Bundle != nil {
		resp.Result = newScreenResponse(snap.Bundle, snap.FromCache, false)
	}
	respondJSON(w, http.StatusOK, resp)
}

// WatchJob streams job events over a websocket until the job finishes
// GET /ws/jobs/{id}
func (h *ScreenHandler) WatchJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	events, cancel, err := h.jobs.Subscribe(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	// reader: notices the client going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.WithError(err).WithField("job_id", id).Debug("WebSocket write failed")
				return
			}
		case <-gone:
			return
		}
	}
}

func newScreenResponse(b *contracts.Bundle, fromCache, includeHistory bool) *ScreenResponse {
	results := b.Ordered()
	if !includeHistory {
		for i := range results {
			results[i].History = nil
		}
	}
	return &ScreenResponse{
		Codes:       b.Codes,
		Rows:        report.Rows(b),
		Results:     results,
		FromCache:   fromCache,
		GeneratedAt: b.GeneratedAt,
	}
}

// ETA answers how long an uncached run over the posted codes would take
// POST /api/screen/eta
func (h *ScreenHandler) ETA(w http.ResponseWriter, r *http.Request) {
	var req ScreenRequest
	if err := decodeRequest(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	eta := report.ETA(len(req.Codes), h.etaPerTicker)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"codes":    req.Codes,
		"eta":      eta.Seconds(),
		"eta_text": report.ETAText(eta),
		"message":  fmt.Sprintf("1銘柄につき%.0f秒お待ちください", h.etaPerTicker.Seconds()),
	})
}
