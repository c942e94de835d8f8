// Package rewards exposes the reward orchestrator over HTTP.
package rewards

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/PREETHAM1590/waste-app/core/ledger"
	"github.com/PREETHAM1590/waste-app/core/logger"
	"github.com/PREETHAM1590/waste-app/core/model"
	"github.com/PREETHAM1590/waste-app/core/orchestrator"
	"github.com/PREETHAM1590/waste-app/core/rewardlog"
)

// Handler serves the reward API. Requests must include an Authorization
// header with "Bearer <token>" when token is non-empty.
type Handler struct {
	orch   *orchestrator.Orchestrator
	client ledger.Client
	store  rewardlog.Store
	token  string
	log    logger.Logger
}

// NewHandler creates a Handler. The store may be nil, in which case the
// history endpoint reports that logging is disabled.
func NewHandler(orch *orchestrator.Orchestrator, client ledger.Client, store rewardlog.Store, token string, log logger.Logger) *Handler {
	return &Handler{orch: orch, client: client, store: store, token: token, log: log}
}

// Router builds the HTTP routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/api/rewards", func(r chi.Router) {
		r.Use(h.auth)
		r.Post("/scan", h.submitScan)
		r.Post("/streak", h.submitStreak)
		r.Post("/achievement", h.submitAchievement)
		r.Post("/community", h.submitCommunity)
		r.Post("/batch", h.submitBatch)
		r.Post("/process-queue", h.processQueue)
		r.Post("/estimate-gas", h.estimateFee)
		r.Get("/stats", h.stats)
		r.Get("/queue", h.queue)
		r.Get("/balance/{wallet}", h.balance)
		r.Get("/history/{userID}", h.history)
	})
	return r
}

func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+h.token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// scanRequest accepts the session duration in seconds; the nanosecond
// encoding of time.Duration is not a reasonable wire format.
type scanRequest struct {
	model.ScanActivity
	SessionSeconds float64 `json:"session_duration_seconds"`
}

func (h *Handler) submitScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.WalletAddress == "" {
		http.Error(w, "user_id and wallet_address are required", http.StatusBadRequest)
		return
	}
	if req.SessionSeconds > 0 {
		req.SessionDuration = time.Duration(req.SessionSeconds * float64(time.Second))
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}
	writeSubmit(w, h.orch.SubmitScan(r.Context(), req.ScanActivity))
}

func (h *Handler) submitStreak(w http.ResponseWriter, r *http.Request) {
	var req model.StreakActivity
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.WalletAddress == "" {
		http.Error(w, "user_id and wallet_address are required", http.StatusBadRequest)
		return
	}
	writeSubmit(w, h.orch.SubmitStreak(r.Context(), req))
}

func (h *Handler) submitAchievement(w http.ResponseWriter, r *http.Request) {
	var req model.AchievementActivity
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.WalletAddress == "" {
		http.Error(w, "user_id and wallet_address are required", http.StatusBadRequest)
		return
	}
	writeSubmit(w, h.orch.SubmitAchievement(r.Context(), req))
}

func (h *Handler) submitCommunity(w http.ResponseWriter, r *http.Request) {
	var req model.CommunityActivity
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.WalletAddress == "" {
		http.Error(w, "user_id and wallet_address are required", http.StatusBadRequest)
		return
	}
	writeSubmit(w, h.orch.SubmitCommunity(r.Context(), req))
}

func (h *Handler) submitBatch(w http.ResponseWriter, r *http.Request) {
	var req []model.BatchActivity
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req) == 0 {
		http.Error(w, "empty batch", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.orch.SubmitBatch(r.Context(), req))
}

func (h *Handler) processQueue(w http.ResponseWriter, r *http.Request) {
	h.orch.Flush(r.Context())
	writeJSON(w, http.StatusOK, h.orch.QueueStatus())
}

type estimateRequest struct {
	WalletAddress string `json:"wallet_address"`
	Amount        int64  `json:"amount"`
}

func (h *Handler) estimateFee(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !h.client.IsValidAddress(req.WalletAddress) {
		http.Error(w, "invalid wallet address", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		http.Error(w, "amount must be positive", http.StatusBadRequest)
		return
	}
	est, err := h.client.EstimateFee(r.Context(), req.WalletAddress, req.Amount)
	if err != nil {
		h.log.Errorf("fee estimate for %s: %v", req.WalletAddress, err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"wallet":    req.WalletAddress,
		"amount":    req.Amount,
		"fee":       est.Fee,
		"gas_limit": est.GasLimit,
	})
}

func (h *Handler) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.orch.Stats())
}

func (h *Handler) queue(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.orch.QueueStatus())
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	wallet := chi.URLParam(r, "wallet")
	if !h.client.IsValidAddress(wallet) {
		http.Error(w, "invalid wallet address", http.StatusBadRequest)
		return
	}
	bal, err := h.client.BalanceOf(r.Context(), wallet)
	if err != nil {
		h.log.Errorf("balance lookup for %s: %v", wallet, err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"wallet": wallet, "balance": bal})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, "reward logging disabled", http.StatusNotFound)
		return
	}
	q := rewardlog.Query{UserID: chi.URLParam(r, "userID")}
	if s := r.URL.Query().Get("start"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.Start = t
		}
	}
	if s := r.URL.Query().Get("end"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.End = t
		}
	}
	if a := r.URL.Query().Get("activity"); a != "" {
		t, ok := model.ParseActivityType(a)
		if !ok {
			http.Error(w, "unknown activity type", http.StatusBadRequest)
			return
		}
		q.Activity = t
		q.HasActivity = true
	}
	records, err := h.store.Query(r.Context(), q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func writeSubmit(w http.ResponseWriter, res orchestrator.SubmitResult) {
	status := http.StatusOK
	if res.Outcome == orchestrator.OutcomeRejected {
		status = http.StatusForbidden
	}
	writeJSON(w, status, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
