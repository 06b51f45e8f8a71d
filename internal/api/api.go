// Package api exposes the bounty engine over HTTP. The host that fronts
// this API is responsible for authenticating callers; the authenticated
// principal arrives in the X-Stallions-Principal header.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/peejay-git/stallions/internal/engine"
	"github.com/peejay-git/stallions/internal/ledger"
	"github.com/peejay-git/stallions/internal/models"
)

// PrincipalHeader carries the caller identity supplied by the host.
const PrincipalHeader = "X-Stallions-Principal"

// Server provides the REST API handlers.
type Server struct {
	engine *engine.Engine
	ledger *ledger.Ledger
}

// NewServer creates a new API server. The ledger may be nil when rewards
// settle through an external transferrer; the wallet routes then 404.
func NewServer(e *engine.Engine, l *ledger.Ledger) *Server {
	return &Server{engine: e, ledger: l}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/bounties", s.listBounties)
	mux.HandleFunc("POST /api/v1/bounties", s.createBounty)
	mux.HandleFunc("GET /api/v1/bounties/{id}", s.getBounty)
	mux.HandleFunc("PATCH /api/v1/bounties/{id}", s.updateBounty)
	mux.HandleFunc("POST /api/v1/bounties/{id}/cancel", s.cancelBounty)

	mux.HandleFunc("GET /api/v1/bounties/{id}/submissions", s.listSubmissions)
	mux.HandleFunc("POST /api/v1/bounties/{id}/submissions", s.submitWork)

	mux.HandleFunc("GET /api/v1/submissions/{id}", s.getSubmission)
	mux.HandleFunc("POST /api/v1/submissions/{id}/accept", s.acceptSubmission)
	mux.HandleFunc("POST /api/v1/submissions/{id}/reject", s.rejectSubmission)

	mux.HandleFunc("GET /api/v1/wallets/{principal}", s.walletBalance)
	mux.HandleFunc("GET /api/v1/wallets/{principal}/transfers", s.walletTransfers)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+PrincipalHeader)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps engine error kinds to HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrTransfer):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		slog.Error("api request failed", "error", err)
	}
	writeError(w, status, err.Error())
}

// caller extracts the acting principal from the request. An empty principal
// is allowed through; owner-gated engine operations reject it themselves.
func caller(r *http.Request) models.Principal {
	return models.Principal(r.Header.Get(PrincipalHeader))
}

// --- Bounties ---

type createBountyRequest struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	RewardAmount int64     `json:"reward_amount"`
	RewardAsset  string    `json:"reward_asset"`
	Deadline     time.Time `json:"deadline"`
	Skills       []string  `json:"skills"`
}

func (s *Server) createBounty(w http.ResponseWriter, r *http.Request) {
	var req createBountyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	b, err := s.engine.CreateBounty(r.Context(), caller(r), engine.CreateBountyParams{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		RewardAmount: req.RewardAmount,
		RewardAsset:  req.RewardAsset,
		Deadline:     req.Deadline,
		Skills:       req.Skills,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) getBounty(w http.ResponseWriter, r *http.Request) {
	b, err := s.engine.GetBounty(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) listBounties(w http.ResponseWriter, r *http.Request) {
	bounties, err := s.engine.ListBounties(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bounties)
}

type updateBountyRequest struct {
	Title        *string              `json:"title"`
	Description  *string              `json:"description"`
	Category     *string              `json:"category"`
	RewardAmount *int64               `json:"reward_amount"`
	RewardAsset  *string              `json:"reward_asset"`
	Deadline     *time.Time           `json:"deadline"`
	Status       *models.BountyStatus `json:"status"`
	Skills       *[]string            `json:"skills"`
}

func (s *Server) updateBounty(w http.ResponseWriter, r *http.Request) {
	var req updateBountyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	b, err := s.engine.UpdateBounty(r.Context(), caller(r), r.PathValue("id"), engine.UpdateBountyParams{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		RewardAmount: req.RewardAmount,
		RewardAsset:  req.RewardAsset,
		Deadline:     req.Deadline,
		Status:       req.Status,
		Skills:       req.Skills,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) cancelBounty(w http.ResponseWriter, r *http.Request) {
	b, err := s.engine.CancelBounty(r.Context(), caller(r), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// --- Submissions ---

type submitWorkRequest struct {
	Content string `json:"content"`
}

func (s *Server) submitWork(w http.ResponseWriter, r *http.Request) {
	var req submitWorkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	sub, err := s.engine.SubmitWork(r.Context(), caller(r), r.PathValue("id"), req.Content)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.engine.ListSubmissions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) getSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := s.engine.GetSubmission(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) acceptSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := s.engine.AcceptSubmission(r.Context(), caller(r), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) rejectSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := s.engine.RejectSubmission(r.Context(), caller(r), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// --- Wallets ---

func (s *Server) walletBalance(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeError(w, http.StatusNotFound, "no local ledger configured")
		return
	}
	principal := models.Principal(r.PathValue("principal"))
	asset := r.URL.Query().Get("asset")
	if asset == "" {
		writeError(w, http.StatusBadRequest, "missing asset query parameter")
		return
	}

	balance, err := s.ledger.Balance(r.Context(), principal, asset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"principal": principal,
		"asset":     asset,
		"balance":   balance,
	})
}

func (s *Server) walletTransfers(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeError(w, http.StatusNotFound, "no local ledger configured")
		return
	}
	transfers, err := s.ledger.History(r.Context(), models.Principal(r.PathValue("principal")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, transfers)
}
