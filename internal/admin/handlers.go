package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/leonid6372/crypto-tracker/internal/common/domain"
	"github.com/leonid6372/crypto-tracker/internal/trackererrs"
	"github.com/leonid6372/crypto-tracker/pkg/log"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	now := s.now()

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Uptime:    now.Sub(s.started).Truncate(time.Second).String(),
		Timestamp: now.UTC(),
	})
}

func (s *Server) handleSyncAll(w http.ResponseWriter, r *http.Request) {
	res, err := s.syncer.SyncPrices(r.Context(), domain.ScopeAll())
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSyncUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.existingUser(w, r)
	if !ok {
		return
	}

	res, err := s.syncer.SyncPrices(r.Context(), domain.ScopeUser(userID))
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	res, err := s.digests.TriggerDailyDigest(r.Context(), userID)
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.existingUser(w, r)
	if !ok {
		return
	}

	portfolio, err := s.portfolios.Portfolio(r.Context(), userID)
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, portfolio)
}

func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return 0, false
	}

	return userID, true
}

func (s *Server) existingUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return 0, false
	}

	if _, err := s.users.GetUserByID(r.Context(), userID); err != nil {
		writeFailure(w, err)
		return 0, false
	}

	return userID, true
}

func writeFailure(w http.ResponseWriter, err error) {
	if errors.Is(err, trackererrs.ErrUserNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	log.Error("admin request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn("failed to write response", zap.Error(err))
	}
}
