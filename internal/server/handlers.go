package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/advisor-cli/internal/model"
	"github.com/sells-group/advisor-cli/internal/scorer"
	"github.com/sells-group/advisor-cli/internal/store"
)

// maxBodyBytes bounds request bodies; a catalog of a few thousand products
// fits comfortably.
const maxBodyBytes = 4 << 20

type recommendRequest struct {
	Client   model.ClientProfile       `json:"client"`
	Holdings []model.PortfolioHolding  `json:"holdings"`
	Catalog  []model.InvestmentProduct `json:"catalog"`
}

type priorityRequest struct {
	Client           model.ClientProfile `json:"client"`
	DaysSinceContact int                 `json:"days_since_contact"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			zap.L().Warn("server: health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := scorer.ValidateRecommendRequest(scorer.RecommendRequest{Client: req.Client, Holdings: req.Holdings}); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := scorer.ValidateCatalog(req.Catalog); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, scorer.Recommend(req.Client, req.Holdings, req.Catalog))
}

func (s *Server) handlePrioritize(w http.ResponseWriter, r *http.Request) {
	var req priorityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := req.Client.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.DaysSinceContact < 0 {
		writeError(w, http.StatusBadRequest, "days_since_contact must be >= 0")
		return
	}

	writeJSON(w, http.StatusOK, scorer.Prioritize(req.Client, req.DaysSinceContact))
}

func (s *Server) handleClientRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.scorer.RecommendForClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleClientPriority(w http.ResponseWriter, r *http.Request) {
	result, err := s.scorer.PrioritizeClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	var filter scorer.TaskFilter

	if p := r.URL.Query().Get("priority"); p != "" {
		priority, ok := model.ParsePriority(p)
		if !ok {
			writeError(w, http.StatusBadRequest, "priority must be high, medium, or low")
			return
		}
		filter.Priority = priority
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	tasks, err := s.scorer.TaskList(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if tasks == nil {
		tasks = []model.TaskPriorityResult{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, err error) {
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "client not found")
		return
	}
	zap.L().Error("server: request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
