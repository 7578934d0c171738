package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dapphub-labs/dapphub/logging"
	"github.com/dapphub-labs/dapphub/models"
	"github.com/dapphub-labs/dapphub/service"
	"github.com/dapphub-labs/dapphub/walrus"
)

type response struct {
	Code    int64       `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeData(w http.ResponseWriter, data interface{}) {
	writeResponse(w, http.StatusOK, response{
		Code:    service.NoErr.Code,
		Message: service.NoErr.Message,
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrDappNotFound):
		writeResponse(w, http.StatusNotFound, response{
			Code:    service.NotFoundErr.Code,
			Message: err.Error(),
		})
	case errors.Is(err, walrus.ErrAllEndpointsExhausted) || errors.Is(err, context.DeadlineExceeded):
		writeResponse(w, http.StatusServiceUnavailable, response{
			Code:    http.StatusServiceUnavailable,
			Message: "upstream temporarily unavailable",
		})
	default:
		logging.Logger.Errorf("request failed, err=%s", err.Error())
		writeResponse(w, http.StatusInternalServerError, response{
			Code:    service.InternalErr.Code,
			Message: service.InternalErr.Message,
		})
	}
}

func writeBadInput(w http.ResponseWriter, message string) {
	writeResponse(w, http.StatusBadRequest, response{
		Code:    service.BadInputErr.Code,
		Message: message,
	})
}

func writeResponse(w http.ResponseWriter, statusCode int, payload response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Logger.Errorf("failed to write response, err=%s", err.Error())
	}
}

func (s *Server) handleListDapps(w http.ResponseWriter, r *http.Request) {
	dapps, err := s.registryService.ListDapps(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, dapps)
}

func (s *Server) handleGetDapp(w http.ResponseWriter, r *http.Request) {
	dapp, err := s.registryService.GetDapp(r.Context(), mux.Vars(r)["ref"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, dapp)
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.reviewService.ListReviews(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, reviews)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	forest, err := s.commentService.ListComments(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, forest)
}

func (s *Server) handleListTrending(w http.ResponseWriter, r *http.Request) {
	items, err := s.trendingService.ListTrending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, items)
}

type submitRegistrationsRequest struct {
	Items []models.RegistrationItem `json:"items"`
}

type submitRegistrationsData struct {
	JobID string `json:"job_id"`
	Total int    `json:"total"`
}

func (s *Server) handleSubmitRegistrations(w http.ResponseWriter, r *http.Request) {
	var req submitRegistrationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadInput(w, "request body is not valid json")
		return
	}
	if len(req.Items) == 0 {
		writeBadInput(w, "items must not be empty")
		return
	}
	for i, item := range req.Items {
		if item.Name == "" {
			writeBadInput(w, fmt.Sprintf("item %d is missing a name", i))
			return
		}
	}
	jobID, err := s.registrar.SubmitJob(req.Items)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, submitRegistrationsData{JobID: jobID, Total: len(req.Items)})
}

type registrationJobData struct {
	Progress *models.JobProgress          `json:"progress"`
	Results  []*models.RegistrationResult `json:"results"`
}

func (s *Server) handleGetRegistrationJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobID"]
	progress, err := s.registrar.GetProgress(jobID)
	if err != nil {
		writeResponse(w, http.StatusNotFound, response{
			Code:    service.NotFoundErr.Code,
			Message: "registration job not found",
		})
		return
	}
	results, err := s.registrar.GetResults(jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, registrationJobData{Progress: progress, Results: results})
}

type deleteDappData struct {
	DappID     string `json:"dapp_id"`
	CommitAtMs int64  `json:"commit_at_ms"`
}

func (s *Server) handleDeleteDapp(w http.ResponseWriter, r *http.Request) {
	dappID := mux.Vars(r)["id"]
	if _, err := s.registryService.GetDapp(r.Context(), dappID); err != nil {
		writeError(w, err)
		return
	}
	deadline, err := s.deleter.ScheduleDelete(dappID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, deleteDappData{DappID: dappID, CommitAtMs: deadline.UnixMilli()})
}

func (s *Server) handleRestoreDapp(w http.ResponseWriter, r *http.Request) {
	dappID := mux.Vars(r)["id"]
	if !s.deleter.Cancel(dappID) {
		writeResponse(w, http.StatusNotFound, response{
			Code:    service.NotFoundErr.Code,
			Message: "no pending deletion for dapp",
		})
		return
	}
	writeData(w, map[string]string{"dapp_id": dappID})
}
