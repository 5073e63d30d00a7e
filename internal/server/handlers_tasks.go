package server

import (
	"net/http"

	"github.com/Houeta/homecare-api/internal/models"
	"github.com/Houeta/homecare-api/internal/services/tasks"
	"github.com/go-chi/chi/v5"
)

func actorFrom(r *http.Request) tasks.Actor {
	claims, _ := claimsFrom(r.Context())
	return tasks.Actor{ID: claims.UserID, Role: models.Role(claims.Role)}
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTaskRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	task, err := s.tasks.Create(r.Context(), actorFrom(r), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusCreated, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	list, err := s.tasks.List(r.Context(), actorFrom(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Task{}
	}

	s.respondJSON(w, r, http.StatusOK, list)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.Get(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, task)
}

func (s *Server) handleAcceptTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.Accept(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, task)
}

func (s *Server) handleProposeSchedule(w http.ResponseWriter, r *http.Request) {
	var req models.ProposeScheduleRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	task, err := s.tasks.ProposeSchedule(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, task)
}

func (s *Server) handleApproveSchedule(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.ApproveSchedule(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, task)
}

func (s *Server) handleRejectSchedule(w http.ResponseWriter, r *http.Request) {
	var req models.RejectScheduleRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	task, err := s.tasks.RejectSchedule(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, task)
}

func (s *Server) handleAssignTask(w http.ResponseWriter, r *http.Request) {
	var req models.AssignRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	task, err := s.tasks.Assign(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req.ContractorID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, task)
}

func (s *Server) handleUnassignTask(w http.ResponseWriter, r *http.Request) {
	var req models.AssignRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	task, err := s.tasks.Unassign(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req.ContractorID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, task)
}

func (s *Server) handleUpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateStatusRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	task, err := s.tasks.UpdateStatus(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, task)
}

func (s *Server) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.Cancel(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, task)
}

func (s *Server) handleCreateHome(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var req models.CreateHomeRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Address == "" || req.City == "" {
		s.respondError(w, r, models.ErrInvalidInput)
		return
	}

	home := models.Home{
		OwnerID:   claims.UserID,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		ZipCode:   req.ZipCode,
		IsDefault: req.IsDefault,
	}
	if err := s.homes.CreateHome(r.Context(), &home); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusCreated, home)
}
