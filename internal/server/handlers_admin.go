package server

import (
	"net/http"

	"github.com/Houeta/homecare-api/internal/models"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.users.Stats(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, stats)
}

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := s.users.ListUsers(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if list == nil {
		list = []models.User{}
	}

	s.respondJSON(w, r, http.StatusOK, list)
}

func (s *Server) handleAdminListTasks(w http.ResponseWriter, r *http.Request) {
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

// handleAdminListContractors returns the contractors eligible for
// assignment: verified and active only.
func (s *Server) handleAdminListContractors(w http.ResponseWriter, r *http.Request) {
	list, err := s.users.ListAssignableContractors(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if list == nil {
		list = []models.User{}
	}

	s.respondJSON(w, r, http.StatusOK, list)
}

func (s *Server) handleAdminPendingContractors(w http.ResponseWriter, r *http.Request) {
	list, err := s.users.ListPendingContractors(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if list == nil {
		list = []models.User{}
	}

	s.respondJSON(w, r, http.StatusOK, list)
}

func (s *Server) handleAdminPatchUser(w http.ResponseWriter, r *http.Request) {
	var req models.AdminUpdateUserRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	user, err := s.users.PatchUser(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, user)
}

func (s *Server) handleAdminVerifyContractor(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyContractorRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.users.VerifyContractor(r.Context(), chi.URLParam(r, "id"), req.Approve); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, map[string]bool{"approved": req.Approve})
}
