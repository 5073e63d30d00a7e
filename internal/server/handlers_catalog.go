package server

import (
	"net/http"

	"github.com/Houeta/homecare-api/internal/models"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.catalog.ListServices(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if services == nil {
		services = []models.Service{}
	}

	s.respondJSON(w, r, http.StatusOK, services)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.catalog.ListCategories(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if categories == nil {
		categories = []models.ServiceCategory{}
	}

	s.respondJSON(w, r, http.StatusOK, categories)
}

func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	service, err := s.catalog.GetServiceByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, service)
}
