package server

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/Houeta/homecare-api/internal/lib/logger/sl"
	"github.com/Houeta/homecare-api/internal/models"
	"github.com/go-chi/chi/v5"
)

const maxMultipartMemory = 8 << 20

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	response, err := s.users.Signup(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusCreated, response)
}

// handleContractorSignup accepts a multipart form: the account fields plus
// an identification document under the "identification" field.
func (s *Server) handleContractorSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: expected multipart form", models.ErrInvalidInput))
		return
	}

	req := models.SignupRequest{
		Email:     r.FormValue("email"),
		Password:  r.FormValue("password"),
		FirstName: r.FormValue("firstName"),
		LastName:  r.FormValue("lastName"),
		Phone:     r.FormValue("phone"),
	}

	file, header, err := r.FormFile("identification")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: identification document is required", models.ErrInvalidInput))
		return
	}
	defer file.Close()

	user, err := s.users.ContractorSignup(r.Context(), req, file, header.Filename)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	response, err := s.users.Login(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, response)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	user, err := s.users.Profile(r.Context(), claims.UserID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, user)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var req models.UpdateProfileRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	user, err := s.users.UpdateProfile(r.Context(), claims.UserID, req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, user)
}

// handleUploadAvatar accepts a multipart form with the image under the
// "avatar" field.
func (s *Server) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: expected multipart form", models.ErrInvalidInput))
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: avatar image is required", models.ErrInvalidInput))
		return
	}
	defer file.Close()

	user, err := s.users.UploadAvatar(r.Context(), claims.UserID, file, header.Filename)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, user)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	notifications, err := s.users.Notifications(r.Context(), claims.UserID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	s.respondJSON(w, r, http.StatusOK, notifications)
}

// handleServeUpload streams a stored avatar or identification document.
func (s *Server) handleServeUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	file, err := s.files.Open(name)
	if err != nil {
		s.respondError(w, r, models.ErrNotFound)
		return
	}
	defer file.Close()

	if contentType := mime.TypeByExtension(filepath.Ext(name)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if _, err = io.Copy(w, file); err != nil {
		s.log.ErrorContext(r.Context(), "failed to stream stored file", sl.Err(err))
	}
}
