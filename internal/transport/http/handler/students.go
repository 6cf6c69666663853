package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/yearbook-api/internal/application/student"
	"github.com/yearbook-api/internal/domain"
	"github.com/yearbook-api/internal/transport/http/middleware"
)

// maxProfileBytes caps a multipart profile-update request body.
const maxProfileBytes = 8 << 20

// StudentHandler serves the student directory and profile editing.
type StudentHandler struct {
	svc student.Service
}

func NewStudentHandler(svc student.Service) *StudentHandler { return &StudentHandler{svc: svc} }

// List serves the full directory ordered by student ID.
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	students, err := h.svc.List(r.Context())
	h.writeStudents(w, students, err)
}

// ListByYear serves the directory filtered to one graduation year.
func (h *StudentHandler) ListByYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "year must be a number")
		return
	}
	students, err := h.svc.ListByYear(r.Context(), year)
	h.writeStudents(w, students, err)
}

// Search looks students up by name via the ?name= query param.
func (h *StudentHandler) Search(w http.ResponseWriter, r *http.Request) {
	students, err := h.svc.Search(r.Context(), r.URL.Query().Get("name"))
	h.writeStudents(w, students, err)
}

func (h *StudentHandler) writeStudents(w http.ResponseWriter, students []domain.Student, err error) {
	if err != nil {
		httpError(w, err)
		return
	}
	if students == nil {
		students = []domain.Student{}
	}
	writeJSON(w, http.StatusOK, students)
}

func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// UpdateProfile accepts a multipart form: displayName, bio, motto
// (each optional, absent fields stay unchanged) and an optional avatar
// file part.
func (h *StudentHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := r.ParseMultipartForm(maxProfileBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	var req domain.UpdateProfileRequest
	if r.Form.Has("displayName") {
		v := r.FormValue("displayName")
		req.DisplayName = &v
	}
	if r.Form.Has("bio") {
		v := r.FormValue("bio")
		req.Bio = &v
	}
	if r.Form.Has("motto") {
		v := r.FormValue("motto")
		req.Motto = &v
	}

	var avatar *student.AvatarUpload
	if r.MultipartForm != nil {
		if fhs := r.MultipartForm.File["avatar"]; len(fhs) > 0 {
			f, err := fhs[0].Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, "unreadable file part")
				return
			}
			defer f.Close()
			avatar = &student.AvatarUpload{
				Filename:    fhs[0].Filename,
				ContentType: fhs[0].Header.Get("Content-Type"),
				Reader:      f,
			}
		}
	}

	p, err := h.svc.UpdateProfile(r.Context(), claims.UserID, req, avatar)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
