package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yearbook-api/internal/application/album"
	"github.com/yearbook-api/internal/domain"
	"github.com/yearbook-api/internal/pkg/validate"
	"github.com/yearbook-api/internal/transport/http/middleware"
)

// AlbumHandler handles album creation and feeds.
type AlbumHandler struct {
	svc      album.Service
	profiles ProfileStore
}

func NewAlbumHandler(svc album.Service, profiles ProfileStore) *AlbumHandler {
	return &AlbumHandler{svc: svc, profiles: profiles}
}

func (h *AlbumHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.CreateAlbumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	creator := ""
	if p, err := h.profiles.GetProfile(r.Context(), claims.UserID); err == nil && p.StudentID != nil {
		creator = *p.StudentID
	}
	a, err := h.svc.Create(r.Context(), creator, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *AlbumHandler) List(w http.ResponseWriter, r *http.Request) {
	as, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	if as == nil {
		as = []domain.Album{}
	}
	writeJSON(w, http.StatusOK, as)
}

func (h *AlbumHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *AlbumHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "album deleted"})
}
