package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yearbook-api/internal/application/memory"
	"github.com/yearbook-api/internal/domain"
	"github.com/yearbook-api/internal/transport/http/middleware"
)

// maxPublishBytes caps a multipart publish request body.
const maxPublishBytes = 32 << 20

// MemoryHandler handles memory publishing, reading and moderation.
type MemoryHandler struct {
	svc      memory.Service
	profiles ProfileStore
}

func NewMemoryHandler(svc memory.Service, profiles ProfileStore) *MemoryHandler {
	return &MemoryHandler{svc: svc, profiles: profiles}
}

// Publish accepts a multipart form: headline, caption, privacy,
// imageUrls (JSON array), taggedStudentIds (JSON array) and images
// (file parts).
func (h *MemoryHandler) Publish(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := r.ParseMultipartForm(maxPublishBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	req := memory.PublishRequest{
		Headline: r.FormValue("headline"),
		Caption:  r.FormValue("caption"),
		Privacy:  strings.TrimSpace(r.FormValue("privacy")),
	}
	if raw := r.FormValue("imageUrls"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.ImageURLs); err != nil {
			writeError(w, http.StatusBadRequest, "imageUrls must be a JSON array of strings")
			return
		}
	}
	if raw := r.FormValue("taggedStudentIds"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.TaggedStudentIDs); err != nil {
			writeError(w, http.StatusBadRequest, "taggedStudentIds must be a JSON array of strings")
			return
		}
	}
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["images"] {
			f, err := fh.Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, "unreadable file part")
				return
			}
			defer f.Close()
			req.Files = append(req.Files, memory.FileUpload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Reader:      f,
			})
		}
	}

	res, err := h.svc.Publish(r.Context(), h.studentID(r, claims.UserID), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *MemoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MemoryHandler) ListByStudent(w http.ResponseWriter, r *http.Request) {
	ms, err := h.svc.ListByStudent(r.Context(), chi.URLParam(r, "studentId"))
	if err != nil {
		httpError(w, err)
		return
	}
	if ms == nil {
		ms = []domain.Memory{}
	}
	writeJSON(w, http.StatusOK, ms)
}

func (h *MemoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	isAdmin := claims.Role == domain.RoleAdmin
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), h.studentID(r, claims.UserID), isAdmin); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "memory deleted"})
}

// studentID resolves the caller's linked student ID; empty when the
// account is unlinked or the lookup fails.
func (h *MemoryHandler) studentID(r *http.Request, userID string) string {
	p, err := h.profiles.GetProfile(r.Context(), userID)
	if err != nil || p.StudentID == nil {
		return ""
	}
	return *p.StudentID
}
