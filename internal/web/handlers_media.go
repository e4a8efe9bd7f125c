package web

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"socialsync/internal/media"
	"socialsync/internal/model"
)

func (s *Server) mediaStore(w http.ResponseWriter) (*media.Store, bool) {
	if s.svc == nil || s.svc.Media == nil {
		writeError(w, http.StatusServiceUnavailable, "media storage is not configured")
		return nil, false
	}
	return s.svc.Media, true
}

// canWrite rejects anonymous media writes once a backend is configured.
func (s *Server) canWrite(w http.ResponseWriter, r *http.Request) bool {
	if s.svc.Sources.HasBackend() && scopeFrom(r.Context()).UserID == "" {
		writeErr(w, r, fmt.Errorf("%w: sign in to manage media", model.ErrUnauthenticated))
		return false
	}
	return true
}

// handleUploadMedia stores the raw request body at bucket/path.
func (s *Server) handleUploadMedia(w http.ResponseWriter, r *http.Request) {
	m, ok := s.mediaStore(w)
	if !ok || !s.canWrite(w, r) {
		return
	}
	vars := mux.Vars(r)
	obj, err := m.Upload(vars["bucket"], vars["path"], io.LimitReader(r.Body, media.MaxObjectSize+1))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, struct {
		media.Object
		Attachment any `json:"attachment"`
	}{obj, obj.Media()})
}

func (s *Server) handleDeleteMedia(w http.ResponseWriter, r *http.Request) {
	m, ok := s.mediaStore(w)
	if !ok || !s.canWrite(w, r) {
		return
	}
	vars := mux.Vars(r)
	if err := m.Delete(vars["bucket"], vars["path"]); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListMedia(w http.ResponseWriter, r *http.Request) {
	m, ok := s.mediaStore(w)
	if !ok {
		return
	}
	paths, err := m.List(mux.Vars(r)["bucket"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, paths)
}

// handleMediaURL returns the public URL of ?bucket=&path= without checking
// that the object exists.
func (s *Server) handleMediaURL(w http.ResponseWriter, r *http.Request) {
	m, ok := s.mediaStore(w)
	if !ok {
		return
	}
	q := r.URL.Query()
	u, err := m.PublicURL(q.Get("bucket"), q.Get("path"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"publicUrl": u})
}

// handleMediaFile serves public objects under /media.
func (s *Server) handleMediaFile(w http.ResponseWriter, r *http.Request) {
	m, ok := s.mediaStore(w)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	obj, data, err := m.Open(vars["bucket"], vars["path"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", obj.ContentType)
	http.ServeContent(w, r, obj.Path, time.Time{}, bytes.NewReader(data))
}
