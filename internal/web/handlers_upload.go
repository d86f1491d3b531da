package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/JonMunkholm/csvedit/internal/core"
)

// multipartOverhead is allowed on top of the file size limit for form
// boundaries and headers.
const multipartOverhead = 1 << 20

// defaultLoadName names files posted as a raw body without ?name=.
const defaultLoadName = "data.csv"

// upload is a file taken from a request.
type upload struct {
	name string
	body io.ReadCloser
}

// readUpload extracts the file to load. Multipart requests carry it in the
// "file" field; any other content type is treated as the file itself.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		name := r.URL.Query().Get("name")
		if name == "" {
			name = defaultLoadName
		}
		return &upload{name: path.Base(name), body: r.Body}, nil
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: %v", core.ErrFileTooLarge, err)
		}
		return nil, fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, core.ErrNoFile
	}
	if err != nil {
		return nil, fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return &upload{name: header.Filename, body: file}, nil
}

// handleLoadForm loads the picked file and returns to the editor. Submitting
// without a file leaves the current document alone.
func (s *Server) handleLoadForm(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if errors.Is(err, core.ErrNoFile) {
		redirectHome(w, r)
		return
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer up.body.Close()

	sess, err := s.service.Load(r.Context(), s.sessionID(r), up.name, up.body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.setSession(w, sess.ID)
	redirectHome(w, r)
}

// handleLoad loads a file through the API and returns the new document.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer up.body.Close()

	sess, err := s.service.Load(r.Context(), s.sessionID(r), up.name, up.body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.setSession(w, sess.ID)
	writeJSON(w, http.StatusOK, toDocumentResponse(sess))
}
