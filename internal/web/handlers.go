package web

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/csvedit/internal/core"
	"github.com/JonMunkholm/csvedit/internal/web/templates"
)

// handleEditor renders the editor page. No session renders the empty state.
func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.Session(r.Context(), s.sessionID(r))
	switch {
	case errors.Is(err, core.ErrSessionNotFound):
		renderPage(w, r, http.StatusOK, templates.EditorView{})
	case err != nil:
		s.respondError(w, r, err)
	default:
		renderPage(w, r, http.StatusOK, templates.EditorView{Document: sess.Document})
	}
}

// handleAddRowForm appends a row from the add-row inputs.
func (s *Server) handleAddRowForm(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(r)
	sess, err := s.service.Session(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, errors.Join(errBadRequest, err))
		return
	}

	draft := formDraft(r, sess.Document.Headers, nil)
	if _, err := s.service.AddRow(r.Context(), id, draft); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.setSession(w, id)
	redirectHome(w, r)
}

// handleBeginEditForm opens a row for editing.
func (s *Server) handleBeginEditForm(w http.ResponseWriter, r *http.Request) {
	rowID, err := rowIDParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	id := s.sessionID(r)
	if _, err := s.service.BeginEdit(r.Context(), id, rowID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.setSession(w, id)
	redirectHome(w, r)
}

// handleDeleteRowForm deletes a row.
func (s *Server) handleDeleteRowForm(w http.ResponseWriter, r *http.Request) {
	rowID, err := rowIDParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	id := s.sessionID(r)
	if _, err := s.service.DeleteRow(r.Context(), id, rowID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.setSession(w, id)
	redirectHome(w, r)
}

// handleSaveEditForm commits the inputs the user changed.
func (s *Server) handleSaveEditForm(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(r)
	sess, err := s.service.Session(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, errors.Join(errBadRequest, err))
		return
	}

	draft := core.Draft{}
	if editingID, ok := sess.Document.Editing(); ok {
		if row, found := sess.Document.Row(editingID); found {
			draft = formDraft(r, sess.Document.Headers, &row)
		}
	}

	if _, err := s.service.CommitEdit(r.Context(), id, draft); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.setSession(w, id)
	redirectHome(w, r)
}

// handleCancelEditForm discards the open edit.
func (s *Server) handleCancelEditForm(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(r)
	if _, err := s.service.CancelEdit(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.setSession(w, id)
	redirectHome(w, r)
}

// handleDownload serves the document as CSV. Without a loaded file the
// download is an empty file, matching a serialize of nothing.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	text, err := s.service.Export(r.Context(), s.sessionID(r))
	if err != nil && !errors.Is(err, core.ErrSessionNotFound) {
		s.respondError(w, r, err)
		return
	}
	writeAttachment(w, core.ExportContentType, core.ExportFileName, []byte(text))
}

// handleDownloadXLSX serves the document as a workbook.
func (s *Server) handleDownloadXLSX(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.service.ExportXLSX(r.Context(), s.sessionID(r), &buf); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeAttachment(w, core.XLSXContentType, core.XLSXFileName, buf.Bytes())
}

func writeAttachment(w http.ResponseWriter, contentType, fileName string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, bytes.NewReader(body))
}
