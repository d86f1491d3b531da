package web

import (
	"net/http"
)

// handleAddRow appends a row built from a JSON object of column values.
func (s *Server) handleAddRow(w http.ResponseWriter, r *http.Request) {
	draft, err := decodeDraft(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	id := s.sessionID(r)
	rec, err := s.service.AddRow(r.Context(), id, draft)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.setSession(w, id)
	writeJSON(w, http.StatusCreated, rec)
}

// handleDeleteRow removes one row by ID.
func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	rowID, err := rowIDParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	id := s.sessionID(r)
	sess, err := s.service.DeleteRow(r.Context(), id, rowID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.setSession(w, id)
	writeJSON(w, http.StatusOK, toDocumentResponse(sess))
}

// handleBeginEdit opens a row for editing.
func (s *Server) handleBeginEdit(w http.ResponseWriter, r *http.Request) {
	rowID, err := rowIDParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	id := s.sessionID(r)
	sess, err := s.service.BeginEdit(r.Context(), id, rowID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.setSession(w, id)
	writeJSON(w, http.StatusOK, toDocumentResponse(sess))
}

// handleCommitEdit merges the posted draft into the row under edit.
func (s *Server) handleCommitEdit(w http.ResponseWriter, r *http.Request) {
	draft, err := decodeDraft(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	id := s.sessionID(r)
	sess, err := s.service.CommitEdit(r.Context(), id, draft)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.setSession(w, id)
	writeJSON(w, http.StatusOK, toDocumentResponse(sess))
}

// handleCancelEdit discards the open edit.
func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(r)
	sess, err := s.service.CancelEdit(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.setSession(w, id)
	writeJSON(w, http.StatusOK, toDocumentResponse(sess))
}
