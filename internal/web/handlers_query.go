package web

import (
	"bytes"
	"net/http"

	"github.com/JonMunkholm/csvedit/internal/core"
)

// handleGetDocument returns the session's document.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.Session(r.Context(), s.sessionID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentResponse(sess))
}

// handleExport serves the document as CSV, or as a workbook with ?format=xlsx.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(r)

	switch format := r.URL.Query().Get("format"); format {
	case "", "csv":
		text, err := s.service.Export(r.Context(), id)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeAttachment(w, core.ExportContentType, core.ExportFileName, []byte(text))

	case "xlsx":
		var buf bytes.Buffer
		if err := s.service.ExportXLSX(r.Context(), id, &buf); err != nil {
			s.respondError(w, r, err)
			return
		}
		writeAttachment(w, core.XLSXContentType, core.XLSXFileName, buf.Bytes())

	default:
		writeError(w, r, http.StatusBadRequest, "invalid request body: unknown format "+format)
	}
}

// SummaryResponse describes every column of a session's document.
type SummaryResponse struct {
	SessionID string               `json:"sessionId"`
	Columns   []core.ColumnSummary `json:"columns"`
}

// handleSummary returns per-column statistics.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(r)
	cols, err := s.service.Summary(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{SessionID: id, Columns: cols})
}

// StatusResponse reports server capacity for monitoring.
type StatusResponse struct {
	Store string                 `json:"store"`
	Loads core.LoadLimiterStatus `json:"loads"`
}

// handleStatus returns the load limiter state and the session store kind.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	store := "memory"
	if s.cfg.Database.Enabled() {
		store = "postgres"
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Store: store,
		Loads: s.service.LoadLimiterStatus(),
	})
}
