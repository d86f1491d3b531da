package web

// This file contains shared helpers used across handlers.

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/csvedit/internal/core"
	"github.com/JonMunkholm/csvedit/internal/web/templates"
	"github.com/google/uuid"
)

// maxJSONBody caps API request bodies other than file loads.
const maxJSONBody = 1 << 20

// renderPage writes the editor page with the given status.
func renderPage(w http.ResponseWriter, r *http.Request, status int, v templates.EditorView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.EditorPage(v).Render(r.Context(), w); err != nil {
		logError(r, err, http.StatusInternalServerError)
	}
}

// redirectHome finishes a form post.
func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// formDraft builds a draft from positional form inputs.
//
// With a current row, only inputs whose value differs from the row are kept,
// so saving merges just the columns the user changed. Without one (add-row),
// empty inputs are skipped and stay undefined.
func formDraft(r *http.Request, headers []string, current *core.Record) core.Draft {
	draft := make(core.Draft)
	for i, h := range headers {
		values, ok := r.PostForm[templates.FieldName(i)]
		if !ok || len(values) == 0 {
			continue
		}
		v := values[0]

		if current != nil {
			if old, defined := current.Value(h); (defined && old == v) || (!defined && v == "") {
				continue
			}
		} else if v == "" {
			continue
		}
		draft[h] = v
	}
	return draft
}

// decodeDraft reads a JSON object of column values.
func decodeDraft(w http.ResponseWriter, r *http.Request) (core.Draft, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var draft core.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		return nil, fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	if draft == nil {
		draft = core.Draft{}
	}
	return draft, nil
}

// DocumentResponse is the JSON view of a session's document.
type DocumentResponse struct {
	SessionID string        `json:"sessionId"`
	Name      string        `json:"name"`
	Headers   []string      `json:"headers"`
	Rows      []core.Record `json:"rows"`
	EditingID *uuid.UUID    `json:"editingId"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func toDocumentResponse(sess *core.Session) DocumentResponse {
	doc := sess.Document
	resp := DocumentResponse{
		SessionID: sess.ID,
		Name:      doc.Name,
		Headers:   doc.Headers,
		Rows:      doc.Rows,
		UpdatedAt: sess.UpdatedAt,
	}
	if resp.Rows == nil {
		resp.Rows = []core.Record{}
	}
	if id, ok := doc.Editing(); ok {
		resp.EditingID = &id
	}
	return resp
}
