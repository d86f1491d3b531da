package templates

import (
	"strconv"

	"github.com/JonMunkholm/csvedit/internal/core"
	"github.com/google/uuid"
)

// EditorView is everything the editor page shows.
type EditorView struct {
	Document *core.Document // nil before the first load
	Alert    *core.UserMessage
}

// FieldName is the form name of the input for the header at index i.
// Inputs are keyed by position so any header text survives the round trip.
func FieldName(i int) string {
	return "col_" + strconv.Itoa(i)
}

func rowAction(id uuid.UUID, action string) string {
	return "/rows/" + id.String() + "/" + action
}

func rowElementID(id uuid.UUID) string {
	return "row-" + id.String()
}

func editOpen(doc *core.Document) bool {
	_, ok := doc.Editing()
	return ok
}

func isEditing(doc *core.Document, id uuid.UUID) bool {
	current, ok := doc.Editing()
	return ok && current == id
}
