package core

import (
	"fmt"

	"github.com/google/uuid"
)

// Editing returns the ID of the row under edit, if any.
func (d *Document) Editing() (uuid.UUID, bool) {
	return d.EditingID, d.EditingID != uuid.Nil
}

// IndexOf returns the position of the row with the given ID, or -1.
func (d *Document) IndexOf(id uuid.UUID) int {
	for i, row := range d.Rows {
		if row.ID == id {
			return i
		}
	}
	return -1
}

// Row returns the row with the given ID.
func (d *Document) Row(id uuid.UUID) (Record, bool) {
	if i := d.IndexOf(id); i >= 0 {
		return d.Rows[i], true
	}
	return Record{}, false
}

// BeginEdit marks the row as being edited. Only one row may be under edit:
// asking for a different row while one is open returns ErrEditInProgress.
func (d *Document) BeginEdit(id uuid.UUID) error {
	if d.IndexOf(id) < 0 {
		return fmt.Errorf("begin edit %s: %w", id, ErrRowNotFound)
	}
	if current, ok := d.Editing(); ok && current != id {
		return fmt.Errorf("begin edit %s: %w", id, ErrEditInProgress)
	}
	d.EditingID = id
	return nil
}

// CommitEdit merges the draft into the row under edit and clears the edit
// state. Only keys present in the draft are replaced.
func (d *Document) CommitEdit(draft Draft) error {
	id, ok := d.Editing()
	if !ok {
		return ErrNoEditInProgress
	}
	d.EditingID = uuid.Nil

	i := d.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("commit edit %s: %w", id, ErrRowNotFound)
	}

	updated := d.Rows[i].clone()
	for k, v := range d.restrict(draft) {
		updated.Fields[k] = v
	}

	rows := make([]Record, len(d.Rows))
	copy(rows, d.Rows)
	rows[i] = updated
	d.Rows = rows
	return nil
}

// CancelEdit discards the edit state without touching any row.
func (d *Document) CancelEdit() {
	d.EditingID = uuid.Nil
}

// Delete removes the row with the given ID, keeping the order of the rest.
func (d *Document) Delete(id uuid.UUID) error {
	i := d.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("delete %s: %w", id, ErrRowNotFound)
	}

	rows := make([]Record, 0, len(d.Rows)-1)
	rows = append(rows, d.Rows[:i]...)
	rows = append(rows, d.Rows[i+1:]...)
	d.Rows = rows

	if d.EditingID == id {
		d.EditingID = uuid.Nil
	}
	return nil
}

// Add appends a record built from the draft and returns it. Headers absent
// from the draft stay undefined in the new record.
func (d *Document) Add(draft Draft) Record {
	rec := Record{ID: uuid.New(), Fields: d.restrict(draft)}

	rows := make([]Record, len(d.Rows), len(d.Rows)+1)
	copy(rows, d.Rows)
	d.Rows = append(rows, rec)
	return rec
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	headers := make([]string, len(d.Headers))
	copy(headers, d.Headers)

	rows := make([]Record, len(d.Rows))
	for i, row := range d.Rows {
		rows[i] = row.clone()
	}

	return &Document{
		Name:      d.Name,
		Headers:   headers,
		Rows:      rows,
		EditingID: d.EditingID,
	}
}

// restrict copies the draft keeping only keys in the header set.
func (d *Document) restrict(draft Draft) map[string]string {
	fields := make(map[string]string, len(draft))
	for _, h := range d.Headers {
		if v, ok := draft[h]; ok {
			fields[h] = v
		}
	}
	return fields
}
