package core

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func fieldsOf(rows []Record) []map[string]string {
	out := make([]map[string]string, len(rows))
	for i, r := range rows {
		out[i] = r.Fields
	}
	return out
}

func TestDocument_Scenario(t *testing.T) {
	doc := Parse("name,age\nAlice,30\nBob,25")

	if err := doc.Delete(doc.Rows[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	doc.Add(Draft{"name": "Carol", "age": "40"})

	want := []map[string]string{
		{"name": "Bob", "age": "25"},
		{"name": "Carol", "age": "40"},
	}
	if got := fieldsOf(doc.Rows); !reflect.DeepEqual(got, want) {
		t.Errorf("Rows = %v, want %v", got, want)
	}
	if got, want := doc.String(), "name,age\nBob,25\nCarol,40"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDocument_DeleteByIdentity(t *testing.T) {
	doc := Parse("v\nsame\nother\nsame")
	target := doc.Rows[2].ID

	if err := doc.Delete(target); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if len(doc.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(doc.Rows))
	}
	if got := []string{doc.Rows[0].Get("v"), doc.Rows[1].Get("v")}; !reflect.DeepEqual(got, []string{"same", "other"}) {
		t.Errorf("remaining = %v, want [same other]", got)
	}
	if doc.IndexOf(target) != -1 {
		t.Error("deleted row still present")
	}
}

func TestDocument_DeletePreservesOrder(t *testing.T) {
	doc := Parse("n\n1\n2\n3\n4\n5")
	before := len(doc.Rows)

	if err := doc.Delete(doc.Rows[2].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if len(doc.Rows) != before-1 {
		t.Errorf("len(Rows) = %d, want %d", len(doc.Rows), before-1)
	}
	var got []string
	for _, r := range doc.Rows {
		got = append(got, r.Get("n"))
	}
	if want := []string{"1", "2", "4", "5"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestDocument_DeleteUnknown(t *testing.T) {
	doc := Parse("a\n1")
	if err := doc.Delete(uuid.New()); !errors.Is(err, ErrRowNotFound) {
		t.Errorf("Delete error = %v, want ErrRowNotFound", err)
	}
	if len(doc.Rows) != 1 {
		t.Errorf("len(Rows) = %d, want 1", len(doc.Rows))
	}
}

func TestDocument_AddLeavesMissingHeadersUndefined(t *testing.T) {
	doc := Parse("name,age,city\nAlice,30,Oslo")
	rec := doc.Add(Draft{"name": "Dan"})

	if len(doc.Rows) != 2 || doc.Rows[1].ID != rec.ID {
		t.Fatal("Add did not append at the end")
	}
	if _, ok := rec.Value("age"); ok {
		t.Error("age defined, want undefined")
	}
	if want := []string{"name", "age", "city"}; !reflect.DeepEqual(doc.Headers, want) {
		t.Errorf("Headers = %v, want %v", doc.Headers, want)
	}
	if got, want := doc.String(), "name,age,city\nAlice,30,Oslo\nDan,,"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDocument_DraftCannotAddColumns(t *testing.T) {
	doc := Parse("a\n1")
	rec := doc.Add(Draft{"a": "2", "extra": "x"})
	if _, ok := rec.Value("extra"); ok {
		t.Error("unknown column was added to the record")
	}

	if err := doc.BeginEdit(doc.Rows[0].ID); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	if err := doc.CommitEdit(Draft{"extra": "y"}); err != nil {
		t.Fatalf("CommitEdit: %v", err)
	}
	if _, ok := doc.Rows[0].Value("extra"); ok {
		t.Error("unknown column was merged into the record")
	}
}

func TestDocument_CommitMergesOnlySuppliedKeys(t *testing.T) {
	doc := Parse("name,age,city\nAlice,30,Oslo\nBob,25,Rome")
	id := doc.Rows[0].ID

	if err := doc.BeginEdit(id); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	if err := doc.CommitEdit(Draft{"age": "31"}); err != nil {
		t.Fatalf("CommitEdit: %v", err)
	}

	want := map[string]string{"name": "Alice", "age": "31", "city": "Oslo"}
	if !reflect.DeepEqual(doc.Rows[0].Fields, want) {
		t.Errorf("Fields = %v, want %v", doc.Rows[0].Fields, want)
	}
	if doc.Rows[1].Get("age") != "25" {
		t.Error("other row changed")
	}
	if _, editing := doc.Editing(); editing {
		t.Error("edit state not cleared")
	}
}

func TestDocument_CommitDoesNotMutatePriorSlices(t *testing.T) {
	doc := Parse("a\n1")
	before := doc.Rows
	prior := before[0]

	_ = doc.BeginEdit(prior.ID)
	_ = doc.CommitEdit(Draft{"a": "2"})

	if before[0].Get("a") != "1" || prior.Get("a") != "1" {
		t.Error("commit mutated a previously held record")
	}
}

func TestDocument_SecondEditRejected(t *testing.T) {
	doc := Parse("a\n1\n2")
	first, second := doc.Rows[0].ID, doc.Rows[1].ID

	if err := doc.BeginEdit(first); err != nil {
		t.Fatalf("BeginEdit(first): %v", err)
	}
	if err := doc.BeginEdit(first); err != nil {
		t.Errorf("BeginEdit(first) again = %v, want nil", err)
	}
	if err := doc.BeginEdit(second); !errors.Is(err, ErrEditInProgress) {
		t.Errorf("BeginEdit(second) = %v, want ErrEditInProgress", err)
	}
	if got, _ := doc.Editing(); got != first {
		t.Errorf("Editing() = %v, want %v", got, first)
	}

	doc.CancelEdit()
	if err := doc.BeginEdit(second); err != nil {
		t.Errorf("BeginEdit(second) after cancel = %v, want nil", err)
	}
}

func TestDocument_CommitWithoutEdit(t *testing.T) {
	doc := Parse("a\n1")
	if err := doc.CommitEdit(Draft{"a": "x"}); !errors.Is(err, ErrNoEditInProgress) {
		t.Errorf("CommitEdit error = %v, want ErrNoEditInProgress", err)
	}
}

func TestDocument_BeginEditUnknownRow(t *testing.T) {
	doc := Parse("a\n1")
	if err := doc.BeginEdit(uuid.New()); !errors.Is(err, ErrRowNotFound) {
		t.Errorf("BeginEdit error = %v, want ErrRowNotFound", err)
	}
}

func TestDocument_DeletingEditedRowClearsEdit(t *testing.T) {
	doc := Parse("a\n1\n2")
	id := doc.Rows[0].ID
	_ = doc.BeginEdit(id)

	if err := doc.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, editing := doc.Editing(); editing {
		t.Error("edit state kept for a deleted row")
	}
}

func TestDocument_Clone(t *testing.T) {
	doc := Parse("a,b\n1,2")
	doc.Name = "x.csv"
	c := doc.Clone()

	c.Rows[0].Fields["a"] = "changed"
	c.Headers[0] = "z"

	if doc.Rows[0].Get("a") != "1" || doc.Headers[0] != "a" {
		t.Error("Clone shares state with the original")
	}
	if c.Name != "x.csv" {
		t.Errorf("Clone Name = %q, want x.csv", c.Name)
	}
}
