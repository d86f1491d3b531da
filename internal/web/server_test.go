package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JonMunkholm/csvedit/internal/config"
	"github.com/JonMunkholm/csvedit/internal/core"
	"github.com/google/uuid"
)

type testServer struct {
	t      *testing.T
	srv    *Server
	store  *core.MemoryStore
	cookie *http.Cookie
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.Rate.Enabled = false
	for _, m := range mutate {
		m(cfg)
	}

	store := core.NewMemoryStore()
	srv := NewServer(core.NewService(store, cfg), cfg)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return &testServer{t: t, srv: srv, store: store}
}

// do sends req with the current session cookie and remembers a new one.
func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	ts.t.Helper()
	if ts.cookie != nil {
		req.AddCookie(ts.cookie)
	}
	rec := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == ts.srv.cfg.Session.CookieName {
			ts.cookie = c
		}
	}
	return rec
}

func (ts *testServer) form(path string, fields map[string]string) *httptest.ResponseRecorder {
	ts.t.Helper()
	body := make([]string, 0, len(fields))
	for k, v := range fields {
		body = append(body, k+"="+v)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(strings.Join(body, "&")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ts.do(req)
}

func (ts *testServer) loadForm(name, content string) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" {
		fw, err := mw.CreateFormFile("file", name)
		if err != nil {
			ts.t.Fatal(err)
		}
		fw.Write([]byte(content))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/load", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return ts.do(req)
}

func (ts *testServer) download() string {
	ts.t.Helper()
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/download", nil))
	if rec.Code != http.StatusOK {
		ts.t.Fatalf("download status = %d", rec.Code)
	}
	return rec.Body.String()
}

func (ts *testServer) document() DocumentResponse {
	ts.t.Helper()
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/document", nil))
	if rec.Code != http.StatusOK {
		ts.t.Fatalf("GET /api/document status = %d: %s", rec.Code, rec.Body)
	}
	var doc DocumentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		ts.t.Fatalf("decode document: %v", err)
	}
	return doc
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body, err)
	}
	return resp
}

func TestEditorPage_BeforeLoad(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Load a CSV file to start editing") {
		t.Error("empty state missing")
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("CSP header missing")
	}
}

func TestDownload_BeforeLoadIsEmpty(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/download", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv;charset=utf-8;" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="edited_data.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
}

func TestPageFlow_DeleteAddDownload(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.loadForm("people.csv", "name,age\nAlice,30\nBob,25")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("load status = %d: %s", rec.Code, rec.Body)
	}
	if ts.cookie == nil {
		t.Fatal("load did not set the session cookie")
	}

	page := ts.do(httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	if !strings.Contains(page, "<td>Alice</td>") || !strings.Contains(page, "people.csv: 2 rows") {
		t.Fatalf("page does not show the loaded file: %s", page)
	}

	alice := ts.document().Rows[0].ID
	if rec := ts.form("/rows/"+alice.String()+"/delete", nil); rec.Code != http.StatusSeeOther {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := ts.form("/rows", map[string]string{"col_0": "Carol", "col_1": "40"}); rec.Code != http.StatusSeeOther {
		t.Fatalf("add status = %d", rec.Code)
	}

	if got, want := ts.download(), "name,age\nBob,25\nCarol,40"; got != want {
		t.Errorf("download = %q, want %q", got, want)
	}
}

func TestPageFlow_AddSkipsEmptyInputs(t *testing.T) {
	ts := newTestServer(t)
	ts.loadForm("a.csv", "name,age")

	ts.form("/rows", map[string]string{"col_0": "Dana", "col_1": ""})

	doc := ts.document()
	if len(doc.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(doc.Rows))
	}
	if _, ok := doc.Rows[0].Fields["age"]; ok {
		t.Error("empty input should leave the column undefined")
	}
}

func TestPageFlow_EditSavesChangedInputs(t *testing.T) {
	ts := newTestServer(t)
	ts.loadForm("people.csv", "name,age\nAlice,30\nBob,25")
	alice := ts.document().Rows[0].ID

	if rec := ts.form("/rows/"+alice.String()+"/edit", nil); rec.Code != http.StatusSeeOther {
		t.Fatalf("begin edit status = %d", rec.Code)
	}
	page := ts.do(httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	if !strings.Contains(page, `name="col_1" value="30"`) {
		t.Fatal("row under edit should render inputs")
	}

	if rec := ts.form("/edit/save", map[string]string{"col_0": "Alice", "col_1": "31"}); rec.Code != http.StatusSeeOther {
		t.Fatalf("save status = %d", rec.Code)
	}

	if got, want := ts.download(), "name,age\nAlice,31\nBob,25"; got != want {
		t.Errorf("download = %q, want %q", got, want)
	}
	if doc := ts.document(); doc.EditingID != nil {
		t.Error("edit state should be cleared after save")
	}
}

func TestPageFlow_CancelEdit(t *testing.T) {
	ts := newTestServer(t)
	ts.loadForm("a.csv", "v\n1")
	row := ts.document().Rows[0].ID

	ts.form("/rows/"+row.String()+"/edit", nil)
	ts.form("/edit/cancel", nil)

	if doc := ts.document(); doc.EditingID != nil {
		t.Error("cancel should clear the edit state")
	}
	if got := ts.download(); got != "v\n1" {
		t.Errorf("download = %q, cancel must not change rows", got)
	}
}

func TestPageFlow_SecondEditShowsAlert(t *testing.T) {
	ts := newTestServer(t)
	ts.loadForm("a.csv", "v\n1\n2")
	doc := ts.document()

	ts.form("/rows/"+doc.Rows[0].ID.String()+"/edit", nil)
	rec := ts.form("/rows/"+doc.Rows[1].ID.String()+"/edit", nil)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "EDIT001") || !strings.Contains(body, "<table>") {
		t.Errorf("page should show the alert above the table: %s", body)
	}
}

func TestPageFlow_LoadWithoutFileKeepsDocument(t *testing.T) {
	ts := newTestServer(t)
	ts.loadForm("a.csv", "v\n1")

	rec := ts.loadForm("", "")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want redirect", rec.Code)
	}
	if got := ts.download(); got != "v\n1" {
		t.Errorf("download = %q, document should be unchanged", got)
	}
}

func TestPageFlow_FileTooLarge(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Upload.MaxFileSize = 8 })

	rec := ts.loadForm("big.csv", strings.Repeat("x", 64))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "FILE001") {
		t.Error("alert should carry FILE001")
	}
}

func TestDownloadXLSX(t *testing.T) {
	ts := newTestServer(t)
	ts.loadForm("a.csv", "name\nAlice")

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/download.xlsx", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="edited_data.xlsx"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("body is not a workbook")
	}
}

func TestAPI_Flow(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/load?name=people.csv", strings.NewReader("name,age\nAlice,30\nBob,25"))
	req.Header.Set("Content-Type", "text/csv")
	rec := ts.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("load status = %d: %s", rec.Code, rec.Body)
	}
	sessionID := rec.Header().Get(SessionHeader)
	if sessionID == "" {
		t.Fatal("load should return the session header")
	}

	// Header-only clients work without the cookie.
	ts.cookie = nil
	withSession := func(r *http.Request) *http.Request {
		r.Header.Set(SessionHeader, sessionID)
		return r
	}

	rec = ts.do(withSession(httptest.NewRequest(http.MethodGet, "/api/document", nil)))
	var got DocumentResponse
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Name != "people.csv" || len(got.Rows) != 2 || got.SessionID != sessionID {
		t.Fatalf("document = %+v", got)
	}

	rec = ts.do(withSession(httptest.NewRequest(http.MethodDelete, "/api/rows/"+got.Rows[0].ID.String(), nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = ts.do(withSession(httptest.NewRequest(http.MethodPost, "/api/rows", strings.NewReader(`{"name":"Carol","age":"40","extra":"x"}`))))
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d: %s", rec.Code, rec.Body)
	}
	var added core.Record
	json.Unmarshal(rec.Body.Bytes(), &added)
	if _, ok := added.Fields["extra"]; ok {
		t.Error("unknown columns must not be added")
	}

	rec = ts.do(withSession(httptest.NewRequest(http.MethodPost, "/api/rows/"+added.ID.String()+"/edit", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("begin edit status = %d", rec.Code)
	}
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.EditingID == nil || *got.EditingID != added.ID {
		t.Errorf("editingId = %v, want %v", got.EditingID, added.ID)
	}

	rec = ts.do(withSession(httptest.NewRequest(http.MethodPost, "/api/edit", strings.NewReader(`{"age":"41"}`))))
	if rec.Code != http.StatusOK {
		t.Fatalf("commit status = %d", rec.Code)
	}

	rec = ts.do(withSession(httptest.NewRequest(http.MethodGet, "/api/export", nil)))
	if got, want := rec.Body.String(), "name,age\nBob,25\nCarol,41"; got != want {
		t.Errorf("export = %q, want %q", got, want)
	}

	rec = ts.do(withSession(httptest.NewRequest(http.MethodGet, "/api/summary", nil)))
	var summary SummaryResponse
	json.Unmarshal(rec.Body.Bytes(), &summary)
	if len(summary.Columns) != 2 || summary.Columns[1].Numeric != 2 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestAPI_Errors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/document", nil))
	if rec.Code != http.StatusNotFound || decodeError(t, rec).Code != "SES001" {
		t.Errorf("no session: status %d body %s", rec.Code, rec.Body)
	}

	ts.do(httptest.NewRequest(http.MethodPost, "/api/load", strings.NewReader("v\n1\n2")))

	rec = ts.do(httptest.NewRequest(http.MethodDelete, "/api/rows/not-a-uuid", nil))
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "ROW002" {
		t.Errorf("bad row id: status %d body %s", rec.Code, rec.Body)
	}

	rec = ts.do(httptest.NewRequest(http.MethodDelete, "/api/rows/"+uuid.NewString(), nil))
	if rec.Code != http.StatusNotFound || decodeError(t, rec).Code != "ROW001" {
		t.Errorf("unknown row: status %d body %s", rec.Code, rec.Body)
	}

	rec = ts.do(httptest.NewRequest(http.MethodPost, "/api/edit", strings.NewReader(`{}`)))
	if rec.Code != http.StatusConflict || decodeError(t, rec).Code != "EDIT002" {
		t.Errorf("commit without edit: status %d body %s", rec.Code, rec.Body)
	}

	rec = ts.do(httptest.NewRequest(http.MethodPost, "/api/rows", strings.NewReader(`[1,2]`)))
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "REQ001" {
		t.Errorf("bad body: status %d body %s", rec.Code, rec.Body)
	}

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/export?format=pdf", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format status = %d", rec.Code)
	}
}

func TestAPI_Status(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/status", nil))

	var status StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Store != "memory" || status.Loads.MaxConcurrent != 5 {
		t.Errorf("status = %+v", status)
	}
}

func TestAPI_RequiresKeyWhenConfigured(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"secret"}
	})

	if rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/status", nil)); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("X-API-Key", "secret")
	if rec := ts.do(req); rec.Code != http.StatusOK {
		t.Errorf("with key status = %d, want 200", rec.Code)
	}

	// Pages stay open.
	if rec := ts.do(httptest.NewRequest(http.MethodGet, "/", nil)); rec.Code != http.StatusOK {
		t.Errorf("page status = %d, want 200", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) {
		c.Rate.Enabled = true
		c.Rate.RequestsPerMinute = 2
	})

	for i := 0; i < 2; i++ {
		if rec := ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if decodeError(t, rec).Code != "RATE001" {
		t.Errorf("body = %s", rec.Body)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body)
	}
}

func TestPageFlow_MutationRenewsCookie(t *testing.T) {
	ts := newTestServer(t)
	ts.loadForm("people.csv", "name,age\nAlice,30\nBob,25")
	alice := ts.document().Rows[0].ID
	ts.cookie.MaxAge = 0

	rec := ts.form("/rows/"+alice.String()+"/delete", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("delete status = %d", rec.Code)
	}

	want := int(ts.srv.cfg.Session.TTL.Seconds())
	var renewed *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == ts.srv.cfg.Session.CookieName {
			renewed = c
		}
	}
	if renewed == nil {
		t.Fatal("delete did not renew the session cookie")
	}
	if renewed.MaxAge != want {
		t.Errorf("MaxAge = %d, want %d", renewed.MaxAge, want)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/rows", strings.NewReader(`{"name":"Carol"}`))
	req.Header.Set("Content-Type", "application/json")
	apiRec := ts.do(req)
	if apiRec.Code != http.StatusCreated {
		t.Fatalf("api add status = %d: %s", apiRec.Code, apiRec.Body)
	}
	if len(apiRec.Result().Cookies()) == 0 {
		t.Error("api add did not renew the session cookie")
	}
}

func TestAPI_SummaryWithNonFiniteCells(t *testing.T) {
	ts := newTestServer(t)
	ts.loadForm("v.csv", "v\n1\nNaN\nInf\n-Inf\n3")

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp SummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode summary %q: %v", rec.Body, err)
	}
	if len(resp.Columns) != 1 {
		t.Fatalf("columns = %d, want 1", len(resp.Columns))
	}
	col := resp.Columns[0]
	if col.Filled != 5 || col.Numeric != 2 {
		t.Errorf("counts = %+v, want 5 filled and 2 numeric", col)
	}
	if col.Mean == nil || *col.Mean != 2 {
		t.Errorf("mean = %v, want 2", col.Mean)
	}
}
