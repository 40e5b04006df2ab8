package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/local/docsummarizer/internal/config"
	"github.com/local/docsummarizer/internal/statuscheck"
	"github.com/local/docsummarizer/internal/storage"
	"github.com/local/docsummarizer/internal/store"
	"github.com/local/docsummarizer/internal/summarize"
	"github.com/local/docsummarizer/internal/translate"
)

const sourceText = "The tenant shall pay rent monthly. The landlord maintains the roof. Either party may terminate with notice"

type fakeExtractor struct {
	text  string
	paths []string
}

func (f *fakeExtractor) Extract(_ context.Context, path string) string {
	f.paths = append(f.paths, path)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return f.text
}

type fakeSummarizer struct {
	bullets []string
	status  summarize.Status
	simple  summarize.Summary
}

func (f *fakeSummarizer) Available() bool { return f.status != summarize.StatusUnavailable }
func (f *fakeSummarizer) Summarize(context.Context, string) summarize.Summary {
	return f.simple
}
func (f *fakeSummarizer) SummarizeToBullets(context.Context, string) ([]string, summarize.Status) {
	return f.bullets, f.status
}

type prefixTranslator struct{ prefix string }

func (p prefixTranslator) Translate(_ context.Context, text string) (string, error) {
	return p.prefix + text, nil
}

type fakeTranslator struct{ backends map[string]*translate.Backend }

func (f *fakeTranslator) Get(_ context.Context, lang string) (*translate.Backend, bool) {
	b, ok := f.backends[lang]
	return b, ok
}

func (f *fakeTranslator) TranslateAll(ctx context.Context, b *translate.Backend, units []string) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = "[" + b.Lang + "] " + u
	}
	return out
}

type memDocs struct {
	mu   sync.Mutex
	docs map[string]store.Document
}

func (m *memDocs) Create(_ context.Context, d store.Document) (store.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.CreatedAt = time.Now()
	m.docs[d.ID] = d
	return d, nil
}

func (m *memDocs) ListByOwner(_ context.Context, owner string) ([]store.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Document
	for _, d := range m.docs {
		if d.OwnerID == owner {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDocs) Get(_ context.Context, id, owner string) (store.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok || d.OwnerID != owner {
		return store.Document{}, store.ErrNotFound
	}
	return d, nil
}

func (m *memDocs) Delete(_ context.Context, id, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok || d.OwnerID != owner {
		return store.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

type memGuests struct {
	mu       sync.Mutex
	sessions map[string]store.GuestSummary
}

func (m *memGuests) Save(_ context.Context, id string, g store.GuestSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = g
	return nil
}

func (m *memGuests) Get(_ context.Context, id string) (store.GuestSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.sessions[id]
	if !ok {
		return store.GuestSummary{}, store.ErrSessionNotFound
	}
	return g, nil
}

type fakeStatus struct{}

func (fakeStatus) Summary(context.Context) statuscheck.Summary {
	return statuscheck.Summary{Redis: statuscheck.Status{OK: true, Message: "Connected"}}
}

type harness struct {
	srv     *Server
	h       http.Handler
	ext     *fakeExtractor
	sum     *fakeSummarizer
	docs    *memDocs
	guests  *memGuests
	blob    storage.Blob
	tempDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	blob, err := storage.NewLocal(t.TempDir(), "")
	require.NoError(t, err)
	h := &harness{
		ext:     &fakeExtractor{text: sourceText},
		sum:     &fakeSummarizer{bullets: []string{"Point 1: The tenant shall pay the rent monthly", "Point 2: The roof"}, status: summarize.StatusOK},
		docs:    &memDocs{docs: map[string]store.Document{}},
		guests:  &memGuests{sessions: map[string]store.GuestSummary{}},
		blob:    blob,
		tempDir: t.TempDir(),
	}
	h.srv = New(Deps{
		Conf:       cfgpkg.ServerConfig{MaxUploadBytes: 1 << 20, TempDir: h.tempDir, AllowedOrigins: []string{"*"}},
		SessionTTL: time.Hour,
		Extractor:  h.ext,
		Summarizer: h.sum,
		Translator: &fakeTranslator{backends: map[string]*translate.Backend{
			"es": translate.Simple("fake", "es", prefixTranslator{"es:"}),
		}},
		Documents: h.docs,
		Guests:    h.guests,
		Blob:      blob,
		Status:    fakeStatus{},
	})
	h.h = h.srv.Routes()
	return h
}

func uploadRequest(t *testing.T, filename string, body []byte, summaryType string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("document", filename)
	require.NoError(t, err)
	_, err = fw.Write(body)
	require.NoError(t, err)
	if summaryType != "" {
		require.NoError(t, mw.WriteField("summary_type", summaryType))
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/summarize-doc", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func guestCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("guest session cookie not set")
	return nil
}

func tempFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestGuestUpload(t *testing.T) {
	h := newHarness(t)
	rec := h.do(uploadRequest(t, "lease notes.txt", []byte(sourceText), ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "lease_notes.txt", body["filename"])
	assert.Equal(t, "bullets", body["summary_type"])
	assert.Equal(t, false, body["saved"])
	assert.Len(t, body["bullet_points"], 2)

	c := guestCookie(t, rec)
	g, err := h.guests.Get(context.Background(), c.Value)
	require.NoError(t, err)
	assert.Equal(t, "Point 1: The tenant shall pay the rent monthly\nPoint 2: The roof", g.Summary)
	assert.Empty(t, tempFiles(t, h.tempDir))
	require.Len(t, h.ext.paths, 1)
	assert.Equal(t, ".txt", filepath.Ext(h.ext.paths[0]))
}

func TestOwnerUploadLifecycle(t *testing.T) {
	h := newHarness(t)
	req := uploadRequest(t, "lease.txt", []byte(sourceText), "bullets")
	req.Header.Set(ownerHeader, "user-1")
	rec := h.do(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec)["id"].(string)
	assert.Empty(t, tempFiles(t, h.tempDir))

	get := func(path string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		r.Header.Set(ownerHeader, "user-1")
		return h.do(r)
	}

	rec = get("/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["documents"], 1)

	rec = get("/view-summary/" + id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["bullet_points"], 2)

	rec = get("/view-summary/" + id + "?summary_type=simple")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["bullet_points"], 1)

	rec = get("/download/" + id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sourceText, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "lease.txt")

	rec = get("/highlight/" + id + "/0")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, decode(t, rec)["full_text"], "<mark>The tenant shall pay rent monthly</mark>")
	assert.Empty(t, tempFiles(t, h.tempDir))

	rec = get("/highlight/" + id + "/5")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get("/download-summary?doc_id=" + id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "lease_summary.pdf")

	other := httptest.NewRequest(http.MethodGet, "/view-summary/"+id, nil)
	other.Header.Set(ownerHeader, "user-2")
	assert.Equal(t, http.StatusNotFound, h.do(other).Code)

	del := httptest.NewRequest(http.MethodPost, "/delete/"+id, nil)
	del.Header.Set(ownerHeader, "user-1")
	rec = h.do(del)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, h.docs.docs)
	assert.Equal(t, http.StatusNotFound, get("/download/"+id).Code)
}

func TestOwnerRoutesRequireIdentity(t *testing.T) {
	h := newHarness(t)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadRejections(t *testing.T) {
	h := newHarness(t)

	rec := h.do(uploadRequest(t, "scan.png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), ""))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	big := bytes.Repeat([]byte("a"), 1<<20+1<<19)
	rec = h.do(uploadRequest(t, "big.txt", big, ""))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	h.ext.text = ""
	rec = h.do(uploadRequest(t, "empty.txt", []byte(sourceText), ""))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, tempFiles(t, h.tempDir))

	req := httptest.NewRequest(http.MethodPost, "/summarize-doc", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	assert.Equal(t, http.StatusBadRequest, h.do(req).Code)
}

func TestUploadSummaryFailures(t *testing.T) {
	h := newHarness(t)

	h.sum.status = summarize.StatusUnavailable
	rec := h.do(uploadRequest(t, "a.txt", []byte(sourceText), ""))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h.sum.status = summarize.StatusNoSummary
	rec = h.do(uploadRequest(t, "a.txt", []byte(sourceText), ""))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Empty(t, h.guests.sessions)
}

func TestSimpleSummaryUpload(t *testing.T) {
	h := newHarness(t)
	h.sum.simple = summarize.Summary{Text: "A lease with monthly rent.", Status: summarize.StatusOK}
	rec := h.do(uploadRequest(t, "a.txt", []byte(sourceText), "simple"))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "simple", body["summary_type"])
	assert.Equal(t, []any{"A lease with monthly rent."}, body["bullet_points"])
}

func TestGuestTranslateAndDownloads(t *testing.T) {
	h := newHarness(t)
	rec := h.do(uploadRequest(t, "lease.txt", []byte(sourceText), ""))
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := guestCookie(t, rec)

	withCookie := func(path string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		r.AddCookie(cookie)
		return h.do(r)
	}

	rec = withCookie("/translate/ES")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "es", body["lang"])
	assert.Equal(t, []any{"[es] Point 1: The tenant shall pay the rent monthly", "[es] Point 2: The roof"}, body["translated_points"])

	assert.Equal(t, http.StatusServiceUnavailable, withCookie("/translate/hi").Code)
	assert.Equal(t, http.StatusBadRequest, withCookie("/translate/not_a_lang!").Code)

	rec = withCookie("/download-summary")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))

	rec = withCookie("/download-translated-summary/es")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "lease_ES_summary.pdf")
	assert.Equal(t, http.StatusServiceUnavailable, withCookie("/download-translated-summary/hi").Code)
}

func TestNoGuestSession(t *testing.T) {
	h := newHarness(t)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/translate/es", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	r := httptest.NewRequest(http.MethodGet, "/download-summary", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookie, Value: uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, h.do(r).Code)
}

func TestHealthAndStatus(t *testing.T) {
	h := newHarness(t)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["redis"].(map[string]any)["ok"])
}

func TestCleanupTemps(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, tempPrefix+"old.pdf")
	fresh := filepath.Join(dir, tempPrefix+"fresh.pdf")
	foreign := filepath.Join(dir, "keep.pdf")
	for _, p := range []string{old, fresh, foreign} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	}
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	require.NoError(t, os.Chtimes(foreign, past, past))

	assert.Equal(t, 1, CleanupTemps(dir, time.Hour))
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	assert.FileExists(t, foreign)
}

func TestCleanFilename(t *testing.T) {
	assert.Equal(t, "passwd", cleanFilename("../../etc/passwd"))
	assert.Equal(t, "my_lease.pdf", cleanFilename(`C:\docs\my lease.pdf`))
	assert.Equal(t, "", cleanFilename("..."))
	assert.Equal(t, "a.txt", withExtension("a", ".txt"))
	assert.Equal(t, "a.docx", withExtension("a.DOC", ".docx"))
	assert.Equal(t, "a.PDF", withExtension("a.PDF", ".pdf"))
}
