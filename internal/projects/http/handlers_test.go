package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/bmp-tn/project-admin/internal/projects/client"
	"github.com/bmp-tn/project-admin/internal/projects/console"
	"github.com/bmp-tn/project-admin/internal/projects/domain"
	"github.com/bmp-tn/project-admin/internal/projects/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// projectService is a minimal stand-in for the remote Project Service.
type projectService struct {
	mu       sync.Mutex
	nextID   int64
	projects map[int64]domain.Project
	requests []string
	lastBody map[string]any
}

func newProjectService(t *testing.T, seed ...domain.Project) (*projectService, *httptest.Server) {
	t.Helper()
	ps := &projectService{nextID: 1, projects: make(map[int64]domain.Project)}
	for _, p := range seed {
		ps.projects[p.ID] = p
		if p.ID >= ps.nextID {
			ps.nextID = p.ID + 1
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/projects", ps.list)
	mux.HandleFunc("POST /api/projects", ps.create)
	mux.HandleFunc("GET /api/projects/{id}", ps.get)
	mux.HandleFunc("PATCH /api/projects/{id}/status", ps.status)
	mux.HandleFunc("DELETE /api/projects/{id}", ps.delete)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		ps.requests = append(ps.requests, r.Method+" "+r.URL.Path)
		ps.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return ps, srv
}

func (ps *projectService) calls() []string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return append([]string(nil), ps.requests...)
}

func (ps *projectService) list(w http.ResponseWriter, _ *http.Request) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	out := make([]domain.Project, 0, len(ps.projects))
	for id := int64(1); id < ps.nextID; id++ {
		if p, ok := ps.projects[id]; ok {
			out = append(out, p)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (ps *projectService) create(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.lastBody = body
	p := domain.Project{ID: ps.nextID, Title: body["title"].(string), Status: domain.StatusPlanned}
	if b, ok := body["budget"].(float64); ok {
		p.Budget = b
	}
	ps.nextID++
	ps.projects[p.ID] = p
	writeJSON(w, http.StatusCreated, p)
}

func (ps *projectService) get(w http.ResponseWriter, r *http.Request) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	p, ok := ps.projects[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Project not found"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (ps *projectService) status(w http.ResponseWriter, r *http.Request) {
	var body domain.UpdateStatusRequest
	_ = json.NewDecoder(r.Body).Decode(&body)

	ps.mu.Lock()
	defer ps.mu.Unlock()
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	p, ok := ps.projects[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	p.Status = body.Status
	ps.projects[id] = p
	writeJSON(w, http.StatusOK, p)
}

func (ps *projectService) delete(w http.ResponseWriter, r *http.Request) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	delete(ps.projects, id)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type consoleHarness struct {
	router *gin.Engine
	ps     *projectService
	cookie *http.Cookie
}

func setupConsole(t *testing.T, seed ...domain.Project) *consoleHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ps, srv := newProjectService(t, seed...)
	svc := service.NewConsoleService(
		client.New(srv.URL+"/api", client.Options{}),
		console.NewMemoryStore(console.DefaultSessionTTL, domain.DefaultArtisanID),
		service.Config{},
	)
	h := New(svc, Options{})

	router := gin.New()
	h.Register(&router.RouterGroup)
	h.RegisterAPI(router.Group("/api/v1"))
	return &consoleHarness{router: router, ps: ps}
}

func (ch *consoleHarness) do(req *http.Request) *httptest.ResponseRecorder {
	if ch.cookie != nil {
		req.AddCookie(ch.cookie)
	}
	w := httptest.NewRecorder()
	ch.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			ch.cookie = c
		}
	}
	return w
}

func (ch *consoleHarness) get(path string) *httptest.ResponseRecorder {
	return ch.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (ch *consoleHarness) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ch.do(req)
}

func (ch *consoleHarness) snapshot(t *testing.T) console.State {
	t.Helper()
	w := ch.get("/api/v1/console")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		State console.State `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.State
}

func seed() []domain.Project {
	loc := "Tunis"
	return []domain.Project{
		{ID: 1, ArtisanID: 1, Title: "Fix roof", Location: &loc, Budget: 1500, Status: domain.StatusPlanned},
		{ID: 2, ArtisanID: 1, Title: "Tile bathroom", Budget: 800, Status: domain.StatusInProgress},
	}
}

func TestConsolePage_RendersListAndIssuesCookie(t *testing.T) {
	ch := setupConsole(t, seed()...)

	w := ch.get("/")
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, ch.cookie)
	assert.True(t, ch.cookie.HttpOnly)

	body := w.Body.String()
	assert.Contains(t, body, "#1 · Fix roof")
	assert.Contains(t, body, "Budget: 1500 TND")
	assert.Contains(t, body, "Tile bathroom")
	assert.Contains(t, body, `value="IN_PROGRESS"`)
	assert.Contains(t, body, `type="number" min="0"`)
}

func TestConsolePage_KeepsSessionAcrossRequests(t *testing.T) {
	ch := setupConsole(t, seed()...)
	ch.get("/")
	first := ch.cookie.Value

	ch.get("/")
	assert.Equal(t, first, ch.cookie.Value)
	assert.Equal(t, []string{"GET /api/projects"}, ch.ps.calls())
}

func TestCreate_PostsAndRedirects(t *testing.T) {
	ch := setupConsole(t, seed()...)
	ch.get("/")

	w := ch.post("/projects", url.Values{
		"artisanId": {"1"},
		"title":     {"Fix roof"},
		"budget":    {"1500"},
		"startDate": {"2024-05-01"},
	})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	assert.Equal(t, 1500.0, ch.ps.lastBody["budget"])
	assert.Equal(t, "2024-05-01", ch.ps.lastBody["startDate"])
	endDate, present := ch.ps.lastBody["endDate"]
	assert.True(t, present)
	assert.Nil(t, endDate)

	st := ch.snapshot(t)
	require.Len(t, st.Projects, 3)
	assert.Equal(t, domain.StatusPlanned, st.Projects[2].Status)
	assert.Equal(t, domain.NewCreateDraft(domain.DefaultArtisanID), st.Create)
}

func TestSearch_NotFoundShowsAlertOnce(t *testing.T) {
	ch := setupConsole(t, seed()...)

	w := ch.post("/search", url.Values{"id": {"42"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	page := ch.get("/").Body.String()
	assert.Contains(t, page, "<dialog data-alert open>")
	assert.Contains(t, page, service.MsgNotFound)

	page = ch.get("/").Body.String()
	assert.NotContains(t, page, service.MsgNotFound)
}

func TestSearch_IgnoresZeroAndText(t *testing.T) {
	ch := setupConsole(t, seed()...)
	ch.post("/search", url.Values{"id": {"1"}})
	before := len(ch.ps.calls())

	ch.post("/search", url.Values{"id": {"0"}})
	ch.post("/search", url.Values{"id": {"abc"}})
	assert.Len(t, ch.ps.calls(), before)

	st := ch.snapshot(t)
	require.NotNil(t, st.Search)
	assert.Equal(t, int64(1), st.Search.ID)
}

func TestEditFlow(t *testing.T) {
	ch := setupConsole(t, seed()...)
	ch.get("/")

	ch.post("/projects/1/edit", nil)
	ch.post("/projects/2/edit", nil)

	st := ch.snapshot(t)
	require.NotNil(t, st.Edit)
	assert.Equal(t, int64(2), st.Edit.ProjectID)

	page := ch.get("/").Body.String()
	assert.Contains(t, page, `action="/projects/2/save"`)
	assert.NotContains(t, page, `action="/projects/1/save"`)

	ch.post("/projects/2/cancel", nil)
	assert.Nil(t, ch.snapshot(t).Edit)
}

func TestStatus_RefreshesSearchCard(t *testing.T) {
	ch := setupConsole(t, seed()...)
	ch.post("/search", url.Values{"id": {"1"}})

	w := ch.post("/projects/1/status", url.Values{"status": {"COMPLETED"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	st := ch.snapshot(t)
	require.NotNil(t, st.Search)
	assert.Equal(t, domain.StatusCompleted, st.Search.Status)
}

func TestDelete(t *testing.T) {
	t.Run("confirmation page sends nothing upstream", func(t *testing.T) {
		ch := setupConsole(t, seed()...)
		ch.get("/")

		w := ch.get("/projects/1/delete")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "#1 · Fix roof")
		assert.Contains(t, w.Body.String(), `name="confirm" value="yes"`)
		assert.NotContains(t, ch.ps.calls(), "DELETE /api/projects/1")
	})

	t.Run("post without confirmation is a cancel", func(t *testing.T) {
		ch := setupConsole(t, seed()...)
		w := ch.post("/projects/1/delete", nil)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.NotContains(t, ch.ps.calls(), "DELETE /api/projects/1")
	})

	t.Run("confirmed delete clears the search card", func(t *testing.T) {
		ch := setupConsole(t, seed()...)
		ch.post("/search", url.Values{"id": {"1"}})

		ch.post("/projects/1/delete", url.Values{"confirm": {"yes"}})
		assert.Contains(t, ch.ps.calls(), "DELETE /api/projects/1")

		st := ch.snapshot(t)
		assert.Nil(t, st.Search)
		assert.Len(t, st.Projects, 1)
	})
}

func TestInvalidProjectID(t *testing.T) {
	ch := setupConsole(t, seed()...)
	w := ch.post("/projects/abc/edit", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMalformedFormBody(t *testing.T) {
	ch := setupConsole(t, seed()...)
	ch.get("/")

	for _, path := range []string{"/projects", "/search", "/filter", "/projects/1/status"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("title=%zz"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := ch.do(req)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
	assert.Equal(t, []string{"GET /api/projects"}, ch.ps.calls())
}

func TestMalformedCookieGetsReplaced(t *testing.T) {
	ch := setupConsole(t)
	ch.cookie = &http.Cookie{Name: SessionCookie, Value: "not-a-uuid"}

	ch.get("/")
	assert.NotEqual(t, "not-a-uuid", ch.cookie.Value)
}
