package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bmp-tn/project-admin/internal/projects/domain"
	"github.com/bmp-tn/project-admin/internal/requestctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *ProjectClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api", Options{})
}

func TestProjectClient_List(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/projects", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"artisanId":1,"title":"Fix roof","budget":1500,"status":"PLANNED"},{"id":2,"artisanId":3,"title":"Tiles","budget":0,"status":null}]`))
	})

	items, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Fix roof", items[0].Title)
	assert.Equal(t, domain.StatusPlanned, items[0].Status)
	assert.Equal(t, domain.Status(""), items[1].Status)
}

func TestProjectClient_ListByArtisan(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/artisan/3", r.URL.Path)
		w.Write([]byte(`[{"id":2,"artisanId":3,"title":"Tiles","budget":0}]`))
	})

	items, err := c.ListByArtisan(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(3), items[0].ArtisanID)
}

func TestProjectClient_Get_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/42", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Project not found"}`))
	})

	p, err := c.Get(context.Background(), 42)
	assert.Nil(t, p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProjectNotFound))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, `{"message":"Project not found"}`, se.Body)
}

func TestProjectClient_Create(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/projects", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "req-7", r.Header.Get("X-Request-Id"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"artisanId":1,"title":"Fix roof","description":"","location":"","budget":1500,"startDate":"2024-05-01","endDate":null}`, string(raw))

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":9,"artisanId":1,"title":"Fix roof","budget":1500,"startDate":"2024-05-01","status":"PLANNED"}`))
	})

	draft := domain.NewCreateDraft(1)
	draft.Title = "Fix roof"
	draft.Budget = "1500"
	draft.StartDate = "2024-05-01"
	req, err := draft.ToRequest()
	require.NoError(t, err)

	ctx := requestctx.WithRequestID(context.Background(), "req-7")
	p, err := c.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(9), p.ID)
	assert.Equal(t, domain.StatusPlanned, p.Status)
}

func TestProjectClient_UpdateStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/projects/5/status", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "COMPLETED", body["status"])

		w.Write([]byte(`{"id":5,"title":"x","budget":1,"status":"COMPLETED"}`))
	})

	p, err := c.UpdateStatus(context.Background(), 5, domain.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, p.Status)
}

func TestProjectClient_Delete(t *testing.T) {
	t.Run("accepts no content", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/api/projects/5", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		})
		require.NoError(t, c.Delete(context.Background(), 5))
	})

	t.Run("surfaces server errors", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("boom"))
		})
		err := c.Delete(context.Background(), 5)

		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
		assert.False(t, errors.Is(err, domain.ErrProjectNotFound))
	})
}

func TestProjectClient_Updates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/5/updates", r.URL.Path)
		switch r.Method {
		case http.MethodPost:
			raw, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"progressPercent":60,"note":"walls done"}`, string(raw))
			w.Write([]byte(`{"id":1,"progressPercent":60,"note":"walls done","createdAt":"2024-05-03T10:00:00.123"}`))
		case http.MethodGet:
			w.Write([]byte(`[{"id":1,"progressPercent":60,"note":"walls done","createdAt":"2024-05-03T10:00:00.123"}]`))
		}
	})

	note := "walls done"
	u, err := c.AddUpdate(context.Background(), 5, domain.CreateProgressUpdateRequest{ProgressPercent: 60, Note: &note})
	require.NoError(t, err)
	assert.Equal(t, 60, u.ProgressPercent)

	list, err := c.ListUpdates(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2024-05-03T10:00:00.123", list[0].CreatedAt)
}

func TestProjectClient_Unreachable(t *testing.T) {
	ResetMetrics()
	c := New("http://127.0.0.1:1", Options{})

	_, err := c.List(context.Background())
	require.Error(t, err)

	m := GetMetrics()
	assert.Equal(t, int64(1), m.Calls)
	assert.Equal(t, int64(1), m.Errors)
	assert.Equal(t, 100.0, m.ErrorRate())
}
