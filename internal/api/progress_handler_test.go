package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/api/shared"
	"github.com/physlab/physlab-api/internal/domain"
	"github.com/physlab/physlab-api/internal/service/progress"
	"github.com/physlab/physlab-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// progressHandlerStore keeps progress entries in memory for handler tests.
type progressHandlerStore struct {
	entries []*domain.Progress
}

var _ store.ProgressStore = (*progressHandlerStore)(nil)

func (f *progressHandlerStore) Create(_ context.Context, entry *domain.Progress) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *progressHandlerStore) ListByUser(
	_ context.Context,
	userID uuid.UUID,
	filter store.ProgressFilter,
) ([]*domain.Progress, error) {
	matched := []*domain.Progress{}
	for _, entry := range f.entries {
		if entry.UserID != userID {
			continue
		}
		if filter.SimulationID != "" && entry.SimulationID != filter.SimulationID {
			continue
		}
		matched = append(matched, entry)
		if filter.Limit > 0 && len(matched) == filter.Limit {
			break
		}
	}
	return matched, nil
}

func (f *progressHandlerStore) Delete(_ context.Context, progressID, userID uuid.UUID) error {
	for i, entry := range f.entries {
		if entry.ID == progressID && entry.UserID == userID {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return store.ErrProgressNotFound
}

func TestProgressHandlerSave(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	serve := func(t *testing.T, body string) (*httptest.ResponseRecorder, *progressHandlerStore) {
		t.Helper()

		records := &progressHandlerStore{}
		handler := NewProgressHandler(progress.NewService(records, nil))

		req := httptest.NewRequest(http.MethodPost, "/api/progress", strings.NewReader(body))
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, userID))
		rec := httptest.NewRecorder()
		handler.Save(rec, req)
		return rec, records
	}

	t.Run("saves a completed run", func(t *testing.T) {
		t.Parallel()

		body := `{
			"simulation_id": "pendulum",
			"time_spent": 420,
			"parameters": {"length": 1.5},
			"results": {"period": 2.46},
			"score": 85
		}`
		rec, records := serve(t, body)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp ProgressResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Simple Pendulum", resp.SimulationName)
		assert.Equal(t, 85, resp.Score)

		require.Len(t, records.entries, 1)
		assert.Equal(t, userID, records.entries[0].UserID)
	})

	t.Run("score defaults to zero when omitted", func(t *testing.T) {
		t.Parallel()

		rec, records := serve(t, `{"simulation_id": "pendulum"}`)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		require.Len(t, records.entries, 1)
		assert.Zero(t, records.entries[0].Score)
	})

	t.Run("rejects score above 100", func(t *testing.T) {
		t.Parallel()

		rec, records := serve(t, `{"simulation_id": "pendulum", "score": 120}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, records.entries)
	})

	t.Run("rejects unknown simulation", func(t *testing.T) {
		t.Parallel()

		rec, records := serve(t, `{"simulation_id": "warp-drive", "score": 50}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, records.entries)
	})
}

func TestProgressHandlerListAndStats(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

	records := &progressHandlerStore{}
	for i := 0; i < 3; i++ {
		entry, err := domain.NewProgress(
			userID, domain.SimulationPendulum, "", 1200, nil, nil, 80+i,
			now.Add(-time.Duration(i)*time.Hour),
		)
		require.NoError(t, err)
		records.entries = append(records.entries, entry)
	}
	handler := NewProgressHandler(progress.NewService(records, nil))

	get := func(t *testing.T, target string, h http.HandlerFunc) *httptest.ResponseRecorder {
		t.Helper()

		req := httptest.NewRequest(http.MethodGet, target, nil)
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, userID))
		rec := httptest.NewRecorder()
		h(rec, req)
		return rec
	}

	t.Run("lists saved entries with count", func(t *testing.T) {
		t.Parallel()

		rec := get(t, "/api/progress", handler.List)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp ProgressListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 3, resp.Count)
		require.Len(t, resp.Progress, 3)
	})

	t.Run("honors limit parameter", func(t *testing.T) {
		t.Parallel()

		rec := get(t, "/api/progress?limit=2", handler.List)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp ProgressListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
	})

	t.Run("rejects a non-numeric limit", func(t *testing.T) {
		t.Parallel()

		rec := get(t, "/api/progress?limit=all", handler.List)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("stats reports overall progress", func(t *testing.T) {
		t.Parallel()

		rec := get(t, "/api/progress/stats", handler.Stats)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var report progress.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, 3, report.Overall.TotalExperiments)
		assert.Equal(t, "1/3", report.Overall.ExperimentsCompleted)
		assert.Equal(t, 82, report.Overall.BestScore)
	})
}

func TestProgressHandlerDelete(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

	newEntry := func(t *testing.T, owner uuid.UUID) *domain.Progress {
		t.Helper()
		entry, err := domain.NewProgress(owner, domain.SimulationPendulum, "", 60, nil, nil, 50, now)
		require.NoError(t, err)
		return entry
	}

	del := func(t *testing.T, handler *ProgressHandler, progressID string) *httptest.ResponseRecorder {
		t.Helper()

		req := httptest.NewRequest(http.MethodDelete, "/api/progress/"+progressID, nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("progressID", progressID)
		ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
		ctx = context.WithValue(ctx, shared.UserIDContextKey, userID)
		rec := httptest.NewRecorder()
		handler.Delete(rec, req.WithContext(ctx))
		return rec
	}

	t.Run("deletes an owned entry", func(t *testing.T) {
		t.Parallel()

		entry := newEntry(t, userID)
		records := &progressHandlerStore{entries: []*domain.Progress{entry}}
		handler := NewProgressHandler(progress.NewService(records, nil))

		rec := del(t, handler, entry.ID.String())

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Empty(t, records.entries)
	})

	t.Run("another user's entry is not found", func(t *testing.T) {
		t.Parallel()

		entry := newEntry(t, uuid.New())
		records := &progressHandlerStore{entries: []*domain.Progress{entry}}
		handler := NewProgressHandler(progress.NewService(records, nil))

		rec := del(t, handler, entry.ID.String())

		assert.Equal(t, http.StatusNotFound, rec.Code)
		require.Len(t, records.entries, 1)
	})
}
