package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/api/shared"
	"github.com/physlab/physlab-api/internal/domain"
	"github.com/physlab/physlab-api/internal/service/achievement"
	"github.com/physlab/physlab-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// awardAchievementStore keeps unlock records in memory for handler tests.
type awardAchievementStore struct {
	records []*domain.Achievement
}

var _ store.AchievementStore = (*awardAchievementStore)(nil)

func (f *awardAchievementStore) Insert(_ context.Context, a *domain.Achievement) (bool, error) {
	for _, existing := range f.records {
		if existing.UserID == a.UserID && existing.Type == a.Type {
			return false, nil
		}
	}
	f.records = append(f.records, a)
	return true, nil
}

func (f *awardAchievementStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Achievement, error) {
	var out []*domain.Achievement
	for _, a := range f.records {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *awardAchievementStore) ListTypes(_ context.Context, userID uuid.UUID) (map[domain.AchievementType]bool, error) {
	types := make(map[domain.AchievementType]bool)
	for _, a := range f.records {
		if a.UserID == userID {
			types[a.Type] = true
		}
	}
	return types, nil
}

func (f *awardAchievementStore) ListAll(context.Context) ([]*domain.Achievement, error) {
	return f.records, nil
}

// awardSessionStore panics on every call; the award path never reads sessions.
type awardSessionStore struct{}

var _ store.SessionStore = (*awardSessionStore)(nil)

func (awardSessionStore) Create(context.Context, *domain.Session) error { panic("not implemented") }

func (awardSessionStore) AbandonActive(context.Context, uuid.UUID, domain.SimulationID, time.Time) (int64, error) {
	panic("not implemented")
}

func (awardSessionStore) AppendSnapshot(context.Context, uuid.UUID, uuid.UUID, domain.Snapshot) (int, error) {
	panic("not implemented")
}

func (awardSessionStore) End(context.Context, uuid.UUID, uuid.UUID, time.Time, json.RawMessage, json.RawMessage) (*domain.Session, error) {
	panic("not implemented")
}

func (awardSessionStore) GetByID(context.Context, uuid.UUID, uuid.UUID) (*domain.Session, error) {
	panic("not implemented")
}

func (awardSessionStore) List(context.Context, uuid.UUID, store.SessionFilter) (*store.SessionPage, error) {
	panic("not implemented")
}

func (awardSessionStore) ListEnded(context.Context, uuid.UUID) ([]*domain.Session, error) {
	panic("not implemented")
}

func (awardSessionStore) WithTx(*sql.Tx) store.SessionStore { panic("not implemented") }

func TestAchievementHandlerAward(t *testing.T) {
	t.Parallel()

	adminID := uuid.New()
	targetID := uuid.New()

	serve := func(t *testing.T, body string) (*httptest.ResponseRecorder, *awardAchievementStore) {
		t.Helper()

		records := &awardAchievementStore{}
		handler := NewAchievementHandler(achievement.NewEngine(records, awardSessionStore{}, nil))

		req := httptest.NewRequest(http.MethodPost, "/api/achievements/award", strings.NewReader(body))
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, adminID))
		rec := httptest.NewRecorder()
		handler.Award(rec, req)
		return rec, records
	}

	t.Run("omitted rarity defaults to common", func(t *testing.T) {
		t.Parallel()

		body := `{
			"user_id": "` + targetID.String() + `",
			"type": "scientist",
			"title": "Scientist",
			"description": "Recognized for outstanding lab work",
			"icon": "🔬"
		}`
		rec, records := serve(t, body)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp AchievementResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "common", resp.Rarity)
		assert.Zero(t, resp.Points)

		require.Len(t, records.records, 1)
		assert.Equal(t, domain.RarityCommon, records.records[0].Rarity)
	})

	t.Run("explicit rarity is kept", func(t *testing.T) {
		t.Parallel()

		body := `{
			"user_id": "` + targetID.String() + `",
			"type": "physics_master",
			"title": "Physics Master",
			"description": "Mastered every simulation",
			"icon": "🏆",
			"points": 1000,
			"rarity": "legendary"
		}`
		rec, _ := serve(t, body)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp AchievementResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "legendary", resp.Rarity)
		assert.Equal(t, 1000, resp.Points)
	})

	t.Run("unknown rarity is rejected", func(t *testing.T) {
		t.Parallel()

		body := `{
			"user_id": "` + targetID.String() + `",
			"type": "scientist",
			"title": "Scientist",
			"description": "Recognized for outstanding lab work",
			"icon": "🔬",
			"rarity": "mythic"
		}`
		rec, records := serve(t, body)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, records.records)
	})
}
