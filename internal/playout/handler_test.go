package playout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/next-vod", h.GetNextVod)
	return r
}

func newHandlerFixture(t *testing.T, channels ...*Channel) (*chi.Mux, *MemoryStore) {
	t.Helper()
	svc, store, _ := newTestService(t, channels...)
	return newTestRouter(NewHandler(svc, testLogger())), store
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return body
}

func TestHandler_GetNextVod(t *testing.T) {
	r, store := newHandlerFixture(t, threeAssetChannel("c1", PositionNeverPlayed))

	req := httptest.NewRequest(http.MethodGet, "/next-vod?channelId=c1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}

	body := decodeBody(t, rec)
	if body["id"] != "a0" || body["title"] != "Zero" {
		t.Errorf("unexpected body: %v", body)
	}
	if body["hlsUrl"] == "" {
		t.Error("expected hlsUrl in response")
	}

	ch, err := store.GetChannel(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GetChannel: %v", err)
	}
	if ch.Position != 0 {
		t.Errorf("position should be persisted as 0, got %d", ch.Position)
	}
}

func TestHandler_GetNextVod_missing_param(t *testing.T) {
	r, _ := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/next-vod", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] == "" {
		t.Errorf("expected error body, got %v", body)
	}
}

func TestHandler_GetNextVod_unknown_channel(t *testing.T) {
	r, store := newHandlerFixture(t, threeAssetChannel("other", 1))

	req := httptest.NewRequest(http.MethodGet, "/next-vod?channelId=missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] == "" {
		t.Errorf("expected error body, got %v", body)
	}

	// No store write may happen for an unknown channel.
	other, _ := store.GetChannel(context.Background(), "other")
	if other.Position != 1 {
		t.Errorf("unrelated channel position changed: %d", other.Position)
	}
}

func TestHandler_GetNextVod_empty_playlist(t *testing.T) {
	r, _ := newHandlerFixture(t, &Channel{ChannelID: "c1", Position: PositionNeverPlayed})

	req := httptest.NewRequest(http.MethodGet, "/next-vod?channelId=c1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for empty playlist, got %d", rec.Code)
	}
}

// unavailableStore fails every read the way a down backing store would.
type unavailableStore struct {
	MemoryStore
}

func (s *unavailableStore) GetChannel(_ context.Context, channelID string) (*Channel, error) {
	return nil, ErrStoreUnavailable
}

func TestHandler_GetNextVod_store_unavailable(t *testing.T) {
	svc := NewService(&unavailableStore{}, &fakeStitcher{}, testFiller, testLogger(), nil)
	r := newTestRouter(NewHandler(svc, testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/next-vod?channelId=c1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
