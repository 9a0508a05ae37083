package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/cache"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/content"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/geocode"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/service"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeGeocoder struct{}

func (fakeGeocoder) Lookup(_ context.Context, pc string) (geocode.Coordinates, error) {
	switch geocode.Normalize(pc) {
	case "CF626BD":
		return geocode.Coordinates{Postcode: "CF626BD", Latitude: 51.405, Longitude: -3.268}, nil
	case "CF999ZZ":
		return geocode.Coordinates{}, geocode.ErrLookupFailed
	}
	return geocode.Coordinates{}, geocode.ErrInvalidPostcode
}

type fixture struct {
	router     *gin.Engine
	handler    *Handler
	sessions   *cache.MemorySessions
	homesHits  atomic.Int32
	reviewHits atomic.Int32
	lastAuth   atomic.Value
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}
	f.lastAuth.Store("")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /homes", func(w http.ResponseWriter, r *http.Request) {
		f.homesHits.Add(1)
		_ = json.NewEncoder(w).Encode([]models.Home{{ID: "barry", Name: "Bellavista Barry"}})
	})
	mux.HandleFunc("GET /homes/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "barry" {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(models.Home{ID: "barry", Name: "Bellavista Barry"})
	})
	mux.HandleFunc("POST /homes", func(w http.ResponseWriter, r *http.Request) {
		f.lastAuth.Store(r.Header.Get("Authorization"))
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Authentication required"}`))
			return
		}
		var h models.Home
		_ = json.NewDecoder(r.Body).Decode(&h)
		h.ID = "new-home"
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(h)
	})
	mux.HandleFunc("GET /reviews", func(w http.ResponseWriter, r *http.Request) {
		f.reviewHits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("POST /reviews", func(w http.ResponseWriter, r *http.Request) {
		f.reviewHits.Add(1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"r1","review":"Lovely","rating":5,"location":"Barry"}`))
	})
	mux.HandleFunc("POST /newsletter-subscriptions", func(w http.ResponseWriter, r *http.Request) {
		var s models.Subscription
		_ = json.NewDecoder(r.Body).Decode(&s)
		if s.Email == "dup@example.com" {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"You are already subscribed."}`))
			return
		}
		if s.Email == "paused@example.com" {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"message":"Subscriptions are paused, please try again tomorrow."}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"s1","message":"Thanks for subscribing!"}`))
	})
	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)

	svc := service.NewService(content.New(upstream.URL), fakeGeocoder{}, nil)
	f.sessions = cache.NewMemorySessions(0)
	f.handler = NewHandler(svc, f.sessions, nil)
	f.router = gin.New()
	RegisterRoutes(f.router, f.handler)
	return f
}

func (f *fixture) do(method, path, body string, cookies []*http.Cookie, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == DefaultSessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie set", DefaultSessionCookie)
	return nil
}

func TestHomesCachedPerSession(t *testing.T) {
	f := newFixture(t)

	first := f.do(http.MethodGet, "/v1/homes", "", nil, nil)
	require.Equal(t, http.StatusOK, first.Code)
	cookie := sessionCookie(t, first)
	assert.True(t, cookie.HttpOnly)

	second := f.do(http.MethodGet, "/v1/homes", "", []*http.Cookie{cookie}, nil)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Empty(t, second.Result().Cookies(), "existing session keeps its cookie")
	assert.Equal(t, int32(1), f.homesHits.Load())

	other := f.do(http.MethodGet, "/v1/homes", "", nil, nil)
	require.Equal(t, http.StatusOK, other.Code)
	assert.Equal(t, int32(2), f.homesHits.Load())

	body := decodeBody(t, second)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "barry", data[0].(map[string]any)["id"])
}

func TestEndSessionDropsCache(t *testing.T) {
	f := newFixture(t)

	first := f.do(http.MethodGet, "/v1/homes", "", nil, nil)
	cookie := sessionCookie(t, first)

	end := f.do(http.MethodDelete, "/v1/session", "", []*http.Cookie{cookie}, nil)
	assert.Equal(t, http.StatusNoContent, end.Code)

	f.do(http.MethodGet, "/v1/homes", "", []*http.Cookie{cookie}, nil)
	assert.Equal(t, int32(2), f.homesHits.Load())
}

func TestInvalidSessionCookieIsReplaced(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/v1/homes", "", []*http.Cookie{{Name: DefaultSessionCookie, Value: "not-a-uuid"}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, "not-a-uuid", sessionCookie(t, rec).Value)
}

func TestGetHome(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/v1/homes/barry", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bellavista Barry", decodeBody(t, rec)["data"].(map[string]any)["name"])

	rec = f.do(http.MethodGet, "/v1/homes/missing", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateHomeForwardsAuthorization(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/v1/homes", `{"name":"Waverley"}`, nil, http.Header{"Authorization": {"Bearer admin"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Bearer admin", f.lastAuth.Load())
	assert.Equal(t, "new-home", decodeBody(t, rec)["data"].(map[string]any)["id"])

	rec = f.do(http.MethodPost, "/v1/homes", `{"name":"Waverley"}`, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", decodeBody(t, rec)["error"])

	rec = f.do(http.MethodPost, "/v1/homes", `{"name":`, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReviewsFailureIsReported(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/v1/reviews?location=Barry", "", nil, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, service.GenericFailureMessage, decodeBody(t, rec)["error"])
}

func TestSubmitReview(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/v1/reviews", `{"review":"Lovely","location":"Barry","rating":0}`, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Please select a star rating between 1 and 5.", body["error"])
	assert.Equal(t, "Rating", body["field"])
	assert.Equal(t, int32(0), f.reviewHits.Load())

	rec = f.do(http.MethodPost, "/v1/reviews", `{"review":"Lovely","location":"Barry","rating":5}`, nil, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int32(1), f.reviewHits.Load())
}

func TestSubscribePassesServerMessage(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/v1/newsletter-subscriptions", `{"email":"Jo@Example.com"}`, nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Thanks for subscribing!", decodeBody(t, rec)["message"])

	rec = f.do(http.MethodPost, "/v1/newsletter-subscriptions", `{"email":"dup@example.com"}`, nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "You are already subscribed.", decodeBody(t, rec)["error"])

	rec = f.do(http.MethodPost, "/v1/newsletter-subscriptions", `{"email":"nope"}`, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please enter a valid email address.", decodeBody(t, rec)["error"])

	rec = f.do(http.MethodPost, "/v1/newsletter-subscriptions", `{"email":"paused@example.com"}`, nil, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Subscriptions are paused, please try again tomorrow.", decodeBody(t, rec)["error"])
}

func TestCreateNewsUnreadableImage(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/v1/news", `{"title":"Summer fete","image":"data:image/png;base64,***"}`, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "image", body["field"])
	assert.NotEmpty(t, body["error"])

	rec = f.do(http.MethodPut, "/v1/news/n1", `{"title":"Summer fete","gallery":["data:image/png;base64,***"]}`, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "gallery", decodeBody(t, rec)["field"])
}

func TestCookielessRequestsStoreNoSession(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 20; i++ {
		rec := f.do(http.MethodGet, "/v1/locations/nearest?lat=51.405&lon=-3.268", "", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 0, f.sessions.Len())

	rec := f.do(http.MethodGet, "/v1/homes", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.sessions.Len())
}

func TestIdleSessionExpires(t *testing.T) {
	f := newFixture(t)
	f.sessions = cache.NewMemorySessions(20 * time.Millisecond)
	f.handler.sessions = f.sessions

	first := f.do(http.MethodGet, "/v1/homes", "", nil, nil)
	cookie := sessionCookie(t, first)
	assert.Zero(t, cookie.MaxAge)
	require.Equal(t, 1, f.sessions.Len())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, f.sessions.Purge())
	assert.Equal(t, 0, f.sessions.Len())

	f.do(http.MethodGet, "/v1/homes", "", []*http.Cookie{cookie}, nil)
	assert.Equal(t, int32(2), f.homesHits.Load())
}

func TestNearest(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/v1/locations/nearest?lat=51.405&lon=-3.268", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "barry", data["facility"].(map[string]any)["id"])
	assert.Equal(t, 0.0, data["distanceMiles"])

	rec = f.do(http.MethodGet, "/v1/locations/nearest?postcode=cf62%206bd", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "CF626BD", body["meta"].(map[string]any)["postcode"])
	assert.Equal(t, "barry", body["data"].(map[string]any)["facility"].(map[string]any)["id"])

	rec = f.do(http.MethodGet, "/v1/locations/nearest?postcode=XX1", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, geocode.InvalidPostcodeMessage, decodeBody(t, rec)["error"])

	rec = f.do(http.MethodGet, "/v1/locations/nearest?postcode=CF99%209ZZ", "", nil, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, service.GenericFailureMessage, decodeBody(t, rec)["error"])

	rec = f.do(http.MethodGet, "/v1/locations/nearest?lat=200&lon=0", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/v1/locations/nearest", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/v1/locations/nearest?geo_error=1", "", nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "denied")
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/healthz", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	f.handler.AddHealthCheck("redis", func(context.Context) error { return errors.New("connection refused") })
	rec = f.do(http.MethodGet, "/healthz", "", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "connection refused", body["checks"].(map[string]any)["redis"])
}

func TestParseLimit(t *testing.T) {
	assert.Equal(t, 10, parseLimit("abc"))
	assert.Equal(t, 10, parseLimit("0"))
	assert.Equal(t, 25, parseLimit("25"))
	assert.Equal(t, 200, parseLimit("1000"))
}
