package realtime_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"click-war/internal/config"
	"click-war/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

const emulatorNamespace = "click-war-test"

// restRequest is one REST call received by restServer.
type restRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   string
}

// restServer stands in for the database REST endpoint. The SDK is pointed at
// it through FIREBASE_DATABASE_EMULATOR_HOST.
type restServer struct {
	mu       sync.Mutex
	requests []restRequest
	respond  func(w http.ResponseWriter, req restRequest)
}

func (s *restServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	req := restRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   string(body),
	}
	s.mu.Lock()
	s.requests = append(s.requests, req)
	respond := s.respond
	s.mu.Unlock()
	respond(w, req)
}

func (s *restServer) received() []restRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]restRequest(nil), s.requests...)
}

func newRESTClient(t *testing.T, respond func(w http.ResponseWriter, req restRequest)) (*realtime.Client, *restServer) {
	t.Helper()
	rs := &restServer{respond: respond}
	srv := httptest.NewServer(rs)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	t.Setenv("FIREBASE_DATABASE_EMULATOR_HOST", "localhost:"+u.Port()+"?ns="+emulatorNamespace)

	cfg := &config.Config{
		Firebase: config.Firebase{
			APIKey:            "AIzaSyTestKey0000",
			AuthDomain:        "click-war-test.firebaseapp.com",
			ProjectID:         "click-war-test",
			StorageBucket:     "click-war-test.firebasestorage.app",
			MessagingSenderID: "1095709341884",
			AppID:             "1:1095709341884:web:0d21d511df284bbe",
			DatabaseURL:       "https://click-war-test-default-rtdb.firebaseio.com",
		},
		PollInterval: time.Second,
	}
	token := option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test"}))
	c, err := realtime.Connect(context.Background(), cfg, nil, token)
	require.NoError(t, err)
	return c, rs
}

func writeJSON(w http.ResponseWriter, status int, etag, body string) {
	w.Header().Set("Content-Type", "application/json")
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestFirebaseRef_Get(t *testing.T) {
	c, rs := newRESTClient(t, func(w http.ResponseWriter, req restRequest) {
		writeJSON(w, http.StatusOK, "", `3`)
	})

	snap, err := c.Get(context.Background(), c.Ref("scores/red"))

	require.NoError(t, err)
	var n int64
	require.NoError(t, snap.Decode(&n))
	assert.Equal(t, int64(3), n)
	assert.Equal(t, "/scores/red", snap.Path())

	reqs := rs.received()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "/scores/red.json", reqs[0].Path)
	assert.Equal(t, emulatorNamespace, reqs[0].Query.Get("ns"))
}

func TestFirebaseRef_SetSendsServerValues(t *testing.T) {
	c, rs := newRESTClient(t, func(w http.ResponseWriter, req restRequest) {
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, c.Ref("stats/lastClickAt"), realtime.ServerTimestamp()))
	require.NoError(t, c.Set(ctx, c.Ref("scores/red"), realtime.Literal(7)))

	reqs := rs.received()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "/stats/lastClickAt.json", reqs[0].Path)
	assert.Equal(t, "silent", reqs[0].Query.Get("print"))
	assert.JSONEq(t, `{".sv":"timestamp"}`, reqs[0].Body)
	assert.Equal(t, "/scores/red.json", reqs[1].Path)
	assert.JSONEq(t, `7`, reqs[1].Body)
}

func TestFirebaseRef_UpdateSendsPatch(t *testing.T) {
	c, rs := newRESTClient(t, func(w http.ResponseWriter, req restRequest) {
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.Update(context.Background(), c.Ref("stats"), map[string]any{
		"totalClicks": realtime.Increment(1),
		"lastClickAt": realtime.ServerTimestamp(),
		"lastTeam":    "red",
	})

	require.NoError(t, err)
	reqs := rs.received()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPatch, reqs[0].Method)
	assert.Equal(t, "/stats.json", reqs[0].Path)
	assert.JSONEq(t, `{
		"totalClicks": {".sv": {"increment": 1}},
		"lastClickAt": {".sv": "timestamp"},
		"lastTeam": "red"
	}`, reqs[0].Body)
}

func TestFirebaseRef_ETagReads(t *testing.T) {
	c, rs := newRESTClient(t, func(w http.ResponseWriter, req restRequest) {
		switch req.Header.Get("If-None-Match") {
		case "":
			writeJSON(w, http.StatusOK, "etag-1", `1`)
		case "etag-1":
			w.Header().Set("ETag", "etag-1")
			w.WriteHeader(http.StatusNotModified)
		default:
			writeJSON(w, http.StatusOK, "etag-2", `2`)
		}
	})
	ctx := context.Background()
	ref := c.Ref("scores/red")

	var raw json.RawMessage
	etag, err := ref.GetWithETag(ctx, &raw)
	require.NoError(t, err)
	assert.Equal(t, "etag-1", etag)
	assert.JSONEq(t, `1`, string(raw))

	changed, next, err := ref.GetIfChanged(ctx, etag, &raw)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "etag-1", next)

	changed, next, err = ref.GetIfChanged(ctx, "stale", &raw)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "etag-2", next)
	assert.JSONEq(t, `2`, string(raw))

	reqs := rs.received()
	require.Len(t, reqs, 3)
	assert.Equal(t, "true", reqs[0].Header.Get("X-Firebase-ETag"))
	assert.Equal(t, "etag-1", reqs[1].Header.Get("If-None-Match"))
	assert.Equal(t, "stale", reqs[2].Header.Get("If-None-Match"))
}

func TestFirebaseRef_TransactionRetriesOnPreconditionFailed(t *testing.T) {
	c, rs := newRESTClient(t, func(w http.ResponseWriter, req restRequest) {
		switch {
		case req.Method == http.MethodGet:
			writeJSON(w, http.StatusOK, "etag-1", `4`)
		case req.Header.Get("If-Match") == "etag-1":
			// Another writer got there first.
			writeJSON(w, http.StatusPreconditionFailed, "etag-2", `10`)
		default:
			writeJSON(w, http.StatusOK, "etag-3", req.Body)
		}
	})
	var seen []int64

	err := c.Transaction(context.Background(), c.Ref("scores/red"), func(current realtime.Snapshot) (any, error) {
		var n int64
		if err := current.Decode(&n); err != nil {
			return nil, err
		}
		seen = append(seen, n)
		return n + 1, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int64{4, 10}, seen)

	reqs := rs.received()
	require.Len(t, reqs, 3)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "true", reqs[0].Header.Get("X-Firebase-ETag"))
	assert.Equal(t, http.MethodPut, reqs[1].Method)
	assert.Equal(t, "etag-1", reqs[1].Header.Get("If-Match"))
	assert.JSONEq(t, `5`, reqs[1].Body)
	assert.Equal(t, "etag-2", reqs[2].Header.Get("If-Match"))
	assert.JSONEq(t, `11`, reqs[2].Body)
}

func TestFirebaseRef_TransactionAbortWritesNothing(t *testing.T) {
	c, rs := newRESTClient(t, func(w http.ResponseWriter, req restRequest) {
		writeJSON(w, http.StatusOK, "etag-1", `4`)
	})

	err := c.Transaction(context.Background(), c.Ref("scores/red"), func(realtime.Snapshot) (any, error) {
		return nil, realtime.ErrAbort
	})

	require.ErrorIs(t, err, realtime.ErrAbort)
	reqs := rs.received()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
}
