package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	waypointhttp "github.com/aretw0/waypoint/pkg/adapters/http"
	"github.com/aretw0/waypoint/pkg/adapters/memory"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var releaseDoc = strings.Join([]string{
	"%%workflow start%%",
	"# Release",
	"- Pick version",
	"%%workflow get version%%",
	"- Publish",
	"%%workflow end%%",
}, "\n")

func newServer(t *testing.T) (*httptest.Server, *memory.Documents) {
	t.Helper()
	docs := memory.NewDocuments(map[string]string{"release.md": releaseDoc})
	svc := session.NewService(docs, session.NewManager(memory.NewStore()))
	srv := httptest.NewServer(waypointhttp.NewHandler(svc,
		waypointhttp.WithDocuments(docs),
		waypointhttp.WithVersion("1.2.3\n"),
	))
	t.Cleanup(srv.Close)
	return srv, docs
}

func do(t *testing.T, method, url, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestServer_SessionLifecycle(t *testing.T) {
	srv, docs := newServer(t)

	var started domain.StepResponse
	code := do(t, http.MethodPost, srv.URL+"/sessions", `{"document_id":"release.md","line":"2","session_id":"rel"}`, &started)
	require.Equal(t, http.StatusCreated, code)
	require.NotNil(t, started.Step)
	assert.Equal(t, "rel", started.Session.ID)
	assert.Equal(t, []string{"- Pick version"}, started.Step.Text)
	assert.Equal(t, []domain.Prompt{{Name: "version", Position: 3}}, started.Step.Prompts)

	var answered domain.StepResponse
	code = do(t, http.MethodPost, srv.URL+"/sessions/rel/answers", `{"name":"version","value":"2.0"}`, &answered)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, answered.Step.Prompts)

	var next domain.StepResponse
	require.Equal(t, http.StatusOK, do(t, http.MethodPost, srv.URL+"/sessions/rel/next", "", &next))
	assert.Equal(t, []string{"- Publish"}, next.Step.Text)
	assert.Equal(t, "2.0", next.Step.Variables["version"])
	assert.True(t, next.Step.Last())

	var ids []string
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/sessions", "", &ids))
	assert.Equal(t, []string{"rel"}, ids)

	var closed domain.StepResponse
	require.Equal(t, http.StatusOK, do(t, http.MethodPost, srv.URL+"/sessions/rel/complete", "", &closed))
	assert.True(t, closed.Closed)

	text, err := docs.Read(context.Background(), "release.md")
	require.NoError(t, err)
	assert.Equal(t, releaseDoc, text)

	assert.Equal(t, http.StatusNotFound, do(t, http.MethodGet, srv.URL+"/sessions/rel", "", nil))
}

func TestServer_Errors(t *testing.T) {
	srv, _ := newServer(t)

	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, srv.URL+"/sessions", `{"line":1}`, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, srv.URL+"/sessions", `not json`, nil))
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodPost, srv.URL+"/sessions", `{"document_id":"nope.md"}`, nil))
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodPost, srv.URL+"/sessions/ghost/next", "", nil))

	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, srv.URL+"/sessions", `{"document_id":"release.md","session_id":"s"}`, nil))
	assert.Equal(t, http.StatusConflict, do(t, http.MethodPost, srv.URL+"/sessions", `{"document_id":"release.md","session_id":"s"}`, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, http.MethodPost, srv.URL+"/sessions/s/answers", `{"name":"other","value":"x"}`, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, http.MethodPost, srv.URL+"/sessions/s/answers", `{"name":"version","value":"a = b"}`, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, http.MethodPost, srv.URL+"/sessions/s/answers", `{"name":"version","value":"1.0\n2.0"}`, nil))
	assert.Equal(t, http.StatusConflict, do(t, http.MethodPost, srv.URL+"/sessions/s/complete", "", nil))
	assert.Equal(t, http.StatusOK, do(t, http.MethodDelete, srv.URL+"/sessions/s", "", nil))
}

func TestServer_InfoAndDocuments(t *testing.T) {
	srv, _ := newServer(t)

	var info map[string]string
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/info", "", &info))
	assert.Equal(t, "1.2.3", info["version"])

	var docs []string
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/documents", "", &docs))
	assert.Equal(t, []string{"release.md"}, docs)
}

func TestServer_SessionEvents(t *testing.T) {
	srv, _ := newServer(t)
	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, srv.URL+"/sessions", `{"document_id":"release.md","session_id":"ev"}`, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sessions/ev/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	go func() {
		if resp, err := http.Post(srv.URL+"/sessions/ev/next", "application/json", nil); err == nil {
			resp.Body.Close()
		}
	}()

	for lines.Scan() {
		if data, ok := strings.CutPrefix(lines.Text(), "data: "); ok && data != "connected" {
			var event domain.StepResponse
			require.NoError(t, json.Unmarshal([]byte(data), &event))
			assert.Equal(t, []string{"- Publish"}, event.Step.Text)
			return
		}
	}
	t.Fatal("stream ended without a step event")
}

func TestStreamManager_CloseEndsSubscribers(t *testing.T) {
	sm := waypointhttp.NewStreamManager()
	ch, unsubscribe := sm.Subscribe("s")

	sm.Broadcast("s", "hello")
	assert.Equal(t, "hello", <-ch)

	sm.Close("s")
	_, ok := <-ch
	assert.False(t, ok)
	unsubscribe()
}
