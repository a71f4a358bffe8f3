package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/audit"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/audit/repository"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/export"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/llm"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/sessions"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/users"
	"github.com/stretchr/testify/require"
)

const structuredReply = `{"readinessScore":68,"summary":"Scheduling and reminders are manual. Good fit for automation.","opportunities":[{"title":"Online booking","description":"Let students self-schedule","timeSavings":"5-8 hours/week","priority":"High","difficulty":"Low","estimatedROI":"3-5x in 6 months"}],"nextSteps":["Choose a booking tool"],"bottlenecks":["Manual scheduling"]}`

// fakeProvider is an OpenAI-compatible endpoint whose reply the test controls.
type fakeProvider struct {
	srv   *httptest.Server
	calls int32
	reply atomic.Value // string
	delay atomic.Int64 // nanoseconds
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	p := &fakeProvider{}
	p.reply.Store(structuredReply)
	p.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&p.calls, 1)
		if d := time.Duration(p.delay.Load()); d > 0 {
			select {
			case <-time.After(d):
			case <-r.Context().Done():
				return
			}
		}
		body, _ := json.Marshal(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": p.reply.Load().(string)}}},
		})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakeProvider) Calls() int { return int(atomic.LoadInt32(&p.calls)) }

type memObjectStore struct {
	objects map[string]string
}

func (m *memObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = string(b)
	return nil
}

func (m *memObjectStore) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "https://objects.example/" + key, nil
}

type testEnv struct {
	router   *gin.Engine
	provider *fakeProvider
	store    *repository.MemoryRepo
	objects  *memObjectStore
}

type envOptions struct {
	timeout   time.Duration
	publisher bool
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if opts.timeout == 0 {
		opts.timeout = 2 * time.Second
	}

	provider := newFakeProvider(t)
	client, err := llm.NewClient(provider.srv.URL, "sk-test", provider.srv.Client())
	require.NoError(t, err)
	gen, err := audit.NewGenerator(audit.ModeStructured, client, audit.GeneratorConfig{
		Model: "gpt-4o-mini", Temperature: 0.7, Timeout: opts.timeout, RetryMalformed: true,
	})
	require.NoError(t, err)

	store := repository.NewMemoryRepo()
	gate := sessions.NewGate(
		users.NewService(users.NewMemoryUserRepository()),
		sessions.NewService(sessions.NewMemoryRepository()),
		"handler-test-secret-xxxxxxxxxxxxxxxx",
		24*time.Hour,
	)

	objects := &memObjectStore{objects: map[string]string{}}
	var pub *export.Publisher
	if opts.publisher {
		pub = export.NewPublisher(export.NewObjectExporter(objects, time.Hour), time.Second)
	}

	r := gin.New()
	RegisterAPI(r, API{
		Gate:      gate,
		Audits:    audit.NewService(gen, store),
		Publisher: pub,
		Cookie:    CookieConfig{Name: "sid"},
	})
	return &testEnv{router: r, provider: provider, store: store, objects: objects}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "sid" && c.Value != "" {
			return c
		}
	}
	t.Fatalf("no session cookie in response: %v", w.Header())
	return nil
}

func (e *testEnv) signup(t *testing.T, email string) *http.Cookie {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/signup", map[string]string{"email": email, "password": "correct horse"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return sessionCookie(t, w)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
