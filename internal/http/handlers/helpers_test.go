package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/auth-recovery-be/internal/auth"
	"github.com/hongminglow/auth-recovery-be/internal/models"
	"github.com/hongminglow/auth-recovery-be/internal/storage"
	"github.com/hongminglow/auth-recovery-be/internal/storage/memory"
)

const frontendURL = "http://localhost:3000"

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// captureMailer keeps every link it is asked to send.
type captureMailer struct {
	mu    sync.Mutex
	to    []string
	links []string
	err   error
}

func (m *captureMailer) SendPasswordReset(_ context.Context, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	m.links = append(m.links, link)
	return nil
}

func (m *captureMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.links, "no reset email sent")
	link := m.links[len(m.links)-1]
	prefix := frontendURL + "/reset-password/"
	require.True(t, strings.HasPrefix(link, prefix), "unexpected link %q", link)
	return strings.TrimPrefix(link, prefix)
}

// brokenStore fails every call with err.
type brokenStore struct{ err error }

func (s brokenStore) CreateUser(context.Context, models.User) (models.User, error) {
	return models.User{}, s.err
}
func (s brokenStore) FindByUsername(context.Context, string) (models.User, error) {
	return models.User{}, s.err
}
func (s brokenStore) FindByEmail(context.Context, string) (models.User, error) {
	return models.User{}, s.err
}
func (s brokenStore) FindByEmailAndQuestion(context.Context, string, string) (models.User, error) {
	return models.User{}, s.err
}
func (s brokenStore) UpdatePasswordByID(context.Context, int64, string) error     { return s.err }
func (s brokenStore) UpdatePasswordByEmail(context.Context, string, string) error { return s.err }
func (s brokenStore) Close() error                                                { return nil }

var errDown = errors.New("store down")

type env struct {
	t      *testing.T
	store  *memory.UserStore
	ledger *memory.Ledger
	mailer *captureMailer
	tokens *auth.TokenManager
	clock  *clock
	srv    *httptest.Server
}

func newEnv(t *testing.T, opts Options) *env {
	t.Helper()
	return newEnvWithStore(t, memory.NewUserStore(), opts)
}

func newEnvWithStore(t *testing.T, store storage.UserStore, opts Options) *env {
	t.Helper()
	if opts.FrontendURL == "" {
		opts.FrontendURL = frontendURL
	}
	c := &clock{t: time.Now().UTC().Truncate(time.Second)}
	tokens := auth.NewTokenManager("handler-test-secret", "handler-test", auth.TTLs{}).WithClock(c.now)
	ledger := memory.NewLedgerWithClock(c.now)
	mailer := &captureMailer{}

	h := NewAuthHandler(store, ledger, tokens, auth.NewHasher(bcrypt.MinCost), mailer, opts)
	r := chi.NewRouter()
	r.Route("/api", h.Register)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	e := &env{t: t, ledger: ledger, mailer: mailer, tokens: tokens, clock: c, srv: srv}
	if ms, ok := store.(*memory.UserStore); ok {
		e.store = ms
	}
	return e
}

func (e *env) post(path string, body any) (int, map[string]any, string) {
	e.t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(e.t, err)

	req, err := http.NewRequest(http.MethodPost, e.srv.URL+path, bytes.NewReader(raw))
	require.NoError(e.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(e.t, err)

	out := map[string]any{}
	require.NoError(e.t, json.Unmarshal(buf.Bytes(), &out), "body: %s", buf.String())
	return resp.StatusCode, out, buf.String()
}

func registration(username, email, password string) map[string]string {
	return map[string]string{
		"firstName":      "Ana",
		"lastName":       "Lopez",
		"motherLastName": "Diaz",
		"username":       username,
		"email":          email,
		"password":       password,
		"phone":          "5550001111",
		"secretQuestion": "¿Color favorito?",
		"secretAnswer":   "blue",
	}
}

func (e *env) register(username, email, password string) {
	e.t.Helper()
	status, body, _ := e.post("/api/register", registration(username, email, password))
	require.Equal(e.t, http.StatusOK, status, "register: %v", body)
}

func (e *env) login(username, password string) (int, map[string]any) {
	e.t.Helper()
	status, body, _ := e.post("/api/login", map[string]string{"username": username, "password": password})
	return status, body
}
