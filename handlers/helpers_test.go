package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/acompanha/acompanha/internal/document"
	"github.com/acompanha/acompanha/internal/records/repository"
	"github.com/acompanha/acompanha/internal/records/service"
	"github.com/acompanha/acompanha/internal/sessions"
	"github.com/acompanha/acompanha/internal/users"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() { gin.SetMode(gin.TestMode) }

const (
	adminEmail    = "admin@local"
	adminPassword = "admin123"
)

type testEnv struct {
	r      *gin.Engine
	store  *document.Store
	static string
}

type envOpts struct {
	limiter gin.HandlerFunc
	maxBody int64
}

func newTestEnv(t *testing.T, opts ...func(*envOpts)) *testEnv {
	t.Helper()
	o := envOpts{maxBody: 200 * 1024}
	for _, f := range opts {
		f(&o)
	}
	dir := t.TempDir()
	store, err := document.Open(filepath.Join(dir, "db.jsonv"))
	require.NoError(t, err)
	repo := repository.New(store)
	userSvc := users.NewService(repo).WithCost(bcrypt.MinCost)
	_, err = userSvc.EnsureAdmin(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)

	gate, err := sessions.NewGate(sessions.Config{Secret: "handlers-test-secret-xxxxxxxxxxxxxx"})
	require.NoError(t, err)

	static := filepath.Join(dir, "public")
	require.NoError(t, os.MkdirAll(static, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(static, "app.js"), []byte("console.log(1)"), 0o644))

	r := NewRouter(Deps{
		Gate:         gate,
		Users:        userSvc,
		Cards:        service.NewService(repo),
		Store:        store,
		LoginLimiter: o.limiter,
		StaticDir:    static,
		MaxBodyBytes: o.maxBody,
	})
	return &testEnv{r: r, store: store, static: static}
}

// session carries the cookies and CSRF token a browser would hold after login.
type session struct {
	cookies []*http.Cookie
	csrf    string
}

func (e *testEnv) do(method, path, body string, s *session, withCSRF bool) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if s != nil {
		for _, c := range s.cookies {
			req.AddCookie(c)
		}
		if withCSRF {
			req.Header.Set(sessions.CSRFHeader, s.csrf)
		}
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T) *session {
	t.Helper()
	w := e.do(http.MethodPost, "/api/login", `{"email":"`+adminEmail+`","password":"`+adminPassword+`"}`, nil, false)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	s := &session{}
	for _, c := range w.Result().Cookies() {
		s.cookies = append(s.cookies, &http.Cookie{Name: c.Name, Value: c.Value})
		if c.Name == sessions.CSRFCookie {
			s.csrf = c.Value
		}
	}
	require.NotEmpty(t, s.csrf)
	return s
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func withLimiter(h gin.HandlerFunc) func(*envOpts) {
	return func(o *envOpts) { o.limiter = h }
}

func withMaxBody(n int64) func(*envOpts) {
	return func(o *envOpts) { o.maxBody = n }
}

