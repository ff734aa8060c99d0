package api_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/Jeffreasy/mimo-auth/internal/api"
	"github.com/Jeffreasy/mimo-auth/internal/auth"
	"github.com/Jeffreasy/mimo-auth/internal/config"
	"github.com/Jeffreasy/mimo-auth/internal/ratelimit"
	"github.com/Jeffreasy/mimo-auth/internal/revocation"
	"github.com/Jeffreasy/mimo-auth/internal/service"
	"github.com/Jeffreasy/mimo-auth/internal/userstore"
	"github.com/Jeffreasy/mimo-auth/internal/verification"
)

// In-memory fakes mirroring internal/service/service_test.go's, kept
// independent because these types are unexported there.

type fakeUsers struct {
	mu   sync.Mutex
	byID map[string]*userstore.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[string]*userstore.User{}} }

func (f *fakeUsers) FindByID(ctx context.Context, userID string) (*userstore.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[userID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*userstore.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) Create(ctx context.Context, userID, email, displayName, passwordDigest string) (*userstore.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email && u.Active {
			return nil, userstore.ErrDuplicateEmail
		}
	}
	u := &userstore.User{
		UserID: userID, Email: email, DisplayName: displayName, PasswordDigest: passwordDigest,
		CreatedAt: time.Now(), UpdatedAt: time.Now(), Active: true,
	}
	f.byID[userID] = u
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Update(ctx context.Context, userID string, patch userstore.Patch) (*userstore.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return nil, auth.New(auth.NotFound, "not found")
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.DisplayName != nil {
		u.DisplayName = *patch.DisplayName
	}
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) SetPassword(ctx context.Context, userID, passwordDigest string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return auth.New(auth.NotFound, "not found")
	}
	u.PasswordDigest = passwordDigest
	return nil
}

func (f *fakeUsers) SoftDelete(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return auth.New(auth.NotFound, "not found")
	}
	u.Active = false
	return nil
}

type fakeMailer struct {
	mu            sync.Mutex
	verifications map[string]string
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{verifications: map[string]string{}}
}

func (m *fakeMailer) SendVerification(ctx context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifications[email] = code
	return nil
}

func (m *fakeMailer) SendPasswordReset(ctx context.Context, email, code string) error {
	return nil
}

type fakeRevocationDB struct {
	mu   sync.Mutex
	jtis map[string]bool
}

func (f *fakeRevocationDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jtis[args[0].(string)] = true
	return pgconn.CommandTag{}, nil
}

type fakeRevocationRow struct{ exists bool }

func (r fakeRevocationRow) Scan(dest ...any) error {
	*(dest[0].(*bool)) = r.exists
	return nil
}

func (f *fakeRevocationDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeRevocationRow{exists: f.jtis[args[0].(string)]}
}

func newTestServer(t *testing.T) (*api.Server, *fakeMailer) {
	t.Helper()
	codec := auth.NewCodec("test-secret")
	hasher := auth.NewBcryptHasher()
	verify := verification.NewStore()
	idx, err := revocation.New(&fakeRevocationDB{jtis: map[string]bool{}})
	require.NoError(t, err)
	mailer := newFakeMailer()

	svc := service.New(codec, hasher, verify, idx,
		ratelimit.NewMailSendLimiter(), ratelimit.NewAuthLimiter(),
		newFakeUsers(), mailer, nil)

	cfg := &config.Config{
		Environment:            config.Development,
		AllowedOrigins:         []string{"http://localhost:3000"},
		ClientIPHeaderPriority: ratelimit.DefaultClientIPHeaderPriority,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return api.NewServer(nil, svc, cfg, logger), mailer
}

func registerUser(t *testing.T, srv *api.Server, mailer *fakeMailer, email, password string) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register/start", jsonBody(`{"email":"`+email+`"}`))
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	code := mailer.verifications[email]
	require.NotEmpty(t, code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/register/verify", jsonBody(`{"email":"`+email+`","code":"`+code+`"}`))
	rec = httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	regCookie := findCookie(t, rec, "registration_token")

	body := `{"user_id":"u1","email":"` + email + `","password":"` + password + `"}`
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/register/complete", jsonBody(body))
	req.AddCookie(regCookie)
	rec = httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	return findCookie(t, rec, "access_token")
}

func TestRegistrationThenMe(t *testing.T) {
	srv, mailer := newTestServer(t)

	access := registerUser(t, srv, mailer, "a@b.co", "Passw0rd!")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.AddCookie(access)
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.Equal(t, "a@b.co", out.User.Email)
}

func TestMeWithoutCookieIsUnauthorized(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginThenLogoutClearsCookies(t *testing.T) {
	srv, mailer := newTestServer(t)
	registerUser(t, srv, mailer, "a@b.co", "Passw0rd!")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", jsonBody(`{"email":"a@b.co","password":"Passw0rd!"}`))
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rec = httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	cleared := findCookie(t, rec, "access_token")
	require.Negative(t, cleared.MaxAge)
}

func jsonBody(s string) *strings.Reader {
	return strings.NewReader(s)
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}
