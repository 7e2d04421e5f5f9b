package web

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/authgate/authgate/config"
	"github.com/authgate/authgate/database"
	"github.com/authgate/authgate/database/model"
	"github.com/authgate/authgate/web/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *httptest.Server {
	t.Helper()
	t.Setenv("SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("AUTHGATE_DEBUG", "")
	t.Setenv("AUTHGATE_DOMAIN", "")

	cfg := &config.DatabaseConfig{
		Type:   config.DatabaseTypeSQLite,
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	}
	require.NoError(t, database.InitDB(cfg))
	require.NoError(t, database.EnsureSchema())
	t.Cleanup(func() { _ = database.CloseDB() })

	require.NoError(t, cache.InitRedis("", ""))
	t.Cleanup(func() { _ = cache.Close() })

	engine, err := NewServer().initRouter()
	require.NoError(t, err)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, srv *httptest.Server) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:    t,
		base: srv.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) get(path string) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	require.NoError(b.t, err)
	return resp, readBody(b.t, resp)
}

func (b *browser) post(path string, form url.Values) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.client.PostForm(b.base+path, form)
	require.NoError(b.t, err)
	return resp, readBody(b.t, resp)
}

func (b *browser) signup(email, password, confirm string) *http.Response {
	b.t.Helper()
	resp, _ := b.post("/signup", url.Values{
		"username":        {"a"},
		"email":           {email},
		"phone":           {"123"},
		"password":        {password},
		"confirmPassword": {confirm},
	})
	return resp
}

func (b *browser) login(email, password string) *http.Response {
	b.t.Helper()
	resp, _ := b.post("/login", url.Values{"username": {email}, "password": {password}})
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func countAccounts(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, database.GetDB().Model(&model.Account{}).Count(&count).Error)
	return count
}

func assertRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	assert.Contains(t, []int{http.StatusFound, http.StatusTemporaryRedirect}, resp.StatusCode)
	assert.Equal(t, location, resp.Header.Get("Location"))
}

func TestSignupCreatesAccountAndLogsIn(t *testing.T) {
	srv := setup(t)
	b := newBrowser(t, srv)

	resp := b.signup("a@x.com", "p1", "p1")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/home", resp.Header.Get("Location"))

	resp, body := b.get("/home")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Welcome, a!")
	assert.Contains(t, body, "a@x.com")
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	assert.Equal(t, int64(1), countAccounts(t))
	var account model.Account
	require.NoError(t, database.GetDB().Where("email = ?", "a@x.com").First(&account).Error)
	assert.NotEqual(t, "p1", account.Password)
	assert.NotEmpty(t, account.Password)
}

func TestSignupPasswordMismatch(t *testing.T) {
	srv := setup(t)
	b := newBrowser(t, srv)

	assertRedirect(t, b.signup("a@x.com", "p1", "p2"), "/signup")
	assert.Equal(t, int64(0), countAccounts(t))

	_, body := b.get("/signup")
	assert.Contains(t, body, "Passwords do not match.")

	_, body = b.get("/signup")
	assert.NotContains(t, body, "Passwords do not match.")

	resp, _ := b.get("/home")
	assertRedirect(t, resp, "/")
}

func TestSignupMissingFields(t *testing.T) {
	srv := setup(t)
	b := newBrowser(t, srv)

	assertRedirect(t, b.signup("", "p1", "p1"), "/signup")
	assert.Equal(t, int64(0), countAccounts(t))

	_, body := b.get("/signup")
	assert.Contains(t, body, "Email and password are required.")
}

func TestSignupMalformedEmail(t *testing.T) {
	srv := setup(t)
	b := newBrowser(t, srv)

	assertRedirect(t, b.signup("not-an-email", "p1", "p1"), "/signup")
	assert.Equal(t, int64(0), countAccounts(t))

	_, body := b.get("/signup")
	assert.Contains(t, body, "Please enter a valid email address.")
}

func TestSignupDuplicateEmail(t *testing.T) {
	srv := setup(t)
	first := newBrowser(t, srv)
	assertRedirect(t, first.signup("a@x.com", "p1", "p1"), "/home")

	second := newBrowser(t, srv)
	assertRedirect(t, second.signup("a@x.com", "p2", "p2"), "/")
	assert.Equal(t, int64(1), countAccounts(t))

	resp, _ := second.get("/home")
	assertRedirect(t, resp, "/")

	_, body := second.get("/")
	assert.Contains(t, body, "An account with this email already exists.")

	// the first password still works
	assertRedirect(t, second.login("a@x.com", "p1"), "/home")
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	srv := setup(t)
	owner := newBrowser(t, srv)
	assertRedirect(t, owner.signup("a@x.com", "p1", "p1"), "/home")

	wrongPassword := newBrowser(t, srv)
	unknownEmail := newBrowser(t, srv)

	r1 := wrongPassword.login("a@x.com", "wrong")
	r2 := unknownEmail.login("nobody@x.com", "p1")
	assert.Equal(t, r1.StatusCode, r2.StatusCode)
	assert.Equal(t, r1.Header.Get("Location"), r2.Header.Get("Location"))
	assertRedirect(t, r1, "/")

	_, body1 := wrongPassword.get("/")
	_, body2 := unknownEmail.get("/")
	assert.Equal(t, body1, body2)
	assert.Contains(t, body1, "Invalid email or password.")

	resp, _ := wrongPassword.get("/home")
	assertRedirect(t, resp, "/")
}

func TestLoginLogout(t *testing.T) {
	srv := setup(t)
	b := newBrowser(t, srv)
	assertRedirect(t, b.signup("a@x.com", "p1", "p1"), "/home")

	resp, _ := b.get("/logout")
	assertRedirect(t, resp, "/")

	resp, _ = b.get("/home")
	assertRedirect(t, resp, "/")

	assertRedirect(t, b.login("a@x.com", "p1"), "/home")
	resp, body := b.get("/home")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Welcome, a!")
}

func TestLoginWithEmailField(t *testing.T) {
	srv := setup(t)
	b := newBrowser(t, srv)
	assertRedirect(t, b.signup("a@x.com", "p1", "p1"), "/home")
	_, _ = b.get("/logout")

	resp, _ := b.post("/login", url.Values{"email": {"a@x.com"}, "password": {"p1"}})
	assertRedirect(t, resp, "/home")
}

func TestLoginEmptyFields(t *testing.T) {
	srv := setup(t)
	b := newBrowser(t, srv)

	assertRedirect(t, b.login("", ""), "/")
	_, body := b.get("/")
	assert.Contains(t, body, "Please enter your email and password.")
}

func TestLoginPageShownWhenLoggedIn(t *testing.T) {
	srv := setup(t)
	b := newBrowser(t, srv)
	assertRedirect(t, b.signup("a@x.com", "p1", "p1"), "/home")

	resp, body := b.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `action="/login"`)
}

func TestHomeRequiresLogin(t *testing.T) {
	srv := setup(t)
	b := newBrowser(t, srv)

	resp, _ := b.get("/home")
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestStoreUnavailable(t *testing.T) {
	srv := setup(t)
	b := newBrowser(t, srv)
	require.NoError(t, database.CloseDB())

	resp, body := b.post("/login", url.Values{"username": {"a@x.com"}, "password": {"p1"}})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, "Service Unavailable")
	assert.NotContains(t, body, "Invalid email or password.")

	resp = b.signup("a@x.com", "p1", "p1")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSessionBackendDown(t *testing.T) {
	srv := setup(t)
	b := newBrowser(t, srv)
	assertRedirect(t, b.signup("a@x.com", "p1", "p1"), "/home")
	require.NoError(t, cache.GetClient().Close())

	resp, body := b.get("/home")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, "Service Unavailable")

	resp, body = b.get("/logout")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, "Service Unavailable")
	assert.Empty(t, resp.Header.Get("Location"))
}

func TestStaticAndNotFound(t *testing.T) {
	srv := setup(t)
	b := newBrowser(t, srv)

	resp, body := b.get("/assets/css/style.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(body, ".card"))

	resp, body = b.get("/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Page Not Found")
	assert.Contains(t, body, `href="/"`)
}

func TestSecretRequiredOutsideDebug(t *testing.T) {
	setup(t)
	t.Setenv("SECRET", "")

	_, err := NewServer().initRouter()
	assert.Error(t, err)
}
