package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/gatekeeper/internal/auth"
	"github.com/geocoder89/gatekeeper/internal/domain/user"
	"github.com/geocoder89/gatekeeper/internal/http/handlers"
	"github.com/geocoder89/gatekeeper/internal/repo/memory"
	"github.com/geocoder89/gatekeeper/internal/security"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	testTokens  = auth.NewManager(auth.StaticKey("handlers-test-secret"))
	testCookies = auth.NewCookieJar("", 0, false)
)

// fakeUserStore lets a test force store failures.
type fakeUserStore struct {
	findFn   func(ctx context.Context, email string) (user.User, error)
	createFn func(ctx context.Context, name, email, hash string, role user.Role) (user.User, error)
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (user.User, error) {
	if f.findFn != nil {
		return f.findFn(ctx, email)
	}
	return user.User{}, user.ErrUserNotFound
}

func (f *fakeUserStore) Create(ctx context.Context, name, email, hash string, role user.Role) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, name, email, hash, role)
	}
	return user.User{}, nil
}

func authRouter(store handlers.UserStore) *gin.Engine {
	h := handlers.NewAuthHandler(store, security.SHA256Hasher{}, testTokens, testCookies, nil, nil)

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.POST("/auth/signup", h.SignUp)
	r.POST("/auth/logout", h.Logout)
	r.GET("/auth/me", h.Me)
	return r
}

func doJSON(r http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}

	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sessionCookieFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == auth.DefaultCookieName {
			return c
		}
	}

	t.Fatalf("no %s cookie in response, headers=%v", auth.DefaultCookieName, w.Header())
	return nil
}

type authResult struct {
	Message string          `json:"message"`
	User    json.RawMessage `json:"user"`
}

func decodeAuthResult(t *testing.T, w *httptest.ResponseRecorder) (authResult, user.Public) {
	t.Helper()

	var res authResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode body: %v body=%s", err, w.Body.String())
	}

	var pub user.Public
	if err := json.Unmarshal(res.User, &pub); err != nil {
		t.Fatalf("decode user: %v", err)
	}

	return res, pub
}

func TestLogin_DemoAdminGetsSessionCookie(t *testing.T) {
	r := authRouter(memory.NewUsersRepo(security.SHA256Hasher{}))

	w := doJSON(r, http.MethodPost, "/auth/login", `{"email":"admin@example.com","password":"password123"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	res, pub := decodeAuthResult(t, w)
	if res.Message != "Login successful" {
		t.Fatalf("unexpected message %q", res.Message)
	}
	if pub.ID != 1 || pub.Role != user.RoleAdmin || pub.Email != "admin@example.com" {
		t.Fatalf("unexpected user %+v", pub)
	}
	if strings.Contains(string(res.User), "password") {
		t.Fatalf("password material leaked: %s", res.User)
	}

	c := sessionCookieFrom(t, w)
	if !c.HttpOnly || c.Path != "/" || c.MaxAge != 86400 || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected cookie attributes: %+v", c)
	}

	s, err := testTokens.Verify(c.Value)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if s.UserID != 1 || s.Role != user.RoleAdmin {
		t.Fatalf("unexpected session %+v", s)
	}
}

func TestLogin_UnknownEmailAndWrongPasswordAreIndistinguishable(t *testing.T) {
	r := authRouter(memory.NewUsersRepo(security.SHA256Hasher{}))

	wrongPassword := doJSON(r, http.MethodPost, "/auth/login", `{"email":"admin@example.com","password":"nope"}`)
	unknownEmail := doJSON(r, http.MethodPost, "/auth/login", `{"email":"ghost@example.com","password":"nope"}`)

	if wrongPassword.Code != http.StatusUnauthorized || unknownEmail.Code != http.StatusUnauthorized {
		t.Fatalf("got %d and %d, want 401 for both", wrongPassword.Code, unknownEmail.Code)
	}
	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Fatalf("bodies differ:\n%s\n%s", wrongPassword.Body.String(), unknownEmail.Body.String())
	}
	if !strings.Contains(wrongPassword.Body.String(), "Invalid email or password") {
		t.Fatalf("unexpected body %s", wrongPassword.Body.String())
	}
	if len(wrongPassword.Result().Cookies()) != 0 || len(unknownEmail.Result().Cookies()) != 0 {
		t.Fatalf("failed logins must not set cookies")
	}
}

func TestLogin_MissingFieldsIsBadRequest(t *testing.T) {
	r := authRouter(memory.NewUsersRepo(security.SHA256Hasher{}))

	w := doJSON(r, http.MethodPost, "/auth/login", `{"email":"admin@example.com"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
}

func TestLogin_StoreFailureIsInternal(t *testing.T) {
	r := authRouter(&fakeUserStore{
		findFn: func(context.Context, string) (user.User, error) {
			return user.User{}, errors.New("connection refused")
		},
	})

	w := doJSON(r, http.MethodPost, "/auth/login", `{"email":"admin@example.com","password":"password123"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Fatalf("internal error leaked: %s", w.Body.String())
	}
}

func TestSignUp_AlwaysCreatesUserRole(t *testing.T) {
	r := authRouter(memory.NewUsersRepo(security.SHA256Hasher{}))

	w := doJSON(r, http.MethodPost, "/auth/signup", `{"name":"Al","email":"al@x.io","password":"secret1","role":"admin"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	res, pub := decodeAuthResult(t, w)
	if res.Message != "Account created successfully" {
		t.Fatalf("unexpected message %q", res.Message)
	}
	if pub.Role != user.RoleUser || pub.ID != 3 || pub.Name != "Al" {
		t.Fatalf("unexpected user %+v", pub)
	}

	s, err := testTokens.Verify(sessionCookieFrom(t, w).Value)
	if err != nil || s.Role != user.RoleUser || s.UserID != pub.ID {
		t.Fatalf("unexpected session %+v err=%v", s, err)
	}
}

func TestSignUp_DuplicateEmailConflicts(t *testing.T) {
	r := authRouter(memory.NewUsersRepo(security.SHA256Hasher{}))

	w := doJSON(r, http.MethodPost, "/auth/signup", `{"name":"Imposter","email":"ADMIN@example.com","password":"secret1"}`)

	if w.Code != http.StatusConflict {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "email_taken") {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
	if len(w.Result().Cookies()) != 0 {
		t.Fatalf("conflict must not set a cookie")
	}
}

func TestSignUp_LostRaceConflicts(t *testing.T) {
	var gotRole user.Role

	r := authRouter(&fakeUserStore{
		createFn: func(_ context.Context, _, _, _ string, role user.Role) (user.User, error) {
			gotRole = role
			return user.User{}, user.ErrEmailAlreadyUsed
		},
	})

	w := doJSON(r, http.MethodPost, "/auth/signup", `{"name":"Al","email":"al@x.io","password":"secret1"}`)

	if w.Code != http.StatusConflict {
		t.Fatalf("got status %d", w.Code)
	}
	if gotRole != user.RoleUser {
		t.Fatalf("store asked for role %q", gotRole)
	}
}

func TestSignUp_ThenLoginReturnsSameUser(t *testing.T) {
	r := authRouter(memory.NewUsersRepo(security.SHA256Hasher{}))

	signup := doJSON(r, http.MethodPost, "/auth/signup", `{"name":"Cy","email":"cy@x.io","password":"secret1"}`)
	if signup.Code != http.StatusCreated {
		t.Fatalf("signup status %d", signup.Code)
	}
	_, created := decodeAuthResult(t, signup)

	login := doJSON(r, http.MethodPost, "/auth/login", `{"email":"cy@x.io","password":"secret1"}`)
	if login.Code != http.StatusOK {
		t.Fatalf("login status %d, body=%s", login.Code, login.Body.String())
	}
	_, loggedIn := decodeAuthResult(t, login)

	if created.ID != loggedIn.ID {
		t.Fatalf("signup id %d, login id %d", created.ID, loggedIn.ID)
	}
}

func TestLogout_AlwaysClearsCookie(t *testing.T) {
	r := authRouter(memory.NewUsersRepo(security.SHA256Hasher{}))

	w := doJSON(r, http.MethodPost, "/auth/logout", "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d", w.Code)
	}

	setCookie := w.Header().Get("Set-Cookie")
	if !strings.Contains(setCookie, "auth-token=;") || !strings.Contains(setCookie, "Max-Age=0") {
		t.Fatalf("unexpected Set-Cookie %q", setCookie)
	}
	if !strings.Contains(w.Body.String(), "Logged out successfully") {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestMe(t *testing.T) {
	r := authRouter(memory.NewUsersRepo(security.SHA256Hasher{}))

	token, err := testTokens.Sign(auth.Session{UserID: 2, Email: "user@example.com", Name: "Regular User", Role: user.RoleUser})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := []struct {
		name       string
		cookie     *http.Cookie
		wantStatus int
		wantBody   string
	}{
		{name: "no cookie", wantStatus: http.StatusUnauthorized, wantBody: "Not authenticated"},
		{name: "garbage", cookie: testCookies.Issue("garbage"), wantStatus: http.StatusUnauthorized, wantBody: "Token is invalid or expired"},
		{name: "valid", cookie: testCookies.Issue(token), wantStatus: http.StatusOK, wantBody: `"email":"user@example.com"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cookies []*http.Cookie
			if tt.cookie != nil {
				cookies = append(cookies, tt.cookie)
			}

			w := doJSON(r, http.MethodGet, "/auth/me", "", cookies...)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Fatalf("body %s does not contain %s", w.Body.String(), tt.wantBody)
			}
		})
	}
}
