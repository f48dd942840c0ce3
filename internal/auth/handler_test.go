package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"parish-site/internal/auth"
	"parish-site/internal/auth/authfake"
)

type handlerFixture struct {
	mux     *http.ServeMux
	store   *authfake.Store
	tokens  *auth.TokenService
	service *auth.Service
}

func newHandlerFixture(t *testing.T) handlerFixture {
	t.Helper()

	mock := clock.NewMock()
	mock.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	store := authfake.NewStore()
	tokens := auth.NewTokenService("handler-test-secret", time.Hour, mock)
	service := auth.NewService(store, auth.NewPasswordHasher(bcrypt.MinCost), tokens, nil, mock)
	handler := auth.NewHandler(service, nil)

	_, err := service.CreateAdmin(context.Background(), "admin@paroquia.com", "senha12345", "Administrador")
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", handler.Login)
	mux.HandleFunc("POST /api/auth/logout", handler.Logout)
	mux.Handle("GET /api/auth/verify", auth.Middleware(tokens, http.HandlerFunc(handler.Verify)))
	mux.Handle("POST /api/auth/admin/create", auth.Middleware(tokens, http.HandlerFunc(handler.CreateAdmin)))

	return handlerFixture{mux: mux, store: store, tokens: tokens, service: service}
}

func (f handlerFixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func (f handlerFixture) login(t *testing.T) string {
	t.Helper()

	rec := f.do(http.MethodPost, "/api/auth/login", `{"email":"admin@paroquia.com","password":"senha12345"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Token
}

func TestHandler_Login(t *testing.T) {
	f := newHandlerFixture(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{name: "missing password", body: `{"email":"admin@paroquia.com"}`, wantStatus: http.StatusBadRequest, wantBody: `{"message":"email and password are required"}`},
		{name: "blank email", body: `{"email":"   ","password":"senha12345"}`, wantStatus: http.StatusBadRequest, wantBody: `{"message":"email and password are required"}`},
		{name: "malformed json", body: `{"email":`, wantStatus: http.StatusBadRequest, wantBody: `{"message":"invalid json body"}`},
		{name: "unknown field", body: `{"email":"a@b.c","password":"x","role":"root"}`, wantStatus: http.StatusBadRequest, wantBody: `{"message":"invalid json body"}`},
		{name: "wrong password", body: `{"email":"admin@paroquia.com","password":"errada12345"}`, wantStatus: http.StatusUnauthorized, wantBody: `{"message":"invalid email or password"}`},
		{name: "unknown email", body: `{"email":"nobody@paroquia.com","password":"senha12345"}`, wantStatus: http.StatusUnauthorized, wantBody: `{"message":"invalid email or password"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/auth/login", tt.body, "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}

	t.Run("success", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/auth/login", `{"email":"Admin@Paroquia.com","password":"senha12345"}`, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, true, body["success"])
		assert.NotEmpty(t, body["token"])

		admin := body["admin"].(map[string]any)
		assert.Equal(t, "admin@paroquia.com", admin["email"])
		assert.Equal(t, "Administrador", admin["name"])
		assert.NotContains(t, rec.Body.String(), "password")
		assert.NotContains(t, rec.Body.String(), "$2a$")
	})

	t.Run("store failure is a 500", func(t *testing.T) {
		f.store.Err = errors.New("connection reset")
		defer func() { f.store.Err = nil }()

		rec := f.do(http.MethodPost, "/api/auth/login", `{"email":"admin@paroquia.com","password":"senha12345"}`, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"message":"failed to login"}`, rec.Body.String())
	})
}

func TestHandler_Verify(t *testing.T) {
	f := newHandlerFixture(t)
	token := f.login(t)

	rec := f.do(http.MethodGet, "/api/auth/verify", "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Valid bool          `json:"valid"`
		Admin auth.Identity `json:"admin"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Valid)
	assert.Equal(t, "admin@paroquia.com", body.Admin.AdminEmail)
}

func TestMiddleware_RejectsBadCredentials(t *testing.T) {
	f := newHandlerFixture(t)
	token := f.login(t)
	parts := strings.Split(token, ".")

	tests := []struct {
		name     string
		header   string
		wantBody string
	}{
		{name: "no header", header: "", wantBody: `{"message":"missing authorization token"}`},
		{name: "empty bearer", header: "Bearer ", wantBody: `{"message":"missing authorization token"}`},
		{name: "basic scheme", header: "Basic YWRtaW46c2VuaGE=", wantBody: `{"message":"invalid or expired token"}`},
		{name: "garbage", header: "Bearer abc.def.ghi", wantBody: `{"message":"invalid or expired token"}`},
		{name: "bad signature", header: "Bearer " + parts[0] + "." + parts[1] + ".c2lnbmF0dXJl", wantBody: `{"message":"invalid or expired token"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			f.mux.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestOptionalMiddleware(t *testing.T) {
	f := newHandlerFixture(t)
	token := f.login(t)

	var seen []bool
	handler := auth.OptionalMiddleware(f.tokens, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := auth.IdentityFromContext(r.Context())
		seen = append(seen, ok)
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, header := range []string{"", "Bearer not-a-token", "Bearer " + token} {
		req := httptest.NewRequest(http.MethodGet, "/api/noticias", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}

	assert.Equal(t, []bool{false, false, true}, seen)
}

func TestHandler_CreateAdmin(t *testing.T) {
	f := newHandlerFixture(t)
	token := f.login(t)

	rec := f.do(http.MethodPost, "/api/auth/admin/create", `{"email":"secretaria@paroquia.com","password":"senha12345","name":"Secretaria"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "created", body: `{"email":"secretaria@paroquia.com","password":"senha12345","name":"Secretaria"}`, wantStatus: http.StatusCreated},
		{name: "duplicate", body: `{"email":"SECRETARIA@paroquia.com","password":"senha12345"}`, wantStatus: http.StatusConflict},
		{name: "missing password", body: `{"email":"x@paroquia.com"}`, wantStatus: http.StatusBadRequest},
		{name: "short password", body: `{"email":"x@paroquia.com","password":"1234567"}`, wantStatus: http.StatusBadRequest},
		{name: "invalid email", body: `{"email":"not an email","password":"senha12345"}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/auth/admin/create", tt.body, token)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}

	created, ok := f.store.Get("secretaria@paroquia.com")
	require.True(t, ok)
	assert.Equal(t, "Secretaria", created.Name)
}

func TestHandler_Logout(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(http.MethodPost, "/api/auth/logout", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"logged out"}`, rec.Body.String())
}
