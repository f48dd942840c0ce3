package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parish-site/internal/auth"
)

func TestNewsPublish(t *testing.T) {
	tokens := auth.NewTokenService("cli-test-secret", time.Hour, nil)

	var published map[string]string
	var loggedOut bool
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		token, _ := tokens.Issue("admin-1", "admin@paroquia.com")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"token":   token,
			"admin":   map[string]string{"id": "admin-1", "email": "admin@paroquia.com"},
		})
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		loggedOut = true
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	mux.Handle("POST /api/noticias", auth.Middleware(tokens, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&published)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"n-1","status":"draft"}`))
	})))
	server := httptest.NewServer(mux)
	defer server.Close()

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{
		"news", "publish",
		"--api", server.URL,
		"--email", "admin@paroquia.com",
		"--password", "senha12345",
		"--title", "Quermesse",
		"--draft",
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "news n-1 saved as draft\n", out.String())
	assert.Equal(t, "Quermesse", published["title"])
	assert.Equal(t, "draft", published["status"])
	assert.True(t, loggedOut)
}
