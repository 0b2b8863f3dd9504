// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJWT builds an unsigned JWT whose payload carries the given issuer.
func fakeJWT(t *testing.T, iss string) string {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"iss": iss})
	require.NoError(t, err)
	return "hdr." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

// writeAuthFile builds a supabase.json-style auth file with the encoded
// workos_tokens field plus an unrelated sibling field.
func writeAuthFile(t *testing.T, tokens map[string]any) string {
	t.Helper()
	encoded, err := json.Marshal(tokens)
	require.NoError(t, err)
	file, err := json.Marshal(map[string]any{
		"workos_tokens": string(encoded),
		"cognito_stub":  "untouched",
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "supabase.json")
	require.NoError(t, os.WriteFile(path, file, 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeAuthFile(t, map[string]any{
		"access_token":  "at-1",
		"refresh_token": "rt-1",
		"expires_in":    3600,
		"obtained_at":   1700000000000,
		"user_id":       "user_01",
	})

	tokens, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "at-1", tokens.AccessToken)
	assert.Equal(t, "rt-1", tokens.RefreshToken)
	assert.Equal(t, int64(3600), tokens.ExpiresIn)
	assert.Equal(t, int64(1700000000000), tokens.ObtainedAt)
}

func TestLoadRejectsEmptyTokens(t *testing.T) {
	path := writeAuthFile(t, map[string]any{"access_token": ""})
	_, err := Load(path)
	assert.Error(t, err)
}

func TestClientID(t *testing.T) {
	tokens := &Tokens{AccessToken: fakeJWT(t, "https://api.workos.com/user_management/client_01HX/")}
	id, err := tokens.clientID()
	require.NoError(t, err)
	assert.Equal(t, "client_01HX", id)

	tokens = &Tokens{AccessToken: "not-a-jwt"}
	_, err = tokens.clientID()
	assert.Error(t, err)
}

func TestExpiringSoon(t *testing.T) {
	now := time.Now()
	fresh := &Tokens{
		ObtainedAt: now.UnixMilli(),
		ExpiresIn:  3600,
	}
	assert.False(t, fresh.expiringSoon(now))

	// Less than five minutes of life left.
	nearExpiry := &Tokens{
		ObtainedAt: now.Add(-56 * time.Minute).UnixMilli(),
		ExpiresIn:  3600,
	}
	assert.True(t, nearExpiry.expiringSoon(now))

	expired := &Tokens{
		ObtainedAt: now.Add(-2 * time.Hour).UnixMilli(),
		ExpiresIn:  3600,
	}
	assert.True(t, expired.expiringSoon(now))
}

func TestRefreshRotatesAndPersists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ClientID     string `json:"client_id"`
			GrantType    string `json:"grant_type"`
			RefreshToken string `json:"refresh_token"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "client_01HX", body.ClientID)
		assert.Equal(t, "refresh_token", body.GrantType)
		assert.Equal(t, "rt-old", body.RefreshToken)

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-new",
			"refresh_token": "rt-new",
			"expires_in":    7200,
		})
	}))
	defer srv.Close()

	oldURL := RefreshURL
	RefreshURL = srv.URL
	t.Cleanup(func() { RefreshURL = oldURL })

	path := writeAuthFile(t, map[string]any{
		"access_token":  fakeJWT(t, "https://api.workos.com/user_management/client_01HX"),
		"refresh_token": "rt-old",
		"expires_in":    3600,
		"obtained_at":   1,
		"user_id":       "user_01",
	})
	tokens, err := Load(path)
	require.NoError(t, err)

	refreshed, err := Refresh(context.Background(), srv.Client(), tokens, path)
	require.NoError(t, err)
	assert.Equal(t, "at-new", refreshed.AccessToken)
	assert.Equal(t, "rt-new", refreshed.RefreshToken)
	assert.Equal(t, int64(7200), refreshed.ExpiresIn)
	assert.Greater(t, refreshed.ObtainedAt, int64(1))

	// The rotated tokens round-trip through the auth file, with unknown
	// token fields and sibling file fields preserved.
	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "rt-new", reloaded.RefreshToken)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var file map[string]any
	require.NoError(t, json.Unmarshal(raw, &file))
	assert.Equal(t, "untouched", file["cognito_stub"])

	var inner map[string]any
	require.NoError(t, json.Unmarshal([]byte(file["workos_tokens"].(string)), &inner))
	assert.Equal(t, "user_01", inner["user_id"])
}

func TestEnsureValidSkipsFreshToken(t *testing.T) {
	tokens := &Tokens{
		AccessToken:  "at",
		RefreshToken: "rt",
		ObtainedAt:   time.Now().UnixMilli(),
		ExpiresIn:    3600,
	}
	got, err := EnsureValid(context.Background(), http.DefaultClient, tokens, "unused", os.Stderr)
	require.NoError(t, err)
	assert.Same(t, tokens, got)
}
