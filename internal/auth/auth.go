// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package auth manages the WorkOS tokens Granola stores locally.
//
// WorkOS rotates refresh tokens: a refresh invalidates the old refresh
// token and issues a new one. Rotated tokens are therefore written back to
// the auth file immediately, so the Granola app and later runs stay in sync.
package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pdiddy/granolocal/internal/httputil"
)

// RefreshURL is the WorkOS authentication endpoint. Declared as a var so
// tests can substitute an httptest server.
var RefreshURL = "https://api.workos.com/user_management/authenticate"

// refreshSkew is how close to expiry a token may get before EnsureValid
// refreshes it.
const refreshSkew = 5 * time.Minute

// defaultExpiresIn is assumed when the refresh response omits expires_in.
const defaultExpiresIn = 21599

// Tokens is the WorkOS token set from the Granola auth file. Fields the
// exporter does not understand are preserved verbatim on rewrite.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int64
	// ObtainedAt is the issue time in Unix milliseconds.
	ObtainedAt int64

	extra map[string]json.RawMessage
}

// Load reads the WorkOS tokens from the Granola auth file, whose
// "workos_tokens" field is a JSON-encoded string.
func Load(path string) (*Tokens, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading auth file: %w", err)
	}

	var file struct {
		WorkOSTokens string `json:"workos_tokens"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding auth file: %w", err)
	}

	return parseTokens([]byte(file.WorkOSTokens))
}

func parseTokens(data []byte) (*Tokens, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decoding workos_tokens: %w", err)
	}

	t := &Tokens{extra: fields}
	json.Unmarshal(fields["access_token"], &t.AccessToken)
	json.Unmarshal(fields["refresh_token"], &t.RefreshToken)
	json.Unmarshal(fields["expires_in"], &t.ExpiresIn)
	json.Unmarshal(fields["obtained_at"], &t.ObtainedAt)
	if t.AccessToken == "" || t.RefreshToken == "" {
		return nil, fmt.Errorf("auth file has no usable WorkOS tokens")
	}
	return t, nil
}

// encode rebuilds the workos_tokens object, carrying unknown fields along.
func (t *Tokens) encode() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(t.extra)+4)
	for k, v := range t.extra {
		fields[k] = v
	}
	for key, val := range map[string]any{
		"access_token":  t.AccessToken,
		"refresh_token": t.RefreshToken,
		"expires_in":    t.ExpiresIn,
		"obtained_at":   t.ObtainedAt,
	} {
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		fields[key] = raw
	}
	return json.Marshal(fields)
}

// Save writes the tokens back into the auth file, replacing only the
// workos_tokens field and leaving the rest of the file intact.
func (t *Tokens) Save(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading auth file: %w", err)
	}
	var file map[string]json.RawMessage
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decoding auth file: %w", err)
	}

	encoded, err := t.encode()
	if err != nil {
		return fmt.Errorf("encoding tokens: %w", err)
	}
	asString, err := json.Marshal(string(encoded))
	if err != nil {
		return err
	}
	file["workos_tokens"] = asString

	out, err := json.Marshal(file)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// clientID extracts the WorkOS client id from the access token's JWT
// issuer claim (https://api.workos.com/user_management/<client_id>).
func (t *Tokens) clientID() (string, error) {
	parts := strings.Split(t.AccessToken, ".")
	if len(parts) < 2 {
		return "", fmt.Errorf("access token is not a JWT")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decoding JWT payload: %w", err)
	}
	var claims struct {
		Iss string `json:"iss"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", fmt.Errorf("parsing JWT claims: %w", err)
	}
	iss := strings.TrimRight(claims.Iss, "/")
	return iss[strings.LastIndex(iss, "/")+1:], nil
}

// expiringSoon reports whether the access token is within refreshSkew of
// its expiry at the given time.
func (t *Tokens) expiringSoon(now time.Time) bool {
	expiresAt := time.UnixMilli(t.ObtainedAt).Add(time.Duration(t.ExpiresIn) * time.Second)
	return now.After(expiresAt.Add(-refreshSkew))
}

// Refresh exchanges the refresh token for a new token pair and persists
// the rotated tokens to authPath before returning them.
func Refresh(ctx context.Context, client *http.Client, t *Tokens, authPath string) (*Tokens, error) {
	id, err := t.clientID()
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]string{
		"client_id":     id,
		"grant_type":    "refresh_token",
		"refresh_token": t.RefreshToken,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, RefreshURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token refresh returned HTTP %d", resp.StatusCode)
	}

	raw, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("reading refresh response: %w", err)
	}

	var result struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("parsing refresh response: %w", err)
	}

	refreshed := &Tokens{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresIn:    result.ExpiresIn,
		ObtainedAt:   time.Now().UnixMilli(),
		extra:        t.extra,
	}
	if refreshed.ExpiresIn == 0 {
		refreshed.ExpiresIn = defaultExpiresIn
	}

	if err := refreshed.Save(authPath); err != nil {
		return nil, fmt.Errorf("persisting rotated tokens: %w", err)
	}
	return refreshed, nil
}

// EnsureValid returns tokens whose access token is not about to expire,
// refreshing and persisting them when needed. Progress is reported to w.
func EnsureValid(ctx context.Context, client *http.Client, t *Tokens, authPath string, w io.Writer) (*Tokens, error) {
	if !t.expiringSoon(time.Now()) {
		return t, nil
	}
	fmt.Fprintln(w, "Access token expired, refreshing...")
	refreshed, err := Refresh(ctx, client, t, authPath)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(w, "Token refreshed.")
	return refreshed, nil
}
