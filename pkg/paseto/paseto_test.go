package pasetotoken

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/simorq_sessions/pkg/reqctx"
)

func newManager(t *testing.T, keys Keys) *Manager {
	t.Helper()
	m, err := New(Config{Mode: keys.Mode, Issuer: "simorq", Audience: "sessions", AccessTTL: time.Hour}, keys)
	require.NoError(t, err)
	return m
}

func TestIssueVerify(t *testing.T) {
	for _, keys := range []Keys{NewLocalKeys(), NewPublicKeys()} {
		t.Run(string(keys.Mode), func(t *testing.T) {
			m := newManager(t, keys)
			id := uuid.New()

			tok, exp, err := m.Issue(id, "therapist")
			require.NoError(t, err)
			assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

			claims, err := m.Verify(tok)
			require.NoError(t, err)
			assert.Equal(t, id, claims.GetUserID())
			assert.Equal(t, "therapist", claims.GetRole())
			assert.NotEmpty(t, claims.TokenID)
		})
	}
}

func TestVerify_Rejects(t *testing.T) {
	keys := NewLocalKeys()
	m := newManager(t, keys)
	tok, _, err := m.Issue(uuid.New(), "client")
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.Verify(tok)
	var invalid ErrInvalidToken
	assert.True(t, errors.As(err, &invalid), "expired")

	other := newManager(t, NewLocalKeys())
	_, err = other.Verify(tok)
	assert.Error(t, err, "wrong key")

	wrongAud, err := New(Config{Mode: ModeLocal, Issuer: "simorq", Audience: "billing"}, keys)
	require.NoError(t, err)
	_, err = wrongAud.Verify(tok)
	assert.Error(t, err, "wrong audience")
}

func TestNew_Config(t *testing.T) {
	_, err := New(Config{Mode: ModePublic, Issuer: "i", Audience: "a"}, NewLocalKeys())
	assert.Error(t, err)
	_, err = New(Config{Mode: ModeLocal, Audience: "a"}, NewLocalKeys())
	assert.Error(t, err)

	_, err = LoadKeys(KeyStrings{Mode: ModeLocal})
	assert.Error(t, err)
	_, err = LoadKeys(KeyStrings{Mode: "jwt"})
	assert.Error(t, err)
}

func TestFiberAuth(t *testing.T) {
	m := newManager(t, NewLocalKeys())
	id := uuid.New()
	good, _, err := m.Issue(id, "client")
	require.NoError(t, err)
	roleless, _, err := m.Issue(id, "")
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/me", FiberAuth(m), func(c fiber.Ctx) error {
		claims, ok := ClaimsFromFiber(c)
		require.True(t, ok)
		actor := reqctx.ActorFromContext(c.Context())
		require.NotNil(t, actor)
		assert.Equal(t, claims.UserID, actor.GetUserID())
		return c.SendString(actor.GetRole())
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "valid", header: "Bearer " + good, status: fiber.StatusOK},
		{name: "lowercase scheme", header: "bearer " + good, status: fiber.StatusOK},
		{name: "missing", header: "", status: fiber.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + good, status: fiber.StatusUnauthorized},
		{name: "garbage", header: "Bearer v4.local.nope", status: fiber.StatusUnauthorized},
		{name: "no role", header: "Bearer " + roleless, status: fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
