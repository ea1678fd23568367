package fingerprint_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/captiveportal/pkg/fingerprint"
)

func testEnvironment() fingerprint.Environment {
	return fingerprint.Environment{
		UserAgent:        "Mozilla/5.0 (Linux; Android 13; SM-A136B)",
		Language:         "fr-FR",
		ScreenResolution: "720x1600",
		TimezoneOffset:   -180,
		CanvasSignature:  "data:image/png;base64,iVBORw0KGgo",
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("same environment yields same fingerprint", func(t *testing.T) {
		t.Parallel()
		env := testEnvironment()

		fp1 := fingerprint.Generate(env)
		fp2 := fingerprint.Generate(env)

		assert.Equal(t, fp1, fp2)
		assert.Regexp(t, "^[a-f0-9]{8}$", fp1)
	})

	t.Run("each component contributes", func(t *testing.T) {
		t.Parallel()
		base := fingerprint.Generate(testEnvironment())

		mutations := map[string]func(*fingerprint.Environment){
			"user agent": func(e *fingerprint.Environment) { e.UserAgent = "curl/8.4.0" },
			"language":   func(e *fingerprint.Environment) { e.Language = "en-US" },
			"screen":     func(e *fingerprint.Environment) { e.ScreenResolution = "1080x2400" },
			"timezone":   func(e *fingerprint.Environment) { e.TimezoneOffset = 0 },
			"canvas":     func(e *fingerprint.Environment) { e.CanvasSignature = "other" },
		}
		for name, mutate := range mutations {
			env := testEnvironment()
			mutate(&env)
			assert.NotEqual(t, base, fingerprint.Generate(env), name)
		}
	})

	t.Run("equivalent unicode forms hash identically", func(t *testing.T) {
		t.Parallel()
		composed := testEnvironment()
		composed.Language = "fr-\u00e9"
		decomposed := testEnvironment()
		decomposed.Language = "fr-e\u0301"

		assert.Equal(t, fingerprint.Generate(composed), fingerprint.Generate(decomposed))
	})

	t.Run("zero environment is still deterministic", func(t *testing.T) {
		t.Parallel()
		var env fingerprint.Environment
		assert.True(t, env.IsZero())
		assert.Equal(t, fingerprint.Generate(env), fingerprint.Generate(fingerprint.Environment{}))
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()
	env := testEnvironment()
	fp := fingerprint.Generate(env)

	assert.True(t, fingerprint.Validate(env, fp))
	assert.False(t, fingerprint.Validate(env, ""))
	assert.False(t, fingerprint.Validate(env, "deadbeef"))
}

func TestFromRequest(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64)")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en;q=0.8")
	req.Header.Set(fingerprint.HeaderScreenResolution, "1366x768")
	req.Header.Set(fingerprint.HeaderTimezoneOffset, "-180")
	req.Header.Set(fingerprint.HeaderCanvasSignature, "abc")

	env := fingerprint.FromRequest(req)
	assert.Equal(t, "Mozilla/5.0 (X11; Linux x86_64)", env.UserAgent)
	assert.Equal(t, "fr-FR", env.Language)
	assert.Equal(t, "1366x768", env.ScreenResolution)
	assert.Equal(t, -180, env.TimezoneOffset)
	assert.Equal(t, "abc", env.CanvasSignature)

	t.Run("invalid offset falls back to zero", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(fingerprint.HeaderTimezoneOffset, "utc")
		assert.Equal(t, 0, fingerprint.FromRequest(r).TimezoneOffset)
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var got string
	handler := fingerprint.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = fingerprint.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "test-agent")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, fingerprint.Generate(fingerprint.FromRequest(req)), got)
}

func TestContext(t *testing.T) {
	t.Parallel()
	ctx := fingerprint.WithContext(context.Background(), "0a1b2c3d")
	assert.Equal(t, "0a1b2c3d", fingerprint.FromContext(ctx))
	assert.Empty(t, fingerprint.FromContext(context.Background()))
}

func TestDevice(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := fingerprint.NewDevice("0a1b2c3d", now)
	assert.False(t, d.Trusted)
	assert.Equal(t, now, d.LastSeen)

	d.Touch(now.Add(-time.Minute))
	assert.Equal(t, now, d.LastSeen)

	d.Touch(now.Add(time.Hour))
	assert.Equal(t, now.Add(time.Hour), d.LastSeen)
}
