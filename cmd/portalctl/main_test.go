package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/captiveportal/pkg/fingerprint"
	"github.com/dmitrymomot/captiveportal/pkg/portalapi"
	"github.com/dmitrymomot/captiveportal/pkg/portalerr"
	"github.com/dmitrymomot/captiveportal/pkg/portaltest"
	"github.com/dmitrymomot/captiveportal/pkg/session"
	"github.com/dmitrymomot/captiveportal/pkg/subscription"
)

func setupEnv(t *testing.T) *portaltest.Server {
	t.Helper()
	srv := portaltest.NewServer(portaltest.WithPlans(subscription.Plan{
		ID: 7, Name: "Semaine", Duration: 1, DurationUnit: subscription.UnitWeeks, Price: "1000.00", IsActive: true,
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv("PORTAL_API_URL", srv.URL())
	t.Setenv("SESSION_STORE", "file")
	t.Setenv("SESSION_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("PAYMENT_UNIT", "10ms")
	return srv
}

func exec(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := run(ctx, args, &out)
	return out.String(), err
}

func TestRunUsage(t *testing.T) {
	setupEnv(t)

	out, err := exec(t)
	assert.Error(t, err)
	assert.Contains(t, out, "usage: portalctl")

	_, err = exec(t, "nope")
	assert.ErrorContains(t, err, `unknown command "nope"`)
}

func TestFingerprintCommand(t *testing.T) {
	setupEnv(t)

	out, err := exec(t, "fingerprint", "-ua", "Mozilla/5.0", "-lang", "fr", "-screen", "1366x768", "-tz", "-180")
	require.NoError(t, err)
	want := fingerprint.Generate(fingerprint.Environment{
		UserAgent: "Mozilla/5.0", Language: "fr", ScreenResolution: "1366x768", TimezoneOffset: -180,
	})
	assert.Equal(t, want+"\n", out)
}

func TestSessionCommands(t *testing.T) {
	srv := setupEnv(t)
	srv.AddUser(portaltest.User{
		Username: "alice", Password: "p1", PlanName: "Semaine",
		EndDate: time.Now().Add(72 * time.Hour), SessionID: "s1",
	})

	_, err := exec(t, "status")
	assert.ErrorIs(t, err, session.ErrNoSession)

	_, err = exec(t, "login", "-u", "alice", "-p", "wrong")
	assert.ErrorIs(t, err, portalerr.Auth)
	assert.Equal(t, 2, exitCode(err))

	out, err := exec(t, "login", "-u", "alice", "-p", "p1")
	require.NoError(t, err)
	assert.Contains(t, out, "logged in as alice (session s1)")
	assert.Contains(t, out, "plan Semaine")

	out, err = exec(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "session s1 active")

	out, err = exec(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "logged out")
	assert.False(t, srv.SessionActive("s1"))

	_, err = exec(t, "logout")
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestPlansCommand(t *testing.T) {
	setupEnv(t)

	out, err := exec(t, "plans")
	require.NoError(t, err)
	assert.Contains(t, out, "7\t")
	assert.Contains(t, out, "Semaine")

	out, err = exec(t, "plans", "-id", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Semaine")
}

func TestBuyCommand(t *testing.T) {
	srv := setupEnv(t)
	srv.QueuePayment(portaltest.PaymentScript{
		TransactionID: "tx1",
		USSDCode:      "#111*1*7#",
		Statuses:      []portalapi.PaymentStatus{portalapi.PaymentPending, portalapi.PaymentConfirmed},
		Credentials:   portalapi.WiFiCredentials{Username: "u1", Password: "p1"},
	})
	srv.AddUser(portaltest.User{Username: "u1", Password: "p1", EndDate: time.Now().Add(24 * time.Hour), SessionID: "s-u1"})
	qr := filepath.Join(t.TempDir(), "ticket.png")

	out, err := exec(t, "buy", "-plan", "7", "-phone", "0340000000", "-qr", qr)
	require.NoError(t, err)
	assert.Contains(t, out, "dial #111*1*7#")
	assert.Contains(t, out, "username: u1")
	assert.Contains(t, out, "password: p1")
	assert.Contains(t, out, "logged in as u1 (session s-u1)")
	assert.True(t, srv.SessionActive("s-u1"))

	png, err := os.ReadFile(qr)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}

func TestBuyCommandFailed(t *testing.T) {
	srv := setupEnv(t)
	srv.QueuePayment(portaltest.PaymentScript{
		TransactionID: "tx1",
		Statuses:      []portalapi.PaymentStatus{portalapi.PaymentFailed},
	})

	_, err := exec(t, "buy", "-plan", "7", "-phone", "0340000000")
	assert.ErrorContains(t, err, "payment tx1: failed")
}

func TestVerifyCommand(t *testing.T) {
	srv := setupEnv(t)
	srv.AddReference(portaltest.Reference{Code: "GOOD", PlanID: 7, Credentials: portalapi.WiFiCredentials{Username: "u7", Password: "p7"}})

	out, err := exec(t, "verify", "-ref", "GOOD", "-plan", "7", "-login=false")
	require.NoError(t, err)
	assert.Contains(t, out, "username: u7")
	assert.NotContains(t, out, "logged in")

	_, err = exec(t, "verify", "-ref", "GOOD", "-plan", "7")
	assert.ErrorIs(t, err, portalerr.Auth, "u7 is unknown to the portal")

	_, err = exec(t, "verify", "-ref", "BADREF", "-plan", "7")
	assert.ErrorIs(t, err, portalerr.InvalidReference)
	assert.Equal(t, 4, exitCode(err))
}
