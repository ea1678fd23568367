package portalapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/captiveportal/pkg/portalapi"
	"github.com/dmitrymomot/captiveportal/pkg/portalerr"
	"github.com/dmitrymomot/captiveportal/pkg/portaltest"
	"github.com/dmitrymomot/captiveportal/pkg/requestid"
	"github.com/dmitrymomot/captiveportal/pkg/subscription"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*portaltest.Server, *portalapi.Client, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(epoch)
	srv := portaltest.NewServer(portaltest.WithClock(clock))
	t.Cleanup(srv.Close)
	return srv, portalapi.New(srv.URL(), portalapi.WithTimeout(2*time.Second)), clock
}

func TestLogin(t *testing.T) {
	t.Parallel()
	srv, client, _ := setup(t)
	srv.AddUser(portaltest.User{
		Username:    "alice",
		Password:    "p1",
		PlanName:    "Weekly",
		EndDate:     epoch.Add(72 * time.Hour),
		SessionID:   "s1",
		AccessToken: "t1",
	})
	ctx := context.Background()

	resp, err := client.Login(ctx, portalapi.LoginRequest{Username: "alice", Password: "p1", MACAddress: "fp-A"})
	require.NoError(t, err)
	assert.Equal(t, "t1", resp.AccessToken)
	assert.Equal(t, portalapi.ID("s1"), resp.SessionID)
	assert.NotEmpty(t, resp.RefreshToken)
	require.NotNil(t, resp.User.Subscription)
	assert.Equal(t, "Weekly", resp.User.Subscription.PlanName)
	assert.Equal(t, 3, resp.User.Subscription.RemainingDays)

	t.Run("invalid credentials", func(t *testing.T) {
		_, err := client.Login(ctx, portalapi.LoginRequest{Username: "alice", Password: "bad", MACAddress: "fp-B"})
		require.Error(t, err)
		assert.ErrorIs(t, err, portalerr.Auth)
		assert.Equal(t, http.StatusUnauthorized, portalerr.Status(err))
		assert.Equal(t, "Identifiants invalides", portalerr.Message(err))
	})

	t.Run("device conflict", func(t *testing.T) {
		srv.AddUser(portaltest.User{Username: "bob", Password: "p2", EndDate: epoch.Add(time.Hour)})
		_, err := client.Login(ctx, portalapi.LoginRequest{Username: "bob", Password: "p2", MACAddress: "fp-A"})
		require.Error(t, err)
		assert.ErrorIs(t, err, portalerr.DeviceConflict)
		var pe *portalerr.Error
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, portalapi.CodeDeviceAlreadyUsed, pe.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := client.Login(ctx, portalapi.LoginRequest{Username: "alice"})
		assert.ErrorIs(t, err, portalerr.Validation)
	})
}

func TestCheckStatusAndLogout(t *testing.T) {
	t.Parallel()
	srv, client, clock := setup(t)
	srv.AddUser(portaltest.User{Username: "alice", Password: "p1", EndDate: epoch.Add(90 * time.Minute), SessionID: "s1", AccessToken: "t1"})
	ctx := context.Background()

	_, err := client.Login(ctx, portalapi.LoginRequest{Username: "alice", Password: "p1", MACAddress: "fp-A"})
	require.NoError(t, err)

	st, err := client.CheckStatus(ctx, "s1", "t1")
	require.NoError(t, err)
	assert.True(t, st.IsActive)
	assert.Equal(t, 90*time.Minute, st.Remaining())

	_, err = client.CheckStatus(ctx, "missing", "t1")
	assert.ErrorIs(t, err, portalerr.Auth)
	assert.Equal(t, http.StatusNotFound, portalerr.Status(err))

	clock.Advance(2 * time.Hour)
	st, err = client.CheckStatus(ctx, "s1", "t1")
	require.NoError(t, err)
	assert.False(t, st.IsActive)
	assert.Zero(t, st.Remaining())

	require.NoError(t, client.Logout(ctx, "s1", "t1"))
	assert.False(t, srv.SessionActive("s1"))
	assert.ErrorIs(t, client.Logout(ctx, "missing", "t1"), portalerr.Auth)
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()
	srv, client, _ := setup(t)
	srv.AddUser(portaltest.User{Username: "alice", Password: "p1", EndDate: epoch.Add(time.Hour)})
	ctx := context.Background()

	resp, err := client.Login(ctx, portalapi.LoginRequest{Username: "alice", Password: "p1", MACAddress: "fp-A"})
	require.NoError(t, err)

	access, rotated, err := client.RefreshToken(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEqual(t, resp.AccessToken, access)
	assert.Empty(t, rotated)

	_, err = client.CheckStatus(ctx, resp.SessionID.String(), access)
	require.NoError(t, err)

	_, _, err = client.RefreshToken(ctx, "unknown")
	assert.ErrorIs(t, err, portalerr.Auth)
}

func TestPayments(t *testing.T) {
	t.Parallel()
	srv, client, _ := setup(t)
	srv.AddPlan(subscription.Plan{ID: 1, Name: "Daily", Duration: 1, DurationUnit: subscription.UnitDays, Price: "500.00", IsActive: true})
	srv.QueuePayment(portaltest.PaymentScript{
		TransactionID: "tx1",
		Reference:     "REF1",
		USSDCode:      "#150*1#",
		Statuses:      []portalapi.PaymentStatus{portalapi.PaymentPending, "success"},
		Credentials:   portalapi.WiFiCredentials{Username: "u9", Password: "x", ExpirationDate: subscription.NewDate(epoch.Add(24 * time.Hour))},
	})
	ctx := context.Background()

	tx, err := client.InitiatePayment(ctx, portalapi.InitiatePaymentRequest{PlanID: 1, PhoneNumber: "0700000000"})
	require.NoError(t, err)
	assert.Equal(t, portalapi.ID("tx1"), tx.TransactionID)
	assert.Equal(t, "REF1", tx.Reference)
	assert.Equal(t, "#150*1#", tx.USSDCode)

	st, err := client.PaymentStatus(ctx, "tx1")
	require.NoError(t, err)
	assert.Equal(t, portalapi.PaymentPending, st.Status)

	st, err = client.PaymentStatus(ctx, "tx1")
	require.NoError(t, err)
	assert.Equal(t, portalapi.PaymentConfirmed, st.Status)
	require.NotNil(t, st.WiFiCredentials)
	assert.Equal(t, "u9", st.WiFiCredentials.Username)
	assert.True(t, st.WiFiCredentials.ExpirationDate.Equal(epoch.Add(24*time.Hour)))

	t.Run("unknown plan", func(t *testing.T) {
		_, err := client.InitiatePayment(ctx, portalapi.InitiatePaymentRequest{PlanID: 7, PhoneNumber: "0700000000"})
		assert.ErrorIs(t, err, portalerr.Validation)
	})

	t.Run("missing phone", func(t *testing.T) {
		_, err := client.InitiatePayment(ctx, portalapi.InitiatePaymentRequest{PlanID: 1})
		require.ErrorIs(t, err, portalerr.Validation)
		assert.Contains(t, portalerr.Message(err), "phone_number")
	})

	t.Run("unknown transaction", func(t *testing.T) {
		_, err := client.PaymentStatus(ctx, "nope")
		assert.ErrorIs(t, err, portalerr.Server)
	})

	t.Run("unknown status value", func(t *testing.T) {
		srv.FailNext(portaltest.RoutePaymentStatus, http.StatusOK, map[string]string{"status": "REFUNDED"})
		_, err := client.PaymentStatus(ctx, "tx1")
		assert.ErrorIs(t, err, portalerr.Server)
	})
}

func TestVerifyReference(t *testing.T) {
	t.Parallel()
	srv, client, _ := setup(t)
	srv.AddReference(portaltest.Reference{Code: "REF9", PlanID: 2, Credentials: portalapi.WiFiCredentials{Username: "u2", Password: "pw"}})
	ctx := context.Background()

	creds, err := client.VerifyReference(ctx, portalapi.VerifyReferenceRequest{Reference: "REF9", PlanID: 2})
	require.NoError(t, err)
	assert.Equal(t, "u2", creds.Username)
	assert.Equal(t, "pw", creds.Password)

	_, err = client.VerifyReference(ctx, portalapi.VerifyReferenceRequest{Reference: "REF9", PlanID: 1})
	assert.ErrorIs(t, err, portalerr.InvalidReference)

	_, err = client.VerifyReference(ctx, portalapi.VerifyReferenceRequest{Reference: "OTHER"})
	assert.ErrorIs(t, err, portalerr.InvalidReference)

	srv.FailNext(portaltest.RouteVerifyReference, http.StatusNotFound, map[string]string{"error": "not found"})
	_, err = client.VerifyReference(ctx, portalapi.VerifyReferenceRequest{Reference: "REF9", PlanID: 2})
	assert.ErrorIs(t, err, portalerr.InvalidReference)
}

func TestPlans(t *testing.T) {
	t.Parallel()
	srv, client, _ := setup(t)
	srv.AddPlan(subscription.Plan{ID: 1, Name: "Daily", Duration: 1, DurationUnit: subscription.UnitDays, IsActive: true})
	srv.AddPlan(subscription.Plan{ID: 2, Name: "Monthly", Duration: 1, DurationUnit: subscription.UnitMonths, IsActive: true})
	ctx := context.Background()

	plans, err := client.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, 30, plans[1].DurationInDays())

	plan, err := client.GetPlan(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Monthly", plan.Name)

	_, err = client.GetPlan(ctx, 42)
	assert.ErrorIs(t, err, portalerr.Validation)
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   any
		kind   portalerr.Kind
		msg    string
	}{
		{"conflict status", http.StatusConflict, map[string]string{"error": "taken"}, portalerr.DeviceConflict, "taken"},
		{"device code on forbidden", http.StatusForbidden, map[string]string{"error": "DEVICE_ALREADY_USED", "message": "in use"}, portalerr.DeviceConflict, "in use"},
		{"forbidden", http.StatusForbidden, map[string]string{"detail": "no subscription"}, portalerr.Auth, "no subscription"},
		{"unprocessable", http.StatusUnprocessableEntity, map[string]string{"message": "bad"}, portalerr.Validation, "bad"},
		{"server error", http.StatusInternalServerError, nil, portalerr.Server, "Internal Server Error"},
		{"bad gateway", http.StatusBadGateway, map[string]string{"error": "upstream"}, portalerr.Server, "upstream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv, client, _ := setup(t)
			srv.FailNext(portaltest.RoutePlans, tt.status, tt.body)

			_, err := client.ListPlans(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.kind, portalerr.KindOf(err))
			assert.Equal(t, tt.status, portalerr.Status(err))
			assert.Equal(t, tt.msg, portalerr.Message(err))
		})
	}
}

func TestMalformedBody(t *testing.T) {
	t.Parallel()
	srv, client, _ := setup(t)
	srv.FailNext(portaltest.RoutePlans, http.StatusOK, "not a list")

	_, err := client.ListPlans(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, portalerr.Server)
	assert.False(t, portalapi.IsNoResponse(err))
}

func TestNetworkError(t *testing.T) {
	t.Parallel()
	srv := portaltest.NewServer()
	client := portalapi.New(srv.URL(), portalapi.WithTimeout(time.Second))
	srv.Close()

	_, err := client.ListPlans(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, portalerr.Network)
	assert.True(t, portalapi.IsNoResponse(err))
	assert.Zero(t, portalerr.Status(err))
}

func TestTimeout(t *testing.T) {
	t.Parallel()
	srv, _, _ := setup(t)
	srv.SetLatency(portaltest.RoutePlans, 500*time.Millisecond)
	client := portalapi.New(srv.URL(), portalapi.WithTimeout(50*time.Millisecond))

	_, err := client.ListPlans(context.Background())
	assert.ErrorIs(t, err, portalerr.Network)
}

func TestRequestIDPropagation(t *testing.T) {
	t.Parallel()
	srv, client, _ := setup(t)

	ctx := requestid.WithContext(context.Background(), "11111111-2222-3333-4444-555555555555")
	_, err := client.ListPlans(ctx)
	require.NoError(t, err)
	_, err = client.ListPlans(context.Background())
	require.NoError(t, err)

	ids := srv.RequestIDs()
	require.Len(t, ids, 2)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", ids[0])
	assert.True(t, requestid.Valid(ids[1]))
}

func TestIDDecodesNumbers(t *testing.T) {
	t.Parallel()

	var resp portalapi.LoginResponse
	require.NoError(t, json.Unmarshal([]byte(`{"access_token":"a","session_id":42}`), &resp))
	assert.Equal(t, portalapi.ID("42"), resp.SessionID)

	require.NoError(t, json.Unmarshal([]byte(`{"session_id":"abc"}`), &resp))
	assert.Equal(t, "abc", resp.SessionID.String())

	require.NoError(t, json.Unmarshal([]byte(`{"session_id":null}`), &resp))
	assert.Empty(t, resp.SessionID)
}

func TestLoginSubscriptionPlanAlias(t *testing.T) {
	t.Parallel()

	var resp portalapi.LoginResponse
	raw := `{"access_token":"a","session_id":1,"user":{"username":"alice","subscription":{"plan":"Daily","end_date":"2026-03-02","remaining_days":1}}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	require.NotNil(t, resp.User.Subscription)
	assert.Equal(t, "Daily", resp.User.Subscription.PlanName)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), resp.User.Subscription.EndDate.Time)
}
