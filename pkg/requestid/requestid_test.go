package requestid_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/captiveportal/pkg/requestid"
)

func TestEnsure(t *testing.T) {
	t.Parallel()

	t.Run("keeps existing id", func(t *testing.T) {
		t.Parallel()
		ctx := requestid.WithContext(context.Background(), "abc-123")
		ctx2, id := requestid.Ensure(ctx)
		assert.Equal(t, "abc-123", id)
		assert.Equal(t, ctx, ctx2)
	})

	t.Run("generates when missing or invalid", func(t *testing.T) {
		t.Parallel()
		for _, ctx := range []context.Context{
			context.Background(),
			requestid.WithContext(context.Background(), "bad id!"),
		} {
			ctx2, id := requestid.Ensure(ctx)
			assert.True(t, requestid.Valid(id))
			assert.Equal(t, id, requestid.FromContext(ctx2))
		}
	})
}

func TestValid(t *testing.T) {
	t.Parallel()
	for _, id := range []string{"abc123", "ABC-123_xyz", "550e8400-e29b-41d4-a716-446655440000"} {
		assert.True(t, requestid.Valid(id), id)
	}
	for _, id := range []string{"", "a b", "a/b", "<script>", string(make([]byte, 129))} {
		assert.False(t, requestid.Valid(id), id)
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("reuses valid header", func(t *testing.T) {
		t.Parallel()
		handler := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "req-1", requestid.FromContext(r.Context()))
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestid.Header, "req-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, "req-1", rec.Header().Get(requestid.Header))
	})

	t.Run("replaces invalid header", func(t *testing.T) {
		t.Parallel()
		handler := requestid.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestid.Header, "test<script>")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		got := rec.Header().Get(requestid.Header)
		assert.NotEqual(t, "test<script>", got)
		assert.True(t, requestid.Valid(got))
	})
}

func TestTransport(t *testing.T) {
	t.Parallel()

	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(requestid.Header)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &requestid.Transport{}}

	ctx := requestid.WithContext(context.Background(), "outbound-1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "outbound-1", seen)
	assert.Empty(t, req.Header.Get(requestid.Header), "caller request must not be mutated")

	req, err = http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.True(t, requestid.Valid(seen))
}
