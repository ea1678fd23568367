package portalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/captiveportal/pkg/logger"
	"github.com/dmitrymomot/captiveportal/pkg/portalerr"
)

// CodeDeviceAlreadyUsed is the login error code for a fingerprint already bound to a ticket.
const CodeDeviceAlreadyUsed = "DEVICE_ALREADY_USED"

const maxBodySize = 1 << 20

// call describes one request.
type call struct {
	method string
	path   string
	token  string
	in     any
	out    any
	// notFound is the kind a 404 maps to. Empty means Server.
	notFound portalerr.Kind
}

func (c *Client) do(ctx context.Context, cl call) error {
	var body io.Reader
	if cl.in != nil {
		b, err := json.Marshal(cl.in)
		if err != nil {
			return portalerr.Wrap(portalerr.Validation, "invalid request payload", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.url(cl.path), body)
	if err != nil {
		// no request ever left the client
		return portalerr.Wrap(portalerr.Network, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "portal request failed",
			"method", cl.method, "path", cl.path, logger.Error(err))
		return portalerr.Wrap(portalerr.Network, "no response from portal", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return portalerr.Wrap(portalerr.Network, "failed to read response body", err).WithStatus(resp.StatusCode)
	}

	c.logger.DebugContext(ctx, "portal request",
		"method", cl.method, "path", cl.path, "status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classify(resp.StatusCode, raw, cl.notFound)
	}

	if cl.out == nil || len(bytes.TrimSpace(raw)) == 0 {
		if cl.out != nil {
			return portalerr.New(portalerr.Server, "empty response body").WithStatus(resp.StatusCode)
		}
		return nil
	}
	if err := json.Unmarshal(raw, cl.out); err != nil {
		return portalerr.Wrap(portalerr.Server, "malformed response body", err).WithStatus(resp.StatusCode)
	}
	return nil
}

// classify maps an error response to a portal error kind.
func classify(status int, raw []byte, notFound portalerr.Kind) error {
	code, message := parseErrorBody(raw)
	if message == "" {
		message = http.StatusText(status)
	}

	var kind portalerr.Kind
	switch {
	case strings.EqualFold(code, CodeDeviceAlreadyUsed):
		kind = portalerr.DeviceConflict
	case status == http.StatusConflict:
		kind = portalerr.DeviceConflict
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		kind = portalerr.Auth
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		kind = portalerr.Validation
	case status == http.StatusNotFound && notFound != "":
		kind = notFound
	default:
		kind = portalerr.Server
	}
	return portalerr.New(kind, message).WithStatus(status).WithCode(code)
}

// parseErrorBody extracts a machine code and a human message from the
// shapes the portal uses: {error, message}, {error} or {detail}.
// An error value that looks like an UPPER_SNAKE code is treated as the code.
func parseErrorBody(raw []byte) (code, message string) {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", strings.TrimSpace(string(raw))
	}

	str := func(key string) string {
		v, _ := body[key].(string)
		return strings.TrimSpace(v)
	}

	errField := str("error")
	code = str("code")
	if code == "" && isCode(errField) {
		code = errField
		errField = ""
	}

	for _, m := range []string{str("message"), errField, str("detail")} {
		if m != "" {
			return code, m
		}
	}
	// field validation errors: {"phone_number": ["This field is required."]}
	for field, v := range body {
		if list, ok := v.([]any); ok && len(list) > 0 {
			return code, fmt.Sprintf("%s: %v", field, list[0])
		}
	}
	return code, ""
}

func isCode(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && r != '_' && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// IsNoResponse reports whether err means the server was never reached.
func IsNoResponse(err error) bool {
	var pe *portalerr.Error
	return errors.As(err, &pe) && pe.Kind == portalerr.Network && pe.Status == 0
}
