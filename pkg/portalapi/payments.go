package portalapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrymomot/captiveportal/pkg/portalerr"
)

// InitiatePayment starts a mobile-money payment for a plan.
func (c *Client) InitiatePayment(ctx context.Context, req InitiatePaymentRequest) (*InitiatePaymentResponse, error) {
	var resp InitiatePaymentResponse
	if err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/payments/sms-initiate",
		in:     req,
		out:    &resp,
	}); err != nil {
		return nil, err
	}
	if resp.TransactionID == "" {
		return nil, portalerr.New(portalerr.Server, "payment response is missing transaction id").WithStatus(http.StatusOK)
	}
	return &resp, nil
}

// PaymentStatus polls a transaction once.
func (c *Client) PaymentStatus(ctx context.Context, transactionID string) (*PaymentStatusResponse, error) {
	var resp PaymentStatusResponse
	if err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/payments/" + url.PathEscape(transactionID) + "/status",
		out:    &resp,
	}); err != nil {
		return nil, err
	}
	resp.Status = normalizePaymentStatus(resp.Status)
	switch resp.Status {
	case PaymentPending, PaymentConfirmed, PaymentExpired, PaymentFailed:
	default:
		return nil, portalerr.New(portalerr.Server, "unknown payment status "+string(resp.Status)).WithStatus(http.StatusOK)
	}
	return &resp, nil
}

// VerifyReference checks a payment reference entered by hand.
// A {success:false} reply or a 404 is reported as InvalidReference.
func (c *Client) VerifyReference(ctx context.Context, req VerifyReferenceRequest) (*WiFiCredentials, error) {
	var resp verifyReferenceResponse
	if err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/payments/verify-reference",
		in:       req,
		out:      &resp,
		notFound: portalerr.InvalidReference,
	}); err != nil {
		return nil, err
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "reference not recognized"
		}
		return nil, portalerr.New(portalerr.InvalidReference, msg).WithStatus(http.StatusOK)
	}
	creds := resp.WiFiCredentials
	return &creds, nil
}
