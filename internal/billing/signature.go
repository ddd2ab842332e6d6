package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	ierr "github.com/reportik/reportik/internal/errors"
)

// Notification signatures arrive in the X-Signature header as
// "ts=<unix>,v1=<hex hmac>" where the hmac is computed over the manifest
// "id:{paymentId};request-id:{requestId};ts:{ts};" with the shared secret.

// VerifyNotificationSignature validates the provider's webhook signature.
// It fails closed: any missing or malformed part is an invalid signature.
func VerifyNotificationSignature(xSignature, xRequestID, paymentID, secret string) error {
	if xSignature == "" || xRequestID == "" || secret == "" {
		return ierr.NewError("missing webhook signature data").
			WithHint("Notification could not be authenticated").
			Mark(ierr.ErrInvalidSignature)
	}

	var ts, hash string
	for _, part := range strings.Split(xSignature, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			hash = value
		}
	}

	if ts == "" || hash == "" {
		return ierr.NewError("invalid signature format").
			WithHint("Notification could not be authenticated").
			Mark(ierr.ErrInvalidSignature)
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", paymentID, xRequestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(hash)) {
		return ierr.NewError("signature mismatch").
			WithHint("Notification could not be authenticated").
			Mark(ierr.ErrInvalidSignature)
	}

	return nil
}

// SignNotification computes the X-Signature header value for a notification.
// Used by tests and by provider simulators.
func SignNotification(paymentID, requestID, ts, secret string) string {
	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", paymentID, requestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return fmt.Sprintf("ts=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}
