package billing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	ierr "github.com/reportik/reportik/internal/errors"
)

const testSecret = "test-webhook-secret"

func TestVerifyNotificationSignature(t *testing.T) {
	ts := fmt.Sprint(time.Now().Unix())
	sig := SignNotification("mp_1", "req_1", ts, testSecret)

	err := VerifyNotificationSignature(sig, "req_1", "mp_1", testSecret)
	assert.NoError(t, err)
}

func TestVerifyNotificationSignatureTamperedPayment(t *testing.T) {
	ts := fmt.Sprint(time.Now().Unix())
	sig := SignNotification("mp_1", "req_1", ts, testSecret)

	// Signature was computed for a different payment
	err := VerifyNotificationSignature(sig, "req_1", "mp_2", testSecret)
	assert.Error(t, err)
	assert.True(t, ierr.IsInvalidSignature(err))
}

func TestVerifyNotificationSignatureWrongSecret(t *testing.T) {
	ts := fmt.Sprint(time.Now().Unix())
	sig := SignNotification("mp_1", "req_1", ts, "other-secret")

	err := VerifyNotificationSignature(sig, "req_1", "mp_1", testSecret)
	assert.Error(t, err)
	assert.True(t, ierr.IsInvalidSignature(err))
}

func TestVerifyNotificationSignatureWrongRequestID(t *testing.T) {
	ts := fmt.Sprint(time.Now().Unix())
	sig := SignNotification("mp_1", "req_1", ts, testSecret)

	err := VerifyNotificationSignature(sig, "req_2", "mp_1", testSecret)
	assert.Error(t, err)
	assert.True(t, ierr.IsInvalidSignature(err))
}

func TestVerifyNotificationSignatureMissingParts(t *testing.T) {
	tests := []struct {
		name       string
		xSignature string
		xRequestID string
		secret     string
	}{
		{"empty signature", "", "req_1", testSecret},
		{"empty request id", "ts=1,v1=abc", "", testSecret},
		{"empty secret", "ts=1,v1=abc", "req_1", ""},
		{"missing ts", "v1=abc", "req_1", testSecret},
		{"missing v1", "ts=1", "req_1", testSecret},
		{"garbage header", "not-a-signature", "req_1", testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyNotificationSignature(tt.xSignature, tt.xRequestID, "mp_1", tt.secret)
			assert.Error(t, err)
			assert.True(t, ierr.IsInvalidSignature(err))
		})
	}
}

func TestVerifyNotificationSignatureToleratesSpacing(t *testing.T) {
	ts := fmt.Sprint(time.Now().Unix())
	sig := SignNotification("mp_1", "req_1", ts, testSecret)

	// Providers sometimes put a space after the comma
	spaced := ""
	for i, c := range sig {
		spaced += string(c)
		if c == ',' && i < len(sig)-1 {
			spaced += " "
		}
	}

	err := VerifyNotificationSignature(spaced, "req_1", "mp_1", testSecret)
	assert.NoError(t, err)
}
