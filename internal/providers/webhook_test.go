package providers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/clubsync/payments/internal/domain/errors"
)

func sign(secret, payload string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeWebhookDecoder_Decode(t *testing.T) {
	const secret = "whsec_test"
	payload := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1"}}}`

	now := time.Unix(1700000000, 0)
	decoder := &StripeWebhookDecoder{
		secret:    []byte(secret),
		tolerance: 5 * time.Minute,
		now:       func() time.Time { return now },
	}

	t.Run("decodes a correctly signed payload", func(t *testing.T) {
		event, err := decoder.Decode([]byte(payload), sign(secret, payload, now.Unix()))
		require.NoError(t, err)
		assert.Equal(t, "evt_1", event.ID)
		assert.Equal(t, "checkout.session.completed", event.Type)
		assert.Equal(t, "cs_test_1", event.SessionID)
	})

	t.Run("rejects a signature from the wrong secret", func(t *testing.T) {
		_, err := decoder.Decode([]byte(payload), sign("whsec_other", payload, now.Unix()))
		assert.ErrorIs(t, err, domainErrors.ErrInvalidWebhookSignature)
	})

	t.Run("rejects a stale timestamp", func(t *testing.T) {
		stale := now.Add(-10 * time.Minute).Unix()
		_, err := decoder.Decode([]byte(payload), sign(secret, payload, stale))
		assert.ErrorIs(t, err, domainErrors.ErrInvalidWebhookSignature)
	})

	t.Run("rejects malformed signature headers", func(t *testing.T) {
		for _, header := range []string{
			"",
			"t=abc,v1=deadbeef",
			"v1=deadbeef",
			fmt.Sprintf("t=%d", now.Unix()),
		} {
			_, err := decoder.Decode([]byte(payload), header)
			assert.ErrorIs(t, err, domainErrors.ErrInvalidWebhookSignature, "header: %q", header)
		}
	})

	t.Run("rejects a payload without an event type", func(t *testing.T) {
		body := `{"id":"evt_2","data":{"object":{"id":"cs_test_1"}}}`
		_, err := decoder.Decode([]byte(body), sign(secret, body, now.Unix()))
		assert.ErrorIs(t, err, domainErrors.ErrInvalidWebhookPayload)
	})
}
