package providers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	domainErrors "github.com/clubsync/payments/internal/domain/errors"
)

// StripeWebhookDecoder verifies the Stripe-Signature header
// (t=<unix>,v1=<hmac>) against the endpoint's signing secret and decodes the
// event envelope. Signatures older than the tolerance window are rejected.
type StripeWebhookDecoder struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewStripeWebhookDecoder creates a decoder for the given signing secret.
func NewStripeWebhookDecoder(secret string) *StripeWebhookDecoder {
	return &StripeWebhookDecoder{
		secret:    []byte(secret),
		tolerance: 5 * time.Minute,
		now:       time.Now,
	}
}

type webhookEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

// Decode verifies the signature and parses the event.
func (d *StripeWebhookDecoder) Decode(payload []byte, signatureHeader string) (*WebhookEvent, error) {
	timestamp, signature, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return nil, err
	}

	if d.now().Sub(time.Unix(timestamp, 0)) > d.tolerance {
		return nil, fmt.Errorf("%w: timestamp outside tolerance", domainErrors.ErrInvalidWebhookSignature)
	}

	mac := hmac.New(sha256.New, d.secret)
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	got, err := hex.DecodeString(signature)
	if err != nil || !hmac.Equal(expected, got) {
		return nil, domainErrors.ErrInvalidWebhookSignature
	}

	var env webhookEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrInvalidWebhookPayload, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", domainErrors.ErrInvalidWebhookPayload)
	}

	return &WebhookEvent{
		ID:        env.ID,
		Type:      env.Type,
		SessionID: env.Data.Object.ID,
	}, nil
}

func parseSignatureHeader(header string) (timestamp int64, signature string, err error) {
	if header == "" {
		return 0, "", fmt.Errorf("%w: missing signature header", domainErrors.ErrInvalidWebhookSignature)
	}
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			timestamp, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, "", fmt.Errorf("%w: bad timestamp", domainErrors.ErrInvalidWebhookSignature)
			}
		case "v1":
			signature = v
		}
	}
	if timestamp == 0 || signature == "" {
		return 0, "", fmt.Errorf("%w: malformed signature header", domainErrors.ErrInvalidWebhookSignature)
	}
	return timestamp, signature, nil
}
