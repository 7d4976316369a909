package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

const testSecret = "whsec_test_secret"

func signed(t *testing.T, payload string) string {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return sp.Header
}

const completedEvent = `{
  "id": "evt_1",
  "object": "event",
  "type": "checkout.session.completed",
  "data": {"object": {
    "id": "cs_test_1",
    "object": "checkout.session",
    "customer_email": "jonas@example.com",
    "client_reference_id": "5c88fa8cf4afda39709c2955",
    "amount_total": 49700
  }}
}`

func TestParseWebhookCompleted(t *testing.T) {
	g := NewGateway("sk_test_x", testSecret, "aud", nil)

	c, err := g.ParseWebhook([]byte(completedEvent), signed(t, completedEvent))
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "jonas@example.com", c.CustomerEmail)
	assert.Equal(t, "5c88fa8cf4afda39709c2955", c.TourID)
	assert.InDelta(t, 497.0, c.Amount, 0.001)
}

func TestParseWebhookIgnoresOtherEvents(t *testing.T) {
	g := NewGateway("sk_test_x", testSecret, "aud", nil)
	body := `{"id":"evt_2","object":"event","type":"payment_intent.created","data":{"object":{}}}`

	c, err := g.ParseWebhook([]byte(body), signed(t, body))
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	g := NewGateway("sk_test_x", testSecret, "aud", nil)

	_, err := g.ParseWebhook([]byte(completedEvent), "t=1,v1=deadbeef")
	assert.True(t, domain.IsKind(err, domain.KindPaymentVerification))

	other := NewGateway("sk_test_x", "whsec_other", "aud", nil)
	_, err = other.ParseWebhook([]byte(completedEvent), signed(t, completedEvent))
	assert.True(t, domain.IsKind(err, domain.KindPaymentVerification))
}
