package payment

import (
	"errors"
	"testing"
	"time"

	"courseplatform/services/enrollment-service/internal/domain"

	"github.com/shopspring/decimal"
)

const testSecret = "whsec_test"

func completedEvent(id, sessionID, paymentStatus string) []byte {
	return []byte(`{
  "id": "` + id + `",
  "object": "event",
  "type": "checkout.session.completed",
  "data": {"object": {
    "id": "` + sessionID + `",
    "object": "checkout.session",
    "payment_status": "` + paymentStatus + `",
    "metadata": {"user_id": "u-1", "course_id": "c-1"}
  }}
}`)
}

func TestParseWebhookCompleted(t *testing.T) {
	g := NewStripeGateway("sk_test", testSecret, "https://app/success", "https://app/cancel")
	body := completedEvent("evt_1", "cs_1", "paid")

	ev, err := g.ParseWebhook(body, SignedTestPayload(body, testSecret, time.Now()))
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if ev.ID != "evt_1" || ev.Type != EventCheckoutCompleted {
		t.Fatalf("event: %+v", ev)
	}
	if ev.Session == nil || ev.Session.ID != "cs_1" || !ev.Session.Paid {
		t.Fatalf("session: %+v", ev.Session)
	}
	if ev.Session.Metadata[MetaUserID] != "u-1" || ev.Session.Metadata[MetaCourseID] != "c-1" {
		t.Fatalf("metadata: %v", ev.Session.Metadata)
	}
}

func TestParseWebhookUnpaidAndUnknown(t *testing.T) {
	g := NewStripeGateway("sk_test", testSecret, "", "")

	body := completedEvent("evt_2", "cs_2", "unpaid")
	ev, err := g.ParseWebhook(body, SignedTestPayload(body, testSecret, time.Now()))
	if err != nil || ev.Session.Paid {
		t.Fatalf("unpaid event: %+v err=%v", ev, err)
	}

	other := []byte(`{"id":"evt_3","object":"event","type":"customer.created","data":{"object":{"id":"cus_1"}}}`)
	ev, err = g.ParseWebhook(other, SignedTestPayload(other, testSecret, time.Now()))
	if err != nil || ev.Session != nil || ev.Type != "customer.created" {
		t.Fatalf("unknown event: %+v err=%v", ev, err)
	}
}

func TestParseWebhookBadSignature(t *testing.T) {
	g := NewStripeGateway("sk_test", testSecret, "", "")
	body := completedEvent("evt_1", "cs_1", "paid")

	cases := map[string]string{
		"wrong secret": SignedTestPayload(body, "whsec_other", time.Now()),
		"stale":        SignedTestPayload(body, testSecret, time.Now().Add(-time.Hour)),
		"missing":      "",
	}
	for name, sig := range cases {
		if _, err := g.ParseWebhook(body, sig); !errors.Is(err, domain.ErrBadSignature) || !errors.Is(err, domain.ErrPaymentVerification) {
			t.Fatalf("%s: expected ErrBadSignature, got %v", name, err)
		}
	}
}

func TestToMinorUnits(t *testing.T) {
	cases := map[string]int64{"19.99": 1999, "10": 1000, "0.005": 1}
	for in, want := range cases {
		if got := ToMinorUnits(decimal.RequireFromString(in)); got != want {
			t.Fatalf("ToMinorUnits(%s)=%d want %d", in, got, want)
		}
	}
}
