package payments

import (
	"testing"
	"time"
)

func TestVerifySignatureRoundTrip(t *testing.T) {
	payload := []byte(`{"type":"checkout.session.completed"}`)
	now := time.Now()
	header := SignPayload(payload, "whsec_test", now)

	if err := VerifySignature(payload, header, "whsec_test", DefaultTolerance, now); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestVerifySignatureWrongSecret(t *testing.T) {
	payload := []byte(`{}`)
	now := time.Now()
	header := SignPayload(payload, "whsec_a", now)

	if err := VerifySignature(payload, header, "whsec_b", DefaultTolerance, now); err == nil {
		t.Fatal("expected signature mismatch")
	}
}

func TestVerifySignatureTamperedBody(t *testing.T) {
	now := time.Now()
	header := SignPayload([]byte(`{"amount":100}`), "whsec_test", now)

	if err := VerifySignature([]byte(`{"amount":999}`), header, "whsec_test", DefaultTolerance, now); err == nil {
		t.Fatal("expected signature mismatch for tampered body")
	}
}

func TestVerifySignatureStaleTimestamp(t *testing.T) {
	payload := []byte(`{}`)
	signedAt := time.Now().Add(-10 * time.Minute)
	header := SignPayload(payload, "whsec_test", signedAt)

	if err := VerifySignature(payload, header, "whsec_test", DefaultTolerance, time.Now()); err == nil {
		t.Fatal("expected stale timestamp rejection")
	}
}

func TestBookingIDFromMetadataThenReference(t *testing.T) {
	obj := CheckoutObject{Metadata: map[string]string{"booking_id": "42"}, ClientReferenceID: "99"}
	if got := obj.BookingID(); got != 42 {
		t.Fatalf("metadata should win, got %d", got)
	}

	obj = CheckoutObject{ClientReferenceID: "99"}
	if got := obj.BookingID(); got != 99 {
		t.Fatalf("client_reference_id fallback, got %d", got)
	}

	obj = CheckoutObject{}
	if got := obj.BookingID(); got != 0 {
		t.Fatalf("missing correlation should be 0, got %d", got)
	}
}
