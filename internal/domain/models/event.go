package models

import (
	"encoding/json"
	"time"
)

// EventType enumerates the booking lifecycle events recorded in the ledger.
type EventType string

const (
	EventBookingReceived   EventType = "booking_received"
	EventBookingConfirmed  EventType = "booking_confirmed"
	EventBookingCancelled  EventType = "booking_cancelled"
	EventBookingClaimed    EventType = "booking_claimed"
	EventPaymentRecorded   EventType = "payment_recorded"
	EventPaymentMarkedPaid EventType = "payment_marked_paid"
	EventEmailSent         EventType = "email_sent"
	EventReviewRequested   EventType = "review_requested"
	EventReviewSubmitted   EventType = "review_submitted"
	EventStatusChanged     EventType = "status_changed"
)

// BookingEvent is an append-only ledger row. Selain sebagai timeline, baris
// dengan (booking_id, event_type, dedup_key) yang sama berarti side effect
// tersebut sudah pernah terjadi dan harus di-skip.
type BookingEvent struct {
	ID        int64
	BookingID int64
	EventType EventType
	DedupKey  string // payment intent id, email kind, atau "" bila tidak perlu
	Payload   json.RawMessage
	CreatedAt time.Time
}
