package models

import (
	"fmt"
	"time"
)

// BookingStatus adalah status lifecycle booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	default:
		return false
	}
}

// PaymentStatus adalah status pembayaran booking.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "payment_failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentUnpaid, PaymentPartial, PaymentPaid, PaymentRefunded, PaymentFailed:
		return true
	default:
		return false
	}
}

// Booking holds monetary totals in whole Rupiah (no minor unit).
type Booking struct {
	ID              int64
	ReferenceCode   string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	TotalAmount     int64
	AmountPaid      int64
	RemainingAmount int64
	BookingStatus   BookingStatus
	PaymentStatus   PaymentStatus
	PublicViewToken string
	UserID          *int64
	LastActionAt    time.Time
	CreatedAt       time.Time
}

// ApplyPayment menambahkan pembayaran dan menurunkan status sesuai invariant:
// remaining = max(total-paid, 0); paid <=> remaining == 0.
func (b *Booking) ApplyPayment(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("jumlah pembayaran tidak valid: %d", amount)
	}
	b.AmountPaid += amount
	b.RemainingAmount = b.TotalAmount - b.AmountPaid
	if b.RemainingAmount < 0 {
		b.RemainingAmount = 0
	}
	b.PaymentStatus = DerivePaymentStatus(b.TotalAmount, b.AmountPaid)
	return nil
}

// DerivePaymentStatus maps amounts to the unpaid/partial/paid triad.
// Refunded dan payment_failed hanya di-set lewat transisi eksplisit, bukan derivasi.
func DerivePaymentStatus(total, paid int64) PaymentStatus {
	switch {
	case paid <= 0:
		return PaymentUnpaid
	case paid < total:
		return PaymentPartial
	default:
		return PaymentPaid
	}
}

// ProductType membedakan jenis item yang dibeli.
type ProductType string

const (
	ProductTour     ProductType = "tour"
	ProductTransfer ProductType = "transfer"
	ProductPackage  ProductType = "package"
)

// BookingItem denormalizes the purchased product at checkout time.
type BookingItem struct {
	ID              int64
	BookingID       int64
	ProductType     ProductType
	Title           string
	TripDate        string
	PassengerCount  int
	LuggageCount    int
	PickupLocation  string
	DropoffLocation string
	UnitPrice       int64
	Quantity        int
}

func (it BookingItem) Subtotal() int64 {
	qty := it.Quantity
	if qty < 1 {
		qty = 1
	}
	return it.UnitPrice * int64(qty)
}
