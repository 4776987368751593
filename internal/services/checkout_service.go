package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"travelbook/internal/domain"
	"travelbook/internal/domain/models"
	"travelbook/internal/payments"
	"travelbook/internal/repositories"
	"travelbook/internal/utils"

	"github.com/google/uuid"
)

// CheckoutInput is the storefront checkout submission.
type CheckoutInput struct {
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	CustomerPhone string             `json:"customer_phone"`
	DepositChoice int                `json:"deposit_choice"` // 25 / 50 / 100
	Items         []CheckoutItemInput `json:"items"`
}

type CheckoutItemInput struct {
	ProductType     string `json:"product_type"`
	Title           string `json:"title"`
	TripDate        string `json:"trip_date"`
	PassengerCount  int    `json:"passenger_count"`
	LuggageCount    int    `json:"luggage_count"`
	PickupLocation  string `json:"pickup_location"`
	DropoffLocation string `json:"dropoff_location"`
	UnitPrice       int64  `json:"unit_price"`
	Quantity        int    `json:"quantity"`
}

// CheckoutResult is what the storefront needs to redirect to payment.
type CheckoutResult struct {
	Booking     models.Booking
	Items       []models.BookingItem
	Charge      int64
	CheckoutURL string
	SessionID   string
}

// CheckoutService membuat booking beserta item lalu membuka sesi pembayaran
// deposit di gateway.
type CheckoutService struct {
	BookingRepo repositories.BookingRepository
	ItemRepo    repositories.BookingItemRepository
	EventRepo   repositories.EventRepository
	Notifier    NotificationService
	Payments    payments.Client
	SuccessURL  string
	CancelURL   string
	RequestID   string
}

const refCodeAttempts = 5

// CreateBooking validates input, persists booking+items, records the ledger
// event, fires the (non-blocking) notification and opens the deposit session.
func (s CheckoutService) CreateBooking(ctx context.Context, in CheckoutInput, userID *int64) (CheckoutResult, error) {
	name := utils.TrimOrEmpty(in.CustomerName)
	email := utils.NormalizeEmail(in.CustomerEmail)
	if name == "" {
		return CheckoutResult{}, domain.ValidationError{Field: "customer_name", Msg: "nama wajib diisi"}
	}
	if email == "" || !strings.Contains(email, "@") {
		return CheckoutResult{}, domain.ValidationError{Field: "customer_email", Msg: "email tidak valid"}
	}
	if len(in.Items) == 0 {
		return CheckoutResult{}, domain.ValidationError{Field: "items", Msg: "keranjang kosong"}
	}
	if !utils.ValidDepositChoice(in.DepositChoice) {
		return CheckoutResult{}, domain.ValidationError{Field: "deposit_choice", Msg: "pilihan deposit harus 25, 50, atau 100"}
	}

	items := make([]models.BookingItem, 0, len(in.Items))
	var total int64
	for i, raw := range in.Items {
		it, err := buildItem(raw)
		if err != nil {
			return CheckoutResult{}, domain.ValidationError{Field: fmt.Sprintf("items[%d]", i), Msg: err.Error()}
		}
		items = append(items, it)
		total += it.Subtotal()
	}

	charge, err := utils.DepositCharge(total, in.DepositChoice)
	if err != nil {
		return CheckoutResult{}, domain.ValidationError{Field: "deposit_choice", Msg: err.Error()}
	}

	booking := models.Booking{
		CustomerName:    name,
		CustomerEmail:   email,
		CustomerPhone:   utils.TrimOrEmpty(in.CustomerPhone),
		TotalAmount:     total,
		RemainingAmount: total,
		BookingStatus:   models.BookingPending,
		PaymentStatus:   models.PaymentUnpaid,
		PublicViewToken: uuid.NewString(),
		UserID:          userID,
	}

	// kode referensi di-mint server-side; retry bila bentrok unique key
	var bookingID int64
	for attempt := 0; ; attempt++ {
		booking.ReferenceCode = utils.NewReferenceCode()
		bookingID, err = s.BookingRepo.Create(booking)
		if err == nil {
			break
		}
		if domain.ErrCode(err) == "reference_collision" && attempt < refCodeAttempts-1 {
			continue
		}
		return CheckoutResult{}, err
	}
	booking.ID = bookingID

	if err := s.ItemRepo.InsertAll(bookingID, items); err != nil {
		// kompensasi: booking tanpa item lebih buruk daripada minta customer ulang
		if delErr := s.BookingRepo.Delete(bookingID); delErr != nil {
			utils.LogWarn(s.RequestID, "checkout", "compensate",
				fmt.Sprintf("gagal hapus booking_id=%d: %v", bookingID, delErr))
		}
		return CheckoutResult{}, err
	}
	for i := range items {
		items[i].BookingID = bookingID
	}

	payload, _ := json.Marshal(map[string]any{
		"reference_code": booking.ReferenceCode,
		"total_amount":   total,
		"deposit_choice": in.DepositChoice,
		"item_count":     len(items),
	})
	if err := s.EventRepo.Append(models.BookingEvent{
		BookingID: bookingID,
		EventType: models.EventBookingReceived,
		Payload:   payload,
	}); err != nil && !domain.IsConflict(err) {
		utils.LogWarn(s.RequestID, "checkout", "ledger", err.Error())
	}

	// notifikasi tidak boleh menggagalkan pembuatan booking
	if err := s.Notifier.BookingReceived(booking, items); err != nil {
		utils.LogWarn(s.RequestID, "checkout", "notify", err.Error())
	}

	session, err := s.Payments.CreateCheckoutSession(ctx, payments.CheckoutSessionInput{
		BookingID:     bookingID,
		ReferenceCode: booking.ReferenceCode,
		Amount:        charge,
		Description:   sessionDescription(items, in.DepositChoice),
		CustomerEmail: email,
		PaymentType:   payments.PaymentTypeDeposit,
		SuccessURL:    s.SuccessURL,
		CancelURL:     s.CancelURL,
	})
	if err != nil {
		// booking tetap ada; customer bisa diarahkan bayar ulang dari halaman booking
		return CheckoutResult{Booking: booking, Items: items, Charge: charge},
			domain.InternalError{Msg: "gagal membuat sesi pembayaran", Err: err}
	}

	utils.LogEvent(s.RequestID, "checkout", "created",
		fmt.Sprintf("booking_id=%d ref=%s total=%d charge=%d", bookingID, booking.ReferenceCode, total, charge))

	return CheckoutResult{
		Booking:     booking,
		Items:       items,
		Charge:      charge,
		CheckoutURL: session.URL,
		SessionID:   session.ID,
	}, nil
}

// CreateBalanceSession opens a payment session for the remaining amount.
// Authorization: pemilik terautentikasi, atau pemegang public view token.
func (s CheckoutService) CreateBalanceSession(ctx context.Context, bookingID int64, viewToken string, rc domain.RequestContext) (CheckoutResult, error) {
	booking, err := s.BookingRepo.GetByID(bookingID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if !canAccessBooking(booking, viewToken, rc) {
		return CheckoutResult{}, domain.UnauthorizedError{Msg: "tidak berhak mengakses booking ini"}
	}
	if booking.BookingStatus == models.BookingCancelled {
		return CheckoutResult{}, domain.ConflictError{Resource: "booking", Code: "booking_cancelled", Msg: "booking sudah dibatalkan"}
	}

	charge, err := utils.BalanceCharge(booking.RemainingAmount)
	if err != nil {
		return CheckoutResult{}, domain.ConflictError{Resource: "booking", Code: "nothing_to_charge", Msg: err.Error()}
	}

	session, err := s.Payments.CreateCheckoutSession(ctx, payments.CheckoutSessionInput{
		BookingID:     booking.ID,
		ReferenceCode: booking.ReferenceCode,
		Amount:        charge,
		Description:   "Pelunasan booking " + booking.ReferenceCode,
		CustomerEmail: booking.CustomerEmail,
		PaymentType:   payments.PaymentTypeBalance,
		SuccessURL:    s.SuccessURL,
		CancelURL:     s.CancelURL,
	})
	if err != nil {
		return CheckoutResult{}, domain.InternalError{Msg: "gagal membuat sesi pembayaran", Err: err}
	}

	return CheckoutResult{
		Booking:     booking,
		Charge:      charge,
		CheckoutURL: session.URL,
		SessionID:   session.ID,
	}, nil
}

func buildItem(raw CheckoutItemInput) (models.BookingItem, error) {
	pt := models.ProductType(strings.ToLower(utils.TrimOrEmpty(raw.ProductType)))
	switch pt {
	case models.ProductTour, models.ProductTransfer, models.ProductPackage:
	default:
		return models.BookingItem{}, fmt.Errorf("product_type tidak dikenal: %q", raw.ProductType)
	}
	title := utils.TrimOrEmpty(raw.Title)
	if title == "" {
		return models.BookingItem{}, fmt.Errorf("title wajib diisi")
	}
	if raw.UnitPrice <= 0 {
		return models.BookingItem{}, fmt.Errorf("unit_price harus > 0")
	}
	if raw.TripDate != "" {
		if _, err := utils.ParseDate(raw.TripDate); err != nil {
			return models.BookingItem{}, fmt.Errorf("trip_date harus YYYY-MM-DD")
		}
	}
	qty := raw.Quantity
	if qty < 1 {
		qty = 1
	}
	pax := raw.PassengerCount
	if pax < 1 {
		pax = 1
	}
	return models.BookingItem{
		ProductType:     pt,
		Title:           title,
		TripDate:        utils.TrimOrEmpty(raw.TripDate),
		PassengerCount:  pax,
		LuggageCount:    raw.LuggageCount,
		PickupLocation:  utils.TrimOrEmpty(raw.PickupLocation),
		DropoffLocation: utils.TrimOrEmpty(raw.DropoffLocation),
		UnitPrice:       raw.UnitPrice,
		Quantity:        qty,
	}, nil
}

func sessionDescription(items []models.BookingItem, depositChoice int) string {
	label := fmt.Sprintf("Deposit %d%%", depositChoice)
	if depositChoice == 100 {
		label = "Pembayaran penuh"
	}
	if len(items) == 1 {
		return label + " - " + items[0].Title
	}
	return fmt.Sprintf("%s - %d item perjalanan", label, len(items))
}

// canAccessBooking is the guest-URL contract: token must match unless the
// requester owns the booking (or is admin).
func canAccessBooking(b models.Booking, viewToken string, rc domain.RequestContext) bool {
	if rc.IsAdmin() {
		return true
	}
	if b.UserID != nil && rc.UserID > 0 && int64(rc.UserID) == *b.UserID {
		return true
	}
	token := utils.TrimOrEmpty(viewToken)
	return token != "" && token == b.PublicViewToken
}
