package handlers

import (
	"net/http"

	"travelbook/internal/http/middleware"
	"travelbook/internal/repositories"
	"travelbook/internal/services"

	"github.com/gin-gonic/gin"
)

func checkoutService(c *gin.Context) services.CheckoutService {
	reqID := middleware.GetRequestID(c)
	return services.CheckoutService{
		BookingRepo: repositories.BookingRepository{},
		ItemRepo:    repositories.BookingItemRepository{},
		EventRepo:   repositories.EventRepository{},
		Notifier:    notifier(reqID),
		Payments:    paymentsClient(),
		SuccessURL:  cfg.Payment.SuccessURL,
		CancelURL:   cfg.Payment.CancelURL,
		RequestID:   reqID,
	}
}

// POST /api/checkout
// Guest boleh checkout; kalau sedang login, booking langsung menempel ke user.
func Checkout(c *gin.Context) {
	var in services.CheckoutInput
	if !BindJSONOrError(c, &in) {
		return
	}

	var userID *int64
	if rc := middleware.GetRequestContext(c); rc.UserID > 0 {
		id := int64(rc.UserID)
		userID = &id
	}

	res, err := checkoutService(c).CreateBooking(c.Request.Context(), in, userID)
	if err != nil {
		// booking bisa saja sudah terbuat walau sesi pembayaran gagal
		if res.Booking.ID > 0 {
			c.JSON(http.StatusBadGateway, gin.H{
				"message": "booking tersimpan tapi sesi pembayaran gagal dibuat, coba bayar dari halaman booking",
				"booking": bookingJSON(res.Booking),
			})
			return
		}
		RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"booking":      bookingJSON(res.Booking),
		"items":        itemsJSON(res.Items),
		"charge":       res.Charge,
		"checkout_url": res.CheckoutURL,
		"session_id":   res.SessionID,
	})
}

type balanceRequest struct {
	BookingID int64  `json:"booking_id"`
	ViewToken string `json:"view_token"`
}

// POST /api/checkout/balance
func CheckoutBalance(c *gin.Context) {
	var req balanceRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	res, err := checkoutService(c).CreateBalanceSession(
		c.Request.Context(), req.BookingID, req.ViewToken, middleware.GetRequestContext(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"booking":      bookingJSON(res.Booking),
		"charge":       res.Charge,
		"checkout_url": res.CheckoutURL,
		"session_id":   res.SessionID,
	})
}
