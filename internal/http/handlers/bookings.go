package handlers

import (
	"net/http"
	"strconv"

	"travelbook/internal/domain/models"
	"travelbook/internal/http/middleware"
	"travelbook/internal/repositories"
	"travelbook/internal/services"

	"github.com/gin-gonic/gin"
)

func bookingService(c *gin.Context) services.BookingService {
	reqID := middleware.GetRequestID(c)
	return services.BookingService{
		BookingRepo: repositories.BookingRepository{},
		ItemRepo:    repositories.BookingItemRepository{},
		EventRepo:   repositories.EventRepository{},
		Notifier:    notifier(reqID),
		RequestID:   reqID,
	}
}

func bookingJSON(b models.Booking) gin.H {
	out := gin.H{
		"id":               b.ID,
		"reference_code":   b.ReferenceCode,
		"customer_name":    b.CustomerName,
		"customer_email":   b.CustomerEmail,
		"customer_phone":   b.CustomerPhone,
		"total_amount":     b.TotalAmount,
		"amount_paid":      b.AmountPaid,
		"remaining_amount": b.RemainingAmount,
		"booking_status":   b.BookingStatus,
		"payment_status":   b.PaymentStatus,
		"created_at":       b.CreatedAt,
	}
	if !b.LastActionAt.IsZero() {
		out["last_action_at"] = b.LastActionAt
	}
	return out
}

func itemsJSON(items []models.BookingItem) []gin.H {
	out := make([]gin.H, 0, len(items))
	for _, it := range items {
		out = append(out, gin.H{
			"id":               it.ID,
			"product_type":     it.ProductType,
			"title":            it.Title,
			"trip_date":        it.TripDate,
			"passenger_count":  it.PassengerCount,
			"luggage_count":    it.LuggageCount,
			"pickup_location":  it.PickupLocation,
			"dropoff_location": it.DropoffLocation,
			"unit_price":       it.UnitPrice,
			"quantity":         it.Quantity,
			"subtotal":         it.Subtotal(),
		})
	}
	return out
}

func eventsJSON(events []models.BookingEvent) []gin.H {
	out := make([]gin.H, 0, len(events))
	for _, ev := range events {
		out = append(out, gin.H{
			"event_type": ev.EventType,
			"created_at": ev.CreatedAt,
		})
	}
	return out
}

func parseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "id tidak valid", err)
		return 0, false
	}
	return id, true
}

// GET /api/bookings/:id?token=<public_view_token>
func GetBooking(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	detail, err := bookingService(c).GetDetail(id, c.Query("token"), middleware.GetRequestContext(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"booking": bookingJSON(detail.Booking),
		"items":   itemsJSON(detail.Items),
		"events":  eventsJSON(detail.Events),
	})
}

// GET /api/my/bookings
func MyBookings(c *gin.Context) {
	bookings, err := bookingService(c).ListForUser(middleware.GetRequestContext(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	out := make([]gin.H, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, bookingJSON(b))
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}

type claimRequest struct {
	ReferenceCode string `json:"reference_code"`
	Email         string `json:"email"`
}

// POST /api/bookings/claim
func ClaimBooking(c *gin.Context) {
	var req claimRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	reqID := middleware.GetRequestID(c)
	svc := services.ClaimService{
		BookingRepo: repositories.BookingRepository{},
		EventRepo:   repositories.EventRepository{},
		Limiter:     claimLimiter,
		RequestID:   reqID,
	}

	booking, err := svc.Claim(middleware.GetRequestContext(c), req.ReferenceCode, req.Email)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "booking berhasil diklaim",
		"booking": bookingJSON(booking),
	})
}
