package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"travelbook/internal/domain"
	"travelbook/internal/domain/models"
	"travelbook/internal/http/middleware"
	"travelbook/internal/repositories"
	"travelbook/internal/utils"

	"github.com/gin-gonic/gin"
)

// GET /api/admin/bookings?booking_status=&payment_status=&page=&limit=
func AdminListBookings(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("limit"))
	bookings, pagination, err := bookingService(c).AdminList(
		c.Query("booking_status"), c.Query("payment_status"),
		domain.Pagination{Page: page, PageSize: pageSize})
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	out := make([]gin.H, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, bookingJSON(b))
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out, "pagination": pagination})
}

type bookingStatusRequest struct {
	BookingStatus string `json:"booking_status"`
}

// PUT /api/admin/bookings/:id/status
func AdminSetBookingStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req bookingStatusRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	booking, err := bookingService(c).SetBookingStatus(id, models.BookingStatus(req.BookingStatus))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": bookingJSON(booking)})
}

type paymentStatusRequest struct {
	PaymentStatus string `json:"payment_status"`
}

// PUT /api/admin/bookings/:id/payment-status
func AdminSetPaymentStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req paymentStatusRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	booking, err := bookingService(c).SetPaymentStatus(id, models.PaymentStatus(req.PaymentStatus))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": bookingJSON(booking)})
}

// POST /api/admin/bookings/:id/review-request
// Mengirim (atau mengirim ulang) link review; token aktif dipakai ulang.
func AdminIssueReviewRequest(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	req, err := reviewService(c).IssueRequest(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "link review dikirim",
		"token":      req.Token,
		"expires_at": req.ExpiresAt,
	})
}

// PUT /api/admin/reviews/:id/approve
func AdminApproveReview(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	repo := repositories.ReviewRepository{}
	if err := repo.Approve(id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "review disetujui"})
}

// GET /api/admin/notification-settings
func AdminListNotificationSettings(c *gin.Context) {
	repo := repositories.SettingsRepository{}
	settings, err := repo.List()
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	out := make([]gin.H, 0, len(settings))
	for _, s := range settings {
		out = append(out, gin.H{
			"event_type": s.EventType,
			"audience":   s.Audience,
			"enabled":    s.Enabled,
		})
	}
	c.JSON(http.StatusOK, gin.H{"settings": out})
}

type notificationSettingRequest struct {
	EventType string `json:"event_type"`
	Audience  string `json:"audience"`
	Enabled   *bool  `json:"enabled"`
}

// PUT /api/admin/notification-settings
func AdminUpsertNotificationSetting(c *gin.Context) {
	var req notificationSettingRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	audience := models.Audience(req.Audience)
	if audience != models.AudienceCustomer && audience != models.AudienceAdmin {
		RespondError(c, http.StatusBadRequest, "audience harus customer atau admin", nil)
		return
	}
	if req.EventType == "" || req.Enabled == nil {
		RespondError(c, http.StatusBadRequest, "event_type dan enabled wajib diisi", nil)
		return
	}

	repo := repositories.SettingsRepository{}
	err := repo.Upsert(models.NotificationSetting{
		EventType: models.EventType(req.EventType),
		Audience:  audience,
		Enabled:   *req.Enabled,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	utils.LogEvent(middleware.GetRequestID(c), "settings", "upsert",
		fmt.Sprintf("event_type=%s audience=%s enabled=%t", req.EventType, req.Audience, *req.Enabled))
	c.JSON(http.StatusOK, gin.H{"message": "pengaturan notifikasi tersimpan"})
}
