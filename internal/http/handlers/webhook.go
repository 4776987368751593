package handlers

import (
	"io"
	"net/http"

	"travelbook/internal/http/middleware"
	"travelbook/internal/payments"
	"travelbook/internal/repositories"
	"travelbook/internal/services"

	"github.com/gin-gonic/gin"
)

// POST /api/webhooks/payment
// Body mentah dibaca langsung; signature dihitung atas byte persis seperti
// yang dikirim gateway, jadi jangan lewat binding JSON dulu.
func PaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "gagal membaca body", err)
		return
	}

	reqID := middleware.GetRequestID(c)
	svc := services.WebhookService{
		BookingRepo: repositories.BookingRepository{},
		EventRepo:   repositories.EventRepository{},
		Notifier:    notifier(reqID),
		Secret:      cfg.Payment.WebhookSecret,
		Tolerance:   payments.DefaultTolerance,
		RequestID:   reqID,
	}

	if err := svc.HandleEvent(body, c.GetHeader("Stripe-Signature")); err != nil {
		RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
