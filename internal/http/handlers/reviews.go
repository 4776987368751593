package handlers

import (
	"net/http"

	"travelbook/internal/http/middleware"
	"travelbook/internal/repositories"
	"travelbook/internal/services"

	"github.com/gin-gonic/gin"
)

func reviewService(c *gin.Context) services.ReviewService {
	reqID := middleware.GetRequestID(c)
	return services.ReviewService{
		BookingRepo: repositories.BookingRepository{},
		ItemRepo:    repositories.BookingItemRepository{},
		ReviewRepo:  repositories.ReviewRepository{},
		EventRepo:   repositories.EventRepository{},
		Notifier:    notifier(reqID),
		RequestID:   reqID,
	}
}

// GET /api/reviews/:token
// Halaman review memvalidasi token dulu sebelum menampilkan form.
func GetReviewForm(c *gin.Context) {
	req, booking, items, err := reviewService(c).Validate(c.Param("token"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reference_code": booking.ReferenceCode,
		"customer_name":  booking.CustomerName,
		"expires_at":     req.ExpiresAt,
		"items":          itemsJSON(items),
	})
}

type submitReviewsRequest struct {
	Reviews []services.ReviewEntry `json:"reviews"`
}

// POST /api/reviews/:token
func SubmitReviews(c *gin.Context) {
	var req submitReviewsRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	if err := reviewService(c).Submit(c.Param("token"), req.Reviews); err != nil {
		RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "terima kasih, review Anda menunggu moderasi",
	})
}
