package api

import (
	stdhttp "net/http"

	intconfig "travelbook/internal/config"
	h "travelbook/internal/http/handlers"
	"travelbook/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func NewRouter(cfg *intconfig.Config) *gin.Engine {
	h.Configure(cfg)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		gin.Recovery(),
		middleware.CORS(cfg.Server.CORSOrigins),
		middleware.Auth([]byte(cfg.JWT.Secret)),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		logrus.Warnf("gagal set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route tidak ditemukan",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)

		// Auth
		auth := api.Group("/auth")
		auth.POST("/login", h.Login)
		auth.POST("/register", h.Register)

		// Checkout (guest boleh)
		api.POST("/checkout", h.Checkout)
		api.POST("/checkout/balance", h.CheckoutBalance)

		// Webhook gateway pembayaran
		api.POST("/webhooks/payment", h.PaymentWebhook)

		// Halaman status booking (guest pakai ?token=)
		bookings := api.Group("/bookings")
		bookings.GET("/:id", h.GetBooking)
		bookings.GET("/:id/voucher", h.GetBookingVoucherPDF)
		bookings.GET("/:id/invoice", h.GetBookingInvoicePDF)
		bookings.POST("/claim", middleware.RequireAuth(), h.ClaimBooking)

		// Review via token sekali pakai
		reviews := api.Group("/reviews")
		reviews.GET("/:token", h.GetReviewForm)
		reviews.POST("/:token", h.SubmitReviews)

		// Akun login
		my := api.Group("/my", middleware.RequireAuth())
		my.GET("/bookings", h.MyBookings)

		// Admin
		admin := api.Group("/admin", middleware.RequireAuth(), middleware.RequireRoles("admin"))
		admin.GET("/bookings", h.AdminListBookings)
		admin.PUT("/bookings/:id/status", h.AdminSetBookingStatus)
		admin.PUT("/bookings/:id/payment-status", h.AdminSetPaymentStatus)
		admin.POST("/bookings/:id/review-request", h.AdminIssueReviewRequest)
		admin.PUT("/reviews/:id/approve", h.AdminApproveReview)
		admin.GET("/notification-settings", h.AdminListNotificationSettings)
		admin.PUT("/notification-settings", h.AdminUpsertNotificationSetting)
	}

	return r
}
