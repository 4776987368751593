package handlers

import (
	"net/http"

	"travelbook/internal/domain/models"
	"travelbook/internal/http/middleware"
	"travelbook/internal/services"

	"github.com/gin-gonic/gin"
)

// GET /api/bookings/:id/voucher?token=
// Voucher hanya keluar setelah lunas; akses mengikuti kontrak token yang
// sama dengan halaman booking.
func GetBookingVoucherPDF(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	detail, err := bookingService(c).GetDetail(id, c.Query("token"), middleware.GetRequestContext(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if detail.Booking.PaymentStatus != models.PaymentPaid {
		respondError(c, http.StatusForbidden, "payment_pending", "pembayaran belum lunas", nil)
		return
	}

	svc := services.DocsService{RequestID: middleware.GetRequestID(c)}
	svc.Loader = docsLoader(detail)

	pdfBytes, filename, err := svc.GenerateVoucher(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	servePDF(c, pdfBytes, filename)
}

// GET /api/bookings/:id/invoice?token=
func GetBookingInvoicePDF(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	detail, err := bookingService(c).GetDetail(id, c.Query("token"), middleware.GetRequestContext(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	svc := services.DocsService{RequestID: middleware.GetRequestID(c)}
	svc.Loader = docsLoader(detail)

	pdfBytes, filename, err := svc.GenerateInvoice(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	servePDF(c, pdfBytes, filename)
}

func docsLoader(detail services.BookingDetail) func(int64) (services.BookingDocData, error) {
	return func(int64) (services.BookingDocData, error) {
		return services.BookingDocData{Booking: detail.Booking, Items: detail.Items}, nil
	}
}

func servePDF(c *gin.Context, pdfBytes []byte, filename string) {
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
