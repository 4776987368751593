package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"travelbook/internal/domain/models"
	"travelbook/internal/repositories"
	"travelbook/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocsService menghasilkan PDF voucher & invoice per booking.
type DocsService struct {
	BookingRepo repositories.BookingRepository
	ItemRepo    repositories.BookingItemRepository
	RequestID   string
	Loader      func(int64) (BookingDocData, error)
}

// BookingDocData is the snapshot a PDF is rendered from.
type BookingDocData struct {
	Booking models.Booking
	Items   []models.BookingItem
}

func (s DocsService) GenerateVoucher(bookingID int64) ([]byte, string, error) {
	data, err := s.load(bookingID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "generate_voucher", fmt.Sprintf("booking_id=%d", bookingID))
	return buildVoucherPDF(data)
}

func (s DocsService) GenerateInvoice(bookingID int64) ([]byte, string, error) {
	data, err := s.load(bookingID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "generate_invoice", fmt.Sprintf("booking_id=%d", bookingID))
	return buildInvoicePDF(data)
}

func (s DocsService) load(bookingID int64) (BookingDocData, error) {
	if s.Loader != nil {
		return s.Loader(bookingID)
	}
	booking, err := s.BookingRepo.GetByID(bookingID)
	if err != nil {
		return BookingDocData{}, err
	}
	items, err := s.ItemRepo.ListByBookingID(bookingID)
	if err != nil {
		return BookingDocData{}, err
	}
	return BookingDocData{Booking: booking, Items: items}, nil
}

func buildVoucherPDF(d BookingDocData) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking Voucher", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BOOKING VOUCHER")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	head := []string{
		fmt.Sprintf("Kode Booking : %s", d.Booking.ReferenceCode),
		fmt.Sprintf("Nama         : %s", safe(d.Booking.CustomerName, "-")),
		fmt.Sprintf("Email        : %s", safe(d.Booking.CustomerEmail, "-")),
		fmt.Sprintf("No HP        : %s", safe(d.Booking.CustomerPhone, "-")),
		fmt.Sprintf("Status       : %s / %s", d.Booking.BookingStatus, d.Booking.PaymentStatus),
	}
	for _, line := range head {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Rincian perjalanan:")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	for i, it := range d.Items {
		desc := fmt.Sprintf("%d) %s [%s]", i+1, safe(it.Title, "-"), it.ProductType)
		if it.TripDate != "" {
			desc += " - " + it.TripDate
		}
		pdf.MultiCell(0, 6, desc, "", "", false)
		detail := fmt.Sprintf("    %d pax", it.PassengerCount)
		if it.PickupLocation != "" || it.DropoffLocation != "" {
			detail += fmt.Sprintf(", %s -> %s", safe(it.PickupLocation, "-"), safe(it.DropoffLocation, "-"))
		}
		pdf.MultiCell(0, 6, detail, "", "", false)
		pdf.Ln(1)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Tunjukkan voucher ini (atau kode booking) kepada tim kami saat penjemputan.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("VOUCHER_%s.pdf", d.Booking.ReferenceCode)
	return buf.Bytes(), filename, nil
}

func buildInvoicePDF(d BookingDocData) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "INVOICE")
	pdf.Ln(12)

	invNo := fmt.Sprintf("INV-%d-%s", d.Booking.ID, d.Booking.ReferenceCode)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "No Invoice  : "+invNo)
	pdf.Ln(7)
	pdf.Cell(0, 7, "Tanggal     : "+utils.FormatDateTime(time.Now()))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Ditagihkan kepada:")
	pdf.Ln(7)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, fmt.Sprintf("Nama   : %s", safe(d.Booking.CustomerName, "-")))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Email  : %s", safe(d.Booking.CustomerEmail, "-")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Rincian:")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	for i, it := range d.Items {
		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		line := fmt.Sprintf("%d) %s x%d - %s", i+1, safe(it.Title, "-"), qty, utils.FormatRupiah(it.Subtotal()))
		pdf.MultiCell(0, 6, line, "", "", false)
	}
	pdf.Ln(4)

	pdf.Cell(0, 6, "Total       : "+utils.FormatRupiah(d.Booking.TotalAmount))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Dibayar     : "+utils.FormatRupiah(d.Booking.AmountPaid))
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Sisa        : "+utils.FormatRupiah(d.Booking.RemainingAmount))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Sisa tagihan dapat dilunasi lewat halaman booking Anda.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("INVOICE_%s.pdf", d.Booking.ReferenceCode)
	return buf.Bytes(), filename, nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
