package service

import (
	"encoding/base64"
	"fmt"

	"smarteventscape/internal/models"
	"smarteventscape/internal/util"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const defaultQRSizePixels = 256

// Confirmation is the booking result view: a scannable code encoding
// the booking reference plus the purchase summary. Placeholder carries
// the display model's marker so substituted event data is never
// presented as real.
type Confirmation struct {
	Reference   string `json:"booking_reference"`
	QRDataURI   string `json:"qr_code,omitempty"`
	QRFallback  string `json:"qr_fallback,omitempty"`
	EventTitle  string `json:"event_title,omitempty"`
	EventDate   string `json:"event_date,omitempty"`
	Tickets     int    `json:"tickets"`
	TotalPaid   int64  `json:"total_paid"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// ConfirmationService renders booking confirmations
type ConfirmationService struct {
	sizePixels int
	logger     *zap.Logger
}

// NewConfirmationService creates a new confirmation service
func NewConfirmationService() *ConfirmationService {
	return &ConfirmationService{
		sizePixels: defaultQRSizePixels,
		logger:     util.GetLogger(),
	}
}

// Render builds the confirmation view for a booking. QR generation
// failure is non-fatal: the booking is already persisted, so a textual
// fallback carries the reference instead of the image. A nil event
// yields a reference-only confirmation, used when the event row no
// longer exists.
func (s *ConfirmationService) Render(booking *models.Booking, event *models.EventDisplay) *Confirmation {
	c := &Confirmation{
		Reference: booking.Reference,
		Tickets:   booking.Quantity,
		TotalPaid: booking.TotalAmount,
	}
	if event != nil {
		c.EventTitle = event.Title
		c.EventDate = event.Date
		c.Placeholder = event.Placeholder
	}

	uri, err := s.QRDataURI(booking.Reference)
	if err != nil {
		util.QRGenerationFailures.Inc()
		s.logger.Error("QR generation failed",
			zap.String("reference", booking.Reference),
			zap.Error(err))
		c.QRFallback = fmt.Sprintf("Your booking reference is %s", booking.Reference)
		return c
	}

	c.QRDataURI = uri
	return c
}

// QRDataURI encodes the given text as a QR PNG data URI. The encoded
// payload is exactly the input text.
func (s *ConfirmationService) QRDataURI(text string) (string, error) {
	png, err := s.PNG(text)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// PNG encodes the given text as raw QR PNG bytes for file download
func (s *ConfirmationService) PNG(text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("no reference to encode")
	}
	return qrcode.Encode(text, qrcode.Medium, s.sizePixels)
}
