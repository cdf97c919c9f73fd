// Package payments simulates the payment gateway. Nothing is charged: a
// payment "completes" after a fixed processing and settle delay.
package payments

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknownMethod = errors.New("unknown payment method")
	ErrInvalidAmount = errors.New("invalid payment amount")
)

type Method string

const (
	MethodRazorpay Method = "razorpay"
	MethodStripe   Method = "stripe"
	MethodPayPal   Method = "paypal"
	MethodUPI      Method = "upi"
)

func ParseMethod(raw string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(raw))); m {
	case MethodRazorpay, MethodStripe, MethodPayPal, MethodUPI:
		return m, nil
	case "":
		return MethodRazorpay, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, raw)
	}
}

// GSTRate is applied on top of the consultation amount.
const GSTRate = 0.18

type Quote struct {
	Base  float64 `json:"base"`
	GST   float64 `json:"gst"`
	Total float64 `json:"total"`
}

func QuoteFor(amount float64) Quote {
	base := math.Round(amount*100) / 100
	gst := math.Round(base*GSTRate*100) / 100
	return Quote{Base: base, GST: gst, Total: base + gst}
}

type Result struct {
	AppointmentID string    `json:"appointmentId"`
	InvoiceID     string    `json:"invoiceId"`
	Method        Method    `json:"method"`
	Quote         Quote     `json:"quote"`
	PaidAt        time.Time `json:"paidAt"`
}

type Simulator struct {
	processing time.Duration
	settle     time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

func NewSimulator(processing, settle time.Duration, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{processing: processing, settle: settle, now: time.Now, logger: logger}
}

// Charge starts a single-shot payment and returns at once. The result is
// delivered exactly once on the returned channel, which is buffered so the
// task completes even if nobody reads it.
func (s *Simulator) Charge(appointmentID string, method Method, amount float64) (<-chan Result, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %.2f", ErrInvalidAmount, amount)
	}
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		time.Sleep(s.processing)
		s.logger.Debug("payment processing finished", "appointment_id", appointmentID, "method", method)
		time.Sleep(s.settle)
		paidAt := s.now().UTC()
		out <- Result{
			AppointmentID: appointmentID,
			InvoiceID:     fmt.Sprintf("INV-%d-%s", paidAt.UnixMilli(), strings.SplitN(uuid.NewString(), "-", 2)[0]),
			Method:        method,
			Quote:         QuoteFor(amount),
			PaidAt:        paidAt,
		}
	}()
	return out, nil
}
