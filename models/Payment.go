package models

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"
)

// Payment lifecycle states.
const (
	PaymentPending           = "pending"
	PaymentProcessing        = "processing"
	PaymentCompleted         = "completed"
	PaymentFailed            = "failed"
	PaymentCancelled         = "cancelled"
	PaymentPartiallyRefunded = "partially_refunded"
	PaymentRefunded          = "refunded"
)

var (
	// ErrInvalidState means the payment's current status does not permit
	// the requested transition.
	ErrInvalidState = errors.New("payment is not in a refundable state")
	// ErrAmountExceeded means a refund would push the refunded total past
	// the amount actually captured.
	ErrAmountExceeded = errors.New("refund amount exceeds remaining refundable amount")
)

// centEpsilon absorbs float drift when percentage tiers produce
// fractional cents, so a refund that lands within half a cent of the
// captured total still closes the payment out.
const centEpsilon = 0.005

type Payment struct {
	gorm.Model
	PaymentNumber string `json:"paymentNumber" gorm:"uniqueIndex"`
	BookingID     uint   `json:"bookingID" gorm:"uniqueIndex"`
	UserID        uint   `json:"userID" gorm:"index"`
	HostID        uint   `json:"hostID" gorm:"index"`

	// Amount breakdown, frozen from the booking at intent time.
	Amount         float64 `json:"amount"`
	ServiceFee     float64 `json:"serviceFee"`
	CleaningFee    float64 `json:"cleaningFee"`
	Taxes          float64 `json:"taxes"`
	TotalAmount    float64 `json:"totalAmount"`
	Currency       string  `json:"currency" gorm:"type:varchar(3);default:USD"`
	PlatformFee    float64 `json:"platformFee"`
	HostAmount     float64 `json:"hostAmount"`
	TransactionFee float64 `json:"transactionFee"`

	PaymentMethod   string `json:"paymentMethod" gorm:"type:varchar(20)"`
	PaymentIntentID string `json:"paymentIntentID" gorm:"index"`
	TransactionID   string `json:"transactionID"`

	Status        string `json:"status" gorm:"type:varchar(20);default:pending;index"`
	FailureReason string `json:"failureReason,omitempty"`

	ProcessedAt *time.Time `json:"processedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	FailedAt    *time.Time `json:"failedAt,omitempty"`
	RefundedAt  *time.Time `json:"refundedAt,omitempty"`

	// RefundedAmount accumulates across partial refunds and never
	// exceeds TotalAmount.
	RefundedAmount float64    `json:"refundedAmount"`
	RefundReason   string     `json:"refundReason,omitempty"`
	RefundedBy     string     `json:"refundedBy,omitempty"`
	LastRefundAt   *time.Time `json:"lastRefundAt,omitempty"`

	Booking *Booking `json:"booking,omitempty" gorm:"foreignKey:BookingID"`
	User    *User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// RemainingRefundable is how much of the captured total is still open to
// refund.
func (p *Payment) RemainingRefundable() float64 {
	return p.TotalAmount - p.RefundedAmount
}

// MarkProcessing moves a pending payment into processing.
func (p *Payment) MarkProcessing(now time.Time) error {
	if p.Status != PaymentPending {
		return ErrInvalidState
	}
	p.Status = PaymentProcessing
	p.ProcessedAt = &now
	return nil
}

// MarkCompleted records a successful capture.
func (p *Payment) MarkCompleted(transactionID string, now time.Time) error {
	switch p.Status {
	case PaymentPending, PaymentProcessing:
	default:
		return ErrInvalidState
	}
	p.Status = PaymentCompleted
	p.TransactionID = transactionID
	p.CompletedAt = &now
	return nil
}

// MarkFailed records a failed capture attempt.
func (p *Payment) MarkFailed(reason string, now time.Time) error {
	switch p.Status {
	case PaymentPending, PaymentProcessing:
	default:
		return ErrInvalidState
	}
	p.Status = PaymentFailed
	p.FailureReason = reason
	p.FailedAt = &now
	return nil
}

// MarkCancelled voids a payment that never captured.
func (p *Payment) MarkCancelled() error {
	switch p.Status {
	case PaymentPending, PaymentProcessing:
	default:
		return ErrInvalidState
	}
	p.Status = PaymentCancelled
	return nil
}

// ProcessRefund applies a full or partial refund against the captured
// total. A fully refunded payment passes the state gate and fails on the
// amount check, so over-refunding always reports ErrAmountExceeded.
func (p *Payment) ProcessRefund(amount float64, reason, processedBy string, now time.Time) error {
	switch p.Status {
	case PaymentCompleted, PaymentPartiallyRefunded, PaymentRefunded:
	default:
		return ErrInvalidState
	}
	if amount <= 0 || amount-p.RemainingRefundable() > centEpsilon {
		return ErrAmountExceeded
	}

	p.RefundedAmount += amount
	p.RefundReason = reason
	p.RefundedBy = processedBy
	p.LastRefundAt = &now
	if p.RemainingRefundable() < centEpsilon {
		p.RefundedAmount = p.TotalAmount
		p.Status = PaymentRefunded
		p.RefundedAt = &now
	} else {
		p.Status = PaymentPartiallyRefunded
	}
	return nil
}

// NewPaymentNumber builds a reference like PAY204817332.
func NewPaymentNumber(now time.Time) string {
	ms := now.UnixMilli()
	return fmt.Sprintf("PAY%06d%03d", ms%1000000, rand.Intn(1000))
}
