package models

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"gorm.io/gorm"
)

// Booking lifecycle states.
const (
	BookingPending    = "pending"
	BookingConfirmed  = "confirmed"
	BookingCheckedIn  = "checked-in"
	BookingCheckedOut = "checked-out"
	BookingCancelled  = "cancelled"
	BookingRefunded   = "refunded"
)

// Who cancelled a booking.
const (
	CancelledByGuest  = "guest"
	CancelledByHost   = "host"
	CancelledByAdmin  = "admin"
	CancelledBySystem = "system"
)

// BlockingStatuses are the states that make a date range unavailable.
// Pending bookings do not hold dates; they only block once paid.
var BlockingStatuses = []string{BookingConfirmed, BookingCheckedIn, BookingCheckedOut}

// PendingExpiryWindow is how long an unpaid booking holds its intent
// before the system cancels it.
const PendingExpiryWindow = 24 * time.Hour

type Booking struct {
	gorm.Model
	BookingNumber string `json:"bookingNumber" gorm:"uniqueIndex"`
	UserID        uint   `json:"userID" gorm:"index"`
	PropertyID    uint   `json:"propertyID" gorm:"index"`
	HostID        uint   `json:"hostID" gorm:"index"`

	CheckIn  time.Time `json:"checkIn" gorm:"index"`
	CheckOut time.Time `json:"checkOut" gorm:"index"`
	Nights   int       `json:"nights"`

	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
	Pets     int `json:"pets"`

	// Pricing snapshot, frozen from the property's fee schedule at
	// creation time. Later fee edits never reprice a booking.
	BasePrice   float64 `json:"basePrice"`
	CleaningFee float64 `json:"cleaningFee"`
	ServiceFee  float64 `json:"serviceFee"`
	Taxes       float64 `json:"taxes"`
	TotalAmount float64 `json:"totalAmount"`
	Currency    string  `json:"currency" gorm:"type:varchar(3);default:USD"`

	Status    string     `json:"status" gorm:"type:varchar(20);default:pending;index"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`

	SpecialRequests string `json:"specialRequests,omitempty" gorm:"type:text"`

	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CancelledBy        string     `json:"cancelledBy,omitempty" gorm:"type:varchar(10)"`
	CancellationReason string     `json:"cancellationReason,omitempty"`
	RefundAmount       float64    `json:"refundAmount"`

	User     *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Property *Property `json:"property,omitempty" gorm:"foreignKey:PropertyID"`
	Host     *User     `json:"host,omitempty" gorm:"foreignKey:HostID"`
	Payment  *Payment  `json:"payment,omitempty" gorm:"foreignKey:BookingID"`
}

// Overlaps reports whether two half-open [start, end) date ranges
// intersect. Back-to-back ranges sharing a boundary day do not.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// NightsBetween counts billable nights, rounding partial days up.
func NightsBetween(checkIn, checkOut time.Time) int {
	return int(math.Ceil(checkOut.Sub(checkIn).Hours() / 24))
}

// ComputePricing snapshots the property's fee schedule onto the booking:
// nightly rate times nights, plus the flat fees.
func (b *Booking) ComputePricing(p *Property) {
	b.Nights = NightsBetween(b.CheckIn, b.CheckOut)
	b.BasePrice = p.BasePrice * float64(b.Nights)
	b.CleaningFee = p.CleaningFee
	b.ServiceFee = p.ServiceFee
	b.Taxes = p.Taxes
	b.TotalAmount = b.BasePrice + b.CleaningFee + b.ServiceFee + b.Taxes
	b.Currency = p.Currency
}

// TotalGuests counts the occupants that consume capacity. Pets do not.
func (b *Booking) TotalGuests() int {
	return b.Adults + b.Children + b.Infants
}

// CanCancel reports whether the booking is in a cancellable state.
func (b *Booking) CanCancel() bool {
	switch b.Status {
	case BookingPending, BookingConfirmed, BookingCheckedIn:
		return true
	}
	return false
}

// DaysUntilCheckIn counts whole days remaining before check-in, rounding
// partial days up. Past check-ins yield negative values.
func (b *Booking) DaysUntilCheckIn(now time.Time) int {
	return int(math.Ceil(b.CheckIn.Sub(now).Hours() / 24))
}

// RefundForCancellation applies the tiered refund schedule: 80% with a
// week or more of notice, 50% with three to six days, nothing inside
// three days.
func (b *Booking) RefundForCancellation(now time.Time) float64 {
	days := b.DaysUntilCheckIn(now)
	switch {
	case days >= 7:
		return b.TotalAmount * 0.8
	case days >= 3:
		return b.TotalAmount * 0.5
	default:
		return 0
	}
}

// Cancel records the cancellation and the refund owed under the tiered
// schedule.
func (b *Booking) Cancel(by, reason string, now time.Time) {
	b.RefundAmount = b.RefundForCancellation(now)
	b.Status = BookingCancelled
	b.CancelledAt = &now
	b.CancelledBy = by
	b.CancellationReason = reason
}

// SettleRefund pushes the booking's owed refund through its captured
// payment. The booking flips to refunded only when the payment is fully
// refunded; partial tiers leave it cancelled.
func (b *Booking) SettleRefund(p *Payment, reason, processedBy string, now time.Time) error {
	if err := p.ProcessRefund(b.RefundAmount, reason, processedBy, now); err != nil {
		return err
	}
	if p.Status == PaymentRefunded {
		b.Status = BookingRefunded
	}
	return nil
}

// PendingExpired reports whether an unpaid booking has outlived its
// payment window.
func (b *Booking) PendingExpired(now time.Time) bool {
	return b.Status == BookingPending && b.ExpiresAt != nil && b.ExpiresAt.Before(now)
}

// NewBookingNumber builds a reference like BK483920017 from the clock's
// trailing digits plus a random suffix.
func NewBookingNumber(now time.Time) string {
	ms := now.UnixMilli()
	return fmt.Sprintf("BK%06d%03d", ms%1000000, rand.Intn(1000))
}
