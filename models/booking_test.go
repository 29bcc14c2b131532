package models

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"disjoint", day(2026, 3, 1), day(2026, 3, 5), day(2026, 3, 10), day(2026, 3, 12), false},
		{"contained", day(2026, 3, 1), day(2026, 3, 10), day(2026, 3, 3), day(2026, 3, 5), true},
		{"partial", day(2026, 3, 1), day(2026, 3, 5), day(2026, 3, 4), day(2026, 3, 8), true},
		{"identical", day(2026, 3, 1), day(2026, 3, 5), day(2026, 3, 1), day(2026, 3, 5), true},
		// A checkout and a check-in on the same day share the property
		// without conflict.
		{"back to back", day(2026, 3, 1), day(2026, 3, 5), day(2026, 3, 5), day(2026, 3, 9), false},
		{"back to back reversed", day(2026, 3, 5), day(2026, 3, 9), day(2026, 3, 1), day(2026, 3, 5), false},
	}
	for _, c := range cases {
		if got := Overlaps(c.aStart, c.aEnd, c.bStart, c.bEnd); got != c.want {
			t.Errorf("%s: Overlaps = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestNightsBetween(t *testing.T) {
	if got := NightsBetween(day(2026, 3, 1), day(2026, 3, 4)); got != 3 {
		t.Fatalf("nights = %d, want 3", got)
	}
	if got := NightsBetween(day(2026, 3, 1), day(2026, 3, 2)); got != 1 {
		t.Fatalf("nights = %d, want 1", got)
	}
	// Partial days round up.
	checkIn := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 3, 3, 11, 0, 0, 0, time.UTC)
	if got := NightsBetween(checkIn, checkOut); got != 2 {
		t.Fatalf("nights = %d, want 2", got)
	}
}

func TestComputePricing(t *testing.T) {
	property := Property{
		BasePrice:   100,
		CleaningFee: 20,
		ServiceFee:  15,
		Taxes:       10,
		Currency:    "USD",
	}
	booking := Booking{CheckIn: day(2026, 3, 1), CheckOut: day(2026, 3, 4)}
	booking.ComputePricing(&property)

	if booking.Nights != 3 {
		t.Fatalf("nights = %d, want 3", booking.Nights)
	}
	if booking.BasePrice != 300 {
		t.Fatalf("base = %v, want 300", booking.BasePrice)
	}
	if booking.TotalAmount != 345 {
		t.Fatalf("total = %v, want 345", booking.TotalAmount)
	}
	if booking.Currency != "USD" {
		t.Fatalf("currency = %q", booking.Currency)
	}
}

func TestRefundTiers(t *testing.T) {
	now := day(2026, 3, 1)
	cases := []struct {
		name    string
		checkIn time.Time
		want    float64
	}{
		{"ten days out", day(2026, 3, 11), 80},
		{"exactly seven days", day(2026, 3, 8), 80},
		{"five days out", day(2026, 3, 6), 50},
		{"exactly three days", day(2026, 3, 4), 50},
		{"one day out", day(2026, 3, 2), 0},
		{"same day", day(2026, 3, 1), 0},
		{"past check-in", day(2026, 2, 20), 0},
	}
	for _, c := range cases {
		b := Booking{CheckIn: c.checkIn, TotalAmount: 100}
		if got := b.RefundForCancellation(now); got != c.want {
			t.Errorf("%s: refund = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestDaysUntilCheckInRoundsUp(t *testing.T) {
	b := Booking{CheckIn: day(2026, 3, 8)}
	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	if got := b.DaysUntilCheckIn(now); got != 7 {
		t.Fatalf("days = %d, want 7", got)
	}
}

func TestCancel(t *testing.T) {
	now := day(2026, 3, 1)
	b := Booking{
		CheckIn:     day(2026, 3, 11),
		CheckOut:    day(2026, 3, 14),
		TotalAmount: 500,
		Status:      BookingConfirmed,
	}
	if !b.CanCancel() {
		t.Fatal("confirmed booking should be cancellable")
	}

	b.Cancel(CancelledByGuest, "change of plans", now)

	if b.Status != BookingCancelled {
		t.Fatalf("status = %q", b.Status)
	}
	if b.RefundAmount != 400 {
		t.Fatalf("refund = %v, want 400", b.RefundAmount)
	}
	if b.CancelledBy != CancelledByGuest || b.CancelledAt == nil {
		t.Fatal("cancellation record incomplete")
	}
	if b.CanCancel() {
		t.Fatal("cancelled booking should not be cancellable again")
	}
}

// A tier refund leaves money captured, so the booking must stay
// cancelled; only a refund covering the full total flips it to refunded.
func TestSettleRefundPartialTierKeepsBookingCancelled(t *testing.T) {
	now := day(2026, 3, 1)
	b := Booking{
		CheckIn:     day(2026, 3, 11),
		CheckOut:    day(2026, 3, 14),
		TotalAmount: 100,
		Status:      BookingConfirmed,
	}
	b.Cancel(CancelledByGuest, "change of plans", now)
	if b.RefundAmount != 80 {
		t.Fatalf("refund = %v, want 80", b.RefundAmount)
	}

	p := Payment{Status: PaymentCompleted, TotalAmount: 100}
	if err := b.SettleRefund(&p, "booking cancelled", CancelledByGuest, now); err != nil {
		t.Fatalf("settle refund: %v", err)
	}
	if p.Status != PaymentPartiallyRefunded {
		t.Fatalf("payment status = %q, want %q", p.Status, PaymentPartiallyRefunded)
	}
	if b.Status != BookingCancelled {
		t.Fatalf("booking status = %q, want %q", b.Status, BookingCancelled)
	}
}

func TestSettleRefundFullRefundFlipsBooking(t *testing.T) {
	now := day(2026, 3, 1)
	b := Booking{Status: BookingCancelled, TotalAmount: 100, RefundAmount: 100}
	p := Payment{Status: PaymentCompleted, TotalAmount: 100}

	if err := b.SettleRefund(&p, "booking cancelled", CancelledByAdmin, now); err != nil {
		t.Fatalf("settle refund: %v", err)
	}
	if p.Status != PaymentRefunded {
		t.Fatalf("payment status = %q, want %q", p.Status, PaymentRefunded)
	}
	if b.Status != BookingRefunded {
		t.Fatalf("booking status = %q, want %q", b.Status, BookingRefunded)
	}
}

func TestCanCancelStates(t *testing.T) {
	cancellable := map[string]bool{
		BookingPending:    true,
		BookingConfirmed:  true,
		BookingCheckedIn:  true,
		BookingCheckedOut: false,
		BookingCancelled:  false,
		BookingRefunded:   false,
	}
	for status, want := range cancellable {
		b := Booking{Status: status}
		if got := b.CanCancel(); got != want {
			t.Errorf("CanCancel(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestPendingExpired(t *testing.T) {
	now := day(2026, 3, 2)
	expired := now.Add(-time.Hour)
	live := now.Add(time.Hour)

	b := Booking{Status: BookingPending, ExpiresAt: &expired}
	if !b.PendingExpired(now) {
		t.Fatal("expected expired")
	}
	b.ExpiresAt = &live
	if b.PendingExpired(now) {
		t.Fatal("not yet expired")
	}
	b.Status = BookingConfirmed
	b.ExpiresAt = &expired
	if b.PendingExpired(now) {
		t.Fatal("confirmed bookings never expire")
	}
}

func TestTotalGuests(t *testing.T) {
	b := Booking{Adults: 2, Children: 1, Infants: 1, Pets: 1}
	if got := b.TotalGuests(); got != 4 {
		t.Fatalf("guests = %d, want 4", got)
	}
}
