package models

import (
	"errors"
	"testing"
	"time"
)

func completedPayment(total float64) Payment {
	return Payment{TotalAmount: total, Status: PaymentCompleted}
}

func TestProcessRefundPartialThenFull(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := completedPayment(100)

	if err := p.ProcessRefund(40, "guest cancelled", "admin@example.com", now); err != nil {
		t.Fatalf("first refund: %v", err)
	}
	if p.Status != PaymentPartiallyRefunded {
		t.Fatalf("status = %q, want partially_refunded", p.Status)
	}
	if p.RefundedAmount != 40 {
		t.Fatalf("refunded = %v, want 40", p.RefundedAmount)
	}
	if p.RemainingRefundable() != 60 {
		t.Fatalf("remaining = %v, want 60", p.RemainingRefundable())
	}

	if err := p.ProcessRefund(60, "remainder", "admin@example.com", now); err != nil {
		t.Fatalf("second refund: %v", err)
	}
	if p.Status != PaymentRefunded {
		t.Fatalf("status = %q, want refunded", p.Status)
	}
	if p.RefundedAmount != 100 {
		t.Fatalf("refunded = %v, want 100", p.RefundedAmount)
	}
	if p.RefundedAt == nil {
		t.Fatal("RefundedAt not set on full refund")
	}

	// Any further refund exceeds what is left.
	err := p.ProcessRefund(0.01, "again", "admin@example.com", now)
	if !errors.Is(err, ErrAmountExceeded) {
		t.Fatalf("err = %v, want ErrAmountExceeded", err)
	}
}

// Percentage tiers can land fractions of a cent away from the captured
// total; the refund still has to close the payment out rather than
// strand it partially refunded with an unreachable sliver.
func TestProcessRefundAbsorbsFloatDrift(t *testing.T) {
	now := time.Now().UTC()
	p := completedPayment(33.35)

	if err := p.ProcessRefund(33.35*0.8, "tier refund", "guest", now); err != nil {
		t.Fatalf("tier refund: %v", err)
	}
	if p.Status != PaymentPartiallyRefunded {
		t.Fatalf("status = %q, want partially_refunded", p.Status)
	}

	if err := p.ProcessRefund(6.67, "remainder", "admin", now); err != nil {
		t.Fatalf("remainder refund: %v", err)
	}
	if p.Status != PaymentRefunded {
		t.Fatalf("status = %q, want refunded", p.Status)
	}
	if p.RefundedAmount != p.TotalAmount {
		t.Fatalf("refunded = %v, want exactly %v", p.RefundedAmount, p.TotalAmount)
	}
	if p.RemainingRefundable() != 0 {
		t.Fatalf("remaining = %v, want 0", p.RemainingRefundable())
	}
}

func TestProcessRefundRejectsOverdraw(t *testing.T) {
	now := time.Now().UTC()
	p := completedPayment(100)
	if err := p.ProcessRefund(150, "too much", "admin", now); !errors.Is(err, ErrAmountExceeded) {
		t.Fatalf("err = %v, want ErrAmountExceeded", err)
	}
	if p.RefundedAmount != 0 || p.Status != PaymentCompleted {
		t.Fatal("failed refund must not mutate the payment")
	}
}

func TestProcessRefundRejectsBadStates(t *testing.T) {
	now := time.Now().UTC()
	for _, status := range []string{PaymentPending, PaymentProcessing, PaymentFailed, PaymentCancelled} {
		p := Payment{TotalAmount: 100, Status: status}
		if err := p.ProcessRefund(10, "r", "admin", now); !errors.Is(err, ErrInvalidState) {
			t.Errorf("status %s: err = %v, want ErrInvalidState", status, err)
		}
	}
}

func TestProcessRefundRejectsNonPositive(t *testing.T) {
	now := time.Now().UTC()
	p := completedPayment(100)
	if err := p.ProcessRefund(0, "zero", "admin", now); err == nil {
		t.Fatal("zero refund should fail")
	}
	if err := p.ProcessRefund(-5, "negative", "admin", now); err == nil {
		t.Fatal("negative refund should fail")
	}
}

func TestPaymentLifecycle(t *testing.T) {
	now := time.Now().UTC()
	p := Payment{Status: PaymentPending}

	if err := p.MarkProcessing(now); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := p.MarkCompleted("txn_123", now); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if p.TransactionID != "txn_123" || p.CompletedAt == nil {
		t.Fatal("completion record incomplete")
	}

	if err := p.MarkFailed("late", now); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("failing a completed payment: err = %v, want ErrInvalidState", err)
	}
	if err := p.MarkCancelled(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("cancelling a completed payment: err = %v, want ErrInvalidState", err)
	}
}

func TestMarkFailedFromPending(t *testing.T) {
	now := time.Now().UTC()
	p := Payment{Status: PaymentPending}
	if err := p.MarkFailed("card declined", now); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if p.Status != PaymentFailed || p.FailureReason != "card declined" {
		t.Fatal("failure record incomplete")
	}
}
