package models

import (
	"testing"
	"time"
)

func TestAssign(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ticket := SupportTicket{Status: TicketOpen}

	ticket.Assign(7, now)

	if ticket.Status != TicketInProgress {
		t.Fatalf("status = %q, want in_progress", ticket.Status)
	}
	if ticket.AssignedToID == nil || *ticket.AssignedToID != 7 {
		t.Fatal("assignee not recorded")
	}
	if ticket.AssignedAt == nil || !ticket.AssignedAt.Equal(now) {
		t.Fatal("assignment time not recorded")
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	second := first.Add(2 * time.Hour)
	ticket := SupportTicket{Status: TicketInProgress}

	ticket.Resolve(first)
	ticket.Resolve(second)

	if ticket.Status != TicketResolved {
		t.Fatalf("status = %q", ticket.Status)
	}
	if !ticket.ResolvedAt.Equal(first) {
		t.Fatalf("ResolvedAt = %v, want first resolution time %v", ticket.ResolvedAt, first)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ticket := SupportTicket{Status: TicketResolved}

	ticket.Close(first)
	ticket.Close(first.Add(time.Hour))

	if ticket.Status != TicketClosed {
		t.Fatalf("status = %q", ticket.Status)
	}
	if !ticket.ClosedAt.Equal(first) {
		t.Fatalf("ClosedAt = %v, want %v", ticket.ClosedAt, first)
	}
}

func TestRecordResponse(t *testing.T) {
	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)
	ticket := SupportTicket{Status: TicketOpen}

	// User messages never stamp the first-response time.
	ticket.RecordResponse("user", first)
	if ticket.FirstResponseAt != nil {
		t.Fatal("user message must not set FirstResponseAt")
	}

	ticket.RecordResponse("admin", first)
	if ticket.FirstResponseAt == nil || !ticket.FirstResponseAt.Equal(first) {
		t.Fatal("first admin reply should stamp FirstResponseAt")
	}

	ticket.RecordResponse("admin", later)
	if !ticket.FirstResponseAt.Equal(first) {
		t.Fatal("later replies must not move FirstResponseAt")
	}
	if !ticket.LastActivityAt.Equal(later) {
		t.Fatal("every message should move LastActivityAt")
	}
}

func TestNewTicketNumberFormat(t *testing.T) {
	n := NewTicketNumber()
	if len(n) != 12 || n[:3] != "TKT" {
		t.Fatalf("ticket number %q should be TKT + 9 digits", n)
	}
}
