package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Aashritha22/airbnb/models"
)

func TestBlockedByHost(t *testing.T) {
	ranges := []models.BlockedRange{
		{StartDate: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)},
	}
	raw, _ := json.Marshal(ranges)
	p := models.Property{BlockedDates: raw}

	in := time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC)
	out := time.Date(2026, 7, 8, 0, 0, 0, 0, time.UTC)
	if !blockedByHost(&p, in, out) {
		t.Fatal("range inside a host block should be unavailable")
	}

	// A stay starting the day the block ends is fine.
	in = time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	out = time.Date(2026, 7, 12, 0, 0, 0, 0, time.UTC)
	if blockedByHost(&p, in, out) {
		t.Fatal("stay starting at block end should be available")
	}

	empty := models.Property{}
	if blockedByHost(&empty, in, out) {
		t.Fatal("property with no blocks is always available")
	}
}

func TestRenderErrorUnwrapsHTTPError(t *testing.T) {
	he := failWith(404, "BOOKING_NOT_FOUND", "Booking not found")
	wrapped := fmt.Errorf("transaction rolled back: %w", he)

	var got *httpError
	if !errors.As(wrapped, &got) {
		t.Fatal("wrapped httpError not recovered")
	}
	if got.status != 404 || got.code != "BOOKING_NOT_FOUND" {
		t.Fatalf("got %d %s", got.status, got.code)
	}
}
