package routes

import (
	"errors"
	"time"

	"github.com/Aashritha22/airbnb/models"
	"github.com/Aashritha22/airbnb/utils"
	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

// httpError carries a coded failure out of a transaction closure so the
// handler can render the envelope after rollback.
type httpError struct {
	status  int
	code    string
	message string
}

func (e *httpError) Error() string { return e.message }

func failWith(status int, code, message string) *httpError {
	return &httpError{status: status, code: code, message: message}
}

// renderError writes an httpError as the response envelope; anything
// else becomes a generic internal error.
func renderError(ctx iris.Context, err error) {
	var he *httpError
	if errors.As(err, &he) {
		utils.Error(ctx, he.status, he.code, he.message)
		return
	}
	utils.InternalError(ctx, err)
}

// parseDate reads a YYYY-MM-DD value as a UTC midnight instant.
func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

// countConflicts counts date-holding bookings that overlap [checkIn,
// checkOut) on the property. excludeID skips one booking, for reprice
// and availability checks on an existing reservation.
func countConflicts(tx *gorm.DB, propertyID uint, checkIn, checkOut time.Time, excludeID uint) (int64, error) {
	q := tx.Model(&models.Booking{}).
		Where("property_id = ? AND status IN ?", propertyID, models.BlockingStatuses).
		Where("check_in < ? AND check_out > ?", checkOut, checkIn)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

// blockedByHost reports whether any host calendar block overlaps the
// requested range.
func blockedByHost(p *models.Property, checkIn, checkOut time.Time) bool {
	for _, r := range p.BlockedRanges() {
		if models.Overlaps(checkIn, checkOut, r.StartDate, r.EndDate) {
			return true
		}
	}
	return false
}
