package routes

import (
	"errors"
	"time"

	"github.com/Aashritha22/airbnb/models"
	"github.com/Aashritha22/airbnb/storage"
	"github.com/Aashritha22/airbnb/utils"
	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateBookingInput struct {
	PropertyID      uint   `json:"propertyID" validate:"required"`
	CheckIn         string `json:"checkIn" validate:"required"`
	CheckOut        string `json:"checkOut" validate:"required"`
	Adults          int    `json:"adults" validate:"required,min=1,max=20"`
	Children        int    `json:"children" validate:"min=0,max=10"`
	Infants         int    `json:"infants" validate:"min=0,max=5"`
	Pets            int    `json:"pets" validate:"min=0,max=3"`
	SpecialRequests string `json:"specialRequests" validate:"max=1000"`
}

// CreateBooking reserves a pending booking. Availability is checked and
// the row inserted inside one transaction holding a lock on the property
// row, so two concurrent requests for the same dates cannot both pass
// the conflict check.
func CreateBooking(ctx iris.Context) {
	claims := utils.Claims(ctx)

	var input CreateBookingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	checkIn, err := parseDate(input.CheckIn)
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "checkIn must be YYYY-MM-DD")
		return
	}
	checkOut, err := parseDate(input.CheckOut)
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "checkOut must be YYYY-MM-DD")
		return
	}

	now := utils.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if checkIn.Before(today) {
		utils.Error(ctx, iris.StatusBadRequest, "INVALID_DATES", "Check-in date cannot be in the past")
		return
	}
	if !checkOut.After(checkIn) {
		utils.Error(ctx, iris.StatusBadRequest, "INVALID_DATES", "Check-out date must be after check-in date")
		return
	}

	var booking models.Booking
	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		var property models.Property
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&property, input.PropertyID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failWith(iris.StatusNotFound, "PROPERTY_NOT_FOUND", "Property not found")
		}
		if err != nil {
			return err
		}

		if property.IsActive == nil || !*property.IsActive || property.IsBlocked {
			return failWith(iris.StatusBadRequest, "PROPERTY_NOT_AVAILABLE", "Property is not available for booking")
		}
		if property.HostID == claims.ID {
			return failWith(iris.StatusBadRequest, "OWN_PROPERTY", "You cannot book your own property")
		}

		nights := models.NightsBetween(checkIn, checkOut)
		if nights < property.MinimumStay {
			return failWith(iris.StatusBadRequest, "MINIMUM_STAY_NOT_MET", "Stay is shorter than the property's minimum")
		}
		if property.MaximumStay > 0 && nights > property.MaximumStay {
			return failWith(iris.StatusBadRequest, "MAXIMUM_STAY_EXCEEDED", "Stay is longer than the property's maximum")
		}

		if input.Adults+input.Children+input.Infants > property.MaxGuests {
			return failWith(iris.StatusBadRequest, "GUEST_LIMIT_EXCEEDED", "Property cannot accommodate this many guests")
		}
		if input.Pets > 0 && !property.PetsAllowed {
			return failWith(iris.StatusBadRequest, "PETS_NOT_ALLOWED", "Property does not allow pets")
		}

		if blockedByHost(&property, checkIn, checkOut) {
			return failWith(iris.StatusBadRequest, "PROPERTY_NOT_AVAILABLE", "Property is not available for these dates")
		}
		conflicts, err := countConflicts(tx, property.ID, checkIn, checkOut, 0)
		if err != nil {
			return err
		}
		if conflicts > 0 {
			return failWith(iris.StatusBadRequest, "PROPERTY_NOT_AVAILABLE", "Property is not available for these dates")
		}

		expires := now.Add(models.PendingExpiryWindow)
		booking = models.Booking{
			BookingNumber:   models.NewBookingNumber(now),
			UserID:          claims.ID,
			PropertyID:      property.ID,
			HostID:          property.HostID,
			CheckIn:         checkIn,
			CheckOut:        checkOut,
			Adults:          input.Adults,
			Children:        input.Children,
			Infants:         input.Infants,
			Pets:            input.Pets,
			Status:          models.BookingPending,
			ExpiresAt:       &expires,
			SpecialRequests: input.SpecialRequests,
		}
		booking.ComputePricing(&property)

		return tx.Create(&booking).Error
	})
	if txErr != nil {
		renderError(ctx, txErr)
		return
	}

	storage.DB.Preload("Property").First(&booking, booking.ID)
	utils.Success(ctx, iris.StatusCreated, booking)
}

// GetBookings lists the caller's bookings, newest first, optionally
// filtered by status.
func GetBookings(ctx iris.Context) {
	claims := utils.Claims(ctx)
	page, limit, offset := utils.Paging(ctx, 10)

	q := storage.DB.Model(&models.Booking{}).Where("user_id = ?", claims.ID)
	if status := ctx.URLParam("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	var bookings []models.Booking
	if err := q.Preload("Property").Preload("Payment").
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&bookings).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	utils.SuccessPage(ctx, bookings, page, limit, total)
}

// GetHostBookings lists bookings on the caller's properties.
func GetHostBookings(ctx iris.Context) {
	claims := utils.Claims(ctx)
	page, limit, offset := utils.Paging(ctx, 10)

	q := storage.DB.Model(&models.Booking{}).Where("host_id = ?", claims.ID)
	if status := ctx.URLParam("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	var bookings []models.Booking
	if err := q.Preload("Property").Preload("User").
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&bookings).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	utils.SuccessPage(ctx, bookings, page, limit, total)
}

// GetBooking returns one booking, visible only to its guest, its host,
// or an admin.
func GetBooking(ctx iris.Context) {
	claims := utils.Claims(ctx)
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return
	}

	var booking models.Booking
	err = storage.DB.Preload("Property").Preload("User").Preload("Payment").
		First(&booking, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, iris.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found")
		return
	}
	if err != nil {
		utils.InternalError(ctx, err)
		return
	}

	if booking.UserID != claims.ID && booking.HostID != claims.ID && !claims.IsAdmin() {
		utils.Error(ctx, iris.StatusForbidden, "ACCESS_DENIED", "Not authorized to access this booking")
		return
	}
	utils.Success(ctx, iris.StatusOK, booking)
}

type CancelBookingInput struct {
	Reason string `json:"reason" validate:"max=500"`
}

// CancelBooking cancels a booking the caller owns (or hosts, or
// administers), applies the refund schedule, and when a captured
// payment exists refunds it in the same transaction.
func CancelBooking(ctx iris.Context) {
	claims := utils.Claims(ctx)
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return
	}

	var input CancelBookingInput
	_ = ctx.ReadJSON(&input)

	now := utils.Now()
	var booking models.Booking
	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&booking, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failWith(iris.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found")
		}
		if err != nil {
			return err
		}

		by := models.CancelledByGuest
		switch {
		case booking.UserID == claims.ID:
		case booking.HostID == claims.ID:
			by = models.CancelledByHost
		case claims.IsAdmin():
			by = models.CancelledByAdmin
		default:
			return failWith(iris.StatusForbidden, "ACCESS_DENIED", "Not authorized to cancel this booking")
		}

		if booking.Status == models.BookingCancelled || booking.Status == models.BookingRefunded {
			return failWith(iris.StatusBadRequest, "ALREADY_CANCELLED", "Booking is already cancelled")
		}
		if !booking.CanCancel() {
			return failWith(iris.StatusBadRequest, "CANNOT_CANCEL", "Booking can no longer be cancelled")
		}

		booking.Cancel(by, input.Reason, now)

		// Refund any captured payment under the same schedule.
		var payment models.Payment
		err = tx.Where("booking_id = ?", booking.ID).First(&payment).Error
		if err == nil && booking.RefundAmount > 0 {
			switch payment.Status {
			case models.PaymentCompleted, models.PaymentPartiallyRefunded:
				if rerr := booking.SettleRefund(&payment, "booking cancelled", by, now); rerr != nil {
					return rerr
				}
				if rerr := tx.Save(&payment).Error; rerr != nil {
					return rerr
				}
			}
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Save(&booking).Error
	})
	if txErr != nil {
		renderError(ctx, txErr)
		return
	}

	utils.SuccessMessage(ctx, iris.StatusOK, booking, "Booking cancelled")
}

// CheckInBooking marks a confirmed booking as checked in. Host only.
func CheckInBooking(ctx iris.Context) {
	transitionBooking(ctx, models.BookingConfirmed, models.BookingCheckedIn, "Booking must be confirmed before check-in")
}

// CheckOutBooking marks a checked-in booking as checked out. Host only.
func CheckOutBooking(ctx iris.Context) {
	transitionBooking(ctx, models.BookingCheckedIn, models.BookingCheckedOut, "Booking must be checked in before check-out")
}

func transitionBooking(ctx iris.Context, from, to, requirement string) {
	claims := utils.Claims(ctx)
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return
	}

	var booking models.Booking
	err = storage.DB.First(&booking, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, iris.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found")
		return
	}
	if err != nil {
		utils.InternalError(ctx, err)
		return
	}

	if booking.HostID != claims.ID && !claims.IsAdmin() {
		utils.Error(ctx, iris.StatusForbidden, "ACCESS_DENIED", "Only the host can update this booking")
		return
	}
	if booking.Status != from {
		utils.Error(ctx, iris.StatusBadRequest, "INVALID_BOOKING_STATUS", requirement)
		return
	}

	if err := storage.DB.Model(&booking).Update("status", to).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	booking.Status = to
	utils.Success(ctx, iris.StatusOK, booking)
}

// CheckAvailability reports whether a property is open for a date range
// without creating anything.
func CheckAvailability(ctx iris.Context) {
	propertyID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "Invalid property id")
		return
	}
	checkIn, err := parseDate(ctx.URLParam("checkIn"))
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "checkIn must be YYYY-MM-DD")
		return
	}
	checkOut, err := parseDate(ctx.URLParam("checkOut"))
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "checkOut must be YYYY-MM-DD")
		return
	}
	if !checkOut.After(checkIn) {
		utils.Error(ctx, iris.StatusBadRequest, "INVALID_DATES", "Check-out date must be after check-in date")
		return
	}

	var property models.Property
	err = storage.DB.First(&property, propertyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, iris.StatusNotFound, "PROPERTY_NOT_FOUND", "Property not found")
		return
	}
	if err != nil {
		utils.InternalError(ctx, err)
		return
	}

	available := property.IsActive != nil && *property.IsActive && !property.IsBlocked &&
		!blockedByHost(&property, checkIn, checkOut)
	if available {
		conflicts, err := countConflicts(storage.DB, property.ID, checkIn, checkOut, 0)
		if err != nil {
			utils.InternalError(ctx, err)
			return
		}
		available = conflicts == 0
	}

	utils.Success(ctx, iris.StatusOK, iris.Map{
		"available": available,
		"checkIn":   checkIn.Format("2006-01-02"),
		"checkOut":  checkOut.Format("2006-01-02"),
		"nights":    models.NightsBetween(checkIn, checkOut),
	})
}

// AdminListBookings lists all bookings with status/property/user filters.
func AdminListBookings(ctx iris.Context) {
	page, limit, offset := utils.Paging(ctx, 10)

	q := storage.DB.Model(&models.Booking{})
	if status := ctx.URLParam("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if propertyID := ctx.URLParamIntDefault("propertyID", 0); propertyID > 0 {
		q = q.Where("property_id = ?", propertyID)
	}
	if userID := ctx.URLParamIntDefault("userID", 0); userID > 0 {
		q = q.Where("user_id = ?", userID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	var bookings []models.Booking
	if err := q.Preload("Property").Preload("User").Preload("Payment").
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&bookings).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	utils.SuccessPage(ctx, bookings, page, limit, total)
}

// AdminBookingStats aggregates booking counts, revenue and the occupancy
// implied by confirmed nights over the last 30 days.
func AdminBookingStats(ctx iris.Context) {
	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}

	var byStatus []statusCount
	if err := storage.DB.Model(&models.Booking{}).
		Select("status, COUNT(*) AS count").
		Group("status").Scan(&byStatus).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	var total int64
	storage.DB.Model(&models.Booking{}).Count(&total)

	var revenue float64
	storage.DB.Model(&models.Booking{}).
		Where("status IN ?", models.BlockingStatuses).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&revenue)

	since := utils.Now().AddDate(0, 0, -30)
	var bookedNights int64
	storage.DB.Model(&models.Booking{}).
		Where("status IN ? AND check_in >= ?", models.BlockingStatuses, since).
		Select("COALESCE(SUM(nights), 0)").Scan(&bookedNights)

	var activeProperties int64
	storage.DB.Model(&models.Property{}).Where("is_active = true").Count(&activeProperties)

	occupancy := 0.0
	if activeProperties > 0 {
		occupancy = float64(bookedNights) / float64(activeProperties*30) * 100
	}

	var averageValue float64
	storage.DB.Model(&models.Booking{}).
		Where("status IN ?", models.BlockingStatuses).
		Select("COALESCE(AVG(total_amount), 0)").Scan(&averageValue)

	utils.Success(ctx, iris.StatusOK, iris.Map{
		"total":         total,
		"byStatus":      byStatus,
		"totalRevenue":  revenue,
		"averageValue":  averageValue,
		"occupancyRate": occupancy,
	})
}
