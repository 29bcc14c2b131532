package routes

import (
	"errors"

	"github.com/Aashritha22/airbnb/models"
	"github.com/Aashritha22/airbnb/storage"
	"github.com/Aashritha22/airbnb/utils"
	"github.com/google/uuid"
	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateIntentInput struct {
	BookingID     uint   `json:"bookingID" validate:"required"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=card paypal bank_transfer"`
}

// CreatePaymentIntent opens a payment against a pending booking,
// freezing the amount breakdown and fee split. An expired pending
// booking is cancelled here instead, so stale holds never collect money.
func CreatePaymentIntent(ctx iris.Context) {
	claims := utils.Claims(ctx)

	var input CreateIntentInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	now := utils.Now()
	var payment models.Payment
	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&booking, input.BookingID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failWith(iris.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found")
		}
		if err != nil {
			return err
		}

		if booking.UserID != claims.ID {
			return failWith(iris.StatusForbidden, "ACCESS_DENIED", "Not authorized to pay for this booking")
		}
		if booking.PendingExpired(now) {
			booking.Cancel(models.CancelledBySystem, "payment window expired", now)
			if serr := tx.Save(&booking).Error; serr != nil {
				return serr
			}
			return failWith(iris.StatusBadRequest, "BOOKING_EXPIRED", "Booking payment window has expired")
		}
		if booking.Status != models.BookingPending {
			return failWith(iris.StatusBadRequest, "INVALID_BOOKING_STATUS", "Booking is not awaiting payment")
		}

		var existing models.Payment
		err = tx.Where("booking_id = ?", booking.ID).First(&existing).Error
		if err == nil {
			switch existing.Status {
			case models.PaymentPending, models.PaymentProcessing:
				payment = existing
				return nil
			default:
				return failWith(iris.StatusBadRequest, "PAYMENT_EXISTS", "Booking already has a payment")
			}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		payment = models.Payment{
			PaymentNumber:   models.NewPaymentNumber(now),
			BookingID:       booking.ID,
			UserID:          booking.UserID,
			HostID:          booking.HostID,
			Amount:          booking.BasePrice,
			ServiceFee:      booking.ServiceFee,
			CleaningFee:     booking.CleaningFee,
			Taxes:           booking.Taxes,
			TotalAmount:     booking.TotalAmount,
			Currency:        booking.Currency,
			PlatformFee:     booking.ServiceFee * 0.1,
			HostAmount:      booking.TotalAmount * 0.85,
			TransactionFee:  booking.TotalAmount*0.029 + 0.30,
			PaymentMethod:   input.PaymentMethod,
			PaymentIntentID: "pi_" + uuid.NewString(),
			Status:          models.PaymentPending,
		}
		return tx.Create(&payment).Error
	})
	if txErr != nil {
		renderError(ctx, txErr)
		return
	}

	utils.Success(ctx, iris.StatusCreated, iris.Map{
		"payment":         payment,
		"paymentIntentID": payment.PaymentIntentID,
		"amount":          payment.TotalAmount,
		"currency":        payment.Currency,
	})
}

type ConfirmPaymentInput struct {
	PaymentIntentID string `json:"paymentIntentID" validate:"required"`
	TransactionID   string `json:"transactionID"`
}

// ConfirmPayment marks the intent completed and confirms the booking in
// one transaction. Confirmation re-checks availability under the
// property lock: a competing booking confirmed since the hold was taken
// fails this payment instead of double-booking the dates.
func ConfirmPayment(ctx iris.Context) {
	claims := utils.Claims(ctx)

	var input ConfirmPaymentInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	now := utils.Now()
	var payment models.Payment
	var booking models.Booking
	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("payment_intent_id = ?", input.PaymentIntentID).First(&payment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failWith(iris.StatusNotFound, "PAYMENT_NOT_FOUND", "Payment not found")
		}
		if err != nil {
			return err
		}
		if payment.UserID != claims.ID {
			return failWith(iris.StatusForbidden, "ACCESS_DENIED", "Not authorized to confirm this payment")
		}

		// A retried confirm may find the intent already processing.
		if payment.Status != models.PaymentProcessing {
			if err := payment.MarkProcessing(now); err != nil {
				return failWith(iris.StatusBadRequest, "INVALID_PAYMENT_STATE", "Payment cannot be completed from its current state")
			}
		}

		if err := tx.First(&booking, payment.BookingID).Error; err != nil {
			return err
		}
		if booking.PendingExpired(now) {
			booking.Cancel(models.CancelledBySystem, "payment window expired", now)
			if serr := tx.Save(&booking).Error; serr != nil {
				return serr
			}
			if cerr := payment.MarkCancelled(); cerr == nil {
				if serr := tx.Save(&payment).Error; serr != nil {
					return serr
				}
			}
			return failWith(iris.StatusBadRequest, "BOOKING_EXPIRED", "Booking payment window has expired")
		}
		if booking.Status != models.BookingPending {
			return failWith(iris.StatusBadRequest, "INVALID_BOOKING_STATUS", "Booking is not awaiting payment")
		}

		// The dates were only soft-held; make sure nothing confirmed in
		// between before this payment captures them.
		var property models.Property
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&property, booking.PropertyID).Error; err != nil {
			return err
		}
		conflicts, err := countConflicts(tx, booking.PropertyID, booking.CheckIn, booking.CheckOut, booking.ID)
		if err != nil {
			return err
		}
		if conflicts > 0 {
			if ferr := payment.MarkFailed("dates no longer available", now); ferr != nil {
				return ferr
			}
			if serr := tx.Save(&payment).Error; serr != nil {
				return serr
			}
			return failWith(iris.StatusBadRequest, "PROPERTY_NOT_AVAILABLE", "Property is no longer available for these dates")
		}

		if err := payment.MarkCompleted(input.TransactionID, now); err != nil {
			return failWith(iris.StatusBadRequest, "INVALID_PAYMENT_STATE", "Payment cannot be completed from its current state")
		}
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}

		booking.Status = models.BookingConfirmed
		booking.ExpiresAt = nil
		if err := tx.Model(&booking).Updates(map[string]interface{}{
			"status":     models.BookingConfirmed,
			"expires_at": nil,
		}).Error; err != nil {
			return err
		}

		// Roll the lifetime counters forward.
		if err := tx.Model(&models.Property{}).Where("id = ?", booking.PropertyID).
			UpdateColumns(map[string]interface{}{
				"total_bookings": gorm.Expr("total_bookings + 1"),
				"total_revenue":  gorm.Expr("total_revenue + ?", booking.TotalAmount),
			}).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", booking.UserID).
			UpdateColumns(map[string]interface{}{
				"total_bookings": gorm.Expr("total_bookings + 1"),
				"total_spent":    gorm.Expr("total_spent + ?", booking.TotalAmount),
			}).Error
	})
	if txErr != nil {
		renderError(ctx, txErr)
		return
	}

	utils.SuccessMessage(ctx, iris.StatusOK, iris.Map{
		"payment": payment,
		"booking": booking,
	}, "Payment confirmed")
}

type RefundInput struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Reason string  `json:"reason" validate:"max=500"`
}

// RefundPayment applies a full or partial refund. Admin only; the
// booking is marked refunded once its payment is fully returned.
func RefundPayment(ctx iris.Context) {
	admin := utils.AdminFromContext(ctx)
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "Invalid payment id")
		return
	}

	var input RefundInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	now := utils.Now()
	var payment models.Payment
	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&payment, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failWith(iris.StatusNotFound, "PAYMENT_NOT_FOUND", "Payment not found")
		}
		if err != nil {
			return err
		}

		before := payment
		err = payment.ProcessRefund(input.Amount, input.Reason, admin.Email, now)
		switch {
		case errors.Is(err, models.ErrInvalidState):
			return failWith(iris.StatusBadRequest, "INVALID_PAYMENT_STATE", "Payment is not in a refundable state")
		case errors.Is(err, models.ErrAmountExceeded):
			return failWith(iris.StatusBadRequest, "REFUND_AMOUNT_EXCEEDED", "Refund amount exceeds the remaining refundable amount")
		case err != nil:
			return err
		}

		if err := tx.Save(&payment).Error; err != nil {
			return err
		}
		if payment.Status == models.PaymentRefunded {
			if err := tx.Model(&models.Booking{}).Where("id = ?", payment.BookingID).
				Update("status", models.BookingRefunded).Error; err != nil {
				return err
			}
		}
		utils.Audit(ctx, "payment.refund", "payment", payment.ID, before, payment)
		return nil
	})
	if txErr != nil {
		renderError(ctx, txErr)
		return
	}

	utils.SuccessMessage(ctx, iris.StatusOK, payment, "Refund processed")
}

// GetPayment returns one payment, visible to its payer, the host being
// paid, or an admin.
func GetPayment(ctx iris.Context) {
	claims := utils.Claims(ctx)
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "Invalid payment id")
		return
	}

	var payment models.Payment
	err = storage.DB.Preload("Booking").First(&payment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, iris.StatusNotFound, "PAYMENT_NOT_FOUND", "Payment not found")
		return
	}
	if err != nil {
		utils.InternalError(ctx, err)
		return
	}

	if payment.UserID != claims.ID && payment.HostID != claims.ID && !claims.IsAdmin() {
		utils.Error(ctx, iris.StatusForbidden, "ACCESS_DENIED", "Not authorized to access this payment")
		return
	}
	utils.Success(ctx, iris.StatusOK, payment)
}

// GetMyPayments lists the caller's payments, newest first.
func GetMyPayments(ctx iris.Context) {
	claims := utils.Claims(ctx)
	page, limit, offset := utils.Paging(ctx, 10)

	q := storage.DB.Model(&models.Payment{}).Where("user_id = ?", claims.ID)
	if status := ctx.URLParam("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	var payments []models.Payment
	if err := q.Preload("Booking").Order("created_at DESC").
		Limit(limit).Offset(offset).Find(&payments).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	utils.SuccessPage(ctx, payments, page, limit, total)
}

// AdminListPayments lists all payments with status filtering.
func AdminListPayments(ctx iris.Context) {
	page, limit, offset := utils.Paging(ctx, 10)

	q := storage.DB.Model(&models.Payment{})
	if status := ctx.URLParam("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	var payments []models.Payment
	if err := q.Preload("Booking").Preload("User").Order("created_at DESC").
		Limit(limit).Offset(offset).Find(&payments).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	utils.SuccessPage(ctx, payments, page, limit, total)
}

// AdminPaymentStats aggregates captured volume, fees and refunds.
func AdminPaymentStats(ctx iris.Context) {
	type row struct {
		Status string  `json:"status"`
		Count  int64   `json:"count"`
		Sum    float64 `json:"sum"`
	}

	var byStatus []row
	if err := storage.DB.Model(&models.Payment{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS sum").
		Group("status").Scan(&byStatus).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	var captured, platformFees, refunded float64
	storage.DB.Model(&models.Payment{}).
		Where("status IN ?", []string{models.PaymentCompleted, models.PaymentPartiallyRefunded, models.PaymentRefunded}).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&captured)
	storage.DB.Model(&models.Payment{}).
		Where("status IN ?", []string{models.PaymentCompleted, models.PaymentPartiallyRefunded, models.PaymentRefunded}).
		Select("COALESCE(SUM(platform_fee), 0)").Scan(&platformFees)
	storage.DB.Model(&models.Payment{}).
		Select("COALESCE(SUM(refunded_amount), 0)").Scan(&refunded)

	utils.Success(ctx, iris.StatusOK, iris.Map{
		"byStatus":      byStatus,
		"totalCaptured": captured,
		"platformFees":  platformFees,
		"totalRefunded": refunded,
		"netRevenue":    captured - refunded,
	})
}
