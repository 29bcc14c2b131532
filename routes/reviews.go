package routes

import (
	"errors"

	"github.com/Aashritha22/airbnb/models"
	"github.com/Aashritha22/airbnb/storage"
	"github.com/Aashritha22/airbnb/utils"
	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

type CreateReviewInput struct {
	BookingID           uint   `json:"bookingID" validate:"required"`
	RatingOverall       int    `json:"ratingOverall" validate:"required,min=1,max=5"`
	RatingCleanliness   int    `json:"ratingCleanliness" validate:"required,min=1,max=5"`
	RatingAccuracy      int    `json:"ratingAccuracy" validate:"required,min=1,max=5"`
	RatingCheckIn       int    `json:"ratingCheckIn" validate:"required,min=1,max=5"`
	RatingCommunication int    `json:"ratingCommunication" validate:"required,min=1,max=5"`
	RatingLocation      int    `json:"ratingLocation" validate:"required,min=1,max=5"`
	RatingValue         int    `json:"ratingValue" validate:"required,min=1,max=5"`
	Comment             string `json:"comment" validate:"required,max=2000"`
}

// CreateReview posts the guest's review of a checked-out stay and rolls
// the property's rating aggregates forward in the same transaction. The
// unique index on bookings backs up the duplicate check.
func CreateReview(ctx iris.Context) {
	claims := utils.Claims(ctx)

	var input CreateReviewInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var review models.Review
	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		err := tx.First(&booking, input.BookingID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failWith(iris.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found")
		}
		if err != nil {
			return err
		}

		if booking.UserID != claims.ID {
			return failWith(iris.StatusForbidden, "ACCESS_DENIED", "Only the guest can review this stay")
		}
		if booking.Status != models.BookingCheckedOut {
			return failWith(iris.StatusBadRequest, "STAY_NOT_COMPLETED", "Stay must be completed before reviewing")
		}

		var existing int64
		if err := tx.Model(&models.Review{}).Where("booking_id = ?", booking.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return failWith(iris.StatusBadRequest, "REVIEW_EXISTS", "Booking already has a review")
		}

		review = models.Review{
			BookingID:           booking.ID,
			PropertyID:          booking.PropertyID,
			GuestID:             claims.ID,
			HostID:              booking.HostID,
			RatingOverall:       input.RatingOverall,
			RatingCleanliness:   input.RatingCleanliness,
			RatingAccuracy:      input.RatingAccuracy,
			RatingCheckIn:       input.RatingCheckIn,
			RatingCommunication: input.RatingCommunication,
			RatingLocation:      input.RatingLocation,
			RatingValue:         input.RatingValue,
			Comment:             input.Comment,
		}
		if err := tx.Create(&review).Error; err != nil {
			return err
		}

		return recomputePropertyRatings(tx, booking.PropertyID)
	})
	if txErr != nil {
		renderError(ctx, txErr)
		return
	}

	utils.Success(ctx, iris.StatusCreated, &review)
}

// GetPropertyReviews lists a property's public reviews, newest first.
func GetPropertyReviews(ctx iris.Context) {
	propertyID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "Invalid property id")
		return
	}
	page, limit, offset := utils.Paging(ctx, 10)

	q := storage.DB.Model(&models.Review{}).
		Where("property_id = ? AND is_public = true", propertyID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	var reviews []models.Review
	if err := q.Preload("Guest").Order("created_at DESC").
		Limit(limit).Offset(offset).Find(&reviews).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	utils.SuccessPage(ctx, reviews, page, limit, total)
}

// GetMyReviews lists reviews the caller has written.
func GetMyReviews(ctx iris.Context) {
	claims := utils.Claims(ctx)
	page, limit, offset := utils.Paging(ctx, 10)

	q := storage.DB.Model(&models.Review{}).Where("guest_id = ?", claims.ID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	var reviews []models.Review
	if err := q.Preload("Property").Order("created_at DESC").
		Limit(limit).Offset(offset).Find(&reviews).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	utils.SuccessPage(ctx, reviews, page, limit, total)
}

type RespondReviewInput struct {
	Message string `json:"message" validate:"required,max=2000"`
}

// RespondToReview records the host's single public response to a review.
func RespondToReview(ctx iris.Context) {
	claims := utils.Claims(ctx)
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "Invalid review id")
		return
	}

	var input RespondReviewInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var review models.Review
	err = storage.DB.First(&review, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, iris.StatusNotFound, "REVIEW_NOT_FOUND", "Review not found")
		return
	}
	if err != nil {
		utils.InternalError(ctx, err)
		return
	}

	if review.HostID != claims.ID {
		utils.Error(ctx, iris.StatusForbidden, "ACCESS_DENIED", "Only the host can respond to this review")
		return
	}
	if review.RespondedAt != nil {
		utils.Error(ctx, iris.StatusBadRequest, "ALREADY_RESPONDED", "Review already has a response")
		return
	}

	now := utils.Now()
	review.ResponseMessage = input.Message
	review.RespondedAt = &now
	if err := storage.DB.Save(&review).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	utils.Success(ctx, iris.StatusOK, &review)
}

// AdminModerateReview toggles a review's public visibility.
func AdminModerateReview(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "Invalid review id")
		return
	}

	var input struct {
		IsPublic *bool `json:"isPublic" validate:"required"`
	}
	if err := ctx.ReadJSON(&input); err != nil || input.IsPublic == nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "isPublic is required")
		return
	}

	var review models.Review
	err = storage.DB.First(&review, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, iris.StatusNotFound, "REVIEW_NOT_FOUND", "Review not found")
		return
	}
	if err != nil {
		utils.InternalError(ctx, err)
		return
	}

	before := review
	review.IsPublic = input.IsPublic
	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&review).Error; err != nil {
			return err
		}
		return recomputePropertyRatings(tx, review.PropertyID)
	})
	if txErr != nil {
		utils.InternalError(ctx, txErr)
		return
	}

	utils.Audit(ctx, "review.moderate", "review", review.ID, before, review)
	utils.Success(ctx, iris.StatusOK, &review)
}

// recomputePropertyRatings re-derives a property's per-axis averages and
// public review count from scratch rather than maintaining running
// sums.
func recomputePropertyRatings(tx *gorm.DB, propertyID uint) error {
	type agg struct {
		Count         int64
		Overall       float64
		Cleanliness   float64
		Accuracy      float64
		CheckIn       float64
		Communication float64
		Location      float64
		Value         float64
	}
	var a agg
	err := tx.Model(&models.Review{}).
		Where("property_id = ? AND is_public = true", propertyID).
		Select(`COUNT(*) AS count,
			COALESCE(AVG(rating_overall), 0) AS overall,
			COALESCE(AVG(rating_cleanliness), 0) AS cleanliness,
			COALESCE(AVG(rating_accuracy), 0) AS accuracy,
			COALESCE(AVG(rating_check_in), 0) AS check_in,
			COALESCE(AVG(rating_communication), 0) AS communication,
			COALESCE(AVG(rating_location), 0) AS location,
			COALESCE(AVG(rating_value), 0) AS value`).
		Scan(&a).Error
	if err != nil {
		return err
	}

	return tx.Model(&models.Property{}).Where("id = ?", propertyID).
		UpdateColumns(map[string]interface{}{
			"review_count":         a.Count,
			"rating_overall":       a.Overall,
			"rating_cleanliness":   a.Cleanliness,
			"rating_accuracy":      a.Accuracy,
			"rating_check_in":      a.CheckIn,
			"rating_communication": a.Communication,
			"rating_location":      a.Location,
			"rating_value":         a.Value,
		}).Error
}
