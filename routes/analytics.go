package routes

import (
	"encoding/csv"
	"fmt"
	"time"

	"github.com/Aashritha22/airbnb/models"
	"github.com/Aashritha22/airbnb/storage"
	"github.com/Aashritha22/airbnb/utils"
	"github.com/kataras/iris/v12"
)

// analyticsWindow reads the from/to query params, defaulting to the
// last 30 days.
func analyticsWindow(ctx iris.Context) (time.Time, time.Time, error) {
	now := utils.Now()
	from := now.AddDate(0, 0, -30)
	to := now

	if raw := ctx.URLParam("from"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return from, to, err
		}
		from = parsed
	}
	if raw := ctx.URLParam("to"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return from, to, err
		}
		// Make the bound inclusive of the named day.
		to = parsed.AddDate(0, 0, 1)
	}
	return from, to, nil
}

// AnalyticsOverview is the cross-domain summary for a date window.
func AnalyticsOverview(ctx iris.Context) {
	from, to, err := analyticsWindow(ctx)
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "from/to must be YYYY-MM-DD")
		return
	}

	var newUsers, newProperties, newBookings int64
	storage.DB.Model(&models.User{}).Where("created_at >= ? AND created_at < ?", from, to).Count(&newUsers)
	storage.DB.Model(&models.Property{}).Where("created_at >= ? AND created_at < ?", from, to).Count(&newProperties)
	storage.DB.Model(&models.Booking{}).Where("created_at >= ? AND created_at < ?", from, to).Count(&newBookings)

	var revenue, refunds float64
	storage.DB.Model(&models.Payment{}).
		Where("completed_at >= ? AND completed_at < ?", from, to).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&revenue)
	storage.DB.Model(&models.Payment{}).
		Where("last_refund_at >= ? AND last_refund_at < ?", from, to).
		Select("COALESCE(SUM(refunded_amount), 0)").Scan(&refunds)

	var cancelled int64
	storage.DB.Model(&models.Booking{}).
		Where("cancelled_at >= ? AND cancelled_at < ?", from, to).Count(&cancelled)

	cancellationRate := 0.0
	if newBookings > 0 {
		cancellationRate = float64(cancelled) / float64(newBookings) * 100
	}

	utils.Success(ctx, iris.StatusOK, iris.Map{
		"from":             from.Format("2006-01-02"),
		"to":               to.AddDate(0, 0, -1).Format("2006-01-02"),
		"newUsers":         newUsers,
		"newProperties":    newProperties,
		"newBookings":      newBookings,
		"revenue":          revenue,
		"refunds":          refunds,
		"netRevenue":       revenue - refunds,
		"cancelledCount":   cancelled,
		"cancellationRate": cancellationRate,
	})
}

type revenueBucket struct {
	Bucket  time.Time `json:"bucket"`
	Revenue float64   `json:"revenue"`
	Count   int64     `json:"count"`
}

// analyticsBucket maps the groupBy query param onto a DATE_TRUNC
// granularity. Anything unrecognised falls back to day.
func analyticsBucket(ctx iris.Context) string {
	switch ctx.URLParamDefault("groupBy", "day") {
	case "week":
		return "week"
	case "month":
		return "month"
	default:
		return "day"
	}
}

// AnalyticsRevenue buckets captured payments per day, week or month.
func AnalyticsRevenue(ctx iris.Context) {
	from, to, err := analyticsWindow(ctx)
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "from/to must be YYYY-MM-DD")
		return
	}
	bucket := analyticsBucket(ctx)

	var buckets []revenueBucket
	if err := storage.DB.Model(&models.Payment{}).
		Where("completed_at >= ? AND completed_at < ?", from, to).
		Select(fmt.Sprintf(
			"DATE_TRUNC('%s', completed_at) AS bucket, COALESCE(SUM(total_amount), 0) AS revenue, COUNT(*) AS count",
			bucket)).
		Group("bucket").Order("bucket ASC").Scan(&buckets).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	utils.Success(ctx, iris.StatusOK, iris.Map{
		"groupBy": bucket,
		"buckets": buckets,
	})
}

type growthDay struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

// AnalyticsUsers buckets signups per day.
func AnalyticsUsers(ctx iris.Context) {
	from, to, err := analyticsWindow(ctx)
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "from/to must be YYYY-MM-DD")
		return
	}

	var days []growthDay
	if err := storage.DB.Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Select("DATE_TRUNC('day', created_at) AS day, COUNT(*) AS count").
		Group("day").Order("day ASC").Scan(&days).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	utils.Success(ctx, iris.StatusOK, days)
}

// AnalyticsBookings buckets new bookings per day alongside the day's
// cancellations, plus the window's top properties by revenue.
func AnalyticsBookings(ctx iris.Context) {
	from, to, err := analyticsWindow(ctx)
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "from/to must be YYYY-MM-DD")
		return
	}

	type bookingDay struct {
		Day       time.Time `json:"day"`
		Created   int64     `json:"created"`
		Cancelled int64     `json:"cancelled"`
	}
	var days []bookingDay
	if err := storage.DB.Model(&models.Booking{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Select(`DATE_TRUNC('day', created_at) AS day,
			COUNT(*) AS created,
			COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled`).
		Group("day").Order("day ASC").Scan(&days).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	type topProperty struct {
		PropertyID uint    `json:"propertyID"`
		Title      string  `json:"title"`
		City       string  `json:"city"`
		Bookings   int64   `json:"bookings"`
		Revenue    float64 `json:"revenue"`
	}
	var top []topProperty
	storage.DB.Model(&models.Booking{}).
		Joins("JOIN properties ON properties.id = bookings.property_id").
		Where("bookings.created_at >= ? AND bookings.created_at < ? AND bookings.status IN ?",
			from, to, models.BlockingStatuses).
		Select(`bookings.property_id AS property_id, properties.title, properties.city,
			COUNT(*) AS bookings, COALESCE(SUM(bookings.total_amount), 0) AS revenue`).
		Group("bookings.property_id, properties.title, properties.city").
		Order("revenue DESC").Limit(10).Scan(&top)

	utils.Success(ctx, iris.StatusOK, iris.Map{
		"trend":         days,
		"topProperties": top,
	})
}

// ExportBookingsCSV streams the window's bookings as a CSV download.
func ExportBookingsCSV(ctx iris.Context) {
	from, to, err := analyticsWindow(ctx)
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "from/to must be YYYY-MM-DD")
		return
	}

	var bookings []models.Booking
	if err := storage.DB.Preload("Property").Preload("User").
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").Find(&bookings).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	ctx.Header("Content-Type", "text/csv")
	ctx.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename="bookings_%s_%s.csv"`,
			from.Format("20060102"), to.Format("20060102")))

	w := csv.NewWriter(ctx.ResponseWriter())
	defer w.Flush()

	w.Write([]string{
		"bookingNumber", "status", "guestEmail", "propertyTitle", "city",
		"checkIn", "checkOut", "nights", "guests", "totalAmount", "currency",
		"refundAmount", "createdAt",
	})
	for _, b := range bookings {
		guestEmail, title, city := "", "", ""
		if b.User != nil {
			guestEmail = b.User.Email
		}
		if b.Property != nil {
			title = b.Property.Title
			city = b.Property.City
		}
		w.Write([]string{
			b.BookingNumber,
			b.Status,
			guestEmail,
			title,
			city,
			b.CheckIn.Format("2006-01-02"),
			b.CheckOut.Format("2006-01-02"),
			fmt.Sprintf("%d", b.Nights),
			fmt.Sprintf("%d", b.TotalGuests()),
			fmt.Sprintf("%.2f", b.TotalAmount),
			b.Currency,
			fmt.Sprintf("%.2f", b.RefundAmount),
			b.CreatedAt.Format(time.RFC3339),
		})
	}
}

// ExportUsersCSV streams the window's signups as a CSV download.
func ExportUsersCSV(ctx iris.Context) {
	from, to, err := analyticsWindow(ctx)
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "from/to must be YYYY-MM-DD")
		return
	}

	var users []models.User
	if err := storage.DB.
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").Find(&users).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	ctx.Header("Content-Type", "text/csv")
	ctx.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename="users_%s_%s.csv"`,
			from.Format("20060102"), to.Format("20060102")))

	w := csv.NewWriter(ctx.ResponseWriter())
	defer w.Flush()

	w.Write([]string{
		"email", "name", "isHost", "isVerified", "isBlocked",
		"totalBookings", "totalSpent", "createdAt",
	})
	for _, u := range users {
		w.Write([]string{
			u.Email,
			u.FullName(),
			fmt.Sprintf("%t", u.IsHost != nil && *u.IsHost),
			fmt.Sprintf("%t", u.IsVerified != nil && *u.IsVerified),
			fmt.Sprintf("%t", u.IsBlocked != nil && *u.IsBlocked),
			fmt.Sprintf("%d", u.TotalBookings),
			fmt.Sprintf("%.2f", u.TotalSpent),
			u.CreatedAt.Format(time.RFC3339),
		})
	}
}

// ExportPaymentsCSV streams the window's payments as a CSV download.
func ExportPaymentsCSV(ctx iris.Context) {
	from, to, err := analyticsWindow(ctx)
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "from/to must be YYYY-MM-DD")
		return
	}

	var payments []models.Payment
	if err := storage.DB.
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").Find(&payments).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	ctx.Header("Content-Type", "text/csv")
	ctx.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename="payments_%s_%s.csv"`,
			from.Format("20060102"), to.Format("20060102")))

	w := csv.NewWriter(ctx.ResponseWriter())
	defer w.Flush()

	w.Write([]string{
		"paymentNumber", "status", "totalAmount", "platformFee", "hostAmount",
		"refundedAmount", "currency", "paymentMethod", "createdAt",
	})
	for _, p := range payments {
		w.Write([]string{
			p.PaymentNumber,
			p.Status,
			fmt.Sprintf("%.2f", p.TotalAmount),
			fmt.Sprintf("%.2f", p.PlatformFee),
			fmt.Sprintf("%.2f", p.HostAmount),
			fmt.Sprintf("%.2f", p.RefundedAmount),
			p.Currency,
			p.PaymentMethod,
			p.CreatedAt.Format(time.RFC3339),
		})
	}
}
