package routes

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/Aashritha22/airbnb/models"
	"github.com/Aashritha22/airbnb/storage"
	"github.com/Aashritha22/airbnb/utils"
	"github.com/kataras/iris/v12"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SearchProperties is the public catalog search. Filters: free text,
// category, price range, capacity, bedrooms, amenities, geo radius and
// date availability; results are paginated twelve per page.
func SearchProperties(ctx iris.Context) {
	page, limit, offset := utils.Paging(ctx, 12)

	q := storage.DB.Model(&models.Property{}).
		Where("is_active = true AND is_blocked = false")

	if text := strings.TrimSpace(ctx.URLParam("q")); text != "" {
		like := "%" + strings.ToLower(text) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(city) LIKE ? OR LOWER(country) LIKE ?",
			like, like, like, like)
	}
	if city := ctx.URLParam("city"); city != "" {
		q = q.Where("LOWER(city) = ?", strings.ToLower(city))
	}
	if categoryID := ctx.URLParamIntDefault("category", 0); categoryID > 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	if minPrice, err := ctx.URLParamFloat64("minPrice"); err == nil && minPrice > 0 {
		q = q.Where("base_price >= ?", minPrice)
	}
	if maxPrice, err := ctx.URLParamFloat64("maxPrice"); err == nil && maxPrice > 0 {
		q = q.Where("base_price <= ?", maxPrice)
	}
	if guests := ctx.URLParamIntDefault("guests", 0); guests > 0 {
		q = q.Where("max_guests >= ?", guests)
	}
	if bedrooms := ctx.URLParamIntDefault("bedrooms", 0); bedrooms > 0 {
		q = q.Where("bedrooms >= ?", bedrooms)
	}
	if ctx.URLParam("petsAllowed") == "true" {
		q = q.Where("pets_allowed = true")
	}

	// Amenity filter: the jsonb ids array must contain every requested id.
	if raw := ctx.URLParam("amenities"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "amenities must be a comma-separated id list")
				return
			}
			q = q.Where("amenities @> ?", datatypes.JSON(strconv.Itoa(id)))
		}
	}

	// Geo radius via haversine on the stored coordinates.
	lat, latErr := ctx.URLParamFloat64("lat")
	lng, lngErr := ctx.URLParamFloat64("lng")
	if latErr == nil && lngErr == nil {
		radius := 10.0
		if r, err := ctx.URLParamFloat64("radius"); err == nil && r > 0 {
			radius = r
		}
		q = q.Where(
			"(6371 * acos(LEAST(1, cos(radians(?)) * cos(radians(latitude)) * cos(radians(longitude) - radians(?)) + sin(radians(?)) * sin(radians(latitude))))) <= ?",
			lat, lng, lat, radius)
	}

	// Date availability: exclude properties with an overlapping
	// date-holding booking.
	checkInRaw, checkOutRaw := ctx.URLParam("checkIn"), ctx.URLParam("checkOut")
	if checkInRaw != "" && checkOutRaw != "" {
		checkIn, err := parseDate(checkInRaw)
		if err != nil {
			utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "checkIn must be YYYY-MM-DD")
			return
		}
		checkOut, err := parseDate(checkOutRaw)
		if err != nil {
			utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "checkOut must be YYYY-MM-DD")
			return
		}
		q = q.Where(
			"NOT EXISTS (SELECT 1 FROM bookings b WHERE b.property_id = properties.id AND b.deleted_at IS NULL AND b.status IN ? AND b.check_in < ? AND b.check_out > ?)",
			models.BlockingStatuses, checkOut, checkIn)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	order := "created_at DESC"
	switch ctx.URLParam("sort") {
	case "price_asc":
		order = "base_price ASC"
	case "price_desc":
		order = "base_price DESC"
	case "rating":
		order = "rating_overall DESC"
	}

	var properties []models.Property
	if err := q.Preload("Host").Preload("Category").
		Order(order).Limit(limit).Offset(offset).
		Find(&properties).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	utils.SuccessPage(ctx, properties, page, limit, total)
}

// GetProperty returns one listing and bumps its view counter.
func GetProperty(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "Invalid property id")
		return
	}

	var property models.Property
	err = storage.DB.Preload("Host").Preload("Category").
		Preload("Reviews", "is_public = true").First(&property, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, iris.StatusNotFound, "PROPERTY_NOT_FOUND", "Property not found")
		return
	}
	if err != nil {
		utils.InternalError(ctx, err)
		return
	}

	storage.DB.Model(&property).UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	property.ViewCount++

	utils.Success(ctx, iris.StatusOK, &property)
}

// GetCategories lists the active property categories in sort order.
func GetCategories(ctx iris.Context) {
	var categories []models.PropertyCategory
	if err := storage.DB.Where("is_active = true").
		Order("sort_order ASC, name ASC").Find(&categories).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	utils.Success(ctx, iris.StatusOK, categories)
}

// GetAmenities lists the amenity catalog grouped by category name.
func GetAmenities(ctx iris.Context) {
	var amenities []models.Amenity
	if err := storage.DB.Where("is_active = true").
		Order("category ASC, name ASC").Find(&amenities).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	utils.Success(ctx, iris.StatusOK, amenities)
}

type PropertyInput struct {
	Title       string  `json:"title" validate:"required,max=120"`
	Description string  `json:"description" validate:"required"`
	CategoryID  *uint   `json:"categoryID"`
	Address     string  `json:"address" validate:"required"`
	City        string  `json:"city" validate:"required"`
	State       string  `json:"state"`
	Country     string  `json:"country" validate:"required"`
	ZipCode     string  `json:"zipCode"`
	Latitude    float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude   float64 `json:"longitude" validate:"min=-180,max=180"`

	BasePrice   float64 `json:"basePrice" validate:"required,gt=0"`
	Currency    string  `json:"currency" validate:"omitempty,len=3"`
	CleaningFee float64 `json:"cleaningFee" validate:"min=0"`
	ServiceFee  float64 `json:"serviceFee" validate:"min=0"`
	Taxes       float64 `json:"taxes" validate:"min=0"`

	MaxGuests int     `json:"maxGuests" validate:"required,min=1,max=50"`
	Bedrooms  int     `json:"bedrooms" validate:"min=0"`
	Bathrooms float32 `json:"bathrooms" validate:"min=0"`
	Beds      int     `json:"beds" validate:"min=0"`

	Amenities  []uint                   `json:"amenities"`
	Images     []map[string]interface{} `json:"images"`
	HouseRules []string                 `json:"houseRules"`

	CheckInTime  string `json:"checkInTime"`
	CheckOutTime string `json:"checkOutTime"`
	MinimumStay  int    `json:"minimumStay" validate:"min=0"`
	MaximumStay  int    `json:"maximumStay" validate:"min=0"`

	SmokingAllowed bool `json:"smokingAllowed"`
	PetsAllowed    bool `json:"petsAllowed"`
	PartiesAllowed bool `json:"partiesAllowed"`

	CancellationPolicy string `json:"cancellationPolicy" validate:"omitempty,oneof=flexible moderate strict super-strict"`
}

// CreateProperty publishes a new listing owned by the caller and flags
// the account as a host. New listings await verification.
func CreateProperty(ctx iris.Context) {
	claims := utils.Claims(ctx)

	var input PropertyInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	property := models.Property{HostID: claims.ID}
	applyPropertyInput(&property, &input)

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&property).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", claims.ID).
			Update("is_host", true).Error
	})
	if txErr != nil {
		utils.InternalError(ctx, txErr)
		return
	}

	utils.Success(ctx, iris.StatusCreated, &property)
}

// UpdateProperty edits a listing the caller owns. Fee edits only affect
// future bookings; existing bookings keep their snapshot.
func UpdateProperty(ctx iris.Context) {
	property, ok := loadOwnedProperty(ctx)
	if !ok {
		return
	}

	var input PropertyInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	applyPropertyInput(property, &input)
	if err := storage.DB.Save(property).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	utils.Success(ctx, iris.StatusOK, property)
}

// DeleteProperty soft-deletes a listing the caller owns, unless it still
// has upcoming date-holding bookings.
func DeleteProperty(ctx iris.Context) {
	property, ok := loadOwnedProperty(ctx)
	if !ok {
		return
	}

	var upcoming int64
	if err := storage.DB.Model(&models.Booking{}).
		Where("property_id = ? AND status IN ? AND check_out > ?",
			property.ID, models.BlockingStatuses, utils.Now()).
		Count(&upcoming).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	if upcoming > 0 {
		utils.Error(ctx, iris.StatusBadRequest, "HAS_ACTIVE_BOOKINGS", "Property still has upcoming bookings")
		return
	}

	if err := storage.DB.Delete(property).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	ctx.JSON(iris.Map{"success": true, "message": "Property deleted"})
}

type BlockDatesInput struct {
	Ranges []models.BlockedRange `json:"ranges" validate:"required,dive"`
}

// BlockDates replaces the host's blocked calendar ranges.
func BlockDates(ctx iris.Context) {
	property, ok := loadOwnedProperty(ctx)
	if !ok {
		return
	}

	var input BlockDatesInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	for _, r := range input.Ranges {
		if !r.EndDate.After(r.StartDate) {
			utils.Error(ctx, iris.StatusBadRequest, "INVALID_DATES", "Each blocked range must end after it starts")
			return
		}
	}

	raw, err := json.Marshal(input.Ranges)
	if err != nil {
		utils.InternalError(ctx, err)
		return
	}
	if err := storage.DB.Model(property).Update("blocked_dates", datatypes.JSON(raw)).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	property.BlockedDates = raw
	utils.Success(ctx, iris.StatusOK, property)
}

// GetMyProperties lists the caller's own listings, including inactive
// and unverified ones.
func GetMyProperties(ctx iris.Context) {
	claims := utils.Claims(ctx)
	page, limit, offset := utils.Paging(ctx, 10)

	q := storage.DB.Model(&models.Property{}).Where("host_id = ?", claims.ID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	var properties []models.Property
	if err := q.Preload("Category").Order("created_at DESC").
		Limit(limit).Offset(offset).Find(&properties).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	utils.SuccessPage(ctx, properties, page, limit, total)
}

type VerifyPropertyInput struct {
	Status string `json:"status" validate:"required,oneof=verified rejected"`
	Notes  string `json:"notes" validate:"max=1000"`
}

// VerifyProperty moves a listing through the verification workflow.
// Admin only.
func VerifyProperty(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "Invalid property id")
		return
	}

	var input VerifyPropertyInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var property models.Property
	err = storage.DB.First(&property, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, iris.StatusNotFound, "PROPERTY_NOT_FOUND", "Property not found")
		return
	}
	if err != nil {
		utils.InternalError(ctx, err)
		return
	}

	before := property
	property.VerificationStatus = input.Status
	property.VerificationNotes = input.Notes
	property.IsVerified = input.Status == models.VerificationVerified
	if err := storage.DB.Save(&property).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	utils.Audit(ctx, "property.verify", "property", property.ID, before, property)
	utils.Success(ctx, iris.StatusOK, &property)
}

// AdminListProperties lists all listings regardless of state. Admin only.
func AdminListProperties(ctx iris.Context) {
	page, limit, offset := utils.Paging(ctx, 10)

	q := storage.DB.Model(&models.Property{})
	if status := ctx.URLParam("verificationStatus"); status != "" {
		q = q.Where("verification_status = ?", status)
	}
	if ctx.URLParam("blocked") == "true" {
		q = q.Where("is_blocked = true")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	var properties []models.Property
	if err := q.Preload("Host").Order("created_at DESC").
		Limit(limit).Offset(offset).Find(&properties).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	utils.SuccessPage(ctx, properties, page, limit, total)
}

// AdminPropertyStats aggregates the catalog by status and rating.
func AdminPropertyStats(ctx iris.Context) {
	var total, active, verified, blocked int64
	storage.DB.Model(&models.Property{}).Count(&total)
	storage.DB.Model(&models.Property{}).Where("is_active = true").Count(&active)
	storage.DB.Model(&models.Property{}).Where("is_verified = true").Count(&verified)
	storage.DB.Model(&models.Property{}).Where("is_blocked = true").Count(&blocked)

	var avgPrice, avgRating float64
	storage.DB.Model(&models.Property{}).Select("COALESCE(AVG(base_price), 0)").Scan(&avgPrice)
	storage.DB.Model(&models.Property{}).Where("review_count > 0").
		Select("COALESCE(AVG(rating_overall), 0)").Scan(&avgRating)

	type cityRow struct {
		City  string `json:"city"`
		Count int64  `json:"count"`
	}
	var topCities []cityRow
	storage.DB.Model(&models.Property{}).
		Select("city, COUNT(*) AS count").Group("city").
		Order("count DESC").Limit(10).Scan(&topCities)

	utils.Success(ctx, iris.StatusOK, iris.Map{
		"total":         total,
		"active":        active,
		"verified":      verified,
		"blocked":       blocked,
		"averagePrice":  avgPrice,
		"averageRating": avgRating,
		"topCities":     topCities,
	})
}

// loadOwnedProperty fetches the :id property and enforces ownership
// (admins pass). Writes the error response itself on failure.
func loadOwnedProperty(ctx iris.Context) (*models.Property, bool) {
	claims := utils.Claims(ctx)
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "Invalid property id")
		return nil, false
	}

	var property models.Property
	err = storage.DB.First(&property, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, iris.StatusNotFound, "PROPERTY_NOT_FOUND", "Property not found")
		return nil, false
	}
	if err != nil {
		utils.InternalError(ctx, err)
		return nil, false
	}

	if property.HostID != claims.ID && !claims.IsAdmin() {
		utils.Error(ctx, iris.StatusForbidden, "ACCESS_DENIED", "Not authorized to manage this property")
		return nil, false
	}
	return &property, true
}

func applyPropertyInput(p *models.Property, in *PropertyInput) {
	p.Title = in.Title
	p.Description = in.Description
	p.CategoryID = in.CategoryID
	p.Address = in.Address
	p.City = in.City
	p.State = in.State
	p.Country = in.Country
	p.ZipCode = in.ZipCode
	p.Latitude = in.Latitude
	p.Longitude = in.Longitude

	p.BasePrice = in.BasePrice
	if in.Currency != "" {
		p.Currency = strings.ToUpper(in.Currency)
	}
	p.CleaningFee = in.CleaningFee
	p.ServiceFee = in.ServiceFee
	p.Taxes = in.Taxes

	p.MaxGuests = in.MaxGuests
	p.Bedrooms = in.Bedrooms
	p.Bathrooms = in.Bathrooms
	p.Beds = in.Beds

	if in.Amenities != nil {
		raw, _ := json.Marshal(in.Amenities)
		p.Amenities = raw
	}
	if in.Images != nil {
		raw, _ := json.Marshal(in.Images)
		p.Images = raw
	}
	if in.HouseRules != nil {
		raw, _ := json.Marshal(in.HouseRules)
		p.HouseRules = raw
	}

	if in.CheckInTime != "" {
		p.CheckInTime = in.CheckInTime
	}
	if in.CheckOutTime != "" {
		p.CheckOutTime = in.CheckOutTime
	}
	if in.MinimumStay > 0 {
		p.MinimumStay = in.MinimumStay
	}
	if in.MaximumStay > 0 {
		p.MaximumStay = in.MaximumStay
	}

	p.SmokingAllowed = in.SmokingAllowed
	p.PetsAllowed = in.PetsAllowed
	p.PartiesAllowed = in.PartiesAllowed

	if in.CancellationPolicy != "" {
		p.CancellationPolicy = in.CancellationPolicy
	}
}
