package routes

import (
	"errors"
	"strings"

	"github.com/Aashritha22/airbnb/models"
	"github.com/Aashritha22/airbnb/storage"
	"github.com/Aashritha22/airbnb/utils"
	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

// Admin user management. Every handler here runs behind
// AdminOnlyMiddleware plus a users:* permission check, and every
// response uses the credential-free PublicUser view.

// ListUsers pages through accounts with optional search and state
// filters.
func ListUsers(ctx iris.Context) {
	page, limit, offset := utils.Paging(ctx, 10)

	q := storage.DB.Model(&models.User{})
	if search := strings.TrimSpace(ctx.URLParam("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}
	switch ctx.URLParam("filter") {
	case "hosts":
		q = q.Where("is_host = true")
	case "blocked":
		q = q.Where("is_blocked = true")
	case "unverified":
		q = q.Where("is_verified = false")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	var users []models.User
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	utils.SuccessPage(ctx, models.PublicUsers(users), page, limit, total)
}

// GetUser returns one account with its listings.
func GetUser(ctx iris.Context) {
	user, ok := loadUser(ctx)
	if !ok {
		return
	}

	var properties []models.Property
	storage.DB.Where("host_id = ?", user.ID).Find(&properties)

	utils.Success(ctx, iris.StatusOK, iris.Map{
		"user":       user.Public(),
		"properties": properties,
	})
}

type AdminUpdateUserInput struct {
	FirstName string `json:"firstName" validate:"omitempty,max=50"`
	LastName  string `json:"lastName" validate:"omitempty,max=50"`
	Phone     string `json:"phone"`
	IsActive  *bool  `json:"isActive"`
}

// UpdateUser patches profile and activation fields on an account.
func UpdateUser(ctx iris.Context) {
	user, ok := loadUser(ctx)
	if !ok {
		return
	}

	var input AdminUpdateUserInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	before := user.Public()
	if input.FirstName != "" {
		user.FirstName = input.FirstName
	}
	if input.LastName != "" {
		user.LastName = input.LastName
	}
	if input.Phone != "" {
		user.Phone = input.Phone
	}
	if input.IsActive != nil {
		user.IsActive = input.IsActive
	}

	if err := storage.DB.Save(user).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	utils.Audit(ctx, "user.update", "user", user.ID, before, user.Public())
	utils.Success(ctx, iris.StatusOK, user.Public())
}

// DeleteUser soft-deletes an account that has no upcoming date-holding
// bookings.
func DeleteUser(ctx iris.Context) {
	user, ok := loadUser(ctx)
	if !ok {
		return
	}

	var upcoming int64
	if err := storage.DB.Model(&models.Booking{}).
		Where("user_id = ? AND status IN ? AND check_out > ?",
			user.ID, models.BlockingStatuses, utils.Now()).
		Count(&upcoming).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	if upcoming > 0 {
		utils.Error(ctx, iris.StatusBadRequest, "HAS_ACTIVE_BOOKINGS", "User still has upcoming bookings")
		return
	}

	if err := storage.DB.Delete(user).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	utils.Audit(ctx, "user.delete", "user", user.ID, user.Public(), nil)
	ctx.JSON(iris.Map{"success": true, "message": "User deleted"})
}

// VerifyUser marks an account identity-verified.
func VerifyUser(ctx iris.Context) {
	setUserFlag(ctx, "is_verified", true, "user.verify", "User verified")
}

// BlockUser blocks an account from logging in.
func BlockUser(ctx iris.Context) {
	setUserFlag(ctx, "is_blocked", true, "user.block", "User blocked")
}

// UnblockUser lifts a block.
func UnblockUser(ctx iris.Context) {
	setUserFlag(ctx, "is_blocked", false, "user.unblock", "User unblocked")
}

func setUserFlag(ctx iris.Context, column string, value bool, action, message string) {
	user, ok := loadUser(ctx)
	if !ok {
		return
	}

	before := user.Public()
	if err := storage.DB.Model(user).Update(column, value).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	storage.DB.First(user, user.ID)

	utils.Audit(ctx, action, "user", user.ID, before, user.Public())
	utils.SuccessMessage(ctx, iris.StatusOK, user.Public(), message)
}

// UserStats aggregates account counts and growth over the last 30 days.
func UserStats(ctx iris.Context) {
	var total, hosts, verified, blocked, active int64
	storage.DB.Model(&models.User{}).Count(&total)
	storage.DB.Model(&models.User{}).Where("is_host = true").Count(&hosts)
	storage.DB.Model(&models.User{}).Where("is_verified = true").Count(&verified)
	storage.DB.Model(&models.User{}).Where("is_blocked = true").Count(&blocked)
	storage.DB.Model(&models.User{}).Where("is_active = true").Count(&active)

	since := utils.Now().AddDate(0, 0, -30)
	var newUsers int64
	storage.DB.Model(&models.User{}).Where("created_at >= ?", since).Count(&newUsers)

	utils.Success(ctx, iris.StatusOK, iris.Map{
		"total":      total,
		"hosts":      hosts,
		"verified":   verified,
		"blocked":    blocked,
		"active":     active,
		"newLast30":  newUsers,
		"guestsOnly": total - hosts,
	})
}

func loadUser(ctx iris.Context) (*models.User, bool) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "Invalid user id")
		return nil, false
	}

	var user models.User
	err = storage.DB.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, iris.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return nil, false
	}
	if err != nil {
		utils.InternalError(ctx, err)
		return nil, false
	}
	return &user, true
}
