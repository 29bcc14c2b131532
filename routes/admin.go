package routes

import (
	"errors"
	"log"
	"strings"

	"github.com/Aashritha22/airbnb/models"
	"github.com/Aashritha22/airbnb/storage"
	"github.com/Aashritha22/airbnb/utils"
	"github.com/kataras/iris/v12"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// AdminLogin authenticates an admin account under the same lockout
// rules as user login and issues a token pair carrying the role and
// grant set.
func AdminLogin(ctx iris.Context) {
	var input LoginInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	now := utils.Now()

	var admin models.AdminUser
	err := storage.DB.Where("email = ?", strings.ToLower(input.Email)).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, iris.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
		return
	}
	if err != nil {
		utils.InternalError(ctx, err)
		return
	}

	if admin.IsLocked(now) {
		utils.Error(ctx, iris.StatusUnauthorized, "ACCOUNT_LOCKED",
			"Account is temporarily locked due to too many failed login attempts")
		return
	}
	if admin.Status != models.AdminActive {
		utils.Error(ctx, iris.StatusUnauthorized, "ADMIN_INACTIVE", "Admin account is not active")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(input.Password)) != nil {
		if err := models.RecordFailedLogin(storage.DB, "admin_users", admin.ID, now); err != nil {
			log.Printf("failed-login accounting for admin %d: %v", admin.ID, err)
		}
		utils.Error(ctx, iris.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
		return
	}

	admin.ResetLoginAttempts()
	if err := storage.DB.Model(&admin).Updates(map[string]interface{}{
		"login_attempts": 0,
		"lock_until":     nil,
		"last_login_at":  now,
		"last_login_ip":  ctx.RemoteAddr(),
	}).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	tokenPair, err := utils.CreateTokenPair(admin.ID, admin.Role, admin.PermissionList())
	if err != nil {
		utils.InternalError(ctx, err)
		return
	}

	ctx.JSON(iris.Map{
		"success":      true,
		"token":        string(tokenPair.AccessToken),
		"refreshToken": string(tokenPair.RefreshToken),
		"data":         admin.Public(),
		"expiresIn":    "24h",
	})
}

// CurrentAdmin returns the authenticated admin's public view.
func CurrentAdmin(ctx iris.Context) {
	admin := utils.AdminFromContext(ctx)
	utils.Success(ctx, iris.StatusOK, admin.Public())
}

// Dashboard aggregates the headline numbers for the admin home screen.
func Dashboard(ctx iris.Context) {
	var users, properties, bookings, openTickets int64
	storage.DB.Model(&models.User{}).Count(&users)
	storage.DB.Model(&models.Property{}).Where("is_active = true").Count(&properties)
	storage.DB.Model(&models.Booking{}).Count(&bookings)
	storage.DB.Model(&models.SupportTicket{}).
		Where("status IN ?", []string{models.TicketOpen, models.TicketInProgress}).Count(&openTickets)

	var revenue float64
	storage.DB.Model(&models.Payment{}).
		Where("status IN ?", []string{models.PaymentCompleted, models.PaymentPartiallyRefunded, models.PaymentRefunded}).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&revenue)

	var pendingVerifications int64
	storage.DB.Model(&models.Property{}).
		Where("verification_status = ?", models.VerificationPending).Count(&pendingVerifications)

	since := utils.Now().AddDate(0, 0, -7)
	var recentBookings []models.Booking
	storage.DB.Preload("Property").Preload("User").
		Where("created_at >= ?", since).
		Order("created_at DESC").Limit(10).Find(&recentBookings)

	utils.Success(ctx, iris.StatusOK, iris.Map{
		"totalUsers":           users,
		"activeProperties":     properties,
		"totalBookings":        bookings,
		"totalRevenue":         revenue,
		"openTickets":          openTickets,
		"pendingVerifications": pendingVerifications,
		"recentBookings":       recentBookings,
	})
}

type CreateAdminInput struct {
	FirstName  string `json:"firstName" validate:"required,max=50"`
	LastName   string `json:"lastName" validate:"required,max=50"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Phone      string `json:"phone"`
	Role       string `json:"role" validate:"required"`
	Department string `json:"department" validate:"max=30"`
}

// CreateAdminUser provisions an admin account. The grant set is derived
// from the role here, never supplied by the caller.
func CreateAdminUser(ctx iris.Context) {
	var input CreateAdminInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !slices.Contains(models.AdminRoles, input.Role) {
		utils.Error(ctx, iris.StatusBadRequest, "INVALID_ROLE", "Unknown admin role")
		return
	}

	email := strings.ToLower(input.Email)
	var existing models.AdminUser
	if err := storage.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		utils.Error(ctx, iris.StatusBadRequest, "ADMIN_EXISTS", "Admin already exists with this email")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.InternalError(ctx, err)
		return
	}

	hashed, err := hashPassword(input.Password)
	if err != nil {
		utils.InternalError(ctx, err)
		return
	}

	admin := models.AdminUser{
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Email:      email,
		Password:   hashed,
		Phone:      input.Phone,
		Department: input.Department,
		Status:     models.AdminActive,
	}
	admin.SetRole(input.Role)

	if err := storage.DB.Create(&admin).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	utils.Audit(ctx, "admin_user.create", "admin_user", admin.ID, nil, admin.Public())
	utils.Success(ctx, iris.StatusCreated, admin.Public())
}

// ListAdminUsers pages through admin accounts.
func ListAdminUsers(ctx iris.Context) {
	page, limit, offset := utils.Paging(ctx, 10)

	q := storage.DB.Model(&models.AdminUser{})
	if role := ctx.URLParam("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	if status := ctx.URLParam("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	var admins []models.AdminUser
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&admins).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	views := make([]models.PublicAdminUser, len(admins))
	for i := range admins {
		views[i] = admins[i].Public()
	}
	utils.SuccessPage(ctx, views, page, limit, total)
}

type UpdateAdminInput struct {
	FirstName  string `json:"firstName" validate:"omitempty,max=50"`
	LastName   string `json:"lastName" validate:"omitempty,max=50"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	Department string `json:"department" validate:"max=30"`
	Status     string `json:"status" validate:"omitempty,oneof=active inactive suspended"`
}

// UpdateAdminUser patches an admin account; a role change recomputes the
// persisted grant set.
func UpdateAdminUser(ctx iris.Context) {
	admin, ok := loadAdminUser(ctx)
	if !ok {
		return
	}

	var input UpdateAdminInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	before := admin.Public()
	if input.FirstName != "" {
		admin.FirstName = input.FirstName
	}
	if input.LastName != "" {
		admin.LastName = input.LastName
	}
	if input.Phone != "" {
		admin.Phone = input.Phone
	}
	if input.Department != "" {
		admin.Department = input.Department
	}
	if input.Status != "" {
		admin.Status = input.Status
	}
	if input.Role != "" {
		if !slices.Contains(models.AdminRoles, input.Role) {
			utils.Error(ctx, iris.StatusBadRequest, "INVALID_ROLE", "Unknown admin role")
			return
		}
		admin.SetRole(input.Role)
	}

	if err := storage.DB.Save(admin).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	utils.Audit(ctx, "admin_user.update", "admin_user", admin.ID, before, admin.Public())
	utils.Success(ctx, iris.StatusOK, admin.Public())
}

// DeleteAdminUser removes an admin account. Self-deletion and removing
// the last super admin are both refused.
func DeleteAdminUser(ctx iris.Context) {
	actor := utils.AdminFromContext(ctx)
	admin, ok := loadAdminUser(ctx)
	if !ok {
		return
	}

	if admin.ID == actor.ID {
		utils.Error(ctx, iris.StatusBadRequest, "CANNOT_DELETE_SELF", "You cannot delete your own admin account")
		return
	}
	if admin.Role == models.RoleSuperAdmin {
		var superAdmins int64
		storage.DB.Model(&models.AdminUser{}).
			Where("role = ? AND status = ?", models.RoleSuperAdmin, models.AdminActive).
			Count(&superAdmins)
		if superAdmins <= 1 {
			utils.Error(ctx, iris.StatusBadRequest, "LAST_SUPER_ADMIN", "Cannot delete the last super admin")
			return
		}
	}

	if err := storage.DB.Delete(admin).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	utils.Audit(ctx, "admin_user.delete", "admin_user", admin.ID, admin.Public(), nil)
	ctx.JSON(iris.Map{"success": true, "message": "Admin user deleted"})
}

// ListAuditLogs pages through the audit trail, optionally filtered by
// actor or resource type.
func ListAuditLogs(ctx iris.Context) {
	page, limit, offset := utils.Paging(ctx, 10)

	q := storage.DB.Model(&models.AuditLog{})
	if actor := ctx.URLParamIntDefault("adminUserID", 0); actor > 0 {
		q = q.Where("admin_user_id = ?", actor)
	}
	if resourceType := ctx.URLParam("resourceType"); resourceType != "" {
		q = q.Where("resource_type = ?", resourceType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	var logs []models.AuditLog
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	utils.SuccessPage(ctx, logs, page, limit, total)
}

func loadAdminUser(ctx iris.Context) (*models.AdminUser, bool) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "Invalid admin user id")
		return nil, false
	}

	var admin models.AdminUser
	err = storage.DB.First(&admin, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, iris.StatusNotFound, "ADMIN_NOT_FOUND", "Admin user not found")
		return nil, false
	}
	if err != nil {
		utils.InternalError(ctx, err)
		return nil, false
	}
	return &admin, true
}
