package routes

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/Aashritha22/airbnb/models"
	"github.com/Aashritha22/airbnb/storage"
	"github.com/Aashritha22/airbnb/utils"
	"github.com/kataras/iris/v12"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterInput struct {
	FirstName   string `json:"firstName" validate:"required,max=50"`
	LastName    string `json:"lastName" validate:"required,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	Phone       string `json:"phone" validate:"required"`
	DateOfBirth string `json:"dateOfBirth" validate:"required"`
	Gender      string `json:"gender" validate:"required,oneof=male female other prefer-not-to-say"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates a guest account and signs it in.
func Register(ctx iris.Context) {
	var input RegisterInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	dob, err := time.Parse("2006-01-02", input.DateOfBirth)
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "dateOfBirth must be YYYY-MM-DD")
		return
	}

	email := strings.ToLower(input.Email)
	var existing models.User
	if err := storage.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		utils.Error(ctx, iris.StatusBadRequest, "USER_EXISTS", "User already exists with this email")
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

	user := models.User{
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       email,
		Password:    hashed,
		Phone:       input.Phone,
		DateOfBirth: &dob,
		Gender:      input.Gender,
	}
	if err := storage.DB.Create(&user).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	sendTokenResponse(ctx, iris.StatusCreated, &user)
}

// Login authenticates a guest/host account, enforcing the failed-login
// lockout before the password is ever checked.
func Login(ctx iris.Context) {
	var input LoginInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	now := utils.Now()

	var user models.User
	err := storage.DB.Where("email = ?", strings.ToLower(input.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, iris.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
		return
	}
	if err != nil {
		utils.InternalError(ctx, err)
		return
	}

	if user.IsLocked(now) {
		utils.Error(ctx, iris.StatusUnauthorized, "ACCOUNT_LOCKED",
			"Account is temporarily locked due to too many failed login attempts")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		if err := models.RecordFailedLogin(storage.DB, "users", user.ID, now); err != nil {
			log.Printf("failed-login accounting for user %d: %v", user.ID, err)
		}
		utils.Error(ctx, iris.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
		return
	}

	user.ResetLoginAttempts()
	user.LastLoginAt = &now
	user.LastLoginIP = ctx.RemoteAddr()
	if err := storage.DB.Model(&user).Select("login_attempts", "lock_until", "last_login_at", "last_login_ip").
		Updates(map[string]interface{}{
			"login_attempts": 0,
			"lock_until":     nil,
			"last_login_at":  now,
			"last_login_ip":  user.LastLoginIP,
		}).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	sendTokenResponse(ctx, iris.StatusOK, &user)
}

// Logout revokes the presented refresh token, if any.
func Logout(ctx iris.Context) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = ctx.ReadJSON(&body)
	utils.RevokeRefreshToken(body.RefreshToken)
	ctx.JSON(iris.Map{"success": true, "message": "Successfully logged out"})
}

// CurrentUser returns the public view of the authenticated account.
func CurrentUser(ctx iris.Context) {
	claims := utils.Claims(ctx)

	var user models.User
	if err := storage.DB.First(&user, claims.ID).Error; err != nil {
		utils.Error(ctx, iris.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}
	utils.Success(ctx, iris.StatusOK, user.Public())
}

type UpdateDetailsInput struct {
	FirstName   string `json:"firstName" validate:"omitempty,max=50"`
	LastName    string `json:"lastName" validate:"omitempty,max=50"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender" validate:"omitempty,oneof=male female other prefer-not-to-say"`
}

// UpdateDetails patches the caller's profile fields.
func UpdateDetails(ctx iris.Context) {
	claims := utils.Claims(ctx)

	var input UpdateDetailsInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	if err := storage.DB.First(&user, claims.ID).Error; err != nil {
		utils.Error(ctx, iris.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}

	if input.FirstName != "" {
		user.FirstName = input.FirstName
	}
	if input.LastName != "" {
		user.LastName = input.LastName
	}
	if input.Phone != "" {
		user.Phone = input.Phone
	}
	if input.Gender != "" {
		user.Gender = input.Gender
	}
	if input.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", input.DateOfBirth)
		if err != nil {
			utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "dateOfBirth must be YYYY-MM-DD")
			return
		}
		user.DateOfBirth = &dob
	}

	if err := storage.DB.Save(&user).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	utils.Success(ctx, iris.StatusOK, user.Public())
}

type UpdatePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// UpdatePassword rotates the caller's password after re-checking the
// current one.
func UpdatePassword(ctx iris.Context) {
	claims := utils.Claims(ctx)

	var input UpdatePasswordInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	if err := storage.DB.First(&user, claims.ID).Error; err != nil {
		utils.Error(ctx, iris.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.CurrentPassword)) != nil {
		utils.Error(ctx, iris.StatusUnauthorized, "INCORRECT_PASSWORD", "Password is incorrect")
		return
	}

	hashed, err := hashPassword(input.NewPassword)
	if err != nil {
		utils.InternalError(ctx, err)
		return
	}
	if err := storage.DB.Model(&user).Update("password", hashed).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	sendTokenResponse(ctx, iris.StatusOK, &user)
}

// ForgotPassword issues a reset token. Only its hash is stored; delivery is
// out of band (logged until a mailer is wired up).
func ForgotPassword(ctx iris.Context) {
	var input struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	err := storage.DB.Where("email = ?", strings.ToLower(input.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, iris.StatusNotFound, "USER_NOT_FOUND", "There is no user with that email")
		return
	}
	if err != nil {
		utils.InternalError(ctx, err)
		return
	}

	token, hash, err := utils.GenerateResetToken()
	if err != nil {
		utils.InternalError(ctx, err)
		return
	}
	expires := utils.Now().Add(10 * time.Minute)
	if err := storage.DB.Model(&user).Updates(map[string]interface{}{
		"password_reset_token":   hash,
		"password_reset_expires": expires,
	}).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	// TODO: send via the transactional mailer once one is configured.
	log.Printf("password reset token for %s: %s", user.Email, token)

	ctx.JSON(iris.Map{"success": true, "message": "Email sent"})
}

// ResetPassword consumes a reset token and sets the new password.
func ResetPassword(ctx iris.Context) {
	var input struct {
		Password string `json:"password" validate:"required,min=6"`
	}
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	hash := utils.HashResetToken(ctx.Params().Get("resettoken"))

	var user models.User
	err := storage.DB.Where("password_reset_token = ? AND password_reset_expires > ?", hash, utils.Now()).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, iris.StatusBadRequest, "INVALID_TOKEN", "Invalid token")
		return
	}
	if err != nil {
		utils.InternalError(ctx, err)
		return
	}

	hashed, err := hashPassword(input.Password)
	if err != nil {
		utils.InternalError(ctx, err)
		return
	}
	if err := storage.DB.Model(&user).Updates(map[string]interface{}{
		"password":               hashed,
		"password_reset_token":   "",
		"password_reset_expires": nil,
	}).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	sendTokenResponse(ctx, iris.StatusOK, &user)
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	return string(bytes), err
}

// sendTokenResponse issues a token pair and returns it with the public
// account view, mirroring the register/login/password flows.
func sendTokenResponse(ctx iris.Context, status int, user *models.User) {
	tokenPair, err := utils.CreateTokenPair(user.ID, "user", nil)
	if err != nil {
		utils.InternalError(ctx, err)
		return
	}
	ctx.StatusCode(status)
	ctx.JSON(iris.Map{
		"success":      true,
		"token":        string(tokenPair.AccessToken),
		"refreshToken": string(tokenPair.RefreshToken),
		"data":         user.Public(),
		"expiresIn":    "24h",
	})
}
