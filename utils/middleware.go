package utils

import (
	"time"

	"github.com/Aashritha22/airbnb/models"
	"github.com/Aashritha22/airbnb/storage"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// VerifierErrorHandler renders token failures in the response envelope
// instead of the iris default.
func VerifierErrorHandler(ctx iris.Context, err error) {
	if err == jwt.ErrMissing {
		Error(ctx, iris.StatusUnauthorized, "NO_TOKEN", "Not authorized, no token")
		return
	}
	Error(ctx, iris.StatusUnauthorized, "TOKEN_INVALID", "Not authorized, token failed")
}

// RequireActiveUser loads the account behind the token and rejects
// deactivated or blocked accounts. Runs after the access-token verifier on
// every authenticated user route.
func RequireActiveUser(ctx iris.Context) {
	claims := Claims(ctx)
	if claims == nil {
		Error(ctx, iris.StatusUnauthorized, "NO_TOKEN", "Not authorized, no token")
		return
	}

	var user models.User
	if err := storage.DB.First(&user, claims.ID).Error; err != nil {
		Error(ctx, iris.StatusUnauthorized, "USER_NOT_FOUND", "Not authorized, user not found")
		return
	}
	if user.IsActive != nil && !*user.IsActive {
		Error(ctx, iris.StatusUnauthorized, "ACCOUNT_DEACTIVATED", "Account is deactivated")
		return
	}
	if user.IsBlocked != nil && *user.IsBlocked {
		Error(ctx, iris.StatusUnauthorized, "ACCOUNT_BLOCKED", "Account is blocked")
		return
	}

	ctx.Values().Set("userID", claims.ID)
	ctx.Next()
}

// AdminOnlyMiddleware ensures the token belongs to an active admin account
// and caches the loaded row for permission checks downstream.
func AdminOnlyMiddleware(ctx iris.Context) {
	claims := Claims(ctx)
	if claims == nil {
		Error(ctx, iris.StatusUnauthorized, "NO_TOKEN", "Not authorized, no token")
		return
	}
	if !claims.IsAdmin() {
		Error(ctx, iris.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "Admin access required")
		return
	}

	var admin models.AdminUser
	if err := storage.DB.First(&admin, claims.ID).Error; err != nil {
		Error(ctx, iris.StatusUnauthorized, "ADMIN_NOT_FOUND", "Not authorized, admin user not found")
		return
	}
	if admin.Status != models.AdminActive {
		Error(ctx, iris.StatusUnauthorized, "ADMIN_INACTIVE", "Admin account is not active")
		return
	}

	ctx.Values().Set("userID", claims.ID)
	ctx.Values().Set("adminUser", &admin)
	ctx.Next()
}

// AdminFromContext returns the admin row cached by AdminOnlyMiddleware.
func AdminFromContext(ctx iris.Context) *models.AdminUser {
	if v := ctx.Values().Get("adminUser"); v != nil {
		if admin, ok := v.(*models.AdminUser); ok {
			return admin
		}
	}
	return nil
}

// RequireRole restricts a route to the given admin roles.
func RequireRole(roles ...string) iris.Handler {
	return func(ctx iris.Context) {
		admin := AdminFromContext(ctx)
		if admin == nil {
			Error(ctx, iris.StatusUnauthorized, "NOT_AUTHORIZED", "Not authorized")
			return
		}
		for _, r := range roles {
			if admin.Role == r {
				ctx.Next()
				return
			}
		}
		Error(ctx, iris.StatusForbidden, "INSUFFICIENT_PERMISSIONS",
			"User role "+admin.Role+" is not authorized to access this resource")
	}
}

// RequirePermission gates a route on one capability from the closed
// permission set.
func RequirePermission(p models.Permission) iris.Handler {
	return func(ctx iris.Context) {
		admin := AdminFromContext(ctx)
		if admin == nil {
			Error(ctx, iris.StatusUnauthorized, "NOT_AUTHORIZED", "Not authorized")
			return
		}
		if !admin.HasPermission(p) {
			Error(ctx, iris.StatusForbidden, "INSUFFICIENT_PERMISSIONS",
				"Insufficient permissions. Required: "+string(p))
			return
		}
		ctx.Next()
	}
}

// Now is the request clock. Handlers stamp decisions with one read so a
// request sees a consistent time.
func Now() time.Time { return time.Now().UTC() }
