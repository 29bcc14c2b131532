package utils

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strconv"
	"time"

	"github.com/Aashritha22/airbnb/models"
	"github.com/Aashritha22/airbnb/storage"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

var bgContext = context.Background()

// AccessToken is the claim set embedded in access tokens. Role is "user"
// for guest/host accounts and one of the admin roles for admin accounts;
// Permissions carries the admin grant set computed at role assignment.
type AccessToken struct {
	ID          uint     `json:"ID"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
}

// IsAdmin reports whether the token belongs to an admin account.
func (t *AccessToken) IsAdmin() bool {
	for _, r := range models.AdminRoles {
		if t.Role == r {
			return true
		}
	}
	return false
}

// CreateTokenPair signs an access token (24h) and a refresh token (365d) and
// registers the refresh token in Redis so it can be rotated exactly once.
func CreateTokenPair(id uint, role string, permissions []models.Permission) (*jwt.TokenPair, error) {
	accessTokenSigner := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 24*time.Hour)
	refreshTokenSigner := jwt.NewSigner(jwt.HS256, os.Getenv("REFRESH_TOKEN_SECRET"), 365*24*time.Hour)

	perms := make([]string, len(permissions))
	for i, p := range permissions {
		perms[i] = string(p)
	}
	accessClaims := AccessToken{ID: id, Role: role}
	if len(perms) > 0 {
		accessClaims.Permissions = perms
	}

	accessToken, err := accessTokenSigner.Sign(accessClaims)
	if err != nil {
		return nil, err
	}

	refreshClaims := jwt.Claims{Subject: strconv.FormatUint(uint64(id), 10)}
	refreshToken, err := refreshTokenSigner.Sign(refreshClaims)
	if err != nil {
		return nil, err
	}

	var tokenPair jwt.TokenPair
	tokenPair.AccessToken = accessToken
	tokenPair.RefreshToken = refreshToken

	storageSetRefresh(string(refreshToken))

	return &tokenPair, nil
}

// GenerateResetToken returns a random reset token and its sha256 hash; only
// the hash is persisted.
func GenerateResetToken() (token, hash string, err error) {
	b := make([]byte, 20)
	if _, err = rand.Read(b); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(b)
	return token, HashResetToken(token), nil
}

// HashResetToken hashes the client-held reset token for lookup.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func storageSetRefresh(token string) {
	storage.Redis.Set(bgContext, token, "true", 365*24*time.Hour+5*time.Minute)
}

// RefreshTokenInput is the refresh request body; the route's verifier
// extracts the token from it.
type RefreshTokenInput struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// RefreshToken rotates a verified refresh token: it must still be present in
// Redis, is deleted on use, and a fresh pair is issued with the account's
// current role and grants.
func RefreshToken(ctx iris.Context) {
	token := jwt.GetVerifiedToken(ctx)
	tokenStr := string(token.Token)

	validToken, tokenErr := storage.Redis.Get(bgContext, tokenStr).Result()
	if tokenErr != nil || validToken != "true" {
		Error(ctx, iris.StatusUnauthorized, "TOKEN_INVALID", "Refresh token is no longer valid")
		return
	}
	storage.Redis.Del(bgContext, tokenStr)

	id, parseErr := strconv.ParseUint(token.StandardClaims.Subject, 10, 32)
	if parseErr != nil {
		InternalError(ctx, parseErr)
		return
	}

	role := "user"
	var permissions []models.Permission
	var user models.User
	if err := storage.DB.Select("id").First(&user, uint(id)).Error; err != nil {
		var admin models.AdminUser
		if err := storage.DB.First(&admin, uint(id)).Error; err != nil {
			Error(ctx, iris.StatusUnauthorized, "USER_NOT_FOUND", "Account no longer exists")
			return
		}
		role = admin.Role
		permissions = admin.PermissionList()
	}

	tokenPair, err := CreateTokenPair(uint(id), role, permissions)
	if err != nil {
		InternalError(ctx, err)
		return
	}

	Success(ctx, iris.StatusOK, iris.Map{
		"accessToken":  string(tokenPair.AccessToken),
		"refreshToken": string(tokenPair.RefreshToken),
	})
}

// RevokeRefreshToken drops a refresh token from the rotation store on
// logout. Missing tokens are ignored.
func RevokeRefreshToken(token string) {
	if token != "" {
		storage.Redis.Del(bgContext, token)
	}
}

// Claims extracts the verified access-token claims from the request.
func Claims(ctx iris.Context) *AccessToken {
	if tok := jwt.Get(ctx); tok != nil {
		if claims, ok := tok.(*AccessToken); ok {
			return claims
		}
	}
	return nil
}
