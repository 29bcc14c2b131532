package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/Aashritha22/airbnb/models"
	"github.com/Aashritha22/airbnb/utils"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// buildTestApp wires the permission guards behind a real JWT verifier
// but swaps the DB-backed admin lookup for one derived from the token,
// so the RBAC chain is exercised without a database.
func buildTestApp() *iris.Application {
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	app := iris.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.ErrorHandler = utils.VerifierErrorHandler
	auth := accessTokenVerifier.Verify(func() interface{} { return new(utils.AccessToken) })

	admin := app.Party("/api/admin", auth, adminFromTokenMiddleware)
	{
		admin.Post("/payments/{id:uint}/refund",
			utils.RequirePermission(models.PermPaymentsRefund),
			func(ctx iris.Context) {
				ctx.JSON(iris.Map{"success": true})
			})
		admin.Delete("/admin-users/{id:uint}",
			utils.RequireRole(models.RoleSuperAdmin),
			func(ctx iris.Context) {
				ctx.JSON(iris.Map{"success": true})
			})
	}
	if err := app.Build(); err != nil {
		panic(err)
	}
	return app
}

func adminFromTokenMiddleware(ctx iris.Context) {
	claims := utils.Claims(ctx)
	if claims == nil || !claims.IsAdmin() {
		utils.Error(ctx, iris.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "Admin access required")
		return
	}
	admin := &models.AdminUser{Status: models.AdminActive}
	admin.SetRole(claims.Role)
	ctx.Values().Set("adminUser", admin)
	ctx.Next()
}

func signTestToken(role string) string {
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 0)
	token, _ := signer.Sign(utils.AccessToken{ID: 1, Role: role})
	return string(token)
}

func do(app *iris.Application, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not the error envelope: %v", err)
	}
	if body.Success {
		t.Fatal("error response marked success")
	}
	return body.Error.Code
}

func TestRefundRBAC(t *testing.T) {
	app := buildTestApp()

	// No token.
	resp := do(app, http.MethodPost, "/api/admin/payments/1/refund", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("no token: code = %d, want 401", resp.Code)
	}
	if code := errorCode(t, resp); code != "NO_TOKEN" {
		t.Fatalf("no token: error code = %q", code)
	}

	// Regular user token.
	resp = do(app, http.MethodPost, "/api/admin/payments/1/refund", signTestToken("user"))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("user role: code = %d, want 403", resp.Code)
	}

	// Support holds no payments:refund grant.
	resp = do(app, http.MethodPost, "/api/admin/payments/1/refund", signTestToken(models.RoleSupport))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("support role: code = %d, want 403", resp.Code)
	}
	if code := errorCode(t, resp); code != "INSUFFICIENT_PERMISSIONS" {
		t.Fatalf("support role: error code = %q", code)
	}

	// Admin holds it.
	resp = do(app, http.MethodPost, "/api/admin/payments/1/refund", signTestToken(models.RoleAdmin))
	if resp.Code != http.StatusOK {
		t.Fatalf("admin role: code = %d, want 200", resp.Code)
	}
}

func TestSuperAdminOnlyRoute(t *testing.T) {
	app := buildTestApp()

	resp := do(app, http.MethodDelete, "/api/admin/admin-users/2", signTestToken(models.RoleAdmin))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("admin role: code = %d, want 403", resp.Code)
	}

	resp = do(app, http.MethodDelete, "/api/admin/admin-users/2", signTestToken(models.RoleSuperAdmin))
	if resp.Code != http.StatusOK {
		t.Fatalf("super_admin role: code = %d, want 200", resp.Code)
	}
}

func TestMalformedTokenRejected(t *testing.T) {
	app := buildTestApp()

	resp := do(app, http.MethodPost, "/api/admin/payments/1/refund", "not-a-jwt")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: code = %d, want 401", resp.Code)
	}
	if code := errorCode(t, resp); code != "TOKEN_INVALID" {
		t.Fatalf("garbage token: error code = %q", code)
	}
}
