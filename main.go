package main

import (
	"os"

	"github.com/Aashritha22/airbnb/models"
	"github.com/Aashritha22/airbnb/routes"
	"github.com/Aashritha22/airbnb/storage"
	"github.com/Aashritha22/airbnb/utils"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	godotenv.Load()
	storage.InitializeDB()
	storage.InitializeRedis()

	app := iris.New()
	app.Validator = validator.New()

	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifier.ErrorHandler = utils.VerifierErrorHandler
	auth := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifier.ErrorHandler = utils.VerifierErrorHandler
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})
	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		if err := ctx.ReadJSON(&tokenInput); err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	authParty := app.Party("/api/auth")
	{
		authParty.Post("/register", routes.Register)
		authParty.Post("/login", routes.Login)
		authParty.Post("/logout", routes.Logout)
		authParty.Post("/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)
		authParty.Post("/forgotpassword", routes.ForgotPassword)
		authParty.Put("/resetpassword/{resettoken}", routes.ResetPassword)
		authParty.Get("/me", auth, utils.RequireActiveUser, routes.CurrentUser)
		authParty.Put("/updatedetails", auth, utils.RequireActiveUser, routes.UpdateDetails)
		authParty.Put("/updatepassword", auth, utils.RequireActiveUser, routes.UpdatePassword)
	}

	property := app.Party("/api/properties")
	{
		property.Get("/", routes.SearchProperties)
		property.Get("/categories", routes.GetCategories)
		property.Get("/amenities", routes.GetAmenities)
		property.Get("/my", auth, utils.RequireActiveUser, routes.GetMyProperties)
		property.Get("/{id:uint}", routes.GetProperty)
		property.Get("/{id:uint}/reviews", routes.GetPropertyReviews)
		property.Get("/{id:uint}/availability", routes.CheckAvailability)
		property.Post("/", auth, utils.RequireActiveUser, routes.CreateProperty)
		property.Put("/{id:uint}", auth, utils.RequireActiveUser, routes.UpdateProperty)
		property.Delete("/{id:uint}", auth, utils.RequireActiveUser, routes.DeleteProperty)
		property.Put("/{id:uint}/calendar", auth, utils.RequireActiveUser, routes.BlockDates)
	}

	booking := app.Party("/api/bookings", auth, utils.RequireActiveUser)
	{
		booking.Post("/", routes.CreateBooking)
		booking.Get("/", routes.GetBookings)
		booking.Get("/host", routes.GetHostBookings)
		booking.Get("/{id:uint}", routes.GetBooking)
		booking.Post("/{id:uint}/cancel", routes.CancelBooking)
		booking.Post("/{id:uint}/checkin", routes.CheckInBooking)
		booking.Post("/{id:uint}/checkout", routes.CheckOutBooking)
	}

	payment := app.Party("/api/payments", auth, utils.RequireActiveUser)
	{
		payment.Post("/create-intent", routes.CreatePaymentIntent)
		payment.Post("/confirm", routes.ConfirmPayment)
		payment.Get("/", routes.GetMyPayments)
		payment.Get("/{id:uint}", routes.GetPayment)
	}

	review := app.Party("/api/reviews", auth, utils.RequireActiveUser)
	{
		review.Post("/", routes.CreateReview)
		review.Get("/my", routes.GetMyReviews)
		review.Post("/{id:uint}/respond", routes.RespondToReview)
	}

	support := app.Party("/api/support", auth, utils.RequireActiveUser)
	{
		support.Post("/", routes.CreateTicket)
		support.Get("/", routes.GetMyTickets)
		support.Get("/{id:uint}", routes.GetTicket)
		support.Post("/{id:uint}/messages", routes.AddTicketMessage)
	}

	app.Post("/api/admin/login", routes.AdminLogin)

	admin := app.Party("/api/admin", auth, utils.AdminOnlyMiddleware)
	{
		admin.Get("/me", routes.CurrentAdmin)
		admin.Get("/dashboard", routes.Dashboard)

		admin.Get("/users", utils.RequirePermission(models.PermUsersRead), routes.ListUsers)
		admin.Get("/users/stats", utils.RequirePermission(models.PermUsersRead), routes.UserStats)
		admin.Get("/users/{id:uint}", utils.RequirePermission(models.PermUsersRead), routes.GetUser)
		admin.Put("/users/{id:uint}", utils.RequirePermission(models.PermUsersWrite), routes.UpdateUser)
		admin.Delete("/users/{id:uint}", utils.RequirePermission(models.PermUsersDelete), routes.DeleteUser)
		admin.Post("/users/{id:uint}/verify", utils.RequirePermission(models.PermUsersWrite), routes.VerifyUser)
		admin.Post("/users/{id:uint}/block", utils.RequirePermission(models.PermUsersWrite), routes.BlockUser)
		admin.Post("/users/{id:uint}/unblock", utils.RequirePermission(models.PermUsersWrite), routes.UnblockUser)

		admin.Get("/properties", utils.RequirePermission(models.PermPropsRead), routes.AdminListProperties)
		admin.Get("/properties/stats", utils.RequirePermission(models.PermPropsRead), routes.AdminPropertyStats)
		admin.Post("/properties/{id:uint}/verify", utils.RequirePermission(models.PermPropsVerify), routes.VerifyProperty)

		admin.Get("/bookings", utils.RequirePermission(models.PermBookingsRead), routes.AdminListBookings)
		admin.Get("/bookings/stats", utils.RequirePermission(models.PermBookingsRead), routes.AdminBookingStats)
		admin.Post("/bookings/{id:uint}/cancel", utils.RequirePermission(models.PermBookingsCancel), routes.CancelBooking)

		admin.Get("/payments", utils.RequirePermission(models.PermPaymentsRead), routes.AdminListPayments)
		admin.Get("/payments/stats", utils.RequirePermission(models.PermPaymentsRead), routes.AdminPaymentStats)
		admin.Post("/payments/{id:uint}/refund", utils.RequirePermission(models.PermPaymentsRefund), routes.RefundPayment)

		admin.Put("/reviews/{id:uint}/moderate", utils.RequirePermission(models.PermPropsWrite), routes.AdminModerateReview)

		admin.Get("/tickets", utils.RequirePermission(models.PermTicketsRead), routes.AdminListTickets)
		admin.Get("/tickets/stats", utils.RequirePermission(models.PermTicketsRead), routes.AdminTicketStats)
		admin.Post("/tickets/{id:uint}/assign", utils.RequirePermission(models.PermTicketsWrite), routes.AssignTicket)
		admin.Post("/tickets/{id:uint}/resolve", utils.RequirePermission(models.PermTicketsWrite), routes.ResolveTicket)
		admin.Post("/tickets/{id:uint}/close", utils.RequirePermission(models.PermTicketsClose), routes.CloseTicket)

		admin.Get("/admin-users", utils.RequirePermission(models.PermAdminsRead), routes.ListAdminUsers)
		admin.Post("/admin-users", utils.RequirePermission(models.PermAdminsWrite), routes.CreateAdminUser)
		admin.Put("/admin-users/{id:uint}", utils.RequirePermission(models.PermAdminsWrite), routes.UpdateAdminUser)
		admin.Delete("/admin-users/{id:uint}", utils.RequireRole(models.RoleSuperAdmin), routes.DeleteAdminUser)

		admin.Get("/audit-logs", utils.RequireRole(models.RoleSuperAdmin, models.RoleAdmin), routes.ListAuditLogs)

		admin.Get("/analytics/overview", utils.RequirePermission(models.PermAnalyticsRead), routes.AnalyticsOverview)
		admin.Get("/analytics/revenue", utils.RequirePermission(models.PermAnalyticsRead), routes.AnalyticsRevenue)
		admin.Get("/analytics/users", utils.RequirePermission(models.PermAnalyticsRead), routes.AnalyticsUsers)
		admin.Get("/analytics/bookings", utils.RequirePermission(models.PermAnalyticsRead), routes.AnalyticsBookings)
		admin.Get("/analytics/export/bookings", utils.RequirePermission(models.PermAnalyticsExport), routes.ExportBookingsCSV)
		admin.Get("/analytics/export/payments", utils.RequirePermission(models.PermAnalyticsExport), routes.ExportPaymentsCSV)
		admin.Get("/analytics/export/users", utils.RequirePermission(models.PermAnalyticsExport), routes.ExportUsersCSV)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	app.Listen(":" + port)
}
