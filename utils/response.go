package utils

import (
	"log"
	"math"

	"github.com/kataras/iris/v12"
)

// Every response uses the same envelope:
// {success, data?, error?: {message, code}, pagination?: {page, limit, total, pages}}.
// Error codes are stable identifiers that clients match on verbatim.

type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func Success(ctx iris.Context, status int, data interface{}) {
	ctx.StatusCode(status)
	ctx.JSON(iris.Map{"success": true, "data": data})
}

func SuccessMessage(ctx iris.Context, status int, data interface{}, message string) {
	ctx.StatusCode(status)
	ctx.JSON(iris.Map{"success": true, "data": data, "message": message})
}

func SuccessPage(ctx iris.Context, data interface{}, page, limit int, total int64) {
	pages := 0
	if limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	ctx.JSON(iris.Map{
		"success":    true,
		"data":       data,
		"pagination": Pagination{Page: page, Limit: limit, Total: total, Pages: pages},
	})
}

func Error(ctx iris.Context, status int, code, message string) {
	ctx.StatusCode(status)
	ctx.JSON(iris.Map{"success": false, "error": ErrorBody{Message: message, Code: code}})
}

// InternalError logs the cause and returns a generic message; the cause is
// never exposed to the client.
func InternalError(ctx iris.Context, err error) {
	log.Printf("internal error on %s %s: %v", ctx.Method(), ctx.Path(), err)
	Error(ctx, iris.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
}

// Paging reads page/limit query params with the API defaults (page=1,
// limit as given) and returns the matching SQL offset.
func Paging(ctx iris.Context, defaultLimit int) (page, limit, offset int) {
	page = ctx.URLParamIntDefault("page", 1)
	if page < 1 {
		page = 1
	}
	limit = ctx.URLParamIntDefault("limit", defaultLimit)
	if limit < 1 || limit > 100 {
		limit = defaultLimit
	}
	return page, limit, (page - 1) * limit
}
