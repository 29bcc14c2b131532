package utils

import (
	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

// HandleValidationErrors renders a ReadJSON failure as the VALIDATION_ERROR
// envelope. Validator failures include a details array with one entry per
// failing field; malformed JSON gets the bare code.
func HandleValidationErrors(err error, ctx iris.Context) {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := make([]iris.Map, 0, len(errs))
		for _, e := range errs {
			details = append(details, iris.Map{
				"field": e.Field(),
				"rule":  e.ActualTag(),
				"param": e.Param(),
			})
		}
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{
			"success": false,
			"error": iris.Map{
				"message": "Validation failed",
				"code":    "VALIDATION_ERROR",
				"details": details,
			},
		})
		return
	}
	Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", err.Error())
}
