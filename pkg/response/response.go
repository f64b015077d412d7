package response

import (
	"errors"
	"net/http"

	"github.com/alimikegami/quicart/pkg/errs"
	"github.com/labstack/echo/v4"
)

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

type ErrorResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Errors  interface{} `json:"errors"`
}

func WriteSuccessResponse(c echo.Context, message string, data interface{}) error {
	resp := SuccessResponse{}
	resp.Status = "success"
	resp.Data = data
	resp.Message = message

	return c.JSON(http.StatusOK, resp)
}

// WriteErrorResponse maps err to its status code. Validation failures carry
// the offending field in the errors payload when no explicit payload is given.
func WriteErrorResponse(c echo.Context, err error, errors interface{}) error {
	statusCode := errs.GetErrorStatusCode(err)
	resp := ErrorResponse{}
	resp.Status = "error"
	resp.Message = err.Error()
	resp.Errors = errors

	if resp.Errors == nil {
		if verr := asValidationError(err); verr != nil {
			resp.Errors = []*errs.ValidationError{verr}
		}
	}

	return c.JSON(statusCode, resp)
}

func asValidationError(err error) *errs.ValidationError {
	var verr *errs.ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	return nil
}
