package response

import (
	"net/http"

	"tablewise/internal/shared/apperrors"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError maps err through the error taxonomy. Internal errors are not echoed to the client.
func RespondError(c *gin.Context, message string, err error) {
	code := apperrors.HTTPStatus(err)
	detail := gin.H{"code": apperrors.Code(err)}
	if code != http.StatusInternalServerError {
		detail["error"] = err.Error()
	}
	RespondJSON(c, "error", code, message, nil, detail)
}
