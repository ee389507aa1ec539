package types

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/castkeep/castkeep-api/pkg/errors"
)

// Handler utility functions to reduce duplication across handlers

// BindJSONOrError attempts to bind JSON request body to target struct.
// Returns false and sends error response if binding fails.
func BindJSONOrError(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    string(apperrors.ErrCodeInvalidInput),
			Details: err.Error(),
		})
		return false
	}
	return true
}

// SendError maps an application error onto the HTTP response. AppErrors
// carry their own status code; anything else is a 500.
func SendError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	resp := ErrorResponse{Error: err.Error()}

	if appErr, ok := err.(*apperrors.AppError); ok {
		status = appErr.GetHTTPCode()
		resp.Code = string(appErr.Code)
		if len(appErr.Details) > 0 {
			resp.Details = appErr.Details
		}
	}

	c.JSON(status, resp)
}

// SendBadRequest sends a standardized bad request response
func SendBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: message,
		Code:  string(apperrors.ErrCodeValidation),
	})
}

// SendOK sends payload fields wrapped in the ok envelope
func SendOK(c *gin.Context, payload gin.H) {
	body := gin.H{"ok": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}
