package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"marketplace-service/internal/apperrors"
	"marketplace-service/internal/middleware"
	"marketplace-service/internal/models"
)

// requestScope returns the tenant and the authenticated user set by the auth middleware.
func requestScope(c *gin.Context) (tenantID, userID string) {
	return middleware.GetTenantID(c), c.GetString("user_id")
}

// respondError writes err in the standard error envelope. Anything that is not an
// application error is logged and reported as an internal error.
func respondError(c *gin.Context, log *logrus.Entry, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "An unexpected error occurred",
			},
		})
		return
	}

	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{
			"path": c.FullPath(),
			"code": appErr.Code,
		}).Error("Request failed")
	}

	body := models.Error{
		Code:    appErr.Code,
		Message: appErr.Message,
		Field:   appErr.Field(),
	}
	if len(appErr.Fields) > 0 {
		details := models.JSON{"fields": appErr.Fields}
		body.Details = &details
	}
	c.JSON(status, models.ErrorResponse{Success: false, Error: body})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		},
	})
}

// uuidParam parses a path parameter, answering 400 when it is not a UUID.
func uuidParam(c *gin.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid " + what + " ID format",
				Field:   name,
			},
		})
		return uuid.Nil, false
	}
	return id, true
}
