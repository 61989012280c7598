// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/shop-backend/internal/i18n"
)

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// JSONResponse writes {"success": true} merged with the payload keys.
func JSONResponse(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

func SuccessResponse(c *gin.Context, payload gin.H) {
	JSONResponse(c, http.StatusOK, payload)
}

func CreatedResponse(c *gin.Context, payload gin.H) {
	JSONResponse(c, http.StatusCreated, payload)
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// RespondError is the single place where service errors become HTTP
// responses.
func RespondError(c *gin.Context, err error) {
	appErr := AsAppError(err)
	status := appErr.Status()
	lang := GetLangFromContext(c)

	message := appErr.Message
	if appErr.Key != "" {
		message = i18n.T(lang, appErr.Key, appErr.Args...)
	}

	entry := logrus.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
		"status": status,
		"kind":   appErr.Kind.String(),
	})
	if appErr.Err != nil {
		entry = entry.WithError(appErr.Err)
	}
	if status >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Debug(message)
	}

	ErrorResponse(c, status, appErr.Kind.String(), message, appErr.Details)
}

// AbortWithError writes the error envelope and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	RespondError(c, err)
	c.Abort()
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyValidationInvalid, "request")
	}
	ErrorResponse(c, http.StatusBadRequest, KindValidation.String(), message, details)
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get("lang"); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return "en"
}

func GetUserIDFromContext(c *gin.Context) (string, bool) {
	if userID, exists := c.Get("user_id"); exists {
		if userIDStr, ok := userID.(string); ok && userIDStr != "" {
			return userIDStr, true
		}
	}
	return "", false
}

func GetUserNameFromContext(c *gin.Context) string {
	if name, exists := c.Get("user_name"); exists {
		if nameStr, ok := name.(string); ok {
			return nameStr
		}
	}
	return ""
}

func GetUserRoleFromContext(c *gin.Context) (string, bool) {
	if role, exists := c.Get("user_role"); exists {
		if roleStr, ok := role.(string); ok {
			return roleStr, true
		}
	}
	return "", false
}
