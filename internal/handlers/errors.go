package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/devboard/internal/apperrors"
)

func statusFor(severity apperrors.Severity) int {
	switch severity {
	case apperrors.SeverityBadRequest:
		return http.StatusBadRequest
	case apperrors.SeverityUnauthorized:
		return http.StatusUnauthorized
	case apperrors.SeverityForbidden:
		return http.StatusForbidden
	case apperrors.SeverityNotFound:
		return http.StatusNotFound
	case apperrors.SeverityConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a JSON error body. Internal errors are attached
// to the context so the access log records their cause.
func respondError(ctx *gin.Context, err error) {
	appErr := apperrors.As(err)

	if appErr.Code == apperrors.CodeInternal {
		ctx.Error(err)
	}

	body := gin.H{"error": appErr.Message, "code": appErr.Code}

	if len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}

	ctx.AbortWithStatusJSON(statusFor(appErr.Severity()), body)
}

// respondInvalidRequest rejects a request that could not be decoded. A JSON
// value of the wrong type is reported against its field.
func respondInvalidRequest(ctx *gin.Context, err error) {
	body := gin.H{"error": "Invalid request", "code": apperrors.CodeValidation}

	var typeErr *json.UnmarshalTypeError

	if errors.As(err, &typeErr) && typeErr.Field != "" {
		body["fields"] = []apperrors.FieldError{{Field: typeErr.Field, Rule: "type"}}
	}

	ctx.AbortWithStatusJSON(http.StatusBadRequest, body)
}

func respondUnauthenticated(ctx *gin.Context) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated", "code": apperrors.CodeUnauthorized})
}
