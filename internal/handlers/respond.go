package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"social-service/internal/apperr"
	"social-service/internal/logger"
	"social-service/internal/middleware"
	"social-service/internal/models"
)

// respondError renders err using its apperr kind. Store and unknown errors are
// logged here and reach the client only as an opaque message.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("request_id", c.GetString(middleware.RequestIDKey)),
			zap.String("user_id", c.GetString(middleware.UserIDKey)),
			zap.String("route", c.FullPath()),
			zap.Error(err))
	}

	body := gin.H{"error": apperr.PublicMessage(err)}
	if field := apperr.FieldOf(err); field != "" {
		body["field"] = field
	}
	c.AbortWithStatusJSON(status, body)
}

// bindError turns a gin binding failure into a Validation error naming the first bad field.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0].Field()
		respondError(c, apperr.Validation(field, field+" is "+describeTag(verrs[0].Tag())))
		return
	}
	respondError(c, apperr.Validation("body", "malformed request body"))
}

func describeTag(tag string) string {
	switch tag {
	case "required", "notblank":
		return "required"
	case "max":
		return "too long"
	default:
		return "invalid"
	}
}

// decodeImages decodes base64 payloads, optionally in data URL form. Blank
// entries are skipped and anything past MaxAttachments is ignored.
func decodeImages(raw []string) ([][]byte, error) {
	images := make([][]byte, 0, models.MaxAttachments)
	for _, s := range raw {
		if len(images) == models.MaxAttachments {
			break
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if strings.HasPrefix(s, "data:") {
			_, payload, ok := strings.Cut(s, ",")
			if !ok {
				return nil, apperr.Validation("images", "malformed data url")
			}
			s = payload
		}
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, apperr.Validation("images", "images must be base64 encoded")
		}
		images = append(images, data)
	}
	return images, nil
}

func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}
