package handlers

import (
	"github.com/gin-gonic/gin"

	apperrors "metasearch/server/errors"
	"metasearch/server/middleware"
)

// ErrorResponse структура ошибки для документации API
type ErrorResponse = middleware.ErrorResponse

// SendJSONError отправляет JSON ошибку через Gin context и логирует её
func SendJSONError(c *gin.Context, statusCode int, message string) {
	middleware.WriteGinError(c, statusCode, message)
}

// SendAppError отправляет ошибку, оборачивая её в AppError с сообщением
func SendAppError(c *gin.Context, err error, message string) {
	middleware.HandleGinError(c, apperrors.WrapError(err, message))
}
