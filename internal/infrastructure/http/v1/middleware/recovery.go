// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"palletledger/internal/core/apperror"
	"palletledger/internal/infrastructure/http/v1/dto"
	"palletledger/pkg/logger"
)

// Recovery turns a panic in a handler into an INTERNAL error. The stack is
// logged and never sent to the client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", rec,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)

				appErr := apperror.NewInternal(fmt.Errorf("panic: %v", rec)).
					WithDetail("request_id", c.GetString("request_id"))
				_ = c.Error(appErr)
				if c.Writer.Written() {
					c.Abort()
					return
				}
				// ErrorHandler sits inside this middleware and was unwound by the panic.
				c.AbortWithStatusJSON(appErr.HTTPStatus, dto.ErrorResponse{
					Code:    appErr.Code,
					Message: appErr.Message,
					Details: appErr.Details,
				})
			}
		}()
		c.Next()
	}
}
