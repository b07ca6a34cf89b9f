package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appctx "palletledger/internal/core/context"
)

// HeaderOperator names the caller on whose behalf a request runs.
const HeaderOperator = "X-Operator"

// Operator copies the X-Operator header into the request context so the
// domain layer can stamp movements and audit rows with it. The value is not
// authenticated.
func Operator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if op := strings.TrimSpace(c.GetHeader(HeaderOperator)); op != "" {
			ctx := appctx.WithOperator(c.Request.Context(), &appctx.OperatorContext{
				OperatorID: op,
				Source:     "http",
			})
			c.Request = c.Request.WithContext(ctx)
			c.Set("operator", op)
		}
		c.Next()
	}
}
