package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicErrorsMiddleware tags the nrgin transaction with the caller and
// reports errors handlers attached with c.Error. Register after nrgin.Middleware.
func NewRelicErrorsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		txn := nrgin.Transaction(c)
		if txn == nil {
			return
		}

		if userID := UserID(c); userID != "" {
			txn.AddAttribute("userID", userID)
		}

		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
