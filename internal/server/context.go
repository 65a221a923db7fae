// internal/server/context.go
package server

import (
	"github.com/gin-gonic/gin"

	"newsflow/internal/database"
)

const (
	contextKeyUser      = "user"
	contextKeyRequestID = "requestID"
)

func currentUser(c *gin.Context) *database.User {
	if v, ok := c.Get(contextKeyUser); ok {
		if u, ok := v.(*database.User); ok {
			return u
		}
	}
	return nil
}

func requestIDFrom(c *gin.Context) string {
	return c.GetString(contextKeyRequestID)
}
