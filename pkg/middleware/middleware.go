package middleware

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Context keys set by the middleware chain.
const (
	DBKey     = "db"
	UserIDKey = "user_id"
)

// InjectDB makes the database handle available to handlers via the request
// context.
func InjectDB(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(DBKey, db)
		c.Next()
	}
}

// GetDB returns the injected database handle.
func GetDB(c *gin.Context) *gorm.DB {
	return c.MustGet(DBKey).(*gorm.DB)
}
