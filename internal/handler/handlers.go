// Package handlers exposes the dubbing workflow over HTTP: projects,
// segments, settings, custom voices and the system endpoints.
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"gorm.io/gorm"

	"github.com/renningen-dev/bobbervox/internal/service"
	"github.com/renningen-dev/bobbervox/pkg/errors"
	"github.com/renningen-dev/bobbervox/pkg/files"
	"github.com/renningen-dev/bobbervox/pkg/middleware"
	"github.com/renningen-dev/bobbervox/pkg/response"
)

type Handlers struct {
	db       *gorm.DB
	layout   *files.Layout
	projects *service.ProjectService
	segments *service.SegmentService
	settings *service.SettingsService
	voices   *service.CustomVoiceService

	limiter        *middleware.RateLimiter // nil when rate limiting is off
	maxUploadBytes int64
}

func NewHandlers(
	db *gorm.DB,
	layout *files.Layout,
	projects *service.ProjectService,
	segments *service.SegmentService,
	settings *service.SettingsService,
	voices *service.CustomVoiceService,
	limiter *middleware.RateLimiter,
	maxUploadBytes int64,
) *Handlers {
	return &Handlers{
		db:             db,
		layout:         layout,
		projects:       projects,
		segments:       segments,
		settings:       settings,
		voices:         voices,
		limiter:        limiter,
		maxUploadBytes: maxUploadBytes,
	}
}

func userID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

// pathID parses a numeric path parameter; 0 with a written response means
// the value was rejected.
func pathID(c *gin.Context, name string) (uint, bool) {
	id := cast.ToUint(c.Param(name))
	if id == 0 {
		response.Error(c, errors.Validationf("invalid %s %q", name, c.Param(name)))
		return 0, false
	}
	return id, true
}
