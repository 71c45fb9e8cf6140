package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/renningen-dev/bobbervox/pkg/config"
	"github.com/renningen-dev/bobbervox/pkg/middleware"
)

func (h *Handlers) Register(engine *gin.Engine) {
	r := engine.Group(config.GlobalConfig.APIPrefix)

	r.Use(middleware.InjectDB(h.db))

	h.registerProjectRoutes(r)
	h.registerSegmentRoutes(r)
	h.registerSettingsRoutes(r)
	h.registerVoiceRoutes(r)
	h.registerFileRoutes(r)
	h.registerSystemRoutes(r)
}

func (h *Handlers) registerProjectRoutes(r *gin.RouterGroup) {
	projects := r.Group("projects")
	{
		projects.POST("", h.CreateProject)
		projects.GET("", h.ListProjects)
		projects.GET("/:id", h.GetProject)
		projects.PATCH("/:id", h.UpdateProject)
		projects.DELETE("/:id", h.DeleteProject)

		projects.POST("/:id/upload", h.UploadVideo)
		projects.POST("/:id/extract-audio", h.ExtractProjectAudio)
		projects.GET("/:id/download-all", h.DownloadProjectOutputs)

		projects.POST("/:id/segments", h.CreateSegment)
		projects.GET("/:id/segments", h.ListSegments)
		projects.GET("/:id/segments/search", h.SearchProjectSegments)
	}
}

func (h *Handlers) registerSegmentRoutes(r *gin.RouterGroup) {
	segments := r.Group("segments")
	{
		segments.GET("/search", h.SearchSegments)

		segments.GET("/:id", h.GetSegment)
		segments.DELETE("/:id", h.DeleteSegment)

		segments.POST("/:id/extract", h.ExtractSegment)
		segments.POST("/:id/analyze", h.AnalyzeSegment)
		segments.PUT("/:id/translation", h.UpdateTranslation)
		segments.PUT("/:id/analysis", h.UpdateAnalysis)
		segments.POST("/:id/generate-tts", h.GenerateTTS)
	}
}

func (h *Handlers) registerSettingsRoutes(r *gin.RouterGroup) {
	settings := r.Group("settings")
	{
		settings.GET("", h.GetSettings)
		settings.PUT("", h.UpdateSettings)
		settings.GET("/voices", h.ListAvailableVoices)
		settings.GET("/chatterbox/health", h.ChatterBoxHealth)
	}
}

func (h *Handlers) registerVoiceRoutes(r *gin.RouterGroup) {
	voices := r.Group("voices")
	{
		voices.POST("", h.CreateVoice)
		voices.GET("", h.ListVoices)
		voices.GET("/:id", h.GetVoice)
		voices.GET("/:id/audio", h.GetVoiceAudio)
		voices.PATCH("/:id", h.UpdateVoice)
		voices.DELETE("/:id", h.DeleteVoice)
	}
}

func (h *Handlers) registerFileRoutes(r *gin.RouterGroup) {
	r.GET("/files/:project_id/:category/:filename", h.GetProjectFile)
}

func (h *Handlers) registerSystemRoutes(r *gin.RouterGroup) {
	system := r.Group("system")
	{
		system.GET("/health", h.HealthCheck)
		system.POST("/rate-limiter/config", h.UpdateRateLimiterConfig)
	}
}
