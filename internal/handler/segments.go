package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/renningen-dev/bobbervox/internal/service"
	"github.com/renningen-dev/bobbervox/pkg/response"
)

const defaultSearchLimit = 20

func (h *Handlers) CreateSegment(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.SegmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, "invalid request body", nil)
		return
	}
	segment, err := h.segments.Create(c.Request.Context(), userID(c), projectID, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, segment)
}

func (h *Handlers) ListSegments(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	segments, err := h.segments.ListByProject(c.Request.Context(), userID(c), projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, segments)
}

func (h *Handlers) GetSegment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	segment, _, err := h.segments.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, segment)
}

func (h *Handlers) DeleteSegment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.segments.Delete(c.Request.Context(), userID(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handlers) ExtractSegment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	segment, err := h.segments.Extract(c.Request.Context(), userID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, segment)
}

func (h *Handlers) AnalyzeSegment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	segment, err := h.segments.Analyze(c.Request.Context(), userID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, segment)
}

func (h *Handlers) UpdateTranslation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in struct {
		TranslatedText string `json:"translated_text"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, "invalid request body", nil)
		return
	}
	segment, err := h.segments.UpdateTranslation(c.Request.Context(), userID(c), id, in.TranslatedText)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, segment)
}

// UpdateAnalysis merges the posted keys into the stored analysis.
func (h *Handlers) UpdateAnalysis(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		response.Fail(c, "invalid request body", nil)
		return
	}
	segment, err := h.segments.UpdateAnalysis(c.Request.Context(), userID(c), id, updates)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, segment)
}

func (h *Handlers) GenerateTTS(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.TTSInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, "invalid request body", nil)
		return
	}
	segment, err := h.segments.GenerateTTS(c.Request.Context(), userID(c), id, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, segment)
}

// SearchSegments runs a full-text query over the caller's segments.
// Optional: project_id narrows to one project, limit caps the hit count.
func (h *Handlers) SearchSegments(c *gin.Context) {
	h.searchSegments(c, cast.ToUint(c.Query("project_id")))
}

// SearchProjectSegments is the project-scoped variant of the search.
func (h *Handlers) SearchProjectSegments(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.searchSegments(c, projectID)
}

func (h *Handlers) searchSegments(c *gin.Context, projectID uint) {
	limit := cast.ToInt(c.Query("limit"))
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	hits, err := h.segments.Search(c.Request.Context(), userID(c), c.Query("q"), projectID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"query": c.Query("q"), "results": hits, "total": len(hits)})
}
