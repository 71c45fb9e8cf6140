package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/renningen-dev/bobbervox/pkg/response"
)

// GetProjectFile serves a stored media file. The category is one of audio,
// segments or output; ownership is checked before the path is resolved.
func (h *Handlers) GetProjectFile(c *gin.Context) {
	projectID, ok := pathID(c, "project_id")
	if !ok {
		return
	}
	if _, err := h.projects.Get(c.Request.Context(), userID(c), projectID); err != nil {
		response.Error(c, err)
		return
	}

	path, err := h.layout.ResolveFile(c.Param("project_id"), c.Param("category"), c.Param("filename"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.File(path)
}
