package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/renningen-dev/bobbervox/internal/service"
	"github.com/renningen-dev/bobbervox/pkg/errors"
	"github.com/renningen-dev/bobbervox/pkg/response"
)

func (h *Handlers) CreateProject(c *gin.Context) {
	var in service.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, "invalid request body", nil)
		return
	}
	project, err := h.projects.Create(c.Request.Context(), userID(c), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

func (h *Handlers) ListProjects(c *gin.Context) {
	projects, err := h.projects.List(c.Request.Context(), userID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, projects)
}

func (h *Handlers) GetProject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	project, err := h.projects.GetWithSegments(c.Request.Context(), userID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, project)
}

func (h *Handlers) UpdateProject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, "invalid request body", nil)
		return
	}
	project, err := h.projects.Update(c.Request.Context(), userID(c), id, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, project)
}

func (h *Handlers) DeleteProject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.projects.Delete(c.Request.Context(), userID(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UploadVideo accepts the source video as multipart field "file".
func (h *Handlers) UploadVideo(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	file, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, "file is required", nil)
		return
	}
	src, err := file.Open()
	if err != nil {
		response.Error(c, errors.Wrap(err, "open upload"))
		return
	}
	defer src.Close()

	project, err := h.projects.SaveVideo(c.Request.Context(), userID(c), id, src, file.Filename)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, project)
}

func (h *Handlers) ExtractProjectAudio(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	project, err := h.projects.ExtractAudio(c.Request.Context(), userID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, project)
}

// DownloadProjectOutputs streams a zip of every generated file.
func (h *Handlers) DownloadProjectOutputs(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="project_%d_output.zip"`, id))
	if err := h.projects.ArchiveOutputs(c.Request.Context(), userID(c), id, c.Writer); err != nil {
		// Nothing was streamed on the not-found/ownership path, so the
		// error response is still writable.
		c.Header("Content-Type", "application/json")
		c.Header("Content-Disposition", "")
		response.Error(c, err)
		return
	}
	c.Status(http.StatusOK)
}
