package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/renningen-dev/bobbervox/pkg/errors"
	"github.com/renningen-dev/bobbervox/pkg/response"
)

// CreateVoice accepts a multipart form: name, optional description and the
// reference recording as field "file".
func (h *Handlers) CreateVoice(c *gin.Context) {
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

	voice, err := h.voices.Create(
		c.Request.Context(),
		userID(c),
		c.PostForm("name"),
		c.PostForm("description"),
		file.Filename,
		src,
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, voice)
}

func (h *Handlers) ListVoices(c *gin.Context) {
	voices, err := h.voices.List(c.Request.Context(), userID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, voices)
}

func (h *Handlers) GetVoice(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	voice, err := h.voices.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, voice)
}

// GetVoiceAudio serves the stored reference recording.
func (h *Handlers) GetVoiceAudio(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	voice, err := h.voices.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.File(h.voices.FilePath(voice))
}

func (h *Handlers) UpdateVoice(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, "invalid request body", nil)
		return
	}
	voice, err := h.voices.Update(c.Request.Context(), userID(c), id, in.Name, in.Description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, voice)
}

func (h *Handlers) DeleteVoice(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.voices.Delete(c.Request.Context(), userID(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
