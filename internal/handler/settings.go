package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/renningen-dev/bobbervox/internal/models"
	"github.com/renningen-dev/bobbervox/internal/service"
	"github.com/renningen-dev/bobbervox/pkg/dubbing"
	"github.com/renningen-dev/bobbervox/pkg/response"
)

// settingsView is the API shape of a user's settings: the key comes back
// masked, never in full.
type settingsView struct {
	OpenAIAPIKey        string `json:"openai_api_key"`
	OpenAIAPIKeySet     bool   `json:"openai_api_key_set"`
	ContextDescription  string `json:"context_description"`
	TTSProvider         string `json:"tts_provider"`
	ChatterBoxAvailable bool   `json:"chatterbox_available"`
}

func (h *Handlers) settingsView(c *gin.Context, settings *models.UserSettings) settingsView {
	return settingsView{
		OpenAIAPIKey:        settings.MaskedAPIKey(),
		OpenAIAPIKeySet:     settings.OpenAIAPIKey != "",
		ContextDescription:  settings.ContextDescription,
		TTSProvider:         settings.TTSProvider,
		ChatterBoxAvailable: h.settings.ChatterBoxAvailable(c.Request.Context()),
	}
}

func (h *Handlers) GetSettings(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context(), userID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, h.settingsView(c, settings))
}

func (h *Handlers) UpdateSettings(c *gin.Context) {
	var in service.SettingsUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, "invalid request body", nil)
		return
	}
	settings, err := h.settings.Update(c.Request.Context(), userID(c), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, h.settingsView(c, settings))
}

// ListAvailableVoices returns the predefined voices per provider plus the
// caller's custom voice references.
func (h *Handlers) ListAvailableVoices(c *gin.Context) {
	custom, err := h.voices.List(c.Request.Context(), userID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	refs := make([]gin.H, 0, len(custom))
	for i := range custom {
		refs = append(refs, gin.H{
			"id":   custom[i].ID,
			"name": custom[i].Name,
			"ref":  service.VoiceRef(&custom[i]),
		})
	}
	response.OK(c, gin.H{
		"openai":     dubbing.OpenAIVoices,
		"chatterbox": dubbing.ChatterBoxVoices,
		"custom":     refs,
	})
}

func (h *Handlers) ChatterBoxHealth(c *gin.Context) {
	response.OK(c, gin.H{"available": h.settings.ChatterBoxAvailable(c.Request.Context())})
}
