package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/renningen-dev/bobbervox/internal/models"
	"github.com/renningen-dev/bobbervox/pkg/cache"
	"github.com/renningen-dev/bobbervox/pkg/dubbing"
	"github.com/renningen-dev/bobbervox/pkg/errors"
)

const (
	chatterboxHealthKey = "chatterbox:healthy"
	chatterboxHealthTTL = 30 * time.Second
)

// HealthChecker reports whether the ChatterBox server is reachable.
type HealthChecker interface {
	CheckHealth(ctx context.Context) bool
}

type SettingsService struct {
	db         *gorm.DB
	chatterbox HealthChecker
	cache      cache.Cache
}

func NewSettingsService(db *gorm.DB, chatterbox HealthChecker, c cache.Cache) *SettingsService {
	return &SettingsService{db: db, chatterbox: chatterbox, cache: c}
}

// SettingsUpdate carries the user-editable settings; nil fields are left
// unchanged.
type SettingsUpdate struct {
	OpenAIAPIKey       *string `json:"openai_api_key"`
	ContextDescription *string `json:"context_description"`
	TTSProvider        *string `json:"tts_provider"`
}

// Get returns the user's settings, creating the default row on first use.
func (s *SettingsService) Get(ctx context.Context, userID string) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if err == gorm.ErrRecordNotFound {
		settings = models.NewUserSettings(userID)
		if err := s.db.WithContext(ctx).Create(&settings).Error; err != nil {
			return nil, errors.Wrap(err, "create default settings")
		}
		return &settings, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load settings")
	}
	return &settings, nil
}

// Update applies the non-nil fields and returns the stored settings.
func (s *SettingsService) Update(ctx context.Context, userID string, in SettingsUpdate) (*models.UserSettings, error) {
	settings, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.OpenAIAPIKey != nil {
		settings.OpenAIAPIKey = *in.OpenAIAPIKey
	}
	if in.ContextDescription != nil {
		settings.ContextDescription = *in.ContextDescription
	}
	if in.TTSProvider != nil {
		switch dubbing.Provider(*in.TTSProvider) {
		case dubbing.ProviderOpenAI, dubbing.ProviderChatterBox:
			settings.TTSProvider = *in.TTSProvider
		default:
			return nil, errors.Validationf("invalid tts provider %q", *in.TTSProvider)
		}
	}

	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		return nil, errors.Wrap(err, "update settings")
	}
	return settings, nil
}

// ChatterBoxAvailable probes the TTS server, caching the result briefly so
// the settings page does not hammer it.
func (s *SettingsService) ChatterBoxAvailable(ctx context.Context) bool {
	if s.chatterbox == nil {
		return false
	}
	if s.cache != nil {
		if v, ok := s.cache.Get(ctx, chatterboxHealthKey); ok {
			if healthy, ok := v.(bool); ok {
				return healthy
			}
		}
	}
	healthy := s.chatterbox.CheckHealth(ctx)
	if s.cache != nil {
		s.cache.Set(ctx, chatterboxHealthKey, healthy, chatterboxHealthTTL)
	}
	return healthy
}
