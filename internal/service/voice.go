package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/renningen-dev/bobbervox/internal/models"
	"github.com/renningen-dev/bobbervox/pkg/dubbing"
	"github.com/renningen-dev/bobbervox/pkg/errors"
)

const maxVoiceUploadBytes = 50 * 1024 * 1024

var allowedVoiceExtensions = []string{".wav", ".mp3", ".ogg", ".m4a"}

type CustomVoiceService struct {
	db        *gorm.DB
	voicesDir string
}

func NewCustomVoiceService(db *gorm.DB, voicesDir string) *CustomVoiceService {
	return &CustomVoiceService{db: db, voicesDir: voicesDir}
}

// Create stores an uploaded reference recording under the user's voices
// directory and records it.
func (s *CustomVoiceService) Create(ctx context.Context, userID, name, description, filename string, r io.Reader) (*models.CustomVoice, error) {
	if name == "" {
		return nil, errors.Validationf("voice name is required")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	allowed := false
	for _, a := range allowedVoiceExtensions {
		if ext == a {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, errors.Validationf("invalid file type, upload a WAV, MP3, OGG or M4A file")
	}

	userDir := filepath.Join(s.voicesDir, userID)
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create voices directory")
	}

	stored := uuid.New().String() + ext
	dest := filepath.Join(userDir, stored)
	out, err := os.Create(dest)
	if err != nil {
		return nil, errors.Wrap(err, "create voice file")
	}
	defer out.Close()

	n, err := io.Copy(out, io.LimitReader(r, maxVoiceUploadBytes+1))
	if err != nil {
		os.Remove(dest)
		return nil, errors.Wrap(err, "write voice file")
	}
	if n > maxVoiceUploadBytes {
		os.Remove(dest)
		return nil, errors.Validationf("file too large, maximum size is 50MB")
	}

	voice := models.CustomVoice{
		UserID:      userID,
		Name:        name,
		FilePath:    filepath.Join(userID, stored),
		Description: description,
	}
	if err := s.db.WithContext(ctx).Create(&voice).Error; err != nil {
		os.Remove(dest)
		return nil, errors.Wrap(err, "create voice record")
	}
	return &voice, nil
}

// Get returns a voice owned by the user; other users' voices are reported
// as missing.
func (s *CustomVoiceService) Get(ctx context.Context, userID string, id uint) (*models.CustomVoice, error) {
	var voice models.CustomVoice
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&voice).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.NotFoundf("custom voice not found: %d", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load voice")
	}
	return &voice, nil
}

func (s *CustomVoiceService) List(ctx context.Context, userID string) ([]models.CustomVoice, error) {
	var voices []models.CustomVoice
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&voices).Error; err != nil {
		return nil, errors.Wrap(err, "list voices")
	}
	return voices, nil
}

// Update changes name and/or description.
func (s *CustomVoiceService) Update(ctx context.Context, userID string, id uint, name, description *string) (*models.CustomVoice, error) {
	voice, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if name != nil && *name != "" {
		voice.Name = *name
	}
	if description != nil {
		voice.Description = *description
	}
	if err := s.db.WithContext(ctx).Save(voice).Error; err != nil {
		return nil, errors.Wrap(err, "update voice")
	}
	return voice, nil
}

// Delete removes the row and the file. A missing file is not an error.
func (s *CustomVoiceService) Delete(ctx context.Context, userID string, id uint) error {
	voice, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	os.Remove(s.FilePath(voice))
	if err := s.db.WithContext(ctx).Delete(voice).Error; err != nil {
		return errors.Wrap(err, "delete voice")
	}
	return nil
}

// FilePath resolves the stored relative path to the absolute file location.
func (s *CustomVoiceService) FilePath(voice *models.CustomVoice) string {
	return filepath.Join(s.voicesDir, voice.FilePath)
}

// VoiceRef returns the identifier segments store for this voice.
func VoiceRef(voice *models.CustomVoice) string {
	return fmt.Sprintf("%s%d:%s", dubbing.CustomVoicePrefix, voice.ID, voice.Name)
}

// ResolveVoiceRef parses a custom:{id}:{name} identifier and returns the
// owner's voice file path. Voices of other users resolve to not-found.
func (s *CustomVoiceService) ResolveVoiceRef(ctx context.Context, userID, ref string) (string, error) {
	rest := strings.TrimPrefix(ref, dubbing.CustomVoicePrefix)
	idStr, _, found := strings.Cut(rest, ":")
	if !found || idStr == "" {
		return "", errors.Validationf("invalid custom voice identifier %q", ref)
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return "", errors.Validationf("invalid custom voice identifier %q", ref)
	}
	voice, err := s.Get(ctx, userID, uint(id))
	if err != nil {
		return "", err
	}
	path := s.FilePath(voice)
	if _, err := os.Stat(path); err != nil {
		return "", errors.NotFoundf("voice file not found")
	}
	return path, nil
}
