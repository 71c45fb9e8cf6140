package service

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/renningen-dev/bobbervox/internal/models"
	"github.com/renningen-dev/bobbervox/pkg/errors"
	"github.com/renningen-dev/bobbervox/pkg/files"
	"github.com/renningen-dev/bobbervox/pkg/logger"
	"github.com/renningen-dev/bobbervox/pkg/media"
	"github.com/renningen-dev/bobbervox/pkg/search"
	"github.com/renningen-dev/bobbervox/pkg/util"
)

const (
	defaultSourceLanguage = "en"
	defaultTargetLanguage = "uk"
)

type ProjectService struct {
	db     *gorm.DB
	layout *files.Layout
	media  *media.Adapter
	index  *search.Index // nil when search is disabled
}

func NewProjectService(db *gorm.DB, layout *files.Layout, adapter *media.Adapter, index *search.Index) *ProjectService {
	return &ProjectService{db: db, layout: layout, media: adapter, index: index}
}

// ProjectInput carries the user-editable project fields.
type ProjectInput struct {
	Name           string  `json:"name"`
	SourceLanguage *string `json:"source_language"`
	TargetLanguage *string `json:"target_language"`
}

// ProjectSummary is a listing row with the segment count attached.
type ProjectSummary struct {
	models.Project
	SegmentCount int64 `json:"segment_count"`
}

func validateLanguage(code string) (string, error) {
	if !util.ValidLanguageCode(code) {
		return "", errors.Validationf("invalid language code %q", code)
	}
	return code, nil
}

// Create validates the input, stores the row and eagerly creates the
// project directory tree.
func (s *ProjectService) Create(ctx context.Context, userID string, in ProjectInput) (*models.Project, error) {
	if in.Name == "" {
		return nil, errors.Validationf("project name is required")
	}

	project := models.Project{
		UserID:         userID,
		Name:           in.Name,
		SourceLanguage: defaultSourceLanguage,
		TargetLanguage: defaultTargetLanguage,
	}
	var err error
	if in.SourceLanguage != nil {
		if project.SourceLanguage, err = validateLanguage(*in.SourceLanguage); err != nil {
			return nil, err
		}
	}
	if in.TargetLanguage != nil {
		if project.TargetLanguage, err = validateLanguage(*in.TargetLanguage); err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, errors.Wrap(err, "create project")
	}
	if err := s.layout.CreateProjectDirs(projectKey(project.ID)); err != nil {
		return nil, err
	}
	return &project, nil
}

// Get returns an owned project without its segments.
func (s *ProjectService) Get(ctx context.Context, userID string, id uint) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&project).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.NotFoundf("project not found: %d", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load project")
	}
	return &project, nil
}

// GetWithSegments returns a project with its segments ordered by start
// time.
func (s *ProjectService) GetWithSegments(ctx context.Context, userID string, id uint) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).
		Preload("Segments", func(db *gorm.DB) *gorm.DB {
			return db.Order("start_time ASC")
		}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&project).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.NotFoundf("project not found: %d", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load project")
	}
	return &project, nil
}

// List returns the user's projects with segment counts, newest first.
func (s *ProjectService) List(ctx context.Context, userID string) ([]ProjectSummary, error) {
	var projects []models.Project
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, errors.Wrap(err, "list projects")
	}

	summaries := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		var count int64
		if err := s.db.WithContext(ctx).
			Model(&models.Segment{}).
			Where("project_id = ?", p.ID).
			Count(&count).Error; err != nil {
			return nil, errors.Wrap(err, "count segments")
		}
		summaries = append(summaries, ProjectSummary{Project: p, SegmentCount: count})
	}
	return summaries, nil
}

// Update renames a project or changes its language pair.
func (s *ProjectService) Update(ctx context.Context, userID string, id uint, in ProjectInput) (*models.Project, error) {
	project, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		project.Name = in.Name
	}
	if in.SourceLanguage != nil {
		if project.SourceLanguage, err = validateLanguage(*in.SourceLanguage); err != nil {
			return nil, err
		}
	}
	if in.TargetLanguage != nil {
		if project.TargetLanguage, err = validateLanguage(*in.TargetLanguage); err != nil {
			return nil, err
		}
	}
	if err := s.db.WithContext(ctx).Save(project).Error; err != nil {
		return nil, errors.Wrap(err, "update project")
	}
	return project, nil
}

// Delete removes the project, its segments, its directory tree and its
// search documents.
func (s *ProjectService) Delete(ctx context.Context, userID string, id uint) error {
	project, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.layout.RemoveProjectDirs(projectKey(project.ID)); err != nil {
		return errors.Wrap(err, "remove project files")
	}
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", project.ID).
		Delete(&models.Segment{}).Error; err != nil {
		return errors.Wrap(err, "delete project segments")
	}
	if err := s.db.WithContext(ctx).Delete(project).Error; err != nil {
		return errors.Wrap(err, "delete project")
	}

	if s.index != nil {
		if err := s.index.DeleteProject(ctx, project.ID); err != nil {
			logger.Warn("failed to remove project from search index",
				zap.Uint("project_id", project.ID), zap.Error(err))
		}
	}
	return nil
}

// SaveVideo streams an uploaded video into the project's source directory
// and records the relative path.
func (s *ProjectService) SaveVideo(ctx context.Context, userID string, id uint, r io.Reader, filename string) (*models.Project, error) {
	project, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	rel, err := s.layout.SaveUpload(projectKey(project.ID), r, filename)
	if err != nil {
		return nil, err
	}
	project.SourceVideo = rel
	if err := s.db.WithContext(ctx).Save(project).Error; err != nil {
		return nil, errors.Wrap(err, "store video path")
	}
	return project, nil
}

// ExtractAudio runs ffmpeg over the uploaded video and stores the full
// audio track as audio/full_audio.wav.
func (s *ProjectService) ExtractAudio(ctx context.Context, userID string, id uint) (*models.Project, error) {
	project, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if project.SourceVideo == "" {
		return nil, errors.Processingf("no video uploaded for this project")
	}

	videoPath := s.layout.Abs(project.SourceVideo)
	audioPath := filepath.Join(s.layout.AudioDir(projectKey(project.ID)), "full_audio.wav")

	if err := s.media.ExtractAudio(ctx, videoPath, audioPath); err != nil {
		return nil, err
	}

	rel, err := s.layout.Rel(audioPath)
	if err != nil {
		return nil, errors.Wrap(err, "relativize audio path")
	}
	project.ExtractedAudio = rel
	if err := s.db.WithContext(ctx).Save(project).Error; err != nil {
		return nil, errors.Wrap(err, "store audio path")
	}
	return project, nil
}

// ArchiveOutputs writes a zip of the project's output directory to w.
func (s *ProjectService) ArchiveOutputs(ctx context.Context, userID string, id uint, w io.Writer) error {
	project, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	outputDir := s.layout.OutputDir(projectKey(project.ID))
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return errors.NotFoundf("project has no output files")
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	// Decide before touching w so the caller can still send an error
	// response.
	if len(names) == 0 {
		return errors.NotFoundf("project has no output files")
	}

	zw := zip.NewWriter(w)
	defer zw.Close()

	for _, name := range names {
		f, err := os.Open(filepath.Join(outputDir, name))
		if err != nil {
			return errors.Wrap(err, "open output file")
		}
		dst, err := zw.Create(name)
		if err != nil {
			f.Close()
			return errors.Wrap(err, "write zip entry")
		}
		if _, err := io.Copy(dst, f); err != nil {
			f.Close()
			return errors.Wrap(err, "write zip entry")
		}
		f.Close()
	}
	return nil
}
