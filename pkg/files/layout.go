package files

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/renningen-dev/bobbervox/pkg/errors"
)

const uploadChunkSize = 8192

// Subdirectories every project gets at creation time.
var projectSubdirs = []string{"source", "audio", "segments", "output"}

// Layout maps project identifiers to their directory tree under the
// projects root and keeps every resolved path inside it.
type Layout struct {
	root       string
	allowedExt []string
}

func NewLayout(projectsDir string, allowedVideoExtensions []string) *Layout {
	return &Layout{root: projectsDir, allowedExt: allowedVideoExtensions}
}

func (l *Layout) Root() string { return l.root }

func (l *Layout) ProjectDir(projectID string) string {
	return filepath.Join(l.root, projectID)
}

func (l *Layout) SourceDir(projectID string) string {
	return filepath.Join(l.root, projectID, "source")
}

func (l *Layout) AudioDir(projectID string) string {
	return filepath.Join(l.root, projectID, "audio")
}

func (l *Layout) SegmentsDir(projectID string) string {
	return filepath.Join(l.root, projectID, "segments")
}

func (l *Layout) OutputDir(projectID string) string {
	return filepath.Join(l.root, projectID, "output")
}

// Abs resolves a database-relative path to an absolute one under the root.
func (l *Layout) Abs(relative string) string {
	return filepath.Join(l.root, relative)
}

// Rel converts an absolute path under the root back to its stored form.
func (l *Layout) Rel(abs string) (string, error) {
	return filepath.Rel(l.root, abs)
}

// CreateProjectDirs eagerly creates the fixed subdirectory tree.
func (l *Layout) CreateProjectDirs(projectID string) error {
	for _, sub := range projectSubdirs {
		if err := os.MkdirAll(filepath.Join(l.ProjectDir(projectID), sub), 0o755); err != nil {
			return errors.Wrapf(err, "create project directory %s/%s", projectID, sub)
		}
	}
	return nil
}

// RemoveProjectDirs deletes the whole project tree from disk.
func (l *Layout) RemoveProjectDirs(projectID string) error {
	dir := l.ProjectDir(projectID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	return os.RemoveAll(dir)
}

// ValidateVideoExtension checks an upload filename against the allow-list
// and returns its lower-cased extension.
func (l *Layout) ValidateVideoExtension(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range l.allowedExt {
		if ext == allowed {
			return ext, nil
		}
	}
	return "", errors.Validationf("invalid file extension %q, allowed: %s", ext, strings.Join(l.allowedExt, ", "))
}

// SaveUpload streams an uploaded video to source/video{ext} in fixed-size
// chunks and returns the root-relative path.
func (l *Layout) SaveUpload(projectID string, r io.Reader, filename string) (string, error) {
	ext, err := l.ValidateVideoExtension(filename)
	if err != nil {
		return "", err
	}
	dir := l.SourceDir(projectID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create source directory")
	}
	dest := filepath.Join(dir, "video"+ext)
	out, err := os.Create(dest)
	if err != nil {
		return "", errors.Wrap(err, "create upload file")
	}
	defer out.Close()

	buf := make([]byte, uploadChunkSize)
	if _, err := io.CopyBuffer(out, r, buf); err != nil {
		return "", errors.Wrap(err, "write upload file")
	}
	return l.Rel(dest)
}

// ResolveFile validates that projectID/subdir/filename resolves to an
// existing file still inside the project tree, rejecting traversal.
func (l *Layout) ResolveFile(projectID, subdir, filename string) (string, error) {
	switch subdir {
	case "audio", "segments", "output":
	default:
		return "", errors.Validationf("invalid file category %q", subdir)
	}

	projectDir, err := filepath.Abs(l.ProjectDir(projectID))
	if err != nil {
		return "", errors.Wrap(err, "resolve project directory")
	}
	full, err := filepath.Abs(filepath.Join(projectDir, subdir, filename))
	if err != nil {
		return "", errors.Wrap(err, "resolve file path")
	}
	if !strings.HasPrefix(full, projectDir+string(os.PathSeparator)) {
		return "", errors.NotFoundf("file not found: %s", filename)
	}
	if st, err := os.Stat(full); err != nil || st.IsDir() {
		return "", errors.NotFoundf("file not found: %s", filename)
	}
	return full, nil
}
