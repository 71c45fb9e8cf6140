// Package service implements the dubbing workflow on top of the models:
// project bookkeeping, the segment pipeline (extract, analyze, synthesize),
// per-user settings and custom voices.
package service

import (
	"strconv"

	"github.com/renningen-dev/bobbervox/pkg/util"
)

// projectKey is the on-disk directory name for a project.
func projectKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// languageName renders a stored language code for prompt text.
func languageName(code string) string {
	return util.LanguageDisplayName(code)
}
