package util

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ValidLanguageCode reports whether code parses as a BCP 47 language tag.
// Project source/target languages are stored as the caller sent them; this
// only guards against garbage like "xx-!!".
func ValidLanguageCode(code string) bool {
	if strings.TrimSpace(code) == "" {
		return false
	}
	_, err := language.Parse(code)
	return err == nil
}

// LanguageDisplayName returns the English name for a language code, used
// when building analysis prompts ("the audio is in Ukrainian"). Unparseable
// codes are returned unchanged so a prompt is still produced.
func LanguageDisplayName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	return display.English.Tags().Name(tag)
}
