package show

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TrackFileName returns "<prefix>_<Speaker>.mp3", e.g. Finale_Kristine.mp3.
func TrackFileName(prefix, speaker string) string {
	name := cases.Title(language.Und).String(strings.TrimSpace(speaker))
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return name + ".mp3"
	}
	return prefix + "_" + name + ".mp3"
}
