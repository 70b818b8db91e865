// Package naming derives download names and storage paths for generated CVs.
package naming

import (
	"strings"
	"time"
	"unicode"

	"github.com/nikogura/academic-cv/pkg/records"
	"github.com/nikogura/academic-cv/pkg/renderer"
)

// Name returns CV_<sanitized name or id>.<ext>. It is presentation only;
// two profiles with the same name get the same file name.
func Name(profile *records.Profile, format renderer.Format) (name string) {
	base := ""
	if profile != nil {
		base = Sanitize(profile.FullName)
		if base == "" {
			base = Sanitize(profile.ID)
		}
	}

	name = "CV"
	if base != "" {
		name += "_" + base
	}
	name += "." + format.Extension()
	return name
}

// StoragePath returns <owner>/CV_<name>_<YYYYMMDD_HHMMSS>.<ext>, where owner is
// the sanitized profile ID (or name when the ID is blank).
func StoragePath(profile *records.Profile, format renderer.Format, at time.Time) (path string) {
	owner := "anonymous"
	if profile != nil {
		if id := Sanitize(profile.ID); id != "" {
			owner = id
		} else if n := Sanitize(profile.FullName); n != "" {
			owner = n
		}
	}

	name := Name(profile, format)
	stem := strings.TrimSuffix(name, "."+format.Extension())
	path = owner + "/" + stem + "_" + at.UTC().Format("20060102_150405") + "." + format.Extension()
	return path
}

// Sanitize replaces whitespace with underscores and drops characters that are
// unsafe in paths or headers. Letters keep their case and accents.
func Sanitize(s string) (sanitized string) {
	sanitized = strings.Map(func(r rune) (result rune) {
		switch {
		case unicode.IsSpace(r):
			result = '_'
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			result = r
		case r == '-' || r == '.' || r == '_':
			result = r
		default:
			result = -1
		}
		return result
	}, strings.TrimSpace(s))

	// Remove consecutive underscores
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}

	// Leading dots would make hidden files
	sanitized = strings.TrimLeft(sanitized, "._")
	sanitized = strings.TrimRight(sanitized, "_")

	return sanitized
}
