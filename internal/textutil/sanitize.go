package textutil

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxFileNameBytes is the usual per-component limit on Linux and macOS.
const maxFileNameBytes = 255

// SanitizeFileName turns a server-supplied title into a safe local file
// name. Path separators, colons, and asterisks become dashes. Quotes,
// wildcards, and control characters are dropped. Runs of whitespace collapse
// to one space. Leading dots are stripped so the result is never hidden or a
// directory reference, and long names are shortened without losing the
// extension. Names that reduce to nothing return "".
func SanitizeFileName(name string) string {
	var b strings.Builder
	pendingSpace := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*':
			b.WriteByte('-')
		case unicode.IsSpace(r):
			if !pendingSpace {
				b.WriteByte(' ')
			}
			pendingSpace = true
			continue
		case strings.ContainsRune(`?"<>|`, r) || unicode.IsControl(r) || r == utf8.RuneError:
			continue
		default:
			b.WriteRune(r)
		}
		pendingSpace = false
	}
	out := strings.TrimLeft(strings.TrimSpace(b.String()), ".")
	if out == "" {
		return ""
	}
	return truncateFileName(out, maxFileNameBytes)
}

// truncateFileName shortens the stem on a rune boundary so the whole name
// fits in limit bytes.
func truncateFileName(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) > 16 {
		ext = ""
	}
	stem := strings.TrimSuffix(name, ext)
	for len(stem)+len(ext) > limit {
		_, size := utf8.DecodeLastRuneInString(stem)
		stem = stem[:len(stem)-size]
	}
	return strings.TrimSpace(stem) + ext
}

// SanitizeToken folds a display label such as "Work directory" into a
// lowercase key like "work_directory". ASCII letters, digits, dashes and
// underscores survive; everything else becomes an underscore. Blank input
// yields "unknown".
func SanitizeToken(value string) string {
	token := strings.Map(func(r rune) rune {
		switch {
		case r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			return unicode.ToLower(r)
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(value))
	token = strings.Trim(token, "_-")
	if token == "" {
		return "unknown"
	}
	return token
}
