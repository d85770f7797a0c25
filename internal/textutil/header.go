package textutil

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ASCIIFileName folds name into printable ASCII: accents are stripped, other
// non-ASCII runes become underscores, and quote/backslash characters are
// removed so the result can sit inside a quoted header parameter. A name with
// nothing left but its extension becomes "download" plus that extension.
func ASCIIFileName(name string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r == '"' || r == '\\':
		case r < 0x20 || r == 0x7f:
		case r > 0x7e:
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	ext := extOf(out)
	if strings.Trim(strings.TrimSuffix(out, ext), "_. ") == "" {
		return "download" + ext
	}
	return out
}

func extOf(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	ext := name[idx:]
	for _, r := range ext[1:] {
		if !isAlnum(r) {
			return ""
		}
	}
	return ext
}

func isAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

// ContentDisposition builds an attachment header carrying the ASCII fallback
// and, when it differs, the RFC 5987 UTF-8 form of name.
func ContentDisposition(name string) string {
	ascii := ASCIIFileName(name)
	header := `attachment; filename="` + ascii + `"`
	if name != ascii {
		header += "; filename*=UTF-8''" + encodeExtValue(name)
	}
	return header
}

// encodeExtValue percent-encodes every byte outside RFC 5987 attr-char.
func encodeExtValue(value string) string {
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c < 0x80 && (isAlnum(rune(c)) || strings.IndexByte("!#$&+-.^_`|~", c) >= 0) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

// Title capitalizes a status or label for display.
func Title(value string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(value, "_", " "))
}
