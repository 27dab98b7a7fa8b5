package textutil

import "strings"

// fileNameReplacer maps characters that break paths on common filesystems.
// Separators and wildcards become dashes so track titles stay readable;
// quoting and redirection characters are dropped outright.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes a display name safe to use as a file name. Runs of
// whitespace collapse to one space, and leading or trailing spaces and dots
// are trimmed so the result never hides as a dotfile.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = fileNameReplacer.Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	return strings.Trim(name, " .")
}

// SanitizeToken lowers a string into an identifier-safe token for log file
// names and directory components. Anything outside ASCII letters, digits,
// hyphen, and underscore becomes an underscore. Empty results come back as
// "unknown" so callers always get a usable token.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		b.WriteRune(tokenRune(r))
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}

func tokenRune(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
		return r
	case r >= 'A' && r <= 'Z':
		return r + ('a' - 'A')
	default:
		return '_'
	}
}
