package render

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"text/template"
)

const (
	maxNameLength = 63
	hashSuffixLen = 8
)

// Sanitize maps s onto the catalog's entity-name alphabet: letters, digits
// and single '-', '_' or '.' separators, at most 63 characters, starting and
// ending with an alphanumeric. Any other run of characters becomes one '-'.
// Longer names keep a prefix and end in a short hash of the full name, so
// names sharing a long prefix stay distinct.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSep := true
	for _, r := range s {
		switch {
		case isAlnum(r):
			b.WriteRune(r)
			lastSep = false
		case r == '-' || r == '_' || r == '.':
			if !lastSep {
				b.WriteRune(r)
				lastSep = true
			}
		default:
			if !lastSep {
				b.WriteByte('-')
				lastSep = true
			}
		}
	}
	out := trimSeparators(b.String())
	if len(out) > maxNameLength {
		sum := sha256.Sum256([]byte(out))
		prefix := trimSeparators(out[:maxNameLength-hashSuffixLen-1])
		out = prefix + "-" + hex.EncodeToString(sum[:])[:hashSuffixLen]
	}
	return out
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func trimSeparators(s string) string {
	return strings.Trim(s, "-_.")
}

// ARNToName extracts the short resource name from an ARN:
// "arn:aws:eks:us-east-1:123456789012:cluster/demo" yields "demo" and
// "arn:aws:iam::123456789012:role/path/reader" yields "reader". Input that is
// not an ARN is returned unchanged.
func ARNToName(arn string) string {
	parts := strings.SplitN(arn, ":", 6)
	if len(parts) != 6 || parts[0] != "arn" {
		return arn
	}
	resource := parts[5]
	if i := strings.LastIndex(resource, "/"); i >= 0 {
		return resource[i+1:]
	}
	if i := strings.LastIndex(resource, ":"); i >= 0 {
		return resource[i+1:]
	}
	return resource
}

// FuncMap is available to annotation templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"sanitize":  Sanitize,
		"arnToName": ARNToName,
		"lower":     strings.ToLower,
		"upper":     strings.ToUpper,
		"trim":      strings.TrimSpace,
		"default": func(def string, v any) string {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
			return def
		},
	}
}
