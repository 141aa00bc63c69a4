package locale

import (
	"strings"

	"golang.org/x/text/language"
)

// Normalize converts an OS or environment locale string into a lower-case
// BCP 47 tag: "zh_CN.UTF-8" becomes "zh-cn", "ja-JP" stays "ja-jp".
// It returns "" for values that carry no language ("C", "POSIX", "").
func Normalize(raw string) string {
	value := strings.TrimSpace(raw)
	if i := strings.IndexAny(value, ".@"); i >= 0 {
		value = value[:i]
	}
	value = strings.ReplaceAll(value, "_", "-")
	if value == "" || strings.EqualFold(value, "C") || strings.EqualFold(value, "POSIX") {
		return ""
	}
	if tag, err := language.Parse(value); err == nil {
		value = tag.String()
	}
	return strings.ToLower(value)
}

// Match reduces raw to the longest known code that prefixes it subtag-wise.
// With known codes {"zh", "zh-hant"}, "zh-Hant-TW" matches "zh-hant" and
// "zh-CN" matches "zh". It returns "" when nothing matches.
func Match(raw string, known func(code string) bool) string {
	normalized := Normalize(raw)
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	for n := len(parts); n > 0; n-- {
		candidate := strings.Join(parts[:n], "-")
		if known(candidate) {
			return candidate
		}
	}
	return ""
}
