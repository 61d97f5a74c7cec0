package oracle

import (
	"fmt"
	"strings"
)

// Locale selects prompt wording and verdict tokens.
type Locale string

const (
	English Locale = "en"
	Chinese Locale = "zh"
)

// ParseLocale validates a locale name; empty means English.
func ParseLocale(value string) (Locale, error) {
	switch Locale(strings.ToLower(strings.TrimSpace(value))) {
	case "", English:
		return English, nil
	case Chinese:
		return Chinese, nil
	default:
		return "", fmt.Errorf("unsupported locale %q", value)
	}
}

type verdictToken struct {
	token string
	value bool
}

// Longer negative tokens come first so they win over the affirmative they contain.
var verdictTokens = map[Locale][]verdictToken{
	English: {{"false", false}, {"true", true}},
	Chinese: {{"不正确", false}, {"错误", false}, {"正确", true}},
}

// Verdict normalizes a free-text judgment. The earliest verdict token wins and
// a reply without any token counts as not equivalent.
func (l Locale) Verdict(reply string) bool {
	text := reply
	if l != Chinese {
		text = strings.ToLower(reply)
	}
	best := -1
	verdict := false
	for _, candidate := range verdictTokens[l.orDefault()] {
		idx := strings.Index(text, candidate.token)
		if idx < 0 {
			continue
		}
		if best < 0 || idx < best {
			best = idx
			verdict = candidate.value
		}
	}
	return verdict
}

func (l Locale) orDefault() Locale {
	if l == Chinese {
		return Chinese
	}
	return English
}
