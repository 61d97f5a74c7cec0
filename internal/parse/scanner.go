package parse

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"stepgrade/internal/problem"
)

type labelKind int

const (
	kindSubQuestion labelKind = iota
	kindAnswer
	kindStep
)

// label is one recognized `<name>:` token in the raw text.
type label struct {
	kind      labelKind
	n         int
	start     int
	end       int
	lineStart bool
}

// scan returns every label in text in order of appearance. Labels never overlap.
func scan(text string) []label {
	var labels []label
	for i := 0; i < len(text); {
		if lbl, ok := matchLabel(text, i); ok {
			labels = append(labels, lbl)
			i = lbl.end
			continue
		}
		i++
	}
	return labels
}

// matchLabel recognizes sub_question_<n>, sub_question_<n>_answer and step_<m>
// at offset i, followed by optional whitespace and an ASCII or full-width colon.
func matchLabel(text string, i int) (label, bool) {
	if i > 0 && isWordByte(text[i-1]) {
		return label{}, false
	}
	rest := text[i:]
	var kind labelKind
	var prefix string
	switch {
	case strings.HasPrefix(rest, problem.SubQuestionPrefix):
		kind, prefix = kindSubQuestion, problem.SubQuestionPrefix
	case strings.HasPrefix(rest, problem.StepPrefix):
		kind, prefix = kindStep, problem.StepPrefix
	default:
		return label{}, false
	}

	j := i + len(prefix)
	digits := j
	for j < len(text) && text[j] >= '0' && text[j] <= '9' {
		j++
	}
	if j == digits {
		return label{}, false
	}
	n, err := strconv.Atoi(text[digits:j])
	if err != nil {
		return label{}, false
	}
	if kind == kindSubQuestion && strings.HasPrefix(text[j:], problem.AnswerSuffix) {
		kind = kindAnswer
		j += len(problem.AnswerSuffix)
	}
	end, ok := skipColon(text, j)
	if !ok {
		return label{}, false
	}
	return label{kind: kind, n: n, start: i, end: end, lineStart: atLineStart(text, i)}, true
}

func skipColon(text string, j int) (int, bool) {
	for j < len(text) {
		r, size := utf8.DecodeRuneInString(text[j:])
		switch {
		case r == ':' || r == '：':
			return j + size, true
		case unicode.IsSpace(r):
			j += size
		default:
			return 0, false
		}
	}
	return 0, false
}

// atLineStart reports whether only spaces and tabs separate offset i from the
// previous newline or the start of text.
func atLineStart(text string, i int) bool {
	for k := i - 1; k >= 0; k-- {
		switch text[k] {
		case ' ', '\t':
			continue
		case '\n':
			return true
		default:
			return false
		}
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// section is the body of one opening label: raw[bodyStart:bodyEnd].
type section struct {
	n         int
	bodyStart int
	bodyEnd   int
}

// sections splits [from, to) at labels of one kind. With lineOnly set, only the
// first label may sit mid-line; later ones must open a line to delimit.
func sections(labels []label, kind labelKind, from, to int, lineOnly bool) []section {
	var out []section
	for _, lbl := range labels {
		if lbl.kind != kind || lbl.start < from || lbl.end > to {
			continue
		}
		if len(out) > 0 {
			if lineOnly && !lbl.lineStart {
				continue
			}
			out[len(out)-1].bodyEnd = lbl.start
		}
		out = append(out, section{n: lbl.n, bodyStart: lbl.end, bodyEnd: to})
	}
	return out
}
