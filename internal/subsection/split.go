package subsection

import "strings"

// FragmentSplitter breaks a section body into candidate fragments.
// Callers trim the results and drop empties.
type FragmentSplitter interface {
	Split(body string) []string
}

// PeriodSplitter splits on every '.', dropping the delimiter.
type PeriodSplitter struct{}

func (PeriodSplitter) Split(body string) []string {
	return strings.Split(body, ".")
}

// SentenceSplitter splits after '.', '!' or '?' when followed by a space,
// keeping the punctuation. Decimals and abbreviations without a trailing
// space stay intact.
type SentenceSplitter struct{}

func (SentenceSplitter) Split(body string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range body {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(body) && body[i+1] == ' ' {
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}

// Fragments splits body with s, trims every piece and drops empty ones.
func Fragments(s FragmentSplitter, body string) []string {
	var out []string
	for _, f := range s.Split(body) {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
