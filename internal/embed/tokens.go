package embed

import "strings"

// DefaultMaxInputTokens is the per-text input limit of current OpenAI
// embedding models.
const DefaultMaxInputTokens = 8191

// EstimateTokens gives a rough token count at ~1.33 tokens per word.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// clipToTokens shortens text to roughly maxTokens by keeping leading words.
// Text within the limit is returned unchanged.
func clipToTokens(text string, maxTokens int) string {
	if maxTokens <= 0 || EstimateTokens(text) <= maxTokens {
		return text
	}
	words := strings.Fields(text)
	keep := int(float64(maxTokens) / 1.33)
	for int(float64(keep+1)*1.33) <= maxTokens {
		keep++
	}
	keep = max(keep, 1)
	return strings.Join(words[:min(keep, len(words))], " ")
}

// clipAll applies clipToTokens to every text, copying only when needed.
func clipAll(texts []string, maxTokens int) []string {
	out := texts
	copied := false
	for i, t := range texts {
		c := clipToTokens(t, maxTokens)
		if c == t {
			continue
		}
		if !copied {
			out = make([]string, len(texts))
			copy(out, texts)
			copied = true
		}
		out[i] = c
	}
	return out
}
