// Package tokens provides heuristic token estimation for context management.
//
// The estimates are intentionally cheap and deterministic: no tokenizer, no
// network. The ~4 characters per token ratio is a stable, monotonic proxy that
// is good enough for threshold comparison. Not billing-accurate.
package tokens

// CharsPerToken is the industry-standard approximation for English text.
const CharsPerToken = 4

// Estimate returns an approximate token count for text.
// Rounds up to be conservative; identical input always yields an identical
// estimate, and a longer input never yields a smaller one.
func Estimate(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + CharsPerToken - 1) / CharsPerToken
}

// BudgetChars converts a token budget to an approximate character limit.
// Use this when enforcing a character-based limit derived from a token budget.
func BudgetChars(tokens int) int {
	if tokens < 0 {
		return 0
	}
	return tokens * CharsPerToken
}

// TokensForChars converts an observed character count back to tokens.
func TokensForChars(chars int) int {
	if chars <= 0 {
		return 0
	}
	return (chars + CharsPerToken - 1) / CharsPerToken
}
