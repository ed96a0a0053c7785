package ai

// DefaultMaxTokens is the eager budget for lengths outside the table.
const DefaultMaxTokens = 8000

// MaxTokensFor returns the completion budget for an eager story of the
// given page count.
func MaxTokensFor(pages int) int {
	switch pages {
	case 5:
		return 4000
	case 10:
		return 8000
	case 15:
		return 12000
	default:
		return DefaultMaxTokens
	}
}
