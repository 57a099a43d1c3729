// Package text holds small string helpers for outbound messages.
package text

// Truncate caps s at max bytes, appending an ellipsis when trimmed.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
