package utils

// Truncate shortens s to at most maxLen bytes, appending "..." when anything
// was cut. maxLen <= 0 disables truncation. Used to keep log lines bounded.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
