// Package status formats the engine's periodic status-summary replies and
// the gateway presence string.
package status

import "fmt"

// Summary holds the capture groups of a recognized engine status reply.
type Summary struct {
	Since         string
	Modifications string
	Questions     string
	Uptime        string
	Facts         string
}

// FormatSummary renders an engine status summary for delivery.
func FormatSummary(s Summary) string {
	return fmt.Sprintf(
		"**Status**\nLearning since %s, with %s modifications and %s questions so far.\nAlive for %s, currently holding %s facts.",
		s.Since, s.Modifications, s.Questions, s.Uptime, s.Facts)
}

// FormatPresence renders the rotating presence string shown by the bot.
func FormatPresence(guilds, users int64) string {
	return fmt.Sprintf("on %s servers with %s users", comma(guilds), comma(users))
}

// comma formats n with thousands separators.
func comma(n int64) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		return "-" + comma(-n)
	}
	if len(s) <= 3 {
		return s
	}
	return comma(n/1000) + "," + s[len(s)-3:]
}
