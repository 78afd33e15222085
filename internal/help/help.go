// Package help renders the bot's free-text help and error messages from
// embedded section files with placeholder substitution.
package help

import (
	"embed"
	"regexp"
	"strings"
)

//go:embed sections/*.txt
var sections embed.FS

// Vars are the substitution tokens available to section text.
type Vars struct {
	BotUsername  string
	BotID        string
	UserUsername string
	UserID       string
}

var sectionName = regexp.MustCompile(`^[a-z0-9-]+$`)

// Render returns the named help section with placeholders substituted.
// Unknown or invalid section names fall back to the error section.
func Render(section string, v Vars) string {
	section = strings.ToLower(strings.TrimSpace(section))
	if section == "" {
		section = "basic"
	}
	if !sectionName.MatchString(section) {
		section = "error"
	}

	data, err := sections.ReadFile("sections/" + section + ".txt")
	if err != nil {
		data, _ = sections.ReadFile("sections/error.txt")
	}

	r := strings.NewReplacer(
		"%botuser%", v.BotUsername,
		"%botid%", v.BotID,
		"%user%", v.UserUsername,
		"%userid%", v.UserID,
	)
	return strings.TrimRight(r.Replace(string(data)), "\n")
}
