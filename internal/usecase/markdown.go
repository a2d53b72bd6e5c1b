package usecase

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var boldPattern = regexp.MustCompile(`\*\*(.+?)\*\*`)

// narrativePolicy allows only the markup RenderMarkdown emits
var narrativePolicy = bluemonday.NewPolicy().AllowElements("strong", "br")

// RenderMarkdown converts the lightweight markdown a model replies with into
// display HTML: **bold**, "* " bullets and line breaks. Everything else in
// the reply is escaped.
func RenderMarkdown(text string) string {
	out := html.EscapeString(text)
	out = boldPattern.ReplaceAllString(out, "<strong>$1</strong>")
	out = strings.ReplaceAll(out, "* ", "<br>• ")
	out = strings.ReplaceAll(out, "\n", "<br>")
	return narrativePolicy.Sanitize(out)
}
