package coach

import "regexp"

var (
	boldMarkup   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	numberedItem = regexp.MustCompile(`(?m)^(\s*)\d+\.\s+`)
	brRuns       = regexp.MustCompile(`(?:<br\s*/?>\s*){3,}`)
	newlineRuns  = regexp.MustCompile(`\n{3,}`)
)

// Format normalizes model output for presentation: emphasis markup becomes
// strong tags, numbered list items become bullets, and runs of three or more
// line breaks collapse to two. Applying it twice yields the same result.
func Format(text string) string {
	text = boldMarkup.ReplaceAllString(text, "<strong>$1</strong>")
	text = numberedItem.ReplaceAllString(text, "$1• ")
	text = brRuns.ReplaceAllString(text, "<br><br>")
	text = newlineRuns.ReplaceAllString(text, "\n\n")
	return text
}
