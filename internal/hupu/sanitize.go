package hupu

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var commentReplacer = strings.NewReplacer(
	",", ";",
	`"`, "'",
	"\n", " ",
	"\r", " ",
)

// SanitizeComment makes comment text safe for a comma-delimited sink.
// The substitution is lossy: commas become semicolons, double quotes become
// single quotes, line breaks become spaces, and the result is trimmed.
func SanitizeComment(comment string) string {
	if comment == "" {
		return ""
	}
	return strings.TrimSpace(commentReplacer.Replace(comment))
}

// StripMarkup flattens an HTML fragment to its text content. Text without
// markup is returned unchanged.
func StripMarkup(comment string) string {
	if !strings.ContainsAny(comment, "<&") {
		return comment
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(comment))
	if err != nil {
		return comment
	}
	doc.Find("br").ReplaceWithHtml("\n")
	return doc.Text()
}

// TopComments takes up to CommentSlots comments and sanitizes each one.
// Unused slots stay "".
func TopComments(comments []Comment, stripMarkup bool) [CommentSlots]string {
	var out [CommentSlots]string
	for i := 0; i < CommentSlots && i < len(comments); i++ {
		text := comments[i].Content
		if stripMarkup {
			text = StripMarkup(text)
		}
		out[i] = SanitizeComment(text)
	}
	return out
}
