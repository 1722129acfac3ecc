package hupu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeComment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"a,b\"c\nd", "a;b'c d"},
		{"  padded\r\n", "padded"},
		{"天赋有限，最后时刻不能指望角色球员来carry。", "天赋有限，最后时刻不能指望角色球员来carry。"},
		{"\"quoted, and\nwrapped\"", "'quoted; and wrapped'"},
		{"\n\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeComment(tt.in))
		})
	}
}

func TestSanitizeCommentIsIdempotent(t *testing.T) {
	inputs := []string{
		"a,b\"c\nd",
		"  x , y  ",
		"\r\n\"\",,\t",
		"多行\n评论,带\"引号\"",
	}
	for _, in := range inputs {
		once := SanitizeComment(in)
		assert.Equal(t, once, SanitizeComment(once))
		assert.False(t, strings.ContainsAny(once, ",\"\n\r"), "unsafe char left in %q", once)
		assert.Equal(t, strings.TrimSpace(once), once)
	}
}

func TestTopComments(t *testing.T) {
	comments := []Comment{
		{Content: "a,b\"c\nd"},
		{Content: "two"},
		{Content: "three"},
		{Content: "four"},
	}

	assert.Equal(t, [CommentSlots]string{"a;b'c d", "two", "three"}, TopComments(comments, false))
	assert.Equal(t, [CommentSlots]string{"two", "", ""}, TopComments(comments[1:2], false))
	assert.Equal(t, [CommentSlots]string{"", "", ""}, TopComments(nil, false))
}

func TestTopCommentsStripMarkup(t *testing.T) {
	comments := []Comment{{Content: "<p>nice<br>shot, <b>bro</b></p>"}}

	assert.Equal(t, [CommentSlots]string{"nice shot; bro", "", ""}, TopComments(comments, true))
	assert.Equal(t, "<p>nice<br>shot; <b>bro</b></p>", TopComments(comments, false)[0])
}

func TestStripMarkupLeavesPlainText(t *testing.T) {
	assert.Equal(t, "no tags here", StripMarkup("no tags here"))
}
