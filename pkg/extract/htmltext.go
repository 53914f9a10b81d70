package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// PlainText strips HTML markup from a message body, returning the
// concatenated text content. Script and style elements are dropped. Input
// without markup passes through unchanged, so extractors can run on plain
// text receipts too.
func PlainText(body string) string {
	z := html.NewTokenizer(strings.NewReader(body))
	var (
		b    strings.Builder
		skip int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			name, _ := z.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if tag := string(name); (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}
