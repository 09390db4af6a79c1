package wiki

import (
	"strings"

	"golang.org/x/net/html"
)

// StripTags returns the text content of an HTML fragment.
// Search snippets wrap matches in <span class="searchmatch"> elements;
// entities such as &quot; are decoded.
func StripTags(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return fragment
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF ends the fragment; any other error returns what was read.
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}
