// Package opengraph renders the Open Graph document served to embedding clients.
package opengraph

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"reddit-embed-go/internal/model"
)

// escaper maps each special character in one pass, so an "&" produced by a
// replacement is never escaped again.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Escape makes s safe for use inside a double-quoted HTML attribute.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Render builds the HTML document for post. canonicalURL is written as og:url
// verbatim; every upstream string goes through Escape.
func Render(post *model.Post, canonicalURL, siteName string) string {
	description := post.Selftext
	if description == "" {
		description = post.Title
	}

	var b strings.Builder
	b.WriteString("<html>\n<head>\n")
	writeMeta(&b, "og:title", Escape(post.Title))
	writeMeta(&b, "og:description", Escape(description))
	writeMeta(&b, "og:site_name", Escape(siteName))
	writeMeta(&b, "og:url", canonicalURL)

	if img := post.Image; img != nil {
		// Reddit entity-encodes preview URLs in its JSON.
		writeMeta(&b, "og:image", Escape(html.UnescapeString(img.URL)))
		writeMeta(&b, "og:image:width", strconv.Itoa(img.Width))
		writeMeta(&b, "og:image:height", strconv.Itoa(img.Height))

		if post.Selftext == "" {
			writeMeta(&b, "og:type", "photo")
		}
	}

	b.WriteString("</head>\n</html>\n")
	return b.String()
}

func writeMeta(b *strings.Builder, property, content string) {
	fmt.Fprintf(b, "<meta property=%q content=\"%s\" />\n", property, content)
}
