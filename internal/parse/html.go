package parse

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// LooksLikeHTML is a cheap check for pasted markup (menus copied from
// restaurant websites, forwarded newsletters).
func LooksLikeHTML(text string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "<") && strings.Contains(trimmed, ">") &&
		regexp.MustCompile(`(?i)<\s*(html|body|div|p|ul|li|table|br|span|h\d)\b`).MatchString(trimmed)
}

// Elements that end a line of text when rendered.
var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "br": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "table": true, "ul": true, "ol": true,
}

// ExtractText renders pasted HTML to plain text. Block elements become
// line breaks so menu entries stay on separate lines for dish splitting.
func ExtractText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			buf.WriteString("\n")
		}
	}
	walk(doc)

	// Collapse runs of blank lines left by nested block elements.
	lines := nonEmptyLines(buf.String())
	return strings.Join(lines, "\n"), nil
}
