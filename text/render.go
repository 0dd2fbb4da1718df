// Package text turns HTML into readable plain text suitable for the
// text/plain part of a message.
package text

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/net/html"
)

// DefaultLineLength is used when requested line length is not positive.
const DefaultLineLength = 65

var (
	headingRe    = regexp.MustCompile(`(?is)<h([1-6])(?:\s[^>]*)?>(.*?)</h[1-6]\s*>`)
	anchorRe     = regexp.MustCompile(`(?is)<a\s[^>]*?href\s*=\s*["']([^"']*)["'][^>]*>(.*?)</a\s*>`)
	listItemRe   = regexp.MustCompile(`(?i)<li(?:\s[^>]*)?>`)
	paragraphRe  = regexp.MustCompile(`(?i)</p\s*>`)
	tagRe        = regexp.MustCompile(`</?[^>]*>`)
	indentRe     = regexp.MustCompile(`(?m)^[ \t]+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	bulletRe     = regexp.MustCompile(`(?m)^\* `)
	spacesRe     = regexp.MustCompile(`\s+`)
)

// Render converts HTML fragment into plain text wrapped at lineLength
// columns. Headings are underlined, links are followed by their target in
// brackets and list items become bullets. Render never fails, unexpected
// markup just produces less pretty output.
func Render(src string, lineLength int) string {
	if lineLength <= 0 {
		lineLength = DefaultLineLength
	}

	txt := html.UnescapeString(src)

	txt = headingRe.ReplaceAllStringFunc(txt, func(m string) string {
		sub := headingRe.FindStringSubmatch(m)
		return heading(sub[1][0]-'0', sub[2], lineLength)
	})
	txt = anchorRe.ReplaceAllString(txt, "$2 [$1]")
	txt = listItemRe.ReplaceAllString(txt, "  * ")
	txt = paragraphRe.ReplaceAllString(txt, "\n\n")
	txt = tagRe.ReplaceAllString(txt, "")

	txt = strings.ReplaceAll(txt, "\r\n", "\n")
	txt = indentRe.ReplaceAllString(strings.TrimSpace(txt), "")
	txt = blankLinesRe.ReplaceAllString(txt, "\n\n")

	txt = wrap(txt, lineLength)
	return bulletRe.ReplaceAllString(txt, "  * ")
}

func heading(level byte, content string, lineLength int) string {
	text := strings.TrimSpace(spacesRe.ReplaceAllString(tagRe.ReplaceAllString(content, ""), " "))
	width := runewidth.StringWidth(text)

	switch level {
	case 1, 2:
		border := "*"
		if level == 2 {
			border = "-"
		}
		border = strings.Repeat(border, min(width, lineLength))
		return border + "\n" + text + "\n" + border + "\n"
	default:
		return text + "\n" + strings.Repeat("-", width) + "\n"
	}
}

// wrap breaks every line separately at word boundaries so that it fits into
// width columns. Words longer than width are not split.
func wrap(txt string, width int) string {
	lines := strings.Split(txt, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if runewidth.StringWidth(line) <= width {
			out = append(out, strings.TrimRight(line, " \t"))
			continue
		}
		var (
			sb  strings.Builder
			cur int
		)
		for _, word := range strings.Fields(line) {
			w := runewidth.StringWidth(word)
			if cur > 0 && cur+1+w > width {
				out = append(out, sb.String())
				sb.Reset()
				cur = 0
			}
			if cur > 0 {
				sb.WriteByte(' ')
				cur++
			}
			sb.WriteString(word)
			cur += w
		}
		out = append(out, sb.String())
	}
	return strings.Join(out, "\n")
}
