package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

// Reverse converts display markup back into editable markdown. It is the
// best-effort inverse of Render: markup produced by Render round-trips to a
// stable rendering, while foreign markup is reduced to its inner text rather
// than rejected. Reverse never fails.
func Reverse(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}

	src := normalizeNewlines(markup)
	src, fences := extractPreBlocks(src)

	src = lineBreakTagPattern.ReplaceAllString(src, "\n")
	src = strongEmTagPattern.ReplaceAllString(src, "***$1***")
	src = strongTagPattern.ReplaceAllString(src, "**$1**")
	src = emTagPattern.ReplaceAllString(src, "*$1*")
	src = strikeTagPattern.ReplaceAllString(src, "~~$1~~")
	src = codeTagPattern.ReplaceAllString(src, "`$1`")
	src = imageTagPattern.ReplaceAllString(src, "![$2]($1)")
	src = linkTagPattern.ReplaceAllString(src, "[$2]($1)")

	src = reverseHeadings(src)
	src = blockquoteTagPattern.ReplaceAllString(src, "&gt; $1\n\n")
	src = ruleTagPattern.ReplaceAllString(src, "---\n\n")
	src = reverseLists(src)
	src = paragraphTagPattern.ReplaceAllString(src, "$1\n\n")

	src = anyTagPattern.ReplaceAllString(src, "")
	src = unescapeEntities(src)
	src = collapseBlankLines(src)
	src = restorePreBlocks(src, fences)
	return strings.TrimSpace(src)
}

var (
	preBlockPattern      = regexp.MustCompile(`(?s)<pre><code(?: class="language-([^"]*)")?>(.*?)</code></pre>`)
	lineBreakTagPattern  = regexp.MustCompile(`<br\s*/?>`)
	strongEmTagPattern   = regexp.MustCompile(`(?s)<strong><em>(.*?)</em></strong>`)
	strongTagPattern     = regexp.MustCompile(`(?s)<strong>(.*?)</strong>`)
	emTagPattern         = regexp.MustCompile(`(?s)<em>(.*?)</em>`)
	strikeTagPattern     = regexp.MustCompile(`(?s)<del>(.*?)</del>`)
	codeTagPattern       = regexp.MustCompile(`(?s)<code>(.*?)</code>`)
	imageTagPattern      = regexp.MustCompile(`<img src="([^"]*)" alt="([^"]*)"\s*/?>`)
	linkTagPattern       = regexp.MustCompile(`(?s)<a href="([^"]*)">(.*?)</a>`)
	headingTagPattern    = regexp.MustCompile(`(?s)<h([1-6])>(.*?)</h[1-6]>`)
	blockquoteTagPattern = regexp.MustCompile(`(?s)<blockquote>(.*?)</blockquote>`)
	ruleTagPattern       = regexp.MustCompile(`<hr\s*/?>`)
	orderedListPattern   = regexp.MustCompile(`(?s)<ol>(.*?)</ol>`)
	unorderedListPattern = regexp.MustCompile(`(?s)<ul>(.*?)</ul>`)
	listItemTagPattern   = regexp.MustCompile(`(?s)<li[^>]*>(.*?)</li>`)
	paragraphTagPattern  = regexp.MustCompile(`(?s)<p>(.*?)</p>`)
	anyTagPattern        = regexp.MustCompile(`<[^>]*>`)
	blankRunPattern      = regexp.MustCompile(`\n{3,}`)
)

const (
	checkedBoxMarkup   = `<input type="checkbox" checked disabled> `
	uncheckedBoxMarkup = `<input type="checkbox" disabled> `
)

func reverseHeadings(src string) string {
	return headingTagPattern.ReplaceAllStringFunc(src, func(tag string) string {
		m := headingTagPattern.FindStringSubmatch(tag)
		level := int(m[1][0] - '0')
		return strings.Repeat("#", level) + " " + m[2] + "\n\n"
	})
}

func reverseLists(src string) string {
	src = orderedListPattern.ReplaceAllStringFunc(src, func(block string) string {
		var out strings.Builder
		for i, item := range listItemTagPattern.FindAllStringSubmatch(block, -1) {
			fmt.Fprintf(&out, "%d. %s\n", i+1, item[1])
		}
		out.WriteString("\n")
		return out.String()
	})
	return unorderedListPattern.ReplaceAllStringFunc(src, func(block string) string {
		var out strings.Builder
		for _, item := range listItemTagPattern.FindAllStringSubmatch(block, -1) {
			body := item[1]
			switch {
			case strings.HasPrefix(body, checkedBoxMarkup):
				out.WriteString("- [x] " + strings.TrimPrefix(body, checkedBoxMarkup) + "\n")
			case strings.HasPrefix(body, uncheckedBoxMarkup):
				out.WriteString("- [ ] " + strings.TrimPrefix(body, uncheckedBoxMarkup) + "\n")
			default:
				out.WriteString("- " + body + "\n")
			}
		}
		out.WriteString("\n")
		return out.String()
	})
}

// extractPreBlocks converts code blocks straight to their fenced markdown
// form and parks them behind placeholders so tag stripping and entity
// unescaping cannot touch literal content twice.
func extractPreBlocks(src string) (string, []string) {
	var blocks []string
	src = preBlockPattern.ReplaceAllStringFunc(src, func(block string) string {
		m := preBlockPattern.FindStringSubmatch(block)
		fenced := "```" + m[1] + "\n" + unescapeEntities(m[2]) + "\n```"
		blocks = append(blocks, fenced)
		return fmt.Sprintf(fencePlaceholderFormat, len(blocks)-1) + "\n"
	})
	return src, blocks
}

func restorePreBlocks(src string, blocks []string) string {
	for i, block := range blocks {
		src = strings.Replace(src, fmt.Sprintf(fencePlaceholderFormat, i), block, 1)
	}
	return src
}

func collapseBlankLines(src string) string {
	return blankRunPattern.ReplaceAllString(src, "\n\n")
}
