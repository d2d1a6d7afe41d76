package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

// Render converts markdown text into display markup through an ordered chain
// of substitution stages. The ordering is a contract: Reverse and the preview
// surfaces depend on it, not on any external markdown standard. Identical
// input always yields identical markup, and malformed input degrades to plain
// paragraphs instead of failing.
func Render(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	src := normalizeNewlines(text)
	src, fences := extractFences(src)
	src = escapeEntities(src)
	for _, stage := range renderStages {
		src = stage.apply(src)
	}
	src = groupListItems(src)
	src = assembleParagraphs(src)
	src = restoreFences(src, fences)
	return src
}

// renderStage is one named substitution pass. Stages are exercised
// individually by tests, so behaviour changes surface per stage.
type renderStage struct {
	name  string
	apply func(string) string
}

// renderStages run in a fixed order. Order matters: rules and blockquotes
// must win before emphasis sees their marker characters, triples must win
// before doubles and singles so ***x*** is not mis-split, images must win
// before links because image syntax is a superset prefix of link syntax, and
// task items must win before plain list items.
var renderStages = []renderStage{
	{name: "heading", apply: applyHeadings},
	{name: "rule", apply: applyRules},
	{name: "blockquote", apply: applyBlockquotes},
	{name: "strong-em", apply: applyStrongEmphasis},
	{name: "strong", apply: applyStrong},
	{name: "em", apply: applyEmphasis},
	{name: "strike", apply: applyStrike},
	{name: "code-span", apply: applyCodeSpans},
	{name: "image", apply: applyImages},
	{name: "link", apply: applyLinks},
	{name: "task-item", apply: applyTaskItems},
	{name: "bullet-item", apply: applyBulletItems},
	{name: "ordered-item", apply: applyOrderedItems},
}

var (
	headingPattern     = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.*?)[ \t]*$`)
	rulePattern        = regexp.MustCompile(`(?m)^ {0,3}(-{3,}|\*{3,}|_{3,})[ \t]*$`)
	blockquotePattern  = regexp.MustCompile(`(?m)^&gt;[ \t]?(.*)$`)
	strongEmPattern    = regexp.MustCompile(`\*\*\*([^*\n]+)\*\*\*`)
	strongPattern      = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	emPattern          = regexp.MustCompile(`\*([^*\s](?:[^*\n]*?[^*\s])?)\*`)
	strikePattern      = regexp.MustCompile(`~~([^~\n]+)~~`)
	codeSpanPattern    = regexp.MustCompile("`([^`\n]+)`")
	imagePattern       = regexp.MustCompile(`!\[([^\]]*)\]\(([^()\s]+)\)`)
	linkPattern        = regexp.MustCompile(`\[([^\]]*)\]\(([^()\s]+)\)`)
	taskItemPattern    = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+\[([ xX])\][ \t]+(.*)$`)
	bulletItemPattern  = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+(.*)$`)
	orderedItemPattern = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+(.*)$`)
)

func applyHeadings(src string) string {
	return headingPattern.ReplaceAllStringFunc(src, func(line string) string {
		m := headingPattern.FindStringSubmatch(line)
		level := len(m[1])
		return fmt.Sprintf("<h%d>%s</h%d>", level, m[2], level)
	})
}

func applyRules(src string) string {
	return rulePattern.ReplaceAllString(src, "<hr>")
}

// applyBlockquotes runs after entity escaping, so the quote marker arrives as
// the escaped &gt; sequence.
func applyBlockquotes(src string) string {
	return blockquotePattern.ReplaceAllString(src, "<blockquote>$1</blockquote>")
}

func applyStrongEmphasis(src string) string {
	return strongEmPattern.ReplaceAllString(src, "<strong><em>$1</em></strong>")
}

func applyStrong(src string) string {
	return strongPattern.ReplaceAllString(src, "<strong>$1</strong>")
}

func applyEmphasis(src string) string {
	return emPattern.ReplaceAllString(src, "<em>$1</em>")
}

func applyStrike(src string) string {
	return strikePattern.ReplaceAllString(src, "<del>$1</del>")
}

func applyCodeSpans(src string) string {
	return codeSpanPattern.ReplaceAllString(src, "<code>$1</code>")
}

func applyImages(src string) string {
	return imagePattern.ReplaceAllString(src, `<img src="$2" alt="$1">`)
}

func applyLinks(src string) string {
	return linkPattern.ReplaceAllString(src, `<a href="$2">$1</a>`)
}

func applyTaskItems(src string) string {
	return taskItemPattern.ReplaceAllStringFunc(src, func(line string) string {
		m := taskItemPattern.FindStringSubmatch(line)
		if strings.EqualFold(m[1], "x") {
			return `<li class="task"><input type="checkbox" checked disabled> ` + m[2] + "</li>"
		}
		return `<li class="task"><input type="checkbox" disabled> ` + m[2] + "</li>"
	})
}

func applyBulletItems(src string) string {
	return bulletItemPattern.ReplaceAllString(src, "<li>$1</li>")
}

func applyOrderedItems(src string) string {
	return orderedItemPattern.ReplaceAllString(src, `<li class="ordered">$1</li>`)
}

// fence holds one isolated code block until the final restore pass.
type fence struct {
	language string
	body     string
}

const fencePlaceholderFormat = "\x00fence:%d\x00"

// extractFences replaces fenced code blocks with placeholder lines so later
// stages cannot corrupt literal content. An unterminated fence swallows the
// remainder of the input, matching the forgiving failure semantics.
func extractFences(src string) (string, []fence) {
	lines := strings.Split(src, "\n")
	var (
		out     []string
		fences  []fence
		body    []string
		lang    string
		inFence bool
	)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if !inFence {
				inFence = true
				lang = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
				body = body[:0]
				continue
			}
			out = append(out, fmt.Sprintf(fencePlaceholderFormat, len(fences)))
			fences = append(fences, fence{language: lang, body: strings.Join(body, "\n")})
			inFence = false
			continue
		}
		if inFence {
			body = append(body, line)
			continue
		}
		out = append(out, line)
	}
	if inFence {
		out = append(out, fmt.Sprintf(fencePlaceholderFormat, len(fences)))
		fences = append(fences, fence{language: lang, body: strings.Join(body, "\n")})
	}
	return strings.Join(out, "\n"), fences
}

func restoreFences(src string, fences []fence) string {
	for i, f := range fences {
		var tag string
		if f.language != "" {
			tag = fmt.Sprintf(`<pre><code class="language-%s">`, f.language)
		} else {
			tag = "<pre><code>"
		}
		block := tag + escapeEntities(f.body) + "</code></pre>"
		src = strings.Replace(src, fmt.Sprintf(fencePlaceholderFormat, i), block, 1)
	}
	return src
}

// groupListItems wraps runs of consecutive list items into a single list
// container. The first item of a run decides between ordered and unordered.
func groupListItems(src string) string {
	lines := strings.Split(src, "\n")
	var out []string
	for i := 0; i < len(lines); {
		if !strings.HasPrefix(lines[i], "<li") {
			out = append(out, lines[i])
			i++
			continue
		}
		start := i
		for i < len(lines) && strings.HasPrefix(lines[i], "<li") {
			i++
		}
		ordered := strings.HasPrefix(lines[start], `<li class="ordered">`)
		if ordered {
			out = append(out, "<ol>")
		} else {
			out = append(out, "<ul>")
		}
		for _, item := range lines[start:i] {
			out = append(out, strings.Replace(item, `<li class="ordered">`, "<li>", 1))
		}
		if ordered {
			out = append(out, "</ol>")
		} else {
			out = append(out, "</ul>")
		}
	}
	return strings.Join(out, "\n")
}

// assembleParagraphs joins runs of bare lines with line breaks and wraps them
// in paragraph tags. Blank lines and block-level markup close the open run.
func assembleParagraphs(src string) string {
	lines := strings.Split(src, "\n")
	var out []string
	var run []string

	flush := func() {
		if len(run) == 0 {
			return
		}
		out = append(out, "<p>"+strings.Join(run, "<br>")+"</p>")
		run = run[:0]
	}

	for _, line := range lines {
		switch {
		case strings.TrimSpace(line) == "":
			flush()
		case isBlockLine(line):
			flush()
			out = append(out, line)
		default:
			run = append(run, line)
		}
	}
	flush()
	return strings.Join(out, "\n")
}

var blockPrefixes = []string{
	"<h1", "<h2", "<h3", "<h4", "<h5", "<h6",
	"<hr", "<blockquote", "<ul", "<ol", "<li", "<pre", "</",
}

func isBlockLine(line string) bool {
	if strings.HasPrefix(line, "\x00") {
		return true
	}
	for _, prefix := range blockPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func normalizeNewlines(src string) string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	return strings.ReplaceAll(src, "\r", "\n")
}

// escapeEntities escapes the ampersand first so already escaped markers are
// not double-mangled later in the chain.
func escapeEntities(src string) string {
	src = strings.ReplaceAll(src, "&", "&amp;")
	src = strings.ReplaceAll(src, "<", "&lt;")
	return strings.ReplaceAll(src, ">", "&gt;")
}

func unescapeEntities(src string) string {
	src = strings.ReplaceAll(src, "&lt;", "<")
	src = strings.ReplaceAll(src, "&gt;", ">")
	return strings.ReplaceAll(src, "&amp;", "&")
}
