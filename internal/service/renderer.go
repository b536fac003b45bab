package service

import (
	"regexp"
	"strings"
)

// BodyRenderer 把档案正文的原始存储格式转换为 HTML。
type BodyRenderer interface {
	Render(raw string) string
}

var (
	blankLines = regexp.MustCompile(`\n\s*\n`)
	blockStart = regexp.MustCompile(`(?i)^<(p|div|ul|ol|li|h[1-6]|blockquote|pre|table|figure|hr|section|article)[\s>/]`)
)

// autopRenderer 把空行分隔的段落包进 <p>，段内换行转成 <br />。
// 已经以块级标签开头的段落原样保留。
type autopRenderer struct{}

func NewAutopRenderer() BodyRenderer {
	return autopRenderer{}
}

func (autopRenderer) Render(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if strings.TrimSpace(text) == "" {
		return ""
	}

	var b strings.Builder
	for _, block := range blankLines.Split(text, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if blockStart.MatchString(block) {
			b.WriteString(block)
			b.WriteString("\n")
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(block, "\n", "<br />\n"))
		b.WriteString("</p>\n")
	}
	return b.String()
}
