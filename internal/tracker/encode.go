package tracker

import "strings"

// EncodeDocument converts markdown-like plan text into the tracker's
// rich-text document representation (an ADF-shaped map). Supported input:
// "#"-prefixed headings, "-" bullet lines, blank-line-separated paragraphs.
// Anything else passes through as paragraph text.
func EncodeDocument(text string) map[string]any {
	var content []map[string]any

	var bullets []map[string]any
	flushBullets := func() {
		if len(bullets) == 0 {
			return
		}
		content = append(content, map[string]any{
			"type":    "bulletList",
			"content": bullets,
		})
		bullets = nil
	}

	var paragraph []string
	flushParagraph := func() {
		joined := strings.TrimSpace(strings.Join(paragraph, " "))
		paragraph = nil
		if joined == "" {
			return
		}
		content = append(content, map[string]any{
			"type":    "paragraph",
			"content": []map[string]any{textNode(joined)},
		})
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flushParagraph()
			flushBullets()
		case strings.HasPrefix(trimmed, "#"):
			flushParagraph()
			flushBullets()
			level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
			if level > 6 {
				level = 6
			}
			content = append(content, map[string]any{
				"type":  "heading",
				"attrs": map[string]any{"level": level},
				"content": []map[string]any{
					textNode(strings.TrimSpace(strings.TrimLeft(trimmed, "#"))),
				},
			})
		case strings.HasPrefix(trimmed, "- "):
			flushParagraph()
			bullets = append(bullets, map[string]any{
				"type": "listItem",
				"content": []map[string]any{{
					"type":    "paragraph",
					"content": []map[string]any{textNode(strings.TrimPrefix(trimmed, "- "))},
				}},
			})
		default:
			flushBullets()
			paragraph = append(paragraph, trimmed)
		}
	}
	flushParagraph()
	flushBullets()

	if len(content) == 0 {
		content = []map[string]any{{
			"type":    "paragraph",
			"content": []map[string]any{textNode("")},
		}}
	}

	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": content,
	}
}

func textNode(text string) map[string]any {
	return map[string]any{"type": "text", "text": text}
}
