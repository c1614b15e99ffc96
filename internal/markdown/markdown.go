// Package markdown maps note-generation output into typed display blocks,
// one per input line. Lines are processed independently; the only inline
// handling is whole-line bold detection.
package markdown

import (
	"regexp"
	"strings"
)

// Kind classifies a display block.
type Kind int

const (
	KindParagraph Kind = iota
	KindHeading
	KindListItem
	KindBoldParagraph
	KindSpacer
)

// Block is one line of rendered note output.
type Block struct {
	Kind  Kind
	Level int // heading level 1-3, zero otherwise
	Text  string
}

var orderedItem = regexp.MustCompile(`^\d+\.\s+`)

// Parse splits text into blocks, one per line.
func Parse(text string) []Block {
	lines := strings.Split(text, "\n")
	blocks := make([]Block, 0, len(lines))
	for _, line := range lines {
		blocks = append(blocks, parseLine(line))
	}
	return blocks
}

func parseLine(line string) Block {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return Block{Kind: KindSpacer}
	case strings.HasPrefix(trimmed, "### "):
		return Block{Kind: KindHeading, Level: 3, Text: strings.TrimPrefix(trimmed, "### ")}
	case strings.HasPrefix(trimmed, "## "):
		return Block{Kind: KindHeading, Level: 2, Text: strings.TrimPrefix(trimmed, "## ")}
	case strings.HasPrefix(trimmed, "# "):
		return Block{Kind: KindHeading, Level: 1, Text: strings.TrimPrefix(trimmed, "# ")}
	case strings.HasPrefix(trimmed, "- "):
		return Block{Kind: KindListItem, Text: strings.TrimPrefix(trimmed, "- ")}
	case strings.HasPrefix(trimmed, "* "):
		return Block{Kind: KindListItem, Text: strings.TrimPrefix(trimmed, "* ")}
	case orderedItem.MatchString(trimmed):
		return Block{Kind: KindListItem, Text: orderedItem.ReplaceAllString(trimmed, "")}
	case len(trimmed) > 4 && strings.HasPrefix(trimmed, "**") && strings.HasSuffix(trimmed, "**"):
		return Block{Kind: KindBoldParagraph, Text: strings.TrimSuffix(strings.TrimPrefix(trimmed, "**"), "**")}
	default:
		return Block{Kind: KindParagraph, Text: trimmed}
	}
}
