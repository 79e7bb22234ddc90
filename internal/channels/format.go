package channels

import (
	"regexp"
	"strings"
)

// chunkLimit is the maximum rune length of one outbound text part. SMS
// segments concatenate fine on modern handsets, but the provider rejects
// single parts beyond this size.
const chunkLimit = 1500

// StripMarkdown removes all markdown formatting and returns plain text.
// The Relay services render plain text only, so formatting markers would
// otherwise leak through verbatim.
func StripMarkdown(text string) string {
	if text == "" {
		return ""
	}

	// Remove fenced code blocks markers
	codeBlockRegex := regexp.MustCompile("(?s)```(?:[a-zA-Z0-9]*\n?)?(.*?)```")
	text = codeBlockRegex.ReplaceAllString(text, "$1")

	// Remove inline code markers
	inlineCodeRegex := regexp.MustCompile("`([^`]+)`")
	text = inlineCodeRegex.ReplaceAllString(text, "$1")

	// Remove markdown links, keep text
	linkRegex := regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	text = linkRegex.ReplaceAllString(text, "$1")

	// Remove bold markers
	boldRegex := regexp.MustCompile(`\*\*([^*]+)\*\*`)
	text = boldRegex.ReplaceAllString(text, "$1")

	// Remove italic markers (underscore)
	italicUnderscoreRegex := regexp.MustCompile(`_([^_]+)_`)
	text = italicUnderscoreRegex.ReplaceAllString(text, "$1")

	// Remove italic markers (asterisk)
	italicAsteriskRegex := regexp.MustCompile(`\*([^*]+)\*`)
	text = italicAsteriskRegex.ReplaceAllString(text, "$1")

	// Remove header markers
	headerRegex := regexp.MustCompile(`(?m)^#{1,6}\s+`)
	text = headerRegex.ReplaceAllString(text, "")

	// Remove blockquote markers
	blockquoteRegex := regexp.MustCompile(`(?m)^>\s*`)
	text = blockquoteRegex.ReplaceAllString(text, "")

	return text
}

// ChunkText splits text into pieces of at most limit runes, preferring to
// break on newlines, then spaces, before cutting mid-word. Multi-byte
// runes are never split.
func ChunkText(text string, limit int) []string {
	if limit <= 0 || text == "" {
		return nil
	}

	runes := []rune(text)
	var chunks []string

	for len(runes) > 0 {
		if len(runes) <= limit {
			chunks = append(chunks, string(runes))
			break
		}

		cut := limit
		// Prefer a newline, then a space, within the window.
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		if cut == limit {
			for i := limit; i > limit/2; i-- {
				if runes[i-1] == ' ' {
					cut = i
					break
				}
			}
		}

		chunk := strings.TrimRight(string(runes[:cut]), " \n")
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		runes = runes[cut:]
	}

	return chunks
}
