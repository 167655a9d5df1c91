package ai

import (
	"strings"
	"unicode/utf8"
)

// SplitText cuts text into chunks of at most size runes, each sharing about
// overlap runes with the previous one. Cuts prefer a paragraph break, then a
// line break, then a space, falling back to a hard cut.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(strings.TrimSpace(text))
	var chunks []string
	for start := 0; start < len(runes); {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = cutPoint(runes, start, end)
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// cutPoint returns the best end in (start, end], looking only at the second
// half of the window so chunks do not get too small.
func cutPoint(runes []rune, start, end int) int {
	window := string(runes[start:end])
	half := len(string(runes[start : start+(end-start)/2]))
	for _, sep := range []string{"\n\n", "\n", " "} {
		if i := strings.LastIndex(window, sep); i >= half {
			return start + utf8.RuneCountInString(window[:i+len(sep)])
		}
	}
	return end
}
