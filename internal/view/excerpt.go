package view

import "strings"

const ellipsis = "…"

// Excerpt word-wraps s at width runes and keeps at most maxLines lines,
// ending the last kept line with an ellipsis when text was cut.
func Excerpt(s string, width, maxLines int) []string {
	if width < 2 || maxLines < 1 {
		return nil
	}

	lines := wrap(s, width)
	if len(lines) <= maxLines {
		return lines
	}

	lines = lines[:maxLines]
	last := []rune(lines[maxLines-1])
	if len(last) >= width {
		last = last[:width-1]
	}
	lines[maxLines-1] = string(last) + ellipsis
	return lines
}

func wrap(s string, width int) []string {
	var (
		lines []string
		line  []rune
	)
	for _, word := range strings.Fields(s) {
		w := []rune(word)
		for len(w) > 0 {
			sep := 0
			if len(line) > 0 {
				sep = 1
			}
			switch {
			case len(line)+sep+len(w) <= width:
				if sep == 1 {
					line = append(line, ' ')
				}
				line = append(line, w...)
				w = nil
			case len(line) > 0:
				lines = append(lines, string(line))
				line = nil
			default:
				// a single word wider than the column is split
				lines = append(lines, string(w[:width]))
				w = w[width:]
			}
		}
	}
	if len(line) > 0 {
		lines = append(lines, string(line))
	}
	return lines
}
