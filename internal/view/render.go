package view

import (
	"fmt"
	"io"
	"strings"
)

const gutter = "   "

// Render draws the screen as a text grid
func Render(w io.Writer, s Screen) error {
	width := s.ColumnWidth
	if width == 0 {
		width = Options{}.columnWidth()
	}

	var b strings.Builder
	header := "Image History"
	if s.ShowClearAll {
		header = fmt.Sprintf("%-*s[%s]", width*Columns+len(gutter)-len(ClearAllText)-2, header, ClearAllText)
	}
	b.WriteString(header + "\n\n")

	if s.Notice != "" {
		b.WriteString("! " + s.Notice + "\n\n")
	}

	for _, line := range s.Message {
		b.WriteString("  " + line + "\n")
	}

	for _, row := range s.Rows {
		blocks := make([][]string, len(row))
		for i, tile := range row {
			blocks[i] = tileLines(tile, width)
		}
		for l := range blocks[0] {
			cells := make([]string, len(blocks))
			for i, block := range blocks {
				cells[i] = fmt.Sprintf("%-*s", width, block[l])
			}
			b.WriteString(strings.TrimRight(strings.Join(cells, gutter), " ") + "\n")
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// tileLines lays out a tile; every tile has the same number of lines
func tileLines(t Tile, width int) []string {
	lines := []string{
		strings.Repeat("-", width),
		clip(t.ImageURL, width),
		clip("[delete "+t.ID+"]", width),
	}
	for i := 0; i < PromptLines; i++ {
		if i < len(t.PromptLines) {
			lines = append(lines, t.PromptLines[i])
		} else {
			lines = append(lines, "")
		}
	}
	return append(lines, clip(t.Label, width), clip(t.Date, width))
}

func clip(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + ellipsis
}
