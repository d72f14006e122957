package view

import (
	"time"

	"github.com/basel-ax/gallery/internal/service"
)

const (
	// Columns is the number of tiles per grid row
	Columns = 2
	// PromptLines is the maximum number of prompt lines shown on a tile
	PromptLines = 2

	EmptyTitle    = "No images generated yet"
	EmptySubtitle = "Generate your first AI image to see it here"
	LoadingText   = "Loading..."
	ClearAllText  = "Clear All"
)

// Options controls how a screen is built
type Options struct {
	Locale      string
	Location    *time.Location
	ColumnWidth int
}

func (o Options) columnWidth() int {
	if o.ColumnWidth < 16 {
		return 36
	}
	return o.ColumnWidth
}

// Tile is one image in the grid
type Tile struct {
	ID          string
	ImageURL    string
	PromptLines []string
	Label       string
	Date        string
}

// Screen is everything the history screen displays
type Screen struct {
	State        service.State
	ShowClearAll bool
	Rows         [][]Tile
	Message      []string
	Notice       string
	ColumnWidth  int
}

// Tiles returns the tiles of every row in display order
func (s Screen) Tiles() []Tile {
	var tiles []Tile
	for _, row := range s.Rows {
		tiles = append(tiles, row...)
	}
	return tiles
}

// Build turns a view snapshot into a screen
func Build(snap service.Snapshot, opts Options) Screen {
	width := opts.columnWidth()
	screen := Screen{
		State:       snap.State,
		Notice:      snap.Notice,
		ColumnWidth: width,
	}

	switch snap.State {
	case service.StateLoading:
		screen.Message = []string{LoadingText}
	case service.StateEmpty:
		screen.Message = []string{EmptyTitle, EmptySubtitle}
	case service.StateFailed:
		screen.Message = []string{service.FailureMessage(snap.Err)}
	case service.StatePopulated:
		screen.ShowClearAll = len(snap.Images) > 0
		var row []Tile
		for _, img := range snap.Images {
			row = append(row, Tile{
				ID:          img.ID,
				ImageURL:    img.ImageURL,
				PromptLines: Excerpt(img.Prompt, width, PromptLines),
				Label:       img.Label(),
				Date:        FormatDate(img.CreatedAt, opts.Locale, opts.Location),
			})
			if len(row) == Columns {
				screen.Rows = append(screen.Rows, row)
				row = nil
			}
		}
		if len(row) > 0 {
			screen.Rows = append(screen.Rows, row)
		}
	}
	return screen
}
