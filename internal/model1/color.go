package model1

import "github.com/derailed/tcell/v2"

var (
	// AddColor row transitioning color
	AddColor tcell.Color = tcell.ColorBlue

	// PendingColor row still loading
	PendingColor tcell.Color = tcell.ColorDarkCyan

	// ErrColor row error color
	ErrColor tcell.Color = tcell.ColorRed

	// StdColor row default color
	StdColor tcell.Color = tcell.ColorWhite

	// KillColor row deleted/terminated color
	KillColor tcell.Color = tcell.ColorGray

	// CompletedColor row completed color
	CompletedColor tcell.Color = tcell.ColorGreen

	// HighlightColor pinned row color
	HighlightColor tcell.Color = tcell.ColorAqua
)

// DefaultColorer colors rows by how they are backed.
func DefaultColorer(h Header, r Row, state RowState) tcell.Color {
	switch {
	case state&RowLoading != 0:
		return PendingColor
	case !IsValid(h, r):
		return ErrColor
	case state&RowPinned != 0:
		return HighlightColor
	default:
		return StdColor
	}
}
