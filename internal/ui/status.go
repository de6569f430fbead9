package ui

import (
	"fmt"
	"time"

	"github.com/a1s/lazyrows/internal/model"
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

// FlashDelay is how long a flash message stays up.
const FlashDelay = 4 * time.Second

// Status shows the cache state of a table and transient messages.
type Status struct {
	*tview.TextView

	flash   string
	flashAt time.Time
	now     func() time.Time
}

// NewStatus returns an empty status line.
func NewStatus() *Status {
	s := Status{TextView: tview.NewTextView(), now: time.Now}
	s.SetDynamicColors(true)
	s.SetBackgroundColor(tcell.ColorDefault)
	s.SetTextAlign(tview.AlignRight)

	return &s
}

// Flash shows msg until FlashDelay elapsed.
func (s *Status) Flash(level, msg string) {
	color := "aqua"
	switch level {
	case "warn":
		color = "orange"
	case "error":
		color = "red"
	}
	s.flash = fmt.Sprintf("[%s::b]%s[-::-]", color, tview.Escape(msg))
	s.flashAt = s.now()
}

// Update renders the stats of the displayed table.
func (s *Status) Update(st model.Stats, strategy string) {
	s.SetText(s.Format(st, strategy))
}

// Format renders the status line.
func (s *Status) Format(st model.Stats, strategy string) string {
	if s.flash != "" && s.now().Sub(s.flashAt) < FlashDelay {
		return s.flash
	}
	s.flash = ""

	size := "?"
	if st.SizeKnown {
		size = fmt.Sprintf("%d", st.Size)
	}
	fetch := "[green]idle[-]"
	if st.Waiting {
		fetch = "[orange]fetching[-]"
	}

	return fmt.Sprintf("size:%s view:%s cached:%s pinned:%d strategy:%s %s",
		size, tview.Escape(st.Requested.String()), tview.Escape(st.Cached.String()), st.Pinned, strategy, fetch)
}
