package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/ssx/internal/models"
)

var styles = NewPalette("#1DB954", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title    lipgloss.Style
	tab      lipgloss.Style
	inactive lipgloss.Style
	ok       lipgloss.Style
	err      lipgloss.Style
	warn     lipgloss.Style
	help     lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:    NewBold(t).MarginBottom(1),
		tab:      NewBold(t).Underline(true).PaddingRight(2),
		inactive: NewStyle(h).PaddingRight(2),
		ok:       NewBold(s),
		err:      NewBold(e),
		warn:     NewStyle(w),
		help:     NewEm(h),
	}
}

// Notice renders a notification as a one-line status message colored by its type.
func (p *Palette) Notice(n models.Notification) string {
	switch n.Type {
	case models.NotifyError:
		return p.err.Render("✗ " + n.String())
	case models.NotifySuccess:
		return p.ok.Render("✓ " + n.String())
	default:
		return p.help.Render(n.String())
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
