package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/sujalbistaa/postscore/internal/composer"
)

// termView prints the score panel each time it changes, once Follow has been
// called. Renders before that are only remembered.
type termView struct {
	out       io.Writer
	following bool
	last      composer.ScoreDisplay
}

func newTermView(out io.Writer) *termView {
	return &termView{out: out}
}

func (v *termView) Follow() { v.following = true }

func (v *termView) Render(s composer.Snapshot) {
	if !v.following || !s.Score.Visible || s.Score == v.last {
		return
	}
	v.last = s.Score

	fmt.Fprintf(v.out, "%s  %s\n", scoreColor(s.Score.Value).Sprint(s.Score.Value), s.Score.Feedback)
	if s.Score.SuggestionsVisible {
		fmt.Fprintln(v.out, color.New(color.Bold).Sprint("Suggestions:"))
		for _, line := range strings.Split(strings.TrimSpace(s.Score.Suggestions), "\n") {
			fmt.Fprintf(v.out, "  %s\n", line)
		}
	}
}

func scoreColor(value string) *color.Color {
	switch value {
	case composer.PendingScore:
		return color.New(color.Faint)
	case composer.ErrorScore, composer.NotAvailableScore:
		return color.New(color.FgRed, color.Bold)
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(value, "/100"), 64)
	switch {
	case err != nil:
		return color.New(color.Bold)
	case n >= 70:
		return color.New(color.FgGreen, color.Bold)
	case n >= 40:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

// writePreview prints the visible platform preview.
func writePreview(w io.Writer, s composer.Snapshot, img *composer.Image) {
	for _, pv := range s.Previews {
		if !pv.Visible {
			continue
		}
		header := color.New(color.FgCyan, color.Bold).Sprintf("── %s ", pv.Platform.DisplayName())
		fmt.Fprintln(w, header+strings.Repeat("─", 30))
		fmt.Fprintln(w, pv.Text)
		if pv.ImageVisible && img != nil {
			fmt.Fprintf(w, "[image: %s, %s, %d bytes]\n", img.Name, img.MIMEType, img.Size)
		}
		fmt.Fprintln(w, strings.Repeat("─", 34+len(pv.Platform.DisplayName())))
	}
}
