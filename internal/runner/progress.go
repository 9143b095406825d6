package runner

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/violenttestpen/mesa/internal/stats"
)

const (
	progressDoneRune    = "█"
	progressPendingRune = "▒"
)

// progress redraws a single status line with the running estimate, a bar
// and an ETA. It must only be attached to a terminal.
type progress struct {
	w     io.Writer
	width func() int
}

func (p *progress) clear() {
	io.WriteString(p.w, "\r\033[K")
}

func (p *progress) update(label string, done, total int, estimate float64) {
	p.clear()

	denominator, unit := stats.Scale(estimate)
	value := fmt.Sprintf("%.2f %s", estimate/denominator, unit)
	eta := formatETA(time.Duration(estimate * float64(total-done) * float64(time.Second)))

	// The last column stays empty so the line never wraps.
	used := runewidth.StringWidth(label+": "+value+" ") + runewidth.StringWidth(" ETA "+eta)
	barWidth := p.width() - used - 1
	if barWidth < 0 {
		barWidth = 0
	}
	chunks := barWidth * done / total
	bar := strings.Repeat(progressDoneRune, chunks) + strings.Repeat(progressPendingRune, barWidth-chunks)

	fmt.Fprintf(p.w, "%s: %s %s ETA %s", label, color.GreenString("%s", value), bar, eta)
}

func formatETA(eta time.Duration) string {
	eta = eta.Round(time.Second)
	h := int64(eta.Hours())
	m := int64(eta.Minutes()) % 60
	s := int64(eta.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
