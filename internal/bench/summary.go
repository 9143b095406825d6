package bench

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/violenttestpen/mesa/internal/config"
	"github.com/violenttestpen/mesa/internal/runner"
	"github.com/violenttestpen/mesa/internal/stats"
)

// summary prints the human readable outcome of a benchmark.
type summary struct {
	w                      io.Writer
	green, cyan, red, grey *color.Color
}

func newSummary(w io.Writer, enabled bool) *summary {
	s := &summary{
		w:     w,
		green: color.New(color.FgGreen),
		cyan:  color.New(color.FgCyan),
		red:   color.New(color.FgRed),
		grey:  color.New(color.FgHiBlack),
	}
	for _, c := range []*color.Color{s.green, s.cyan, s.red, s.grey} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

func (s *summary) header(cfg config.Run) {
	cmd := strings.TrimSpace(cfg.Executable + " " + cfg.FlatArguments())
	fmt.Fprintf(s.w, "Benchmark: %s\n", cmd)
}

func (s *summary) result(cfg config.Run, res *runner.Result, mean, stddev float64) {
	if n := len(res.Warmup.Durations); n > 0 {
		warmMean, _ := stats.MeanStdDev(res.Warmup.Durations)
		fmt.Fprintf(s.w, "  Warmup (mean):\t%s\t%s\n",
			s.seconds(s.cyan, warmMean, warmMean),
			s.grey.Sprintf("%d runs, not recorded", n))
	}

	runs := len(res.Measured.Durations)
	if runs == 0 {
		fmt.Fprintf(s.w, "  %s\n", s.grey.Sprint("No measured runs"))
		return
	}

	fmt.Fprintf(s.w, "  Time (%s ± %s):\t%s ± %s\t[User: %s, System: %s]\n",
		s.green.Sprint("mean"),
		s.green.Sprint("σ"),
		s.seconds(s.green, mean, mean),
		s.seconds(s.green, stddev, mean),
		s.duration(s.cyan, res.Measured.User/time.Duration(runs)),
		s.duration(s.cyan, res.Measured.Kernel/time.Duration(runs)))

	min, max := stats.MinMax(res.Measured.Durations)
	fmt.Fprintf(s.w, "  Range (%s … %s):\t%s … %s\t%s\n",
		s.cyan.Sprint("min"),
		s.red.Sprint("max"),
		s.seconds(s.cyan, min, mean),
		s.seconds(s.red, max, mean),
		s.grey.Sprintf("%d runs", runs))
	if cfg.IgnoreFailure {
		fmt.Fprintf(s.w, "  %s\n", s.grey.Sprint("Non-zero exit codes were ignored"))
	}
	fmt.Fprintln(s.w)
}

// seconds formats v in the unit chosen for scale, so related values share
// a unit.
func (s *summary) seconds(c *color.Color, v, scale float64) string {
	denominator, unit := stats.Scale(scale)
	return c.Sprintf("%.2f %s", v/denominator, unit)
}

func (s *summary) duration(c *color.Color, d time.Duration) string {
	return s.seconds(c, d.Seconds(), d.Seconds())
}
