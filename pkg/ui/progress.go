package ui

import (
	"fmt"
	"strings"
	"time"

	"imgscrape/pkg/models"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	barWidth      = 20
)

// Bar renders done/total as a fixed-width bar
func Bar(done, total int) string {
	if total <= 0 {
		return fmt.Sprintf("[%s] %d/%d", strings.Repeat(ProgressEmpty, barWidth), done, total)
	}
	filled := done * barWidth / total
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	return fmt.Sprintf("[%s%s] %d/%d",
		strings.Repeat(ProgressBar, filled),
		strings.Repeat(ProgressEmpty, barWidth-filled),
		done, total)
}

// Rate returns items per minute over elapsed
func Rate(items int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(items) / elapsed.Minutes()
}

// PrintSummary prints the outcome of a scrape run
func PrintSummary(s *models.RunSummary) {
	if s == nil {
		return
	}

	fmt.Fprintln(Out)
	PrintHighlight("[RUN COMPLETE]")
	PrintInfo("Query", s.Query)
	PrintInfo("State", string(s.State))
	PrintInfo("URLs found", fmt.Sprintf("%d of %d requested", s.URLsFound, s.Target))
	PrintInfo("Saved", Bar(s.Saved, s.URLsFound))
	if s.Failed > 0 {
		PrintWarning(fmt.Sprintf("%d images failed", s.Failed))
		for _, o := range s.Outcomes {
			if !o.Saved() {
				fmt.Fprintf(Out, "  %s %s %s\n", Dim(fmt.Sprintf("#%04d", o.Index)), o.URL, Red(o.Reason))
			}
		}
	}
	PrintInfo("Output", s.OutputDir)

	elapsed := s.Duration()
	PrintInfo("Elapsed", fmt.Sprintf("%s (%.1f images/min)", elapsed.Round(time.Millisecond), Rate(s.Saved, elapsed)))
}
