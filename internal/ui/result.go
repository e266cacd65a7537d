package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/fisinject/internal/engine"
)

// StepLine renders one step as a single plain line.
func StepLine(s engine.StepResult) string {
	marker := SuccessMarker
	switch {
	case s.Skipped:
		marker = SkippedMarker
	case !s.OK:
		marker = FailureMarker
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", marker, s.Op, s.Zone)
	if s.Op == engine.OpWrite {
		fmt.Fprintf(&b, " line 0x%02X", s.Line)
	}
	if s.Skipped {
		b.WriteString(" (skipped)")
	}
	if s.Err != nil {
		b.WriteString(": " + s.Err.Error())
	}
	return b.String()
}

// Summary renders res as one line, for logs and the console scrollback.
func Summary(res engine.Result) string {
	if res.Skipped {
		return "Bus inactive, nothing sent"
	}
	failed := 0
	for _, s := range res.Steps {
		if !s.OK {
			failed++
		}
	}
	if failed == 0 {
		return fmt.Sprintf("Update sent (%d steps)", len(res.Steps))
	}
	return fmt.Sprintf("Update incomplete (%d of %d steps failed)", failed, len(res.Steps))
}

// RenderResult renders res as a bordered box listing every step.
func RenderResult(input string, res engine.Result, width int) string {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	color := SuccessColor
	title := SuccessTitleStyle.Render(fmt.Sprintf("   %s  SENT  ─  %s", SuccessMarker, input))
	switch {
	case res.Skipped:
		color = WarningColor
		title = WarningTitleStyle.Render("   ⚠  SKIPPED  ─  " + Summary(res))
	case !res.OK():
		color = ErrorColor
		title = ErrorTitleStyle.Render(fmt.Sprintf("   %s  FAILED  ─  %s", FailureMarker, input))
	}

	lines := []string{"", title, ""}
	for _, s := range res.Steps {
		style := MutedStyle
		if !s.OK && !s.Skipped {
			style = ErrorMessageStyle
		}
		lines = append(lines, style.Render("   "+StepLine(s)))
	}
	lines = append(lines, "")

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(color).
		Width(width - 2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

// RenderFailure renders an error box with troubleshooting tips.
func RenderFailure(title string, err error, troubleshooting []string, width int) string {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	lines := []string{"", ErrorTitleStyle.Render(fmt.Sprintf("   %s  FAILED  ─  %s", FailureMarker, title)), ""}
	if err != nil {
		lines = append(lines, ErrorMessageStyle.Render("   Error: "+err.Error()), "")
	}

	if len(troubleshooting) > 0 {
		tips := []string{TroubleshootingTitleStyle.Render("Troubleshooting:"), ""}
		for _, tip := range troubleshooting {
			tips = append(tips, TroubleshootingItemStyle.Render("  • "+tip))
		}

		innerWidth := width - 12 // indent within outer box
		if innerWidth < 40 {
			innerWidth = 40
		}
		box := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(MutedColor).
			Width(innerWidth).
			Padding(0, 1).
			MarginLeft(3).
			Render(strings.Join(tips, "\n"))
		lines = append(lines, box, "")
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(ErrorColor).
		Width(width - 2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}
