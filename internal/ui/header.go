package ui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Header is the startup banner: title, command and the effective settings.
type Header struct {
	Title   string            // e.g., "FIS INJECTOR"
	Command string            // e.g., "fisinject run"
	Params  map[string]string // e.g., {"Bus": "socketcan/can0", "Host ID": "0x490"}
	Width   int
}

// NewHeader creates a new header sized to the terminal.
func NewHeader(title, command string, params map[string]string) *Header {
	return &Header{
		Title:   title,
		Command: command,
		Params:  params,
		Width:   GetTerminalWidth(),
	}
}

// Render returns the styled header as a string
func (h *Header) Render() string {
	width := h.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	titleLine := HeaderTitleStyle.Render(strings.ToUpper(h.Title))
	commandLine := HeaderCommandStyle.Render(h.Command)
	topSection := lipgloss.JoinVertical(lipgloss.Left, titleLine, commandLine)

	content := topSection
	if len(h.Params) > 0 {
		keys := make([]string, 0, len(h.Params))
		for k := range h.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		paramLines := make([]string, 0, len(keys))
		for _, k := range keys {
			paramLines = append(paramLines,
				HeaderParamKeyStyle.Render(k+":")+" "+HeaderParamValueStyle.Render(h.Params[k]))
		}

		dividerWidth := width - 6 // border and padding
		if dividerWidth < 10 {
			dividerWidth = 10
		}
		divider := RenderHorizontalDivider(dividerWidth, "─")
		content = lipgloss.JoinVertical(lipgloss.Left, topSection, divider, strings.Join(paramLines, "\n"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2). // border characters
		Render(content)
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}
