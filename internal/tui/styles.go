package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("12")  // bright blue
	colorOk      = lipgloss.Color("10")  // bright green
	colorDim     = lipgloss.Color("240") // gray
	colorError   = lipgloss.Color("9")   // bright red
	colorBorder  = lipgloss.Color("238") // dark gray

	styleTitle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleChunkIndex = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleChunkText = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	stylePanelBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorBorder)

	styleStatusBar = lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(0, 1)

	styleDone = lipgloss.NewStyle().
			Foreground(colorOk).
			Bold(true)

	styleError = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)
)
