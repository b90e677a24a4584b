package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// EntryStatusPill renders a time entry status with its ledger color.
func EntryStatusPill(s domain.EntryStatus) string {
	switch s {
	case domain.EntryActive:
		return StyleYellow.Render("● active")
	case domain.EntryCompleted:
		return StyleBlue.Render("◐ completed")
	case domain.EntryApproved:
		return StyleGreen.Render("✔ approved")
	case domain.EntryRejected:
		return StyleRed.Render("✖ rejected")
	default:
		return StyleDim.Render(string(s))
	}
}

func JobStatusPill(s domain.JobStatus) string {
	switch s {
	case domain.JobPending:
		return StyleYellow.Render("○ pending")
	case domain.JobActive:
		return StyleGreen.Render("● active")
	case domain.JobCompleted:
		return StyleDim.Render("✔ completed")
	case domain.JobCancelled:
		return StyleDim.Render("✖ cancelled")
	default:
		return StyleDim.Render(string(s))
	}
}

func PriorityBadge(p domain.JobPriority) string {
	switch p {
	case domain.PriorityUrgent:
		return StyleRed.Bold(true).Render("URGENT")
	case domain.PriorityHigh:
		return StyleRed.Render("high")
	case domain.PriorityMedium:
		return StyleYellow.Render("medium")
	case domain.PriorityLow:
		return StyleDim.Render("low")
	default:
		return StyleDim.Render(string(p))
	}
}

func RoleBadge(r domain.Role) string {
	switch r {
	case domain.RoleOwner:
		return StylePurple.Render("owner")
	case domain.RoleEmployee:
		return StyleBlue.Render("employee")
	default:
		return StyleFg.Render(string(r))
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
