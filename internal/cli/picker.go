package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/roofline/internal/cli/formatter"
	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

func rooflineHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// openJobs keeps the jobs a crew member can still log time against.
func openJobs(jobs []*domain.Job) []*domain.Job {
	out := make([]*domain.Job, 0, len(jobs))
	for _, j := range jobs {
		if j.Status == domain.JobPending || j.Status == domain.JobActive {
			out = append(out, j)
		}
	}
	return out
}

// chooseJob lists the caller's open jobs and asks which one to clock in to.
func chooseJob(ctx context.Context, app *App, caller domain.Caller) (string, error) {
	jobs, err := app.Jobs.List(ctx, caller, "")
	if err != nil {
		return "", err
	}
	jobs = openJobs(jobs)
	if len(jobs) == 0 {
		return "", domain.NotFoundf("you have no open jobs assigned")
	}
	pick := app.PickJob
	if pick == nil {
		pick = pickJobForm
	}
	return pick(ctx, jobs)
}

func jobPickerForm(jobs []*domain.Job, result *string) *huh.Form {
	options := make([]huh.Option[string], 0, len(jobs))
	for _, j := range jobs {
		label := fmt.Sprintf("%s  %s", j.JobNumber, j.Title)
		if j.Address != "" {
			label += "  " + formatter.Dim(j.Address)
		}
		options = append(options, huh.NewOption(label, j.ID))
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Clock in to which job?").
				Options(options...).
				Value(result),
		),
	).WithTheme(rooflineHuhTheme()).WithShowHelp(false)
}

func pickJobForm(ctx context.Context, jobs []*domain.Job) (string, error) {
	var id string
	if err := jobPickerForm(jobs, &id).RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", domain.Validationf("clock-in cancelled")
		}
		return "", err
	}
	return id, nil
}
