package cli

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/spf13/pflag"
)

// ConfigFlag names the persistent flag main reads before the database opens.
const ConfigFlag = "config"

// globalFlags are bound on the root command and shared by every subcommand.
type globalFlags struct {
	as         string
	configPath string
}

func (f *globalFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.as, "as", os.Getenv("ROOFLINE_AS"), "acting user id or username (env ROOFLINE_AS)")
	fs.StringVar(&f.configPath, ConfigFlag, "", "path to a TOML config file (env ROOFLINE_CONFIG)")
}

// caller resolves --as through the user directory.
func (f *globalFlags) caller(ctx context.Context, app *App) (domain.Caller, error) {
	if strings.TrimSpace(f.as) == "" {
		return domain.Caller{}, domain.Unauthenticatedf("--as is required (user id or username)")
	}
	return app.Users.Resolve(ctx, f.as)
}

// ConfigPathFromArgs extracts --config from raw arguments without failing on
// flags that belong to subcommands.
func ConfigPathFromArgs(args []string) string {
	fs := pflag.NewFlagSet("bootstrap", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	fs.SetOutput(io.Discard)
	path := fs.String(ConfigFlag, "", "")
	_ = fs.Parse(args)
	return *path
}

// dateRangeFlags select a ledger window. --today and --week are shorthands
// for the explicit --from/--to calendar days.
type dateRangeFlags struct {
	from, to    string
	today, week bool
}

func (f *dateRangeFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.from, "from", "", "first day, YYYY-MM-DD")
	fs.StringVar(&f.to, "to", "", "last day (inclusive), YYYY-MM-DD")
	fs.BoolVar(&f.today, "today", false, "only today")
	fs.BoolVar(&f.week, "week", false, "this week, Monday through Sunday")
}

// resolve returns the start and end days in the ledger's calendar.
func (f *dateRangeFlags) resolve(now time.Time, loc *time.Location) (string, string, error) {
	shorthands := 0
	for _, set := range []bool{f.today, f.week} {
		if set {
			shorthands++
		}
	}
	if shorthands > 1 || (shorthands == 1 && (f.from != "" || f.to != "")) {
		return "", "", domain.Validationf("use only one of --today, --week or --from/--to")
	}

	local := now.In(loc)
	switch {
	case f.today:
		day := local.Format("2006-01-02")
		return day, day, nil
	case f.week:
		offset := (int(local.Weekday()) + 6) % 7
		monday := local.AddDate(0, 0, -offset)
		return monday.Format("2006-01-02"), monday.AddDate(0, 0, 6).Format("2006-01-02"), nil
	}
	return f.from, f.to, nil
}

// resolveJobRef accepts a job id, a job number like JOB-007, or a bare
// sequence number like 7.
func resolveJobRef(ctx context.Context, app *App, caller domain.Caller, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil && n > 0 {
		ref = domain.FormatJobNumber(n)
	}
	if !strings.HasPrefix(strings.ToUpper(ref), "JOB-") {
		return ref, nil
	}
	jobs, err := app.Jobs.List(ctx, caller, "")
	if err != nil {
		return "", err
	}
	for _, j := range jobs {
		if strings.EqualFold(j.JobNumber, ref) {
			return j.ID, nil
		}
	}
	return "", domain.NotFoundf("job %s not found", ref)
}
