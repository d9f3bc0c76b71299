package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/densign01/baby-tracker/internal/domain"
	"github.com/densign01/baby-tracker/internal/service"
)

// logFlags are shared by every `log` subcommand.
type logFlags struct {
	at    string
	notes string
}

func (f *logFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.at, "at", "", `when it happened: HH:MM, "YYYY-MM-DD HH:MM", RFC 3339 or "20m ago"`)
	cmd.Flags().StringVarP(&f.notes, "notes", "n", "", "free text note")
}

func (a *App) logCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Log a finished activity",
	}

	var sleepFlags logFlags
	var duration time.Duration
	sleep := &cobra.Command{
		Use:   "sleep",
		Short: "Log a sleep that already ended (--at is the wake time)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if duration <= 0 {
				return fmt.Errorf("--duration is required, e.g. --duration 1h30m")
			}
			ms := duration.Milliseconds()
			return a.logActivity(cmd, sleepFlags, service.LogInput{Kind: domain.KindSleep, DurationMs: &ms})
		},
	}
	sleepFlags.bind(sleep)
	sleep.Flags().DurationVarP(&duration, "duration", "d", 0, "how long the sleep lasted")

	var feedingFlags logFlags
	var method, side string
	var oz float64
	feeding := &cobra.Command{
		Use:   "feeding",
		Short: "Log a feeding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := service.LogInput{
				Kind:          domain.KindFeeding,
				FeedingMethod: domain.FeedingMethod(method),
				Side:          domain.FeedingSide(side),
			}
			if cmd.Flags().Changed("oz") {
				in.AmountOz = &oz
			}
			return a.logActivity(cmd, feedingFlags, in)
		},
	}
	feedingFlags.bind(feeding)
	feeding.Flags().StringVarP(&method, "method", "m", string(domain.FeedingBottle), "breast, bottle or solid")
	feeding.Flags().StringVar(&side, "side", "", "left, right or both (breast only)")
	feeding.Flags().Float64Var(&oz, "oz", 0, "amount in ounces (bottle only)")

	var diaperFlags logFlags
	var kind string
	diaper := &cobra.Command{
		Use:   "diaper",
		Short: "Log a diaper change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.logActivity(cmd, diaperFlags, service.LogInput{Kind: domain.KindDiaper, DiaperKind: domain.DiaperKind(kind)})
		},
	}
	diaperFlags.bind(diaper)
	diaper.Flags().StringVarP(&kind, "kind", "k", string(domain.DiaperWet), "wet, dirty or both")

	cmd.AddCommand(sleep, feeding, diaper)
	return cmd
}

func (a *App) logActivity(cmd *cobra.Command, flags logFlags, in service.LogInput) error {
	subjectID, loc, at, err := a.resolveAt(cmd, flags.at)
	if err != nil {
		return err
	}
	in.SubjectID = subjectID
	in.Caregiver = a.caregiver()
	in.OccurredAt = at
	in.Notes = flags.notes

	record, _, err := a.service.LogActivity(cmd.Context(), in)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Logged %s\n", entryLine(newStyles(out), *record, loc, true))
	return nil
}

func (a *App) sleepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sleep",
		Short: "Run the sleep timer",
	}

	var startFlags logFlags
	start := &cobra.Command{
		Use:   "start",
		Short: "Start a sleep now or at --at",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subjectID, loc, at, err := a.resolveAt(cmd, startFlags.at)
			if err != nil {
				return err
			}
			record, err := a.service.StartSleep(cmd.Context(), service.StartSleepInput{
				SubjectID: subjectID,
				Caregiver: a.caregiver(),
				StartedAt: at,
				Notes:     startFlags.notes,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sleep started at %s\n", record.Sleep.StartedAt.In(loc).Format("3:04 PM"))
			return nil
		},
	}
	startFlags.bind(start)

	var stopAt string
	stop := &cobra.Command{
		Use:   "stop",
		Short: "End the running sleep now or at --at",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subjectID, loc, at, err := a.resolveAt(cmd, stopAt)
			if err != nil {
				return err
			}
			record, err := a.service.StopSleep(cmd.Context(), subjectID, a.caregiver(), at)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Slept %s, woke at %s\n", describe(*record), record.OccurredAt.In(loc).Format("3:04 PM"))
			return nil
		},
	}
	stop.Flags().StringVar(&stopAt, "at", "", "when the sleep ended")

	cmd.AddCommand(start, stop)
	return cmd
}

func (a *App) resolveAt(cmd *cobra.Command, value string) (string, *time.Location, time.Time, error) {
	subjectID, err := a.subjectID(cmd.Context())
	if err != nil {
		return "", nil, time.Time{}, err
	}
	loc, err := a.location(cmd.Context(), subjectID)
	if err != nil {
		return "", nil, time.Time{}, err
	}
	at, err := parseAt(value, loc, a.now())
	if err != nil {
		return "", nil, time.Time{}, err
	}
	return subjectID, loc, at, nil
}
