package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/densign01/baby-tracker/internal/aggregate"
	"github.com/densign01/baby-tracker/internal/service"
)

func (a *App) dayCommand() *cobra.Command {
	var date, filter string
	var prev, next bool
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Show the summary and entries of one day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if prev && next {
				return errors.New("--prev and --next are mutually exclusive")
			}
			category, err := aggregate.ParseCategory(filter)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			subjectID, err := a.subjectID(ctx)
			if err != nil {
				return err
			}
			q := service.DayQuery{
				SubjectID:   subjectID,
				CaregiverID: a.cfg.Caregiver,
				Date:        date,
				TimeZone:    a.tzFlag,
				Filter:      category,
			}
			view, err := a.service.DayReport(ctx, q)
			if err != nil {
				return err
			}
			switch {
			case prev:
				q.Date = view.Previous.Format(aggregate.DateLayout)
			case next && view.Next == nil:
				return errors.New("already showing today")
			case next:
				q.Date = view.Next.Format(aggregate.DateLayout)
			}
			if prev || next {
				if view, err = a.service.DayReport(ctx, q); err != nil {
					return err
				}
			}
			renderDay(cmd.OutOrStdout(), view, view.Day.Location())
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to show as YYYY-MM-DD (defaults to today)")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "all, sleep, feeding or diaper")
	cmd.Flags().BoolVar(&prev, "prev", false, "show the day before --date")
	cmd.Flags().BoolVar(&next, "next", false, "show the day after --date")
	return cmd
}

func (a *App) weekCommand() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show one summary line per day (last 7 days by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subjectID, err := a.subjectID(cmd.Context())
			if err != nil {
				return err
			}
			summaries, err := a.service.RangeSummaries(cmd.Context(), service.RangeQuery{
				SubjectID:   subjectID,
				CaregiverID: a.cfg.Caregiver,
				From:        from,
				To:          to,
				TimeZone:    a.tzFlag,
			})
			if err != nil {
				return err
			}
			renderRange(cmd.OutOrStdout(), summaries)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day as YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day as YYYY-MM-DD")
	return cmd
}

func (a *App) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the running sleep and the time since the last of each activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			subjectID, err := a.subjectID(ctx)
			if err != nil {
				return err
			}
			subject, err := a.service.GetSubject(ctx, subjectID, a.cfg.Caregiver)
			if err != nil {
				return err
			}
			status, err := a.service.Status(ctx, subjectID, a.cfg.Caregiver)
			if err != nil {
				return err
			}
			renderStatus(cmd.OutOrStdout(), subject.Name, status)
			return nil
		},
	}
}

func (a *App) listCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			subjectID, err := a.subjectID(ctx)
			if err != nil {
				return err
			}
			loc, err := a.location(ctx, subjectID)
			if err != nil {
				return err
			}
			records, _, err := a.service.ListRecords(ctx, subjectID, a.cfg.Caregiver, nil, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			s := newStyles(out)
			var day time.Time
			for _, r := range records {
				if !aggregate.SameDay(r.OccurredAt, day, loc) {
					day = r.OccurredAt
					fmt.Fprintln(out, s.title.Render(r.OccurredAt.In(loc).Format("Mon, Jan 2")))
				}
				fmt.Fprintln(out, entryLine(s, r, loc, false))
			}
			if len(records) == 0 {
				fmt.Fprintln(out, s.dim.Render("No activities logged"))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "number of records")
	return cmd
}
