package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/densign01/baby-tracker/internal/service"
)

func (a *App) childCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "child",
		Short: "Manage tracked children",
	}

	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Start tracking a child (--tz sets the zone of its days)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, err := a.service.CreateSubject(cmd.Context(), service.CreateSubjectInput{
				Name:     args[0],
				TimeZone: a.tzFlag,
				OwnerID:  a.cfg.Caregiver,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tracking %s (%s)\n", subject.Name, subject.ID)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the children you can log for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subjects, err := a.service.ListSubjects(cmd.Context(), a.cfg.Caregiver)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(subjects) == 0 {
				fmt.Fprintln(out, "No children yet")
				return nil
			}
			s := newStyles(out)
			for _, subject := range subjects {
				zone := subject.TimeZone
				if zone == "" {
					zone = "local"
				}
				fmt.Fprintf(out, "%s  %s  %s\n", s.value.Render(subject.Name), s.dim.Render(zone), s.divider.Render(subject.ID))
			}
			return nil
		},
	}

	share := &cobra.Command{
		Use:   "share CAREGIVER",
		Short: "Let another caregiver log for the child",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subjectID, err := a.subjectID(cmd.Context())
			if err != nil {
				return err
			}
			subject, err := a.service.ShareSubject(cmd.Context(), subjectID, a.cfg.Caregiver, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now shared with %s\n", subject.Name, args[0])
			return nil
		},
	}

	cmd.AddCommand(add, list, share)
	return cmd
}
