package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/densign01/baby-tracker/internal/legacy"
)

// prefixSearchLimit bounds how many recent records a short id is matched against.
const prefixSearchLimit = 200

func (a *App) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a record by id or unique id prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			subjectID, err := a.subjectID(ctx)
			if err != nil {
				return err
			}
			id, err := a.resolveRecordID(cmd, subjectID, args[0])
			if err != nil {
				return err
			}
			record, err := a.service.DeleteRecord(ctx, subjectID, a.cfg.Caregiver, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", record.Kind, record.ID)
			return nil
		},
	}
}

// resolveRecordID expands an id prefix, as printed by `day`, against the recent records.
func (a *App) resolveRecordID(cmd *cobra.Command, subjectID, prefix string) (string, error) {
	records, _, err := a.service.ListRecords(cmd.Context(), subjectID, a.cfg.Caregiver, nil, prefixSearchLimit)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, r := range records {
		if r.ID == prefix {
			return r.ID, nil
		}
		if strings.HasPrefix(r.ID, prefix) {
			matches = append(matches, r.ID)
		}
	}
	switch len(matches) {
	case 0:
		// older records are still reachable by their full id
		return prefix, nil
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q is ambiguous (%d records)", prefix, len(matches))
	}
}

func (a *App) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import a web app export (babyActivities JSON)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			subjectID, err := a.subjectID(ctx)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "open export")
			}
			defer f.Close()

			records, err := legacy.Decode(f)
			if err != nil {
				return err
			}
			imported, err := a.service.ImportRecords(ctx, subjectID, a.caregiver(), records)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d records (%d already present)\n",
				imported, len(records), len(records)-imported)
			return nil
		},
	}
}

func (a *App) clearCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every record of the child",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to delete everything without --yes")
			}
			ctx := cmd.Context()
			subjectID, err := a.subjectID(ctx)
			if err != nil {
				return err
			}
			subject, err := a.service.GetSubject(ctx, subjectID, a.cfg.Caregiver)
			if err != nil {
				return err
			}
			removed, err := a.store.DeleteAll(ctx, subject.ID)
			if err != nil {
				return err
			}
			a.logger.Info().Str("subject_id", subject.ID).Int64("removed", removed).Msg("records cleared")
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d records of %s\n", removed, subject.Name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm")
	return cmd
}
