package cli

import (
	"github.com/spf13/cobra"

	"github.com/rutapp/rut-server/internal/service"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Recount cached counters and report drift",
		Long: `Recount every cached counter (rut item_count and star_count, item rut_count
and done_count, tag star_count) and the collect order density of every rut.

Drift is reported, never repaired. Exits 1 when any drift is found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			injector, err := rootOpts.open(cmd)
			if err != nil {
				return err
			}
			defer closeQuietly(injector)

			audit, err := invoke[*service.AuditService](injector)
			if err != nil {
				return err
			}

			report, err := audit.Check(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "audit", err)
			}

			if rootOpts.Format == "json" {
				err = writeJSON(cmd.OutOrStdout(), report)
			} else {
				err = RenderAudit(cmd.OutOrStdout(), report)
			}
			if err != nil {
				return err
			}

			if !report.OK {
				return NewExitError(ExitFailure, "counter drift detected")
			}
			return nil
		},
	}
}
