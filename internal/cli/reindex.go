package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rutapp/rut-server/internal/service"
)

// NewReindexCommand creates the reindex command.
func NewReindexCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			injector, err := rootOpts.open(cmd)
			if err != nil {
				return err
			}
			defer closeQuietly(injector)

			searchSvc, err := invoke[*service.SearchService](injector)
			if err != nil {
				return err
			}
			if !searchSvc.Enabled() {
				return NewExitError(ExitCommandError, "search is disabled by configuration")
			}

			count, err := searchSvc.Reindex(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "reindex", err)
			}

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]int{"documents": count})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "indexed %d documents\n", count)
			return err
		},
	}
}
