package cli

import (
	"cmp"
	"context"
	"slices"

	"github.com/spf13/cobra"

	"github.com/rutapp/rut-server/internal/di/providers"
	"github.com/rutapp/rut-server/internal/domain"
	"github.com/rutapp/rut-server/internal/service"
	"github.com/rutapp/rut-server/internal/store"
)

const topItems = 5

// Summary describes the contents of a data directory.
type Summary struct {
	Items     int            `json:"items"`
	Ruts      int            `json:"ruts"`
	FullRuts  int            `json:"full_ruts"`
	Collects  int            `json:"collects"`
	Tags      int            `json:"tags"`
	Top       []SummaryEntry `json:"top_items"`
	Documents *uint64        `json:"search_documents,omitempty"` // nil when search is disabled
}

// SummaryEntry is one line of the most collected items.
type SummaryEntry struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	RutCount int    `json:"rut_count"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Summarize the store and search index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			injector, err := rootOpts.open(cmd)
			if err != nil {
				return err
			}
			defer closeQuietly(injector)

			st, err := invoke[*providers.StoreHandle](injector)
			if err != nil {
				return err
			}
			searchSvc, err := invoke[*service.SearchService](injector)
			if err != nil {
				return err
			}

			summary, err := summarize(cmd.Context(), st)
			if err != nil {
				return WrapExitError(ExitCommandError, "inspect", err)
			}
			if searchSvc.Enabled() {
				if n, err := searchSvc.DocumentCount(); err == nil {
					summary.Documents = &n
				}
			}

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			return RenderSummary(cmd.OutOrStdout(), summary)
		},
	}
}

func summarize(ctx context.Context, st *providers.StoreHandle) (*Summary, error) {
	s := &Summary{Top: []SummaryEntry{}}

	var items []*domain.Item
	for item, err := range st.StreamItems(ctx) {
		if err != nil {
			return nil, err
		}
		s.Items++
		items = append(items, item)
	}

	for rut, err := range st.StreamRuts(ctx) {
		if err != nil {
			return nil, err
		}
		s.Ruts++
		s.Collects += rut.ItemCount
		if rut.IsFull() {
			s.FullRuts++
		}
	}

	tags, err := st.ListTags(ctx, store.TagsIndex{})
	if err != nil {
		return nil, err
	}
	s.Tags = len(tags)

	s.Top = topCollected(items, topItems)
	return s, nil
}

// topCollected returns the n items with the highest rut_count, ties broken
// by title. Items never collected are left out.
func topCollected(items []*domain.Item, n int) []SummaryEntry {
	sorted := slices.Clone(items)
	slices.SortFunc(sorted, func(a, b *domain.Item) int {
		return cmp.Or(cmp.Compare(b.RutCount, a.RutCount), cmp.Compare(a.Title, b.Title))
	})

	out := []SummaryEntry{}
	for _, item := range sorted {
		if len(out) == n || item.RutCount == 0 {
			break
		}
		out = append(out, SummaryEntry{ID: item.ID, Title: item.Title, RutCount: item.RutCount})
	}
	return out
}
