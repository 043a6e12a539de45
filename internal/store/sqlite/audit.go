package sqlite

import (
	"context"
	"fmt"

	"github.com/rutapp/rut-server/internal/store"
)

// driftChecks recount one cached counter each. Every query yields
// (id, cached, actual) for rows where the two disagree.
var driftChecks = []struct {
	entity, field, query string
}{
	{"rut", "item_count", `
		SELECT r.id, r.item_count, COUNT(c.id) FROM ruts r
		LEFT JOIN collects c ON c.rut_id = r.id
		GROUP BY r.id HAVING r.item_count != COUNT(c.id)`},
	{"rut", "star_count", `
		SELECT r.id, r.star_count, COUNT(s.id) FROM ruts r
		LEFT JOIN starruts s ON s.rut_id = r.id
		GROUP BY r.id HAVING r.star_count != COUNT(s.id)`},
	{"item", "rut_count", `
		SELECT i.id, i.rut_count, COUNT(c.id) FROM items i
		LEFT JOIN collects c ON c.item_id = i.id
		GROUP BY i.id HAVING i.rut_count != COUNT(c.id)`},
	{"item", "done_count", `
		SELECT i.id, i.done_count, COUNT(s.id) FROM items i
		LEFT JOIN staritems s ON s.item_id = i.id AND s.done_counted = 1
		GROUP BY i.id HAVING i.done_count != COUNT(s.id)`},
	{"tag", "star_count", `
		SELECT t.tname, t.star_count, COUNT(s.id) FROM tags t
		LEFT JOIN startags s ON s.tname = t.tname
		GROUP BY t.tname HAVING t.star_count != COUNT(s.id)`},
	// Order density: a rut whose orders are not exactly 1..n reports the
	// highest order it holds against the row count.
	{"rut", "item_order", `
		SELECT rut_id, MAX(item_order), COUNT(*) FROM collects
		GROUP BY rut_id
		HAVING MAX(item_order) != COUNT(*) OR MIN(item_order) != 1 OR COUNT(DISTINCT item_order) != COUNT(*)`},
}

// Audit recounts cached counters and returns every disagreement.
//
// Tag rut_count and item_count are not audited: untag leaves them untouched
// unless symmetric untagging is enabled, so a recount would flag expected
// values.
func (s *Store) Audit(ctx context.Context) ([]store.Drift, error) {
	drifts := []store.Drift{}
	for _, check := range driftChecks {
		rows, err := s.db.QueryContext(ctx, check.query)
		if err != nil {
			return nil, fmt.Errorf("audit %s.%s: %w", check.entity, check.field, err)
		}
		for rows.Next() {
			d := store.Drift{Entity: check.entity, Field: check.field}
			if err := rows.Scan(&d.ID, &d.Cached, &d.Actual); err != nil {
				rows.Close()
				return nil, err
			}
			drifts = append(drifts, d)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return drifts, nil
}
