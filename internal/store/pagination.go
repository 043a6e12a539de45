package store

// UnpagedLimit caps selectors called with page < 1, and every fuzzy lookup.
const UnpagedLimit = 10

// DefaultPageSize is used when a store is opened without an explicit size.
const DefaultPageSize = 20

// Window converts a 1-based page number into LIMIT and OFFSET.
// Pages below 1 mean "unpaged": the first UnpagedLimit rows.
func Window(page, pageSize int) (limit, offset int) {
	if page < 1 {
		return UnpagedLimit, 0
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return pageSize, pageSize * (page - 1)
}
