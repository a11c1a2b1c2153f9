package utils

// Paginate returns the window [offset, offset+limit) of items, clamped to
// the slice bounds. A non-positive limit returns everything after offset.
func Paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// PageOffset converts a 1-based page number into a limit/offset pair
func PageOffset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
