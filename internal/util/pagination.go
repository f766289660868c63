package util

const DefaultPageSize = 10

// Calculate clamps page/size to sane bounds and returns the offset and
// limit for a paged query.
func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = DefaultPageSize
	}
	from = (page - 1) * size
	return from, size
}
