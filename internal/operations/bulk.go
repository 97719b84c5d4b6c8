package operations

import "context"

// BulkDeleter removes the rows with the given ids and reports how many went.
type BulkDeleter func(ctx context.Context, ids []int64) (int64, error)

// DeleteMany drops repeated and non-positive ids before deleting. Unknown
// ids are ignored by the count.
func DeleteMany(ctx context.Context, del BulkDeleter, ids []int64) (int64, error) {
	seen := make(map[int64]struct{}, len(ids))
	clean := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		clean = append(clean, id)
	}
	if len(clean) == 0 {
		return 0, &Error{Code: ErrNothingToDelete}
	}
	return del(ctx, clean)
}
