package memory

import (
	"slices"
	"strings"
	"time"

	"github.com/gosuda/taskhub/internal/domain"
)

func copyTask(t domain.Task) domain.Task {
	if t.AssignedTo != nil {
		a := *t.AssignedTo
		t.AssignedTo = &a
	}
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// paginate applies a normalized page to an already sorted slice.
func paginate[T any](items []T, page domain.Page) []T {
	page = page.Normalize()
	if page.Offset >= len(items) {
		return []T{}
	}
	end := min(page.Offset+page.Limit, len(items))
	return slices.Clip(items[page.Offset:end])
}

// newestFirst orders by creation time descending.
func newestFirst(a, b time.Time) int {
	return b.Compare(a)
}
