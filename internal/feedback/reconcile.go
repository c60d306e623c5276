package feedback

import (
	"fmt"
	"sort"
)

// Reconciliation is the outcome of deciding which reported marks are genuine
// slides. Marks preserves the input order of the kept entries. Reason is a
// short diagnostic for logs only.
type Reconciliation struct {
	Marks              []TimestampMark
	SlideCount         int
	HasTrailingSection bool
	Reason             string
}

// Reconcile decides how many reported slides are genuine and drops trailing
// marks that are likely a Q&A section rather than real slides.
//
// When an authoritative slide count is known it wins: marks numbered above it
// are dropped and the remainder is flagged as a trailing section. Otherwise
// the count is inferred by scanning the sorted distinct slide numbers for the
// first adjacent gap greater than 1; everything past the slide before the gap
// is presumed Q&A. Only the first gap is considered.
//
// Duplicate slide numbers (revisits) are kept; the segmenter treats every
// mark as a boundary regardless of duplication.
func Reconcile(marks []TimestampMark, authoritativeCount int) Reconciliation {
	if len(marks) == 0 {
		return Reconciliation{SlideCount: 0, Reason: "no marks"}
	}

	slideCount := authoritativeCount
	reason := "authoritative count"
	if slideCount <= 0 {
		slideCount, reason = inferSlideCount(marks)
	}

	maxSlide := 0
	for _, mark := range marks {
		if mark.SlideNumber > maxSlide {
			maxSlide = mark.SlideNumber
		}
	}

	if slideCount > 0 && maxSlide > slideCount {
		kept := make([]TimestampMark, 0, len(marks))
		for _, mark := range marks {
			if mark.SlideNumber <= slideCount {
				kept = append(kept, mark)
			}
		}
		return Reconciliation{
			Marks:              kept,
			SlideCount:         slideCount,
			HasTrailingSection: true,
			Reason:             fmt.Sprintf("%s: max slide %d exceeds count %d", reason, maxSlide, slideCount),
		}
	}

	return Reconciliation{
		Marks:      append([]TimestampMark(nil), marks...),
		SlideCount: slideCount,
		Reason:     reason,
	}
}

// inferSlideCount returns the highest slide number reachable from the lowest
// without a gap, or the maximum when the sequence has no gaps.
func inferSlideCount(marks []TimestampMark) (int, string) {
	distinct := make(map[int]struct{}, len(marks))
	for _, mark := range marks {
		distinct[mark.SlideNumber] = struct{}{}
	}
	sorted := make([]int, 0, len(distinct))
	for number := range distinct {
		sorted = append(sorted, number)
	}
	sort.Ints(sorted)

	for i := 0; i+1 < len(sorted); i++ {
		if sorted[i+1]-sorted[i] > 1 {
			return sorted[i], fmt.Sprintf("gap between slides %d and %d", sorted[i], sorted[i+1])
		}
	}
	return sorted[len(sorted)-1], "no gaps, max slide number"
}
