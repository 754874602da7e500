// Package classify implements the single-byte radix classification step
// (§4.2): given a buffer of whole records, produce a reordering grouped by
// category id together with the contiguous sub-range each category occupies.
//
// The classifier is a counting sort over up to record.MaxCategories buckets,
// the same "count, then scatter by bucket offset" shape twotwotwo/sorts
// uses for its LSD byte passes, specialized to a single fixed byte position
// instead of a recursive multi-byte sort (the streaming partition worker
// only ever needs one pass per invocation; see partition.Run).
package classify

import "github.com/sacheendra/serverless-sort/record"

// Range names the contiguous output sub-range occupied by one category.
type Range struct {
	Category int
	Start    int
	End      int // exclusive
}

// Classify reorders buf (a whole number of records) so that records are
// grouped by category_of(record, byteIndex, v) in ascending category order,
// stable within a category on the input order. It returns the reordered
// records as a freshly allocated buffer (the classifier never mutates buf
// in place, since buf may be a view into the caller's scratch buffer that
// is about to be reset) and the list of category ranges the output covers,
// one entry per category actually present, ascending by Category.
func Classify(buf []byte, byteIndex int, v int) ([]byte, []Range) {
	n := record.Count(buf)
	available := record.MaxCategories / v

	counts := make([]int, available)
	cats := make([]int, n)
	for i := 0; i < n; i++ {
		c := record.CategoryOf(record.At(buf, i), byteIndex, v)
		cats[i] = c
		counts[c]++
	}

	offsets := make([]int, available)
	pos := 0
	for c := 0; c < available; c++ {
		offsets[c] = pos
		pos += counts[c]
	}

	out := make([]byte, len(buf))
	cursor := make([]int, available)
	copy(cursor, offsets)
	for i := 0; i < n; i++ {
		c := cats[i]
		dst := cursor[c]
		copy(record.At(out, dst), record.At(buf, i))
		cursor[c]++
	}

	ranges := make([]Range, 0, available)
	for c := 0; c < available; c++ {
		if counts[c] == 0 {
			continue
		}
		ranges = append(ranges, Range{Category: c, Start: offsets[c], End: offsets[c] + counts[c]})
	}

	return out, ranges
}
