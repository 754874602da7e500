// Package catsort implements the category sorter worker (§4.4): it loads
// every intermediate object for one terminal category into memory and
// performs a stable in-memory sort over whatever key bytes the radix
// passes did not already pin down, then writes the single output object.
package catsort

import (
	"context"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/sacheendra/serverless-sort/objstore"
	"github.com/sacheendra/serverless-sort/record"
)

// Task describes one category-sorter invocation (§4.4 "Inputs").
type Task struct {
	KeysList               []string
	Prefix                 string
	CategoryStackLen       int
	ConsiderLastByteSorted bool
	ID                     int
}

// Env bundles the object-store client every worker needs.
type Env struct {
	Store objstore.Store
}

// Run executes one category-sorter invocation, writing "{prefix}/{id}".
func Run(ctx context.Context, env Env, task Task) error {
	buf, err := concatenate(ctx, env.Store, task.KeysList)
	if err != nil {
		return errors.Wrap(err, "catsort: loading inputs")
	}
	if err := record.Validate(buf); err != nil {
		return err
	}

	numBytesAlreadySorted := task.CategoryStackLen
	if !task.ConsiderLastByteSorted {
		numBytesAlreadySorted--
	}
	if numBytesAlreadySorted < 0 || numBytesAlreadySorted > record.KeySize {
		return errors.Errorf("catsort: invalid num_bytes_already_sorted %d", numBytesAlreadySorted)
	}

	sortByRemainingKeyBytes(buf, numBytesAlreadySorted)

	key := task.Prefix + "/" + strconv.Itoa(task.ID)
	w, err := env.Store.OpenWrite(ctx, key, false)
	if err != nil {
		return errors.Wrapf(err, "catsort: opening output %q", key)
	}
	if _, err := w.Write(buf); err != nil {
		w.Close()
		return errors.Wrapf(err, "catsort: writing output %q", key)
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "catsort: publishing output %q", key)
	}
	return nil
}

// concatenate loads every key in order and appends each object's bytes to
// one growing buffer. The buffer is not pre-sized to the total length: it
// grows through append as objects are read, so it may be reallocated
// several times.
func concatenate(ctx context.Context, store objstore.Store, keys []string) ([]byte, error) {
	var out []byte
	for _, k := range keys {
		rc, err := store.OpenRead(ctx, k)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %q", k)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "reading %q", k)
		}
		out = append(out, data...)
	}
	return out, nil
}

// sortByRemainingKeyBytes stably sorts buf's records by the key bytes at
// [numBytesAlreadySorted, record.KeySize), leaving the already-sorted
// prefix and the payload untouched relative to their record.
func sortByRemainingKeyBytes(buf []byte, numBytesAlreadySorted int) {
	n := record.Count(buf)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	compare := func(i, j int) int {
		a, b := record.At(buf, i), record.At(buf, j)
		for k := numBytesAlreadySorted; k < record.KeySize; k++ {
			if a[k] != b[k] {
				if a[k] < b[k] {
					return -1
				}
				return 1
			}
		}
		return 0
	}

	slices.SortStableFunc(idx, func(i, j int) bool { return compare(i, j) < 0 })

	out := make([]byte, len(buf))
	for dst, src := range idx {
		copy(record.At(out, dst), record.At(buf, src))
	}
	copy(buf, out)
}
