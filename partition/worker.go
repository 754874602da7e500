// Package partition implements the streaming partition worker (§4.3): it
// reads one or more input objects into a fixed-capacity scratch buffer,
// classifies whatever fills the buffer by a single key byte (classify.Classify),
// writes each category's contiguous sub-range as an intermediate object, and
// repeats until its inputs are drained.
//
// The buffer-refill loop mirrors the original's readinto loop (and
// util.copyfileobj's handling of short reads) via io.Reader.Read directly
// into the trailing slice of the scratch buffer, so a source object that
// straddles a buffer boundary is never split mid-flush -- a flush only ever
// happens when the buffer is exactly full.
package partition

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"

	"github.com/sacheendra/serverless-sort/category"
	"github.com/sacheendra/serverless-sort/classify"
	"github.com/sacheendra/serverless-sort/objstore"
	"github.com/sacheendra/serverless-sort/record"
)

// Task describes one partition-worker invocation (§4.3 "Inputs per
// invocation").
type Task struct {
	KeysList []string
	Prefix   string
	Stack    category.Stack
	ValuesPerCategory int
	WorkerID string
}

// Output names the intermediate object keys produced for one category
// stack (one pass deeper than Task.Stack). §9 flags the original's
// approach of parsing the category id back out of the object name's path as
// worth removing: the worker now returns this mapping explicitly.
type Output struct {
	Stack category.Stack
	Keys  []string
}

// Result is returned by Run.
type Result struct {
	Outputs []Output
}

// Env bundles the object-store client and buffer capacity every worker
// needs, so Run stays a pure function of its task descriptor plus this
// explicit environment (§9 re-architecture note: no ambient client or
// closed-over configuration).
type Env struct {
	Store      objstore.Store
	BufferSize int
}

// Run executes one streaming partition worker invocation.
func Run(ctx context.Context, env Env, task Task) (Result, error) {
	if env.BufferSize%record.Size != 0 {
		return Result{}, errors.Errorf("partition: buffer size %d is not a multiple of record size %d", env.BufferSize, record.Size)
	}

	buf := make([]byte, env.BufferSize)
	filled := 0
	iteration := 0
	outputs := map[string]*Output{}
	byteIndex := len(task.Stack)

	flush := func(n int) error {
		if n == 0 {
			return nil
		}
		reordered, ranges := classify.Classify(buf[:n], byteIndex, task.ValuesPerCategory)
		for _, r := range ranges {
			newStack := task.Stack.Append(byte(r.Category))
			key := fmt.Sprintf("%s/%s/%s/iter%d", task.Prefix, newStack.Path(), task.WorkerID, iteration)

			w, err := env.Store.OpenWrite(ctx, key, false)
			if err != nil {
				return errors.Wrapf(err, "partition: opening intermediate object %q", key)
			}
			if _, err := w.Write(reordered[r.Start*record.Size : r.End*record.Size]); err != nil {
				w.Close()
				return errors.Wrapf(err, "partition: writing intermediate object %q", key)
			}
			if err := w.Close(); err != nil {
				return errors.Wrapf(err, "partition: publishing intermediate object %q", key)
			}

			k := newStack.Key()
			out, ok := outputs[k]
			if !ok {
				out = &Output{Stack: newStack}
				outputs[k] = out
			}
			out.Keys = append(out.Keys, key)
		}
		iteration++
		return nil
	}

	for _, key := range task.KeysList {
		if err := readKeyIntoBuffer(ctx, env.Store, key, buf, &filled, flush); err != nil {
			return Result{}, errors.Wrapf(err, "partition: reading input %q", key)
		}
	}

	if err := flush(filled); err != nil {
		return Result{}, err
	}

	stacks := make([]string, 0, len(outputs))
	for k := range outputs {
		stacks = append(stacks, k)
	}
	sort.Strings(stacks)

	result := Result{Outputs: make([]Output, 0, len(outputs))}
	for _, k := range stacks {
		result.Outputs = append(result.Outputs, *outputs[k])
	}
	return result, nil
}

// readKeyIntoBuffer streams one input object into buf starting at *filled,
// invoking flush(len(buf)) every time buf becomes exactly full and
// resetting *filled to 0 afterward, then continuing to read the same
// object into the now-empty buffer. It never flushes mid-object for any
// reason other than the buffer becoming completely full.
func readKeyIntoBuffer(ctx context.Context, store objstore.Store, key string, buf []byte, filled *int, flush func(int) error) error {
	r, err := store.OpenRead(ctx, key)
	if err != nil {
		return err
	}
	defer r.Close()

	for {
		n, readErr := r.Read(buf[*filled:])
		*filled += n

		if *filled == len(buf) {
			if err := flush(len(buf)); err != nil {
				return err
			}
			*filled = 0
		}

		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}
