// Package shuffleplan decides, from the total input size, how many radix
// passes to run and the values-per-category collapse of the final pass, so
// that every terminal category is expected to fit one worker's memory
// budget (§4.5). It is a pure function of a byte count: unlike the original
// Python make_plan, which takes its argument "in GB" as a naming
// convention only, Plan's input and BufferSize are both raw byte counts
// throughout, with no implicit unit conversion.
package shuffleplan

import "github.com/pkg/errors"

// BufferSize is the fixed scratch-buffer capacity every worker budgets
// against, in bytes. It is a compile-time constant per §6's tunables list.
const BufferSize = 500_000_000

// RecordSize is the smallest bufferSize Plan accepts; a smaller buffer is a
// planner precondition violation (§7). Plan does not check that RecordSize
// divides bufferSize.
const RecordSize = 100

// ErrZeroInput is a planner precondition violation: the input is empty.
var ErrZeroInput = errors.New("shuffleplan: input_size_bytes must be > 0")

// ErrBufferTooSmall is a planner precondition violation: the configured
// buffer cannot even hold one record.
var ErrBufferTooSmall = errors.New("shuffleplan: buffer_size_to_categorize must be >= record size")

// Plan computes (numPasses, lastValuesPerCategory) for an input of
// inputSizeBytes bytes, against a worker memory budget of bufferSize bytes,
// following §4.5's rules exactly:
//
//  1. current := inputSizeBytes, passes := 0
//  2. while current > bufferSize: passes++, current /= 256
//  3. with v := 1: while current*2 < bufferSize: current *= 2, v *= 2
//  4. return (passes, v)
func Plan(inputSizeBytes int64, bufferSize int64) (numPasses int, lastValuesPerCategory int, err error) {
	if inputSizeBytes <= 0 {
		return 0, 0, ErrZeroInput
	}
	if bufferSize < RecordSize {
		return 0, 0, ErrBufferTooSmall
	}

	current := inputSizeBytes
	passes := 0
	for current > bufferSize {
		passes++
		current /= 256
	}

	v := 1
	for current*2 < bufferSize {
		current *= 2
		v *= 2
	}

	return passes, v, nil
}
