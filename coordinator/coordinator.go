// Package coordinator drives the shuffle planner and the radix passes it
// plans (§4.6): it builds partition-worker task descriptors, dispatches
// them through a taskrunner.Run, regroups their outputs into next-pass
// tasks, and finally dispatches the category sorters that produce the
// ordered output objects.
//
// §9 re-architecture notes this package follows:
//   - category stacks are carried as category.Stack (a byte sequence) in
//     every task descriptor; the "/"-joined string only appears in object
//     keys (category.Stack.Path), never as a map key.
//   - regrouping consumes partition.Output{Stack, Keys} pairs returned
//     explicitly by the worker, instead of parsing a category id back out
//     of an object name.
//   - np.array_split's exact length rule is reproduced by
//     arraySplit.
package coordinator

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/sacheendra/serverless-sort/category"
	"github.com/sacheendra/serverless-sort/catsort"
	"github.com/sacheendra/serverless-sort/objstore"
	"github.com/sacheendra/serverless-sort/partition"
	"github.com/sacheendra/serverless-sort/record"
	"github.com/sacheendra/serverless-sort/shuffleplan"
	"github.com/sacheendra/serverless-sort/taskrunner"
)

// Config holds the §6 tunables the coordinator needs. WorkerImage is
// retained for parity with the original CLI surface; it is unused by
// taskrunner.Run, which runs every worker in-process.
type Config struct {
	InputPrefix    string
	OutputPrefix   string
	MaxParallelism int
	WorkerImage    string

	// BufferSize is the worker scratch-buffer capacity every pass plans
	// and partitions against. It defaults to shuffleplan.BufferSize
	// (§6's compile-time 500MB constant) when zero; tests override it to
	// exercise multi-pass behavior without gigabyte-scale fixtures.
	BufferSize int64
}

func (c Config) bufferSize() int64 {
	if c.BufferSize > 0 {
		return c.BufferSize
	}
	return shuffleplan.BufferSize
}

// Summary reports what a run did, for the CLI's terminal summary line. Run
// has already checked size conservation (ErrSizeMismatch) before it returns
// a Summary (carried over from the original's
// `assert input_size == output_size` and "Done!" — see SPEC_FULL.md).
type Summary struct {
	InputSize             int64
	OutputSize            int64
	NumPasses             int
	LastValuesPerCategory int
	NumOutputs            int
}

// ErrSizeMismatch is the §7 "output size mismatch" assertion failure.
var ErrSizeMismatch = errors.New("coordinator: sum of output sizes does not match sum of input sizes")

type task struct {
	keysList []string
	prefix   string
	stack    category.Stack
}

// Run executes a full sort job: input objects under cfg.InputPrefix are
// read, radix-partitioned across shuffleplan.Plan's chosen number of
// passes, and the terminal categories are sorted into cfg.OutputPrefix.
func Run(ctx context.Context, store objstore.Store, cfg Config) (Summary, error) {
	inputInfos, err := store.ListObjects(ctx, cfg.InputPrefix+"/")
	if err != nil {
		return Summary{}, errors.Wrap(err, "coordinator: listing inputs")
	}

	var inputSize int64
	for _, info := range inputInfos {
		inputSize += info.Size
	}
	if inputSize%record.Size != 0 {
		return Summary{}, errors.Wrapf(record.ErrSchema, "coordinator: total input size %d", inputSize)
	}

	numPasses, lastValuesPerCategory, err := shuffleplan.Plan(inputSize, cfg.bufferSize())
	if err != nil {
		return Summary{}, errors.Wrap(err, "coordinator: planning")
	}

	inputKeys, err := store.ListKeys(ctx, cfg.InputPrefix+"/")
	if err != nil {
		return Summary{}, errors.Wrap(err, "coordinator: listing input keys")
	}
	sort.Strings(inputKeys)

	var (
		currentTasks           []task
		considerLastByteSorted bool
	)

	if numPasses == 0 {
		// Open question resolved (§9, SPEC_FULL.md): with zero radix
		// passes no byte has actually been pinned to a category, so this
		// degenerates to a single plain in-memory sort of the original
		// inputs. Group them to respect the worker memory budget the
		// same way a terminal category would be, rather than the
		// original's incidental "one sorter task per input object".
		parts := ceilDiv(inputSize, cfg.bufferSize())
		for _, sub := range arraySplit(inputKeys, parts) {
			if len(sub) == 0 {
				continue
			}
			currentTasks = append(currentTasks, task{keysList: sub, stack: category.Stack{}})
		}
		considerLastByteSorted = true
	} else {
		for _, key := range inputKeys {
			currentTasks = append(currentTasks, task{
				keysList: []string{key},
				prefix:   cfg.InputPrefix + "-intermediate0",
				stack:    category.Stack{},
			})
		}

		for p := 0; p < numPasses; p++ {
			v := 1
			if p == numPasses-1 {
				v = lastValuesPerCategory
			}

			results, err := runPass(ctx, store, cfg, currentTasks, v)
			if err != nil {
				return Summary{}, errors.Wrapf(err, "coordinator: pass %d", p)
			}

			groups := regroup(results)
			currentTasks = repartition(groups, inputSize, v, p, cfg.InputPrefix, cfg.bufferSize())
		}

		considerLastByteSorted = lastValuesPerCategory == 1
	}

	for i := range currentTasks {
		currentTasks[i].prefix = cfg.OutputPrefix
	}
	sort.SliceStable(currentTasks, func(i, j int) bool {
		return currentTasks[i].stack.Less(currentTasks[j].stack)
	})

	sortTasks := make([]catsort.Task, len(currentTasks))
	for i, t := range currentTasks {
		sortTasks[i] = catsort.Task{
			KeysList:               t.keysList,
			Prefix:                 cfg.OutputPrefix,
			CategoryStackLen:       len(t.stack),
			ConsiderLastByteSorted: considerLastByteSorted,
			ID:                     i,
		}
	}

	_, err = taskrunner.Run(ctx, sortTasks, cfg.MaxParallelism, func(ctx context.Context, t catsort.Task) (struct{}, error) {
		return struct{}{}, catsort.Run(ctx, catsort.Env{Store: store}, t)
	})
	if err != nil {
		return Summary{}, errors.Wrap(err, "coordinator: category sort pass")
	}

	outputInfos, err := store.ListObjects(ctx, cfg.OutputPrefix+"/")
	if err != nil {
		return Summary{}, errors.Wrap(err, "coordinator: listing outputs")
	}
	var outputSize int64
	for _, info := range outputInfos {
		outputSize += info.Size
	}
	if outputSize != inputSize {
		return Summary{}, errors.Wrapf(ErrSizeMismatch, "input=%d output=%d", inputSize, outputSize)
	}

	return Summary{
		InputSize:             inputSize,
		OutputSize:            outputSize,
		NumPasses:             numPasses,
		LastValuesPerCategory: lastValuesPerCategory,
		NumOutputs:            len(sortTasks),
	}, nil
}

func runPass(ctx context.Context, store objstore.Store, cfg Config, tasks []task, v int) ([]partition.Result, error) {
	env := partition.Env{Store: store, BufferSize: int(cfg.bufferSize())}

	partitionTasks := make([]partition.Task, len(tasks))
	for i, t := range tasks {
		partitionTasks[i] = partition.Task{
			KeysList:          t.keysList,
			Prefix:            t.prefix,
			Stack:             t.stack,
			ValuesPerCategory: v,
			WorkerID:          uuid.NewString(),
		}
	}

	return taskrunner.Run(ctx, partitionTasks, cfg.MaxParallelism, func(ctx context.Context, pt partition.Task) (partition.Result, error) {
		return partition.Run(ctx, env, pt)
	})
}

// regroup builds one entry per distinct category stack seen across every
// task's outputs, aggregating object keys in task order.
func regroup(results []partition.Result) []categoryGroup {
	index := map[string]*categoryGroup{}
	var order []string

	for _, result := range results {
		for _, out := range result.Outputs {
			k := out.Stack.Key()
			g, ok := index[k]
			if !ok {
				g = &categoryGroup{stack: out.Stack}
				index[k] = g
				order = append(order, k)
			}
			g.keys = append(g.keys, out.Keys...)
		}
	}

	sort.Strings(order)
	groups := make([]categoryGroup, len(order))
	for i, k := range order {
		groups[i] = *index[k]
	}
	return groups
}

type categoryGroup struct {
	stack category.Stack
	keys  []string
}

// repartition estimates each category's size and splits its key list into
// enough next-pass tasks to keep each one within the worker memory budget
// (§4.6 step 4), exactly reproducing the original's averaging estimate.
func repartition(groups []categoryGroup, inputSize int64, v int, pass int, inputPrefix string, bufferSize int64) []task {
	eachCategorySize := float64(inputSize) / (float64(record.MaxCategories/v) * float64(pass+1))
	partsPerCategory := int(math.Ceil(eachCategorySize / float64(bufferSize)))
	if partsPerCategory < 1 {
		partsPerCategory = 1
	}

	nextPrefix := fmt.Sprintf("%s-intermediate%d", inputPrefix, pass+1)

	var out []task
	for _, g := range groups {
		for _, sub := range arraySplit(g.keys, partsPerCategory) {
			if len(sub) == 0 {
				continue
			}
			out = append(out, task{keysList: sub, prefix: nextPrefix, stack: g.stack})
		}
	}
	return out
}

func ceilDiv(a, b int64) int {
	if a <= 0 {
		return 1
	}
	return int((a + b - 1) / b)
}
