// Package config holds the tunables a sort job needs, independent of how
// they were gathered (flags, environment, or a caller constructing a
// coordinator.Config directly in-process) and independent of coordinator
// itself, so a future non-CLI entrypoint can depend on this package alone.
package config

// Defaults mirror the original CLI's out-of-the-box behavior.
const (
	DefaultInputPrefix    = "input"
	DefaultOutputPrefix   = "output"
	DefaultMaxParallelism = 16
	DefaultWorkerImage    = "serverless-sort-worker"
)

// Tunables is the flat set of job parameters a CLI or other entrypoint
// collects before handing off to coordinator.Run.
type Tunables struct {
	InputPrefix    string
	OutputPrefix   string
	MaxParallelism int
	WorkerImage    string
	BufferSize     int64
}

// Defaults returns a Tunables populated with the package defaults.
func Defaults() Tunables {
	return Tunables{
		InputPrefix:    DefaultInputPrefix,
		OutputPrefix:   DefaultOutputPrefix,
		MaxParallelism: DefaultMaxParallelism,
		WorkerImage:    DefaultWorkerImage,
	}
}
