// Command sortctl drives one distributed sort job against a local
// filesystem standing in for an object store (§1 treats a real cloud bucket
// client as an external collaborator this repo does not implement).
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sacheendra/serverless-sort/config"
	"github.com/sacheendra/serverless-sort/coordinator"
	"github.com/sacheendra/serverless-sort/objstore/fsstore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	tunables := config.Defaults()
	var bucket string

	cmd := &cobra.Command{
		Use:   "sortctl",
		Short: "Sort fixed-width records held in an object store via distributed radix sort",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), bucket, tunables)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&bucket, "bucket", "./sortctl-data", "local directory standing in for the object store bucket")
	flags.StringVar(&tunables.InputPrefix, "input-prefix", tunables.InputPrefix, "key prefix holding input objects")
	flags.StringVar(&tunables.OutputPrefix, "output-prefix", tunables.OutputPrefix, "key prefix to write sorted output objects under")
	flags.IntVar(&tunables.MaxParallelism, "max-parallelism", tunables.MaxParallelism, "maximum number of concurrent worker invocations per pass")
	flags.StringVar(&tunables.WorkerImage, "image", tunables.WorkerImage, "worker image identifier, carried for parity with a FaaS-backed task runner")

	return cmd
}

func run(ctx context.Context, bucket string, tunables config.Tunables) error {
	store, err := fsstore.New(bucket)
	if err != nil {
		return err
	}

	summary, err := coordinator.Run(ctx, store, toCoordinatorConfig(tunables))
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Done! input=%d bytes output=%d bytes passes=%d outputs=%d\n",
		summary.InputSize, summary.OutputSize, summary.NumPasses, summary.NumOutputs)
	return nil
}

// toCoordinatorConfig adapts config.Tunables into coordinator's own Config
// type. The adaptation lives here, not in package config, so config stays
// free of a coordinator dependency for entrypoints that don't need one.
func toCoordinatorConfig(t config.Tunables) coordinator.Config {
	return coordinator.Config{
		InputPrefix:    t.InputPrefix,
		OutputPrefix:   t.OutputPrefix,
		MaxParallelism: t.MaxParallelism,
		WorkerImage:    t.WorkerImage,
		BufferSize:     t.BufferSize,
	}
}
