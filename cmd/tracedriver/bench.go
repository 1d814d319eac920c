package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/QuangTung97/memalloc/allocator"
)

var (
	benchRepeat int
)

func init() {
	cmd := newBenchCmd()
	cmd.Flags().Uint32Var(&runInitialChunk, "initial-chunk", 4096, "bytes requested on the first region extension")
	cmd.Flags().Uint32Var(&runMaxRegion, "max-region", 1<<26, "largest the region may grow to, in bytes")
	cmd.Flags().StringVar(&runFitPolicy, "fit", "best", "placement policy: best or first")
	cmd.Flags().StringVar(&runInsertPolicy, "insert", "lifo", "free-list insertion policy: lifo or address-ordered")
	cmd.Flags().IntVar(&benchRepeat, "repeat", 10, "number of times to replay the trace")
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bench <trace-file>",
		Short: "Replay a trace file repeatedly and report throughput",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(args[0])
		},
	}
}

func runBench(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()

	ops, err := parseTrace(f)
	if err != nil {
		return fmt.Errorf("parse trace: %w", err)
	}

	cfg, err := configFromFlags()
	if err != nil {
		return err
	}

	var totalOps int
	var peakUtilization float64
	start := time.Now()
	for i := 0; i < benchRepeat; i++ {
		a, err := allocator.New(cfg)
		if err != nil {
			return fmt.Errorf("new allocator: %w", err)
		}
		live := map[int]allocator.Ptr{}
		shadow := map[int][]byte{}
		for _, o := range ops {
			if err := replay(a, live, shadow, o); err != nil {
				return fmt.Errorf("run %d, line %d: %w", i, o.line, err)
			}
			// Sampling stats costs a full heap walk; only pay it on the
			// first run so the remaining runs measure raw throughput.
			if i == 0 {
				st := a.Stats()
				if st.TotalSize > 0 {
					if u := float64(st.AllocatedSize) / float64(st.TotalSize); u > peakUtilization {
						peakUtilization = u
					}
				}
			}
		}
		totalOps += len(ops)
	}
	elapsed := time.Since(start)

	fmt.Printf("replayed %d ops across %d runs in %s (%.0f ops/sec), peak utilization %.1f%%\n",
		totalOps, benchRepeat, elapsed, float64(totalOps)/elapsed.Seconds(), peakUtilization*100)
	return nil
}
