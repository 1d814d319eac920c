package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/QuangTung97/memalloc/allocator"
)

var (
	runCheck        bool
	runInitialChunk uint32
	runMaxRegion    uint32
	runFitPolicy    string
	runInsertPolicy string
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().BoolVar(&runCheck, "check", false, "run the invariant checker after every trace line")
	cmd.Flags().Uint32Var(&runInitialChunk, "initial-chunk", 4096, "bytes requested on the first region extension")
	cmd.Flags().Uint32Var(&runMaxRegion, "max-region", 1<<26, "largest the region may grow to, in bytes")
	cmd.Flags().StringVar(&runFitPolicy, "fit", "best", "placement policy: best or first")
	cmd.Flags().StringVar(&runInsertPolicy, "insert", "lifo", "free-list insertion policy: lifo or address-ordered")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <trace-file>",
		Short: "Replay a trace file once, verifying payload contents against a shadow buffer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(args[0])
		},
	}
}

func configFromFlags() (allocator.Config, error) {
	cfg := allocator.DefaultConfig()
	cfg.InitialChunk = runInitialChunk
	cfg.MaxRegionSize = runMaxRegion

	switch runFitPolicy {
	case "best":
		cfg.FitPolicy = allocator.FitBest
	case "first":
		cfg.FitPolicy = allocator.FitFirst
	default:
		return cfg, fmt.Errorf("unknown --fit %q: want best or first", runFitPolicy)
	}

	switch runInsertPolicy {
	case "lifo":
		cfg.InsertPolicy = allocator.InsertLIFO
	case "address-ordered":
		cfg.InsertPolicy = allocator.InsertAddressOrdered
	default:
		return cfg, fmt.Errorf("unknown --insert %q: want lifo or address-ordered", runInsertPolicy)
	}

	return cfg, nil
}

func runRun(path string) error {
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

	a, err := allocator.New(cfg)
	if err != nil {
		return fmt.Errorf("new allocator: %w", err)
	}

	live := map[int]allocator.Ptr{}
	shadow := map[int][]byte{}
	passed := 0
	for _, o := range ops {
		printVerbose("%d: %c %d %d\n", o.line, o.kind, o.id, o.size)
		if err := replay(a, live, shadow, o); err != nil {
			return fmt.Errorf("line %d: %w", o.line, err)
		}
		passed++
		if runCheck {
			if diags := a.Check(o.line); len(diags) > 0 {
				for _, d := range diags {
					fmt.Fprintln(os.Stderr, d.String())
				}
				return fmt.Errorf("invariant violated at line %d", o.line)
			}
		}
	}

	for id, p := range live {
		if err := verifyShadow(a, p, shadow[id]); err != nil {
			return fmt.Errorf("final verification of id %d: %w", id, err)
		}
	}

	fmt.Printf("passed %d/%d operations\n", passed, len(ops))
	fmt.Println(a.Stats().String())
	return nil
}

// pattern deterministically fills n bytes for id so shadow verification can
// detect both lost writes and cross-talk between blocks sharing a region.
func pattern(id int, n uint32) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte((id*131 + i) & 0xFF)
	}
	return buf
}

func verifyShadow(a *allocator.Allocator, p allocator.Ptr, want []byte) error {
	got := a.ToBytes(p, uint32(len(want)))
	if !bytes.Equal(got, want) {
		return fmt.Errorf("payload mismatch: want %x, got %x", want, got)
	}
	return nil
}

func replay(a *allocator.Allocator, live map[int]allocator.Ptr, shadow map[int][]byte, o op) error {
	switch o.kind {
	case opAllocate:
		p, ok := a.Allocate(o.size)
		if !ok {
			return fmt.Errorf("allocate(%d) failed: region exhausted", o.size)
		}
		want := pattern(o.id, o.size)
		copy(a.ToBytes(p, o.size), want)
		live[o.id] = p
		shadow[o.id] = want

	case opFree:
		p, found := live[o.id]
		if !found {
			return fmt.Errorf("free of unknown id %d", o.id)
		}
		if err := verifyShadow(a, p, shadow[o.id]); err != nil {
			return fmt.Errorf("before free of id %d: %w", o.id, err)
		}
		a.Release(p)
		delete(live, o.id)
		delete(shadow, o.id)

	case opResize:
		p, found := live[o.id]
		if !found {
			return fmt.Errorf("resize of unknown id %d", o.id)
		}
		old := shadow[o.id]
		if err := verifyShadow(a, p, old); err != nil {
			return fmt.Errorf("before resize of id %d: %w", o.id, err)
		}

		newP, ok := a.Resize(p, o.size)
		if !ok {
			return fmt.Errorf("resize(%d) failed: region exhausted", o.size)
		}

		want := pattern(o.id, o.size)
		kept := uint32(len(old))
		if o.size < kept {
			kept = o.size
		}
		copy(want, old[:kept])
		copy(a.ToBytes(newP, o.size), want)
		live[o.id] = newP
		shadow[o.id] = want

	case opZeroed:
		p, ok := a.Zeroed(uint32(o.id), o.size)
		if !ok {
			return fmt.Errorf("zeroed(%d, %d) failed: region exhausted", o.id, o.size)
		}
		want := make([]byte, int(o.id)*int(o.size))
		live[o.id] = p
		shadow[o.id] = want

	default:
		return fmt.Errorf("unhandled op kind %q", o.kind)
	}
	return nil
}
