// Command ecsim explores the implementation-configuration space from
// the command line: listing models, curves and formulas, and running
// traced operations under a chosen configuration.
package main

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smallyu/go-ecc-sim/internal/crypto/efd"
	"github.com/smallyu/go-ecc-sim/internal/crypto/params"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
	"github.com/smallyu/go-ecc-sim/pkg/simulator"
)

var (
	flagVerbose bool

	flagCurve    string
	flagCoords   string
	flagBackend  string
	flagFormulas []string
	flagMult     string
	flagWidth    int
	flagDir      string
	flagAlways   bool
	flagComplete bool
	flagCM       string
	flagScale    bool
	flagSeed     uint64
	flagPrivate  string
	flagDigest   string
	flagTrace    bool
)

func main() {
	root := &cobra.Command{
		Use:          "ecsim",
		Short:        "Elliptic curve implementation configuration simulator",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagVerbose {
				logger, err := zap.NewDevelopment()
				if err == nil {
					efd.SetLogger(logger)
					params.SetLogger(logger)
				}
			}
		},
	}
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log database loading")

	root.AddCommand(listModelsCmd(), listCurvesCmd(), listFormulasCmd(), runCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func listModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List curve models and their coordinate systems",
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := efd.Models()
			if err != nil {
				return err
			}
			for _, m := range models {
				var coords []string
				for name := range m.Coordinates {
					coords = append(coords, name)
				}
				sort.Strings(coords)
				fmt.Printf("%-10s %s\n", m.ShortName, m.Name)
				for _, c := range coords {
					fmt.Printf("           %s\n", c)
				}
			}
			return nil
		},
	}
}

func listCurvesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "curves",
		Short: "List curves in the parameter database",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := params.Names()
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		},
	}
}

func listFormulasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formulas <model> <coords>",
		Short: "List formulas of a coordinate system with their costs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coords, err := efd.GetCoords(args[0], args[1])
			if err != nil {
				return err
			}
			fs, err := efd.Formulas(coords)
			if err != nil {
				return err
			}
			var names []string
			for n := range fs {
				names = append(names, n)
			}
			sort.Strings(names)
			for _, n := range names {
				f := fs[n]
				tag := ""
				if f.Opaque {
					tag = " (opaque)"
				}
				fmt.Printf("%-6s %-20s %s%s\n", f.Kind, f.Name, f.Cost(), tag)
			}
			return nil
		},
	}
	return cmd
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <keygen|ecdh|sign|verify>",
		Short: "Run one traced operation under a configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := simulator.New(simulator.Spec{
				Curve:    flagCurve,
				Coords:   flagCoords,
				Backend:  flagBackend,
				Formulas: flagFormulas,
				Multiplier: simulator.MultiplierSpec{
					Algorithm: flagMult,
					Width:     flagWidth,
					Direction: flagDir,
					Always:    flagAlways,
					Complete:  flagComplete,
				},
				Countermeasure: flagCM,
				Scale:          flagScale,
			})
			if err != nil {
				return err
			}
			rng := ecsim.NewDRBGUint64(flagSeed)
			in := simulator.Inputs{}
			if flagPrivate != "" {
				p, ok := new(big.Int).SetString(flagPrivate, 0)
				if !ok {
					return fmt.Errorf("malformed private scalar %q", flagPrivate)
				}
				in.Private = p
			}
			if flagDigest != "" {
				d, err := hex.DecodeString(flagDigest)
				if err != nil {
					return fmt.Errorf("malformed digest: %w", err)
				}
				in.Digest = d
			}
			res, trace, err := cfg.Simulate(simulator.Operation(args[0]), in, rng)
			if err != nil {
				return err
			}
			printResult(res)
			fmt.Printf("trace: %d formula applications\n", trace.Len())
			if flagTrace {
				out, err := trace.Export()
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&flagCurve, "curve", "secp256r1", "curve name")
	fl.StringVar(&flagCoords, "coords", "jacobian", "coordinate system")
	fl.StringVar(&flagBackend, "backend", "big", "field backend")
	fl.StringSliceVar(&flagFormulas, "formula", nil, "formula names to pin")
	fl.StringVar(&flagMult, "mult", "double-and-add", "multiplier algorithm")
	fl.IntVar(&flagWidth, "width", 4, "window/comb width")
	fl.StringVar(&flagDir, "direction", "ltr", "scalar traversal direction")
	fl.BoolVar(&flagAlways, "always", false, "dummy additions on zero bits")
	fl.BoolVar(&flagComplete, "complete", false, "walk the full order width")
	fl.StringVar(&flagCM, "countermeasure", "", "scalar splitting countermeasure")
	fl.BoolVar(&flagScale, "scale", false, "normalize results with a scaling formula")
	fl.Uint64Var(&flagSeed, "seed", 1, "deterministic randomness seed")
	fl.StringVar(&flagPrivate, "private", "", "private scalar (ecdh, sign)")
	fl.StringVar(&flagDigest, "digest", "", "message digest, hex (sign)")
	fl.BoolVar(&flagTrace, "trace", false, "dump the full trace as JSON")
	return cmd
}

func printResult(r *simulator.Result) {
	if r.Private != nil {
		fmt.Printf("private: %s\n", r.Private.Text(16))
	}
	if len(r.Public) > 0 {
		fmt.Printf("public: %s\n", hex.EncodeToString(r.Public))
	}
	if len(r.SharedSecret) > 0 {
		fmt.Printf("shared: %s\n", hex.EncodeToString(r.SharedSecret))
	}
	if len(r.Signature) > 0 {
		fmt.Printf("signature: %s\n", hex.EncodeToString(r.Signature))
	}
}
