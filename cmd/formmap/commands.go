package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"formmap/internal/engine"
)

func (a *app) transformCmd() *cobra.Command {
	var (
		flags  engineFlags
		input  string
		pretty bool
	)

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Transform one source document",
		Long: "Transform one source document. The target document is written to stdout\n" +
			"and every error to stderr, one per line.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, ok := a.loadEngine(cmd, &flags)
			if !ok {
				return nil
			}

			data, err := a.readInput(input)
			if err != nil {
				a.fail(err)
				return nil
			}

			res := e.TransformJSON(data)

			if res.Document != nil {
				out, err := render(res.Document, pretty)
				if err != nil {
					return fmt.Errorf("render document: %w", err)
				}

				fmt.Fprintln(a.stdout, string(out))
			}

			a.printDiagnostics("", res.Errors)
			a.printDiagnostics("", res.Warnings)
			a.setCode(res.ExitCode())

			a.log.Info().
				Str("map", e.Name()).
				Str("input", input).
				Stringer("state", res.State).
				Int("errors", len(res.Errors)).
				Msg("transform finished")

			return nil
		},
	}

	flags.register(cmd, true, false)
	cmd.Flags().StringVar(&input, "input", "", "source document (JSON), - for stdin")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the target document")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// batchLine is one stdout record of the batch command.
type batchLine struct {
	Input    string         `json:"input"`
	ExitCode int            `json:"exitCode"`
	Result   *engine.Result `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func (a *app) batchCmd() *cobra.Command {
	var (
		flags  engineFlags
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "batch <input>...",
		Short: "Transform many source documents concurrently",
		Long: "Transform many source documents concurrently. Each result is written as\n" +
			"<name>.out.json under --out-dir, or as one JSON line on stdout.\n" +
			"The exit code is the highest of any input.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, ok := a.loadEngine(cmd, &flags)
			if !ok {
				return nil
			}

			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
			}

			inputs := make([]engine.Input, 0, len(args))

			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					a.setCode(engine.ExitFatal)
					fmt.Fprintf(a.stderr, "%s: %v\n", path, err)

					if outDir == "" {
						if err := a.writeLine(batchLine{Input: path, ExitCode: engine.ExitFatal, Error: err.Error()}); err != nil {
							return err
						}
					}

					continue
				}

				inputs = append(inputs, engine.Input{Name: path, Data: data})
			}

			outputs, batchErr := e.TransformBatch(cmd.Context(), inputs)

			for _, o := range outputs {
				if o.Result == nil {
					a.setCode(engine.ExitFatal)
					fmt.Fprintf(a.stderr, "%s: skipped\n", o.Name)

					continue
				}

				a.printDiagnostics(o.Name+": ", o.Result.Errors)
				a.setCode(o.Result.ExitCode())

				if err := a.writeOutput(outDir, o); err != nil {
					return err
				}
			}

			a.log.Info().
				Str("map", e.Name()).
				Int("inputs", len(args)).
				Int("exit_code", a.code).
				Msg("batch finished")

			if batchErr != nil {
				return fmt.Errorf("batch interrupted: %w", batchErr)
			}

			return nil
		},
	}

	flags.register(cmd, true, true)
	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory for per-input results (default: JSON lines on stdout)")

	return cmd
}

func (a *app) writeOutput(outDir string, o engine.Output) error {
	if outDir == "" {
		return a.writeLine(batchLine{Input: o.Name, ExitCode: o.Result.ExitCode(), Result: o.Result})
	}

	out, err := render(o.Result, true)
	if err != nil {
		return fmt.Errorf("render %s: %w", o.Name, err)
	}

	path := filepath.Join(outDir, outputName(o.Name))
	if err := os.WriteFile(path, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

func (a *app) writeLine(line batchLine) error {
	out, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("render %s: %w", line.Input, err)
	}

	fmt.Fprintln(a.stdout, string(out))

	return nil
}

// outputName maps "dir/scenario-a.json" to "scenario-a.out.json".
func outputName(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".out.json"
}

func (a *app) checkCmd() *cobra.Command {
	var flags engineFlags

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a map document without transforming anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, ok := a.loadEngine(cmd, &flags)
			if !ok {
				return nil
			}

			a.printDiagnostics("", e.Warnings())

			p := e.Plan()
			fmt.Fprintf(a.stdout, "%s: ok (%d fields, %d constants, %d linkids, %d assertions)\n",
				p.Name, len(p.Fields), len(p.Constants), len(p.Layout), len(p.Assertions))

			return nil
		},
	}

	flags.register(cmd, false, false)

	return cmd
}

func (a *app) inspectCmd() *cobra.Command {
	var flags engineFlags

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Dump the compiled plan of a map document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, ok := a.loadEngine(cmd, &flags)
			if !ok {
				return nil
			}

			dumper := spew.ConfigState{
				Indent:                  "  ",
				DisablePointerAddresses: true,
				DisableCapacities:       true,
				SortKeys:                true,
			}
			dumper.Fdump(a.stdout, e.Plan())

			return nil
		},
	}

	flags.register(cmd, true, false)

	return cmd
}

// readInput reads a file, or stdin for "-".
func (a *app) readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	return data, nil
}

func render(v any, pretty bool) ([]byte, error) {
	out, err := json.Marshal(v)
	if err != nil || !pretty {
		return out, err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, out, "", "  "); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
