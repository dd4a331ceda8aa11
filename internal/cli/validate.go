package cli

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/koustreak/datame/internal/parser"
	"github.com/koustreak/datame/internal/synth"
	"github.com/koustreak/datame/internal/writer"
)

type validateOptions struct {
	dump bool
}

func registerValidateCmd(parent *cobra.Command, env Env, global *globalOptions) {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate SCHEMA",
		Short: "Parse a schema definition and report its shape",
		Long: `Parse a schema definition, print its canonical form and report
whether it contains nested records or lists, and which formats can hold it.
A sample record is printed as JSON.`,
		Example: `  # Check a schema file
  datame validate sales.tbl

  # Read from stdin and dump the parsed structure
  cat sales.tbl | datame validate - --dump`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, env, global, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.dump, "dump", false, "Dump the parsed schema structure")

	parent.AddCommand(cmd)
}

func runValidate(cmd *cobra.Command, env Env, global *globalOptions, opts *validateOptions, path string) error {
	cfg, err := global.loadConfig(env)
	if err != nil {
		return err
	}
	log := global.newLogger(cfg, env)

	src, err := readSchema(path, env.Stdin)
	if err != nil {
		return err
	}
	tbl, err := parser.New(log).ParseTable(src)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, tbl.Canonical())
	fmt.Fprintf(out, "fields:          %d\n", tbl.Schema.Len())
	fmt.Fprintf(out, "contains record: %t\n", tbl.Schema.ContainsRecord())
	fmt.Fprintf(out, "contains list:   %t\n", tbl.Schema.ContainsList())

	var ok []string
	for _, f := range writer.Formats() {
		if writer.Check(tbl.Schema, f) == nil {
			ok = append(ok, f.String())
		}
	}
	fmt.Fprintf(out, "formats:         %v\n", ok)

	sample, err := writer.MarshalTuple(synth.Tuple(tbl.Schema))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "sample:          %s\n", sample)

	if opts.dump {
		dumper := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
		dumper.Fdump(out, tbl)
	}
	return nil
}
