package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/koustreak/datame/internal/errs"
	"github.com/koustreak/datame/internal/output"
	"github.com/koustreak/datame/internal/parser"
	"github.com/koustreak/datame/internal/pipeline"
	"github.com/koustreak/datame/internal/writer"
)

type generateOptions struct {
	schemaPath string
	format     string
	records    int
	workers    int
	batchSize  int
	pretty     bool
	noHeader   bool
	compress   string
}

// NewRootCmd creates the root command. Run without a subcommand, it
// generates data.
func NewRootCmd(env Env) *cobra.Command {
	global := &globalOptions{}
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "datame [flags] OUTPUT",
		Short: "Generate synthetic data from a table schema",
		Long: fmt.Sprintf(`Generate synthetic records from a schema definition such as

  table sales(total float, agents list(string), team record(name string,),);

and write them to OUTPUT: a file path, "-" for stdout, s3://bucket/key, or
a connection string for database formats. Database formats accept "-" to use
the DSN from the config file.

Available formats: %s`, strings.Join(writer.FormatNames(), ", ")),
		Example: `  # Ten JSON lines on stdout
  datame -s sales.tbl -f json -

  # A thousand CSV rows into a file, four synthesis workers
  datame -s sales.tbl -f csv -r 1000 -w 4 sales.csv

  # Load into PostgreSQL
  datame -s sales.tbl -f postgres -r 5000 postgres://localhost/app

  # Compressed upload to an object store
  datame -s sales.tbl -f json --compress lz4 s3://exports/sales.json.lz4`,
		Args:          outputArg,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, env, global, opts, args)
		},
	}

	cmd.PersistentFlags().StringVar(&global.configPath, "config", "", "Config file (default ./datame.yaml when present)")
	cmd.PersistentFlags().CountVarP(&global.verbose, "verbose", "v", "Increase log verbosity (-v info, -vv debug, -vvv trace)")

	cmd.Flags().StringVarP(&opts.schemaPath, "schema", "s", "", `Schema definition file, "-" for stdin`)
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", fmt.Sprintf("Output format (%s)", strings.Join(writer.FormatNames(), ", ")))
	cmd.Flags().IntVarP(&opts.records, "records", "r", 10, "Number of records to generate")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 1, "Parallel synthesis workers")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 500, "Rows per insert batch for database formats")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent JSON output")
	cmd.Flags().BoolVar(&opts.noHeader, "no-header", false, "Omit the CSV header row")
	cmd.Flags().StringVar(&opts.compress, "compress", "", "Compress streamed output (lz4)")

	registerValidateCmd(cmd, env, global)
	registerServeCmd(cmd, env, global)

	return cmd
}

func runGenerate(cmd *cobra.Command, env Env, global *globalOptions, opts *generateOptions, args []string) error {
	cfg, err := global.loadConfig(env)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("records") {
		cfg.Records = opts.records
	}
	if flags.Changed("format") {
		cfg.Format = opts.format
	}
	if flags.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = opts.batchSize
	}
	if flags.Changed("pretty") {
		cfg.Pretty = opts.pretty
	}
	if flags.Changed("no-header") {
		cfg.Header = !opts.noHeader
	}
	if flags.Changed("compress") {
		cfg.Compress = opts.compress
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if opts.schemaPath == "" {
		return errs.New(errs.ErrKindInvalidInput, "a schema is required (-s/--schema)")
	}
	if cfg.Format == "" {
		return errs.New(errs.ErrKindInvalidInput, "an output format is required (-f/--format)")
	}
	format, err := writer.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	log := global.newLogger(cfg, env)

	src, err := readSchema(opts.schemaPath, env.Stdin)
	if err != nil {
		return err
	}
	tbl, err := parser.New(log).ParseTable(src)
	if err != nil {
		return err
	}

	dest := args[0]
	log = log.With().Str("table", tbl.Name).Str("format", format.String()).Logger()

	target, err := output.Resolve(output.Request{
		Format: format,
		Dest:   dest,
		Table:  tbl.Name,
		Schema: tbl.Schema,
		Config: cfg,
		Log:    log,
		Stdout: env.Stdout,
	})
	if err != nil {
		return err
	}

	stats, err := pipeline.Run(cmd.Context(), tbl.Schema, target, pipeline.Options{
		Records: cfg.Records,
		Workers: cfg.Workers,
		Log:     log,
	})
	if err != nil {
		return err
	}
	log.With().Int("records", stats.Written).Any("duration", stats.Duration).Logger().Info("done")
	return nil
}

// outputArg requires exactly one OUTPUT argument.
func outputArg(_ *cobra.Command, args []string) error {
	switch {
	case len(args) == 0:
		return errs.New(errs.ErrKindInvalidInput, `an OUTPUT argument is required ("-" for stdout)`)
	case len(args) > 1:
		return errs.Newf(errs.ErrKindInvalidInput, "expected one OUTPUT argument, got %d", len(args))
	}
	return nil
}

func readSchema(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", errs.Wrap(errs.ErrKindIO, "read schema "+path, err)
	}
	return string(data), nil
}
