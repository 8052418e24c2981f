package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/BubDublin/solar-proforma/internal/domain"
	"github.com/BubDublin/solar-proforma/internal/incentive"
	"github.com/BubDublin/solar-proforma/internal/projectfile"
	"github.com/BubDublin/solar-proforma/internal/projection"
	"github.com/BubDublin/solar-proforma/internal/reporting"
	"github.com/BubDublin/solar-proforma/internal/storage/backend"
	"github.com/BubDublin/solar-proforma/internal/verification"
)

// app carries the flags shared by every subcommand.
type app struct {
	incentivesFile string
	now            func() time.Time
}

func newRootCmd() *cobra.Command {
	a := &app{now: func() time.Time { return time.Now().UTC() }}

	rootCmd := &cobra.Command{
		Use:          "proforma",
		Short:        "Solar project pro-forma generator",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&a.incentivesFile, "incentives-file", os.Getenv("INCENTIVES_FILE"),
		"YAML incentive tables (default: built-in)")

	rootCmd.AddCommand(a.computeCmd())
	rootCmd.AddCommand(a.exportCmd())
	rootCmd.AddCommand(a.verifyCmd())
	rootCmd.AddCommand(a.tablesCmd())
	rootCmd.AddCommand(a.initCmd())

	return rootCmd
}

func (a *app) tables() (*incentive.Tables, error) {
	if a.incentivesFile == "" {
		return incentive.Default()
	}
	return incentive.LoadFile(a.incentivesFile)
}

func (a *app) engine() (*projection.Engine, error) {
	tables, err := a.tables()
	if err != nil {
		return nil, fmt.Errorf("load incentive tables: %w", err)
	}
	return projection.NewEngine(tables), nil
}

// loadInput reads a project file; a missing install year defaults to the current year.
func (a *app) loadInput(path string) (domain.ProjectInput, error) {
	in, err := projectfile.Load(path)
	if err != nil {
		return domain.ProjectInput{}, err
	}
	if in.InstallYear == 0 {
		in.InstallYear = a.now().Year()
	}
	return in, nil
}

func (a *app) report(path string) (*reporting.Report, error) {
	engine, err := a.engine()
	if err != nil {
		return nil, err
	}
	in, err := a.loadInput(path)
	if err != nil {
		return nil, err
	}
	return reporting.NewGenerator(engine).WithClock(a.now).Generate(in)
}

func (a *app) computeCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "compute [input-file]",
		Short: "Compute the 25-year projection and print the summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.report(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, struct {
					ProFormaID string                   `json:"id"`
					Digest     string                   `json:"digest"`
					Headline   domain.Headline          `json:"headline"`
					Result     *domain.ProjectionResult `json:"result"`
				}{r.ProFormaID, r.Digest, r.Result.Headline(), r.Result})
			}
			_, err = io.WriteString(out, reporting.RenderSummaryMarkdown(r))
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export [input-file]",
		Short: "Write the workbook, cash-flow CSV and Markdown summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.report(args[0])
			if err != nil {
				return err
			}
			paths, err := reporting.WriteBundle(outDir, r)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "output", "Output directory")
	return cmd
}

func (a *app) verifyCmd() *cobra.Command {
	var (
		stored        bool
		postgresDSN   string
		clickhouseDSN string
	)

	cmd := &cobra.Command{
		Use:   "verify [input-file]",
		Short: "Check that a projection is reproducible",
		Long: "Computes the input twice and compares every field exactly. With --stored,\n" +
			"recomputes every saved pro-forma instead and compares it with the stored values.",
		Args: func(cmd *cobra.Command, args []string) error {
			if stored {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := a.engine()
			if err != nil {
				return err
			}
			if stored {
				return runVerifyStored(cmd.Context(), cmd.OutOrStdout(), engine, postgresDSN, clickhouseDSN)
			}

			in, err := a.loadInput(args[0])
			if err != nil {
				return err
			}
			result, err := verification.VerifyDeterminism(engine, in)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.Match {
				return fmt.Errorf("projection %s is not deterministic: %d divergences", result.ProFormaID, len(result.Divergences))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stored, "stored", false, "Verify every saved pro-forma")
	cmd.Flags().StringVar(&postgresDSN, "postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	cmd.Flags().StringVar(&clickhouseDSN, "clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional)")
	return cmd
}

func runVerifyStored(ctx context.Context, out io.Writer, engine *projection.Engine, postgresDSN, clickhouseDSN string) error {
	logger := log.New(os.Stderr, "[verify] ", log.LstdFlags)

	stores, cleanup, err := backend.Open(ctx, backend.Config{
		PostgresDSN:   postgresDSN,
		ClickhouseDSN: clickhouseDSN,
	}, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := verification.NewStoreVerifier(engine, stores.ProFormas, stores.CashFlows).VerifyAll(ctx)
	if err != nil {
		return err
	}
	if err := writeJSON(out, report); err != nil {
		return err
	}
	if report.Divergent > 0 {
		return fmt.Errorf("%d of %d saved pro-formas diverge", report.Divergent, report.Total)
	}
	return nil
}

func (a *app) tablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Print SREC schedules and utility rates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tables, err := a.tables()
			if err != nil {
				return err
			}
			return printTables(cmd.OutOrStdout(), tables)
		},
	}
}

func printTables(out io.Writer, tables *incentive.Tables) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "UTILITY\tNAME\tRATE ($/kWh)\tLOCATIONS")
	for _, u := range tables.Utilities() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", u.ID, u.Name, u.Rate.StringFixed(4), u.Locations)
	}
	fmt.Fprintln(w)

	for _, p := range tables.Programs() {
		fmt.Fprintf(w, "%s (%s, %s): fraction %s, multiplier %s\n",
			p.Name, p.ID, p.Location.Label(), p.MarketFraction, p.Multiplier)
		fmt.Fprintln(w, "YEAR\tACP\tSREC PRICE")
		for year := p.StartYear; year <= p.EndYear(); year++ {
			acp, _ := tables.ACP(p.ID, year)
			price, _ := tables.SRECPrice(p.ID, year)
			fmt.Fprintf(w, "%d\t%s\t%s\n", year, acp.StringFixed(2), price.StringFixed(2))
		}
		fmt.Fprintln(w)
	}

	return w.Flush()
}

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default project input file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "project.hjson"
			if len(args) == 1 {
				path = args[0]
			}
			if err := projectfile.WriteDefault(path, a.now().Year()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
