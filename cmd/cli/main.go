package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"psycdata/adapters/api"
	"psycdata/adapters/storage"
	"psycdata/app"
	"psycdata/domain/analysis"
	"psycdata/domain/history"
	"psycdata/domain/table"
	"psycdata/internal/codec"
	"psycdata/internal/container"
	"psycdata/internal/export"
	"psycdata/internal/result"
	"psycdata/internal/testkit"
	"psycdata/ports"

	"github.com/spf13/cobra"
)

var backendURL string

func main() {
	rootCmd := &cobra.Command{
		Use:   "psycdata-cli",
		Short: "Headless access to sheets and analyses",
	}
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", os.Getenv("BACKEND_URL"), "Remote backend URL (default: in-process)")

	rootCmd.AddCommand(
		newSheetsCmd(),
		newPreviewCmd(),
		newRunCmd(),
		newURLCmd(),
		newDemoCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func backend() ports.Backend {
	if backendURL != "" {
		return api.NewClient(backendURL, &http.Client{Timeout: 2 * time.Minute})
	}
	return container.NewLocalBackend(0)
}

func newSheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets <path>",
		Short: "List the sheets of a workbook in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheets, err := backend().ListSheets(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, s := range sheets {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}

func newPreviewCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "preview <path> <sheet>",
		Short: "Print the first rows of a sheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := backend().ParseExcel(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if limit > 0 && len(t.Rows) > limit {
				t.Rows = t.Rows[:limit]
			}
			return printTable(cmd.OutOrStdout(), t)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to print (0 prints all)")
	return cmd
}

// requestFlags describe an analysis request either directly or through a
// result window URL
type requestFlags struct {
	resultURL string
	payload   codec.Payload
	vars      string
	methods   string
	factors   int
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.resultURL, "url", "", "Result window URL to decode instead of the flags below")
	cmd.Flags().StringVar(&f.payload.Path, "path", "", "Workbook path")
	cmd.Flags().StringVar(&f.payload.Sheet, "sheet", "", "Sheet name")
	cmd.Flags().StringVar(&f.payload.Analysis, "analysis", "", "descriptive, correlation, reliability or factor")
	cmd.Flags().StringVar(&f.vars, "vars", "", "Comma-separated variables")
	cmd.Flags().StringVar(&f.payload.Sort, "sort", "", "Descriptive order: default, mean_asc, mean_desc")
	cmd.Flags().StringVar(&f.payload.Model, "model", "", "Reliability model: alpha or omega")
	cmd.Flags().StringVar(&f.methods, "methods", "", "Comma-separated correlation methods")
	cmd.Flags().StringVar(&f.payload.Tail, "tail", "", "Correlation tailedness")
	cmd.Flags().StringVar(&f.payload.Extraction, "extraction", "", "Factor extraction")
	cmd.Flags().StringVar(&f.payload.Rotation, "rotation", "", "Factor rotation")
	cmd.Flags().StringVar(&f.payload.Criterion, "criterion", "", "Factor retention criterion")
	cmd.Flags().IntVar(&f.factors, "factors", 0, "Fixed number of factors")
}

func (f *requestFlags) request() (analysis.Request, error) {
	if f.resultURL != "" {
		u, err := url.Parse(f.resultURL)
		if err != nil {
			return analysis.Request{}, fmt.Errorf("invalid result URL: %w", err)
		}
		return codec.DecodeQuery(u.RawQuery), nil
	}

	p := f.payload
	p.Variables = splitList(f.vars)
	p.Methods = splitList(f.methods)
	if f.factors > 0 {
		p.Factors = analysis.IntPtr(f.factors)
	}
	return codec.DecodePayload(p), nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func newRunCmd() *cobra.Command {
	var (
		flags  requestFlags
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an analysis and print or save the result",
		Example: `  psycdata-cli run --path survey.xlsx --sheet Responses --analysis descriptive --vars q1,q2 --sort mean_desc
  psycdata-cli run --url "http://localhost:8080/w/result?path=survey.xlsx&sheet=Responses&analysis=reliability&vars=q1,q2,q3" --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			if !req.HasSource() {
				return fmt.Errorf("a path and a sheet are required")
			}
			return runAnalysis(cmd.Context(), cmd.OutOrStdout(), req, history.Format(format), out)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", "", "Output format: table, csv or json (default: table, or from --out)")
	cmd.Flags().StringVar(&out, "out", "", "Save the result to this file")
	return cmd
}

func runAnalysis(ctx context.Context, w io.Writer, req analysis.Request, format history.Format, out string) error {
	b := backend()
	t, err := result.Resolve(ctx, b, req)
	if err != nil {
		return err
	}

	var store ports.TextStore = storage.NewFileStore("")
	if client, ok := b.(*api.Client); ok {
		store = client
	}
	exports := app.NewExportService(store, nil, export.CSVOptions{})
	exportReq := app.ExportRequest{
		Path:      out,
		Format:    format,
		Analysis:  string(req.Kind),
		Sheet:     req.Sheet,
		Variables: req.Variables,
		Table:     t,
	}

	if out != "" {
		rec, err := exports.Export(ctx, exportReq)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Saved %d bytes to %s\n", rec.Bytes, rec.Path)
		return nil
	}
	if format == "" || format == "table" {
		return printTable(w, t)
	}
	content, _, err := exports.Render(exportReq)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, content)
	return err
}

func newURLCmd() *cobra.Command {
	var (
		flags requestFlags
		base  string
	)

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Encode an analysis request as a result window URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), codec.ResultURL(base, req))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&base, "base", "http://localhost:8080", "Window host base URL")
	return cmd
}

func newDemoCmd() *cobra.Command {
	var (
		respondents int
		seed        int64
	)

	cmd := &cobra.Command{
		Use:   "demo <path>",
		Short: "Write a synthetic questionnaire workbook for trying the analyses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := testkit.DefaultSurveyConfig()
			config.Respondents = respondents
			config.Seed = seed
			g := testkit.NewSurveyGenerator(config)
			if err := testkit.WriteWorkbook(args[0], testkit.SurveySheet("Responses", g)); err != nil {
				return fmt.Errorf("failed to write demo workbook: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d respondents to %s (sheet Responses)\n", respondents, args[0])
			return nil
		},
	}

	cmd.Flags().IntVar(&respondents, "respondents", 120, "Number of respondents")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	return cmd
}

func printTable(w io.Writer, t table.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.DisplayHeaders(), "\t"))
	for _, row := range t.DisplayRows() {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
