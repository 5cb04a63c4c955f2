package cmd

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/simscore/internal/api"
	"github.com/Aman-CERP/simscore/internal/document"
	"github.com/Aman-CERP/simscore/internal/similarity"
	"github.com/Aman-CERP/simscore/internal/ui"
)

type compareOptions struct {
	method     string
	files      bool
	jsonOutput bool
	plain      bool
	noColor    bool
}

func newCompareCmd() *cobra.Command {
	var opts compareOptions

	cmd := &cobra.Command{
		Use:   "compare TEXT1 TEXT2",
		Short: "Compare two texts",
		Long: `Compare two texts and print the similarity score.

With --file the arguments are paths; .txt, .md, .pdf and .docx files are
supported. Both texts are lowercased and whitespace-normalized before
scoring.`,
		Example: `  # Lexical (TF-IDF) similarity
  simscore compare "The cat sat on the mat" "A cat was sitting on a mat"

  # Semantic similarity of two documents
  simscore compare --method semantic --file a.pdf b.docx

  # Machine-readable output
  simscore compare --json "hello world" "hello there"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd.Context(), cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.method, "method", "m", string(similarity.MethodLexical), "Comparison method: lexical or semantic")
	cmd.Flags().BoolVar(&opts.files, "file", false, "Treat arguments as file paths")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Plain text output")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", ui.DetectNoColor(), "Disable colored output")

	return cmd
}

func runCompare(ctx context.Context, cmd *cobra.Command, arg1, arg2 string, opts compareOptions) error {
	// Reject a bad method before any file is read
	if _, err := similarity.ParseMethod(opts.method); err != nil {
		return err
	}

	cfg := currentConfig()

	text1, text2 := arg1, arg2
	if opts.files {
		maxBytes := int64(cfg.Server.MaxUploadMB) << 20
		var err error
		if text1, err = document.ExtractFile(arg1, maxBytes); err != nil {
			return err
		}
		if text2, err = document.ExtractFile(arg2, maxBytes); err != nil {
			return err
		}
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	start := time.Now()
	result, err := a.svc.CompareString(ctx, document.Clean(text1), document.Clean(text2), opts.method)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(api.NewCompareResponse(result))
	}

	printer := ui.NewPrinter(ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(opts.plain),
		ui.WithNoColor(opts.noColor)))
	printer.PrintResult(ui.ResultView{
		Text1:      text1,
		Text2:      text2,
		Score:      result.Score,
		Method:     result.Method,
		Percentage: result.Percentage(),
		Duration:   time.Since(start),
	})
	return nil
}
