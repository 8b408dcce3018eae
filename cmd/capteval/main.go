// Package main provides the CLI entrypoint for capteval.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dysgair/capteval/internal/align"
	"github.com/dysgair/capteval/internal/batch"
	"github.com/dysgair/capteval/internal/config"
	"github.com/dysgair/capteval/internal/errstats"
	"github.com/dysgair/capteval/internal/model"
	"github.com/dysgair/capteval/internal/report"
	"github.com/dysgair/capteval/internal/reportui"
	"github.com/dysgair/capteval/internal/store"
	"github.com/dysgair/capteval/internal/textproc"
	"github.com/dysgair/capteval/internal/wordlist"
	"github.com/dysgair/capteval/internal/wordstats"
)

const (
	defaultLang        = "cy"
	defaultFormat      = "text"
	defaultBand        = errstats.DefaultBand
	defaultTopN        = errstats.DefaultTopN
	defaultThreshold   = wordstats.DefaultOverTranscriptionThreshold
	defaultCurveWindow = report.DefaultCurveWindow
	maxParallelBuilds  = 4
)

var (
	verbose bool
	dbPath  string

	analysisSystemA     string
	analysisSystemB     string
	analysisLang        string
	analysisBand        float64
	analysisTopN        int
	analysisThreshold   float64
	analysisCurveWindow int
	analysisWords       string

	analyzeFormat   string
	analyzeSections []string
	analyzeEnrich   bool

	importName string

	reportBatch    string
	reportSince    string
	reportLast     int
	reportFormat   string
	reportSections []string
	reportTUI      bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "capteval",
		Short:         "Compare two speech recognizers on pronunciation practice recordings",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			slog.SetDefault(newLogger(os.Stderr, verbose))
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug details to stderr")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "sample database path (default: $XDG_DATA_HOME/capteval/capteval.db)")

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newAlignCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newBatchesCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLangsCmd())

	return rootCmd
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&analysisSystemA, "system-a", model.DefaultNames.A, "display name of system A")
	cmd.Flags().StringVar(&analysisSystemB, "system-b", model.DefaultNames.B, "display name of system B")
	cmd.Flags().StringVar(&analysisLang, "lang", defaultLang, "language profile (see: capteval langs)")
	cmd.Flags().Float64Var(&analysisBand, "band", defaultBand, "CER difference below which systems are comparable (percentage points)")
	cmd.Flags().IntVar(&analysisTopN, "top-n", defaultTopN, "confusions kept per category")
	cmd.Flags().Float64Var(&analysisThreshold, "threshold", defaultThreshold, "WER minus CER above which a sample is over-transcribed")
	cmd.Flags().IntVar(&analysisCurveWindow, "curve-window", defaultCurveWindow, "moving average window of learning curves")
	cmd.Flags().StringVar(&analysisWords, "words", "", "only analyze samples whose target is listed in this file (one per line)")
}

// settings are the resolved analysis options and store location.
type settings struct {
	opts   report.Options
	vocab  wordlist.Set
	dbPath string
}

func resolveSettings(cmd *cobra.Command) (settings, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "lang", &analysisLang, fileCfg.Analysis.Lang)
	applyFloatConfig(cmd, "band", &analysisBand, fileCfg.Analysis.Band)
	applyIntConfig(cmd, "top-n", &analysisTopN, fileCfg.Analysis.TopN)
	applyFloatConfig(cmd, "threshold", &analysisThreshold, fileCfg.Analysis.Threshold)
	applyIntConfig(cmd, "curve-window", &analysisCurveWindow, fileCfg.Analysis.CurveWindow)

	names := fileCfg.Names()
	if cmd.Flags().Changed("system-a") {
		names.A = strings.TrimSpace(analysisSystemA)
	}
	if cmd.Flags().Changed("system-b") {
		names.B = strings.TrimSpace(analysisSystemB)
	}
	if err := validateAnalysis(names); err != nil {
		return settings{}, err
	}

	profile, err := config.ResolveProfile(analysisLang, fileCfg.Language)
	if err != nil {
		return settings{}, err
	}

	var vocab wordlist.Set
	if analysisWords != "" {
		vocab, err = wordlist.Load(analysisWords)
		if err != nil {
			return settings{}, err
		}
		slog.Debug("loaded vocabulary", "path", analysisWords, "words", len(vocab))
	}

	path := fileCfg.DBPath()
	if cmd.Flags().Changed("db") {
		path = dbPath
	}
	return settings{
		opts: report.Options{
			Names:       names,
			Profile:     &profile,
			Band:        analysisBand,
			TopN:        analysisTopN,
			Threshold:   model.Float(analysisThreshold),
			CurveWindow: analysisCurveWindow,
			Logger:      slog.Default(),
		},
		vocab:  vocab,
		dbPath: path,
	}, nil
}

func validateAnalysis(names model.Names) error {
	if names.A == "" || names.B == "" {
		return fmt.Errorf("--system-a and --system-b must not be empty")
	}
	if names.A == names.B {
		return fmt.Errorf("--system-a and --system-b must differ")
	}
	if analysisBand <= 0 {
		return fmt.Errorf("--band must be > 0")
	}
	if analysisTopN <= 0 {
		return fmt.Errorf("--top-n must be > 0")
	}
	if analysisThreshold < 0 {
		return fmt.Errorf("--threshold must be >= 0")
	}
	if analysisCurveWindow < 1 {
		return fmt.Errorf("--curve-window must be >= 1")
	}
	return nil
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Report on batch files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAnalyzeCmd,
	}
	addAnalysisFlags(cmd)
	cmd.Flags().StringVarP(&analyzeFormat, "format", "f", defaultFormat, "output format: json, yaml or text")
	cmd.Flags().StringSliceVar(&analyzeSections, "section", nil, "restrict the report to these sections ("+strings.Join(report.Sections, ", ")+")")
	cmd.Flags().BoolVar(&analyzeEnrich, "enrich", false, "compute missing metrics and labels from the texts")
	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(analyzeFormat)
	if err != nil {
		return err
	}
	if err := report.ValidateSections(analyzeSections); err != nil {
		return err
	}
	cfg, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	batches, err := batch.LoadAll(ctx, args)
	if err != nil {
		return fmt.Errorf("failed to load batches: %w", err)
	}

	reports := make([]report.Report, len(batches))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelBuilds)
	for i, b := range batches {
		i, b := i, b
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			samples := cfg.vocab.Filter(b.Samples)
			if analyzeEnrich {
				samples = batch.Enrich(samples)
			}
			opts := cfg.opts
			opts.Name = b.Name
			opts.Sections = analyzeSections
			r, err := report.Build(samples, opts)
			if err != nil {
				return fmt.Errorf("failed to analyze %s: %w", b.Name, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, r := range reports {
		if err := writeReport(out, r, format, i > 0); err != nil {
			return err
		}
	}
	return nil
}

func writeReport(w io.Writer, r report.Report, format report.Format, separate bool) error {
	if separate {
		sep := "\n"
		if format == report.FormatYAML {
			sep = "---\n"
		}
		if _, err := io.WriteString(w, sep); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if format == report.FormatText {
		opts := report.TextOptions{Width: report.TerminalWidth(), Color: report.UseColor(w)}
		if err := report.RenderText(w, r, opts); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	if err := report.Encode(w, r, format); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newAlignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "align REF HYP",
		Short: "Show the unit alignment and error rates of one transcription",
		Args:  cobra.ExactArgs(2),
		RunE:  runAlignCmd,
	}
	cmd.Flags().StringVar(&analysisLang, "lang", defaultLang, "language profile (see: capteval langs)")
	return cmd
}

func runAlignCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "lang", &analysisLang, fileCfg.Analysis.Lang)
	profile, err := config.ResolveProfile(analysisLang, fileCfg.Language)
	if err != nil {
		return err
	}
	return writeAlignment(cmd.OutOrStdout(), profile, args[0], args[1])
}

func writeAlignment(w io.Writer, profile textproc.Profile, ref, hyp string) error {
	tok := textproc.NewTokenizer(profile)
	ops := align.Align(tok.Tokenize(textproc.Normalize(ref)), tok.Tokenize(textproc.Normalize(hyp)))
	lines := make([]string, 0, len(ops)+4)
	for _, op := range ops {
		marker := " "
		if op.IsError() {
			marker = "*"
		}
		lines = append(lines, fmt.Sprintf("%s %-12s %-4s %s", marker, op.Kind, textproc.Display(op.Expected), textproc.Display(op.Actual)))
	}
	lines = append(lines,
		fmt.Sprintf("unit errors: %d of %d", align.ErrorCount(ops), len(ops)),
		fmt.Sprintf("raw:     CER %6.2f  WER %6.2f", align.CERStrict(ref, hyp), align.WERStrict(ref, hyp)),
		fmt.Sprintf("lenient: CER %6.2f  WER %6.2f", align.CERLenient(ref, hyp), align.WERLenient(ref, hyp)),
	)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Store batch files for later reports",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().StringVar(&importName, "name", "", "batch name (single file only; default: name in file or file name)")
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	if importName != "" && len(args) > 1 {
		return fmt.Errorf("--name can only be used with a single file")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	batches, err := batch.LoadAll(ctx, args)
	if err != nil {
		return fmt.Errorf("failed to load batches: %w", err)
	}

	path, err := resolveDBPath(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(path)
	if err != nil {
		return err
	}
	defer closeStore(st)

	for _, b := range batches {
		name := b.Name
		if importName != "" {
			name = importName
		}
		samples := batch.Enrich(b.Samples)
		if _, err := st.ImportBatch(ctx, name, samples); err != nil {
			return fmt.Errorf("failed to import %s: %w", name, err)
		}
		logErrf("Imported %d samples into batch %q\n", len(samples), name)
	}
	return nil
}

func newBatchesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batches",
		Short: "List stored batches",
		Args:  cobra.NoArgs,
		RunE:  runBatchesCmd,
	}
}

func runBatchesCmd(cmd *cobra.Command, _ []string) error {
	path, err := resolveDBPath(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(path)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	infos, err := st.ListBatches(ctx)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		logErrln("No batches stored. Import with: capteval import FILE")
		return nil
	}
	for _, info := range infos {
		line := fmt.Sprintf("%s\t%d samples\timported %s", info.Name, info.SampleCount, info.ImportedAt.Local().Format("2006-01-02 15:04"))
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report on stored samples",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	addAnalysisFlags(cmd)
	cmd.Flags().StringVar(&reportBatch, "batch", "", "batch name filter")
	cmd.Flags().StringVar(&reportSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&reportLast, "last", 0, "limit to last N samples")
	cmd.Flags().StringVarP(&reportFormat, "format", "f", defaultFormat, "output format: json, yaml or text")
	cmd.Flags().StringSliceVar(&reportSections, "section", nil, "restrict the report to these sections")
	cmd.Flags().BoolVar(&reportTUI, "tui", false, "browse the report interactively")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	format, err := report.ParseFormat(reportFormat)
	if err != nil {
		return err
	}
	if err := report.ValidateSections(reportSections); err != nil {
		return err
	}
	if reportLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	since, err := parseSince(reportSince)
	if err != nil {
		return err
	}
	cfg, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	st, err := openStore(cfg.dbPath)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	load := storeLoader(ctx, st, cfg, reportSections)
	initial := reportui.Settings{
		Filter:      model.SampleFilter{Batch: reportBatch, Since: since, Last: reportLast},
		CurveWindow: cfg.opts.CurveWindow,
	}

	if reportTUI {
		program := tea.NewProgram(reportui.NewModel(load, initial), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run report TUI: %w", err)
		}
		return nil
	}

	r, err := load(initial)
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), r, format, false)
}

// storeLoader returns a loader building reports from stored samples.
func storeLoader(ctx context.Context, st *store.Store, cfg settings, sections []string) reportui.Loader {
	return func(s reportui.Settings) (report.Report, error) {
		samples, err := st.ListSamples(ctx, s.Filter)
		if err != nil {
			return report.Report{}, err
		}
		samples = cfg.vocab.Filter(samples)
		opts := cfg.opts
		opts.Name = s.Filter.Batch
		opts.CurveWindow = s.CurveWindow
		opts.Sections = sections
		return report.Build(samples, opts)
	}
}

func parseSince(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid --since value: %w", err)
	}
	return &parsed, nil
}

func resolveDBPath(cmd *cobra.Command) (string, error) {
	if cmd.Flags().Changed("db") {
		return dbPath, nil
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg.DBPath(), nil
}

func openStore(path string) (*store.Store, error) {
	slog.Debug("opening store", "path", path)
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List built-in language profiles",
		Args:  cobra.NoArgs,
		RunE:  runLangsCmd,
	}
}

func runLangsCmd(cmd *cobra.Command, _ []string) error {
	for _, name := range textproc.BuiltinNames() {
		profile, err := textproc.Lookup(name)
		if err != nil {
			return err
		}
		clusters := "none"
		if c := profile.Clusters(); len(c) > 0 {
			clusters = strings.Join(c, " ")
		}
		line := fmt.Sprintf("%s\tclusters: %s\tvowels: %s", name, clusters, profile.Vowels())
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# capteval configuration
# Uncomment a value to enable it. CLI flags override config values.

[analysis]
# system-a = %q            # Display name of system A
# system-b = %q           # Display name of system B
# lang = %q                     # Language profile (capteval langs)
# band = %.1f                    # CER difference below which systems are comparable
# top-n = %d                     # Confusions kept per category
# over-transcription = %.1f     # WER minus CER threshold for over-transcription
# curve-window = %d              # Moving average window of learning curves
# db = "/path/to/capteval.db"     # Sample database

[language]
# name = "cy-north"               # Profile name shown in reports
# clusters = ["ll", "ch", "dd"]   # Two-letter clusters, matched in order
# vowels = "aeiouwy"              # Vowel letters
# consonants = "bcdfghjklmnprst"  # Consonant letters
`,
		model.DefaultNames.A,
		model.DefaultNames.B,
		defaultLang,
		defaultBand,
		defaultTopN,
		defaultThreshold,
		defaultCurveWindow,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
