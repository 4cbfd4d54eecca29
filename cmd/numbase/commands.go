package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/deidexdd-hash/numBase/internal/api"
	"github.com/deidexdd-hash/numBase/internal/classify"
	"github.com/deidexdd-hash/numBase/internal/config"
	"github.com/deidexdd-hash/numBase/internal/extract"
	"github.com/deidexdd-hash/numBase/internal/ingest"
	"github.com/deidexdd-hash/numBase/internal/search"
)

// --- ingest ---

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Extract, classify, and store documents from a directory",
	Long: `Extract, classify, and store documents from a directory.

Supported inputs are PDF (with OCR fallback for scans), plain text,
Markdown, and HTML. The full-text index is rebuilt once after the batch.

Examples:
  numbase ingest ./sources
  numbase ingest --workers 2 --ocr-langs rus+eng`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		initLogging(cfg.Log.Level)

		dir := cfg.Ingest.SourceDir
		if len(args) == 1 {
			dir = args[0]
		}
		workers, _ := cmd.Flags().GetInt("workers")
		if workers <= 0 {
			workers = cfg.Ingest.Workers
		}
		ocrLangs, _ := cmd.Flags().GetString("ocr-langs")
		if ocrLangs == "" {
			ocrLangs = cfg.Ingest.OCRLanguages
		}

		base, err := openKnowledgeBase(cfg)
		if err != nil {
			return err
		}
		defer base.Close()

		store, err := base.AttachStore()
		if err != nil {
			return err
		}

		recognizer := extract.NewTesseractRecognizer(ocrLangs)
		var rec extract.Recognizer
		if err := recognizer.Available(); err != nil {
			printWarning("OCR disabled: %v", err)
		} else {
			rec = recognizer
		}

		pipeline := ingest.New(
			extract.New(rec),
			classify.New(nil, nil),
			store,
			search.New(store, 0),
			workers,
		)

		printStep("Ingesting from %s", dir)
		report, err := pipeline.Dir(cmd.Context(), dir)
		if err != nil {
			return err
		}

		for _, f := range report.Files {
			switch f.Status {
			case "processed":
				printSuccess("%s (doc %d, %d chars)", f.Filename, f.DocID, f.Chars)
			case "skipped":
				printWarning("%s skipped: %s", f.Filename, f.Error)
			case "failed":
				printError("%s failed: %s", f.Filename, f.Error)
			}
		}
		printStatus("Processed", "%d", report.Processed)
		printStatus("Skipped", "%d", report.Skipped)
		printStatus("Failed", "%d", report.Failed)
		printStatus("Recognized", "%d", report.Recognized)
		printStatus("Indexed", "%d", report.Indexed)
		printStatus("Elapsed", "%s", report.Elapsed.Round(10*time.Millisecond))
		return nil
	},
}

// --- reindex ---

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the full-text index from the corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		initLogging(cfg.Log.Level)

		base, err := openKnowledgeBase(cfg)
		if err != nil {
			return err
		}
		defer base.Close()

		printStep("Rebuilding full-text index")
		n, err := base.RebuildIndex(cmd.Context())
		if err != nil {
			return err
		}
		printSuccess("Indexed %d documents", n)
		return nil
	},
}

// --- search ---

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		initLogging(cfg.Log.Level)

		limit, _ := cmd.Flags().GetInt("limit")
		category, _ := cmd.Flags().GetString("category")
		asJSON, _ := cmd.Flags().GetBool("json")

		base, err := openKnowledgeBase(cfg)
		if err != nil {
			return err
		}
		defer base.Close()

		resp := base.Search(cmd.Context(), args[0], limit, category)

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}

		if !resp.StoreAvailable {
			printWarning("document store unavailable, catalogue-only results")
		}
		if resp.Total == 0 {
			fmt.Println("no results")
			return nil
		}
		for _, r := range resp.Results {
			if r.ID != 0 {
				fmt.Printf("%s [%d] %s (%s)\n", colorize(colorBold, r.Title), r.ID, r.Filename, r.DocType)
			} else {
				fmt.Printf("%s (%s)\n", colorize(colorBold, r.Title), r.DocType)
			}
			if r.Snippet != "" {
				fmt.Printf("  %s\n", r.Snippet)
			}
		}
		return nil
	},
}

// --- calc ---

var calcCmd = &cobra.Command{
	Use:   "calc <day> <month> <year>",
	Short: "Run the full numerology calculation for a birth date",
	Long: `Run the full numerology calculation for a birth date.

Examples:
  numbase calc 15 6 1990
  numbase calc 15 6 1990 --name "Anna Petrova" --json`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("day must be an integer: %w", err)
		}
		month, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("month must be an integer: %w", err)
		}
		year, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("year must be an integer: %w", err)
		}
		name, _ := cmd.Flags().GetString("name")
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		initLogging(cfg.Log.Level)

		base, err := openKnowledgeBase(cfg)
		if err != nil {
			return err
		}
		defer base.Close()

		bundle, err := base.CalculateAll(day, month, year, name)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(bundle)
		}

		fmt.Print(api.RenderReport(bundle))
		return nil
	},
}

// --- stats ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge base statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		initLogging(cfg.Log.Level)

		base, err := openKnowledgeBase(cfg)
		if err != nil {
			return err
		}
		defer base.Close()

		st := base.Stats()
		printStatus("Formulas", "%d", st.Formulas)
		printStatus("Practices", "%d", st.Practices)
		printStatus("Meanings", "%d", st.NumberMeanings)
		if st.Corpus == nil {
			printStatus("Documents", "store unavailable")
			return nil
		}
		printStatus("Documents", "%d", st.Corpus.Documents)
		printStatus("Total chars", "%d", st.Corpus.TotalChars)
		for docType, n := range st.Corpus.ByType {
			printStatus("  "+docType, "%d", n)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().Int("workers", 0, "parallel extraction workers (default from config)")
	ingestCmd.Flags().String("ocr-langs", "", "tesseract language list (default from config)")
	searchCmd.Flags().Int("limit", 10, "maximum results")
	searchCmd.Flags().String("category", "", "restrict to one category")
	searchCmd.Flags().Bool("json", false, "output JSON")
	calcCmd.Flags().String("name", "", "full name for the destiny number")
	calcCmd.Flags().Bool("json", false, "output JSON")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
