package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/ChrisMcGann/xlsearch/pkg/search"
	"github.com/ChrisMcGann/xlsearch/pkg/writer/sqlite"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var outputFile string

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search spectra for cross-linked peptides",
	Long: `Search MGF spectra against a FASTA protein database and write the
top-ranked cross-link, mono-link and loop-link matches to a SQLite database.

Examples:
  # Search with default DSS settings
  xlsearch search --spectra run1.mgf --database proteins.fasta --out run1.db

  # Search with a parameters file and a ppm fragment tolerance
  xlsearch search -s run1.mgf -d proteins.fasta -o run1.db --config params.yaml --fragment-unit ppm --fragment-tol 10`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&spectraFile, "spectra", "s", "", "Input MGF file (required)")
	searchCmd.Flags().StringVarP(&databaseFile, "database", "d", "", "Protein FASTA database, .gz allowed (required)")
	searchCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output SQLite database (required)")

	searchCmd.MarkFlagRequired("spectra")
	searchCmd.MarkFlagRequired("database")
	searchCmd.MarkFlagRequired("out")
}

func runSearch(cmd *cobra.Command, args []string) error {
	// Validate input files exist
	for _, path := range []string{spectraFile, databaseFile} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("input file does not exist: %s", path)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opt := cfg.SearchOptions()
	opt.Progress = os.Stdout

	fmt.Printf("Searching %s against %s...\n", spectraFile, databaseFile)
	fmt.Printf("Linker: %s (%.4f Da)\n", opt.Candidates.LinkerName, opt.Candidates.LinkerMass)
	fmt.Printf("Precursor tolerance: %s\n", opt.Candidates.Tolerance)
	fmt.Printf("Fragment tolerance: %s (cross-link ions %s)\n", opt.CommonTolerance, opt.XLinkTolerance)

	ix, ixStats, err := loadIndex(cfg, databaseFile)
	if err != nil {
		return err
	}
	printIndexStats(ixStats)

	spectra, invalid, err := loadSpectra(spectraFile)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d spectra\n", len(spectra))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, stats, err := search.NewEngine(ix, opt).Run(ctx, spectra)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	writer, err := sqlite.NewWriter(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}
	defer writer.Close()

	for _, res := range results {
		if err := writer.WriteResult(res); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
	}

	params, err := json.MarshalIndent(viper.AllSettings(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}
	info := sqlite.RunInfo{
		SpectraFile:  spectraFile,
		DatabaseFile: databaseFile,
		LinkerName:   opt.Candidates.LinkerName,
		LinkerMass:   opt.Candidates.LinkerMass,
		Parameters:   string(params),
		Stats:        stats,
	}
	if err := writer.Finalize(info); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}

	fmt.Printf("\nSearch complete!\n")
	stats.Print(os.Stdout)
	if invalid > 0 {
		fmt.Printf("Skipped: %d spectra (validation errors)\n", invalid)
	}
	fmt.Printf("Run: %s\n", writer.RunID())
	fmt.Printf("Output: %s\n", outputFile)

	return nil
}
