// Package cmd provides CLI command implementations
package cmd

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/xlsearch/pkg/config"
	"github.com/ChrisMcGann/xlsearch/pkg/core"
	"github.com/ChrisMcGann/xlsearch/pkg/index"
	"github.com/ChrisMcGann/xlsearch/pkg/reader/fasta"
	"github.com/ChrisMcGann/xlsearch/pkg/reader/mgf"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Input files, set by command flags
	paramsFile   string
	spectraFile  string
	databaseFile string
)

var rootCmd = &cobra.Command{
	Use:   "xlsearch",
	Short: "xlsearch - Cross-link MS/MS search engine",
	Long: `xlsearch identifies cross-linked peptide pairs in tandem mass spectra.

Spectra (MGF) are deisotoped and matched against every peptide pair,
mono-link and loop-link from a protein database (FASTA) whose mass fits the
precursor. Candidates are scored with match-odds, cross-correlation and
ion current scores and the top hits per spectrum are written to SQLite.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	config.SetDefaults(viper.GetViper())

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(validateCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&paramsFile, "config", "c", "", "Parameters file (YAML, TOML or JSON)")
	flags.Float64("precursor-tol", 10, "Precursor mass tolerance")
	flags.String("precursor-unit", "ppm", "Precursor tolerance unit: ppm or da")
	flags.Int("min-charge", 3, "Minimum precursor charge")
	flags.Int("max-charge", 7, "Maximum precursor charge")
	flags.Float64("fragment-tol", 0.2, "Fragment tolerance for common ions")
	flags.Float64("fragment-tol-xlinks", 0.3, "Fragment tolerance for cross-link ions")
	flags.String("fragment-unit", "da", "Fragment tolerance unit: ppm or da")
	flags.String("enzyme", "trypsin", "Digestion enzyme")
	flags.Int("missed-cleavages", 2, "Missed cleavages allowed")
	flags.Int("min-length", 5, "Minimum peptide length")
	flags.String("decoy-string", "decoy", "Accession marker of decoy proteins (empty disables decoys)")
	flags.Bool("decoy-prefix", true, "Decoy marker is an accession prefix, otherwise a suffix")
	flags.Bool("single-charged", false, "Collapse isotope clusters to charge 1 m/z")
	flags.IntP("threads", "t", 0, "Number of worker threads (0 = all CPUs)")
	flags.Int("top-hits", 5, "Matches reported per spectrum")

	// Bind the parameters to viper
	bind := map[string]string{
		"precursor.tolerance":       "precursor-tol",
		"precursor.unit":            "precursor-unit",
		"precursor.min-charge":      "min-charge",
		"precursor.max-charge":      "max-charge",
		"fragment.tolerance":        "fragment-tol",
		"fragment.tolerance-xlinks": "fragment-tol-xlinks",
		"fragment.unit":             "fragment-unit",
		"digest.enzyme":             "enzyme",
		"digest.missed-cleavages":   "missed-cleavages",
		"digest.min-length":         "min-length",
		"digest.decoy-string":       "decoy-string",
		"digest.decoy-prefix":       "decoy-prefix",
		"deisotope.single-charged":  "single-charged",
		"search.threads":            "threads",
		"report.top-hits":           "top-hits",
	}
	for key, flag := range bind {
		viper.BindPFlag(key, flags.Lookup(flag))
	}
}

// loadConfig merges defaults, the parameters file and flags
func loadConfig() (config.Config, error) {
	return config.Load(viper.GetViper(), paramsFile)
}

// loadIndex digests the protein database into a peptide mass index
func loadIndex(cfg config.Config, path string) (*index.Index, index.Stats, error) {
	modDB, err := cfg.ModDatabase()
	if err != nil {
		return nil, index.Stats{}, err
	}
	expander, err := cfg.Expander(modDB)
	if err != nil {
		return nil, index.Stats{}, err
	}
	digester, err := cfg.Digester()
	if err != nil {
		return nil, index.Stats{}, err
	}

	rc, err := fasta.Open(path)
	if err != nil {
		return nil, index.Stats{}, fmt.Errorf("failed to open database: %w", err)
	}
	defer rc.Close()

	proteins, err := fasta.NewReader(rc).ReadProteins()
	if err != nil {
		return nil, index.Stats{}, fmt.Errorf("error reading database: %w", err)
	}

	ix, stats := index.Build(proteins, digester, expander, cfg.Index())
	return ix, stats, nil
}

// loadSpectra reads an MGF file, dropping spectra that fail validation
func loadSpectra(path string) ([]*core.Spectrum, int, error) {
	inFile, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open spectra file: %w", err)
	}
	defer inFile.Close()

	reader := mgf.NewReader(inFile, path)
	var spectra []*core.Spectrum
	invalid := 0
	for reader.Next() {
		spec := reader.Spectrum()
		if err := spec.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: invalid spectrum %s: %v\n", spec.Name(), err)
			invalid++
			continue
		}
		spectra = append(spectra, spec)
	}
	if err := reader.Err(); err != nil {
		return nil, 0, fmt.Errorf("error reading spectra file: %w", err)
	}
	return spectra, invalid, nil
}

func printIndexStats(s index.Stats) {
	fmt.Printf("Proteins: %d\n", s.Proteins)
	fmt.Printf("Digested peptides: %d\n", s.Digested)
	if s.InvalidResidue > 0 {
		fmt.Printf("Skipped: %d peptides (invalid residues)\n", s.InvalidResidue)
	}
	if s.NotLinkable > 0 {
		fmt.Printf("Skipped: %d peptides (no linkable residue)\n", s.NotLinkable)
	}
	fmt.Printf("Index entries: %d\n", s.Entries)
	if s.Decoys > 0 {
		fmt.Printf("Decoy entries: %d\n", s.Decoys)
	}
}
