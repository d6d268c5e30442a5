package cmd

import (
	"fmt"

	"github.com/ChrisMcGann/xlsearch/pkg/preprocess"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate an MGF file and report how many spectra pass preprocessing",
	Long: `Validate that an MGF file is properly formatted and count the spectra
that survive the precursor charge and peak count filters.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	spectra, invalid, err := loadSpectra(args[0])
	if err != nil {
		return err
	}

	pre := cfg.Preprocess()
	counts := make(map[preprocess.Skip]int)
	peaks := 0
	for _, raw := range spectra {
		spec, reason := pre.Apply(raw)
		counts[reason]++
		if spec != nil {
			peaks += len(spec.Peaks)
		}
	}

	fmt.Printf("Spectra: %d\n", len(spectra)+invalid)
	if invalid > 0 {
		fmt.Printf("Invalid: %d\n", invalid)
	}
	for _, reason := range []preprocess.Skip{preprocess.SkipCharge, preprocess.SkipTooFewPeaks, preprocess.SkipTooFewProcessed} {
		if n := counts[reason]; n > 0 {
			fmt.Printf("Skipped: %d spectra (%s)\n", n, reason)
		}
	}
	kept := counts[preprocess.Kept]
	fmt.Printf("Searchable: %d spectra\n", kept)
	if kept > 0 {
		fmt.Printf("Mean peaks after preprocessing: %.1f\n", float64(peaks)/float64(kept))
	}
	return nil
}
