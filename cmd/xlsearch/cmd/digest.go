package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listPeptides bool

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Digest a protein database and summarize the peptide index",
	Long: `Digest a FASTA protein database with the configured enzyme and
modifications and print how many peptides enter the mass index.`,
	RunE: runDigest,
}

func init() {
	digestCmd.Flags().StringVarP(&databaseFile, "database", "d", "", "Protein FASTA database, .gz allowed (required)")
	digestCmd.Flags().BoolVar(&listPeptides, "list", false, "Print every index entry")

	digestCmd.MarkFlagRequired("database")
}

func runDigest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ix, stats, err := loadIndex(cfg, databaseFile)
	if err != nil {
		return err
	}

	printIndexStats(stats)
	if stats.Duplicates > 0 {
		fmt.Printf("Duplicate peptides: %d\n", stats.Duplicates)
	}
	if ix.Len() > 0 {
		fmt.Printf("Mass range: %.4f - %.4f Da\n", ix.At(0).Mass(), ix.At(ix.Len()-1).Mass())
	}

	if listPeptides {
		for _, e := range ix.Entries() {
			fmt.Printf("%.6f\t%s\t%s\t%s\n", e.Mass(), e.Peptide, e.Position, e.Protein)
		}
	}
	return nil
}
