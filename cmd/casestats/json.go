package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/covid-stats-service/internal/domain"
)

var jsonIndent bool

var jsonCmd = &cobra.Command{
	Use:   "json",
	Short: "Print the merged snapshot as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		snap, err := fetchSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		return writeSnapshot(os.Stdout, snap, jsonIndent)
	},
}

func init() {
	jsonCmd.Flags().BoolVar(&jsonIndent, "indent", true, "pretty-print the output")
	rootCmd.AddCommand(jsonCmd)
}

func writeSnapshot(out io.Writer, snap *domain.Snapshot, indent bool) error {
	enc := json.NewEncoder(out)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(snap)
}
