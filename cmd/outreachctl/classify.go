package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/okian/outreach/internal/domain/model"
	"github.com/okian/outreach/internal/domain/pipeline"
)

var classifyFile string

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a JSON array of filings offline and print the results",
	Long:  "Reads filings (each with optional historical_funding) from --file, or stdin when --file is -, and prints them with every derived field filled in.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		in := cmd.InOrStdin()
		if classifyFile != "-" {
			f, err := os.Open(classifyFile)
			if err != nil {
				return eris.Wrap(err, "open filings file")
			}
			defer func() { _ = f.Close() }()
			in = f
		}
		return classifyFilings(in, cmd.OutOrStdout())
	},
}

func classifyFilings(r io.Reader, w io.Writer) error {
	var filings []model.Filing
	if err := json.NewDecoder(r).Decode(&filings); err != nil {
		return eris.Wrap(err, "decode filings")
	}

	engine := pipeline.New()
	for i := range filings {
		f := &filings[i]
		engine.Classify(f, f.HistoricalFunding).Apply(f)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(filings); err != nil {
		return eris.Wrap(err, "encode results")
	}
	return nil
}

func init() {
	classifyCmd.Flags().StringVar(&classifyFile, "file", "-", "JSON file of filings, - for stdin")
	rootCmd.AddCommand(classifyCmd)
}
