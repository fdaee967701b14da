// Copyright CSV Chart Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/chartimage"
	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/core/chart"
	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/core/config"
	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/observability/logging"
)

type extractOptions struct {
	title     string
	delimiter string
	pngPath   string
	verbose   bool
}

func newExtractCmd() *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract <file.csv>",
		Short: "Print the chart data of a CSV file as JSON",
		Long: `Reads the first two columns of a CSV file, drops rows where either cell
is missing and prints the labels, values and title as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.title, "title", "", "chart title (default \""+chart.DefaultTitle+"\")")
	cmd.Flags().StringVarP(&opts.delimiter, "delimiter", "d", "", "field delimiter, a single character or \"tab\"")
	cmd.Flags().StringVar(&opts.pngPath, "png", "", "also write a bar chart PNG to this path")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log extraction diagnostics to stderr")
	return cmd
}

func runExtract(cmd *cobra.Command, opts *extractOptions, path string) error {
	comma, err := config.ChartConfig{Delimiter: opts.delimiter}.Comma()
	if err != nil {
		return err
	}

	level := "error"
	if opts.verbose {
		level = "debug"
	}
	logger := logging.New(logging.Config{
		Level:  level,
		Format: "text",
		Output: cmd.ErrOrStderr(),
	})

	extractor := &chart.Extractor{
		Title:  opts.title,
		Comma:  comma,
		Logger: logger.Logger,
	}
	data, err := extractor.Extract(path)
	if err != nil {
		return err
	}
	logger.Debug("Extracted chart data", "path", path, "rows", data.Len())

	if opts.pngPath != "" {
		png, err := chartimage.Render(data, chartimage.Options{})
		if err != nil {
			return fmt.Errorf("render %s: %w", opts.pngPath, err)
		}
		if err := os.WriteFile(opts.pngPath, png, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.pngPath, err)
		}
		logger.Debug("Wrote chart image", "path", opts.pngPath, "bytes", len(png))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
