package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/coursemap/internal/app"
	"github.com/dgallion1/coursemap/internal/knowledge"
	"github.com/dgallion1/coursemap/internal/parser"
	"github.com/dgallion1/coursemap/internal/pipeline"
	"github.com/dgallion1/coursemap/internal/structure"
)

func (c *cli) analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Print the detected Unit / Module / Class structure of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.analyzeFile(args[0])
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			return writeOutput(cmd.OutOrStdout(), format, res)
		},
	}
	cmd.Flags().String("format", "json", "output format: json or yaml")
	return cmd
}

func (c *cli) mapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map <file>",
		Short: "Build a knowledge map for a file without storing anything",
		Long: `Map analyses the file and builds its knowledge map in memory. Initial
statuses follow --status-mode; pass --seed for a reproducible weighted map.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			res, err := c.analyzeFile(path)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			doc := knowledge.DocRef{
				ID:         pipeline.ContentHashHex(data)[:16],
				Name:       filepath.Base(path),
				UploadedAt: time.Now().UTC(),
			}
			nodes := app.NewBuilder(c.config()).Build(&res.Hierarchy, doc)
			format, _ := cmd.Flags().GetString("format")
			return writeOutput(cmd.OutOrStdout(), format, knowledge.Materialize(nodes, doc))
		},
	}
	cmd.Flags().String("format", "json", "output format: json or yaml")
	return cmd
}

// analyzeFile reads and analyses path. Unreadable content yields the
// fallback structure; only a missing file or unsupported type is an error.
func (c *cli) analyzeFile(path string) (structure.Result, error) {
	if !parser.IsSupportedExtension(path) {
		return structure.Result{}, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return structure.Result{}, err
	}
	an, err := app.NewAnalyzer(c.config())
	if err != nil {
		return structure.Result{}, err
	}
	src := &parser.Source{
		Filename: filepath.Base(path),
		Data:     data,
		Options:  []parser.Option{parser.WithPdftotext(c.config().PDFFallbackPdftotext)},
	}
	return an.Analyze(src), nil
}
