package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/coursemap/internal/parser"
	"github.com/dgallion1/coursemap/internal/pipeline"
)

func (c *cli) ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Analyse a file and store its structure and knowledge graph",
		Long: `Ingest runs the same pipeline as an upload to the server: duplicate
check by content hash, parsing, structure detection and graph build. It
prints the finished job.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			filename := filepath.Base(path)
			if !parser.IsSupportedExtension(filename) {
				return fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			svc, log, err := c.open()
			if err != nil {
				return err
			}
			defer svc.Close()
			defer log.Sync()

			cfg := c.config()
			w := pipeline.NewWorker(svc.Store, svc.Analyzer, svc.Learning, pipeline.NewAnalysisStats(0), log,
				parser.WithPdftotext(cfg.PDFFallbackPdftotext))
			title, _ := cmd.Flags().GetString("title")
			job := pipeline.NewJob(filename, title, data)
			w.Process(cmd.Context(), job)

			snap := job.Snapshot()
			format, _ := cmd.Flags().GetString("format")
			if err := writeOutput(cmd.OutOrStdout(), format, snap); err != nil {
				return err
			}
			if snap.Status == pipeline.StatusFailed {
				return fmt.Errorf("ingest failed in %s", snap.Phase)
			}
			return nil
		},
	}
	cmd.Flags().String("title", "", "document name (default: the file name)")
	cmd.Flags().String("format", "json", "output format: json or yaml")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := c.open()
			if err != nil {
				return err
			}
			defer svc.Close()

			docs, err := svc.Store.ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range docs {
				fmt.Fprintf(out, "%s\t%s\t%d pages\t%s\n", d.ID, d.Name, d.PageCount, d.UploadedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
	return cmd
}
