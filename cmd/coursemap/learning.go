package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/coursemap/internal/knowledge"
)

func (c *cli) statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <docID> <nodeID> <status>",
		Short: "Set a node's status (objective, well_learned, needs_reinforcement, not_learned)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := knowledge.ParseStatus(args[2])
			if err != nil {
				return err
			}
			var progress *int
			if cmd.Flags().Changed("progress") {
				p, _ := cmd.Flags().GetInt("progress")
				progress = &p
			}

			svc, log, err := c.open()
			if err != nil {
				return err
			}
			defer svc.Close()
			defer log.Sync()

			n, err := svc.Learning.SetStatus(cmd.Context(), args[0], args[1], status, progress)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			return writeOutput(cmd.OutOrStdout(), format, n)
		},
	}
	cmd.Flags().Int("progress", 0, "also set progress (0-100)")
	cmd.Flags().String("format", "json", "output format: json or yaml")
	return cmd
}

func (c *cli) sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session <docID> <nodeID>",
		Short: "Record a completed learning session on a node",
		Long: `Session adds the duration to the node's time spent and, when a score is
given, raises progress by up to 20 points and re-derives the status.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, _ := cmd.Flags().GetString("type")
			duration, _ := cmd.Flags().GetInt("duration")
			user, _ := cmd.Flags().GetString("user")
			in := knowledge.SessionInput{
				Type:            knowledge.SessionType(typ),
				DurationMinutes: duration,
				UserID:          user,
			}
			if cmd.Flags().Changed("score") {
				score, _ := cmd.Flags().GetFloat64("score")
				in.Score = &score
			}

			svc, log, err := c.open()
			if err != nil {
				return err
			}
			defer svc.Close()
			defer log.Sync()

			n, sess, err := svc.Learning.RecordSession(cmd.Context(), args[0], args[1], in)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			return writeOutput(cmd.OutOrStdout(), format, map[string]any{"node": n, "session": sess})
		},
	}
	cmd.Flags().String("type", string(knowledge.SessionStudy), "session type: study, quiz, review or practice")
	cmd.Flags().Int("duration", 0, "minutes spent")
	cmd.Flags().Float64("score", 0, "score 0-100 (omit for unscored sessions)")
	cmd.Flags().String("user", "", "learner id; also updates that learner's progress record")
	cmd.Flags().String("format", "json", "output format: json or yaml")
	return cmd
}

func (c *cli) analyticsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics <docID>",
		Short: "Summarise progress, time and sessions for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := c.open()
			if err != nil {
				return err
			}
			defer svc.Close()

			a, err := svc.Learning.Analytics(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			return writeOutput(cmd.OutOrStdout(), format, a)
		},
	}
	cmd.Flags().String("format", "json", "output format: json or yaml")
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <docID>",
		Short: "Export a stored document's knowledge map",
		Long:  `Export builds the graph first if the document has none yet.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, log, err := c.open()
			if err != nil {
				return err
			}
			defer svc.Close()
			defer log.Sync()

			km, err := svc.Learning.KnowledgeMap(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			return writeOutput(cmd.OutOrStdout(), format, km)
		},
	}
	cmd.Flags().String("format", "yaml", "output format: yaml or json")
	return cmd
}
