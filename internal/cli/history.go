package cli

import (
	"fmt"
	"time"

	"github.com/openclaw/gpioskill/internal/history"
	"github.com/spf13/cobra"
)

var (
	historyType   string
	historyEntity string
	historyID     string
	historySince  string
	historyLimit  int
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyType, "type", "", "filter by event type (run.started, run.finished, ...)")
	historyCmd.Flags().StringVar(&historyEntity, "entity", "", "filter by entity type (run, routine)")
	historyCmd.Flags().StringVar(&historyID, "id", "", "filter by entity id")
	historyCmd.Flags().StringVar(&historySince, "since", "", "only events at or after this RFC3339 time")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "maximum number of events")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query the run history log",
	Long:  "Print recorded run and routine events from the history database, oldest first.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sk, err := openSkill()
		if err != nil {
			return err
		}
		defer sk.Close()

		db := sk.History()
		if db == nil {
			return fmt.Errorf("history recording is disabled; set history_db in the config")
		}

		q := history.Query{Limit: historyLimit}
		if historyType != "" {
			t := history.EventType(historyType)
			q.Type = &t
		}
		if historyEntity != "" {
			et := history.EntityType(historyEntity)
			q.EntityType = &et
		}
		if historyID != "" {
			q.EntityID = &historyID
		}
		if historySince != "" {
			since, err := time.Parse(time.RFC3339, historySince)
			if err != nil {
				return fmt.Errorf("parse --since: %w", err)
			}
			q.Since = &since
		}

		events, err := db.List(cmd.Context(), q)
		if err != nil {
			return err
		}
		for _, event := range events {
			printResult(event)
		}
		return nil
	},
}
