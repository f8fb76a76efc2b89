package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/supervisor"
)

var auditFlags struct {
	db    string
	limit int
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Print recently applied configuration orders from the audit log",
	Long: `Read the sqlite audit log directly and print the most recent configuration
orders, newest first. The database path defaults to the one configured under
supervisor.audit_db.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := auditFlags.db
		if dbPath == "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dbPath = cfg.Supervisor.AuditDB
		}
		if dbPath == "" {
			return fmt.Errorf("no audit database configured; set supervisor.audit_db or pass --db")
		}

		log, err := supervisor.OpenAuditLog(dbPath)
		if err != nil {
			return err
		}
		defer log.Close()

		entries, err := log.Recent(context.Background(), auditFlags.limit)
		if err != nil {
			return err
		}

		table := cli.NewTable("recorded at", "command id", "order")
		for _, e := range entries {
			table.AddRow(e.RecordedAt.Format(time.RFC3339), e.CommandID, string(e.Order.Kind))
		}
		return table.WriteTo(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVar(&auditFlags.db, "db", "", "audit database path (overrides config)")
	auditCmd.Flags().IntVar(&auditFlags.limit, "limit", 20, "maximum entries to print")
}
