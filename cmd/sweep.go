package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"

	"github.com/snapbooth/identity/app/service"
	"github.com/snapbooth/identity/config"
)

var sweepDays int

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete sessions idle past the cutoff",
	Long:  `Bulk-delete sessions whose last access predates the cutoff. Intended to run periodically (e.g. from cron), not from request-path code.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		db, err := sql.Open("mysql", cfg.DSN())
		if err != nil {
			return err
		}
		defer db.Close()
		if err = db.Ping(); err != nil {
			return err
		}

		store, err := newSessionStore(cfg, db)
		if err != nil {
			return err
		}
		sessionService := service.NewSessionService(store, cfg)

		olderThan := cfg.SessionSweepAge
		if sweepDays > 0 {
			olderThan = time.Duration(sweepDays) * 24 * time.Hour
		}

		count, err := sessionService.Sweep(context.Background(), olderThan)
		if err != nil {
			return err
		}

		fmt.Printf("deleted %d session(s) idle longer than %s\n", count, olderThan)
		return nil
	},
}

func init() {
	sweepCmd.Flags().IntVar(&sweepDays, "days", 0, "override the idle cutoff in days (default: SESSION_SWEEP_AGE)")
	rootCmd.AddCommand(sweepCmd)
}
