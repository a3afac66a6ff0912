package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okiba/bookd/internal/infrastructure/config"
	"github.com/okiba/bookd/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
	ownerID string
	orgID   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bookd-cli",
		Short: "bookd CLI tool",
		Long:  `A command line interface for operating a bookd server.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the bookd API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&ownerID, "owner", "", "Owner ID sent as X-Owner-ID")
	rootCmd.PersistentFlags().StringVar(&orgID, "org", "", "Org ID sent as X-Org-ID")

	rootCmd.AddCommand(reconcileCmd(), backupCmd(), snapshotCmd(), migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Check stored balances against the transaction log",
		Run: func(cmd *cobra.Command, args []string) {
			body := request(http.MethodGet, "/api/v1/reconciliation", nil)

			var report struct {
				TotalAccounts      int              `json:"total_accounts"`
				ReconciledAccounts int              `json:"reconciled_accounts"`
				CorrectedAccounts  int              `json:"corrected_accounts"`
				Discrepancies      []map[string]any `json:"discrepancies"`
			}
			if err := json.Unmarshal(body, &report); err != nil {
				fatal("failed to parse response: %v", err)
			}

			fmt.Printf("Accounts checked:  %d\n", report.TotalAccounts)
			fmt.Printf("Reconciled:        %d\n", report.ReconciledAccounts)
			fmt.Printf("Corrected:         %d\n", report.CorrectedAccounts)
			if len(report.Discrepancies) > 0 {
				fmt.Printf("Discrepancies:     %d\n", len(report.Discrepancies))
				for _, d := range report.Discrepancies {
					fmt.Printf("  account %v stored=%v computed=%v\n",
						d["account_id"], d["stored_balance"], d["computed_balance"])
				}
				os.Exit(1)
			}
			fmt.Println("All accounts reconciled")
		},
	}
}

func backupCmd() *cobra.Command {
	var outPath, inPath string

	backup := &cobra.Command{
		Use:   "backup",
		Short: "Backup operations",
	}

	export := &cobra.Command{
		Use:   "export",
		Short: "Export all books to a JSON file",
		Run: func(cmd *cobra.Command, args []string) {
			body := request(http.MethodGet, "/api/v1/backup/export", nil)
			if err := os.WriteFile(outPath, body, 0o644); err != nil {
				fatal("failed to write backup file: %v", err)
			}
			fmt.Printf("Backup written to %s (%d bytes)\n", outPath, len(body))
		},
	}
	export.Flags().StringVar(&outPath, "out", "bookd-backup.json", "Output file path")

	restore := &cobra.Command{
		Use:   "import",
		Short: "Restore books from a JSON backup file",
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(inPath)
			if err != nil {
				fatal("failed to read backup file: %v", err)
			}
			body := request(http.MethodPost, "/api/v1/backup/import", bytes.NewReader(data))
			fmt.Printf("Restore complete: %s\n", string(body))
		},
	}
	restore.Flags().StringVar(&inPath, "file", "", "Backup file to restore")
	restore.MarkFlagRequired("file")

	backup.AddCommand(export, restore)
	return backup
}

func snapshotCmd() *cobra.Command {
	var accountID, granularity, from string

	snapshot := &cobra.Command{
		Use:   "snapshot",
		Short: "Balance snapshot operations",
	}

	recompute := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute snapshots for an account from a given date",
		Run: func(cmd *cobra.Command, args []string) {
			payload, _ := json.Marshal(map[string]string{
				"account_id":  accountID,
				"granularity": granularity,
				"from":        from,
			})
			request(http.MethodPost, "/api/v1/snapshots/recompute", bytes.NewReader(payload))
			fmt.Println("Recompute accepted")
		},
	}
	recompute.Flags().StringVar(&accountID, "account", "", "Account ID")
	recompute.Flags().StringVar(&granularity, "granularity", "month", "Snapshot granularity (day or month)")
	recompute.Flags().StringVar(&from, "from", "", "Recompute from this RFC3339 date")
	recompute.MarkFlagRequired("account")
	recompute.MarkFlagRequired("from")

	snapshot.AddCommand(recompute)
	return snapshot
}

func migrateCmd() *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration operations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Load()
			if err != nil {
				fatal("failed to load configuration: %v", err)
			}
			if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
				fatal("migrations failed: %v", err)
			}
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Load()
			if err != nil {
				fatal("failed to load configuration: %v", err)
			}
			if err := postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
				fatal("rollback failed: %v", err)
			}
		},
	}

	migrate.AddCommand(up, down)
	return migrate
}

// request performs an API call and exits on any failure.
func request(method, path string, body io.Reader) []byte {
	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		fatal("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ownerID != "" {
		req.Header.Set("X-Owner-ID", ownerID)
	}
	if orgID != "" {
		req.Header.Set("X-Org-ID", orgID)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		fatal("request failed: %v", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		fatal("request failed (status %d): %s", resp.StatusCode, string(data))
	}

	return data
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
