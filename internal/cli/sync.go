package cli

import (
	"fmt"
	"time"

	"github.com/bainianlaoyao/potatolism/internal/sync"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync tasks with the server",
	Long: `Reconcile the local task replica with the sync server. The server
merges both collections and its result replaces the local replica.

Commands:
  potatolism sync              # Sync now
  potatolism sync status       # Show sync status
  potatolism sync config       # Configure server, token, on/off`,
	RunE: runSync,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	RunE:  runSyncStatus,
}

var syncConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Configure sync settings",
	RunE:  runSyncConfig,
}

func init() {
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncConfigCmd)

	syncConfigCmd.Flags().String("server", "", "Set sync server base address")
	syncConfigCmd.Flags().String("token", "", "Set owner token")
	syncConfigCmd.Flags().Bool("enable", false, "Enable sync")
	syncConfigCmd.Flags().Bool("disable", false, "Disable sync")
}

func runSync(cmd *cobra.Command, args []string) error {
	database, store, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	client := sync.NewClient(database, store)

	fmt.Println("Synchronizing...")
	if !client.RequestSync() {
		sess := client.Session()
		if !sess.Enabled {
			return fmt.Errorf("sync is disabled; enable it with: potatolism sync config --enable")
		}
		if sess.BaseURL == "" || sess.Token == "" {
			return fmt.Errorf("sync is not configured; set server and token with: potatolism sync config")
		}
		return fmt.Errorf("sync failed; see the log for details")
	}

	if err := store.Flush(); err != nil {
		return fmt.Errorf("failed to save reconciled tasks: %w", err)
	}

	fmt.Printf("✓ Sync complete, %d tasks\n", len(store.Tasks()))
	return nil
}

func runSyncStatus(cmd *cobra.Command, args []string) error {
	database, store, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	sess := sync.NewClient(database, store).Session()

	fmt.Printf("Server:    %s\n", sess.BaseURL)
	fmt.Printf("Token:     %s\n", maskToken(sess.Token))
	if sess.Enabled {
		fmt.Println("Status:    enabled")
	} else {
		fmt.Println("Status:    disabled")
	}
	if sess.LastSyncTime > 0 {
		fmt.Printf("Last sync: %s\n", time.UnixMilli(sess.LastSyncTime).Format(time.RFC3339))
	} else {
		fmt.Println("Last sync: never")
	}
	return nil
}

func runSyncConfig(cmd *cobra.Command, args []string) error {
	database, store, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	client := sync.NewClient(database, store)

	if server, _ := cmd.Flags().GetString("server"); server != "" {
		if err := client.SetServer(server); err != nil {
			return err
		}
		fmt.Printf("✓ Server set to: %s\n", server)
	}
	if token, _ := cmd.Flags().GetString("token"); token != "" {
		if err := client.SetToken(token); err != nil {
			return err
		}
		fmt.Println("✓ Token set")
	}
	if enable, _ := cmd.Flags().GetBool("enable"); enable {
		if err := client.SetEnabled(true); err != nil {
			return err
		}
		fmt.Println("✓ Sync enabled")
	}
	if disable, _ := cmd.Flags().GetBool("disable"); disable {
		if err := client.SetEnabled(false); err != nil {
			return err
		}
		fmt.Println("✓ Sync disabled")
	}

	if !cmd.Flags().Changed("server") && !cmd.Flags().Changed("token") &&
		!cmd.Flags().Changed("enable") && !cmd.Flags().Changed("disable") {
		return runSyncStatus(cmd, args)
	}
	return nil
}

func maskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "****"
}
