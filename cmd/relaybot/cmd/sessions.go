package cmd

import (
	"fmt"
	"sort"

	"github.com/hkuds/relaybot/internal/config"
	"github.com/hkuds/relaybot/internal/session"
	"github.com/spf13/cobra"
)

var sessionsClearAll bool

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage conversation history",
	Long:  "List, clear, and delete the per-conversation history the responder keeps.",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored conversations",
	RunE:  runSessionsList,
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear [key]",
	Short: "Clear a conversation's history",
	Long:  "Empty the history of one conversation (for example relay:+15551234567), or every conversation with --all.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSessionsClear,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a conversation entirely",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	sessionsClearCmd.Flags().BoolVar(&sessionsClearAll, "all", false, "clear every stored conversation")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsClearCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}

func loadSessionManager() (*session.Manager, error) {
	cfg, err := config.LoadConfig("")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return session.NewManager(cfg.StatePath()), nil
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	mgr, err := loadSessionManager()
	if err != nil {
		return err
	}

	infos := mgr.List()
	if len(infos) == 0 {
		fmt.Println("No stored conversations.")
		return nil
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})

	for _, info := range infos {
		fmt.Printf("%-28s %4d messages  updated %s\n",
			info.Key, info.MessageCount, info.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runSessionsClear(cmd *cobra.Command, args []string) error {
	mgr, err := loadSessionManager()
	if err != nil {
		return err
	}

	if sessionsClearAll {
		removed, err := mgr.ClearAll()
		if err != nil {
			return fmt.Errorf("failed to clear sessions: %w", err)
		}
		fmt.Printf("Cleared %d conversations.\n", removed)
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("a conversation key or --all is required")
	}
	if err := mgr.Clear(args[0]); err != nil {
		return fmt.Errorf("failed to clear %s: %w", args[0], err)
	}
	fmt.Printf("Cleared %s.\n", args[0])
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	mgr, err := loadSessionManager()
	if err != nil {
		return err
	}

	if !mgr.Delete(args[0]) {
		fmt.Printf("No stored conversation for %s.\n", args[0])
		return nil
	}
	fmt.Printf("Deleted %s.\n", args[0])
	return nil
}
