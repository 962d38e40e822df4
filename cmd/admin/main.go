package main

import (
	"devlinkr/backend/internal/config"
	"devlinkr/backend/internal/logging"
	"devlinkr/backend/internal/storage"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "admin",
		Short:         "DevLinkr maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(createSessionCmd())
	rootCmd.AddCommand(createMessagesCmd())
	rootCmd.AddCommand(createUsersCmd())

	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// openStorage connects to PostgreSQL only; no Redis needed for the admin CLI.
func openStorage() (*storage.Service, error) {
	logger := logging.New("warn", "text")
	cfg, err := config.Load(logger, "config")
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return storage.NewStorageService(db, nil, logger), nil
}

func createSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or reset pair-programming sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <room>",
		Short: "Print the saved snapshot of a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStorage()
			if err != nil {
				return err
			}
			session, err := s.LoadSession(cmd.Context(), args[0])
			if errors.Is(err, storage.ErrNotFound) {
				color.Yellow("No saved session for room %s", args[0])
				return nil
			}
			if err != nil {
				return err
			}
			color.Cyan("Room %s (%s), saved %s", session.Room, session.Language, session.UpdatedAt.Format("2006-01-02 15:04:05"))
			fmt.Println(session.Code)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset <room>",
		Short: "Delete the saved snapshot of a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStorage()
			if err != nil {
				return err
			}
			if err := s.DeleteSession(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					color.Yellow("No saved session for room %s", args[0])
					return nil
				}
				return err
			}
			color.Green("Session for room %s has been reset.", args[0])
			return nil
		},
	})

	return cmd
}

func createMessagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Inspect direct messages",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "history <user1> <user2>",
		Short: "Print the conversation between two users",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStorage()
			if err != nil {
				return err
			}
			history, err := s.GetChatHistory(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if len(history) == 0 {
				color.Yellow("No messages between %s and %s", args[0], args[1])
				return nil
			}
			for _, m := range history {
				fmt.Printf("%s  %-24s -> %-24s [%-9s] %s\n",
					m.CreatedAt.Format("2006-01-02 15:04"), m.Sender, m.Receiver, m.Status, m.Message)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "mark-seen <sender> <receiver>",
		Short: "Mark everything sender sent to receiver as seen",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStorage()
			if err != nil {
				return err
			}
			n, err := s.MarkSeen(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			color.Green("%d message(s) marked seen.", n)
			return nil
		},
	})

	return cmd
}

func createUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect user accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStorage()
			if err != nil {
				return err
			}
			users, err := s.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Printf("%-28s %-20s %s\n", u.Email, u.Name, strings.Join(u.TechStack, ", "))
			}
			color.Cyan("%d user(s)", len(users))
			return nil
		},
	})

	return cmd
}
