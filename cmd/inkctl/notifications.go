package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/pkg/inbox"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	notifLimit    int
	watchInterval time.Duration
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"n"},
	Short:   "Notification commands",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your newest notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, _, err := signedIn(cmd.Context())
		if err != nil {
			return err
		}
		rows, err := api.ListNotifications(cmd.Context(), notifLimit)
		if err != nil {
			return err
		}
		return printRows(cmd.OutOrStdout(), rows)
	},
}

var notificationsCountCmd = &cobra.Command{
	Use:   "unread",
	Short: "Show the unread count",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, _, err := signedIn(cmd.Context())
		if err != nil {
			return err
		}
		count, err := api.UnreadCount(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), count)
		return nil
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark one notification as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		api, _, err := signedIn(cmd.Context())
		if err != nil {
			return err
		}
		return api.MarkAsRead(cmd.Context(), id)
	},
}

var notificationsReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification as read",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, _, err := signedIn(cmd.Context())
		if err != nil {
			return err
		}
		if err := api.MarkAllAsRead(cmd.Context()); err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), "All notifications marked as read")
		return nil
	},
}

var notificationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a notification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		api, _, err := signedIn(cmd.Context())
		if err != nil {
			return err
		}
		return api.DeleteNotification(cmd.Context(), id)
	},
}

var notificationsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print notifications as they arrive",
	Long:  "Streams new notifications over WebSocket and polls as a fallback until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		api, manager, err := signedIn(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		watcher := inbox.NewWatcher(inbox.New(), api, api,
			inbox.WithInterval(watchInterval),
			inbox.OnNew(func(n models.Notification) { _ = printRows(out, []models.Notification{n}) }),
		)

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return watcher.Run(ctx) })
		g.Go(func() error {
			manager.Run(ctx)
			return nil
		})
		return g.Wait()
	},
}

func init() {
	notificationsListCmd.Flags().IntVar(&notifLimit, "limit", 20, "Maximum rows (1-100)")
	notificationsWatchCmd.Flags().DurationVar(&watchInterval, "interval", inbox.DefaultPollInterval, "Poll interval")

	notificationsCmd.AddCommand(notificationsListCmd)
	notificationsCmd.AddCommand(notificationsCountCmd)
	notificationsCmd.AddCommand(notificationsReadCmd)
	notificationsCmd.AddCommand(notificationsReadAllCmd)
	notificationsCmd.AddCommand(notificationsDeleteCmd)
	notificationsCmd.AddCommand(notificationsWatchCmd)
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid notification id %q", s)
	}
	return uint(id), nil
}
