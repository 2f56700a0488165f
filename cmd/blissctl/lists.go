package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
	"github.com/eliteGoblin/focusd/blissctl/internal/usecase"
)

var websiteCmd = &cobra.Command{
	Use:   "website",
	Short: "Manage blocked websites",
}

var appCmd = &cobra.Command{
	Use:   "app",
	Short: "Manage blocked applications",
}

var browserCmd = &cobra.Command{
	Use:   "browser",
	Short: "Manage blocked browsers",
}

var quotesCmd = &cobra.Command{
	Use:   "quotes",
	Short: "Show or set the challenge quote length",
}

func init() {
	websiteCmd.AddCommand(
		&cobra.Command{Use: "list", Short: "List blocked websites", RunE: runWebsiteList},
		&cobra.Command{Use: "add <domain>", Short: "Block a website", Args: cobra.ExactArgs(1), RunE: runWebsiteAdd},
		&cobra.Command{Use: "remove <domain>", Short: "Unblock a website", Args: cobra.ExactArgs(1), RunE: runWebsiteRemove},
	)
	appCmd.AddCommand(
		&cobra.Command{Use: "list", Short: "List blocked applications", RunE: runAppList},
		&cobra.Command{Use: "add <path>", Short: "Block an application bundle", Args: cobra.ExactArgs(1), RunE: runAppAdd},
		&cobra.Command{
			Use:   "remove <name|path|bundle-id>",
			Short: "Unblock an application",
			Long:  `Unblocks the listed application whose name, path or bundle ID matches.`,
			Args:  cobra.ExactArgs(1),
			RunE:  runAppRemove,
		},
	)
	browserCmd.AddCommand(
		&cobra.Command{Use: "list", Short: "List blocked browsers", RunE: runBrowserList},
		&cobra.Command{
			Use:   "add <name|path.app>",
			Short: "Block a browser",
			Long:  `Blocks a browser by name, or by the path of its .app bundle.`,
			Args:  cobra.ExactArgs(1),
			RunE:  runBrowserAdd,
		},
		&cobra.Command{Use: "remove <name>", Short: "Unblock a browser", Args: cobra.ExactArgs(1), RunE: runBrowserRemove},
	)
	quotesCmd.AddCommand(
		&cobra.Command{Use: "get", Short: "Show the quote length", RunE: runQuotesGet},
		&cobra.Command{
			Use:       "set <short|medium|long|huge>",
			Short:     "Set the quote length",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"short", "medium", "long", "huge"},
			RunE:      runQuotesSet,
		},
	)
}

// withSyncedApp runs fn after a status poll, so guarded mutations see the
// real session lock.
func withSyncedApp(cmd *cobra.Command, fn func(ctx context.Context, ctrl *usecase.Controller) error) error {
	a, err := newApp()
	if err != nil {
		return report(err)
	}
	defer a.close()

	ctx := cmd.Context()
	if err := a.controller.PollOnce(ctx); err != nil {
		return report(err)
	}
	return report(fn(ctx, a.controller))
}

func printList(title string, items []string) {
	fmt.Printf("%s:\n", title)
	if len(items) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, it := range items {
		fmt.Printf("  - %s\n", it)
	}
}

func printApps(apps []domain.AppEntry) {
	fmt.Println("Apps:")
	if len(apps) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, app := range apps {
		if d := app.Detail(); d != "" {
			fmt.Printf("  - %s (%s)\n", app.Name, d)
		} else {
			fmt.Printf("  - %s\n", app.Name)
		}
	}
}

func runWebsiteList(cmd *cobra.Command, args []string) error {
	return withSyncedApp(cmd, func(ctx context.Context, ctrl *usecase.Controller) error {
		err := ctrl.RefreshWebsites(ctx)
		printList("Websites", ctrl.Snapshot().Lists.Websites)
		return err
	})
}

func runWebsiteAdd(cmd *cobra.Command, args []string) error {
	return withSyncedApp(cmd, func(ctx context.Context, ctrl *usecase.Controller) error {
		if err := ctrl.AddWebsite(ctx, args[0]); err != nil {
			return err
		}
		printList("Websites", ctrl.Snapshot().Lists.Websites)
		return nil
	})
}

func runWebsiteRemove(cmd *cobra.Command, args []string) error {
	return withSyncedApp(cmd, func(ctx context.Context, ctrl *usecase.Controller) error {
		if err := ctrl.RemoveWebsite(ctx, args[0]); err != nil {
			return err
		}
		printList("Websites", ctrl.Snapshot().Lists.Websites)
		return nil
	})
}

func runAppList(cmd *cobra.Command, args []string) error {
	return withSyncedApp(cmd, func(ctx context.Context, ctrl *usecase.Controller) error {
		err := ctrl.RefreshApps(ctx)
		printApps(ctrl.Snapshot().Lists.Apps)
		return err
	})
}

func runAppAdd(cmd *cobra.Command, args []string) error {
	return withSyncedApp(cmd, func(ctx context.Context, ctrl *usecase.Controller) error {
		if err := ctrl.AddApp(ctx, strings.TrimSpace(args[0])); err != nil {
			return err
		}
		printApps(ctrl.Snapshot().Lists.Apps)
		return nil
	})
}

// runAppRemove resolves the argument against the listed entries and sends
// the matching entry's exact ID back to the engine.
func runAppRemove(cmd *cobra.Command, args []string) error {
	return withSyncedApp(cmd, func(ctx context.Context, ctrl *usecase.Controller) error {
		if err := ctrl.RefreshApps(ctx); err != nil {
			return err
		}
		entry, ok := findApp(ctrl.Snapshot().Lists.Apps, args[0])
		if !ok {
			// Let the engine report the stale reference.
			entry = domain.AppEntry{ID: args[0]}
		}
		if err := ctrl.RemoveApp(ctx, entry); err != nil {
			return err
		}
		printApps(ctrl.Snapshot().Lists.Apps)
		return nil
	})
}

func findApp(apps []domain.AppEntry, key string) (domain.AppEntry, bool) {
	for _, a := range apps {
		if a.ID == key || a.Name == key || a.Path == key || a.BundleID == key {
			return a, true
		}
	}
	return domain.AppEntry{}, false
}

func runBrowserList(cmd *cobra.Command, args []string) error {
	return withSyncedApp(cmd, func(ctx context.Context, ctrl *usecase.Controller) error {
		err := ctrl.RefreshBrowsers(ctx)
		printList("Browsers", ctrl.Snapshot().Lists.Browsers)
		return err
	})
}

func runBrowserAdd(cmd *cobra.Command, args []string) error {
	return withSyncedApp(cmd, func(ctx context.Context, ctrl *usecase.Controller) error {
		var err error
		if strings.Contains(args[0], "/") || strings.HasSuffix(args[0], ".app") {
			err = ctrl.AddBrowserFromAppPath(ctx, args[0])
		} else {
			err = ctrl.AddBrowser(ctx, strings.TrimSpace(args[0]))
		}
		if err != nil {
			return err
		}
		printList("Browsers", ctrl.Snapshot().Lists.Browsers)
		return nil
	})
}

func runBrowserRemove(cmd *cobra.Command, args []string) error {
	return withSyncedApp(cmd, func(ctx context.Context, ctrl *usecase.Controller) error {
		if err := ctrl.RemoveBrowser(ctx, args[0]); err != nil {
			return err
		}
		printList("Browsers", ctrl.Snapshot().Lists.Browsers)
		return nil
	})
}

func runQuotesGet(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return report(err)
	}
	defer a.close()

	_ = a.controller.SyncQuoteLength(cmd.Context())
	fmt.Printf("quotes: %s\n", a.controller.Snapshot().QuoteLength)
	return nil
}

func runQuotesSet(cmd *cobra.Command, args []string) error {
	length, ok := domain.ParseQuoteLength(args[0])
	if !ok {
		return report(fmt.Errorf("unknown quote length %q (want short, medium, long or huge)", args[0]))
	}
	return withSyncedApp(cmd, func(ctx context.Context, ctrl *usecase.Controller) error {
		err := ctrl.SetQuoteLength(ctx, length)
		fmt.Printf("quotes: %s\n", ctrl.Snapshot().QuoteLength)
		return err
	})
}
