package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/blissctl/internal/daemon"
	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
	"github.com/eliteGoblin/focusd/blissctl/internal/infra"
	"github.com/eliteGoblin/focusd/blissctl/internal/tui"
	"github.com/eliteGoblin/focusd/blissctl/internal/usecase"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive dashboard",
	Long: `Opens the full-screen dashboard. Status is polled in the background;
block lists can be edited while no session is running.`,
	RunE: runDashboard,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session status",
	RunE:  runStatus,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Show status, quote length and all block lists",
	RunE:  runRefresh,
}

var startCmd = &cobra.Command{
	Use:   "start [minutes]",
	Short: "Start a focus session",
	Long:  `Starts a session of the given length in minutes (default 25).`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStart,
}

var panicCmd = &cobra.Command{
	Use:   "panic",
	Short: "End the running session after a typing challenge",
	Long: `Shows a quote that must be retyped with at least 95% accuracy.
Only then is the session ended. There is no limit on attempts.`,
	RunE: runPanic,
}

var clockCmd = &cobra.Command{
	Use:   "clock",
	Short: "Print the session countdown",
	RunE:  runClock,
}

var clockOnce bool

func init() {
	clockCmd.Flags().BoolVar(&clockOnce, "once", false, "Print the countdown once and exit")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return report(err)
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()

	var store domain.AuditLog
	if l, err := a.openAudit(); err != nil {
		a.logger.Warn("audit log unavailable", zap.Error(err))
	} else {
		defer l.Close()
		store = l
	}

	if a.cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: a.cfg.Metrics.Addr, Handler: metricsMux()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	poller := daemon.NewPoller(daemon.PollerConfig{Interval: a.cfg.Poll.Interval}, a.controller, a.logger.Named("poller"))
	poller.Start(ctx)
	defer poller.Stop()

	clock := daemon.NewClock(daemon.DefaultClockConfig(), infra.NewFileEndTimeReader(a.cfg.Clock.EndTimePath), a.logger.Named("clock"))

	deps := tui.Deps{
		Controller: a.controller,
		Quotes:     infra.NewFileQuoteSource(a.cfg.QuoteDirs()...),
		Audit:      infra.NewMeteredAuditLog(store),
		Clock:      clock,
	}

	p := tea.NewProgram(tui.NewModel(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", infra.MetricsHandler())
	return mux
}

func printSession(s domain.SessionState) {
	fmt.Println(s.StatusText)
	fmt.Println(s.RemainingText)
	fmt.Println(s.PFText)
	if !s.EndsAt.IsZero() {
		fmt.Printf("ends at: %s\n", s.EndsAt.Local().Format(time.Kitchen))
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return report(err)
	}
	defer a.close()

	err = a.controller.PollOnce(cmd.Context())
	printSession(a.controller.Snapshot().Session)
	return report(err)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return report(err)
	}
	defer a.close()

	err = a.controller.RefreshAll(cmd.Context())
	s := a.controller.Snapshot()

	printSession(s.Session)
	fmt.Printf("quote length: %s\n", s.QuoteLength)
	printList("Websites", s.Lists.Websites)
	printApps(s.Lists.Apps)
	printList("Browsers", s.Lists.Browsers)
	return report(err)
}

func runStart(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return report(err)
	}
	defer a.close()

	minutes := usecase.DefaultMinutes
	if len(args) == 1 {
		minutes = strings.TrimSpace(args[0])
	}
	if err := a.controller.StartSession(cmd.Context(), minutes); err != nil {
		return report(err)
	}
	printSession(a.controller.Snapshot().Session)
	return nil
}

func runPanic(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return report(err)
	}
	defer a.close()

	ctx := cmd.Context()
	if err := a.controller.RefreshAll(ctx); err != nil {
		a.logger.Debug("refresh before challenge failed", zap.Error(err))
	}
	s := a.controller.Snapshot()
	if !s.Session.IsRunning() {
		fmt.Println("No session is running.")
		return nil
	}

	var audit domain.AuditLog
	if l, err := a.openAudit(); err != nil {
		a.logger.Warn("audit log unavailable", zap.Error(err))
	} else {
		defer l.Close()
		audit = l
	}

	quotes := infra.NewFileQuoteSource(a.cfg.QuoteDirs()...)
	gate := a.controller.NewChallenge(quotes.RandomQuote(s.QuoteLength), infra.NewMeteredAuditLog(audit))

	fmt.Println("Type the quote below exactly, then press Enter. Ctrl-D cancels.")
	fmt.Println()
	fmt.Println(gate.Prompt())
	fmt.Println()

	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			gate.Cancel()
			fmt.Println()
			return nil
		}
		gate.SetTyped(in.Text())

		result, err := gate.Submit(ctx)
		fmt.Printf("Accuracy: %d%%\n", int(math.Round(gate.Accuracy())))
		switch result {
		case usecase.ChallengeSessionEnded:
			fmt.Println("Session ended.")
			return nil
		case usecase.ChallengeRejected:
			fmt.Println(usecase.MsgChallengeFailed)
		case usecase.ChallengeEngineFailed:
			fmt.Println(usecase.MsgOverrideFailed)
			if errors.Is(err, context.Canceled) {
				return err
			}
			_ = report(err)
		}
	}
}

func runClock(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return report(err)
	}
	defer a.close()

	clock := daemon.NewClock(daemon.DefaultClockConfig(), infra.NewFileEndTimeReader(a.cfg.Clock.EndTimePath), a.logger.Named("clock"))
	if clockOnce {
		fmt.Println(clock.Text())
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	err = clock.Run(ctx, func(text string) {
		fmt.Printf("\r%s", text)
	})
	fmt.Println()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
