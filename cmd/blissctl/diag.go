package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/blissctl/internal/config"
	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
	"github.com/eliteGoblin/focusd/blissctl/internal/infra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the engine installation",
	Long: `Shows which engine executable is used, whether its root helper is
running, and what a status query currently returns.`,
	RunE: runDoctor,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent early-end attempts",
	RunE:  runHistory,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of attempts to show")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return report(err)
	}
	defer a.close()

	fmt.Println("\n=== blissctl doctor ===")

	path, found := infra.ResolveExecutable(a.cfg.EnginePaths())
	if found {
		fmt.Printf("Engine: %s\n", path)
	} else {
		fmt.Printf("Engine: %s (NOT FOUND)\n", path)
	}

	helper := infra.ProbeHelper(infra.NewProcessManager(), a.cfg.Helper.ProcessName)
	switch {
	case helper.Err != nil:
		fmt.Printf("Root helper (%s): unknown (%v)\n", helper.Name, helper.Err)
	case helper.Running:
		fmt.Printf("Root helper (%s): running (pids %v)\n", helper.Name, helper.PIDs)
	default:
		fmt.Printf("Root helper (%s): not running\n", helper.Name)
	}

	pollErr := a.controller.PollOnce(cmd.Context())
	s := a.controller.Snapshot()
	fmt.Println()
	printSession(s.Session)
	if s.LastError != nil {
		fmt.Printf("\nProblem: %s\n", s.LastError.Message)
		if s.LastError.Kind == domain.KindPrivilegedHelperUnavailable && !helper.Running {
			fmt.Println("The helper process was not found either. Run: sudo bliss repair")
		}
	}
	if s.LastOutput != "" && pollErr != nil {
		fmt.Printf("Output: %s\n", s.LastOutput)
	}

	fmt.Printf("\nConfig: %s\n", configDisplayPath())
	fmt.Printf("Data dir: %s\n", a.cfg.DataDir)
	fmt.Printf("Log: %s\n", a.cfg.Log.Path)
	fmt.Printf("Quotes: %v\n", a.cfg.QuoteDirs())
	fmt.Println("=======================")
	return nil
}

func configDisplayPath() string {
	if configPath != "" {
		return configPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "(default)"
	}
	return config.DefaultPath(home)
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return report(err)
	}
	defer a.close()

	audit, err := a.openAudit()
	if err != nil {
		return report(err)
	}
	defer audit.Close()

	attempts, err := audit.Recent(historyLimit)
	if err != nil {
		return report(err)
	}
	if len(attempts) == 0 {
		fmt.Println("No attempts recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACCURACY\tPASSED\tENGINE\tRESULT")
	for _, at := range attempts {
		engine := "-"
		if at.EngineCalled {
			engine = fmt.Sprintf("exit %d", at.ExitCode)
		}
		result := "rejected"
		switch {
		case at.Succeeded:
			result = "session ended"
		case at.EngineCalled:
			result = at.Kind.String()
		}
		fmt.Fprintf(w, "%s\t%.0f%%\t%t\t%s\t%s\n",
			at.At.Local().Format(time.DateTime), at.Accuracy, at.Passed, engine, result)
	}
	return w.Flush()
}
