package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ppiankov/snowspectre/internal/app"
	"github.com/ppiankov/snowspectre/internal/logging"
	"github.com/spf13/cobra"
)

var (
	version    = "1.0.0"
	verbose    bool
	isFirstRun bool
)

// Exit codes for structured error reporting.
const (
	ExitSuccess    = 0
	ExitInternal   = 1
	ExitInvalidArg = 2
	ExitNotFound   = 3
	ExitNetwork    = 5
	ExitFindings   = 6
)

// FindingsError indicates the analysis completed but findings were detected.
type FindingsError struct {
	Count int
}

func (e *FindingsError) Error() string {
	return fmt.Sprintf("%d findings detected", e.Count)
}

func main() {
	logging.Init(false)
	isFirstRun = app.IsFirstRun()

	root := &cobra.Command{
		Use:   "snowspectre",
		Short: "Warehouse cost and data quality analyzer",
		Long: `SnowSpectre analyzes warehouse usage history to find oversized and
idle warehouses, estimate the savings of rightsizing them, and score
the data quality of the account's largest tables.

It reads query and metering history from account usage views and writes
JSON, text, CSV, or SARIF reports.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(verbose)
		},
	}

	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")
	root.SilenceUsage = true
	root.SilenceErrors = true

	root.AddCommand(NewAnalyzeCmd())
	root.AddCommand(NewServeCmd())
	root.AddCommand(NewHistoryCmd())
	root.AddCommand(NewVersionCmd())

	if isFirstRun {
		fmt.Fprintln(os.Stderr, "First run detected. Start with: snowspectre analyze --dsn <user:pass@account/db>")
	}

	if err := root.Execute(); err != nil {
		exitCode := classifyError(err)
		var fe *FindingsError
		if errors.As(err, &fe) {
			slog.Info("findings detected", slog.Int("count", fe.Count))
		} else {
			slog.Error("command failed", slog.String("error", err.Error()))
		}
		os.Exit(exitCode)
	}
}

// Message classes are checked in order; the not-found class wins over
// invalid-argument so "object does not exist" maps to ExitNotFound.
var exitClasses = []struct {
	code    int
	markers []string
}{
	{ExitNotFound, []string{"not a directory", "does not exist", "no such file", "not found"}},
	{ExitNetwork, []string{"dial", "connection refused", "i/o timeout", "network is unreachable"}},
	{ExitInvalidArg, []string{"required", "invalid", "must be", "expected"}},
}

func classifyError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var fe *FindingsError
	if errors.As(err, &fe) {
		return ExitFindings
	}

	if os.IsNotExist(err) {
		return ExitNotFound
	}

	msg := strings.ToLower(err.Error())
	for _, class := range exitClasses {
		for _, marker := range class.markers {
			if strings.Contains(msg, marker) {
				return class.code
			}
		}
	}

	return ExitInternal
}
