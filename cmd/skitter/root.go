package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/skitterhq/skitter/internal/app"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for skitter.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skitter",
		Short: "A recursive web and FTP crawler",
		Long: `Skitter is a recursive web and FTP crawler.

It downloads pages, follows their links to a configurable depth, mirrors
documents to disk, and keeps every URL it has seen in an on-disk frontier
so interrupted crawls can be resumed.

Examples:
  # Crawl a site three levels deep
  skitter crawl --level 3 https://example.com/

  # Mirror a site into ./mirror, politely
  skitter crawl -P mirror -w 2s --random-wait https://example.com/

  # Check links without saving anything
  skitter crawl --spider https://example.com/`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().Bool("log-json", false, "write logs as JSON instead of text")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// exitCodeError carries a crawl exit status through cobra's error return.
// The crawl itself has already logged whatever went wrong; the only job
// left for Execute is to exit with the right code.
type exitCodeError struct {
	code app.ExitStatus
}

// Error returns the human-readable name of the exit status.
func (e *exitCodeError) Error() string {
	return e.code.String()
}

// Execute runs the root command.
//
// Crawl failures exit with the wget-compatible status code they were
// classified as. Everything else (bad flags, unreadable config files)
// is a usage error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		var ec *exitCodeError
		if errors.As(err, &ec) {
			os.Exit(int(ec.code))
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(app.ExitUsageError))
	}
}
