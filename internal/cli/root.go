// Package cli implements the retrospecs command line navigator.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

const defaultBaseURL = "http://localhost:8080"

type options struct {
	baseURL       string
	session       string
	sessionCookie string
}

// NewRootCmd builds the retrospecs command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "retrospecs",
		Short: "Navigate a RetroSpecs server from the terminal",
		Long: `retrospecs performs page navigations against a running RetroSpecs server.
Every navigation hydrates the returned cache snapshot into one cache that
lives for the whole invocation, the same way a browser tab does.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", envOr("RETROSPECS_BASE_URL", defaultBaseURL), "server base URL")
	root.PersistentFlags().StringVar(&opts.session, "session", os.Getenv("RETROSPECS_SESSION"), "session token to send")
	root.PersistentFlags().StringVar(&opts.sessionCookie, "session-cookie", "retrospecs_session", "session cookie name")

	root.AddCommand(newGetCmd(opts))
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
