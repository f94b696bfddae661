package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daap14/retrospecs/internal/navigator"
)

type navigation struct {
	Path     string          `json:"path"`
	Redirect string          `json:"redirect,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

func newGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <path> [path...]",
		Short: "Navigate to one or more pages and print their data",
		Example: `  retrospecs get /
  retrospecs get /orgs/5 /orgs/5/teams/10`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var navOpts []navigator.Option
			if opts.session != "" {
				navOpts = append(navOpts, navigator.WithSession(opts.sessionCookie, opts.session))
			}
			nav, err := navigator.New(opts.baseURL, navOpts...)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			for _, path := range args {
				res, err := nav.Navigate(cmd.Context(), path)
				if err != nil {
					return fmt.Errorf("navigating to %s: %w", path, err)
				}
				if err := enc.Encode(navigation{Path: res.Path, Redirect: res.Redirect, Data: res.Data}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: hydrated %d entries, cache holds %d\n", res.Path, res.Hydrated, nav.Cache().Len())
			}
			return nil
		},
	}
}
