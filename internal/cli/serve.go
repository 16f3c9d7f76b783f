package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/iconstack/internal/server"
	"github.com/matzehuels/iconstack/pkg/cache"
)

// serveCommand creates the serve command, which runs the HTTP API until
// interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var addr, redisURL string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			var store cache.Cache
			var err error
			if redisURL != "" && !noCache {
				store, err = cache.NewRedisCache(ctx, redisURL)
			} else {
				store, err = newCache(noCache)
			}
			if err != nil {
				return err
			}
			defer store.Close()
			logger.Debug("icon cache", "type", fmt.Sprintf("%T", store))

			srv := server.New(c.cfg, store, logger)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisURL, "redis-url", "", "share the icon cache through Redis (redis://host:port/db)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
