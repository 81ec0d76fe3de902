package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/janelia-flyem/cleave/pkg/cache"
	"github.com/janelia-flyem/cleave/pkg/config"
	cerrors "github.com/janelia-flyem/cleave/pkg/errors"
)

// newCacheCmd creates the cache management command.
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached body graphs",
	}

	cmd.AddCommand(newCacheClearCmd())

	return cmd
}

// newCacheClearCmd creates the "cache clear" subcommand. Only the shared
// Redis cache can be administered out of process; the in-memory cache dies
// with its service.
func newCacheClearCmd() *cobra.Command {
	var (
		configPath string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "clear [body]",
		Short: "Drop cached graphs for one body, or --all for every body",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Cache.RedisAddr == "" {
				printInfo("No Redis cache configured; nothing to clear")
				return nil
			}

			c, err := cache.NewRedisCache(ctx, cache.RedisConfig{
				Addr:      cfg.Cache.RedisAddr,
				Password:  cfg.Cache.RedisPass,
				DB:        cfg.Cache.RedisDB,
				Namespace: cfg.Cache.Namespace,
			})
			if err != nil {
				return fatalHint(err, "is redis reachable?")
			}
			defer c.Close()

			switch {
			case all:
				if err := c.DeletePrefix(ctx, "body:"); err != nil {
					return err
				}
				printSuccess("Cleared all cached body graphs")
			case len(args) == 1:
				body, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil || body == 0 {
					return cerrors.New(cerrors.ErrCodeInvalidInput, "invalid body ID %q", args[0])
				}
				if err := c.DeletePrefix(ctx, cache.BodyPrefix(body)); err != nil {
					return err
				}
				printSuccess("Cleared cached graphs for body %d", body)
			default:
				return cerrors.New(cerrors.ErrCodeInvalidInput, "pass a body ID or --all")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	cmd.Flags().BoolVar(&all, "all", false, "clear every cached body graph")

	return cmd
}
