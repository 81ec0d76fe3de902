package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/janelia-flyem/cleave/pkg/cleave"
	"github.com/janelia-flyem/cleave/pkg/config"
	cerrors "github.com/janelia-flyem/cleave/pkg/errors"
	"github.com/janelia-flyem/cleave/pkg/graph"
	"github.com/janelia-flyem/cleave/pkg/observability"
	"github.com/janelia-flyem/cleave/pkg/render"
)

// cacheProbe flips when the engine serves a graph from cache, so the result
// line can say "cached" vs "fresh".
type cacheProbe struct {
	hit atomic.Bool
}

func (p *cacheProbe) OnCacheHit(ctx context.Context, body uint64)        { p.hit.Store(true) }
func (p *cacheProbe) OnCacheMiss(ctx context.Context, body uint64)       {}
func (p *cacheProbe) OnCacheSet(ctx context.Context, body uint64, n int) {}

// newCleaveCmd creates the "cleave" command computing a single cleave.
func newCleaveCmd() *cobra.Command {
	var (
		configPath string
		server     string
		uuid       string
		instance   string
		strategy   string
		seedFlags  []string
		pointFlags []string
		commit     bool
		jsonOut    bool
		renderOut  string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "cleave <body>",
		Short: "Compute (and optionally commit) a cleave of one body",
		Long: `Cleave partitions a body's supervoxel adjacency graph into seed-consistent
groups. Seeds are given per group, either as supervoxel IDs or as voxel
coordinates:

  cleave cleave 12345 --server http://emdata:8900 --uuid a77b \
      --seed 1=1001,1002 --seed 2=2001

  cleave cleave 12345 -c cleave.toml --point 1=100:200:300 --point 2=400:500:600

With --commit the split is written back to DVID; group 1 keeps the original
body ID and every further group receives a fresh one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			body, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || body == 0 {
				return cerrors.New(cerrors.ErrCodeInvalidInput, "invalid body ID %q", args[0])
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if server != "" {
				cfg.DVID.Server = server
			}
			if uuid != "" {
				cfg.DVID.UUID = uuid
			}
			if instance != "" {
				cfg.DVID.Instance = instance
			}
			if noCache {
				cfg.Cache.Disabled = true
			}

			seeds, err := parseSeeds(seedFlags)
			if err != nil {
				return err
			}
			points, err := parsePoints(pointFlags)
			if err != nil {
				return err
			}
			if len(seeds) == 0 && len(points) == 0 {
				return cerrors.New(cerrors.ErrCodeInvalidInput, "at least one --seed or --point is required")
			}

			store, err := newStore(cfg)
			if err != nil {
				return err
			}
			graphCache, err := newCache(ctx, cfg)
			if err != nil {
				return err
			}
			defer graphCache.Close()

			probe := &cacheProbe{}
			observability.SetCacheHooks(probe)
			defer observability.SetCacheHooks(nil)

			engine := cleave.NewEngine(store, graphCache, cfg.Engine(), logger)

			spin := newSpinner(ctx, fmt.Sprintf("Cleaving body %d...", body))
			spin.Start()
			prog := newProgress(logger)
			res, err := engine.ComputeCleave(ctx, cleave.Request{
				Body:     graph.BodyID(body),
				Seeds:    seeds,
				Points:   points,
				Strategy: strategy,
			})
			if err != nil {
				spin.StopWithError(fmt.Sprintf("Cleave failed: %v", err))
				return err
			}
			spin.Stop()
			prog.done(fmt.Sprintf("Computed %d groups for body %d", len(res.Groups), body))

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else {
				printResult(res, probe.hit.Load())
			}

			if renderOut != "" {
				// The graph is still cached under the same mutation ID, so
				// this rebuild costs no extra store round-trips.
				builder := cleave.NewBuilder(store, graphCache, cfg.Cache.TTL.Duration, cfg.MaxGraphNodes)
				bg, err := builder.Build(ctx, graph.BodyID(body))
				if err != nil {
					return err
				}
				if err := writeRender(bg, res, seeds, renderOut); err != nil {
					return err
				}
				printFile(renderOut)
			}

			if commit {
				if !res.Valid {
					return cerrors.New(cerrors.ErrCodeInvalidInput,
						"refusing to commit an invalid result; resolve the warnings above or re-seed")
				}
				bodies, err := engine.Commit(ctx, res)
				if err != nil {
					return err
				}
				for _, label := range sortedLabels(bodies) {
					printSuccess("group %d %s body %d", label, iconArrow, bodies[label])
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	cmd.Flags().StringVar(&server, "server", "", "DVID server URL (overrides config)")
	cmd.Flags().StringVar(&uuid, "uuid", "", "DVID node UUID (overrides config)")
	cmd.Flags().StringVar(&instance, "instance", "", "labelmap instance name (overrides config)")
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "", "partition strategy: region-growing or min-cut")
	cmd.Flags().StringArrayVar(&seedFlags, "seed", nil, "seed group as label=sv1,sv2,... (repeatable)")
	cmd.Flags().StringArrayVar(&pointFlags, "point", nil, "seed point as label=x:y:z (repeatable)")
	cmd.Flags().BoolVar(&commit, "commit", false, "write the cleave back to DVID")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the full result as JSON")
	cmd.Flags().StringVar(&renderOut, "render", "", "write an SVG diagram of the cleave to this path")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the graph cache")

	return cmd
}

// printResult prints a human-readable result summary.
func printResult(res *cleave.Result, cached bool) {
	printStats(res.NumNodes, res.NumEdges, cached)
	for _, label := range sortedLabels(res.Groups) {
		printKeyValue(fmt.Sprintf("group %d", label), fmt.Sprintf("%d supervoxels", len(res.Groups[label])))
	}
	if len(res.Unassigned) > 0 {
		printKeyValue("unassigned", fmt.Sprintf("%d supervoxels", len(res.Unassigned)))
	}
	for _, w := range res.Warnings {
		printWarning("%s", w)
	}
	if res.Valid {
		printDetail("mutation %d · strategy %s · %s", res.MutationID, res.Strategy, res.Elapsed.Round(time.Millisecond))
	} else {
		printInfo("result is not committable as-is")
	}
}

// writeRender writes the assignment-colored diagram to path.
func writeRender(bg *cleave.BodyGraph, res *cleave.Result, seeds map[cleave.GroupLabel][]graph.SupervoxelID, path string) error {
	var seedList []graph.SupervoxelID
	for _, svs := range seeds {
		seedList = append(seedList, svs...)
	}
	dot := render.ToDOT(bg.Graph, res, render.Options{Seeds: seedList})
	svg, err := render.SVG(dot)
	if err != nil {
		return err
	}
	return os.WriteFile(path, svg, 0o644)
}

func sortedLabels[V any](m map[cleave.GroupLabel]V) []cleave.GroupLabel {
	labels := make([]cleave.GroupLabel, 0, len(m))
	for label := range m {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	return labels
}
