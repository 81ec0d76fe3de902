package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/janelia-flyem/cleave/pkg/audit"
	"github.com/janelia-flyem/cleave/pkg/cache"
	"github.com/janelia-flyem/cleave/pkg/cleave"
	"github.com/janelia-flyem/cleave/pkg/config"
	"github.com/janelia-flyem/cleave/pkg/dvid"
	cerrors "github.com/janelia-flyem/cleave/pkg/errors"
	"github.com/janelia-flyem/cleave/pkg/graph"
)

// newStore builds the DVID client from the loaded config.
func newStore(cfg config.Config) (dvid.Client, error) {
	if cfg.DVID.Server == "" || cfg.DVID.UUID == "" {
		return nil, cerrors.New(cerrors.ErrCodeInvalidInput,
			"a DVID server and node UUID are required (--server/--uuid or the [dvid] config section)")
	}
	return dvid.NewHTTPClient(cfg.Store()), nil
}

// newCache builds the graph cache from the loaded config. Redis when an
// address is configured, the in-process cache otherwise.
func newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.RedisAddr != "" {
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:      cfg.Cache.RedisAddr,
			Password:  cfg.Cache.RedisPass,
			DB:        cfg.Cache.RedisDB,
			Namespace: cfg.Cache.Namespace,
		})
	}
	return cache.NewMemoryCache(cfg.Cache.MaxBodies), nil
}

// newRecorder builds the audit recorder from the loaded config. MongoDB when
// a URI is configured, in-memory otherwise.
func newRecorder(ctx context.Context, cfg config.Config) (audit.Recorder, error) {
	if cfg.Audit.MongoURI == "" {
		return audit.NewMemoryRecorder(), nil
	}
	return audit.NewMongoRecorder(ctx, audit.MongoConfig{
		URI:        cfg.Audit.MongoURI,
		Database:   cfg.Audit.Database,
		Collection: cfg.Audit.Collection,
	})
}

// parseSeeds parses repeated --seed flags of the form "label=sv1,sv2,...".
func parseSeeds(flags []string) (map[cleave.GroupLabel][]graph.SupervoxelID, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	seeds := make(map[cleave.GroupLabel][]graph.SupervoxelID, len(flags))
	for _, f := range flags {
		label, rest, ok := strings.Cut(f, "=")
		if !ok {
			return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "seed %q: want label=sv1,sv2,...", f)
		}
		l, err := strconv.ParseUint(strings.TrimSpace(label), 10, 32)
		if err != nil {
			return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "seed %q: bad group label %q", f, label)
		}
		for _, s := range strings.Split(rest, ",") {
			sv, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "seed %q: bad supervoxel %q", f, s)
			}
			seeds[cleave.GroupLabel(l)] = append(seeds[cleave.GroupLabel(l)], graph.SupervoxelID(sv))
		}
	}
	return seeds, nil
}

// parsePoints parses repeated --point flags of the form "label=x:y:z".
func parsePoints(flags []string) (map[cleave.GroupLabel][]graph.Point, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	points := make(map[cleave.GroupLabel][]graph.Point, len(flags))
	for _, f := range flags {
		label, rest, ok := strings.Cut(f, "=")
		if !ok {
			return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "point %q: want label=x:y:z", f)
		}
		l, err := strconv.ParseUint(strings.TrimSpace(label), 10, 32)
		if err != nil {
			return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "point %q: bad group label %q", f, label)
		}
		coords := strings.Split(rest, ":")
		if len(coords) != 3 {
			return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "point %q: want label=x:y:z", f)
		}
		var p graph.Point
		for i, c := range coords {
			v, err := strconv.ParseInt(strings.TrimSpace(c), 10, 32)
			if err != nil {
				return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "point %q: bad coordinate %q", f, c)
			}
			p[i] = int32(v)
		}
		points[cleave.GroupLabel(l)] = append(points[cleave.GroupLabel(l)], p)
	}
	return points, nil
}
