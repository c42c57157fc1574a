// graft hydrates the associations declared in a config file and prints them
// as documents.
//
//	graft -config graft.yaml -format yaml
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/syssam/graft"
	"github.com/syssam/graft/cache"
	"github.com/syssam/graft/codec"
	"github.com/syssam/graft/dialect"
	"github.com/syssam/graft/dialect/sql"
	"github.com/syssam/graft/dialect/sql/sqlgraph"
	"github.com/syssam/graft/schema"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "graft: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("graft", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		path   = fs.String("config", "graft.yaml", "config file")
		format = fs.String("format", "", "output format: json, msgpack or yaml")
		debug  = fs.Bool("debug", false, "log statements and hydration summaries")
		stats  = fs.Bool("stats", false, "log query statistics")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(*path, getenv)
	if err != nil {
		return err
	}
	if *format == "" {
		*format = cfg.Format
	}
	f, err := codec.ParseFormat(*format)
	if err != nil {
		return err
	}
	base, err := sql.Open(cfg.driverName(), cfg.DSN)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	defer base.Close()

	var (
		drv dialect.Driver = base
		sd  *sql.StatsDriver
	)
	switch {
	case *stats:
		opts := []sql.StatsOption{sql.WithSlowQueryLog(logger)}
		if cfg.Slow > 0 {
			opts = append(opts, sql.WithSlowThreshold(cfg.Slow))
		}
		sd = sql.NewStatsDriver(base, opts...)
		drv = sd
	case *debug:
		drv = sql.NewDebugDriver(base, logger)
	}

	loader, closeCache := newLoader(cfg.Cache, logger)
	defer closeCache()

	start := time.Now()
	out, conflicts, err := hydrateAll(ctx, drv, loader, cfg.Associations, f, logger)
	if err != nil {
		return err
	}
	for i, b := range out {
		if f == codec.YAML && i > 0 {
			fmt.Fprintln(stdout, "---")
		}
		if _, err := stdout.Write(b); err != nil {
			return err
		}
		if f != codec.MsgPack && !bytes.HasSuffix(b, []byte("\n")) {
			fmt.Fprintln(stdout)
		}
	}
	logger.Debug("graft: done", "associations", len(out), "conflicts", conflicts, "elapsed", time.Since(start))
	if sd != nil {
		logger.Info("query stats", "stats", sd.QueryStats().Stats())
	}
	return nil
}

// newLoader returns the result loader of the cache config.
func newLoader(cfg CacheConfig, logger *slog.Logger) (*cache.Loader, func()) {
	if cfg.Redis == "" {
		return cache.NewLoader(cache.NewMemory(), cfg.TTL, cache.WithLogger(logger)), func() {}
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "graft:"
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Redis})
	c := cache.NewRedis(client, prefix)
	return cache.NewLoader(c, cfg.TTL, cache.WithLogger(logger)), func() { client.Close() }
}

// hydrateAll hydrates and encodes every association concurrently. The
// results are in the order of assocs.
func hydrateAll(ctx context.Context, drv dialect.Driver, loader *cache.Loader, assocs []*schema.Association, f codec.Format, logger *slog.Logger) ([][]byte, int, error) {
	var diag graft.Diagnostics
	out := make([][]byte, len(assocs))
	g, ctx := errgroup.WithContext(ctx)
	for i, a := range assocs {
		g.Go(func() error {
			key := cache.Key{Parent: a.Parent.Name, Edge: a.Name, Format: string(f)}
			b, err := loader.Load(ctx, key.String(), func(ctx context.Context) ([]byte, error) {
				parents, err := graft.Hydrate(
					sqlgraph.QueryRows(ctx, drv, a.JoinSpec()),
					a.KeySpec(),
					graft.WithLogger(logger.With("association", key.String())),
					diag.Option(),
				)
				if err != nil {
					return nil, err
				}
				return codec.Marshal(f, parents, a.Names())
			})
			if err != nil {
				return fmt.Errorf("%s.%s: %w", a.Parent.Name, a.Name, err)
			}
			out[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return out, len(diag.Conflicts()), nil
}
