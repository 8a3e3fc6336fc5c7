package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"riftcore/internal/arena"
	"riftcore/internal/combat"
	"riftcore/internal/config"
	"riftcore/internal/metrics"
	"riftcore/internal/store"
	"riftcore/internal/util"
)

type options struct {
	envFile  string
	cfgDir   string
	out      string
	bossRef  string
	seed     int64
	n        int
	saveLog  bool
	strict   bool
	maxTicks int
	resume   string
	save     string
}

func main() {
	var o options
	flag.StringVar(&o.envFile, "env", ".env", "dotenv file with RIFT_* settings")
	flag.StringVar(&o.cfgDir, "config", "", "config dir (default RIFT_ASSETS_DIR)")
	flag.StringVar(&o.out, "out", "out.json", "output file (single) or summary file (batch)")
	flag.StringVar(&o.bossRef, "boss", "rift_warden", "boss id or path to a boss yaml")
	flag.Int64Var(&o.seed, "seed", 12345, "seed")
	flag.IntVar(&o.n, "n", 1, "number of simulations")
	flag.BoolVar(&o.saveLog, "log", true, "save full event log when n==1")
	flag.BoolVar(&o.strict, "strict", false, "panic on combat invariant violations")
	flag.IntVar(&o.maxTicks, "max-ticks", 0, "tick limit per run (default RIFT_MAX_TICKS)")
	flag.StringVar(&o.resume, "resume", "", "resume the boss from this snapshot key (single run)")
	flag.StringVar(&o.save, "save", "", "save the final boss snapshot under this key (single run)")
	flag.Parse()

	rt, err := config.LoadRuntime(o.envFile)
	if err != nil {
		logrus.Fatalf("runtime config: %v", err)
	}
	log := rt.Logger()
	if o.cfgDir == "" {
		o.cfgDir = rt.AssetsDir
	}
	if o.maxTicks <= 0 {
		o.maxTicks = rt.MaxTicks
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, rt, log); err != nil {
		log.WithError(err).Fatal("simsvc failed")
	}
}

func run(ctx context.Context, o options, rt *config.Runtime, log *logrus.Logger) error {
	heroes, bosses, err := config.LoadAll(o.cfgDir)
	if err != nil {
		return err
	}
	bossCfg, ok := bosses[o.bossRef]
	if !ok {
		if bossCfg, err = config.ResolveBoss(o.bossRef); err != nil {
			return err
		}
	}

	mc := metrics.NewCollector()
	g, gctx := errgroup.WithContext(ctx)
	srvCtx, stopSrv := context.WithCancel(gctx)
	defer stopSrv()
	if rt.MetricsAddr != "" {
		g.Go(func() error { return mc.Serve(srvCtx, rt.MetricsAddr) })
	}

	g.Go(func() error {
		defer stopSrv()
		if o.n <= 1 {
			return single(gctx, o, rt, log, mc, bossCfg, heroes)
		}
		return batch(gctx, o, rt, log, mc, bossCfg, heroes)
	})
	return g.Wait()
}

func snapshots(ctx context.Context, rt *config.Runtime) (*store.SnapshotStore, func(), error) {
	if rt.RedisAddr == "" {
		return nil, nil, errors.New("RIFT_REDIS_ADDR is required for -resume and -save")
	}
	client, err := store.Connect(ctx, store.Options{
		Addr:       rt.RedisAddr,
		Password:   rt.RedisPassword,
		DB:         rt.RedisDB,
		MaxRetries: rt.RedisMaxRetries,
	})
	if err != nil {
		return nil, nil, err
	}
	return store.NewSnapshotStore(client, rt.SnapshotTTL), func() { client.Close() }, nil
}

func single(ctx context.Context, o options, rt *config.Runtime, log *logrus.Logger, mc *metrics.Collector,
	bossCfg *config.BossConfig, heroes *config.HeroesConfig) error {
	var (
		st     *store.SnapshotStore
		resume *combat.Snapshot
	)
	if o.resume != "" || o.save != "" {
		s, closeFn, err := snapshots(ctx, rt)
		if err != nil {
			return err
		}
		defer closeFn()
		st = s
	}
	if o.resume != "" {
		snap, err := st.Load(ctx, o.resume)
		if err != nil {
			return err
		}
		resume = snap
	}

	res, err := arena.Run(ctx, arena.Params{
		Boss:     bossCfg,
		Heroes:   heroes,
		Seed:     o.seed,
		MaxTicks: o.maxTicks,
		Record:   o.saveLog,
		Strict:   o.strict,
		Resume:   resume,
		Logger:   log,
		Observer: mc.Observer(bossCfg.ID),
	})
	if err != nil {
		return err
	}
	mc.ObserveRun(res)

	if o.save != "" && res.Snapshot != nil {
		if err := st.Save(ctx, o.save, *res.Snapshot); err != nil {
			return err
		}
	}
	if err := os.WriteFile(o.out, arena.MarshalPretty(res), 0644); err != nil {
		return err
	}
	fmt.Printf("Single simsvc finished. Win=%v, T=%d ticks, DPS=%.2f -> %s\n", res.Win, res.Ticks, res.DPS, o.out)
	return nil
}

func batch(ctx context.Context, o options, rt *config.Runtime, log *logrus.Logger, mc *metrics.Collector,
	bossCfg *config.BossConfig, heroes *config.HeroesConfig) error {
	results := make([]*arena.Result, o.n)
	observe := mc.Observer(bossCfg.ID)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rt.Workers)
	for i := 0; i < o.n; i++ {
		i := i
		g.Go(func() error {
			res, err := arena.Run(gctx, arena.Params{
				Boss:     bossCfg,
				Heroes:   heroes,
				Seed:     util.SeedFor(o.seed, i),
				MaxTicks: o.maxTicks,
				Strict:   o.strict,
				Logger:   log,
				Observer: observe,
			})
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			res.Snapshot = nil
			mc.ObserveRun(res)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	summary := arena.NewSummary()
	for _, r := range results {
		summary.Add(r)
	}
	if err := os.WriteFile(o.out, arena.MarshalPretty(summary), 0644); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"runs": o.n, "win_rate": summary.WinRate}).Info("batch finished")
	fmt.Printf("Batch %d done -> %s\n", o.n, filepath.Base(o.out))
	return nil
}
