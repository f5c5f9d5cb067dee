package main

import (
	"context"
	"io"
	"io/ioutil"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin"

	overdns "github.com/overdns/overdns/lib-overdns"
	"github.com/overdns/overdns/lib-overdns/logger"
)

var (
	configPath       = kingpin.Flag("config", "Path to configuration file.").Short('c').Default("config.yml").PlaceHolder("PATH").String()
	apiListen        = kingpin.Flag("metrics-listen", "Address for metrics.").Short('l').Default(":9353").TCP()
	metricsNamespace = kingpin.Flag("metrics-namespace", "Namespace of prometheus metrics.").Default("overdns").String()
)

func loadStaticOverrides(paths []string) (overdns.AlternateResolver, error) {
	stages := overdns.AlternateResolver{}

	for _, path := range paths {
		raw, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, err
		}

		source, err := overdns.NewStaticOverridesFromConfig(raw)
		if err != nil {
			return nil, err
		}

		stages = append(stages, overdns.NewOverrideResolver(source))
	}

	return stages, nil
}

func makeOverrideSource(conf overdns.Config) (overdns.OverrideSource, error) {
	driver, dsn := conf.OverrideDriver()

	switch driver {
	case "":
		return nil, nil
	case "etcd":
		return overdns.NewEtcdOverrides(strings.Split(dsn, ","), "/overdns", conf.Timeout())
	default:
		return overdns.NewSQLOverrides(driver, dsn)
	}
}

func main() {
	kingpin.Parse()

	conf, err := overdns.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", logger.Fields{"path": *configPath, "error": err})
	}
	if err := conf.Validate(); err != nil {
		logger.Fatal("broken configuration", logger.Fields{"path": *configPath, "error": err})
	}

	level, err := logger.ParseLevel(conf.LogLevel)
	if err != nil {
		logger.Fatal("invalid log level", logger.Fields{"log_level": conf.LogLevel})
	}
	logger.SetLogger(logger.New(os.Stderr, level))

	metrics := overdns.NewMetrics(*metricsNamespace)

	upstream, err := conf.UpstreamAddr()
	if err != nil {
		logger.Fatal("invalid upstream address", logger.Fields{"upstream_dns": conf.UpstreamDNS, "error": err})
	}

	stages, err := loadStaticOverrides(conf.StaticOverrides)
	if err != nil {
		logger.Fatal("failed to load static overrides", logger.Fields{"error": err})
	}

	closers := []io.Closer{}

	source, err := makeOverrideSource(conf)
	if err != nil {
		logger.Fatal("failed to open override store", logger.Fields{"override_dsn": conf.OverrideDSN, "error": err})
	}
	if source != nil {
		closers = append(closers, source)
		stages = append(stages, overdns.NewOverrideResolver(source))
	}

	stages = append(stages, overdns.NewForwardResolver(upstream, conf.Timeout(), metrics))

	var resolver overdns.Resolver
	if conf.Redis != nil {
		addr, err := net.ResolveTCPAddr("tcp", conf.Redis.Address)
		if err != nil {
			logger.Fatal("invalid redis address", logger.Fields{"address": conf.Redis.Address, "error": err})
		}
		cache, err := overdns.NewRedisCache(addr, conf.Redis.Database, conf.Redis.Password, stages)
		if err != nil {
			logger.Fatal("failed to connect redis", logger.Fields{"address": conf.Redis.Address, "error": err})
		}
		closers = append(closers, cache)
		resolver = cache
	} else {
		cache := overdns.NewSnapshotCache(conf.CacheFile, stages)
		closers = append(closers, cache)
		resolver = cache
	}

	server := &overdns.Server{Metrics: metrics, Resolver: resolver}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("overdns starting", logger.Fields{
		"dns":     conf.BindAddr().String(),
		"metrics": (*apiListen).String(),
	})

	err = server.ListenAndServe(ctx, *apiListen, conf.BindAddr(), "udp")

	// closing the cache writes the final snapshot
	for _, c := range closers {
		if cerr := c.Close(); cerr != nil {
			logger.Error("failed to close", logger.Fields{"error": cerr})
		}
	}

	if err != nil {
		logger.Fatal("server stopped", logger.Fields{"error": err})
	}
}
