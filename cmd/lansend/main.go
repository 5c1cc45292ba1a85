package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lansend/lansend/internal/dropzone"
	"github.com/lansend/lansend/internal/fastserve"
	"github.com/lansend/lansend/internal/firewall"
	"github.com/lansend/lansend/internal/logger"
	"github.com/lansend/lansend/internal/metrics"
	"github.com/lansend/lansend/internal/netutil"
	"github.com/lansend/lansend/internal/ratelimiter"
	"github.com/lansend/lansend/internal/share"
	"github.com/lansend/lansend/internal/transfer"
	"github.com/lansend/lansend/internal/watcher"
	"github.com/lansend/lansend/internal/web"
	"github.com/lansend/lansend/pkg/config"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "init" {
		runInit(os.Args[2:])
		return
	}

	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	directory := flag.String("directory", "", "Directory to share (overrides config)")
	port := flag.Int("port", 0, "Web API port (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *directory != "" {
		cfg.Share.Directory = *directory
	}
	if *port != 0 {
		cfg.Web.Port = *port
		if cfg.FastTransfer.Port == *port {
			cfg.FastTransfer.Port = *port + 1
		}
	}

	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)
	if err := logger.SetOutput(cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to configure log output: %v", err)
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	if err := run(cfg); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	roots, err := share.NewRoots(cfg.Share.Directory)
	if err != nil {
		return fmt.Errorf("failed to set up shared directory: %w", err)
	}
	registry := transfer.NewRegistry(0)

	if cfg.Firewall.Manage {
		if err := firewall.OpenPorts(cfg.Web.Port, cfg.FastTransfer.Port); err != nil {
			logger.Warn("Firewall provisioning failed: %v", err)
		}
	}

	var zone *dropzone.Zone
	if cfg.DropZone.Enabled {
		index, err := dropzone.OpenIndex(cfg.DropZone.IndexPath)
		if err != nil {
			return fmt.Errorf("failed to open drop zone index: %w", err)
		}
		defer index.Close()

		store, err := config.NewDropStore(ctx, cfg.DropZone)
		if err != nil {
			return fmt.Errorf("failed to set up drop zone store: %w", err)
		}
		zone = dropzone.NewZone(index, store, cfg.DropZone.TTL)
		go zone.RunJanitor(ctx, cfg.DropZone.SweepInterval)
	}

	var onDirChange func(string)
	if cfg.Share.Watch {
		w, err := watcher.New(cfg.Share.WatchDebounce, func(path string) {
			logger.Info("Shared directory changed: %s", path)
		})
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		if err := w.Watch(roots.Shared()); err != nil {
			logger.Warn("Failed to watch shared directory: %v", err)
		}
		go w.Run(ctx)
		onDirChange = func(dir string) {
			if err := w.Watch(dir); err != nil {
				logger.Warn("Failed to watch %s: %v", dir, err)
			}
		}
	}

	var limiter *ratelimiter.ClientLimiter
	if cfg.Web.RateLimit.RequestsPerSecond > 0 {
		limiter = ratelimiter.New(cfg.Web.RateLimit.RequestsPerSecond, cfg.Web.RateLimit.Burst)
	}

	webServer := web.New(web.Config{
		Port:           cfg.Web.Port,
		MaxUploadBytes: cfg.Web.MaxUploadMB * 1024 * 1024,
	}, roots, registry, web.Options{
		Zone:        zone,
		Limiter:     limiter,
		FastPort:    cfg.FastTransfer.Port,
		OnDirChange: onDirChange,
	})

	fastServer := fastserve.New(fastserve.Config{
		Port:       cfg.FastTransfer.Port,
		ChunkSize:  cfg.FastTransfer.ChunkSizeMB * 1024 * 1024,
		SendBuffer: cfg.FastTransfer.SendBufferMB * 1024 * 1024,
		RecvBuffer: cfg.FastTransfer.RecvBufferMB * 1024 * 1024,
		PausePoll:  cfg.FastTransfer.PausePoll,
	}, roots, registry, nil)

	errCh := make(chan error, 2)
	go func() { errCh <- webServer.Serve(ctx) }()
	go func() { errCh <- fastServer.Serve(ctx) }()

	ip := netutil.LocalIP()
	logger.Info("Sharing %s", roots.Shared())
	logger.Info("Pair your phone at http://%s:%d/browser", ip, cfg.Web.Port)
	logger.Info("Fast transfers on %s:%d", ip, cfg.FastTransfer.Port)

	select {
	case <-ctx.Done():
		logger.Info("Shutting down...")
		// Let the second server finish its shutdown path too.
		<-errCh
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing config file")
	_ = fs.Parse(args)

	path, err := config.InitConfig(*force)
	if err != nil {
		log.Fatalf("Failed to write config: %v", err)
	}
	fmt.Printf("Config written to %s\n", path)
}
