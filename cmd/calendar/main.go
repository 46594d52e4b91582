package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stern1978/calendar/internal/agenda"
	"github.com/stern1978/calendar/internal/capture"
	"github.com/stern1978/calendar/internal/config"
	"github.com/stern1978/calendar/internal/gcal"
	appLog "github.com/stern1978/calendar/internal/log"
	"github.com/stern1978/calendar/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	debug      bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("calendar dashboard starting")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"label_mode", conf.LabelMode,
		"calendar_suffix", conf.CalendarSuffix,
		"max_results", conf.MaxResults,
		"purge_past", conf.PurgePast,
		"refresh", conf.RefreshCron,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	// Credential failure is the one unrecoverable startup error.
	client, err := gcal.NewClient(ctx, conf.CredentialsFile, conf.TokenFile, conf.CalendarSuffix, conf.MaxResults)
	if err != nil {
		appLog.Error("calendar provider authorization failed", err)
		os.Exit(1)
	}

	assembler := agenda.New(client, client, agenda.Options{
		Mode:      agenda.ModeFromString(conf.LabelMode),
		Location:  conf.Location(),
		PurgePast: conf.PurgePast,
	})
	srv := web.NewServer(conf, client, assembler)

	if flags.once {
		res, err := srv.Refresh(ctx)
		if err != nil {
			appLog.Error("assemble failed", err)
			os.Exit(1)
		}
		fmt.Printf("%d upcoming events\n", len(res.Rows))
		return
	}

	startScheduler(ctx, conf, srv)

	httpSrv := &http.Server{
		Addr:    conf.Listen,
		Handler: srv.Handler(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}
	appLog.Info("calendar dashboard exiting")
}

// startScheduler runs the periodic background pass: re-assemble (which also
// purges stale events when enabled) and refresh the PNG preview.
func startScheduler(ctx context.Context, conf *config.Config, srv *web.Server) {
	c := cron.New()
	_, err := c.AddFunc(conf.RefreshCron, func() {
		runCtx, runCancel := context.WithTimeout(ctx, 2*time.Minute)
		defer runCancel()

		if _, err := srv.Refresh(runCtx); err != nil {
			appLog.Error("scheduled refresh failed", err)
			return
		}
		if err := capture.DashboardPNG(runCtx, capture.Options{
			URL:        "http://" + previewHost(conf.Listen) + "/",
			OutputPath: conf.Preview.Path,
			Width:      conf.Preview.Width,
			Height:     conf.Preview.Height,
		}); err != nil {
			appLog.Error("preview capture failed", err)
		}
	})
	if err != nil {
		appLog.Error("invalid refresh schedule, background refresh disabled", err, "refresh", conf.RefreshCron)
		return
	}
	c.Start()
	go func() {
		<-ctx.Done()
		c.Stop()
	}()
}

// previewHost rewrites a wildcard bind address into one Chromium can reach.
func previewHost(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

func parseFlags() flagConfig {
	var cfg flagConfig
	flag.StringVar(&cfg.configPath, "config", "config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one assemble/purge pass and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")
	flag.Parse()
	return cfg
}
