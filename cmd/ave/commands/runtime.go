package commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/asticode/go-astiav"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	errmonsentry "github.com/facebookincubator/go-belt/tool/experimental/errmon/implementation/sentry"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/xaionaro-go/ave/pkg/astiavlogger"
	"github.com/xaionaro-go/ave/pkg/logwriter"
	"github.com/xaionaro-go/ave/pkg/media/libav"
	"github.com/xaionaro-go/ave/pkg/observability"
)

var closeFuncs []func()

func initRuntime(cmd *cobra.Command) error {
	ctx := cmd.Context()
	observability.LogLevelFilter.SetLevel(LoggerLevel)
	l := logger.FromCtx(ctx)
	logger.Debugf(ctx, "log-level: %v", LoggerLevel)

	sentryDSN, _ := cmd.Flags().GetString("sentry-dsn")
	if sentryDSN != "" {
		l.Infof("setting up Sentry at DSN '%s'", sentryDSN)
		sentryClient, err := sentry.NewClient(sentry.ClientOptions{
			Dsn: sentryDSN,
		})
		if err != nil {
			return fmt.Errorf("unable to initialize the Sentry client: %w", err)
		}
		ctx = errmon.CtxWithErrorMonitor(ctx, errmonsentry.New(sentryClient))
	}

	listenMetrics, _ := cmd.Flags().GetString("listen-metrics")
	if listenMetrics != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{
			Addr:     listenMetrics,
			Handler:  mux,
			ErrorLog: logwriter.NewStdLogger(l, logger.LevelWarning),
		}
		observability.Go(ctx, "metrics-listener", func(ctx context.Context) {
			logger.Infof(ctx, "starting to listen for metrics requests at '%s'", listenMetrics)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Errorf(ctx, "the metrics listener stopped: %v", err)
			}
		})
		closeFuncs = append(closeFuncs, func() { _ = srv.Close() })
	}

	astiav.SetLogLevel(libav.LogLevelToAstiav(LoggerLevel))
	astiav.SetLogCallback(astiavlogger.Callback(l))

	cmd.SetContext(ctx)
	return nil
}

func closeRuntime(ctx context.Context) {
	defer belt.Flush(ctx)
	for i := len(closeFuncs) - 1; i >= 0; i-- {
		closeFuncs[i]()
	}
	closeFuncs = nil
}
