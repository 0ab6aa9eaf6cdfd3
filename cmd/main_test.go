package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/outreach/internal/config"
	"github.com/okian/outreach/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func TestConfigFromEnvironment(t *testing.T) {
	convey.Convey("Given OUTREACH_ environment overrides", t, func() {
		_ = os.Setenv("OUTREACH_ADDR", ":8080")
		_ = os.Setenv("OUTREACH_QUEUE_SIZE", "1000")
		_ = os.Setenv("OUTREACH_WORKER_COUNT", "4")
		defer func() {
			_ = os.Unsetenv("OUTREACH_ADDR")
			_ = os.Unsetenv("OUTREACH_QUEUE_SIZE")
			_ = os.Unsetenv("OUTREACH_WORKER_COUNT")
		}()

		convey.Convey("Then the loaded config reflects them", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
		})
	})

	convey.Convey("Given an empty listen address", t, func() {
		_ = os.Setenv("OUTREACH_ADDR", "")
		defer func() { _ = os.Unsetenv("OUTREACH_ADDR") }()

		convey.Convey("Then loading fails", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestBuildService(t *testing.T) {
	convey.Convey("Given the default config", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)

		convey.Convey("When building without a database", func() {
			svc, err := buildService(ctx, cfg, logger.NewNop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc, convey.ShouldNotBeNil)

			convey.Convey("Then the service starts on the memory store", func() {
				convey.So(svc.Start(ctx), convey.ShouldBeNil)
				defer svc.Stop()
				stats := svc.GetStats(ctx)
				convey.So(stats["started"], convey.ShouldBeTrue)
				convey.So(stats["totalFilings"], convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the database URL is malformed", func() {
			cfg.DatabaseURL = "not a database url"
			cfg.MigrateOnStart = false
			svc, err := buildService(ctx, cfg, logger.NewNop())

			convey.Convey("Then building fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(svc, convey.ShouldBeNil)
			})
		})
	})
}

func TestNewHandler(t *testing.T) {
	convey.Convey("Given a handler built from the default config", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		svc, err := buildService(ctx, cfg, logger.NewNop())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		handler := newHandler(ctx, svc, cfg, logger.NewNop())

		for _, path := range []string{"/", "/healthz", "/stats", "/openapi.yaml", "/api-docs", "/filings"} {
			convey.Convey("Then GET "+path+" is served", func() {
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			})
		}

		convey.Convey("Then an unknown filing is a 404", func() {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/filings/missing", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestServiceMetricsUpdater(t *testing.T) {
	convey.Convey("Given a running service", t, func() {
		ctx := context.Background()
		svc, err := buildService(ctx, config.New(ctx), logger.NewNop())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		convey.Convey("Then the updater returns once its context ends", func() {
			runCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()

			done := make(chan struct{})
			go func() {
				startServiceMetricsUpdater(runCtx, svc)
				close(done)
			}()

			select {
			case <-done:
				convey.So(true, convey.ShouldBeTrue)
			case <-time.After(time.Second):
				convey.So("updater did not stop", convey.ShouldBeEmpty)
			}
		})
	})
}

func TestSystemMetricsUpdater(t *testing.T) {
	convey.Convey("Given the system metrics sampler", t, func() {
		convey.So(updateSystemMetrics, convey.ShouldNotPanic)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
	})
}
