package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/carom/internal/adapters/mq/publisher"
	"github.com/okian/carom/internal/adapters/repository"
	"github.com/okian/carom/internal/config"
	"github.com/okian/carom/pkg/logger"
)

func TestLoadBenchmarks(t *testing.T) {
	convey.Convey("Given a config", t, func() {
		cfg := config.New()

		convey.Convey("Without a benchmark file the built-in table is used", func() {
			table, err := loadBenchmarks(cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(table.Len(), convey.ShouldBeGreaterThan, 0)
		})

		convey.Convey("A benchmark file replaces the table", func() {
			path := filepath.Join(t.TempDir(), "bench.yaml")
			body := "benchmarks:\n  - {handicap: 20, expected: 0.4, min: 0.35, max: 0.45}\n"
			convey.So(os.WriteFile(path, []byte(body), 0o600), convey.ShouldBeNil)
			cfg.BenchmarkFile = path

			table, err := loadBenchmarks(cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(table.Len(), convey.ShouldEqual, 1)
		})

		convey.Convey("A missing benchmark file fails", func() {
			cfg.BenchmarkFile = filepath.Join(t.TempDir(), "missing.yaml")
			_, err := loadBenchmarks(cfg)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestOpenStore(t *testing.T) {
	convey.Convey("Given the memory driver", t, func() {
		store, err := openStore(context.Background(), config.New())
		convey.So(err, convey.ShouldBeNil)
		convey.So(store, convey.ShouldHaveSameTypeAs, &repository.MemoryStore{})
		convey.So(store.Close(), convey.ShouldBeNil)
	})

	convey.Convey("Given the sqlite driver", t, func() {
		cfg := config.New()
		cfg.StoreDriver = config.DriverSQLite
		cfg.SQLitePath = filepath.Join(t.TempDir(), "carom.db")

		store, err := openStore(context.Background(), cfg)
		convey.So(err, convey.ShouldBeNil)
		convey.So(store.Close(), convey.ShouldBeNil)
	})

	convey.Convey("Given an unknown driver", t, func() {
		cfg := config.New()
		cfg.StoreDriver = "mongo"
		_, err := openStore(context.Background(), cfg)
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestRouter(t *testing.T) {
	convey.Convey("Given a started service behind the router", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.WorkerCount = 2
		cfg.EventQueueSize = 100

		table, err := loadBenchmarks(cfg)
		convey.So(err, convey.ShouldBeNil)
		store := repository.NewMemoryStore()
		svc, err := newService(cfg, store, table, publisher.Noop{}, logger.Discard())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		h := newRouter(ctx, cfg, svc, logger.Discard())
		get := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return w
		}

		convey.Convey("Health, docs and API routes are mounted", func() {
			convey.So(get("/healthz").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api-docs").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api/v1/users").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api/v1/benchmark/table").Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("The leaderboard limit follows the config", func() {
			convey.So(get("/api/v1/leaderboard?limit=100").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api/v1/leaderboard?limit=101").Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("Metrics updaters run without panicking", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)

			body := get("/metrics").Body.String()
			convey.So(strings.Contains(body, "carom_insights_system_goroutines"), convey.ShouldBeTrue)
		})
	})
}

func TestNewServiceRejectsBadTimezone(t *testing.T) {
	convey.Convey("An unknown timezone fails service construction", t, func() {
		cfg := config.New()
		cfg.Timezone = "Mars/Olympus"
		_, err := newService(cfg, repository.NewMemoryStore(), nil, publisher.Noop{}, logger.Discard())
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestMetricsUpdatersStopWithContext(t *testing.T) {
	convey.Convey("The updaters return once the context ends", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		done := make(chan struct{})
		go func() {
			startSystemMetricsUpdater(ctx)
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
		}
		convey.So(ctx.Err(), convey.ShouldNotBeNil)
		_, open := <-done
		convey.So(open, convey.ShouldBeFalse)
	})
}
