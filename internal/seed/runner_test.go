package seed_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/carom/internal/adapters/http/api"
	"github.com/okian/carom/internal/adapters/repository"
	service "github.com/okian/carom/internal/app"
	"github.com/okian/carom/internal/seed"
	"github.com/okian/carom/pkg/logger"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := service.New(repository.NewMemoryStore(),
		service.WithLogger(logger.Discard()),
		service.WithWorkerCount(2),
		service.WithQueueSize(1000),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	r := chi.NewRouter()
	api.NewServer(svc, svc, api.WithLogger(logger.Discard())).Register(context.Background(), r)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Stop(context.Background())
	})
	return srv
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		srv := newServer(t)
		cfg := &seed.Config{
			BaseURL:        srv.URL,
			Users:          4,
			GamesPerUser:   6,
			Months:         2,
			Workers:        3,
			Timeout:        5 * time.Second,
			SettleTimeout:  5 * time.Second,
			ReplayFraction: 0.5,
			Seed:           7,
			Now:            time.Now(),
		}

		Convey("Seeding creates every game once and replays are duplicates", func() {
			stats, err := seed.Run(context.Background(), cfg)
			So(err, ShouldBeNil)
			So(stats.UsersCreated, ShouldEqual, 4)
			So(stats.GamesGenerated, ShouldEqual, 24)
			So(stats.GamesCreated, ShouldEqual, 24)
			So(stats.GamesDuplicate, ShouldEqual, 12)
			So(stats.GamesFailed, ShouldEqual, 0)
			So(stats.RankedPlayers, ShouldEqual, 4)
			So(stats.LeaderboardSize, ShouldEqual, 4)
			So(stats.LeaderboardTop, ShouldNotBeEmpty)
		})
	})

	Convey("Given an unreachable service", t, func() {
		srv := httptest.NewServer(nil)
		url := srv.URL
		srv.Close()

		_, err := seed.Run(context.Background(), &seed.Config{BaseURL: url, Users: 1, GamesPerUser: 1, Workers: 1, Timeout: time.Second})
		So(err, ShouldNotBeNil)
	})
}
