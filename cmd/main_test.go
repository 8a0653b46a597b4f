package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/okian/bingo/internal/config"
	"github.com/okian/bingo/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithLevel("error")); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When loading configuration from the environment", func() {
			_ = os.Setenv("BINGO_ADDR", ":8080")
			_ = os.Setenv("BINGO_BOARD_SIZE", "9")
			_ = os.Setenv("BINGO_EASY_COUNT", "3")
			_ = os.Setenv("BINGO_NORMAL_COUNT", "3")
			_ = os.Setenv("BINGO_HARD_COUNT", "3")
			defer func() {
				for _, k := range []string{"BINGO_ADDR", "BINGO_BOARD_SIZE", "BINGO_EASY_COUNT", "BINGO_NORMAL_COUNT", "BINGO_HARD_COUNT"} {
					_ = os.Unsetenv(k)
				}
			}()

			cfg, err := config.Load(context.Background())

			convey.Convey("Then the overrides should apply", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.BoardSize, convey.ShouldEqual, 9)
				convey.So(cfg.Mix().Total(), convey.ShouldEqual, 9)
			})
		})
	})
}

func TestHandler(t *testing.T) {
	convey.Convey("Given a service built from default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.EasyCount, cfg.NormalCount, cfg.HardCount, cfg.BoardSize = 3, 3, 3, 9

		svc := newService(cfg, logger.Get())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		srv := httptest.NewServer(newHandler(ctx, cfg, svc, logger.Get()))
		defer srv.Close()
		client := &http.Client{Timeout: 5 * time.Second}

		convey.Convey("When requesting a default board", func() {
			resp, err := client.Post(srv.URL+"/boards", "application/json", http.NoBody)
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()

			convey.Convey("Then it should use the configured mix", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusCreated)
				convey.So(resp.Header.Get("X-Request-ID"), convey.ShouldNotBeEmpty)
				var body struct {
					Columns int               `json:"columns"`
					Cells   []json.RawMessage `json:"cells"`
				}
				convey.So(json.NewDecoder(resp.Body).Decode(&body), convey.ShouldBeNil)
				convey.So(body.Cells, convey.ShouldHaveLength, 9)
				convey.So(body.Columns, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When requesting the API docs", func() {
			resp, err := client.Get(srv.URL + "/openapi.yaml")
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()

			convey.Convey("Then the OpenAPI document should be served", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(resp.Header.Get("Content-Type"), convey.ShouldStartWith, "application/yaml")
			})
		})

		convey.Convey("When opening the board viewer", func() {
			resp, err := client.Get(srv.URL + "/")
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()

			convey.Convey("Then the page should be served", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(resp.Header.Get("Content-Type"), convey.ShouldStartWith, "text/html")
			})
		})

		convey.Convey("When scraping metrics", func() {
			resp, err := client.Get(srv.URL + "/healthz")
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()

			convey.Convey("Then the catalog gauges should be exported", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				data, err := io.ReadAll(resp.Body)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(data), convey.ShouldContainSubstring, `bingo_boards_catalog_goals{bucket="easy"} 67`)
			})
		})
	})
}

func TestServiceMetricsUpdater(t *testing.T) {
	convey.Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		cfg := config.New()
		svc := newService(cfg, logger.Get())

		convey.Convey("Then the updater should return promptly", func() {
			done := make(chan struct{})
			go func() {
				startServiceMetricsUpdater(ctx, svc)
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("updater did not stop")
			}
		})
	})
}
