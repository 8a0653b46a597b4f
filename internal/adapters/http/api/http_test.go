package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/bingo/internal/adapters/http/api"
	service "github.com/okian/bingo/internal/app"
	"github.com/okian/bingo/internal/domain/model"
	"github.com/okian/bingo/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithLevel("error")); err != nil {
		panic(err)
	}
}

func testCatalog() *model.Catalog {
	g := func(name string, d int, tags ...string) model.Goal {
		return model.Goal{Name: name, Difficulty: d, Tags: tags}
	}
	return &model.Catalog{
		Rules: []string{"Complete a line."},
		Goals: []model.Goal{
			g("e1", 1, "Fish"), g("e2", 2, "Insects"), g("e3", 2, "Series"), g("e4", 1, "Series"),
			g("n1", 4, "Tasks"), g("n2", 5, "Events"), g("n3", 5, "Nature"),
			g("h1", 7, "Debts"), g("h2", 9, "Debts"), g("h3", 10, "Holidays"), g("h4", 8, "Villagers"),
		},
		Tags: map[string]model.TagMeta{
			"Series": {AllowMultiple: true, SingleUse: true},
			"Debts":  {AllowMultiple: false, SingleUse: true},
		},
		Thresholds: model.Thresholds{EasyMax: 3, NormMin: 3, NormMax: 6, HardMin: 6},
	}
}

func newTestServer(opts ...service.Option) (*service.Service, http.Handler) {
	opts = append([]service.Option{
		service.WithCatalog(testCatalog()),
		service.WithDefaultMix(model.Mix{Easy: 2, Normal: 2, Hard: 2}),
	}, opts...)
	svc := service.New(opts...)
	So(svc.Start(context.Background()), ShouldBeNil)

	mux := http.NewServeMux()
	api.NewServer(svc, 10).Register(context.Background(), mux)
	return svc, api.RequestMiddleware(logger.Get(), mux)
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func decodeBoard(w *httptest.ResponseRecorder) model.Board {
	var b model.Board
	So(json.Unmarshal(w.Body.Bytes(), &b), ShouldBeNil)
	return b
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		svc, h := newTestServer()
		defer svc.Stop()

		Convey("Then health should expose Prometheus metrics", func() {
			w := do(h, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "bingo_boards_catalog_goals")
		})

		Convey("Then health should answer JSON clients with a status", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set("Accept", "application/json")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["status"], ShouldEqual, "ok")
		})

		Convey("Then stats should be served as JSON", func() {
			w := do(h, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Cache-Control"), ShouldEqual, "no-store")
			body := decode(w)
			So(body["started"], ShouldEqual, true)
			So(body["catalogGoals"], ShouldEqual, float64(11))
			So(body, ShouldContainKey, "uptimeSeconds")
		})

		Convey("Then the catalog should be served", func() {
			w := do(h, http.MethodGet, "/catalog", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(len(body["goals"].([]any)), ShouldEqual, 11)
			So(body["difficulty"].(map[string]any)["hardmin"], ShouldEqual, float64(6))
		})

		Convey("Then unknown paths should be 404", func() {
			So(do(h, http.MethodGet, "/unknown", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then wrong methods should be rejected", func() {
			So(do(h, http.MethodGet, "/sessions", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("Then every response should carry a request ID", func() {
			w := do(h, http.MethodGet, "/stats", "")
			So(w.Header().Get(api.HeaderRequestID), ShouldNotBeEmpty)

			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			req.Header.Set(api.HeaderRequestID, "req-42")
			w = httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Header().Get(api.HeaderRequestID), ShouldEqual, "req-42")
		})
	})
}

func TestBoards(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		svc, h := newTestServer()
		defer svc.Stop()

		Convey("When posting an empty body", func() {
			w := do(h, http.MethodPost, "/boards", "")

			Convey("Then a default board should be created", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				b := decodeBoard(w)
				So(b.ID, ShouldNotBeEmpty)
				So(b.Size(), ShouldEqual, 6)
				So(b.Seed, ShouldBeGreaterThan, 0)
			})

			Convey("And it should be readable by ID and in the list", func() {
				id := decodeBoard(w).ID
				got := do(h, http.MethodGet, "/boards/"+id, "")
				So(got.Code, ShouldEqual, http.StatusOK)
				So(decodeBoard(got).ID, ShouldEqual, id)

				list := do(h, http.MethodGet, "/boards?limit=1", "")
				So(list.Code, ShouldEqual, http.StatusOK)
				body := decode(list)
				So(body["count"], ShouldEqual, float64(1))
			})
		})

		Convey("When posting the same seed and order twice", func() {
			body := `{"mix":{"easy":1,"normal":1,"hard":1},"seed":77,"order":[2,1,0]}`
			first := decodeBoard(do(h, http.MethodPost, "/boards", body))
			second := decodeBoard(do(h, http.MethodPost, "/boards", body))

			Convey("Then both boards should hold the same goals in the same cells", func() {
				So(first.Goals(), ShouldResemble, second.Goals())
				So(first.Cells[2].Bucket, ShouldEqual, model.Easy)
				So(first.Cells[0].Bucket, ShouldEqual, model.Hard)
			})
		})

		Convey("When the caller names exhausted goals", func() {
			w := do(h, http.MethodPost, "/boards", `{"mix":{"easy":2},"exhausted":["e1","e2"]}`)

			Convey("Then the board should report the goals it exhausts", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				b := decodeBoard(w)
				So(b.SingleUseTags, ShouldResemble, []string{"Series"})
				So(b.Exhausted, ShouldResemble, []string{"e3", "e4"})
			})
		})

		Convey("When the pool cannot fill a bucket", func() {
			w := do(h, http.MethodPost, "/boards", `{"mix":{"hard":4}}`)

			Convey("Then 422 should carry the shortfall", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				body := decode(w)
				So(body["code"], ShouldEqual, "insufficient_pool")
				details := body["details"].(map[string]any)
				So(details["bucket"], ShouldEqual, "hard")
				So(details["requested"], ShouldEqual, float64(4))
				So(details["shortfall"], ShouldEqual, float64(1))
			})

			Convey("And the error metrics should carry the API code", func() {
				exposition := do(h, http.MethodGet, "/healthz", "").Body.String()
				So(exposition, ShouldContainSubstring,
					`bingo_boards_errors_by_endpoint_total{endpoint="boards",error_type="insufficient_pool",method="POST"}`)
			})
		})

		Convey("When the mix does not add up to the size", func() {
			w := do(h, http.MethodPost, "/boards", `{"size":5,"mix":{"easy":1,"normal":1,"hard":1}}`)

			Convey("Then 400 invalid_config should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, "invalid_config")
			})
		})

		Convey("When the body is malformed", func() {
			cases := []struct {
				name string
				body string
				want string
			}{
				{"unknown field", `{"colour":"red"}`, "colour"},
				{"negative size", `{"size":-1}`, "size"},
				{"negative mix", `{"mix":{"easy":-2}}`, "mix.easy"},
				{"empty exhausted name", `{"exhausted":[""]}`, "exhausted"},
				{"not json", `size=9`, "decode body"},
			}
			for _, tc := range cases {
				Convey("Then "+tc.name+" should be a bad request", func() {
					w := do(h, http.MethodPost, "/boards", tc.body)
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					body := decode(w)
					So(body["code"], ShouldEqual, "bad_request")
					So(body["message"], ShouldContainSubstring, tc.want)
				})
			}
		})

		Convey("When listing with a bad limit", func() {
			So(do(h, http.MethodGet, "/boards?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodGet, "/boards?limit=abc", "").Code, ShouldEqual, http.StatusBadRequest)

			w := do(h, http.MethodGet, "/boards?limit=11", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["code"], ShouldEqual, "limit_exceeded")
		})

		Convey("When reading a board that does not exist", func() {
			w := do(h, http.MethodGet, "/boards/missing", "")

			Convey("Then 404 should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decode(w)["code"], ShouldEqual, "board_not_found")
			})
		})
	})
}

func TestSessions(t *testing.T) {
	Convey("Given a registered API server allowing one session", t, func() {
		svc, h := newTestServer(service.WithMaxSessions(1))
		defer svc.Stop()

		created := do(h, http.MethodPost, "/sessions", "")
		So(created.Code, ShouldEqual, http.StatusCreated)
		id := decode(created)["id"].(string)
		So(created.Header().Get("Location"), ShouldEqual, "/sessions/"+id)

		Convey("When generating a board that draws a single-use tag", func() {
			w := do(h, http.MethodPost, "/sessions/"+id+"/boards", `{"mix":{"easy":4}}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(decodeBoard(w).SessionID, ShouldEqual, id)

			Convey("Then the session should list the exhausted goals", func() {
				info := decode(do(h, http.MethodGet, "/sessions/"+id, ""))
				So(info["exhausted"], ShouldResemble, []any{"e3", "e4"})
				So(len(info["boards"].([]any)), ShouldEqual, 1)
			})

			Convey("Then the next identical request should run short", func() {
				again := do(h, http.MethodPost, "/sessions/"+id+"/boards", `{"mix":{"easy":4}}`)
				So(again.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(decode(again)["details"].(map[string]any)["shortfall"], ShouldEqual, float64(2))
			})

			Convey("Then a reset should clear exhaustion", func() {
				reset := do(h, http.MethodPost, "/sessions/"+id+"/reset", "")
				So(reset.Code, ShouldEqual, http.StatusOK)
				So(decode(reset)["exhausted"], ShouldResemble, []any{})
			})
		})

		Convey("When another session is requested", func() {
			w := do(h, http.MethodPost, "/sessions", "")

			Convey("Then 429 should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decode(w)["code"], ShouldEqual, "too_many_sessions")
			})
		})

		Convey("When the session is deleted", func() {
			So(do(h, http.MethodDelete, "/sessions/"+id, "").Code, ShouldEqual, http.StatusNoContent)

			Convey("Then it should be gone", func() {
				w := do(h, http.MethodGet, "/sessions/"+id, "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decode(w)["code"], ShouldEqual, "session_not_found")
				So(do(h, http.MethodPost, "/sessions/"+id+"/boards", "").Code, ShouldEqual, http.StatusNotFound)
				So(do(h, http.MethodPost, "/sessions/"+id+"/reset", "").Code, ShouldEqual, http.StatusNotFound)
				So(do(h, http.MethodDelete, "/sessions/"+id, "").Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

// brokenCatalog fails catalog reads with an unclassified error.
type brokenCatalog struct {
	*service.Service
}

func (brokenCatalog) Catalog(context.Context) (*model.Catalog, error) {
	return nil, errors.New("disk on fire")
}

func TestServer_Failures(t *testing.T) {
	Convey("Given dependencies that fail", t, func() {
		ctx := context.Background()

		Convey("When the service was never started", func() {
			mux := http.NewServeMux()
			api.NewServer(service.New(), 0).Register(ctx, mux)
			w := do(mux, http.MethodPost, "/boards", "")

			Convey("Then 503 should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(decode(w)["code"], ShouldEqual, "not_started")
			})
		})

		Convey("When an unclassified error occurs", func() {
			svc, _ := newTestServer()
			defer svc.Stop()
			mux := http.NewServeMux()
			api.NewServer(brokenCatalog{svc}, 0).Register(ctx, mux)
			w := do(mux, http.MethodGet, "/catalog", "")

			Convey("Then 500 should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				body := decode(w)
				So(body["code"], ShouldEqual, "internal_error")
				So(body["message"], ShouldContainSubstring, "api.get_catalog")
			})
		})
	})
}

func TestOpError(t *testing.T) {
	Convey("Given operation errors", t, func() {
		cause := errors.New("boom")

		Convey("Then kinds and causes should both match", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: boom")
		})

		Convey("Then NewKind should carry only the kind", func() {
			err := api.NewKind("api.op", api.ErrLimitExceeded)
			So(errors.Is(err, api.ErrLimitExceeded), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: limit exceeded")
		})

		Convey("Then Wrap should keep nil as nil", func() {
			So(api.Wrap("api.op", nil), ShouldBeNil)
			var op *api.OpError
			So(errors.As(api.Wrap("api.op", cause), &op), ShouldBeTrue)
			So(op.Op, ShouldEqual, "api.op")
		})
	})
}
