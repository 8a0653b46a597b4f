package boardcheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/sony/gobreaker"

	"github.com/okian/bingo/internal/domain/model"
)

func TestHTTPClientBreaker(t *testing.T) {
	Convey("Given a server that always fails", t, func() {
		var hits atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"code":"internal_error","message":"boom"}`))
		}))
		defer srv.Close()

		c := newHTTPClient(srv.URL, time.Second)
		ctx := context.Background()

		Convey("When the failures reach the threshold", func() {
			for range breakerConsecutiveFailures {
				err := c.health(ctx)
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "status 500")
			}

			Convey("Then the breaker opens and stops sending requests", func() {
				err := c.health(ctx)
				So(errors.Is(err, gobreaker.ErrOpenState), ShouldBeTrue)
				So(hits.Load(), ShouldEqual, int64(breakerConsecutiveFailures))
				So(c.breaker.State(), ShouldEqual, gobreaker.StateOpen)
			})
		})
	})

	Convey("Given a server answering insufficient_pool", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"code":"insufficient_pool","message":"easy short by 2"}`))
		}))
		defer srv.Close()

		c := newHTTPClient(srv.URL, time.Second)

		Convey("Then short pools never trip the breaker", func() {
			for range breakerConsecutiveFailures + 2 {
				_, err := c.board(context.Background(), model.Mix{Easy: 3})
				So(errors.Is(err, ErrShortPool), ShouldBeTrue)
			}
			So(c.breaker.State(), ShouldEqual, gobreaker.StateClosed)
		})
	})
}
