package champions_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/sniped/internal/adapters/champions"
	"github.com/okian/sniped/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func dataDragon(hits *atomic.Int32, versions string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/versions.json", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(versions))
	})
	mux.HandleFunc("/cdn/14.10.1/data/en_US/champion.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{
			"Ahri":{"id":"Ahri","key":"103","name":"Ahri"},
			"MonkeyKing":{"id":"MonkeyKing","key":"62","name":"Wukong"},
			"Broken":{"id":"Broken","key":"x","name":"Broken"}
		}}`))
	})
	return httptest.NewServer(mux)
}

func TestRegistry(t *testing.T) {
	Convey("Given a champion registry", t, func() {
		var hits atomic.Int32
		srv := dataDragon(&hits, `["14.10.1","14.9.1"]`)
		defer srv.Close()

		reg := champions.NewRegistry(champions.WithBaseURL(srv.URL + "/"))

		Convey("Before loading, the seed table answers", func() {
			name, ok := reg.ChampionName(222)
			So(ok, ShouldBeTrue)
			So(name, ShouldEqual, "Jinx")
			So(reg.Name(103), ShouldEqual, "Champion 103")
			So(reg.Version(), ShouldBeEmpty)
		})

		Convey("When loading from Data Dragon", func() {
			err := reg.Load(context.Background())

			So(err, ShouldBeNil)
			So(reg.Version(), ShouldEqual, "14.10.1")
			So(reg.Name(62), ShouldEqual, "Wukong")
			So(reg.Name(103), ShouldEqual, "Ahri")
			So(reg.Name(412), ShouldEqual, "Thresh")
			So(reg.Len(), ShouldBeGreaterThan, 13)
			So(reg.LoadedAt().IsZero(), ShouldBeFalse)
		})
	})

	Convey("Given a data source with no versions", t, func() {
		var hits atomic.Int32
		srv := dataDragon(&hits, `[]`)
		defer srv.Close()

		reg := champions.NewRegistry(champions.WithBaseURL(srv.URL))
		err := reg.Load(context.Background())

		So(errors.Is(err, champions.ErrNoVersions), ShouldBeTrue)
		So(reg.Name(1), ShouldEqual, "Annie")
	})

	Convey("Given a failing data source", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		reg := champions.NewRegistry(champions.WithBaseURL(srv.URL))
		err := reg.Load(context.Background())

		So(errors.Is(err, champions.ErrUnexpectedStatus), ShouldBeTrue)
		So(reg.Len(), ShouldEqual, 13)
	})
}

func TestRefresher(t *testing.T) {
	Convey("Given a refresher", t, func() {
		var hits atomic.Int32
		srv := dataDragon(&hits, `["14.10.1"]`)
		defer srv.Close()

		reg := champions.NewRegistry(champions.WithBaseURL(srv.URL))

		Convey("When the interval is not positive", func() {
			_, err := champions.NewRefresher(reg, 0, nil)
			So(err, ShouldNotBeNil)
		})

		Convey("When started", func() {
			r, err := champions.NewRefresher(reg, time.Hour, nil)
			So(err, ShouldBeNil)
			So(r.Start(), ShouldBeNil)

			deadline := time.Now().Add(2 * time.Second)
			for reg.Version() == "" && time.Now().Before(deadline) {
				time.Sleep(10 * time.Millisecond)
			}
			So(r.Shutdown(), ShouldBeNil)

			Convey("Then it loads immediately", func() {
				So(reg.Version(), ShouldEqual, "14.10.1")
				So(hits.Load(), ShouldEqual, 1)
			})
		})
	})
}
