package riot_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/sniped/internal/adapters/cache"
	"github.com/okian/sniped/internal/adapters/riot"
	"github.com/okian/sniped/internal/domain/model"
	"github.com/okian/sniped/internal/domain/region"
	"github.com/okian/sniped/internal/domain/riotid"
	"github.com/okian/sniped/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

// fakeRiot serves a minimal subset of the Riot API.
type fakeRiot struct {
	accountHits atomic.Int32
	matchHits   atomic.Int32
	throttle    atomic.Int32 // remaining 429 responses
	lastToken   atomic.Value
}

func (f *fakeRiot) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/riot/account/v1/accounts/by-riot-id/", func(w http.ResponseWriter, r *http.Request) {
		f.accountHits.Add(1)
		f.lastToken.Store(r.Header.Get("X-Riot-Token"))
		if f.throttle.Load() > 0 {
			f.throttle.Add(-1)
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/Hide%20on%20bush/KR1"), strings.HasSuffix(r.URL.Path, "/Hide on bush/KR1"):
			_, _ = w.Write([]byte(`{"puuid":"puuid-faker","gameName":"Hide on bush","tagLine":"KR1"}`))
		case strings.HasSuffix(r.URL.Path, "/broken/KR1"):
			_, _ = w.Write([]byte(`{"puuid":`))
		case strings.HasSuffix(r.URL.Path, "/banned/KR1"):
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("/lol/spectator/v5/active-games/by-summoner/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/offline") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"gameId":77,"gameMode":"CLASSIC","gameType":"MATCHED_GAME","gameStartTime":1700000000000,
			"participants":[
				{"puuid":"puuid-faker","riotId":"Hide on bush#KR1","teamId":100,"championId":7},
				{"puuid":"p2","summonerName":"Legacy","riotIdTagline":"KR2","teamId":200,"championId":8}
			]}`))
	})
	mux.HandleFunc("/lol/match/v5/matches/by-puuid/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("count") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`["KR_3","KR_2","KR_GONE","KR_1"]`))
	})
	mux.HandleFunc("/lol/match/v5/matches/", func(w http.ResponseWriter, r *http.Request) {
		f.matchHits.Add(1)
		id := strings.TrimPrefix(r.URL.Path, "/lol/match/v5/matches/")
		switch id {
		case "KR_GONE":
			w.WriteHeader(http.StatusNotFound)
		case "KR_BAD":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			n := strings.TrimPrefix(id, "KR_")
			_, _ = fmt.Fprintf(w, `{"metadata":{"matchId":%q},"info":{"gameCreation":170000000%s000,"queueId":420,
				"participants":[
					{"puuid":"puuid-faker","teamId":100,"championId":222,"win":true},
					{"puuid":"p2","teamId":200,"championId":412,"win":false}
				]}}`, id, n)
		}
	})
	mux.HandleFunc("/lol/status/v4/platform-data", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Riot-Token") != "good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":"KR"}`))
	})
	return mux
}

func newClient(srv *httptest.Server, opts ...riot.Option) *riot.Client {
	base := []riot.Option{riot.WithBaseURL(srv.URL), riot.WithRateLimits(0, 0)}
	c, err := riot.NewClient("good-key", append(base, opts...)...)
	So(err, ShouldBeNil)
	return c
}

func TestNewClient(t *testing.T) {
	Convey("Given no api key", t, func() {
		_, err := riot.NewClient("  ")
		So(errors.Is(err, riot.ErrMissingAPIKey), ShouldBeTrue)
	})
}

func TestAccount(t *testing.T) {
	Convey("Given a riot api", t, func() {
		fake := &fakeRiot{}
		srv := httptest.NewServer(fake.handler())
		defer srv.Close()
		ctx := context.Background()

		Convey("When resolving a known riot id", func() {
			c := newClient(srv)
			puuid, err := c.AccountByRiotID(ctx, riotid.ID{Name: "Hide on bush", Tag: "KR1"}, region.KR)

			So(err, ShouldBeNil)
			So(puuid, ShouldEqual, "puuid-faker")
			So(fake.lastToken.Load(), ShouldEqual, "good-key")
		})

		Convey("When the account is unknown", func() {
			c := newClient(srv)
			_, err := c.AccountByRiotID(ctx, riotid.ID{Name: "nobody", Tag: "KR1"}, region.KR)

			So(errors.Is(err, riot.ErrNotFound), ShouldBeTrue)
			So(riot.IsNotFound(err), ShouldBeTrue)
		})

		Convey("When the body is malformed", func() {
			c := newClient(srv)
			_, err := c.AccountByRiotID(ctx, riotid.ID{Name: "broken", Tag: "KR1"}, region.KR)
			So(errors.Is(err, riot.ErrMalformed), ShouldBeTrue)
		})

		Convey("When the key is rejected", func() {
			c := newClient(srv)
			_, err := c.AccountByRiotID(ctx, riotid.ID{Name: "banned", Tag: "KR1"}, region.KR)
			So(errors.Is(err, riot.ErrUnauthorized), ShouldBeTrue)
		})

		Convey("When a cache is configured", func() {
			c := newClient(srv, riot.WithCache(cache.NewMemory(10), time.Minute))
			id := riotid.ID{Name: "Hide on bush", Tag: "KR1"}

			_, err := c.AccountByRiotID(ctx, id, region.KR)
			So(err, ShouldBeNil)
			_, err = c.AccountByRiotID(ctx, riotid.ID{Name: "HIDE ON BUSH", Tag: "kr1"}, region.KR)
			So(err, ShouldBeNil)

			So(fake.accountHits.Load(), ShouldEqual, 1)
		})

		Convey("When the upstream rate limits", func() {
			Convey("Then the request is retried", func() {
				fake.throttle.Store(2)
				c := newClient(srv, riot.WithMaxRetries(3))

				puuid, err := c.AccountByRiotID(ctx, riotid.ID{Name: "Hide on bush", Tag: "KR1"}, region.KR)
				So(err, ShouldBeNil)
				So(puuid, ShouldEqual, "puuid-faker")
				So(fake.accountHits.Load(), ShouldEqual, 3)
			})

			Convey("Then retries are bounded", func() {
				fake.throttle.Store(10)
				c := newClient(srv, riot.WithMaxRetries(1))

				_, err := c.AccountByRiotID(ctx, riotid.ID{Name: "Hide on bush", Tag: "KR1"}, region.KR)
				So(errors.Is(err, riot.ErrRateLimited), ShouldBeTrue)
				So(fake.accountHits.Load(), ShouldEqual, 2)
			})
		})
	})

	Convey("Given an unreachable api", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		c := newClient(srv)
		_, err := c.AccountByRiotID(context.Background(), riotid.ID{Name: "a", Tag: "b"}, region.NA1)
		So(errors.Is(err, riot.ErrUnavailable), ShouldBeTrue)
	})
}

func TestActiveGame(t *testing.T) {
	Convey("Given a riot api", t, func() {
		fake := &fakeRiot{}
		srv := httptest.NewServer(fake.handler())
		defer srv.Close()
		c := newClient(srv)

		Convey("When the player is in a game", func() {
			g, ok, err := c.ActiveGame(context.Background(), "puuid-faker", region.KR)

			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(g.GameID, ShouldEqual, 77)
			So(g.StartTime.Equal(time.UnixMilli(1700000000000)), ShouldBeTrue)
			So(len(g.Participants), ShouldEqual, 2)
			So(g.Participants[0].RiotID, ShouldEqual, "Hide on bush#KR1")
			So(g.Participants[1].SummonerName, ShouldEqual, "Legacy")
			So(g.Participants[1].TagLine, ShouldEqual, "KR2")
		})

		Convey("When the player is not in a game", func() {
			_, ok, err := c.ActiveGame(context.Background(), "offline", region.KR)

			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestMatchHistory(t *testing.T) {
	Convey("Given a riot api", t, func() {
		fake := &fakeRiot{}
		srv := httptest.NewServer(fake.handler())
		defer srv.Close()
		ctx := context.Background()

		Convey("When fetching recent matches", func() {
			c := newClient(srv, riot.WithConcurrency(2))
			history, err := c.MatchHistory(ctx, "puuid-faker", region.KR, 20)

			So(err, ShouldBeNil)

			Convey("Then vanished matches are skipped and order is kept", func() {
				So(len(history), ShouldEqual, 3)
				So(history[0].MatchID, ShouldEqual, "KR_3")
				So(history[1].MatchID, ShouldEqual, "KR_2")
				So(history[2].MatchID, ShouldEqual, "KR_1")
			})

			Convey("Then participants are converted", func() {
				p, ok := history[0].Participant("p2")
				So(ok, ShouldBeTrue)
				So(p.Team, ShouldEqual, model.TeamRed)
				So(p.ChampionID, ShouldEqual, 412)
				So(history[0].QueueID, ShouldEqual, 420)
				So(history[0].CreatedAt.After(history[1].CreatedAt), ShouldBeTrue)
			})
		})

		Convey("When match details are cached", func() {
			c := newClient(srv, riot.WithCache(cache.NewMemory(100), time.Minute))

			_, err := c.MatchHistory(ctx, "puuid-faker", region.KR, 20)
			So(err, ShouldBeNil)
			first := fake.matchHits.Load()
			_, err = c.MatchHistory(ctx, "puuid-faker", region.KR, 20)
			So(err, ShouldBeNil)

			// only the vanished match is requested again
			So(fake.matchHits.Load()-first, ShouldEqual, 1)
		})

		Convey("When one match fails", func() {
			c := newClient(srv)
			_, err := c.Match(ctx, "KR_BAD", region.KR)
			So(errors.Is(err, riot.ErrUnavailable), ShouldBeTrue)
		})

		Convey("When the context is already cancelled", func() {
			c := newClient(srv)
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			_, err := c.MatchHistory(cctx, "puuid-faker", region.KR, 20)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestValidateKey(t *testing.T) {
	Convey("Given a riot api", t, func() {
		fake := &fakeRiot{}
		srv := httptest.NewServer(fake.handler())
		defer srv.Close()

		Convey("When the key is accepted", func() {
			ok, err := newClient(srv).ValidateKey(context.Background(), region.KR)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
		})

		Convey("When the key is rejected", func() {
			c, err := riot.NewClient("bad-key", riot.WithBaseURL(srv.URL))
			So(err, ShouldBeNil)

			ok, err := c.ValidateKey(context.Background(), region.KR)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})
	})
}
