package ws_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/sniped/internal/adapters/http/api"
	"github.com/okian/sniped/internal/adapters/http/ws"
	service "github.com/okian/sniped/internal/app"
	"github.com/okian/sniped/internal/domain/model"
	"github.com/okian/sniped/internal/session"
	"github.com/okian/sniped/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// fakePipeline returns a two player lobby for every name. Analysis for the
// name "slow" blocks until the context is cancelled.
type fakePipeline struct {
	mu      sync.Mutex
	regions []string
}

func (f *fakePipeline) CheckInGame(_ context.Context, name, _, region string) (service.GameStatus, error) {
	f.mu.Lock()
	f.regions = append(f.regions, region)
	f.mu.Unlock()

	if name == "offline" {
		return service.GameStatus{InGame: false, PlayerID: name}, nil
	}
	self := model.PlayerIdentity{Name: name, PlayerID: name, ChampionID: 103, Team: model.TeamBlue}
	foe := model.PlayerIdentity{Name: "foe", PlayerID: name + "-foe", ChampionID: 64, Team: model.TeamRed}
	return service.GameStatus{
		InGame:       true,
		Lobby:        model.LobbySnapshot{GameID: 9, GameMode: "ARAM", Participants: []model.PlayerIdentity{self, foe}},
		Self:         self,
		PlayerID:     name,
		SelfResolved: true,
	}, nil
}

func (f *fakePipeline) AnalyzeSnipes(ctx context.Context, userID string, participants []model.PlayerIdentity, _ string) ([]model.SnipeRecord, error) {
	if userID == "slow" {
		<-ctx.Done()
		return []model.SnipeRecord{{PlayerIdentity: participants[0], TotalGames: 9, Wins: 9}}, nil
	}
	return []model.SnipeRecord{{
		PlayerIdentity: participants[0],
		Matches:        []model.HistoryEntry{{MatchID: "KR_1", Timestamp: time.Unix(1700000000, 0), Win: true, Relation: model.RelationOpponent}},
		TotalGames:     1,
		Wins:           1,
	}}, nil
}

type champs map[int]string

func (c champs) ChampionName(id int) (string, bool) {
	n, ok := c[id]
	return n, ok
}

func dial(srv *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	So(err, ShouldBeNil)
	return conn
}

// readUntil reads state messages until one matches done.
func readUntil(conn *websocket.Conn, done func(ws.ServerMessage) bool) []ws.ServerMessage {
	var got []ws.ServerMessage
	for {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg ws.ServerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			So(err, ShouldBeNil)
			return got
		}
		got = append(got, msg)
		if done(msg) {
			return got
		}
	}
}

func newServer(p session.Pipeline) *httptest.Server {
	mux := http.NewServeMux()
	ws.NewHandler(p, ws.WithChampions(champs{64: "Lee Sin"})).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func TestHandler_Search(t *testing.T) {
	Convey("Given a websocket session server", t, func() {
		p := &fakePipeline{}
		srv := newServer(p)
		defer srv.Close()
		conn := dial(srv)
		defer conn.Close()

		Convey("When a search is requested", func() {
			So(conn.WriteJSON(ws.ClientMessage{Type: ws.TypeSearch, RiotID: "me#EUW", Region: "EUW1"}), ShouldBeNil)
			msgs := readUntil(conn, func(m ws.ServerMessage) bool { return m.Status.Terminal() })

			Convey("Then the final state carries the lobby and snipes", func() {
				last := msgs[len(msgs)-1]
				So(last.Type, ShouldEqual, ws.TypeState)
				So(last.Generation, ShouldEqual, uint64(1))
				So(last.Status, ShouldEqual, session.StatusDone)
				So(last.Query.Name, ShouldEqual, "me")
				So(last.Game, ShouldNotBeNil)
				So(last.Game.GameMode, ShouldEqual, "ARAM")
				So(last.Game.Self.PUUID, ShouldEqual, "me")
				So(len(last.Snipes), ShouldEqual, 1)
				So(last.Snipes[0].ChampionName, ShouldEqual, "Lee Sin")
				So(last.Snipes[0].Matches[0].Team, ShouldEqual, "against")
			})
		})

		Convey("When the player is offline and no region is given", func() {
			So(conn.WriteJSON(ws.ClientMessage{Type: ws.TypeSearch, GameName: "offline", TagLine: "NA1"}), ShouldBeNil)
			msgs := readUntil(conn, func(m ws.ServerMessage) bool { return m.Status.Terminal() })

			Convey("Then not in game is pushed for the default region", func() {
				last := msgs[len(msgs)-1]
				So(last.Status, ShouldEqual, session.StatusNotInGame)
				So(last.Game, ShouldBeNil)
				p.mu.Lock()
				So(p.regions, ShouldResemble, []string{"NA1"})
				p.mu.Unlock()
			})
		})

		Convey("When the message is invalid", func() {
			So(conn.WriteJSON(ws.ClientMessage{Type: ws.TypeSearch, RiotID: "no-tag"}), ShouldBeNil)
			msgs := readUntil(conn, func(m ws.ServerMessage) bool { return m.Type == ws.TypeError })

			Convey("Then an error reply is sent", func() {
				So(msgs[len(msgs)-1].ErrorCode, ShouldEqual, service.CodeInvalidInput)
			})
		})

		Convey("When the message type is unknown", func() {
			So(conn.WriteJSON(ws.ClientMessage{Type: "dance"}), ShouldBeNil)
			msgs := readUntil(conn, func(m ws.ServerMessage) bool { return m.Type == ws.TypeError })

			Convey("Then an error reply is sent", func() {
				So(msgs[len(msgs)-1].Error, ShouldContainSubstring, "dance")
			})
		})
	})
}

func TestHandler_Supersede(t *testing.T) {
	Convey("Given a session with a slow search in flight", t, func() {
		srv := newServer(&fakePipeline{})
		defer srv.Close()
		conn := dial(srv)
		defer conn.Close()

		So(conn.WriteJSON(ws.ClientMessage{Type: ws.TypeSearch, GameName: "slow", TagLine: "EUW", Region: "EUW1"}), ShouldBeNil)
		readUntil(conn, func(m ws.ServerMessage) bool { return m.Status == session.StatusAnalyzing })

		Convey("When a new search is sent", func() {
			So(conn.WriteJSON(ws.ClientMessage{Type: ws.TypeSearch, GameName: "fast", TagLine: "EUW", Region: "EUW1"}), ShouldBeNil)
			msgs := readUntil(conn, func(m ws.ServerMessage) bool {
				return m.Generation == 2 && m.Status.Terminal()
			})

			Convey("Then only the new search completes", func() {
				for _, m := range msgs {
					if m.Generation == 1 {
						So(m.Status.Terminal(), ShouldBeFalse)
					}
				}
				last := msgs[len(msgs)-1]
				So(last.Query.Name, ShouldEqual, "fast")
				So(last.Snipes[0].TotalGames, ShouldEqual, 1)
			})
		})
	})
}

func TestOriginChecker(t *testing.T) {
	Convey("Given an origin checker", t, func() {
		check := ws.OriginChecker(api.CORSConfig{Origins: []string{"http://localhost:3000"}})
		req := func(origin string) *http.Request {
			r := httptest.NewRequest(http.MethodGet, "http://sniped.local/ws", http.NoBody)
			if origin != "" {
				r.Header.Set("Origin", origin)
			}
			return r
		}

		So(check(req("")), ShouldBeTrue)
		So(check(req("http://localhost:3000")), ShouldBeTrue)
		So(check(req("http://sniped.local")), ShouldBeTrue)
		So(check(req("http://evil.example")), ShouldBeFalse)
		So(ws.OriginChecker(api.CORSConfig{AllowAll: true})(req("http://evil.example")), ShouldBeTrue)
	})
}
