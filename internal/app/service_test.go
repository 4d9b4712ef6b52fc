package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/sniped/internal/adapters/riot"
	service "github.com/okian/sniped/internal/app"
	"github.com/okian/sniped/internal/domain/model"
	"github.com/okian/sniped/internal/domain/region"
	"github.com/okian/sniped/internal/domain/riotid"
	"github.com/okian/sniped/internal/domain/roster"
	"github.com/okian/sniped/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

var t0 = time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)

// fakeRiot is an in-memory GameLocator and HistoryProvider.
type fakeRiot struct {
	mu sync.Mutex

	accounts   map[string]string // riot id -> player id
	games      map[string]roster.RawGame
	history    map[string][]model.Match
	accountErr error
	gameErr    error
	historyErr error

	accountCalls  int
	gameCalls     int
	historyCalls  int
	lastCount     int
	lastHistoryID string
}

func (f *fakeRiot) AccountByRiotID(_ context.Context, id riotid.ID, _ region.Region) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accountCalls++
	if f.accountErr != nil {
		return "", f.accountErr
	}
	for k, p := range f.accounts {
		if strings.EqualFold(k, id.String()) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: account", riot.ErrNotFound)
}

func (f *fakeRiot) ActiveGame(_ context.Context, playerID string, _ region.Region) (roster.RawGame, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gameCalls++
	if f.gameErr != nil {
		return roster.RawGame{}, false, f.gameErr
	}
	g, ok := f.games[playerID]
	return g, ok, nil
}

func (f *fakeRiot) MatchHistory(_ context.Context, playerID string, _ region.Region, count int) ([]model.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	f.lastCount = count
	f.lastHistoryID = playerID
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history[playerID], nil
}

// lobbyGame returns a ten player game containing p1..p10, p1 being "Me#EUW".
func lobbyGame() roster.RawGame {
	g := roster.RawGame{GameID: 4242, GameMode: "CLASSIC", GameType: "MATCHED", StartTime: t0}
	for i := 1; i <= 10; i++ {
		team := 100
		if i > 5 {
			team = 200
		}
		name := fmt.Sprintf("Player%d#EUW", i)
		if i == 1 {
			name = "Me#EUW"
		}
		g.Participants = append(g.Participants, roster.RawParticipant{
			RiotID:     name,
			PlayerID:   fmt.Sprintf("p%d", i),
			ChampionID: i,
			TeamID:     team,
		})
	}
	return g
}

func histMatch(id string, at time.Time, win bool, others map[string]int) model.Match {
	m := model.Match{
		MatchID:      id,
		CreatedAt:    at,
		Participants: []model.MatchParticipant{{PlayerID: "p1", Team: model.TeamBlue, ChampionID: 99, Win: win}},
	}
	for p, team := range others {
		m.Participants = append(m.Participants, model.MatchParticipant{
			PlayerID:   p,
			Team:       model.Team(team),
			ChampionID: 7,
			Win:        (team == 100) == win,
		})
	}
	return m
}

func newFake() *fakeRiot {
	return &fakeRiot{
		accounts: map[string]string{"Me#EUW": "p1"},
		games:    map[string]roster.RawGame{"p1": lobbyGame()},
		history: map[string][]model.Match{"p1": {
			histMatch("EUW1_3", t0.Add(-1*time.Hour), true, map[string]int{"p3": 100}),
			histMatch("EUW1_2", t0.Add(-2*time.Hour), false, map[string]int{"p3": 200}),
			histMatch("EUW1_1", t0.Add(-3*time.Hour), true, map[string]int{"p3": 200, "p8": 100}),
			histMatch("EUW1_0", t0.Add(-4*time.Hour), true, map[string]int{"stranger": 200}),
		}},
	}
}

type champs map[int]string

func (c champs) ChampionName(id int) (string, bool) {
	n, ok := c[id]
	return n, ok
}

func TestService_New(t *testing.T) {
	Convey("Given service options", t, func() {
		Convey("When no collaborators are provided", func() {
			_, err := service.New()

			Convey("Then construction fails", func() {
				So(err, ShouldEqual, service.ErrMissingLocator)
			})
		})

		Convey("When only a locator is provided", func() {
			_, err := service.New(service.WithGameLocator(newFake()))

			Convey("Then the history provider is required", func() {
				So(err, ShouldEqual, service.ErrMissingHistory)
			})
		})

		Convey("When all collaborators are provided", func() {
			f := newFake()
			svc, err := service.New(
				service.WithGameLocator(f),
				service.WithHistoryProvider(f),
				service.WithHistoryLimit(20),
				service.WithSelfFallback("bogus"),
			)

			Convey("Then it is configured", func() {
				So(err, ShouldBeNil)
				So(svc.HistoryLimit(), ShouldEqual, 20)
				So(svc.GetStats()["selfFallback"], ShouldEqual, service.SelfFallbackProceed)
			})
		})

		Convey("When the history limit is out of range", func() {
			f := newFake()
			svc, err := service.New(service.WithGameLocator(f), service.WithHistoryProvider(f), service.WithHistoryLimit(500))

			Convey("Then the default window is kept", func() {
				So(err, ShouldBeNil)
				So(svc.HistoryLimit(), ShouldEqual, 100)
			})
		})
	})
}

func TestService_CheckInGame(t *testing.T) {
	Convey("Given a service backed by a fake provider", t, func() {
		f := newFake()
		svc, err := service.New(service.WithGameLocator(f), service.WithHistoryProvider(f))
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When the player is in a game", func() {
			status, err := svc.CheckInGame(ctx, "Me", "EUW", "euw1")

			Convey("Then the lobby is returned with self resolved by id", func() {
				So(err, ShouldBeNil)
				So(status.InGame, ShouldBeTrue)
				So(status.Lobby.GameID, ShouldEqual, 4242)
				So(len(status.Lobby.Participants), ShouldEqual, 10)
				So(status.SelfResolved, ShouldBeTrue)
				So(status.SelfMatch.Method, ShouldEqual, roster.MatchPlayerID)
				So(status.Self.Name, ShouldEqual, "Me")
				So(len(status.Opponents()), ShouldEqual, 9)
			})
		})

		Convey("When the player is offline", func() {
			f.accounts["Offline#NA"] = "p-off"
			status, err := svc.CheckInGame(ctx, "Offline", "NA", "NA1")

			Convey("Then NotInGame is a normal outcome", func() {
				So(err, ShouldBeNil)
				So(status.InGame, ShouldBeFalse)
				So(status.Lobby.Participants, ShouldBeEmpty)
				So(status.PlayerID, ShouldEqual, "p-off")
			})
		})

		Convey("When the Riot ID is invalid", func() {
			_, err := svc.CheckInGame(ctx, "  ", "EUW", "EUW1")

			Convey("Then it is rejected before any call", func() {
				So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
				So(f.accountCalls, ShouldEqual, 0)
			})
		})

		Convey("When the region is unknown", func() {
			_, err := svc.CheckInGame(ctx, "Me", "EUW", "MARS")

			Convey("Then it is rejected before any call", func() {
				So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
				So(errors.Is(err, region.ErrUnknownRegion), ShouldBeTrue)
				So(f.accountCalls, ShouldEqual, 0)
			})
		})

		Convey("When the account does not exist", func() {
			_, err := svc.CheckInGame(ctx, "Ghost", "000", "EUW1")

			Convey("Then player not found is a distinguishable lookup failure", func() {
				So(errors.Is(err, service.ErrPlayerNotFound), ShouldBeTrue)
				So(errors.Is(err, service.ErrLookupFailed), ShouldBeTrue)
				So(f.gameCalls, ShouldEqual, 0)
			})
		})

		Convey("When the provider is unreachable", func() {
			f.gameErr = riot.ErrUnavailable
			_, err := svc.CheckInGame(ctx, "Me", "EUW", "EUW1")

			Convey("Then lookup failed is returned", func() {
				So(errors.Is(err, service.ErrLookupFailed), ShouldBeTrue)
				So(errors.Is(err, service.ErrPlayerNotFound), ShouldBeFalse)
				So(errors.Is(err, riot.ErrUnavailable), ShouldBeTrue)
				So(svc.GetStats()["lastError"], ShouldNotBeEmpty)
			})
		})

		Convey("When the live roster is malformed", func() {
			g := lobbyGame()
			g.Participants = g.Participants[:7]
			f.games["p1"] = g
			_, err := svc.CheckInGame(ctx, "Me", "EUW", "EUW1")

			Convey("Then lookup failed wraps the roster error", func() {
				So(errors.Is(err, service.ErrLookupFailed), ShouldBeTrue)
				So(errors.Is(err, roster.ErrMalformedRoster), ShouldBeTrue)
			})
		})

		Convey("When the player is only found by name", func() {
			f.accounts["Me#EUW"] = "p1-new"
			f.games["p1-new"] = lobbyGame()
			status, err := svc.CheckInGame(ctx, "me", "euw", "EUW1")

			Convey("Then the roster id is used for analysis", func() {
				So(err, ShouldBeNil)
				So(status.SelfMatch.Method, ShouldEqual, roster.MatchExactName)
				So(status.PlayerID, ShouldEqual, "p1")
			})
		})

		Convey("When the name only nearly matches a lobby member", func() {
			f.accounts["Mee#EUW"] = "acct"
			f.games["acct"] = lobbyGame()

			Convey("Then the near match is a hint and the account id is kept", func() {
				status, err := svc.CheckInGame(ctx, "Mee", "EUW", "EUW1")
				So(err, ShouldBeNil)
				So(status.SelfMatch.Method, ShouldEqual, roster.MatchFuzzyName)
				So(status.SelfMatch.Player.PlayerID, ShouldEqual, "p1")
				So(status.SelfResolved, ShouldBeFalse)
				So(status.Self.PlayerID, ShouldBeEmpty)
				So(status.PlayerID, ShouldEqual, "acct")
				So(len(status.Opponents()), ShouldEqual, 10)
			})

			Convey("Then search analyzes the account's own history", func() {
				res, err := svc.Search(ctx, "Mee", "EUW", "EUW1")
				So(err, ShouldBeNil)
				So(res.Game.SelfResolved, ShouldBeFalse)
				So(f.lastHistoryID, ShouldEqual, "acct")
				So(res.Snipes, ShouldBeEmpty)
			})

			Convey("Then the fail policy rejects it", func() {
				strict, err := service.New(
					service.WithGameLocator(f),
					service.WithHistoryProvider(f),
					service.WithSelfFallback(service.SelfFallbackFail),
				)
				So(err, ShouldBeNil)
				_, err = strict.CheckInGame(ctx, "Mee", "EUW", "EUW1")
				So(errors.Is(err, service.ErrSelfNotIdentified), ShouldBeTrue)
			})
		})

		Convey("When the player cannot be identified", func() {
			f.accounts["Zyx#EUW"] = "p-zz"
			f.games["p-zz"] = lobbyGame()

			Convey("Then the proceed policy continues with the account id", func() {
				status, err := svc.CheckInGame(ctx, "Zyx", "EUW", "EUW1")
				So(err, ShouldBeNil)
				So(status.InGame, ShouldBeTrue)
				So(status.SelfResolved, ShouldBeFalse)
				So(status.SelfMatch.Found(), ShouldBeFalse)
				So(status.PlayerID, ShouldEqual, "p-zz")
				So(len(status.Opponents()), ShouldEqual, 10)
			})

			Convey("Then the fail policy fails the lookup", func() {
				strict, err := service.New(
					service.WithGameLocator(f),
					service.WithHistoryProvider(f),
					service.WithSelfFallback(service.SelfFallbackFail),
				)
				So(err, ShouldBeNil)
				_, err = strict.CheckInGame(ctx, "Zyx", "EUW", "EUW1")
				So(errors.Is(err, service.ErrSelfNotIdentified), ShouldBeTrue)
				So(errors.Is(err, service.ErrLookupFailed), ShouldBeTrue)
			})
		})
	})
}

func TestService_AnalyzeSnipes(t *testing.T) {
	Convey("Given a service and a resolved lobby", t, func() {
		f := newFake()
		svc, err := service.New(service.WithGameLocator(f), service.WithHistoryProvider(f), service.WithHistoryLimit(50))
		So(err, ShouldBeNil)
		ctx := context.Background()

		status, err := svc.CheckInGame(ctx, "Me", "EUW", "EUW1")
		So(err, ShouldBeNil)

		Convey("When analyzing the lobby", func() {
			records, err := svc.AnalyzeSnipes(ctx, status.PlayerID, status.Opponents(), "EUW1")

			Convey("Then lobby members from history are reported in roster order", func() {
				So(err, ShouldBeNil)
				So(f.lastCount, ShouldEqual, 50)
				So(len(records), ShouldEqual, 2)
				So(records[0].PlayerID, ShouldEqual, "p3")
				So(records[1].PlayerID, ShouldEqual, "p8")
			})

			Convey("Then p3 carries three games, newest first", func() {
				p3 := records[0]
				So(p3.TotalGames, ShouldEqual, 3)
				So(p3.Wins, ShouldEqual, 2)
				So(p3.Losses, ShouldEqual, 1)
				So(p3.Matches[0].MatchID, ShouldEqual, "EUW1_3")
				So(p3.Matches[0].Relation, ShouldEqual, model.RelationTeammate)
				So(p3.Matches[1].Relation, ShouldEqual, model.RelationOpponent)
				So(p3.Matches[2].MatchID, ShouldEqual, "EUW1_1")
			})
		})

		Convey("When the history is empty", func() {
			f.history["p1"] = nil
			records, err := svc.AnalyzeSnipes(ctx, "p1", status.Opponents(), "EUW1")

			Convey("Then the result is empty, not an error", func() {
				So(err, ShouldBeNil)
				So(records, ShouldNotBeNil)
				So(records, ShouldBeEmpty)
			})
		})

		Convey("When there are no participants", func() {
			records, err := svc.AnalyzeSnipes(ctx, "p1", nil, "EUW1")

			Convey("Then no history is fetched", func() {
				So(err, ShouldBeNil)
				So(records, ShouldBeEmpty)
				So(f.historyCalls, ShouldEqual, 0)
			})
		})

		Convey("When the user id is missing", func() {
			_, err := svc.AnalyzeSnipes(ctx, " ", status.Opponents(), "EUW1")

			Convey("Then input is invalid", func() {
				So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
				So(f.historyCalls, ShouldEqual, 0)
			})
		})

		Convey("When the history fetch fails", func() {
			f.historyErr = riot.ErrRateLimited
			records, err := svc.AnalyzeSnipes(ctx, "p1", status.Opponents(), "EUW1")

			Convey("Then analysis fails with no partial result", func() {
				So(records, ShouldBeNil)
				So(errors.Is(err, service.ErrAnalysisFailed), ShouldBeTrue)
				So(errors.Is(err, riot.ErrRateLimited), ShouldBeTrue)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.AnalyzeSnipes(cctx, "p1", status.Opponents(), "EUW1")

			Convey("Then analysis fails", func() {
				So(errors.Is(err, service.ErrAnalysisFailed), ShouldBeTrue)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestService_Search(t *testing.T) {
	Convey("Given a service with a champion lookup", t, func() {
		f := newFake()
		svc, err := service.New(
			service.WithGameLocator(f),
			service.WithHistoryProvider(f),
			service.WithChampions(champs{99: "Ahri"}),
		)
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When searching an in-game player", func() {
			res, err := svc.Search(ctx, "Me", "EUW", "EUW1")

			Convey("Then both stages run", func() {
				So(err, ShouldBeNil)
				So(res.SearchID, ShouldNotBeEmpty)
				So(res.Region, ShouldEqual, region.EUW1)
				So(res.Game.InGame, ShouldBeTrue)
				So(len(res.Snipes), ShouldEqual, 2)
				So(f.historyCalls, ShouldEqual, 1)
			})

			Convey("Then stats are updated", func() {
				stats := svc.GetStats()
				So(stats["searches"], ShouldEqual, int64(1))
				So(stats["snipesFound"], ShouldEqual, int64(2))
			})
		})

		Convey("When searching an offline player", func() {
			f.accounts["Offline#NA"] = "p-off"
			f.history["p-off"] = []model.Match{histMatch("NA1_1", t0, true, map[string]int{"p2": 100})}
			res, err := svc.Search(ctx, "Offline", "NA", "NA1")

			Convey("Then the analyzer is never invoked", func() {
				So(err, ShouldBeNil)
				So(res.Game.InGame, ShouldBeFalse)
				So(res.Snipes, ShouldBeNil)
				So(f.historyCalls, ShouldEqual, 0)
			})
		})

		Convey("When two searches run", func() {
			a, _ := svc.Search(ctx, "Me", "EUW", "EUW1")
			b, _ := svc.Search(ctx, "Me", "EUW", "EUW1")

			Convey("Then each gets its own id", func() {
				So(a.SearchID, ShouldNotEqual, b.SearchID)
			})
		})

		Convey("When resolving champion names", func() {
			name, ok := svc.ChampionName(99)
			_, missing := svc.ChampionName(1)

			Convey("Then the lookup is consulted", func() {
				So(ok, ShouldBeTrue)
				So(name, ShouldEqual, "Ahri")
				So(missing, ShouldBeFalse)
			})
		})
	})
}

func TestKindError(t *testing.T) {
	Convey("Given a wrapped error", t, func() {
		cause := errors.New("socket closed")
		err := service.WrapKind("op", service.ErrLookupFailed, cause)

		Convey("Then both kind and cause match", func() {
			So(errors.Is(err, service.ErrLookupFailed), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "op: lookup failed: socket closed")

			var ke *service.KindError
			So(errors.As(err, &ke), ShouldBeTrue)
			So(ke.Op, ShouldEqual, "op")
		})

		Convey("Then nil causes stay nil", func() {
			So(service.WrapKind("op", service.ErrLookupFailed, nil), ShouldBeNil)
			So(service.NewKind("op", service.ErrInvalidInput).Error(), ShouldEqual, "op: invalid input")
		})
	})
}

func TestCode(t *testing.T) {
	Convey("Given errors of every kind", t, func() {
		cases := []struct {
			err  error
			code string
		}{
			{nil, ""},
			{service.NewKind("op", service.ErrInvalidInput), service.CodeInvalidInput},
			{service.WrapKind("op", service.ErrPlayerNotFound, riot.ErrNotFound), service.CodePlayerNotFound},
			{service.WrapKind("op", service.ErrLookupFailed, riot.ErrUnavailable), service.CodeLookupFailed},
			{service.WrapKind("op", service.ErrAnalysisFailed, context.Canceled), service.CodeCancelled},
			{service.WrapKind("op", service.ErrAnalysisFailed, riot.ErrMalformed), service.CodeAnalysisFailed},
			{errors.New("boom"), service.CodeInternal},
		}

		Convey("Then each maps to its code", func() {
			for _, c := range cases {
				So(service.Code(c.err), ShouldEqual, c.code)
			}
		})
	})
}
