package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/udisondev/seabattle/internal/config"
	"github.com/udisondev/seabattle/internal/crypto"
	"github.com/udisondev/seabattle/internal/db"
	"github.com/udisondev/seabattle/internal/gameserver"
	"github.com/udisondev/seabattle/internal/model"
	"github.com/udisondev/seabattle/internal/protocol"
	"github.com/udisondev/seabattle/internal/testutil"
)

// GameServerSuite tests the game server over real TCP with real repositories.
type GameServerSuite struct {
	IntegrationSuite
	accounts *db.PostgresAccountRepository
	history  *db.PostgresHistoryRepository
	gameAddr string
}

// SetupSuite поднимает сервер один раз на весь suite.
func (s *GameServerSuite) SetupSuite() {
	s.IntegrationSuite.SetupSuite()

	s.accounts = db.NewPostgresAccountRepository(s.db.Pool())
	s.history = db.NewPostgresHistoryRepository(s.db.Pool())

	cfg := config.DefaultGameServer()
	cfg.BindAddress = "127.0.0.1"
	cfg.Matchmaking.PassPeriod = 20 * time.Millisecond

	srv := gameserver.NewServer(cfg, s.accounts, s.history)

	listener, addr := testutil.ListenTCP(s.T())
	s.gameAddr = addr

	ctx, cancel := context.WithCancel(context.Background())
	s.T().Cleanup(cancel)

	t := s.T()
	go func() {
		if err := srv.Serve(ctx, listener); err != nil && err != context.Canceled {
			t.Logf("game server error: %v", err)
		}
	}()

	if err := testutil.WaitForTCPReady(s.gameAddr, 5*time.Second); err != nil {
		s.T().Fatalf("game server failed to start: %v", err)
	}
}

// dialPlayer подключается, регистрирует и логинит игрока.
func (s *GameServerSuite) dialPlayer(username string) *testutil.Client {
	c := testutil.Dial(s.T(), s.gameAddr)
	c.Expect(protocol.SrvWelcome)
	c.Register(username, "secret")
	c.Login(username, "secret")
	return c
}

// startDuel сводит двух игроков через вызов: challenger ходит первым.
func (s *GameServerSuite) startDuel(c1, c2 *testutil.Client, name1, name2 string) {
	c1.Send(protocol.CmdChallenge, protocol.ChallengeRequest{Target: name2})
	c1.ExpectSystem(protocol.CodeOK)
	c2.Expect(protocol.SrvChallenge)
	c2.Send(protocol.CmdChallengeReply, protocol.ChallengeReply{
		Challenger: name1,
		Status:     protocol.ReplyAccept,
	})
	c1.Expect(protocol.SrvGameStart)
	c2.Expect(protocol.SrvGameStart)
}

// TestRegistrationPersists тестирует, что регистрация по TCP долетает до БД
// с настоящим Argon2id-хэшем.
func (s *GameServerSuite) TestRegistrationPersists() {
	c := testutil.Dial(s.T(), s.gameAddr)
	c.Expect(protocol.SrvWelcome)
	c.Register("reg_alice", "hunter2")

	acc, err := s.accounts.GetAccount(s.ctx, "reg_alice")
	s.Require().NoError(err)
	s.Require().NotNil(acc)
	s.Equal(model.DefaultRating, acc.Rating)

	match, err := crypto.VerifyPassword("hunter2", acc.Secret)
	s.Require().NoError(err)
	s.True(match, "сохранённый хэш должен проходить проверку пароля")
	match, err = crypto.VerifyPassword("wrong", acc.Secret)
	s.Require().NoError(err)
	s.False(match)
}

// TestLoginUpdatesLastLogin тестирует отметку last_login при логине.
func (s *GameServerSuite) TestLoginUpdatesLastLogin() {
	c := testutil.Dial(s.T(), s.gameAddr)
	c.Expect(protocol.SrvWelcome)
	c.Register("ll_alice", "secret")

	before, err := s.accounts.GetAccount(s.ctx, "ll_alice")
	s.Require().NoError(err)

	time.Sleep(10 * time.Millisecond)
	ok := c.Login("ll_alice", "secret")
	s.Equal(model.DefaultRating, ok.Rating)

	after, err := s.accounts.GetAccount(s.ctx, "ll_alice")
	s.Require().NoError(err)
	s.True(after.LastLogin.After(before.LastLogin), "last_login должен сдвинуться")
}

// TestDuplicateLoginAcrossConnections тестирует, что имя держит только
// одно соединение.
func (s *GameServerSuite) TestDuplicateLoginAcrossConnections() {
	c1 := s.dialPlayer("dup_alice")
	_ = c1

	c2 := testutil.Dial(s.T(), s.gameAddr)
	c2.Expect(protocol.SrvWelcome)
	c2.Send(protocol.CmdLogin, protocol.Credentials{Username: "dup_alice", Password: "secret"})
	sys := c2.ExpectSystem(protocol.CodeUnauthorized)
	s.Equal("Already logged in", sys.Message)
}

// TestSurrenderPersistsResults тестирует полный путь: дуэль по TCP,
// капитуляция, рейтинги и история в БД.
func (s *GameServerSuite) TestSurrenderPersistsResults() {
	c1 := s.dialPlayer("duel_alice")
	c2 := s.dialPlayer("duel_bob")
	s.startDuel(c1, c2, "duel_alice", "duel_bob")

	c2.Send(protocol.CmdSurrender, nil)

	var end protocol.GameEnd
	c1.ExpectPayload(protocol.SrvGameEnd, &end)
	s.Equal(protocol.GameResultWin, end.Result)
	s.Equal(protocol.ReasonSurrender, end.Reason)
	s.Equal(model.DefaultRating+10, end.Rating)
	c2.ExpectPayload(protocol.SrvGameEnd, &end)
	s.Equal(protocol.GameResultLose, end.Result)

	winner, err := s.accounts.GetAccount(s.ctx, "duel_alice")
	s.Require().NoError(err)
	s.Equal(model.DefaultRating+10, winner.Rating)
	s.Equal(1, winner.Games)
	s.Equal(1, winner.Wins)

	loser, err := s.accounts.GetAccount(s.ctx, "duel_bob")
	s.Require().NoError(err)
	s.Equal(model.DefaultRating-10, loser.Rating)
	s.Equal(1, loser.Games)
	s.Equal(0, loser.Wins)

	hist, err := s.history.RecentMatches(s.ctx, "duel_alice", 10)
	s.Require().NoError(err)
	s.Require().Len(hist, 1)
	s.Equal(model.ResultWin, hist[0].Result)
	s.Equal("duel_bob", hist[0].Opponent)
}

// TestShotsOverTCP тестирует расстановку и перестрелку через настоящий сокет.
func (s *GameServerSuite) TestShotsOverTCP() {
	c1 := s.dialPlayer("sea_alice")
	c2 := s.dialPlayer("sea_bob")
	s.startDuel(c1, c2, "sea_alice", "sea_bob")

	c1.PlaceFleet()
	c1.Expect(protocol.SrvPlaceShipAck)
	c2.PlaceFleet()
	var ready protocol.GameReady
	c1.ExpectPayload(protocol.SrvGameReady, &ready)
	s.True(ready.YourTurn, "вызвавший ходит первым")
	c2.Expect(protocol.SrvGameReady)

	// Попадание по A0, ход переходит к противнику
	c1.Send(protocol.CmdMove, protocol.MoveRequest{Coord: "A0"})
	var res protocol.MoveResult
	c1.ExpectPayload(protocol.SrvMoveResult, &res)
	s.Equal("A0", res.Coord)
	s.Equal(string(model.ShotHit), res.Result)
	s.True(res.IsYourShot)
	c2.ExpectPayload(protocol.SrvMoveResult, &res)
	s.Equal(string(model.ShotHit), res.Result)
	s.False(res.IsYourShot)

	// Промах противника возвращает ход
	c2.Send(protocol.CmdMove, protocol.MoveRequest{Coord: "J9"})
	c2.ExpectPayload(protocol.SrvMoveResult, &res)
	s.Equal(string(model.ShotMiss), res.Result)
	c1.Expect(protocol.SrvMoveResult)

	var turn protocol.TurnChange
	c1.ExpectPayload(protocol.SrvTurnChange, &turn)
	s.True(turn.YourTurn)
}

// TestDisconnectForfeitPersisted тестирует обрыв сокета посреди матча:
// оставшийся побеждает, итог записан в БД.
func (s *GameServerSuite) TestDisconnectForfeitPersisted() {
	c1 := s.dialPlayer("dc_alice")
	c2 := s.dialPlayer("dc_bob")
	s.startDuel(c1, c2, "dc_alice", "dc_bob")

	s.Require().NoError(c1.Close())

	var end protocol.GameEnd
	c2.ExpectPayload(protocol.SrvGameEnd, &end)
	s.Equal(protocol.GameResultWin, end.Result)
	s.Equal(protocol.ReasonOpponentDisconnected, end.Reason)

	winner, err := s.accounts.GetAccount(s.ctx, "dc_bob")
	s.Require().NoError(err)
	s.Equal(model.DefaultRating+10, winner.Rating)
	s.Equal(1, winner.Wins)

	loser, err := s.accounts.GetAccount(s.ctx, "dc_alice")
	s.Require().NoError(err)
	s.Equal(model.DefaultRating-10, loser.Rating)
	s.Equal(0, loser.Wins)

	hist, err := s.history.RecentMatches(s.ctx, "dc_alice", 10)
	s.Require().NoError(err)
	s.Require().Len(hist, 1)
	s.Equal(model.ResultLose, hist[0].Result)
}

// TestLeaderboardOverTCP тестирует выдачу таблицы лидеров из БД по запросу.
func (s *GameServerSuite) TestLeaderboardOverTCP() {
	c := s.dialPlayer("lb_alice")

	_, err := s.accounts.RegisterAccount(s.ctx, "lb_champ", "hash")
	s.Require().NoError(err)
	_, err = s.accounts.UpdateStats(s.ctx, "lb_champ", +200, true)
	s.Require().NoError(err)

	c.Send(protocol.CmdLeaderboard, nil)
	var lb protocol.Leaderboard
	c.ExpectPayload(protocol.SrvLeaderboard, &lb)
	s.Require().NotEmpty(lb.Players)
	s.Equal("lb_champ", lb.Players[0].Username)
	s.Equal(1, lb.Players[0].Rank)
	s.Equal(model.DefaultRating+200, lb.Players[0].Rating)
}

// TestMatchmakingOverTCP тестирует подбор по рейтингу через очередь.
func (s *GameServerSuite) TestMatchmakingOverTCP() {
	c1 := s.dialPlayer("mm_alice")
	c2 := s.dialPlayer("mm_bob")

	c1.Send(protocol.CmdStartMatching, nil)
	c1.Expect(protocol.SrvMatchingStarted)
	c2.Send(protocol.CmdStartMatching, nil)
	c2.Expect(protocol.SrvMatchingStarted)

	var found protocol.MatchFound
	c1.ExpectPayload(protocol.SrvMatchFound, &found)
	s.Equal("mm_bob", found.Opponent)
	s.Equal(model.DefaultRating, found.Rating)
	c2.Expect(protocol.SrvMatchFound)

	c1.Send(protocol.CmdMatchReady, nil)
	c2.Send(protocol.CmdMatchReady, nil)
	c1.Expect(protocol.SrvGameStart)
	c2.Expect(protocol.SrvGameStart)
}

// TestGameServerSuite — entry point для запуска GameServerSuite.
func TestGameServerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	suite.Run(t, new(GameServerSuite))
}
