package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/seabattle/internal/model"
)

// testFleet возвращает валидный флот: все корабли горизонтально
// в чётных рядах, начиная с нулевой колонки.
func testFleet() []model.Ship {
	return []model.Ship{
		{Name: "Carrier", Size: 5, Row: 0, Col: 0, Horizontal: true},
		{Name: "Battleship", Size: 4, Row: 2, Col: 0, Horizontal: true},
		{Name: "Cruiser", Size: 3, Row: 4, Col: 0, Horizontal: true},
		{Name: "Submarine", Size: 3, Row: 6, Col: 0, Horizontal: true},
		{Name: "Destroyer", Size: 2, Row: 8, Col: 0, Horizontal: true},
	}
}

// startedMatch создаёт матч с расставленными флотами, ход у first.
func startedMatch(t *testing.T, first, second string) *Match {
	t.Helper()
	mt := New("m-test", first, second)
	both, err := mt.PlaceFleet(first, testFleet())
	require.NoError(t, err)
	assert.False(t, both)
	both, err = mt.PlaceFleet(second, testFleet())
	require.NoError(t, err)
	assert.True(t, both)
	return mt
}

func TestMatch_PlacementFlow(t *testing.T) {
	mt := New("m1", "alice", "bob")
	assert.Equal(t, PhasePlacing, mt.Phase())
	assert.False(t, mt.Placed("alice"))

	both, err := mt.PlaceFleet("alice", testFleet())
	require.NoError(t, err)
	assert.False(t, both, "одного флота недостаточно для старта")
	assert.True(t, mt.Placed("alice"))
	assert.Equal(t, PhasePlacing, mt.Phase())

	both, err = mt.PlaceFleet("bob", testFleet())
	require.NoError(t, err)
	assert.True(t, both)
	assert.Equal(t, PhasePlaying, mt.Phase())

	// Первым ходит инициатор
	assert.Equal(t, "alice", mt.TurnOf())
	assert.True(t, mt.IsFirstMover("alice"))
	assert.False(t, mt.IsFirstMover("bob"))
}

func TestMatch_PlaceFleet_Errors(t *testing.T) {
	mt := New("m1", "alice", "bob")

	_, err := mt.PlaceFleet("eve", testFleet())
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = mt.PlaceFleet("alice", testFleet())
	require.NoError(t, err)

	// Повторная расстановка запрещена
	_, err = mt.PlaceFleet("alice", testFleet())
	assert.ErrorIs(t, err, ErrAlreadyPlaced)

	// Невалидный флот пробрасывает ошибку доски
	_, err = mt.PlaceFleet("bob", testFleet()[:3])
	assert.ErrorIs(t, err, model.ErrFleetComposition)
	assert.False(t, mt.Placed("bob"))
}

func TestMatch_Shoot_Preconditions(t *testing.T) {
	mt := New("m1", "alice", "bob")

	_, err := mt.Shoot("eve", 0, 0)
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = mt.Shoot("alice", 0, 0)
	assert.ErrorIs(t, err, ErrShipsNotPlaced)

	_, err = mt.PlaceFleet("alice", testFleet())
	require.NoError(t, err)

	_, err = mt.Shoot("alice", 0, 0)
	assert.ErrorIs(t, err, ErrOpponentNotReady)

	_, err = mt.PlaceFleet("bob", testFleet())
	require.NoError(t, err)

	// Ход у alice, bob стрелять не может
	_, err = mt.Shoot("bob", 0, 0)
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

func TestMatch_Shoot_TurnRotation(t *testing.T) {
	mt := startedMatch(t, "alice", "bob")

	// Попадание передаёт ход
	rep, err := mt.Shoot("alice", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, model.ShotHit, rep.Result)
	assert.Empty(t, rep.SunkShip)
	assert.False(t, rep.GameOver)
	assert.Equal(t, "bob", rep.NextTurn)
	assert.Equal(t, "bob", mt.TurnOf())

	// Промах тоже передаёт ход
	rep, err = mt.Shoot("bob", 9, 9)
	require.NoError(t, err)
	assert.Equal(t, model.ShotMiss, rep.Result)
	assert.Equal(t, "alice", rep.NextTurn)

	// Повторный выстрел в ту же клетку ход не тратит
	rep, err = mt.Shoot("alice", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, model.ShotAlreadyHit, rep.Result)
	assert.Equal(t, "alice", rep.NextTurn)
	assert.Equal(t, "alice", mt.TurnOf())
}

func TestMatch_Shoot_SinkShip(t *testing.T) {
	mt := startedMatch(t, "alice", "bob")

	rep, err := mt.Shoot("alice", 8, 0)
	require.NoError(t, err)
	assert.Equal(t, model.ShotHit, rep.Result)
	assert.Empty(t, rep.SunkShip, "корабль ещё жив")

	_, err = mt.Shoot("bob", 9, 0)
	require.NoError(t, err)

	rep, err = mt.Shoot("alice", 8, 1)
	require.NoError(t, err)
	assert.Equal(t, model.ShotHit, rep.Result)
	assert.Equal(t, "Destroyer", rep.SunkShip)
	assert.False(t, rep.GameOver)
}

func TestMatch_Shoot_VictoryEndsMatch(t *testing.T) {
	mt := startedMatch(t, "alice", "bob")

	// Все палубы флота в порядке расстановки, Destroyer последним
	var targets [][2]int
	for _, s := range testFleet() {
		for i := range s.Size {
			targets = append(targets, [2]int{s.Row, s.Col + i})
		}
	}

	// Клетки воды для ответных промахов bob
	var water [][2]int
	for _, row := range []int{1, 3, 5, 7, 9} {
		for col := range 10 {
			water = append(water, [2]int{row, col})
		}
	}

	for n, tgt := range targets {
		rep, err := mt.Shoot("alice", tgt[0], tgt[1])
		require.NoError(t, err)
		require.Equal(t, model.ShotHit, rep.Result)

		if n == len(targets)-1 {
			assert.Equal(t, "Destroyer", rep.SunkShip)
			assert.True(t, rep.GameOver)
			// Победа фиксируется до передачи хода
			assert.Equal(t, "alice", rep.NextTurn)
			assert.Equal(t, PhaseFinished, mt.Phase())
			break
		}
		assert.False(t, rep.GameOver)

		_, err = mt.Shoot("bob", water[n][0], water[n][1])
		require.NoError(t, err)
	}

	// После завершения стрелять нельзя
	_, err := mt.Shoot("alice", 9, 9)
	assert.ErrorIs(t, err, ErrMatchOver)
}

func TestMatch_DrawFlow(t *testing.T) {
	mt := startedMatch(t, "alice", "bob")

	// Нечего принимать — предложения не было
	err := mt.AcceptDraw("bob")
	assert.ErrorIs(t, err, ErrNoDrawOffer)

	require.NoError(t, mt.OfferDraw("alice"))

	// Своё же предложение принять нельзя
	err = mt.AcceptDraw("alice")
	assert.ErrorIs(t, err, ErrNoDrawOffer)

	require.NoError(t, mt.AcceptDraw("bob"))

	// Предложение одноразовое
	err = mt.AcceptDraw("bob")
	assert.ErrorIs(t, err, ErrNoDrawOffer)
}

func TestMatch_DrawReject(t *testing.T) {
	mt := startedMatch(t, "alice", "bob")

	require.NoError(t, mt.OfferDraw("alice"))

	offerer, err := mt.RejectDraw("bob")
	require.NoError(t, err)
	assert.Equal(t, "alice", offerer)

	// После отказа предложение очищено
	_, err = mt.RejectDraw("bob")
	assert.ErrorIs(t, err, ErrNoDrawOffer)
	err = mt.AcceptDraw("bob")
	assert.ErrorIs(t, err, ErrNoDrawOffer)
}

func TestMatch_DrawDuringPlacing(t *testing.T) {
	// Ничью можно предлагать и до расстановки
	mt := New("m1", "alice", "bob")
	require.NoError(t, mt.OfferDraw("alice"))
	require.NoError(t, mt.AcceptDraw("bob"))
}

func TestMatch_Finish_OneShot(t *testing.T) {
	mt := startedMatch(t, "alice", "bob")

	assert.True(t, mt.Finish(), "первый Finish выигрывает гонку")
	assert.False(t, mt.Finish(), "повторный Finish — no-op")
	assert.True(t, mt.IsFinished())
	assert.Equal(t, PhaseFinished, mt.Phase())

	_, err := mt.Shoot("alice", 0, 0)
	assert.ErrorIs(t, err, ErrMatchOver)
	err = mt.OfferDraw("alice")
	assert.ErrorIs(t, err, ErrMatchOver)
}

func TestMatch_Opponent(t *testing.T) {
	mt := New("m1", "alice", "bob")

	opp, ok := mt.Opponent("alice")
	assert.True(t, ok)
	assert.Equal(t, "bob", opp)

	opp, ok = mt.Opponent("bob")
	assert.True(t, ok)
	assert.Equal(t, "alice", opp)

	_, ok = mt.Opponent("eve")
	assert.False(t, ok)
}
