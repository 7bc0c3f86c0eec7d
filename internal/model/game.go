package model

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/chess-referee/internal/referee"
	"github.com/benbeisheim/chess-referee/internal/ws"
	"github.com/gofiber/fiber/v2/log"
)

type GameStatus string

const (
	StatusWaiting    GameStatus = "waiting"
	StatusInProgress GameStatus = "inProgress"
	StatusCheck      GameStatus = "check"
	StatusCheckmate  GameStatus = "checkmate"
	StatusStalemate  GameStatus = "stalemate"
	StatusDraw       GameStatus = "draw"
	StatusResigned   GameStatus = "resigned"
	StatusTimeout    GameStatus = "timeout"
)

func (s GameStatus) Over() bool {
	switch s {
	case StatusCheckmate, StatusStalemate, StatusDraw, StatusResigned, StatusTimeout:
		return true
	}
	return false
}

const (
	DrawInsufficientMaterial = "insufficientMaterial"
	DrawFiftyMoves           = "fiftyMoveRule"
	DrawRepetition           = "threefoldRepetition"
	DrawAgreement            = "agreement"
)

// The Game struct focuses on a single game's state and its observers
type Game struct {
	ID          string
	mu          sync.Mutex
	state       GameState
	connections *GameConnections
	clocks      map[referee.Team]*Clock
	positions   map[string]int
	flagTimer   *time.Timer
}

type GameState struct {
	Sound          string             `json:"sound"`
	Board          referee.BoardState `json:"boardState"`
	ToMove         referee.Team       `json:"toMove"`
	Status         GameStatus         `json:"status"`
	MoveHistory    []Move             `json:"moveHistory"`
	CapturedPieces CapturedPieces     `json:"capturedPieces"`
	IsCheck        bool               `json:"isCheck"`
	Resolve        *string            `json:"resolve"`
	Winner         *referee.Team      `json:"winner"`
	Players        Players            `json:"players"`
	DrawOffer      *referee.Team      `json:"drawOffer"`
	LastMove       *SimpleMove        `json:"lastMove"`
	HalfMoveClock  int                `json:"halfMoveClock"`
}

// CapturedPieces lists the pieces each team has taken.
type CapturedPieces struct {
	White []referee.Piece `json:"white"`
	Black []referee.Piece `json:"black"`
}

func NewGame(id string, timeControl time.Duration) *Game {
	g := &Game{
		ID:          id,
		state:       newGameState(timeControl),
		connections: NewGameConnections(),
		clocks: map[referee.Team]*Clock{
			referee.White: NewClock(timeControl),
			referee.Black: NewClock(timeControl),
		},
		positions: map[string]int{},
	}
	g.positions[g.state.Board.Key(g.state.ToMove)]++
	return g
}

func newGameState(timeControl time.Duration) GameState {
	timeLeft := int(timeControl.Milliseconds() / 100)
	return GameState{
		Board:       referee.NewBoard(),
		ToMove:      referee.White,
		Status:      StatusWaiting,
		MoveHistory: make([]Move, 0),
		CapturedPieces: CapturedPieces{
			White: make([]referee.Piece, 0),
			Black: make([]referee.Piece, 0),
		},
		Players: Players{
			White: ClientPlayer{Color: referee.White, TimeLeft: timeLeft},
			Black: ClientPlayer{Color: referee.Black, TimeLeft: timeLeft},
		},
	}
}

// AddPlayer seats playerID as white, then black. Rejoining returns the seat
// the player already holds.
func (g *Game) AddPlayer(playerID string) (referee.Team, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if color, ok := g.state.Players.colorOf(playerID); ok {
		return color, nil
	}
	for _, team := range []referee.Team{referee.White, referee.Black} {
		seat := g.state.Players.seat(team)
		if seat.ID != "" {
			continue
		}
		seat.ID = playerID
		log.Infof("player %s joined game %s as %s", playerID, g.ID, team)
		if g.state.Players.full() {
			g.state.Status = StatusInProgress
			g.clocks[referee.White].Start()
			g.armFlag()
		}
		return team, nil
	}
	return "", ErrGameFull
}

func (g *Game) GetState() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.flagFell()
	return g.snapshot()
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.state.Players.colorOf(playerID)
	return ok
}

func (g *Game) CanSpectate() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return !g.state.Players.full()
}

// MakeMove validates move for playerID and applies it.
func (g *Game) MakeMove(playerID string, move WSMove) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	color, err := g.requireTurn(playerID)
	if err != nil {
		return err
	}

	piece, ok := g.state.Board.PieceAt(move.From)
	if !ok {
		return fmt.Errorf("%w: no piece on %s", referee.ErrInvalidInput, move.From)
	}
	if piece.Team != color {
		return ErrNotYourTurn
	}
	mv := referee.Move{From: move.From, To: move.To, Piece: piece, Promotion: move.Promotion}
	res, err := referee.IsLegal(g.state.Board, mv)
	if err != nil {
		return fmt.Errorf("validate move: %w", err)
	}
	if !res.Legal {
		return fmt.Errorf("%w: %s%s (%s)", referee.ErrIllegalMove, mv.From, mv.To, res.Reason)
	}
	if res.PromotionRequired {
		return referee.ErrPromotionRequired
	}

	g.clocks[color].Stop()
	if err := g.executeMove(mv, res); err != nil {
		return err
	}
	if !g.state.Status.Over() {
		g.clocks[g.state.ToMove].Start()
		g.armFlag()
	}
	g.syncClocks()
	g.publish()
	return nil
}

func (g *Game) requireTurn(playerID string) (referee.Team, error) {
	if g.flagFell() {
		return "", ErrTimeExpired
	}
	if g.state.Status.Over() {
		return "", ErrGameOver
	}
	color, ok := g.state.Players.colorOf(playerID)
	if !ok {
		return "", ErrNotInGame
	}
	if g.state.Status == StatusWaiting {
		return "", ErrGameNotStarted
	}
	if color != g.state.ToMove {
		return "", ErrNotYourTurn
	}
	return color, nil
}

func (g *Game) executeMove(mv referee.Move, res referee.MoveResult) error {
	before := g.state.Board
	next, err := before.Apply(mv, res)
	if err != nil {
		return fmt.Errorf("apply move: %w", err)
	}
	mover := mv.Piece.Team

	ply := &Ply{
		Piece:          mv.Piece,
		From:           mv.From,
		To:             mv.To,
		Kind:           res.Kind,
		CastleRookMove: res.CastleRook,
		Promotion:      mv.Promotion,
	}
	if res.Captured != nil {
		captured, _ := before.PieceAt(*res.Captured)
		ply.CapturedPiece = &captured
		if mover == referee.White {
			g.state.CapturedPieces.White = append(g.state.CapturedPieces.White, captured)
		} else {
			g.state.CapturedPieces.Black = append(g.state.CapturedPieces.Black, captured)
		}
	}

	if mv.Piece.Type == referee.Pawn || res.Captured != nil {
		g.state.HalfMoveClock = 0
	} else {
		g.state.HalfMoveClock++
	}

	g.state.Board = next
	g.state.ToMove = mover.Opponent()
	g.state.DrawOffer = nil
	g.state.LastMove = &SimpleMove{From: mv.From, To: mv.To}

	status, err := referee.Assess(next, g.state.ToMove)
	if err != nil {
		return fmt.Errorf("assess position: %w", err)
	}
	ply.Notation = notation(before, mv, res, status)
	g.recordPly(mover, ply)
	g.state.IsCheck = status == referee.StatusCheck || status == referee.StatusCheckmate
	g.state.Sound = sound(res, g.state.IsCheck)

	key := next.Key(g.state.ToMove)
	g.positions[key]++

	switch {
	case status == referee.StatusCheckmate:
		g.finish(StatusCheckmate, "", &mover)
	case status == referee.StatusStalemate:
		g.finish(StatusStalemate, "", nil)
	case status == referee.StatusInsufficientMaterial:
		g.finish(StatusDraw, DrawInsufficientMaterial, nil)
	case g.positions[key] >= 3:
		g.finish(StatusDraw, DrawRepetition, nil)
	case g.state.HalfMoveClock >= 100:
		g.finish(StatusDraw, DrawFiftyMoves, nil)
	case g.state.IsCheck:
		g.state.Status = StatusCheck
	default:
		g.state.Status = StatusInProgress
	}
	log.Infof("game %s: %s played %s, status %s", g.ID, mover, ply.Notation, g.state.Status)
	return nil
}

func (g *Game) recordPly(mover referee.Team, ply *Ply) {
	if mover == referee.White {
		g.state.MoveHistory = append(g.state.MoveHistory, Move{WhitePly: ply})
		return
	}
	lastIdx := len(g.state.MoveHistory) - 1
	if lastIdx < 0 || g.state.MoveHistory[lastIdx].BlackPly != nil {
		g.state.MoveHistory = append(g.state.MoveHistory, Move{BlackPly: ply})
		return
	}
	g.state.MoveHistory[lastIdx].BlackPly = ply
}

func sound(res referee.MoveResult, check bool) string {
	switch {
	case check:
		return "check"
	case res.Kind == referee.KindCastle:
		return "castle"
	case res.Kind == referee.KindPromotion:
		return "promote"
	case res.Captured != nil:
		return "capture"
	}
	return "move"
}

func (g *Game) Resign(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	color, err := g.requirePlaying(playerID)
	if err != nil {
		return err
	}
	g.finish(StatusResigned, "", opponentPtr(color))
	g.publish()
	return nil
}

func (g *Game) OfferDraw(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	color, err := g.requirePlaying(playerID)
	if err != nil {
		return err
	}
	g.state.DrawOffer = &color
	g.publish()
	return nil
}

// AcceptDraw ends the game if the opponent of playerID has a pending offer.
func (g *Game) AcceptDraw(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	color, err := g.requirePlaying(playerID)
	if err != nil {
		return err
	}
	if g.state.DrawOffer == nil || *g.state.DrawOffer == color {
		return ErrNoDrawOffer
	}
	g.finish(StatusDraw, DrawAgreement, nil)
	g.publish()
	return nil
}

func (g *Game) DeclineDraw(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	color, err := g.requirePlaying(playerID)
	if err != nil {
		return err
	}
	if g.state.DrawOffer == nil || *g.state.DrawOffer == color {
		return ErrNoDrawOffer
	}
	g.state.DrawOffer = nil
	g.publish()
	return nil
}

func (g *Game) requirePlaying(playerID string) (referee.Team, error) {
	if g.flagFell() {
		return "", ErrTimeExpired
	}
	if g.state.Status.Over() {
		return "", ErrGameOver
	}
	color, ok := g.state.Players.colorOf(playerID)
	if !ok {
		return "", ErrNotInGame
	}
	if g.state.Status == StatusWaiting {
		return "", ErrGameNotStarted
	}
	return color, nil
}

func (g *Game) finish(status GameStatus, reason string, winner *referee.Team) {
	g.state.Status = status
	g.state.Winner = winner
	g.state.DrawOffer = nil
	resolve := string(status)
	if reason != "" {
		resolve = reason
	}
	g.state.Resolve = &resolve
	for _, clock := range g.clocks {
		clock.Stop()
	}
	if g.flagTimer != nil {
		g.flagTimer.Stop()
	}
	g.syncClocks()
	log.Infof("game %s finished: %s", g.ID, resolve)
}

// flagFell ends the game on time when the side to move has no time left.
// Callers hold g.mu.
func (g *Game) flagFell() bool {
	if g.state.Status == StatusWaiting || g.state.Status.Over() {
		return false
	}
	if !g.clocks[g.state.ToMove].Expired() {
		return false
	}
	log.Infof("game %s: %s ran out of time", g.ID, g.state.ToMove)
	g.finish(StatusTimeout, "", opponentPtr(g.state.ToMove))
	g.publish()
	return true
}

// armFlag schedules a time check for when the running clock hits zero, so an
// idle player still loses on time. Callers hold g.mu.
func (g *Game) armFlag() {
	if g.flagTimer != nil {
		g.flagTimer.Stop()
	}
	g.flagTimer = time.AfterFunc(g.clocks[g.state.ToMove].GetTimeLeft(), func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.flagFell()
	})
}

func (g *Game) syncClocks() {
	g.state.Players.White.TimeLeft = g.clocks[referee.White].Deciseconds()
	g.state.Players.Black.TimeLeft = g.clocks[referee.Black].Deciseconds()
}

func opponentPtr(team referee.Team) *referee.Team {
	opp := team.Opponent()
	return &opp
}

// snapshot copies the state so it can leave the lock.
func (g *Game) snapshot() GameState {
	state := g.state
	state.Board = g.state.Board.Clone()
	state.MoveHistory = append([]Move(nil), g.state.MoveHistory...)
	state.CapturedPieces.White = append([]referee.Piece(nil), g.state.CapturedPieces.White...)
	state.CapturedPieces.Black = append([]referee.Piece(nil), g.state.CapturedPieces.Black...)
	return state
}

// publish queues the current state for every socket. Callers hold g.mu, so
// states are queued in the order they happened.
func (g *Game) publish() {
	g.connections.broadcast(g.snapshot())
}

// SendError queues an error message on playerID's socket if conn is the
// registered one.
func (g *Game) SendError(playerID string, conn Conn, err error) bool {
	return g.connections.send(playerID, conn, ws.NewError(err))
}

func (g *Game) RegisterConnection(playerID string, conn Conn) error {
	g.mu.Lock()
	_, seated := g.state.Players.colorOf(playerID)
	isAuthorized := seated || !g.state.Players.full()
	g.mu.Unlock()

	if !isAuthorized {
		return ErrNotAuthorized
	}

	if err := g.connections.add(playerID, conn); err != nil {
		if errors.Is(err, ErrDuplicateSocket) {
			// Keep the healthy connection, drop the new one.
			rejectDuplicate(conn)
			return nil
		}
		return err
	}
	log.Infof("registered connection %p for player %s in game %s", conn, playerID, g.ID)

	g.mu.Lock()
	g.publish()
	g.mu.Unlock()
	return nil
}

func (g *Game) UnregisterConnection(playerID string, conn Conn) {
	g.connections.remove(playerID, conn)
}
