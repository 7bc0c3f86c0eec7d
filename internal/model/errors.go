package model

import "errors"

var (
	ErrGameFull        = errors.New("game is full")
	ErrNotInGame       = errors.New("player not in game")
	ErrGameNotStarted  = errors.New("game has not started")
	ErrGameOver        = errors.New("game is over")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrTimeExpired     = errors.New("time expired")
	ErrNoDrawOffer     = errors.New("no draw offer to answer")
	ErrAlreadyQueued   = errors.New("player already in queue")
	ErrNotAuthorized   = errors.New("not authorized to join this game")
	ErrDuplicateSocket = errors.New("connection already exists")
)
