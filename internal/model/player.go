package model

import "github.com/benbeisheim/chess-referee/internal/referee"

type Player struct {
	ID string
}

type ClientPlayer struct {
	ID       string       `json:"name"`
	Color    referee.Team `json:"color"`
	TimeLeft int          `json:"timeLeft"`
}

type Players struct {
	White ClientPlayer `json:"white"`
	Black ClientPlayer `json:"black"`
}

func (p *Players) seat(team referee.Team) *ClientPlayer {
	if team == referee.White {
		return &p.White
	}
	return &p.Black
}

// colorOf returns the team playerID is seated as.
func (p *Players) colorOf(playerID string) (referee.Team, bool) {
	switch {
	case playerID == "":
		return "", false
	case p.White.ID == playerID:
		return referee.White, true
	case p.Black.ID == playerID:
		return referee.Black, true
	}
	return "", false
}

func (p *Players) full() bool {
	return p.White.ID != "" && p.Black.ID != ""
}
