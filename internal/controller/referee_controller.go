package controller

import (
	"fmt"

	"github.com/benbeisheim/chess-referee/internal/referee"
	"github.com/benbeisheim/chess-referee/internal/service"
	"github.com/gofiber/fiber/v2"
)

// RefereeController exposes the stateless referee queries. The client sends
// the whole position with every request.
type RefereeController struct {
	gameService *service.GameService
}

func NewRefereeController(gameService *service.GameService) *RefereeController {
	return &RefereeController{gameService: gameService}
}

type validateRequest struct {
	Board referee.BoardState `json:"board"`
	Move  referee.Move       `json:"move"`
}

type legalMovesRequest struct {
	Board  referee.BoardState `json:"board"`
	Square referee.Square     `json:"square"`
}

type assessRequest struct {
	Board  referee.BoardState `json:"board"`
	ToMove referee.Team       `json:"toMove"`
}

type fenRequest struct {
	FEN string `json:"fen"`
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fmt.Errorf("%w: %v", referee.ErrInvalidInput, err)
	}
	return nil
}

func (rc *RefereeController) Validate(c *fiber.Ctx) error {
	var req validateRequest
	if err := parseBody(c, &req); err != nil {
		return errorJSON(c, err)
	}
	res, err := rc.gameService.Validate(req.Board, req.Move)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(res)
}

func (rc *RefereeController) LegalMoves(c *fiber.Ctx) error {
	var req legalMovesRequest
	if err := parseBody(c, &req); err != nil {
		return errorJSON(c, err)
	}
	moves, err := rc.gameService.LegalMoves(req.Board, req.Square)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(moves)
}

func (rc *RefereeController) Assess(c *fiber.Ctx) error {
	var req assessRequest
	if err := parseBody(c, &req); err != nil {
		return errorJSON(c, err)
	}
	status, err := rc.gameService.Assess(req.Board, req.ToMove)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(fiber.Map{"status": status})
}

func (rc *RefereeController) ImportFEN(c *fiber.Ctx) error {
	var req fenRequest
	if err := parseBody(c, &req); err != nil {
		return errorJSON(c, err)
	}
	board, toMove, err := rc.gameService.ImportFEN(req.FEN)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(fiber.Map{"board": board, "toMove": toMove})
}
