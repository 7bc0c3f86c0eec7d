package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbeisheim/chess-referee/internal/config"
	"github.com/benbeisheim/chess-referee/internal/controller"
	"github.com/benbeisheim/chess-referee/internal/middleware"
	"github.com/benbeisheim/chess-referee/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
)

func main() {
	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gameManager := service.NewGameManager(cfg.Game.TimeControl)
	gameService := service.NewGameService(gameManager)
	go gameManager.RunMatchmaking(ctx, cfg.Game.MatchmakingInterval)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, X-Player-ID",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: true,
	}))

	setupRoutes(app, cfg, gameService)

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			log.Errorf("shutdown: %v", err)
		}
	}()

	log.Infof("listening on %s", cfg.Server.Addr)
	if err := app.Listen(cfg.Server.Addr); err != nil {
		log.Fatal(err)
	}
}

func setupRoutes(app *fiber.App, cfg *config.Configuration, gameService *service.GameService) {
	gameController := controller.NewGameController(gameService)
	refereeController := controller.NewRefereeController(gameService)
	wsController := controller.NewWebSocketController(gameService)

	wsConfig := websocket.Config{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		Origins:         []string{cfg.Server.AllowOrigins},
	}

	// WebSocket routes
	wsRoutes := app.Group("/ws", middleware.EnsurePlayerID(), middleware.WebSocketUpgrade())
	wsRoutes.Get("/game/:gameId", websocket.New(wsController.HandleConnection, wsConfig))
	wsRoutes.Get("/matchmaking", websocket.New(wsController.HandleMatchmaking, wsConfig))

	api := app.Group("/api")

	// Stateless referee queries need no player identity.
	refereeRoutes := api.Group("/referee")
	refereeRoutes.Post("/validate", refereeController.Validate)
	refereeRoutes.Post("/legal-moves", refereeController.LegalMoves)
	refereeRoutes.Post("/assess", refereeController.Assess)
	refereeRoutes.Post("/fen", refereeController.ImportFEN)

	gameRoutes := api.Group("/game", middleware.EnsurePlayerID())
	gameRoutes.Post("/matchmaking/join", gameController.JoinMatchmaking)
	gameRoutes.Post("/create", gameController.CreateGame)
	gameRoutes.Post("/:gameId/join", gameController.JoinGame)
	gameRoutes.Get("/:gameId/state", gameController.GetGameState)
}
