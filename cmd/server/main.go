package main

import (
	"context"
	"log"
	"net/http"

	"principality-lite/internal/archive"
	"principality-lite/internal/config"
	"principality-lite/internal/coordinator"
	"principality-lite/internal/gamesvc"
	"principality-lite/internal/gateway"
	"principality-lite/internal/registry"
	"principality-lite/principality"
	"principality-lite/principality/strategy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Server] Failed to load config: %v", err)
	}

	archiveService, archiveMode, err := archive.NewServiceFromEnv(cfg.ArchiveMode, cfg.ArchiveDSN)
	if err != nil {
		log.Fatalf("[Server] Failed to init archive: %v", err)
	}
	defer archiveService.Close()

	engine := principality.New()
	reg := registry.New(cfg.MaxGames, cfg.GameTTL, cfg.SweepInterval)
	defer reg.Stop()

	fallback := strategy.NewBigMoney()
	strategies := []strategy.Strategy{}
	if cfg.GeminiAPIKey != "" {
		tier, err := strategy.ParseTier(cfg.ModelTier)
		if err != nil {
			log.Fatalf("[Server] %v", err)
		}
		remote, err := strategy.NewGemini(context.Background(), cfg.GeminiAPIKey, tier)
		if err != nil {
			log.Fatalf("[Server] Failed to init remote strategy: %v", err)
		}
		defer remote.Close()
		strategies = append(strategies, remote)
	} else {
		log.Printf("[Server] No API key set, automated play uses the deterministic strategy only")
	}
	strategies = append(strategies, fallback)
	pipeline := strategy.NewPipeline(strategies...)

	coord := coordinator.New(engine, pipeline, fallback, reg, coordinator.Options{
		TurnTimeout:     cfg.TurnTimeout,
		DecisionTimeout: cfg.DecisionTimeout,
	})
	svc := gamesvc.New(engine, reg, coord, archiveService)
	gw := gateway.New(svc)
	gameHTTP := gamesvc.NewHTTPHandler(svc)

	// Every coordinator event is pushed to the game's subscribers.
	for _, t := range []coordinator.EventType{
		coordinator.EventTurnStarted,
		coordinator.EventMoveMade,
		coordinator.EventStateChanged,
		coordinator.EventGameOver,
		coordinator.EventNarration,
	} {
		coord.On(t, func(ev coordinator.Event) {
			gw.BroadcastToGame(ev.GameID, string(ev.Type), ev.Payload)
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	gameHTTP.RegisterRoutes(mux)

	log.Printf("[Server] Archive mode: %s", archiveMode)
	log.Printf("[Server] Strategy chain: %v", pipeline.Names())
	log.Printf("[Server] Listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		log.Fatalf("[Server] Failed to start: %v", err)
	}
}
