package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/Neerajupadhayay2004/smart-home-automation/internal/adapters/http"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/app/monitor"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/app/session"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/config"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/events"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/rtc"
	sig "github.com/Neerajupadhayay2004/smart-home-automation/internal/signal"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	bus := events.NewBus()
	peers := rtc.NewFactory(cfg.ICEServers)
	mic := rtc.NewRTPAudioSource(cfg.AudioCaptureAddr)
	signaling := sig.NewClient(cfg.SignalingURL, cfg.ReconnectMin, cfg.ReconnectMax)
	manager := session.NewManager(bus, peers, mic, signaling)
	signaling.SetHandler(manager)
	signaling.Connect(ctx)

	mon := monitor.NewGenerator()

	r := router.SetupRouter(ctx, cfg, manager, bus, mon)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("camera streaming agent started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	manager.Close()
	signaling.Close()
	log.Info().Msg("Server exited gracefully")
}
