package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/Neerajupadhayay2004/smart-home-automation/internal/app/monitor"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/config"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/events"
)

func genClientToken() string {
	return uuid.NewString()
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, svc CameraService, bus *events.Bus, mon *monitor.Generator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("HomecamSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := &Handlers{Service: svc, Monitor: mon}

	api := r.Group("/api")
	api.GET("/cameras", h.ListCameras)
	api.GET("/cameras/:id", h.GetCamera)
	api.POST("/cameras/:id/connect", h.Connect)
	api.POST("/cameras/:id/disconnect", h.Disconnect)
	api.POST("/cameras/:id/ptz", h.PanTiltZoom)
	api.POST("/cameras/:id/preset", h.Preset)
	api.POST("/cameras/:id/night-vision", h.NightVision)
	api.POST("/cameras/:id/recording", h.Recording)
	api.POST("/cameras/:id/quality", h.Quality)
	api.POST("/cameras/:id/two-way-audio", h.TwoWayAudio)
	api.GET("/monitoring/live", h.LiveMonitoring)

	api.GET("/ws/events", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws events endpoint hit")
		HandleEventsSocket(ctx, c, bus)
	})

	return r
}
