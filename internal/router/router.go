package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/auth"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/handler"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/pkg/constants"
)

// Deps are the handlers the router wires up.
type Deps struct {
	Auth      *auth.Manager
	Memorials *handler.MemorialHandler
	Devices   *handler.DeviceHandler
	Signaling *handler.SignalingHandler
	WS        *handler.SignalingWSHandler
	Streams   *handler.StreamHandler
	Tokens    *handler.TokenHandler
	Health    *handler.HealthHandler
}

// New builds the HTTP router. Camera-facing endpoints (device status,
// signaling, camera tokens) are unauthenticated; the pairing token and the
// unguessable device id are the camera's credentials.
func New(d Deps) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET(constants.PathHealth, d.Health.Health)
	r.GET(constants.PathReady, d.Health.Ready)

	api := r.Group("/api")

	memorials := api.Group("/memorials", d.Auth.RequireAuth())
	{
		memorials.POST("", d.Memorials.Create)
		memorials.GET("/:id", d.Memorials.Get)
		memorials.DELETE("/:id", d.Memorials.Delete)
	}

	devices := api.Group("/devices")
	{
		devices.POST("/token", d.Auth.RequireAuth(), d.Devices.IssueToken)
		devices.POST("/cleanup", d.Auth.RequireAuth(), d.Auth.RequireAdmin(), d.Devices.Cleanup)
		devices.POST("/claim", d.Devices.Claim)
		devices.GET("/:id/status", d.Devices.GetStatus)
		devices.POST("/:id/status", d.Devices.UpdateStatus)
	}

	signaling := api.Group("/signaling")
	{
		signaling.POST("/send", d.Signaling.Send)
		signaling.POST("/poll", d.Signaling.Poll)
		signaling.GET("/ws/:deviceId", d.WS.ServeWS)
	}

	streams := api.Group("/streams")
	{
		streams.POST("", d.Auth.RequireAuth(), d.Streams.Create)
		streams.POST("/go-live", d.Auth.RequireAuth(), d.Streams.GoLive)
		streams.POST("/broadcast-status", d.Auth.RequireAuth(), d.Streams.BroadcastStatus)
		streams.GET("/:id/live", d.Auth.RequireAuth(), d.Streams.CheckLive)
		streams.DELETE("/:id", d.Auth.RequireAuth(), d.Streams.Teardown)
	}

	tokens := api.Group("/tokens")
	{
		tokens.POST("/camera", d.Tokens.CameraToken)
		tokens.POST("/switcher", d.Auth.RequireAuth(), d.Tokens.SwitcherToken)
	}

	return r
}
