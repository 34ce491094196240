package router

import (
	"github.com/gin-gonic/gin"

	"github.com/cornip/Rina/internal/http/handler"
)

type Handlers struct {
	Health   *handler.HealthHandler
	Records  *handler.RecordHandler
	Channels *handler.ChannelHandler
	Status   *handler.StatusStreamHandler
}

func SetupRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", h.Health.Health)

	v1 := router.Group("/api/v1")
	{
		if h.Records != nil {
			RecordRouter(v1.Group("/records"), h.Records)
		}
		ChannelRouter(v1.Group("/channels"), h.Channels, h.Status)
	}
}

func RecordRouter(rg *gin.RouterGroup, h *handler.RecordHandler) {
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
}

func ChannelRouter(rg *gin.RouterGroup, h *handler.ChannelHandler, status *handler.StatusStreamHandler) {
	rg.GET("", h.List)
	if status != nil {
		rg.GET("/stream", status.Stream)
	}
}
