package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cornip/Rina/internal/status"
)

type StatsProvider interface {
	Snapshot() []status.ChannelStats
}

type ChannelHandler struct {
	stats StatsProvider
}

func NewChannelHandler(stats StatsProvider) *ChannelHandler {
	return &ChannelHandler{stats: stats}
}

func (h *ChannelHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"channels": h.stats.Snapshot()})
}
