package api

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the scheduling API on a router group.
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.GET("/healthz", h.HandleHealthz)

	rg.POST("/purchases", h.HandleCreatePurchase)
	rg.GET("/purchases/:id", h.HandleGetPurchase)

	rg.POST("/phases", h.HandleCreatePhase)
	rg.GET("/phases/:id", h.HandleGetPhase)
	rg.GET("/phases/:id/quota", h.HandleQuota)
	rg.POST("/phases/:id/pause", h.HandlePause)
	rg.POST("/phases/:id/resume", h.HandleResume)
	rg.POST("/phases/:id/extend", h.HandleExtend)
	rg.POST("/phases/:id/freeze", h.HandleFreeze)
	rg.POST("/phases/:id/unfreeze", h.HandleUnfreeze)
	rg.POST("/phases/:id/cancel", h.HandleCancel)
	rg.POST("/phases/:id/duplicate", h.HandleDuplicate)

	rg.GET("/clients/:clientID/purchases", h.HandleListPurchases)
	rg.GET("/clients/:clientID/chain", h.HandleChain)
	rg.GET("/clients/:clientID/current", h.HandleCurrent)
}
