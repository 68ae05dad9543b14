package routers

import (
	"github.com/gin-gonic/gin"

	"github.com/88lin/xianyu-super-butler/internal/app/pkg/logger"
	"github.com/88lin/xianyu-super-butler/internal/app/server/handlers/account"
	"github.com/88lin/xianyu-super-butler/internal/app/server/handlers/card"
	"github.com/88lin/xianyu-super-butler/internal/app/server/handlers/message"
	"github.com/88lin/xianyu-super-butler/internal/app/server/handlers/order"
	"github.com/88lin/xianyu-super-butler/internal/app/server/handlers/rule"
	"github.com/88lin/xianyu-super-butler/internal/app/server/handlers/setting"
	"github.com/88lin/xianyu-super-butler/internal/app/server/middlewares"
)

// SetupRoutes 配置所有路由，使用 Route Group 分类
func SetupRoutes(
	log logger.Logger,
	orderHandler *order.OrderHandler,
	ruleHandler *rule.RuleHandler,
	cardHandler *card.CardHandler,
	messageHandler *message.MessageHandler,
	settingHandler *setting.SettingHandler,
	accountHandler *account.AccountHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middlewares.CORS())
	r.Use(middlewares.Logger(log))
	r.Use(middlewares.ErrorHandler())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "xianyu-super-butler",
			"message": "Service is running",
		})
	})

	v1 := r.Group("/api/v1")
	{
		orders := v1.Group("/orders")
		{
			orders.GET("", orderHandler.List)
			orders.GET("/:id", orderHandler.Get)
			orders.POST("/sync", orderHandler.Sync)
			orders.POST("/ship", orderHandler.Ship)
			orders.POST("/:id/events", orderHandler.ApplyEvent)
			orders.GET("/:id/result", orderHandler.WaitResult)
		}

		rules := v1.Group("/rules")
		{
			rules.GET("/shipping", ruleHandler.ListShipping)
			rules.POST("/shipping", ruleHandler.UpsertShipping)
			rules.DELETE("/shipping/:id", ruleHandler.DeleteShipping)

			rules.GET("/reply", ruleHandler.ListReply)
			rules.POST("/reply", ruleHandler.UpsertReply)
			rules.DELETE("/reply/:id", ruleHandler.DeleteReply)
		}

		groups := v1.Group("/card-groups")
		{
			groups.POST("", cardHandler.CreateGroup)
			groups.GET("", cardHandler.ListGroups)
			groups.GET("/:id", cardHandler.GetGroup)
			groups.PUT("/:id", cardHandler.UpdateGroup)
			groups.DELETE("/:id", cardHandler.DeleteGroup)
			groups.POST("/:id/cards", cardHandler.ImportCards)
		}

		v1.POST("/messages/reply", messageHandler.Resolve)

		settings := v1.Group("/settings")
		{
			settings.GET("", settingHandler.Get)
			settings.PUT("", settingHandler.Update)
		}

		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.Create)
			accounts.GET("", accountHandler.List)
			accounts.GET("/:id", accountHandler.Get)
		}
	}

	return r
}
