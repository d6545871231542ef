package router

import (
	"github.com/gin-gonic/gin"

	"doc-chat-backend/controller"
	"doc-chat-backend/middleware"
)

type Controllers struct {
	Document     *controller.DocumentController
	Chat         *controller.ChatController
	Conversation *controller.ConversationController
}

func Register(controllers Controllers) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		api.POST("/conversation", controllers.Conversation.CreateConversation)
		api.GET("/conversations", controllers.Conversation.GetConversations)
		api.DELETE("/conversation/:id", controllers.Conversation.DeleteConversation)
		api.GET("/conversation/:id/messages", controllers.Conversation.GetConversationMessages)
		api.PUT("/conversation/:id/title", controllers.Conversation.UpdateConversationTitle)

		api.POST("/documents", controllers.Document.CreateDocument)
		api.GET("/documents/status", controllers.Document.GetDocumentStatus)

		api.POST("/chat/respond", controllers.Chat.Respond)
		api.POST("/chat/stream", controllers.Chat.RespondStream)
	}

	return r
}
