package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"doc-chat-backend/model"
	"doc-chat-backend/request"
	"doc-chat-backend/response"
	"doc-chat-backend/utils"
)

// Responder 响应引擎入口
type Responder interface {
	Respond(ctx context.Context, req request.ChatRequest) (*model.Message, error)
	RespondStream(ctx context.Context, req request.ChatRequest, send func(chunk string)) (*model.Message, error)
}

type ChatController struct {
	Chat Responder
}

func NewChatController(chat Responder) *ChatController {
	return &ChatController{Chat: chat}
}

// Respond 同步问答接口，返回持久化后的AI消息
func (cc *ChatController) Respond(c *gin.Context) {
	var req request.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	aiMessage, err := cc.Chat.Respond(c.Request.Context(), req)
	if err != nil {
		// 具体原因只进日志，接口返回统一错误信息
		slog.Error(ErrChatRespond.Error(),
			"conversation_id", req.ConversationID,
			"err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrChatRespond.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: toMessageResponse(*aiMessage),
	})
}

// RespondStream 流式问答接口，SSE推送回复chunk
func (cc *ChatController) RespondStream(c *gin.Context) {
	utils.SetSSEHeaders(c)

	var req request.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		utils.SendSSEMessage(c, utils.EventError, ErrParseRequest.Error())
		utils.SendSSEMessage(c, utils.EventDone, "")
		return
	}

	// 请求上下文在客户端断开时由net/http取消，生成随之终止
	_, err := cc.Chat.RespondStream(c.Request.Context(), req, func(chunk string) {
		utils.SendSSEMessage(c, utils.EventAnswer, chunk)
	})
	if err != nil {
		slog.Error(ErrChatRespond.Error(),
			"conversation_id", req.ConversationID,
			"err", err)
		utils.SendSSEMessage(c, utils.EventError, ErrChatRespond.Error())
		utils.SendSSEMessage(c, utils.EventDone, "")
		return
	}

	utils.SendSSEMessage(c, utils.EventDone, "")
}

func toMessageResponse(message model.Message) response.MessageResponse {
	return response.MessageResponse{
		MessageID:     message.MessageID,
		CreatedAt:     message.CreatedAt,
		IsUserMessage: message.Role == model.RoleUser,
		Content:       message.Content,
	}
}
