package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"doc-chat-backend/dao"
	"doc-chat-backend/model"
	"doc-chat-backend/request"
	"doc-chat-backend/response"
)

// ConversationDeleter 对话级联删除能力
type ConversationDeleter interface {
	Delete(ctx context.Context, conversationID string) error
}

type ConversationController struct {
	Deleter ConversationDeleter
}

func NewConversationController(deleter ConversationDeleter) *ConversationController {
	return &ConversationController{Deleter: deleter}
}

func (cc *ConversationController) CreateConversation(c *gin.Context) {
	conversation := model.Conversation{
		ConversationID: uuid.New().String(),
		Title:          model.DefaultConversationTitle,
	}
	if err := dao.CreateConversation(&conversation); err != nil {
		slog.Error(ErrCreateConversation.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrCreateConversation.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, response.Response{
		Data: response.ConversationResponse{
			ConversationID: conversation.ConversationID,
			Title:          conversation.Title,
		},
	})
}

func (cc *ConversationController) GetConversations(c *gin.Context) {
	conversations, err := dao.GetConversations()
	if err != nil {
		slog.Error(ErrGetConversations.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetConversations.Error(),
		})
		return
	}

	var resp response.GetConversationsResponse
	for _, conversation := range conversations {
		resp.Conversations = append(resp.Conversations, response.ConversationResponse{
			ConversationID: conversation.ConversationID,
			Title:          conversation.Title,
		})
	}

	c.JSON(http.StatusOK, response.Response{
		Data: resp,
	})
}

// DeleteConversation 删除对话及其全部消息、文档元数据
// OSS对象和向量索引记录由异步清理任务处理
func (cc *ConversationController) DeleteConversation(c *gin.Context) {
	conversationID := c.Param("id")
	if err := cc.Deleter.Delete(c.Request.Context(), conversationID); err != nil {
		slog.Error(ErrDeleteConversation.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrDeleteConversation.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{})
}

func (cc *ConversationController) GetConversationMessages(c *gin.Context) {
	conversationID := c.Param("id")

	conversation, err := dao.GetConversationByID(conversationID)
	if err != nil {
		slog.Error(ErrGetConversationMessages.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetConversationMessages.Error(),
		})
		return
	}
	if conversation == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
			Msg: ErrConversationNotFound.Error(),
		})
		return
	}

	messages, err := dao.GetMessagesByConversationID(conversationID)
	if err != nil {
		slog.Error(ErrGetConversationMessages.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetConversationMessages.Error(),
		})
		return
	}

	var resp response.GetConversationMessagesResponse
	for _, message := range messages {
		resp.Messages = append(resp.Messages, toMessageResponse(message))
	}

	c.JSON(http.StatusOK, response.Response{
		Data: resp,
	})
}

func (cc *ConversationController) UpdateConversationTitle(c *gin.Context) {
	var req request.UpdateConversationTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	conversationID := c.Param("id")
	if err := dao.UpdateConversationTitle(conversationID, req.Title); err != nil {
		slog.Error(ErrUpdateConversationTitle.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrUpdateConversationTitle.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{})
}
