package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"doc-chat-backend/dao"
	"doc-chat-backend/model"
	"doc-chat-backend/request"
	"doc-chat-backend/response"
	"doc-chat-backend/service/ingest"
	"doc-chat-backend/service/mq"
)

// Queue 处理任务的投递能力
type Queue interface {
	SendMessage(ctx context.Context, message *mq.Message) error
}

type DocumentController struct {
	Queue Queue
}

func NewDocumentController(queue Queue) *DocumentController {
	return &DocumentController{Queue: queue}
}

// CreateDocument 在文件字节成功写入OSS后调用
// 创建QUEUED状态的文档元数据，向MQ投递向量化处理任务
func (dc *DocumentController) CreateDocument(c *gin.Context) {
	var req request.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	doc := model.Document{
		DocumentID:     uuid.New().String(),
		ConversationID: req.ConversationID,
		FileName:       req.FileName,
		FileType:       model.FileType(req.FileType),
		ObjectName:     req.ObjectName,
		Status:         model.StatusQueued,
		Review:         req.Review,
	}

	if err := dao.CreateDocument(&doc); err != nil {
		if errors.Is(err, dao.ErrDocumentExists) {
			slog.Info(ErrDocumentExists.Error(),
				"conversation_id", req.ConversationID,
				"file_name", req.FileName)
			c.AbortWithStatusJSON(http.StatusConflict, response.Response{
				Msg: ErrDocumentExists.Error(),
			})
			return
		}

		slog.Error(ErrCreateDocument.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrCreateDocument.Error(),
		})
		return
	}

	err := dc.Queue.SendMessage(c.Request.Context(), &mq.Message{
		Topic: mq.TopicDocument,
		Tag:   mq.TagProcess,
		Key:   doc.DocumentID,
		Payload: ingest.ProcessMessage{
			DocumentID: doc.DocumentID,
		},
	})
	if err != nil {
		// 任务投递失败时文档会永远停留在QUEUED，直接记为失败
		slog.Error("Failed to enqueue processing job",
			"document_id", doc.DocumentID,
			"err", err)
		if markErr := dao.MarkDocumentFailed(doc.DocumentID, "failed to enqueue processing job"); markErr != nil {
			slog.Error("Failed to mark document failed",
				"document_id", doc.DocumentID,
				"err", markErr)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrCreateDocument.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, response.Response{
		Data: toDocumentResponse(doc),
	})
}

// GetDocumentStatus 轮询接口，返回对话内全部文档及其处理状态
func (dc *DocumentController) GetDocumentStatus(c *gin.Context) {
	conversationID := c.Query("conversation-id")
	if conversationID == "" {
		slog.Error(ErrParseRequest.Error(), "err", "missing conversation-id")
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	docs, err := dao.GetDocumentsByConversationID(conversationID)
	if err != nil {
		slog.Error(ErrGetDocumentStatus.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetDocumentStatus.Error(),
		})
		return
	}

	var resp response.GetDocumentStatusResponse
	for _, doc := range docs {
		resp.Documents = append(resp.Documents, toDocumentResponse(doc))
	}

	c.JSON(http.StatusOK, response.Response{
		Data: resp,
	})
}

func toDocumentResponse(doc model.Document) response.DocumentResponse {
	return response.DocumentResponse{
		DocumentID:      doc.DocumentID,
		ConversationID:  doc.ConversationID,
		FileName:        doc.FileName,
		FileType:        string(doc.FileType),
		Status:          string(doc.Status),
		ProcessingError: doc.ProcessingError,
		Review:          doc.Review,
		CreatedAt:       doc.CreatedAt,
	}
}
