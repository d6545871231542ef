package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doc-chat-backend/config"
	"doc-chat-backend/controller"
	"doc-chat-backend/dao"
	"doc-chat-backend/router"
	"doc-chat-backend/service/chat"
	"doc-chat-backend/service/conversation"
	"doc-chat-backend/service/ingest"
	"doc-chat-backend/service/ingest/chunkembed"
	"doc-chat-backend/service/mq"
	"doc-chat-backend/service/objectstore"
	"doc-chat-backend/service/vectorstore"
)

func main() {
	cfg := config.MustLoad()

	if err := dao.Init(cfg.MySQL.DSN); err != nil {
		slog.Error("Failed to init database", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	objectStore := objectstore.NewClient(cfg.OSS)

	vectorStore, err := vectorstore.NewClient(ctx, cfg.Milvus, cfg.Model.EmbeddingDim)
	if err != nil {
		slog.Error("Failed to create vector store client", "err", err)
		os.Exit(1)
	}

	embedder, err := chunkembed.NewEmbedder(cfg.Model)
	if err != nil {
		slog.Error("Failed to create embedder", "err", err)
		os.Exit(1)
	}

	llm, err := chat.NewLLM(cfg.Model)
	if err != nil {
		slog.Error("Failed to create llm client", "err", err)
		os.Exit(1)
	}

	ingestService := ingest.NewService(
		objectStore,
		vectorStore,
		chunkembed.NewEngine(embedder),
		ingest.DAODocumentStore{},
	)
	chatService := chat.NewService(llm, embedder, vectorStore, chat.DAOStore{})
	cleaner := conversation.NewCleaner(objectStore, vectorStore)

	mqService, err := mq.NewService(cfg.MQ)
	if err != nil {
		slog.Error("Failed to create mq service", "err", err)
		os.Exit(1)
	}
	mqService.RegisterHandler(mq.TopicDocument, mq.TagProcess, ingestService.HandleProcessMessage)
	mqService.RegisterHandler(mq.TopicDocument, mq.TagDelete, cleaner.HandleDeleteMessage)

	if err := mqService.Start(); err != nil {
		slog.Error("Failed to start mq service", "err", err)
		os.Exit(1)
	}
	defer mqService.Shutdown()

	conversationService := conversation.NewService(mqService)

	r := router.Register(router.Controllers{
		Document:     controller.NewDocumentController(mqService),
		Chat:         controller.NewChatController(chatService),
		Conversation: controller.NewConversationController(conversationService),
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		slog.Info("Server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
	}
}
