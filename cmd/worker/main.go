package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"syntagma/internal/config"
	"syntagma/internal/indexer"
	infraES "syntagma/internal/infra/elasticsearch"
	infraKafka "syntagma/internal/infra/kafka"
	"syntagma/pkg/logger"

	"go.uber.org/zap"
)

const groupID = "syntagma-comment-indexer"

func main() {
	path := "configs/config.yaml"
	if p := os.Getenv("SYNTAGMA_CONFIG"); p != "" {
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.FilePath); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	// 索引同步 worker 依赖 ES，不可用时直接退出
	if err := infraES.Init(&cfg.Elasticsearch); err != nil {
		logger.Fatal("Failed to init elasticsearch", zap.Error(err))
	}
	defer infraES.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	index := infraES.NewCommentIndex(infraES.Get(), cfg.Elasticsearch.CommentsIndex())
	if err := index.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure comment index", zap.Error(err))
	}

	// 监听系统信号，优雅退出
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	topic := cfg.Kafka.CommentEventsTopic()
	logger.Info("Comment indexer started",
		zap.String("topic", topic),
		zap.String("group", groupID),
		zap.String("index", cfg.Elasticsearch.CommentsIndex()),
		zap.Strings("brokers", cfg.Kafka.Brokers),
	)

	reader := infraKafka.NewCommentEventReader(cfg.Kafka.Brokers, topic, groupID)
	infraKafka.ConsumeCommentEvents(ctx, reader, indexer.New(index).Handle)
}
