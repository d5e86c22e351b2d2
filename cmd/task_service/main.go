package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"Colabi/internal/config"
	"Colabi/internal/database/kafka"
	"Colabi/internal/database/milvus"
	"Colabi/internal/database/minio"
	"Colabi/internal/database/mongo"
	"Colabi/internal/database/mysql"
	"Colabi/internal/database/redis"
	"Colabi/internal/embedding"
	"Colabi/internal/llm"
	"Colabi/internal/retrieval"
	"Colabi/internal/task_service/api"
	"Colabi/internal/task_service/consumer"
	"Colabi/internal/task_service/publisher"
	"Colabi/internal/task_service/service"
	"Colabi/internal/task_service/store"
	"Colabi/internal/task_service/tools"
	"Colabi/pkg/logger"
)

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// 2. 初始化 Logger
	level, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.Init(level)
	appLogger := logger.New("task_service", 0, 0)
	appLogger.Info("Logger initialized for Task Service")

	// 3. 初始化 MySQL
	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to connect to MySQL: %v", err))
	}
	defer mysql.Close()
	taskStore := store.New(db)

	// 4. 初始化 Redis (派发锁)
	redisClient, err := redis.GetClient(&cfg.Databases.Redis)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}
	defer redis.Close()
	guard := service.NewInflightGuard(redisClient)

	// 5. 初始化 MongoDB (聊天会话)
	mongoClient, err := mongo.GetClient(&cfg.Databases.MongoDB)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to connect to MongoDB: %v", err))
	}
	defer mongo.Close(context.Background())
	sessions := mongoClient.Database(cfg.Databases.MongoDB.Database).Collection(cfg.Databases.MongoDB.Collection)

	// 6. 初始化 Milvus 与 Embedding, 组装检索层
	milvusClient, err := milvus.GetClient(context.Background(), &cfg.Databases.Milvus)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to connect to Milvus: %v", err))
	}
	defer milvusClient.Close()
	embedder, err := embedding.NewClient(cfg.Embedding)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to create embedding client: %v", err))
	}
	retrievalProvider := retrieval.NewProvider(embedder, milvusClient, appLogger)

	// 7. 初始化 MinIO 上传器
	minioClient, err := minio.GetClient(&cfg.Databases.MinIO)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to connect to MinIO: %v", err))
	}
	uploader := service.NewUploader(minioClient, cfg.Databases.MinIO)

	// 8. 初始化 Kafka 客户端 (确保任务主题存在)
	kafkaClient, err := kafka.GetClient(&cfg.Databases.Kafka)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to create kafka client: %v", err))
	}
	defer kafkaClient.Close()

	// 9. 初始化 LLM 工厂与工具注册表
	llmFactory := llm.NewFactory(cfg.LLM)
	resolverClient, err := llmFactory.Client(nil)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to create LLM client: %v", err))
	}
	toolRegistry := tools.NewRegistry(cfg.Tools, resolverClient)

	// 10. 组装执行管线
	assembler := service.NewAssembler(taskStore, retrievalProvider)
	executor := service.NewExecutor(llmFactory, toolRegistry)
	recorder := service.NewRecorder(taskStore)
	orchestrator := service.NewOrchestrator(taskStore, assembler, executor, uploader, recorder)

	// 11. 启动 Kafka 消费者
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	taskConsumer := consumer.NewTaskConsumer(
		cfg.Databases.Kafka.Brokers,
		cfg.Databases.Kafka.TaskTopic,
		cfg.Databases.Kafka.GroupID,
		orchestrator,
		guard,
		appLogger,
	)
	taskConsumer.Start(ctx)
	appLogger.Info("Kafka task consumer started")

	// 12. 初始化发布器与 HTTP 服务
	taskPublisher := publisher.NewTaskPublisher(kafkaClient.Writer, appLogger)

	ingestService := service.NewIngestService(taskStore, retrievalProvider)
	chatService := service.NewChatService(taskStore, retrievalProvider, llmFactory, sessions)

	handler := api.NewHandler(taskStore, taskPublisher, guard, ingestService, chatService)
	router := api.SetupRouter(handler, cfg.Auth.JwtSecret)

	server := &http.Server{
		Addr:    cfg.App.Address,
		Handler: router,
	}
	go func() {
		appLogger.Info("Starting HTTP server on " + cfg.App.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(fmt.Sprintf("Failed to start HTTP server: %v", err))
		}
	}()

	// 13. 等待退出信号, 优雅关停: 先停 HTTP, 再等消费者完成在途任务
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down task service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(fmt.Sprintf("HTTP server shutdown error: %v", err))
	}

	cancel()
	taskConsumer.Drain()
	if err := taskConsumer.Close(); err != nil {
		appLogger.Error(fmt.Sprintf("Failed to close task consumer: %v", err))
	}
	appLogger.Info("Task service stopped")
}
