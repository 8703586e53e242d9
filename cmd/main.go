package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"zufang_post_v1_202601/internal/controller"
	"zufang_post_v1_202601/internal/model"
	"zufang_post_v1_202601/internal/repository"
	"zufang_post_v1_202601/internal/router"
	"zufang_post_v1_202601/internal/service"
	"zufang_post_v1_202601/internal/task"
	"zufang_post_v1_202601/internal/workflow"
	"zufang_post_v1_202601/pkg/config"
	"zufang_post_v1_202601/pkg/net"
	"zufang_post_v1_202601/pkg/zufang"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer logger.Sync()

	// 2. 初始化本地事件日志库
	db := initJournalDB(cfg)

	// 3. 初始化依赖
	deps := initDependencies(cfg, db)

	// 4. 启动定时任务
	cleanupTask := task.NewCleanupTask(deps.EventRepo, cfg.TempCacheDir)
	cleanupTask.Start()
	defer cleanupTask.Stop()

	// 5. 初始化路由
	r := gin.New()
	r.Use(gin.Recovery())
	router.InitRoutes(r, logger, deps.WorkflowCtl)

	// 6. 启动服务
	startServer(r, cfg.ListenAddr)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	EventRepo   repository.WorkflowEventRepository
	Sessions    *workflow.SessionManager
	WorkflowCtl *controller.WorkflowController
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config, db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	eventRepo := repository.NewWorkflowEventRepository(db)
	journal := service.NewJournalService(eventRepo)

	// -------- 网络层 --------
	// 上传调度器使用更长的超时
	dispatcher := net.NewDispatcher(cfg.UploadTimeout)
	apiClient := zufang.NewClient(cfg.APIBaseURL, cfg.APIKey, cfg.APITimeout, dispatcher)

	// -------- 工作流 --------
	sessions := workflow.NewSessionManager(apiClient, journal, cfg.PostingFee, cfg.TempCacheDir, cfg.SessionTTL)
	stageDir := filepath.Join(cfg.TempCacheDir, "stage")
	workflowCtl := controller.NewWorkflowController(sessions, stageDir)

	return &Dependencies{
		EventRepo:   eventRepo,
		Sessions:    sessions,
		WorkflowCtl: workflowCtl,
	}
}

// initJournalDB 打开 sqlite 事件日志库并迁移
func initJournalDB(cfg *config.Config) *gorm.DB {
	if dir := filepath.Dir(cfg.JournalDSN); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("创建数据目录失败: %v", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(cfg.JournalDSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("事件日志库打开失败: %v", err)
	}

	if err := db.AutoMigrate(&model.WorkflowEvent{}); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine, addr string) {
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}
