package task

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"zufang_post_v1_202601/internal/repository"
)

// ==================== CleanupTask 清理任务 ====================

// CleanupTask 定时清理
// 1. 回收摄取管道残留的临时上传文件 (单次删除失败只是轻微泄漏，这里兜底)
// 2. 修剪过期的工作流事件日志
type CleanupTask struct {
	eventRepo repository.WorkflowEventRepository
	cacheDir  string
	cron      *cron.Cron

	// 清理阈值
	fileMaxAge    time.Duration
	journalMaxAge time.Duration
}

// NewCleanupTask 创建清理任务
func NewCleanupTask(eventRepo repository.WorkflowEventRepository, cacheDir string) *CleanupTask {
	return &CleanupTask{
		eventRepo:     eventRepo,
		cacheDir:      cacheDir,
		cron:          cron.New(cron.WithSeconds()),
		fileMaxAge:    24 * time.Hour,
		journalMaxAge: 30 * 24 * time.Hour,
	}
}

// Start 启动定时清理任务
func (t *CleanupTask) Start() {
	// 每小时执行一次
	_, err := t.cron.AddFunc("0 0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		t.execute(ctx)
	})

	if err != nil {
		log.Fatalf("[CleanupTask] 无法启动定时任务: %v", err)
	}

	// 启动时立即执行一次
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		t.execute(ctx)
	}()

	t.cron.Start()
	log.Println("[CleanupTask] 清理任务已启动 (每小时)")
}

// Stop 停止任务
func (t *CleanupTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[CleanupTask] 已停止")
}

// execute 执行一轮清理
func (t *CleanupTask) execute(ctx context.Context) {
	t.sweepTempFiles()

	if t.eventRepo != nil {
		cutoff := time.Now().Add(-t.journalMaxAge)
		pruned, err := t.eventRepo.PruneBefore(ctx, cutoff)
		if err != nil {
			log.Printf("[CleanupTask] 事件日志修剪失败: %v", err)
		} else if pruned > 0 {
			log.Printf("[CleanupTask] 已修剪 %d 条过期事件", pruned)
		}
	}
}

// sweepTempFiles 回收缓存目录中超龄的临时文件
func (t *CleanupTask) sweepTempFiles() {
	entries, err := os.ReadDir(t.cacheDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[CleanupTask] 读取缓存目录失败: %v", err)
		}
		return
	}

	cutoff := time.Now().Add(-t.fileMaxAge)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(t.cacheDir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Printf("[CleanupTask] 删除残留文件失败: %v", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Printf("[CleanupTask] 已回收 %d 个残留临时文件", removed)
	}
}
