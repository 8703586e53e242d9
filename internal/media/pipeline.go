package media

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"zufang_post_v1_202601/pkg/net"
	"zufang_post_v1_202601/pkg/utils"
	"zufang_post_v1_202601/pkg/zufang"
)

// ==================== 接口定义 ====================

// Uploader 图片上传接口 (由开放平台客户端实现)
type Uploader interface {
	UploadListingImages(ctx context.Context, id string, files []net.FilePart, replace bool) (*zufang.UploadImagesResp, error)
}

// Fetcher 远端图片拉取接口 (由开放平台客户端实现，下载带鉴权头)
type Fetcher interface {
	DownloadImage(ctx context.Context, url, destPath string) error
}

// ==================== 数据结构 ====================

// PickedImage 用户选中的一张图片引用
// Ref 可能是本地文件路径、file:// 路径，也可能是远端 URL
type PickedImage struct {
	Ref  string
	Name string
	MIME string
}

// ErrNoValidImages 整批没有可用引用
var ErrNoValidImages = errors.New("没有有效的图片")

// ==================== 摄取管道 ====================

// Pipeline 媒体摄取管道
// 把任意来源的图片引用规整为可上传的文件描述，批量上传后
// 无论成败都清理本次落盘的临时文件
type Pipeline struct {
	uploader Uploader
	fetcher  Fetcher
	cacheDir string
}

// NewPipeline 创建管道
func NewPipeline(uploader Uploader, fetcher Fetcher, cacheDir string) *Pipeline {
	return &Pipeline{
		uploader: uploader,
		fetcher:  fetcher,
		cacheDir: cacheDir,
	}
}

// Ingest 执行一次批量摄取
// 返回服务端权威的完整图片列表；replace 为 false 时服务端按追加处理
func (p *Pipeline) Ingest(ctx context.Context, remoteID string, items []PickedImage, replace bool) ([]string, error) {
	if remoteID == "" {
		return nil, errors.New("草稿尚未保存，无法上传图片")
	}

	if err := os.MkdirAll(p.cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建缓存目录失败: %v", err)
	}

	var (
		files     []net.FilePart
		tempFiles []string // 本次落盘、结束后必须删除的文件
	)

	// 无论上传结果如何，退出前清理全部临时文件
	// 单个删除失败只记日志，不影响调用方拿到上传结果
	defer func() {
		for _, path := range tempFiles {
			if err := os.Remove(path); err != nil {
				log.Printf("[MediaPipeline] 临时文件删除失败: %v", err)
			}
		}
	}()

	batchTS := time.Now().UnixNano()
	for i, item := range items {
		if item.Ref == "" {
			continue
		}

		ext := utils.DeriveImageExt(item.Name, item.Ref)
		mime := utils.DeriveImageMIME(item.MIME, ext)

		localPath := item.Ref
		if utils.IsLocalFilePath(item.Ref) {
			localPath = utils.StripFileScheme(item.Ref)
		} else {
			// 非稳定本地路径：先复制进缓存目录
			// 文件名带批次时间戳和条目序号，避免同批次冲突
			cachePath := filepath.Join(p.cacheDir, fmt.Sprintf("upload_%d_%d.%s", batchTS, i, ext))
			if err := p.fetcher.DownloadImage(ctx, item.Ref, cachePath); err != nil {
				log.Printf("[MediaPipeline] 第 %d 张图片落盘失败，跳过: %v", i+1, err)
				continue
			}
			tempFiles = append(tempFiles, cachePath)
			localPath = cachePath
		}

		name := item.Name
		if name == "" {
			name = fmt.Sprintf("image_%d.%s", i+1, ext)
		}

		files = append(files, net.FilePart{
			FieldName:   "images",
			Path:        localPath,
			Filename:    name,
			ContentType: mime,
		})
	}

	if len(files) == 0 {
		return nil, ErrNoValidImages
	}

	resp, err := p.uploader.UploadListingImages(ctx, remoteID, files, replace)
	if err != nil {
		return nil, err
	}

	return resp.Images, nil
}
