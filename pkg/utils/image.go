package utils

import (
	"path/filepath"
	"strings"
)

// 已知图片扩展名 -> MIME 映射表
var imageMIMETable = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"heic": "image/heic",
}

// DeriveImageExt 推导图片扩展名
// 优先取声明的文件名，其次取引用本身，都取不到时回退 jpg
func DeriveImageExt(name, ref string) string {
	if ext := cleanExt(name); ext != "" {
		return ext
	}
	if ext := cleanExt(ref); ext != "" {
		return ext
	}
	return "jpg"
}

// cleanExt 从路径/URL 中提取小写无点扩展名，带查询串时先截断
func cleanExt(s string) string {
	if s == "" {
		return ""
	}
	if idx := strings.IndexAny(s, "?#"); idx != -1 {
		s = s[:idx]
	}
	ext := strings.TrimPrefix(filepath.Ext(s), ".")
	return strings.ToLower(ext)
}

// DeriveImageMIME 推导 MIME 类型
// 优先采用已经符合格式的显式 MIME，其次查映射表，最后回退 image/jpeg
func DeriveImageMIME(declared, ext string) string {
	if strings.HasPrefix(declared, "image/") && !strings.Contains(declared, " ") {
		return declared
	}
	if mime, ok := imageMIMETable[strings.ToLower(ext)]; ok {
		return mime
	}
	return "image/jpeg"
}

// IsLocalFilePath 判断引用是否已经是稳定的本地文件路径
// 远端 URL 和移动端内容提供者 URI 都需要先落盘
func IsLocalFilePath(ref string) bool {
	if strings.HasPrefix(ref, "file://") {
		return true
	}
	if strings.Contains(ref, "://") {
		return false
	}
	return filepath.IsAbs(ref) || strings.HasPrefix(ref, "./")
}

// StripFileScheme 去掉 file:// 前缀，返回真实路径
func StripFileScheme(ref string) string {
	return strings.TrimPrefix(ref, "file://")
}
