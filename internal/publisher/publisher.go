package publisher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	postsDirName  = "posts"
	indexFileName = "index.html"
)

var (
	// ErrInvalidSlug slug 含非法字符
	ErrInvalidSlug = errors.New("invalid slug")
	// ErrPageNotFound 静态页不存在
	ErrPageNotFound = errors.New("page file not found")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Publisher 静态站点输出目录
type Publisher struct {
	outputDir string
}

// New 创建静态站点发布器
func New(outputDir string) *Publisher {
	outputDir = strings.TrimSpace(outputDir)
	if outputDir == "" {
		outputDir = "public"
	}
	return &Publisher{outputDir: outputDir}
}

// OutputDir 输出根目录
func (p *Publisher) OutputDir() string {
	return p.outputDir
}

// ValidSlug 判断 slug 是否可安全用作文件名
func ValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

// PagePath 返回内容页文件路径
func (p *Publisher) PagePath(slug string) (string, error) {
	if !ValidSlug(slug) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return filepath.Join(p.outputDir, postsDirName, slug+".html"), nil
}

// IndexPath 返回首页文件路径
func (p *Publisher) IndexPath() string {
	return filepath.Join(p.outputDir, indexFileName)
}

// EnsureDirs 创建输出目录
func (p *Publisher) EnsureDirs() error {
	if err := os.MkdirAll(filepath.Join(p.outputDir, postsDirName), 0o755); err != nil {
		return fmt.Errorf("create output dir failed: %w", err)
	}
	return nil
}

// WritePage 写入内容页，已存在时整体替换
func (p *Publisher) WritePage(slug string, html []byte) (string, error) {
	path, err := p.PagePath(slug)
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(path, html); err != nil {
		return "", err
	}
	return path, nil
}

// WriteIndex 写入首页
func (p *Publisher) WriteIndex(html []byte) (string, error) {
	path := p.IndexPath()
	if err := writeFileAtomic(path, html); err != nil {
		return "", err
	}
	return path, nil
}

// ReadPage 读取内容页
func (p *Publisher) ReadPage(slug string) ([]byte, error) {
	path, err := p.PagePath(slug)
	if err != nil {
		return nil, err
	}
	return readFile(path)
}

// ReadIndex 读取首页
func (p *Publisher) ReadIndex() ([]byte, error) {
	return readFile(p.IndexPath())
}

func readFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return raw, nil
}

// writeFileAtomic 先写临时文件再重命名，读者不会看到半写入的页面
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir failed: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file failed: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file failed: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp file failed: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename page file failed: %w", err)
	}
	return nil
}
