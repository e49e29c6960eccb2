package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const (
	DatabaseProviderSQLite   = "sqlite"
	DatabaseProviderPostgres = "postgres"
	DatabaseProviderSupabase = "supabase"
)

// serverlessTmpDir 无服务器环境下唯一可写目录
const serverlessTmpDir = "/tmp"

// LookupEnv 环境变量读取函数，便于测试替换
var LookupEnv = os.LookupEnv

// HasSupabaseParts 是否配置了拼接 Supabase 连接串所需的字段
func (c SupabaseConfig) HasSupabaseParts() bool {
	return strings.TrimSpace(c.Host) != "" &&
		strings.TrimSpace(c.User) != "" &&
		c.Password != ""
}

// EffectiveURL 返回 Supabase 连接串，优先使用完整 URL
func (c SupabaseConfig) EffectiveURL() string {
	if raw := strings.TrimSpace(c.DBURL); raw != "" {
		return raw
	}
	if !c.HasSupabaseParts() {
		return ""
	}
	port := c.Port
	if port <= 0 {
		port = 5432
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = "postgres"
	}
	sslMode := strings.TrimSpace(c.SSLMode)
	if sslMode == "" {
		sslMode = "require"
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		escapeCredential(strings.TrimSpace(c.User)),
		escapeCredential(c.Password),
		strings.TrimSpace(c.Host),
		port,
		name,
		url.QueryEscape(sslMode),
	)
}

// escapeCredential 对用户名密码做百分号编码，空格编码为 %20
func escapeCredential(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

// Provider 返回当前使用的数据库类型
func (c DatabaseConfig) Provider() string {
	switch strings.ToLower(strings.TrimSpace(c.Driver)) {
	case "sqlite":
		return DatabaseProviderSQLite
	case "postgres", "postgresql":
		if strings.TrimSpace(c.URL) == "" && c.Supabase.EffectiveURL() != "" {
			return DatabaseProviderSupabase
		}
		return DatabaseProviderPostgres
	}
	if strings.TrimSpace(c.URL) != "" {
		return DatabaseProviderPostgres
	}
	if c.Supabase.EffectiveURL() != "" {
		return DatabaseProviderSupabase
	}
	return DatabaseProviderSQLite
}

// Dialect 返回 gorm 使用的驱动名
func (c DatabaseConfig) Dialect() string {
	if c.Provider() == DatabaseProviderSQLite {
		return DatabaseProviderSQLite
	}
	return DatabaseProviderPostgres
}

// Target 返回连接目标：postgres URL、Supabase URL 或 sqlite 文件路径
func (c DatabaseConfig) Target() string {
	switch c.Provider() {
	case DatabaseProviderPostgres:
		return strings.TrimSpace(c.URL)
	case DatabaseProviderSupabase:
		return c.Supabase.EffectiveURL()
	default:
		return strings.TrimSpace(c.DSN)
	}
}

// ApplyRuntimeOverrides 在 Vercel 等无服务器环境中把相对路径移到 /tmp
func (c *Config) ApplyRuntimeOverrides(lookup func(string) (string, bool)) {
	if lookup == nil {
		return
	}
	value, ok := lookup("VERCEL")
	if !ok || strings.TrimSpace(value) == "" {
		return
	}
	c.Pipeline.DataDir = relocateRelative(c.Pipeline.DataDir)
	c.Pipeline.OutputDir = relocateRelative(c.Pipeline.OutputDir)
	if c.Database.Provider() == DatabaseProviderSQLite {
		c.Database.DSN = relocateRelative(c.Database.DSN)
	}
}

func relocateRelative(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || filepath.IsAbs(path) || strings.HasPrefix(path, "file:") {
		return path
	}
	return filepath.Join(serverlessTmpDir, path)
}
