package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfigFromFile 验证能否从 YAML 文件加载配置，并且未指定的字段保留默认值
func TestLoadConfigFromFile(t *testing.T) {
	yamlContent := `
server:
  address: ":9090"
parser:
  ontology_path: "/etc/resume/ontology.yaml"
  max_heading_words: 8
mysql:
  host: "db.internal"
  port: 3307
redis:
  md5_record_expire_days: 7
rabbitmq:
  resume_events_exchange: "resume.events.v2"
`
	tmpDir, err := os.MkdirTemp("", "config-test")
	require.NoError(t, err, "无法创建临时目录")
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")
	err = os.WriteFile(configPath, []byte(yamlContent), 0644)
	require.NoError(t, err, "无法写入临时配置文件")

	config, err := LoadConfig(configPath)
	require.NoError(t, err, "加载语法正确的配置不应返回错误")
	require.NotNil(t, config, "配置对象不应为 nil")

	// 文件中显式指定的字段
	assert.Equal(t, ":9090", config.Server.Address)
	assert.Equal(t, "/etc/resume/ontology.yaml", config.Parser.OntologyPath)
	assert.Equal(t, 8, config.Parser.MaxHeadingWords)
	assert.Equal(t, "db.internal", config.MySQL.Host)
	assert.Equal(t, 3307, config.MySQL.Port)
	assert.Equal(t, 7, config.Redis.MD5RecordExpireDays)
	assert.Equal(t, "resume.events.v2", config.RabbitMQ.ResumeEventsExchange)

	// 未指定的字段应保留默认值
	assert.Equal(t, "root", config.MySQL.Username, "未指定的字段应回落到默认值")
	assert.Equal(t, "localhost:6379", config.Redis.Address)
	assert.Equal(t, "resume-originals", config.MinIO.OriginalsBucket)
	assert.Equal(t, "resume.parsed", config.RabbitMQ.ParsedRoutingKey)
}

// TestLoadConfigMissingFileFallsBackToDefaults 验证找不到配置文件时返回内置默认配置
func TestLoadConfigMissingFileFallsBackToDefaults(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config-test-missing")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	// 切到空目录，保证默认探测路径下没有配置文件
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	defer os.Chdir(oldWd)

	config, err := LoadConfig("")
	require.NoError(t, err, "找不到配置文件时不应报错，应回落到默认配置")
	require.NotNil(t, config)

	assert.Equal(t, ":8080", config.Server.Address)
	assert.Equal(t, "resume_analyzer", config.MySQL.Database)
	assert.Equal(t, "resume.events", config.RabbitMQ.ResumeEventsExchange)
}

// TestLoadConfigUnreadableFile 验证指定了不存在的路径时返回错误
func TestLoadConfigUnreadableFile(t *testing.T) {
	config, err := LoadConfig("/nonexistent/path/config.yaml")
	assert.Error(t, err, "显式指定的路径不存在时应返回错误")
	assert.Nil(t, config)
}

// TestEnvOverrides 验证敏感配置项可通过环境变量覆盖
func TestEnvOverrides(t *testing.T) {
	t.Setenv("MYSQL_PASSWORD", "secret-db")
	t.Setenv("MINIO_SECRET_KEY", "secret-minio")
	t.Setenv("SERVER_API_KEY", "test-api-key")

	yamlContent := `
mysql:
  password: "from-file"
`
	tmpDir, err := os.MkdirTemp("", "config-test-env")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "secret-db", config.MySQL.Password, "环境变量应覆盖文件中的密码")
	assert.Equal(t, "secret-minio", config.MinIO.SecretAccessKey)
	assert.Equal(t, "test-api-key", config.Server.APIKey)
}
