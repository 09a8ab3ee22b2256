package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "config-test")
	require.NoError(t, err, "无法创建临时目录")
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644), "无法写入临时配置文件")
	return configPath
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", "GEMINI_API_KEY", "ATS_SERVER_ADDRESS"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
llm:
  api_key: "sk-file"
server:
  api_keys:
    - key-a
    - key-b
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.ChatModel)
	assert.Equal(t, "text-embedding-3-small", cfg.LLM.EmbeddingModel)
	assert.InDelta(t, 0.7, cfg.LLM.EvaluationTemperature, 1e-6)
	require.NotNil(t, cfg.Pipeline.SimilarityThreshold)
	assert.Equal(t, 0.5, *cfg.Pipeline.SimilarityThreshold)
	assert.Equal(t, 3, cfg.Pipeline.MaxAttempts)
	assert.Equal(t, OutputFormatText, cfg.Pipeline.OutputFormat)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, []string{"key-a", "key-b"}, cfg.Server.APIKeys)
	assert.Equal(t, "progress_exchange", cfg.RabbitMQ.ProgressExchange)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("ATS_SERVER_ADDRESS", ":9090")

	path := writeConfig(t, `
llm:
  api_key: "sk-file"
  chat_model: "gpt-3.5-turbo"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o", cfg.LLM.ChatModel)
	assert.Equal(t, ":9090", cfg.Server.Address)
}

// 缩进错误时 yaml.v3 不报错，但列表字段为空
func TestLoadConfigWithIncorrectListIndent(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  api_keys:
  address: ":7070"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err, "加载缩进错误的配置也不应立即报错")
	assert.Empty(t, cfg.Server.APIKeys)
	assert.Equal(t, ":7070", cfg.Server.Address)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(writeConfig(t, "pipeline:\n  output_format: xml\n  retry_delay: soon\n"))
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.api_key")
	assert.Contains(t, err.Error(), "output_format")
	assert.Contains(t, err.Error(), "pipeline.retry_delay")

	cfg.LLM.Provider = ProviderGemini
	cfg.LLM.Gemini.APIKey = "g"
	cfg.Pipeline.OutputFormat = OutputFormatJSON
	cfg.Pipeline.RetryDelay = "1s"
	assert.NoError(t, cfg.Validate())
}

func TestSimilarityThresholdZeroIsKept(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(writeConfig(t, "llm:\n  api_key: k\npipeline:\n  similarity_threshold: 0\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Pipeline.SimilarityThreshold)
	assert.Equal(t, 0.0, *cfg.Pipeline.SimilarityThreshold)
	assert.NoError(t, cfg.Validate())

	over := 1.5
	cfg.Pipeline.SimilarityThreshold = &over
	assert.ErrorContains(t, cfg.Validate(), "similarity_threshold")
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, GetDuration("", 5*time.Second))
	assert.Equal(t, 5*time.Second, GetDuration("bogus", 5*time.Second))
	assert.Equal(t, time.Minute, GetDuration("1m", 5*time.Second))
}

func TestMySQLDSN(t *testing.T) {
	c := MySQLConfig{Host: "db", Port: 3306, Username: "u", Password: "p", Database: "ats"}
	assert.Equal(t, "u:p@tcp(db:3306)/ats?charset=utf8mb4&parseTime=True&loc=Local", c.MySQLDSN())
}
