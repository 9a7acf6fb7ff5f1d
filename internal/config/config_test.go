package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/daily-papers/internal/apperror"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: Config{
				Gemini: GeminiConfig{APIKeys: []string{"key-1"}},
			},
			wantErr: false,
		},
		{
			name:    "missing api key",
			config:  Config{},
			wantErr: true,
		},
		{
			name: "blank api keys",
			config: Config{
				Gemini: GeminiConfig{APIKeys: []string{" ", ""}},
			},
			wantErr: true,
		},
		{
			name: "bad selection mode",
			config: Config{
				Gemini:    GeminiConfig{APIKeys: []string{"key-1"}},
				Selection: SelectionConfig{Mode: "random"},
			},
			wantErr: true,
		},
		{
			name: "bad script source",
			config: Config{
				Gemini: GeminiConfig{APIKeys: []string{"key-1"}},
				Script: ScriptConfig{Source: "html"},
			},
			wantErr: true,
		},
		{
			name: "bad log level",
			config: Config{
				Gemini:  GeminiConfig{APIKeys: []string{"key-1"}},
				Logging: LoggingConfig{Level: "verbose"},
			},
			wantErr: true,
		},
		{
			name: "warning log level",
			config: Config{
				Gemini:  GeminiConfig{APIKeys: []string{"key-1"}},
				Logging: LoggingConfig{Level: "WARNING"},
			},
			wantErr: false,
		},
		{
			name: "critical log level",
			config: Config{
				Gemini:  GeminiConfig{APIKeys: []string{"key-1"}},
				Logging: LoggingConfig{Level: "CRITICAL"},
			},
			wantErr: false,
		},
		{
			name: "bad log format",
			config: Config{
				Gemini:  GeminiConfig{APIKeys: []string{"key-1"}},
				Logging: LoggingConfig{Format: "xml"},
			},
			wantErr: true,
		},
		{
			name: "bad paper date",
			config: Config{
				Gemini:   GeminiConfig{APIKeys: []string{"key-1"}},
				Pipeline: PipelineConfig{PaperDate: "03/01/2025"},
			},
			wantErr: true,
		},
		{
			name: "bad privacy status",
			config: Config{
				Gemini:  GeminiConfig{APIKeys: []string{"key-1"}},
				YouTube: YouTubeConfig{PrivacyStatus: "secret"},
			},
			wantErr: true,
		},
		{
			name: "bad failure policy",
			config: Config{
				Gemini:   GeminiConfig{APIKeys: []string{"key-1"}},
				Pipeline: PipelineConfig{OnPaperError: "retry"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				assert.ErrorIs(t, err, apperror.ErrConfiguration)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Config{Gemini: GeminiConfig{APIKeys: []string{"a, b"}}}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"a", "b"}, cfg.Gemini.APIKeys)
	assert.Equal(t, []string{"cs.AI", "cs.LG"}, cfg.Arxiv.Categories)
	assert.Equal(t, 500, cfg.Arxiv.MaxResults)
	assert.Equal(t, SelectionLLM, cfg.Selection.Mode)
	assert.Equal(t, 1, cfg.Selection.MaxPapers)
	assert.Equal(t, SourcePDF, cfg.Script.Source)
	assert.Equal(t, "Leda", cfg.TTS.VoiceOne)
	assert.Equal(t, "Puck", cfg.TTS.VoiceTwo)
	assert.Equal(t, "ffmpeg", cfg.FFmpeg.Binary)
	assert.Equal(t, "2", cfg.FFmpeg.Quality)
	assert.Equal(t, "assets", cfg.Paths.Assets)
	assert.Equal(t, 1, cfg.Performance.MaxConcurrent)
	assert.Equal(t, OnErrorSkip, cfg.Pipeline.OnPaperError)
	assert.Equal(t, "private", cfg.YouTube.PrivacyStatus)
	assert.Equal(t, "Daily Papers", cfg.Podcast.Name)
	assert.False(t, cfg.YouTubeEnabled())
}

func TestPaperDate(t *testing.T) {
	now := time.Date(2025, 3, 10, 22, 30, 0, 0, time.UTC)

	cfg := Config{}
	assert.Equal(t, time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC), cfg.PaperDate(now))

	cfg.Pipeline.PaperDate = "2025-01-02"
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), cfg.PaperDate(now))
}

func TestAssetPath(t *testing.T) {
	cfg := Config{Paths: PathsConfig{Assets: "assets"}}
	assert.Equal(t, "", cfg.AssetPath(""))
	assert.Equal(t, "assets/intro.mp3", cfg.AssetPath("intro.mp3"))
	assert.Equal(t, "/srv/intro.mp3", cfg.AssetPath("/srv/intro.mp3"))
}

func TestLoad(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEYS", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PAPER_DATE", "")

	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	content := `
gemini:
  api_keys: ["key-from-file"]
  script_model: "gemini-test"
  timeout: 90s

arxiv:
  categories: ["cs.CL"]

ffmpeg:
  render_video: true

paths:
  data: "out"

logging:
  level: "debug"
  format: "json"

performance:
  max_concurrent: 3
`

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)

	assert.Equal(t, []string{"key-from-file"}, cfg.Gemini.APIKeys)
	assert.Equal(t, "gemini-test", cfg.Gemini.ScriptModel)
	assert.Equal(t, 90*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, []string{"cs.CL"}, cfg.Arxiv.Categories)
	assert.True(t, cfg.FFmpeg.RenderVideo)
	assert.Equal(t, "out", cfg.Paths.Data)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 3, cfg.Performance.MaxConcurrent)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEYS", "env-1,env-2")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("PAPER_DATE", "2025-02-01")
	t.Setenv("ARXIV_CATEGORIES", "cs.CV, cs.RO")

	path := t.TempDir() + "/config.yaml"
	require.NoError(t, os.WriteFile(path, []byte("gemini:\n  api_keys: [\"file-key\"]\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"env-1", "env-2"}, cfg.Gemini.APIKeys)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "2025-02-01", cfg.Pipeline.PaperDate)
	assert.Equal(t, []string{"cs.CV", "cs.RO"}, cfg.Arxiv.Categories)
}

func TestLoadWithoutFileUsesEnvironment(t *testing.T) {
	t.Setenv("GEMINI_API_KEYS", "")
	t.Setenv("GEMINI_API_KEY", "only-env")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"only-env"}, cfg.Gemini.APIKeys)
}

func TestLoadNormalizesLogLevel(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{env: "DEBUG", want: "debug"},
		{env: "INFO", want: "info"},
		{env: "WARNING", want: "warn"},
		{env: "ERROR", want: "error"},
		{env: "CRITICAL", want: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("GEMINI_API_KEYS", "")
			t.Setenv("GEMINI_API_KEY", "k")
			t.Setenv("LOG_LEVEL", tt.env)

			cfg, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Logging.Level)
		})
	}
}

func TestValidateNormalizesLogFormat(t *testing.T) {
	cfg := Config{Gemini: GeminiConfig{APIKeys: []string{"k"}}, Logging: LoggingConfig{Format: " JSON "}}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
}

func TestLoadOfflineWithoutKeys(t *testing.T) {
	t.Setenv("GEMINI_API_KEYS", "")
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load("")
	assert.ErrorIs(t, err, apperror.ErrConfiguration)

	cfg, err := LoadOffline("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Gemini.APIKeys)
	assert.Equal(t, "data", cfg.Paths.Data)

	bad := &Config{Logging: LoggingConfig{Level: "verbose"}}
	assert.ErrorIs(t, bad.ValidateOffline(), apperror.ErrConfiguration)
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Load() should return error for nonexistent file")
	}
}
