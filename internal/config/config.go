package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyentantai21042004/daily-papers/internal/apperror"
	"github.com/nguyentantai21042004/daily-papers/internal/logger"
)

const paperDateLayout = "2006-01-02"

type Config struct {
	Gemini      GeminiConfig      `yaml:"gemini"`
	Arxiv       ArxivConfig       `yaml:"arxiv"`
	Selection   SelectionConfig   `yaml:"selection"`
	Script      ScriptConfig      `yaml:"script"`
	TTS         TTSConfig         `yaml:"tts"`
	FFmpeg      FFmpegConfig      `yaml:"ffmpeg"`
	Assets      AssetsConfig      `yaml:"assets"`
	Paths       PathsConfig       `yaml:"paths"`
	Logging     LoggingConfig     `yaml:"logging"`
	Performance PerformanceConfig `yaml:"performance"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	History     HistoryConfig     `yaml:"history"`
	YouTube     YouTubeConfig     `yaml:"youtube"`
	Podcast     PodcastConfig     `yaml:"podcast"`
}

type GeminiConfig struct {
	APIKeys       []string      `yaml:"api_keys"`
	ScriptModel   string        `yaml:"script_model"`
	TTSModel      string        `yaml:"tts_model"`
	SelectorModel string        `yaml:"selector_model"`
	Timeout       time.Duration `yaml:"timeout"`
}

type ArxivConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Categories []string      `yaml:"categories"`
	MaxResults int           `yaml:"max_results"`
	Timeout    time.Duration `yaml:"timeout"`
}

type SelectionConfig struct {
	Mode      string `yaml:"mode"`
	MaxPapers int    `yaml:"max_papers"`
}

type ScriptConfig struct {
	Source string `yaml:"source"`
	Prompt string `yaml:"prompt"`
}

type TTSConfig struct {
	VoiceOne    string  `yaml:"voice_one"`
	VoiceTwo    string  `yaml:"voice_two"`
	Temperature float32 `yaml:"temperature"`
}

type FFmpegConfig struct {
	Binary      string        `yaml:"binary"`
	ProbeBinary string        `yaml:"probe_binary"`
	Quality     string        `yaml:"quality"`
	SampleRate  int           `yaml:"sample_rate"`
	RenderVideo bool          `yaml:"render_video"`
	Timeout     time.Duration `yaml:"timeout"`
}

type AssetsConfig struct {
	Intro      string `yaml:"intro"`
	Outro      string `yaml:"outro"`
	Background string `yaml:"background"`
	CoverArt   string `yaml:"cover_art"`
}

type PathsConfig struct {
	Assets   string `yaml:"assets"`
	Data     string `yaml:"data"`
	Requests string `yaml:"requests"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

type PipelineConfig struct {
	OnPaperError string `yaml:"on_paper_error"`
	PaperDate    string `yaml:"paper_date"`
}

type HistoryConfig struct {
	SkipProcessed bool `yaml:"skip_processed"`
}

type YouTubeConfig struct {
	RefreshToken  string `yaml:"refresh_token"`
	ClientID      string `yaml:"client_id"`
	ClientSecret  string `yaml:"client_secret"`
	PrivacyStatus string `yaml:"privacy_status"`
}

type PodcastConfig struct {
	Name   string `yaml:"name"`
	Author string `yaml:"author"`
}

const (
	SelectionLLM    = "llm"
	SelectionLatest = "latest"

	SourcePDF      = "pdf"
	SourceText     = "text"
	SourceAbstract = "abstract"

	OnErrorSkip  = "skip"
	OnErrorAbort = "abort"

	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Validate checks required settings and fills defaults for the rest.
// Every failure is a configuration error.
func (c *Config) Validate() error {
	return c.validate(true)
}

// ValidateOffline is Validate without the Gemini API key requirement, for
// commands that never call the model.
func (c *Config) ValidateOffline() error {
	return c.validate(false)
}

func (c *Config) validate(requireKeys bool) error {
	c.Gemini.APIKeys = cleanList(c.Gemini.APIKeys)
	if requireKeys && len(c.Gemini.APIKeys) == 0 {
		return apperror.Configuration("gemini.api_keys (or GEMINI_API_KEY) is required")
	}
	if c.Gemini.ScriptModel == "" {
		c.Gemini.ScriptModel = "gemini-2.5-pro"
	}
	if c.Gemini.TTSModel == "" {
		c.Gemini.TTSModel = "gemini-2.5-flash-preview-tts"
	}
	if c.Gemini.SelectorModel == "" {
		c.Gemini.SelectorModel = "gemini-2.5-flash"
	}
	if c.Gemini.Timeout == 0 {
		c.Gemini.Timeout = 10 * time.Minute
	}

	if c.Arxiv.BaseURL == "" {
		c.Arxiv.BaseURL = "http://export.arxiv.org/api/query"
	}
	c.Arxiv.Categories = cleanList(c.Arxiv.Categories)
	if len(c.Arxiv.Categories) == 0 {
		c.Arxiv.Categories = []string{"cs.AI", "cs.LG"}
	}
	if c.Arxiv.MaxResults <= 0 {
		c.Arxiv.MaxResults = 500
	}
	if c.Arxiv.Timeout == 0 {
		c.Arxiv.Timeout = 2 * time.Minute
	}

	c.Selection.Mode = strings.ToLower(c.Selection.Mode)
	switch c.Selection.Mode {
	case "":
		c.Selection.Mode = SelectionLLM
	case SelectionLLM, SelectionLatest:
	default:
		return apperror.Configuration("selection.mode must be %q or %q, got %q", SelectionLLM, SelectionLatest, c.Selection.Mode)
	}
	if c.Selection.MaxPapers <= 0 {
		c.Selection.MaxPapers = 1
	}

	c.Script.Source = strings.ToLower(c.Script.Source)
	switch c.Script.Source {
	case "":
		c.Script.Source = SourcePDF
	case SourcePDF, SourceText, SourceAbstract:
	default:
		return apperror.Configuration("script.source must be pdf, text or abstract, got %q", c.Script.Source)
	}

	if c.TTS.VoiceOne == "" {
		c.TTS.VoiceOne = "Leda"
	}
	if c.TTS.VoiceTwo == "" {
		c.TTS.VoiceTwo = "Puck"
	}
	if c.TTS.Temperature == 0 {
		c.TTS.Temperature = 1
	}

	if c.FFmpeg.Binary == "" {
		c.FFmpeg.Binary = "ffmpeg"
	}
	if c.FFmpeg.ProbeBinary == "" {
		c.FFmpeg.ProbeBinary = "ffprobe"
	}
	if c.FFmpeg.Quality == "" {
		c.FFmpeg.Quality = "2"
	}
	if c.FFmpeg.SampleRate <= 0 {
		c.FFmpeg.SampleRate = 24000
	}
	if c.FFmpeg.Timeout == 0 {
		c.FFmpeg.Timeout = 15 * time.Minute
	}

	if c.Paths.Assets == "" {
		c.Paths.Assets = "assets"
	}
	if c.Paths.Data == "" {
		c.Paths.Data = "data"
	}
	if c.Paths.Requests == "" {
		c.Paths.Requests = filepath.Join(c.Paths.Data, "requests")
	}

	c.Logging.Level = logger.NormalizeLevel(c.Logging.Level)
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if !logger.ValidLevel(c.Logging.Level) {
		return apperror.Configuration("logging.level must be debug, info, warn (warning) or error (critical), got %q", c.Logging.Level)
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "":
		c.Logging.Format = LogFormatText
	case LogFormatText, LogFormatJSON:
	default:
		return apperror.Configuration("logging.format must be %q or %q, got %q", LogFormatText, LogFormatJSON, c.Logging.Format)
	}

	if c.Performance.MaxConcurrent <= 0 {
		c.Performance.MaxConcurrent = 1
	}

	c.Pipeline.OnPaperError = strings.ToLower(c.Pipeline.OnPaperError)
	switch c.Pipeline.OnPaperError {
	case "":
		c.Pipeline.OnPaperError = OnErrorSkip
	case OnErrorSkip, OnErrorAbort:
	default:
		return apperror.Configuration("pipeline.on_paper_error must be %q or %q, got %q", OnErrorSkip, OnErrorAbort, c.Pipeline.OnPaperError)
	}
	if c.Pipeline.PaperDate != "" {
		if _, err := time.Parse(paperDateLayout, c.Pipeline.PaperDate); err != nil {
			return apperror.Configuration("pipeline.paper_date must be YYYY-MM-DD, got %q", c.Pipeline.PaperDate)
		}
	}

	if c.YouTube.PrivacyStatus == "" {
		c.YouTube.PrivacyStatus = "private"
	}
	switch c.YouTube.PrivacyStatus {
	case "public", "unlisted", "private":
	default:
		return apperror.Configuration("youtube.privacy_status must be public, unlisted or private, got %q", c.YouTube.PrivacyStatus)
	}

	if c.Podcast.Name == "" {
		c.Podcast.Name = "Daily Papers"
	}
	if c.Podcast.Author == "" {
		c.Podcast.Author = c.Podcast.Name
	}

	return nil
}

// PaperDate returns the configured paper date, or three days before now (UTC)
// when none is set. arXiv listings lag submission by a few days.
func (c *Config) PaperDate(now time.Time) time.Time {
	if c.Pipeline.PaperDate != "" {
		if d, err := time.Parse(paperDateLayout, c.Pipeline.PaperDate); err == nil {
			return d
		}
	}
	y, m, d := now.UTC().AddDate(0, 0, -3).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// YouTubeEnabled reports whether upload credentials are configured
func (c *Config) YouTubeEnabled() bool {
	return c.YouTube.RefreshToken != "" && c.YouTube.ClientID != "" && c.YouTube.ClientSecret != ""
}

// AssetPath resolves an asset file name against the assets directory.
// Empty names resolve to "".
func (c *Config) AssetPath(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Paths.Assets, name)
}

// EpisodeDir is the output directory for the episode of the given day
func (c *Config) EpisodeDir(day time.Time) string {
	return filepath.Join(c.Paths.Data, day.Format(paperDateLayout))
}

func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
