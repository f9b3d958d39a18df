package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Audio      AudioConfig      `yaml:"audio"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	ElevenLabs ElevenLabsConfig `yaml:"elevenlabs"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	LLM        LLMConfig        `yaml:"llm"`
	Voice      VoiceConfig      `yaml:"voice"`
	Output     OutputConfig     `yaml:"output"`
	Pushover   PushoverConfig   `yaml:"pushover"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        LogConfig        `yaml:"log"`
}

// AudioConfig selects the inputs. Sources are merged, so "microphone" and
// "keyboard" can be used together.
type AudioConfig struct {
	Sources      []string  `yaml:"sources"`
	HTTPAddr     string    `yaml:"http_addr"`
	AuthToken    string    `yaml:"auth_token"`
	RateLimit    int       `yaml:"rate_limit"`
	FileDir      string    `yaml:"file_dir"`
	SampleRate   int       `yaml:"sample_rate"`
	FrameSize    int       `yaml:"frame_size"`
	MaxUtterance string    `yaml:"max_utterance"`
	VAD          VADConfig `yaml:"vad"`
	Player       string    `yaml:"player"`
}

type VADConfig struct {
	Confidence float64 `yaml:"confidence"`
	StartSecs  float64 `yaml:"start_secs"`
	StopSecs   float64 `yaml:"stop_secs"`
	MinVolume  float64 `yaml:"min_volume"`
}

type OpenAIConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Language  string `yaml:"language"`
	ChatModel string `yaml:"chat_model"`
}

type ElevenLabsConfig struct {
	APIKey  string `yaml:"api_key"`
	VoiceID string `yaml:"voice_id"`
	Model   string `yaml:"model"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// LLMConfig orders the chat providers. Providers without an API key are
// skipped.
type LLMConfig struct {
	Providers []string `yaml:"providers"`
	RulesOnly bool     `yaml:"rules_only"`
}

// VoiceConfig holds the local fallbacks and conversation timing.
type VoiceConfig struct {
	LocalSTT      string `yaml:"local_stt"`
	LocalTTS      string `yaml:"local_tts"`
	ListenTimeout string `yaml:"listen_timeout"`
	CheckTimeout  string `yaml:"check_timeout"`
}

type OutputConfig struct {
	Dir        string `yaml:"dir"`
	ProgressDB string `yaml:"progress_db"`
	SessionKey string `yaml:"session_key"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Enabled bool   `yaml:"enabled"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadEnv loads a .env file into the process environment. Variables that
// are already set win. A missing file is ignored.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load reads the YAML config at path. A missing file yields the defaults
// plus whatever the environment provides.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) applyEnv() {
	fallback := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	fallback(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	fallback(&c.ElevenLabs.APIKey, "ELEVENLABS_API_KEY")
	fallback(&c.ElevenLabs.VoiceID, "ELEVENLABS_VOICE_ID")
	fallback(&c.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	fallback(&c.Gemini.APIKey, "GEMINI_API_KEY")
	fallback(&c.Pushover.Token, "PUSHOVER_TOKEN")
	fallback(&c.Pushover.UserKey, "PUSHOVER_USER_KEY")
	fallback(&c.Audio.AuthToken, "DOCKETVOICE_AUTH_TOKEN")
}

func (c *Config) setDefaults() {
	if len(c.Audio.Sources) == 0 {
		c.Audio.Sources = []string{"microphone", "keyboard"}
	}
	if c.Audio.HTTPAddr == "" {
		c.Audio.HTTPAddr = ":8080"
	}
	if c.Audio.RateLimit == 0 {
		c.Audio.RateLimit = 30
	}
	if c.Audio.FileDir == "" {
		c.Audio.FileDir = "./audio"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.FrameSize == 0 {
		c.Audio.FrameSize = 1024
	}
	if c.Audio.MaxUtterance == "" {
		c.Audio.MaxUtterance = "15s"
	}
	if c.OpenAI.Language == "" {
		c.OpenAI.Language = "en"
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if c.ElevenLabs.Model == "" {
		c.ElevenLabs.Model = "eleven_multilingual_v2"
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = "claude-sonnet-4-20250514"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}
	if len(c.LLM.Providers) == 0 {
		c.LLM.Providers = []string{"openai", "anthropic", "gemini"}
	}
	if c.Voice.ListenTimeout == "" {
		c.Voice.ListenTimeout = "60s"
	}
	if c.Voice.CheckTimeout == "" {
		c.Voice.CheckTimeout = "8s"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "./output"
	}
	if c.Output.ProgressDB == "" {
		c.Output.ProgressDB = c.Output.Dir + "/progress.db"
	}
	if c.Output.SessionKey == "" {
		c.Output.SessionKey = "default"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Duration parses a duration setting, returning def when s is empty or
// malformed.
func Duration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}
