package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete Endi configuration.
// It is populated from defaults, the config file, ENDI_* env vars and flags.
type Config struct {
	Memory       MemoryConfig       `yaml:"memory" mapstructure:"memory"`
	Processor    ProcessorConfig    `yaml:"processor" mapstructure:"processor"`
	NLP          NLPConfig          `yaml:"nlp" mapstructure:"nlp"`
	Learning     LearningConfig     `yaml:"learning" mapstructure:"learning"`
	Storage      StorageConfig      `yaml:"storage" mapstructure:"storage"`
	Paths        PathsConfig        `yaml:"paths" mapstructure:"paths"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitConfig    `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Spell        SpellConfig        `yaml:"spell" mapstructure:"spell"`
	Modules      ModulesConfig      `yaml:"modules" mapstructure:"modules"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
}

// MemoryConfig bounds the fact store
type MemoryConfig struct {
	MaxFacts int `yaml:"max_facts" mapstructure:"max_facts"`
}

// ProcessorConfig bounds tokenization
type ProcessorConfig struct {
	MaxTokensPerInput int `yaml:"max_tokens_per_input" mapstructure:"max_tokens_per_input"`
}

// NLPConfig holds the word lists driving classification and validation
type NLPConfig struct {
	QuestionStarters []string `yaml:"question_starters" mapstructure:"question_starters"`
	CommandVerbs     []string `yaml:"command_verbs" mapstructure:"command_verbs"`
	LinkingWords     []string `yaml:"linking_words" mapstructure:"linking_words"`
}

// LearningConfig controls the clarification dialogue
type LearningConfig struct {
	EnableAutoQuestioning  bool    `yaml:"enable_auto_questioning" mapstructure:"enable_auto_questioning"`
	MaxQuestionsPerSession int     `yaml:"max_questions_per_session" mapstructure:"max_questions_per_session"` // 0 means unlimited
	MinConfidence          float64 `yaml:"min_confidence" mapstructure:"min_confidence"`                       // Reserved, unused by the baseline rules
}

// StorageConfig selects the durable fact storage backend
type StorageConfig struct {
	Driver     string `yaml:"driver" mapstructure:"driver"` // json or sqlite
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// PathsConfig lists the on-disk locations used by the agent
type PathsConfig struct {
	DataDir       string `yaml:"data_dir" mapstructure:"data_dir"`
	MemoryFile    string `yaml:"memory_file" mapstructure:"memory_file"`
	CuriosityFile string `yaml:"curiosity_file" mapstructure:"curiosity_file"`
	JournalFile   string `yaml:"journal_file" mapstructure:"journal_file"`
	SelfReport    string `yaml:"self_report_file" mapstructure:"self_report_file"`
	CacheDir      string `yaml:"cache_dir" mapstructure:"cache_dir"`
}

// HTTPConfig configures page fetching
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RetryCount   int           `yaml:"retry_count" mapstructure:"retry_count"`
	RetryDelay   time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	RespectRobot bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures caching of fetched page text
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// RateLimitConfig configures per-host request limits
type RateLimitConfig struct {
	RequestsPerSecond float64            `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int                `yaml:"burst_size" mapstructure:"burst_size"`
	Domains           map[string]float64 `yaml:"domains,omitempty" mapstructure:"domains"` // Per-host requests per second
}

// ConcurrencyConfig configures batch page learning
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// SpellConfig configures the dictionary spelling corrector
type SpellConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	Dictionary  string `yaml:"dictionary" mapstructure:"dictionary"` // Word list, one word (optionally "word count") per line
	MaxDistance int    `yaml:"max_distance" mapstructure:"max_distance"`
}

// ModulesConfig toggles optional subsystems
type ModulesConfig struct {
	EnableCuriosity  bool `yaml:"enable_curiosity" mapstructure:"enable_curiosity"`
	EnableExternalAI bool `yaml:"enable_external_ai" mapstructure:"enable_external_ai"`
}

// LLMConfig configures the optional external explainer
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai or "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"` // debug, info, warn, error
	File  string `yaml:"file,omitempty" mapstructure:"file"`
}

// DefaultQuestionStarters are words that open a question
var DefaultQuestionStarters = []string{
	"кто", "что", "где", "когда", "почему", "зачем", "как",
	"чей", "который", "сколько", "ли",
}

// DefaultCommandVerbs are imperative verbs that open a command
var DefaultCommandVerbs = []string{
	"открой", "запусти", "создай", "удали", "скажи",
	"напиши", "сделай", "покажи", "выведи",
}

// DefaultLinkingWords act as a copula in a valid statement.
// "-" and "—" never match a token: Tokenize splits on both, so a dash
// alone does not make a statement valid.
var DefaultLinkingWords = []string{
	"это", "есть", "-", "—", "является", "было", "будет", "стала", "была",
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	dataDir := defaultDataDir()

	return &Config{
		Memory:    MemoryConfig{MaxFacts: 5000},
		Processor: ProcessorConfig{MaxTokensPerInput: 200},
		NLP: NLPConfig{
			QuestionStarters: append([]string(nil), DefaultQuestionStarters...),
			CommandVerbs:     append([]string(nil), DefaultCommandVerbs...),
			LinkingWords:     append([]string(nil), DefaultLinkingWords...),
		},
		Learning: LearningConfig{
			EnableAutoQuestioning:  true,
			MaxQuestionsPerSession: 0,
			MinConfidence:          0.6,
		},
		Storage: StorageConfig{
			Driver:     "json",
			SQLitePath: filepath.Join(dataDir, "memory.db"),
		},
		Paths: PathsConfig{
			DataDir:       dataDir,
			MemoryFile:    filepath.Join(dataDir, "memory.json"),
			CuriosityFile: filepath.Join(dataDir, "curiosity.json"),
			JournalFile:   filepath.Join(dataDir, "logs", "meta_journal.jsonl"),
			SelfReport:    filepath.Join(dataDir, "logs", "self_report.txt"),
			CacheDir:      filepath.Join(dataDir, "cache"),
		},
		HTTP: HTTPConfig{
			Timeout:      10 * time.Second,
			UserAgent:    "Endi/0.1 (+https://github.com/ppiankov/endi)",
			MaxBodyBytes: 2_000_000,
			RetryCount:   3,
			RetryDelay:   2 * time.Second,
			RespectRobot: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Concurrency: ConcurrencyConfig{Workers: 4},
		Spell: SpellConfig{
			Enabled:     false,
			MaxDistance: 2,
		},
		Modules: ModulesConfig{
			EnableCuriosity:  true,
			EnableExternalAI: false,
		},
		LLM: LLMConfig{
			Provider:  "",
			Model:     "gpt-4o-mini",
			Timeout:   30,
			MaxTokens: 200,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".endi")
	}
	return filepath.Join(home, ".endi")
}
