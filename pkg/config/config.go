package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stageside/stageside/pkg/domain"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Sources []SourceConfig `yaml:"sources" json:"sources" jsonschema:"required,minItems=1,description=RSS sources to ingest"`

	Pipeline   PipelineConfig   `yaml:"pipeline" json:"pipeline" jsonschema:"description=Pipeline run settings"`
	LLM        LLMConfig        `yaml:"llm" json:"llm" jsonschema:"description=Generative model used for enrichment"`
	Community  CommunityConfig  `yaml:"community" json:"community" jsonschema:"description=Community reaction lookup (reddit)"`
	Images     ImagesConfig     `yaml:"images" json:"images" jsonschema:"description=Image fallback search (wikipedia)"`
	Extraction ExtractionConfig `yaml:"extraction" json:"extraction" jsonschema:"description=Article page extraction"`
	Feeds      FeedsConfig      `yaml:"feeds" json:"feeds" jsonschema:"description=Feed fetching"`
	Notify     NotifyConfig     `yaml:"notify" json:"notify" jsonschema:"description=Email digest of newly added articles"`

	Server struct {
		Listen     string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout    time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
		BaseURL    string        `yaml:"base_url" json:"base_url" jsonschema:"default=http://localhost:8080,description=Public site URL used in sitemap and RSS links"`
		AdminToken string        `yaml:"admin_token" json:"admin_token" jsonschema:"description=Bearer token for POST /api/v1/run (endpoint disabled if empty)"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Database struct {
		DSN      string `yaml:"dsn" json:"dsn" jsonschema:"default=file:stageside.db?cache=shared&mode=rwc,description=Run ledger database connection string"`
		KeepRuns int    `yaml:"keep_runs" json:"keep_runs" jsonschema:"default=500,minimum=1,description=Runs kept in the ledger"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`
}

// SourceConfig defines a single feed source
type SourceConfig struct {
	Name string      `yaml:"name" json:"name" jsonschema:"required,description=Source name shown on the site"`
	URL  string      `yaml:"url" json:"url" jsonschema:"required,description=Feed URL"`
	Tier domain.Tier `yaml:"tier" json:"tier" jsonschema:"enum=major,enum=indie,default=major,description=Source tier"`
}

// PipelineConfig holds run-level constants
type PipelineConfig struct {
	Workers          int           `yaml:"workers" json:"workers" jsonschema:"default=2,minimum=1,description=Entries processed in parallel"`
	PerSourceLimit   int           `yaml:"per_source_limit" json:"per_source_limit" jsonschema:"default=2,minimum=1,description=Entries taken from each feed per run"`
	RetentionCap     int           `yaml:"retention_cap" json:"retention_cap" jsonschema:"default=20,minimum=1,description=Maximum archive size"`
	MajorSlice       int           `yaml:"major_slice" json:"major_slice" jsonschema:"default=0,description=Max new major-tier records per run (0 - unlimited)"`
	IndieSlice       int           `yaml:"indie_slice" json:"indie_slice" jsonschema:"default=0,description=Max new indie-tier records per run (0 - unlimited)"`
	MinSummaryLength int           `yaml:"min_summary_length" json:"min_summary_length" jsonschema:"default=20,description=Minimum summary length in characters"`
	RequireImage     *bool         `yaml:"require_image" json:"require_image" jsonschema:"default=true,description=Reject entries without a resolved image"`
	FailureMarkers   []string      `yaml:"failure_markers" json:"failure_markers" jsonschema:"description=Extra summary markers treated as enrichment failure"`
	ArchivePath      string        `yaml:"archive_path" json:"archive_path" jsonschema:"default=data/articles.json,description=Archive JSON file"`
	Interval         time.Duration `yaml:"interval" json:"interval" jsonschema:"default=6h,description=Interval between scheduled runs"`
}

// LLMConfig holds generative model settings
type LLMConfig struct {
	Endpoint         string        `yaml:"endpoint" json:"endpoint" jsonschema:"default=https://generativelanguage.googleapis.com/v1beta/openai/,description=OpenAI-compatible API endpoint"`
	APIKey           string        `yaml:"api_key" json:"api_key" jsonschema:"description=API key (can use environment variable); empty disables enrichment"`
	Model            string        `yaml:"model" json:"model" jsonschema:"default=gemini-2.0-flash,description=Model name"`
	Temperature      float64       `yaml:"temperature" json:"temperature" jsonschema:"default=0.7,description=Temperature for response generation"`
	MaxTokens        int           `yaml:"max_tokens" json:"max_tokens" jsonschema:"default=4096,description=Maximum tokens in response"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=60s,description=Request timeout"`
	MinBodyLength    int           `yaml:"min_body_length" json:"min_body_length" jsonschema:"default=50,description=Body shorter than this is not sent to the model"`
	MaxInputChars    int           `yaml:"max_input_chars" json:"max_input_chars" jsonschema:"default=3000,description=Body is truncated to this many characters"`
	UseJSONSchema    bool          `yaml:"use_json_schema" json:"use_json_schema" jsonschema:"default=false,description=Use json_schema response format instead of json_object"`
	ConfirmRelevance bool          `yaml:"confirm_relevance" json:"confirm_relevance" jsonschema:"default=false,description=Ask the model to confirm community thread relevance"`
	SystemPrompt     string        `yaml:"system_prompt" json:"system_prompt" jsonschema:"description=System prompt override"`
	Retry            RetryConfig   `yaml:"retry" json:"retry" jsonschema:"description=Rate limit retry policy"`
}

// RetryConfig defines backoff on rate limit errors
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts" jsonschema:"default=3,minimum=1,description=Maximum attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay" jsonschema:"default=5s,description=Base backoff delay"`
	Jitter      time.Duration `yaml:"jitter" json:"jitter" jsonschema:"default=1s,description=Maximum random jitter added to each delay"`
}

// CommunityConfig holds relevance matcher settings
type CommunityConfig struct {
	Enabled         *bool         `yaml:"enabled" json:"enabled" jsonschema:"default=true,description=Enable community reaction lookup"`
	BaseURL         string        `yaml:"base_url" json:"base_url" jsonschema:"default=https://www.reddit.com,description=Reddit base URL"`
	UserAgent       string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=CollectiveMonologue_Crawler/1.0,description=User agent"`
	Subreddits      []string      `yaml:"subreddits" json:"subreddits" jsonschema:"description=Communities scanned in priority order"`
	Stopwords       []string      `yaml:"stopwords" json:"stopwords" jsonschema:"description=Words ignored in title keyword extraction"`
	HotLimit        int           `yaml:"hot_limit" json:"hot_limit" jsonschema:"default=20,description=Posts fetched per community"`
	MaxComments     int           `yaml:"max_comments" json:"max_comments" jsonschema:"default=5,description=Comments kept from the matched thread"`
	MinOverlap      int           `yaml:"min_overlap" json:"min_overlap" jsonschema:"default=1,description=Minimum keyword overlap for a match"`
	RequestInterval time.Duration `yaml:"request_interval" json:"request_interval" jsonschema:"default=500ms,description=Pause between community requests"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=10s,description=Request timeout"`
	CacheTTL        time.Duration `yaml:"cache_ttl" json:"cache_ttl" jsonschema:"default=10m,description=How long hot listings are reused"`
}

// ImagesConfig holds encyclopedia image search settings
type ImagesConfig struct {
	WikiEndpoint string        `yaml:"wiki_endpoint" json:"wiki_endpoint" jsonschema:"default=https://en.wikipedia.org/w/api.php,description=MediaWiki API endpoint"`
	ThumbSize    int           `yaml:"thumb_size" json:"thumb_size" jsonschema:"default=800,description=Thumbnail size"`
	MaxKeywords  int           `yaml:"max_keywords" json:"max_keywords" jsonschema:"default=6,description=Keywords tried per entry"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=6s,description=Request timeout"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=CollectiveMonologue/1.0,description=User agent"`
}

// ExtractionConfig holds content extraction settings
type ExtractionConfig struct {
	Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=10s,description=Extraction timeout per article"`
	UserAgent string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=Mozilla/5.0 (compatible; StageSide/1.0),description=User agent for HTTP requests"`
}

// FeedsConfig holds feed fetch settings
type FeedsConfig struct {
	Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=15s,description=Feed fetch timeout"`
	UserAgent string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=Mozilla/5.0 (compatible; StageSide/1.0),description=User agent for feed requests"`
}

// NotifyConfig holds SMTP settings for the digest email
type NotifyConfig struct {
	SMTPHost string   `yaml:"smtp_host" json:"smtp_host" jsonschema:"default=smtp.gmail.com,description=SMTP host"`
	SMTPPort int      `yaml:"smtp_port" json:"smtp_port" jsonschema:"default=465,description=SMTP port (implicit TLS)"`
	Username string   `yaml:"username" json:"username" jsonschema:"description=SMTP user (digest is skipped if empty)"`
	Password string   `yaml:"password" json:"password" jsonschema:"description=SMTP password (digest is skipped if empty)"`
	From     string   `yaml:"from" json:"from" jsonschema:"description=Sender address (defaults to username)"`
	To       []string `yaml:"to" json:"to" jsonschema:"description=Recipients"`
}

// default relevance matcher constants, tuned by trial
var (
	defaultSubreddits = []string{"Broadway", "theater", "musicals", "movies", "boxoffice"}
	defaultStopwords  = []string{"the", "a", "an", "in", "on", "at", "to", "for", "of", "and", "or", "is", "are",
		"was", "will", "with", "that", "this", "from", "by", "as", "it", "new", "its", "into", "has", "have", "set",
		"after", "about", "over", "their", "more", "first", "says", "season"}
)

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.SetDefaults()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

// SetDefaults fills zero values with defaults
func (c *Config) SetDefaults() {
	for i := range c.Sources {
		if c.Sources[i].Tier == "" {
			c.Sources[i].Tier = domain.TierMajor
		}
	}

	// pipeline
	if c.Pipeline.Workers == 0 {
		c.Pipeline.Workers = 2
	}
	if c.Pipeline.PerSourceLimit == 0 {
		c.Pipeline.PerSourceLimit = 2
	}
	if c.Pipeline.RetentionCap == 0 {
		c.Pipeline.RetentionCap = 20
	}
	if c.Pipeline.MinSummaryLength == 0 {
		c.Pipeline.MinSummaryLength = 20
	}
	if c.Pipeline.RequireImage == nil {
		v := true
		c.Pipeline.RequireImage = &v
	}
	if c.Pipeline.ArchivePath == "" {
		c.Pipeline.ArchivePath = "data/articles.json"
	}
	if c.Pipeline.Interval == 0 {
		c.Pipeline.Interval = 6 * time.Hour
	}

	// llm
	if c.LLM.Endpoint == "" {
		c.LLM.Endpoint = "https://generativelanguage.googleapis.com/v1beta/openai/"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gemini-2.0-flash"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 4096
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 60 * time.Second
	}
	if c.LLM.MinBodyLength == 0 {
		c.LLM.MinBodyLength = 50
	}
	if c.LLM.MaxInputChars == 0 {
		c.LLM.MaxInputChars = 3000
	}
	if c.LLM.Retry.MaxAttempts == 0 {
		c.LLM.Retry.MaxAttempts = 3
	}
	if c.LLM.Retry.BaseDelay == 0 {
		c.LLM.Retry.BaseDelay = 5 * time.Second
	}
	if c.LLM.Retry.Jitter == 0 {
		c.LLM.Retry.Jitter = time.Second
	}

	// community
	if c.Community.Enabled == nil {
		v := true
		c.Community.Enabled = &v
	}
	if c.Community.BaseURL == "" {
		c.Community.BaseURL = "https://www.reddit.com"
	}
	if c.Community.UserAgent == "" {
		c.Community.UserAgent = "CollectiveMonologue_Crawler/1.0"
	}
	if len(c.Community.Subreddits) == 0 {
		c.Community.Subreddits = append([]string(nil), defaultSubreddits...)
	}
	if len(c.Community.Stopwords) == 0 {
		c.Community.Stopwords = append([]string(nil), defaultStopwords...)
	}
	if c.Community.HotLimit == 0 {
		c.Community.HotLimit = 20
	}
	if c.Community.MaxComments == 0 {
		c.Community.MaxComments = 5
	}
	if c.Community.MinOverlap == 0 {
		c.Community.MinOverlap = 1
	}
	if c.Community.RequestInterval == 0 {
		c.Community.RequestInterval = 500 * time.Millisecond
	}
	if c.Community.Timeout == 0 {
		c.Community.Timeout = 10 * time.Second
	}
	if c.Community.CacheTTL == 0 {
		c.Community.CacheTTL = 10 * time.Minute
	}

	// images
	if c.Images.WikiEndpoint == "" {
		c.Images.WikiEndpoint = "https://en.wikipedia.org/w/api.php"
	}
	if c.Images.ThumbSize == 0 {
		c.Images.ThumbSize = 800
	}
	if c.Images.MaxKeywords == 0 {
		c.Images.MaxKeywords = 6
	}
	if c.Images.Timeout == 0 {
		c.Images.Timeout = 6 * time.Second
	}
	if c.Images.UserAgent == "" {
		c.Images.UserAgent = "CollectiveMonologue/1.0"
	}

	// extraction and feeds
	if c.Extraction.Timeout == 0 {
		c.Extraction.Timeout = 10 * time.Second
	}
	if c.Extraction.UserAgent == "" {
		c.Extraction.UserAgent = "Mozilla/5.0 (compatible; StageSide/1.0)"
	}
	if c.Feeds.Timeout == 0 {
		c.Feeds.Timeout = 15 * time.Second
	}
	if c.Feeds.UserAgent == "" {
		c.Feeds.UserAgent = "Mozilla/5.0 (compatible; StageSide/1.0)"
	}

	// notify
	if c.Notify.SMTPHost == "" {
		c.Notify.SMTPHost = "smtp.gmail.com"
	}
	if c.Notify.SMTPPort == 0 {
		c.Notify.SMTPPort = 465
	}
	if c.Notify.From == "" {
		c.Notify.From = c.Notify.Username
	}

	// server and database
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost:8080"
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "file:stageside.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if c.Database.KeepRuns == 0 {
		c.Database.KeepRuns = 500
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	names := make(map[string]bool, len(cfg.Sources))
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("sources[%d].name is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("sources[%d].url is required", i)
		}
		if !s.Tier.Valid() {
			return fmt.Errorf("sources[%d].tier must be major or indie, got %q", i, s.Tier)
		}
		if names[s.Name] {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		names[s.Name] = true
	}

	if cfg.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers must be at least 1")
	}
	if cfg.Pipeline.RetentionCap < 1 {
		return fmt.Errorf("pipeline.retention_cap must be at least 1")
	}
	if cfg.Pipeline.MajorSlice < 0 || cfg.Pipeline.IndieSlice < 0 {
		return fmt.Errorf("pipeline tier slices must be non-negative")
	}

	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if cfg.LLM.Retry.MaxAttempts < 1 {
		return fmt.Errorf("llm.retry.max_attempts must be at least 1")
	}

	if cfg.Community.MinOverlap < 1 {
		return fmt.Errorf("community.min_overlap must be at least 1")
	}

	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}

	return nil
}

// ImageRequired reports whether entries without an image are rejected
func (p PipelineConfig) ImageRequired() bool {
	return p.RequireImage == nil || *p.RequireImage
}

// IsEnabled reports whether community reaction lookup is on
func (c CommunityConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// FeedSources converts configured sources to domain feed sources
func (c *Config) FeedSources() []domain.FeedSource {
	res := make([]domain.FeedSource, 0, len(c.Sources))
	for _, s := range c.Sources {
		res = append(res, domain.FeedSource{Name: s.Name, URL: s.URL, Tier: s.Tier})
	}
	return res
}
