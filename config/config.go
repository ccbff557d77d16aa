package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	CategoryBlueCollar  = "blue_collar"
	CategoryWhiteCollar = "white_collar"
)

var ErrMissingCredentials = errors.New("missing credentials")

// Config is built once at startup and handed to each stage.
type Config struct {
	Env      string
	LogLevel slog.Level
	Reddit   RedditConfig
	LLM      LLMConfig
	AWS      AWSConfig
	Paths    Paths
	Study    Study
}

type RedditConfig struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	// Interval is the pause after each keyword search.
	Interval time.Duration
}

type LLMConfig struct {
	Provider       string
	GeminiAPIKey   string
	GeminiModel    string
	OpenAIAPIKey   string
	OpenAIModel    string
	Temperature    float32
	ThinkingBudget int32
	// Interval is the pause between classification calls.
	Interval time.Duration
}

type AWSConfig struct {
	Region   string
	Endpoint string
	Table    string
}

type Paths struct {
	RawData     string
	LabeledData string
	Report      string
	FiguresDir  string
}

// Study describes what gets collected: which subreddits belong to which
// occupational category, the keywords and the collection window.
type Study struct {
	Groups   []Group  `yaml:"groups"`
	Keywords []string `yaml:"keywords"`
	Window   Window   `yaml:"window"`
	Search   Search   `yaml:"search"`
}

type Group struct {
	Category   string   `yaml:"category"`
	Subreddits []string `yaml:"subreddits"`
}

type Search struct {
	TimeFilter        string `yaml:"time_filter"`
	ResultCap         int    `yaml:"result_cap"`
	MoreCommentsLimit int    `yaml:"more_comments_limit"`
}

// Window is a closed range of calendar days. End covers the whole day.
type Window struct {
	Start time.Time `yaml:"start"`
	End   time.Time `yaml:"end"`
}

func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Contains reports whether the unix timestamp falls inside the window. A zero
// bound is open.
func (w Window) Contains(unix float64) bool {
	t := time.Unix(0, int64(unix*float64(time.Second))).UTC()
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !t.Before(w.End.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

func (w Window) String() string {
	layout := "January 2, 2006"
	switch {
	case w.IsZero():
		return "all dates"
	case w.Start.IsZero():
		return "through " + w.End.Format(layout)
	case w.End.IsZero():
		return "from " + w.Start.Format(layout)
	}
	return w.Start.Format(layout) + " - " + w.End.Format(layout)
}

// DefaultStudy is the 2021 blue/white collar study.
func DefaultStudy() Study {
	return Study{
		Groups: []Group{
			{
				Category: CategoryBlueCollar,
				Subreddits: []string{
					"Carpentry", "electricians", "Construction", "Welding", "Plumbing",
					"Machinists", "Truckers", "AutoDetailing", "Justrolledintotheshop",
					"KitchenConfidential", "ProtectAndServe", "Firefighting",
				},
			},
			{
				Category: CategoryWhiteCollar,
				Subreddits: []string{
					"consulting", "cscareerquestions", "law", "Accounting", "engineering",
				},
			},
		},
		Keywords: []string{"vaccine", "vaccinated", "vaccination", "pfizer", "moderna", "j&j"},
		Window: Window{
			Start: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		Search: Search{
			TimeFilter:        "year",
			ResultCap:         1000,
			MoreCommentsLimit: 5,
		},
	}
}

// LoadStudy reads a study definition from a YAML file. Omitted search limits
// keep their defaults; more_comments_limit: 0 turns comment expansion off.
func LoadStudy(path string) (Study, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Study{}, fmt.Errorf("[Config] read study file: %w", err)
	}

	defaults := DefaultStudy().Search
	study := Study{Search: defaults}
	if err := yaml.Unmarshal(raw, &study); err != nil {
		return Study{}, fmt.Errorf("[Config] parse study file %s: %w", path, err)
	}

	if study.Search.TimeFilter == "" {
		study.Search.TimeFilter = defaults.TimeFilter
	}
	if study.Search.ResultCap <= 0 {
		study.Search.ResultCap = defaults.ResultCap
	}
	if study.Search.MoreCommentsLimit < 0 {
		study.Search.MoreCommentsLimit = defaults.MoreCommentsLimit
	}

	if err := study.Validate(); err != nil {
		return Study{}, err
	}
	return study, nil
}

func (s Study) Validate() error {
	if len(s.Groups) == 0 {
		return errors.New("[Config] study has no subreddit groups")
	}
	for _, g := range s.Groups {
		if g.Category == "" {
			return errors.New("[Config] study group without a category")
		}
		if len(g.Subreddits) == 0 {
			return fmt.Errorf("[Config] study group %s has no subreddits", g.Category)
		}
	}
	if len(s.Keywords) == 0 {
		return errors.New("[Config] study has no keywords")
	}
	if !s.Window.Start.IsZero() && !s.Window.End.IsZero() && s.Window.End.Before(s.Window.Start) {
		return errors.New("[Config] study window ends before it starts")
	}
	return nil
}

// Categories returns the configured category names in study order.
func (s Study) Categories() []string {
	out := make([]string, 0, len(s.Groups))
	for _, g := range s.Groups {
		out = append(out, g.Category)
	}
	return out
}

// Load reads .env.<env> and the environment into a Config.
func Load(env string) (*Config, error) {
	LoadEnv(env)

	cfg := &Config{
		Env: env,
		Reddit: RedditConfig{
			ClientID:     os.Getenv("REDDIT_CLIENT_ID"),
			ClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
			UserAgent:    getEnv("REDDIT_USER_AGENT", "VaccineSentimentStudy/1.0"),
		},
		LLM: LLMConfig{
			Provider:     getEnv("LLM_PROVIDER", ProviderGemini),
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
			OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		AWS: AWSConfig{
			Region:   getEnv("AWS_REGION", "us-west-2"),
			Endpoint: os.Getenv("AWS_ENDPOINT"),
			Table:    getEnv("DYNAMODB_TABLE", "VaccineSentiment"),
		},
		Paths: Paths{
			RawData:     getEnv("RAW_DATA_PATH", "reddit_vaccine_data_raw.csv"),
			LabeledData: getEnv("LABELED_DATA_PATH", "reddit_data_with_gemini_sentiment.csv"),
			Report:      getEnv("REPORT_PATH", "computed_stats.md"),
			FiguresDir:  getEnv("FIGURES_DIR", "figures"),
		},
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("[Config] invalid LOG_LEVEL: %w", err)
	}

	var err error
	if cfg.Reddit.Interval, err = getDuration("COLLECT_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.LLM.Interval, err = getDuration("LABEL_INTERVAL", 500*time.Millisecond); err != nil {
		return nil, err
	}

	switch cfg.LLM.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return nil, fmt.Errorf("[Config] unknown LLM_PROVIDER %q", cfg.LLM.Provider)
	}

	if path := os.Getenv("STUDY_CONFIG"); path != "" {
		if cfg.Study, err = LoadStudy(path); err != nil {
			return nil, err
		}
	} else {
		cfg.Study = DefaultStudy()
	}

	return cfg, nil
}

// RequireReddit fails when the Reddit credentials are not set.
func (c *Config) RequireReddit() error {
	if c.Reddit.ClientID == "" || c.Reddit.ClientSecret == "" {
		return fmt.Errorf("[Config] REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET are required: %w", ErrMissingCredentials)
	}
	return nil
}

// RequireLLM fails when the selected provider has no API key.
func (c *Config) RequireLLM() error {
	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.OpenAIAPIKey == "" {
			return fmt.Errorf("[Config] OPENAI_API_KEY is required: %w", ErrMissingCredentials)
		}
	default:
		if c.LLM.GeminiAPIKey == "" {
			return fmt.Errorf("[Config] GEMINI_API_KEY is required: %w", ErrMissingCredentials)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("[Config] invalid %s: %w", key, err)
	}
	return d, nil
}
