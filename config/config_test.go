package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REDDIT_CLIENT_ID", "REDDIT_CLIENT_SECRET", "REDDIT_USER_AGENT",
		"LLM_PROVIDER", "GEMINI_API_KEY", "GEMINI_MODEL", "OPENAI_API_KEY", "OPENAI_MODEL",
		"COLLECT_INTERVAL", "LABEL_INTERVAL", "LOG_LEVEL", "STUDY_CONFIG",
		"RAW_DATA_PATH", "LABELED_DATA_PATH", "REPORT_PATH", "FIGURES_DIR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.GeminiModel)
	assert.Zero(t, cfg.LLM.Temperature)
	assert.Zero(t, cfg.LLM.ThinkingBudget)
	assert.Equal(t, 500*time.Millisecond, cfg.LLM.Interval)
	assert.Equal(t, time.Second, cfg.Reddit.Interval)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "reddit_vaccine_data_raw.csv", cfg.Paths.RawData)
	assert.Equal(t, "reddit_data_with_gemini_sentiment.csv", cfg.Paths.LabeledData)
	assert.Equal(t, []string{CategoryBlueCollar, CategoryWhiteCollar}, cfg.Study.Categories())
	assert.Len(t, cfg.Study.Keywords, 6)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LABEL_INTERVAL", "2s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("FIGURES_DIR", "out/figs")

	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, 2*time.Second, cfg.LLM.Interval)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "out/figs", cfg.Paths.FiguresDir)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("LABEL_INTERVAL", "soon")
	_, err := Load("test")
	require.Error(t, err)

	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "claude")
	_, err = Load("test")
	require.Error(t, err)
}

func TestRequireCredentials(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{Provider: ProviderGemini}}
	assert.ErrorIs(t, cfg.RequireReddit(), ErrMissingCredentials)
	assert.ErrorIs(t, cfg.RequireLLM(), ErrMissingCredentials)

	cfg.Reddit.ClientID = "id"
	cfg.Reddit.ClientSecret = "secret"
	cfg.LLM.GeminiAPIKey = "key"
	assert.NoError(t, cfg.RequireReddit())
	assert.NoError(t, cfg.RequireLLM())

	cfg.LLM.Provider = ProviderOpenAI
	assert.ErrorIs(t, cfg.RequireLLM(), ErrMissingCredentials)
}

func TestLoadStudyFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "study.yaml")
	body := `
groups:
  - category: blue_collar
    subreddits: [Welding]
  - category: white_collar
    subreddits: [law, consulting]
keywords: [vaccine]
window:
  start: 2021-06-01
  end: 2021-06-30
search:
  more_comments_limit: 2
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	study, err := LoadStudy(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"blue_collar", "white_collar"}, study.Categories())
	assert.Equal(t, []string{"law", "consulting"}, study.Groups[1].Subreddits)
	assert.Equal(t, time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), study.Window.Start)
	assert.Equal(t, "year", study.Search.TimeFilter)
	assert.Equal(t, 1000, study.Search.ResultCap)
	assert.Equal(t, 2, study.Search.MoreCommentsLimit)
}

func TestLoadStudySearchDefaults(t *testing.T) {
	tests := []struct {
		name   string
		search string
		want   Search
	}{
		{"omitted", "", Search{TimeFilter: "year", ResultCap: 1000, MoreCommentsLimit: 5}},
		{"expansion off", "search:\n  more_comments_limit: 0\n", Search{TimeFilter: "year", ResultCap: 1000, MoreCommentsLimit: 0}},
		{"partial", "search:\n  result_cap: 200\n", Search{TimeFilter: "year", ResultCap: 200, MoreCommentsLimit: 5}},
		{"negative", "search:\n  result_cap: -1\n  more_comments_limit: -3\n", Search{TimeFilter: "year", ResultCap: 1000, MoreCommentsLimit: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "study.yaml")
			body := "groups:\n  - category: blue_collar\n    subreddits: [Welding]\nkeywords: [vaccine]\n" + tt.search
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

			study, err := LoadStudy(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, study.Search)
		})
	}
}

func TestLoadStudyRejectsEmptyGroups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "study.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keywords: [vaccine]\n"), 0o644))

	_, err := LoadStudy(path)
	require.Error(t, err)
}

func TestWindowContains(t *testing.T) {
	w := Window{
		Start: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"start instant", w.Start, true},
		{"mid year", time.Date(2021, 7, 4, 12, 0, 0, 0, time.UTC), true},
		{"last day evening", time.Date(2021, 12, 31, 22, 0, 0, 0, time.UTC), true},
		{"day before", time.Date(2020, 12, 31, 23, 59, 59, 0, time.UTC), false},
		{"day after", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Contains(float64(tt.at.Unix())))
		})
	}

	assert.True(t, Window{}.Contains(0))
}
