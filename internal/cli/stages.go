package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/spacesedan/vaxpulse/config"
	"github.com/spacesedan/vaxpulse/internal/analysis"
	"github.com/spacesedan/vaxpulse/internal/charts"
	"github.com/spacesedan/vaxpulse/internal/clients"
	"github.com/spacesedan/vaxpulse/internal/collector"
	"github.com/spacesedan/vaxpulse/internal/dataset"
	"github.com/spacesedan/vaxpulse/internal/db"
	"github.com/spacesedan/vaxpulse/internal/models"
	"github.com/spacesedan/vaxpulse/internal/sentiment"
)

func (a *app) collectCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Search the study subreddits and save matching posts and comments",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RequireReddit(); err != nil {
				return err
			}
			ctx := cmd.Context()

			reddit := clients.NewRedditClient(ctx, a.cfg.Reddit, clients.RedditOptions{})
			items, err := collector.New(reddit, a.cfg.Study, a.cfg.Reddit.Interval).Collect(ctx)
			if err != nil {
				return err
			}

			path := orDefault(out, a.cfg.Paths.RawData)
			if err := dataset.WriteCollected(path, items); err != nil {
				return err
			}
			slog.Info("[CLI] Collection saved", slog.String("path", path), slog.Int("records", len(items)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "raw CSV to write (default RAW_DATA_PATH)")
	return cmd
}

func (a *app) labelCmd() *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Classify the vaccine sentiment of every collected row",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RequireLLM(); err != nil {
				return err
			}
			ctx := cmd.Context()

			items, err := dataset.ReadCollected(orDefault(in, a.cfg.Paths.RawData))
			if err != nil {
				return err
			}
			slog.Info("[CLI] Loaded records", slog.Int("records", len(items)))

			classifier, err := newClassifier(ctx, a.cfg.LLM)
			if err != nil {
				return err
			}
			labeled, _, err := sentiment.NewLabeler(classifier, a.cfg.LLM.Interval).Label(ctx, items)
			if err != nil {
				return err
			}

			path := orDefault(out, a.cfg.Paths.LabeledData)
			if err := dataset.WriteLabeled(path, labeled); err != nil {
				return err
			}
			slog.Info("[CLI] Labeled data saved", slog.String("path", path))
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "raw CSV to read (default RAW_DATA_PATH)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "labeled CSV to write (default LABELED_DATA_PATH)")
	return cmd
}

func newClassifier(ctx context.Context, cfg config.LLMConfig) (sentiment.Classifier, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		client, err := clients.NewOpenAIClient(cfg, clients.OpenAIOptions{})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		client, err := clients.NewGeminiClient(ctx, cfg, clients.GeminiOptions{})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

func (a *app) analyzeCmd() *cobra.Command {
	var in, out string
	var win windowFlags
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute the statistics report from the labeled data",
		RunE: func(cmd *cobra.Command, args []string) error {
			source := orDefault(in, a.cfg.Paths.LabeledData)
			items, window, err := loadLabeled(source, win)
			if err != nil {
				return err
			}

			report := analysis.Analyze(items, analysis.Options{
				Source:     source,
				Window:     window,
				Categories: a.cfg.Study.Categories(),
			})
			return analysis.WriteReport(orDefault(out, a.cfg.Paths.Report), report)
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "labeled CSV to read (default LABELED_DATA_PATH)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "report to write (default REPORT_PATH)")
	win.register(cmd)
	return cmd
}

func (a *app) visualizeCmd() *cobra.Command {
	var in, dir string
	var win windowFlags
	cmd := &cobra.Command{
		Use:   "visualize",
		Short: "Render the study figures from the labeled data",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, window, err := loadLabeled(orDefault(in, a.cfg.Paths.LabeledData), win)
			if err != nil {
				return err
			}

			paths, err := charts.Render(items, charts.Options{
				Dir:        orDefault(dir, a.cfg.Paths.FiguresDir),
				Categories: a.cfg.Study.Categories(),
				Window:     window,
			})
			if err != nil {
				return err
			}
			slog.Info("[CLI] All figures generated", slog.Int("figures", len(paths)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "labeled CSV to read (default LABELED_DATA_PATH)")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "output directory (default FIGURES_DIR)")
	win.register(cmd)
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var in, table string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Archive the labeled data in DynamoDB",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			items, err := dataset.ReadLabeled(orDefault(in, a.cfg.Paths.LabeledData))
			if err != nil {
				return err
			}

			client, err := clients.NewDynamoDBClient(ctx, a.cfg.AWS)
			if err != nil {
				return err
			}
			res, err := db.NewArchive(client, orDefault(table, a.cfg.AWS.Table)).Export(ctx, items)
			if err != nil {
				return err
			}
			if res.Unprocessed > 0 {
				return fmt.Errorf("[CLI] %d of %d records were not written", res.Unprocessed, len(items))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "labeled CSV to read (default LABELED_DATA_PATH)")
	cmd.Flags().StringVar(&table, "table", "", "DynamoDB table (default DYNAMODB_TABLE)")
	return cmd
}

func loadLabeled(path string, win windowFlags) ([]models.LabeledItem, config.Window, error) {
	window, err := win.window()
	if err != nil {
		return nil, config.Window{}, err
	}
	items, err := dataset.ReadLabeled(path)
	if err != nil {
		return nil, config.Window{}, err
	}
	if !window.IsZero() {
		filtered := dataset.FilterWindow(items, window)
		slog.Info("[CLI] Applied date window",
			slog.String("window", window.String()),
			slog.Int("kept", len(filtered)),
			slog.Int("total", len(items)))
		items = filtered
	}
	return items, window, nil
}
