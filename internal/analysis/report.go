package analysis

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/spacesedan/vaxpulse/internal/models"
	"github.com/spacesedan/vaxpulse/internal/stats"
)

const dateLayout = "January 2, 2006"

// Markdown renders the report in the layout used for the manuscript.
func (r Report) Markdown() string {
	var b strings.Builder

	b.WriteString("# Statistical Analysis\n\n")
	fmt.Fprintf(&b, "**Data Source:** `%s`\n", r.Source)
	fmt.Fprintf(&b, "**Total Records:** N=%d\n", r.Total)
	fmt.Fprintf(&b, "**Date Range:** %s\n\n", r.dateRange())
	b.WriteString("---\n\n")

	b.WriteString("## 1. Data Overview\n\n")
	writeShares(&b, r.Categories, func(name string) string { return name })
	writeShares(&b, r.Types, func(name string) string { return strings.ToUpper(name[:1]) + name[1:] + "s" })
	writeShares(&b, r.Labels, func(name string) string { return models.Sentiment(name).Title() })

	b.WriteString("## 2. Sentiment by Category\n\n")
	byCategory := newTable("Category", "N", "Mean", "Median", "Std Dev", "95% CI Lower", "95% CI Upper")
	for _, g := range r.ByCategory {
		byCategory.AppendRow(table.Row{g.Category, g.N, num(g.Mean), num(g.Median), num(g.StdDev), num(g.CILower), num(g.CIUpper)})
	}
	b.WriteString(byCategory.RenderMarkdown() + "\n\n")

	fmt.Fprintf(&b, "## 3. T-Test (%s vs %s)\n\n", r.Compared[0], r.Compared[1])
	b.WriteString("Welch's t-test, unequal variances, two-sided.\n\n")
	fmt.Fprintf(&b, "- **T-statistic:** %s\n", num(r.TTest.Statistic))
	fmt.Fprintf(&b, "- **Degrees of freedom:** %s\n", num(r.TTest.DF))
	fmt.Fprintf(&b, "- **P-value:** %s\n", pval(r.TTest.PValue))
	fmt.Fprintf(&b, "- **Result:** %s (α = 0.05)\n\n", verdict(r.TTest.PValue))

	b.WriteString("## 4. Chi-Square (Category vs Sentiment Label)\n\n")
	b.WriteString("**Contingency Table:**\n\n")
	header := []any{"category"}
	for _, col := range r.Contingency.Columns {
		header = append(header, string(col))
	}
	contingency := newTable(header...)
	for i, category := range r.Contingency.Rows {
		row := table.Row{category}
		for _, v := range r.Contingency.Counts[i] {
			row = append(row, int(v))
		}
		contingency.AppendRow(row)
	}
	b.WriteString(contingency.RenderMarkdown() + "\n\n")
	fmt.Fprintf(&b, "- **χ² Statistic:** %s\n", num(r.ChiSquare.Statistic))
	fmt.Fprintf(&b, "- **Degrees of freedom:** %d\n", r.ChiSquare.DF)
	fmt.Fprintf(&b, "- **P-value:** %s\n", pval(r.ChiSquare.PValue))
	if r.ChiSquare.Corrected {
		b.WriteString("- **Yates continuity correction:** applied\n")
	}
	fmt.Fprintf(&b, "- **Result:** %s\n\n", verdict(r.ChiSquare.PValue))

	b.WriteString("## 5. Correlation (Karma vs Sentiment)\n\n")
	corr := newTable("Method", "r", "P-value")
	corr.AppendRow(table.Row{"Pearson", num(r.Pearson.Coefficient), pval(r.Pearson.PValue)})
	corr.AppendRow(table.Row{"Spearman", num(r.Spearman.Coefficient), pval(r.Spearman.PValue)})
	b.WriteString(corr.RenderMarkdown() + "\n\n")

	b.WriteString("## 6. Subreddit-Level Statistics\n\n")
	subs := newTable("Category", "Subreddit", "N", "Mean", "Std Dev", "95% CI Lower", "95% CI Upper")
	for _, g := range r.Subreddits {
		subs.AppendRow(table.Row{g.Category, g.Subreddit, g.N, num(g.Mean), num(g.StdDev), num(g.CILower), num(g.CIUpper)})
	}
	b.WriteString(subs.RenderMarkdown() + "\n\n")

	b.WriteString("## 7. Lexicon Baseline Agreement (VADER)\n\n")
	if r.VaderCompared == 0 {
		b.WriteString("No rows carry both an LLM label and a VADER label.\n")
	} else {
		fmt.Fprintf(&b, "- **Compared rows:** %d\n", r.VaderCompared)
		fmt.Fprintf(&b, "- **Agreement:** %.1f%%\n", float64(r.VaderAgreed)/float64(r.VaderCompared)*100)
	}

	return b.String()
}

// WriteReport renders r to path, creating the parent directory.
func WriteReport(path string, r Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("[Analysis] create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(r.Markdown()), 0o644); err != nil {
		return fmt.Errorf("[Analysis] write report: %w", err)
	}
	slog.Info("[Analysis] Report written", slog.String("path", path), slog.Int("records", r.Total))
	return nil
}

func (r Report) dateRange() string {
	if !r.Window.IsZero() {
		return r.Window.String()
	}
	if r.Total == 0 {
		return "no data"
	}
	return r.FirstSeen.Format(dateLayout) + " - " + r.LastSeen.Format(dateLayout)
}

func writeShares(b *strings.Builder, shares []Share, label func(string) string) {
	for _, s := range shares {
		fmt.Fprintf(b, "- **%s:** n=%d (%.1f%%)\n", label(s.Name), s.N, s.Percent)
	}
	b.WriteString("\n")
}

func newTable(header ...any) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row(header))
	return t
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4f", v)
}

func pval(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4e", v)
}

func verdict(p float64) string {
	switch {
	case math.IsNaN(p):
		return "Undefined"
	case p < stats.Alpha:
		return "Significant"
	default:
		return "Not Significant"
	}
}
