package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/docutag/interlinker"
	"github.com/docutag/interlinker/models"
)

var (
	candidatesTarget string
	candidatesTop    int
	candidatesFormat string
)

// candidatesCmd represents the candidates command
var candidatesCmd = &cobra.Command{
	Use:   "candidates [file]",
	Short: "Show ranked anchor candidates per paragraph for one target page",
	Long: `Show the anchor candidates that would be considered for one target page,
paragraph by paragraph, with their scores. Useful for tuning weights,
thresholds and heuristics before running inject.

Examples:
  interlink candidates --pages pages.yaml --target raised-beds post.html
  interlink candidates --pages pages.yaml --target raised-beds --top 3 --format json post.html`,
	Args: cobra.ExactArgs(1),
	RunE: runCandidates,
}

func init() {
	rootCmd.AddCommand(candidatesCmd)

	candidatesCmd.Flags().StringVar(&candidatesTarget, "target", "", "slug of the target page")
	candidatesCmd.Flags().IntVar(&candidatesTop, "top", 5, "candidates shown per paragraph")
	candidatesCmd.Flags().StringVar(&candidatesFormat, "format", "human", "output format (human, json)")
	cobra.CheckErr(candidatesCmd.MarkFlagRequired("target"))
}

// paragraphCandidates is the ranked candidate list of one element
type paragraphCandidates struct {
	Index      int                           `json:"index"`
	Zone       string                        `json:"zone"`
	Position   float64                       `json:"position"`
	Candidates []interlinker.AnchorCandidate `json:"candidates"`
}

func runCandidates(cmd *cobra.Command, args []string) error {
	path := viper.GetString("pages")
	if path == "" {
		return fmt.Errorf("--pages is required")
	}
	pages, err := loadPages(path)
	if err != nil {
		return err
	}
	page, ok := findPage(pages, candidatesTarget)
	if !ok {
		return fmt.Errorf("page %q not found in %s", candidatesTarget, path)
	}

	engine, err := newEngine(newLogger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	results, err := rankParagraphs(engine, string(data), page, candidatesTop)
	if err != nil {
		return err
	}

	if candidatesFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	printCandidates(cmd.OutOrStdout(), results)
	return nil
}

func findPage(pages []models.PageInfo, target string) (models.PageInfo, bool) {
	for _, p := range pages {
		if p.Slug == target {
			return p, true
		}
	}
	return models.PageInfo{}, false
}

// rankParagraphs scores every eligible element against page
func rankParagraphs(engine *interlinker.Engine, content string, page models.PageInfo, top int) ([]paragraphCandidates, error) {
	elements, err := engine.Segment(content)
	if err != nil {
		return nil, err
	}

	results := make([]paragraphCandidates, 0, len(elements))
	for _, el := range elements {
		ranked := engine.ScoreCandidates(engine.GenerateCandidates(el.Text), el.Text, page)
		if top > 0 && len(ranked) > top {
			ranked = ranked[:top]
		}
		results = append(results, paragraphCandidates{
			Index:      el.Index,
			Zone:       el.Zone,
			Position:   el.Position,
			Candidates: ranked,
		})
	}
	return results, nil
}

func printCandidates(w io.Writer, results []paragraphCandidates) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	for _, r := range results {
		fmt.Fprintf(tw, "#%d\t%s\t%.0f%%\n", r.Index, r.Zone, r.Position)
		if len(r.Candidates) == 0 {
			fmt.Fprintln(tw, "\t(no candidate above threshold)")
			continue
		}
		fmt.Fprintln(tw, "\tQUALITY\tSEMANTIC\tNATURAL\tSEO\tANCHOR")
		for _, c := range r.Candidates {
			fmt.Fprintf(tw, "\t%.1f\t%.1f\t%.1f\t%.1f\t%s\n", c.Quality, c.Semantic, c.Naturalness, c.SEO, c.Text)
		}
	}
}
