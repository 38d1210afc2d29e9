// -- cmd/inspect.go --
package cmd

import (
	"fmt"
	"os"
	"sort"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	tinyhtml "github.com/xkilldash9x/tinyhtml"
	"github.com/xkilldash9x/tinyhtml/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	inspectSelector string
	inspectMetrics  bool
	inspectPretty   bool
	inspectWorkers  int
)

// matchRecord is one reported element.
type matchRecord struct {
	Tag     string            `json:"tag"`
	ID      string            `json:"id,omitempty"`
	Classes []string          `json:"classes,omitempty"`
	Text    string            `json:"text,omitempty"`
	Metrics *metricsRecord    `json:"metrics,omitempty"`
	Styles  map[string]string `json:"styles,omitempty"`
}

type metricsRecord struct {
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	InnerWidth  float64 `json:"inner_width"`
	InnerHeight float64 `json:"inner_height"`
	OuterWidth  float64 `json:"outer_width"`
	OuterHeight float64 `json:"outer_height"`
}

type fileReport struct {
	File    string        `json:"file"`
	Matches []matchRecord `json:"matches"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [files...]",
	Short: "Parse HTML files and report elements matching a selector.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger().Named("inspect")

		var mu sync.Mutex
		reports := make([]fileReport, 0, len(args))

		g := new(errgroup.Group)
		g.SetLimit(inspectWorkers)
		for _, path := range args {
			path := path
			g.Go(func() error {
				report, err := inspectFile(path, inspectSelector)
				if err != nil {
					return fmt.Errorf("inspecting %s: %w", path, err)
				}
				logger.Debug("file inspected",
					zap.String("file", path),
					zap.Int("matches", len(report.Matches)))
				mu.Lock()
				reports = append(reports, report)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		sort.Slice(reports, func(i, j int) bool { return reports[i].File < reports[j].File })

		enc := json.NewEncoder(cmd.OutOrStdout())
		if inspectPretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(reports)
	},
}

func inspectFile(path, selector string) (fileReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileReport{}, err
	}
	doc, err := tinyhtml.Parse(string(raw))
	if err != nil {
		return fileReport{}, err
	}
	matched, err := tinyhtml.QueryAll(selector, doc.Nodes()[0])
	if err != nil {
		return fileReport{}, err
	}

	report := fileReport{File: path, Matches: make([]matchRecord, 0, matched.Length())}
	for _, target := range matched.Targets() {
		el, err := tinyhtml.Wrap(target.Node)
		if err != nil {
			continue
		}
		rec := matchRecord{Text: el.Text()}
		if rec.Tag, err = el.TagName(); err != nil {
			continue
		}
		rec.ID, _ = el.ID()
		rec.Classes, _ = el.ClassList()
		rec.Styles, _ = el.Style(nil)

		if inspectMetrics {
			m := &metricsRecord{}
			m.Width, _ = el.Width()
			m.Height, _ = el.Height()
			m.InnerWidth, _ = el.InnerWidth()
			m.InnerHeight, _ = el.InnerHeight()
			m.OuterWidth, _ = el.OuterWidth()
			m.OuterHeight, _ = el.OuterHeight()
			rec.Metrics = m
		}
		report.Matches = append(report.Matches, rec)
	}
	return report, nil
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectSelector, "selector", "s", "*", "CSS selector to match")
	inspectCmd.Flags().BoolVar(&inspectMetrics, "metrics", false, "include box-model metrics per match")
	inspectCmd.Flags().BoolVar(&inspectPretty, "pretty", false, "indent the JSON output")
	inspectCmd.Flags().IntVar(&inspectWorkers, "workers", 4, "files processed concurrently")
	rootCmd.AddCommand(inspectCmd)
}
