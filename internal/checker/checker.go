// Package checker runs a single-purpose checker (solution, grammar,
// clarity, or tikz) over every problem file in an output directory,
// skipping files already processed in earlier runs.
package checker

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vaibhavblayer/vbagent-sub000/internal/agents"
	"github.com/vaibhavblayer/vbagent-sub000/internal/versiondb"
)

// Result summarizes a checker run.
type Result struct {
	Checked     int
	Passed      int
	Failed      int
	Skipped     int
	Suggestions int
}

// Checker drives batch checker runs against the version store.
type Checker struct {
	store  *versiondb.Store
	agents *agents.Agents
}

// New creates a checker.
func New(store *versiondb.Store, ag *agents.Agents) *Checker {
	return &Checker{store: store, agents: ag}
}

// candidateFiles lists the .tex files a checker type applies to.
func candidateFiles(checkerType, outputDir string) ([]string, error) {
	patterns := []string{
		filepath.Join(outputDir, "scans", "*.tex"),
		filepath.Join(outputDir, "alternates", "*.tex"),
		filepath.Join(outputDir, "variants", "*", "*.tex"),
	}
	if checkerType == "tikz" {
		patterns = []string{filepath.Join(outputDir, "tikz", "*.tex")}
	}

	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// Run checks every unprocessed candidate file, marking progress so an
// interrupted run picks up where it stopped.
func (c *Checker) Run(ctx context.Context, checkerType, outputDir string) (*Result, error) {
	files, err := candidateFiles(checkerType, outputDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no candidate files for %s checker under %s", checkerType, outputDir)
	}

	checked, err := c.store.GetCheckedFiles(checkerType, outputDir)
	if err != nil {
		return nil, err
	}

	r := &Result{}
	for _, path := range files {
		if ctx.Err() != nil {
			return r, ctx.Err()
		}
		if checked[path] {
			r.Skipped++
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Error reading %s: %v", path, err)
			continue
		}

		problemID := strings.TrimSuffix(filepath.Base(path), ".tex")
		review, err := c.agents.Check(ctx, checkerType, problemID, map[string]string{path: string(content)})
		if err != nil {
			log.Printf("Error checking %s: %v", path, err)
			continue
		}

		for _, sug := range review.Suggestions {
			if _, err := c.store.SaveSuggestion(sug, problemID, versiondb.SuggestionPending, nil); err != nil {
				log.Printf("Error saving suggestion for %s: %v", path, err)
				continue
			}
			r.Suggestions++
		}

		if err := c.store.MarkFileChecked(path, checkerType, outputDir, review.Passed); err != nil {
			return r, fmt.Errorf("recording progress for %s: %w", path, err)
		}
		r.Checked++
		if review.Passed {
			r.Passed++
		} else {
			r.Failed++
		}
		log.Printf("Checked [%s] %s: passed=%v, %d suggestions",
			checkerType, path, review.Passed, len(review.Suggestions))
	}

	stats, err := c.store.GetCheckerStats(checkerType, outputDir)
	if err == nil {
		log.Printf("%s checker totals: %d checked, %d passed, %d failed",
			checkerType, stats.Total, stats.Passed, stats.Failed)
	}
	return r, nil
}

// Reset clears a checker's progress for a directory so all files get
// re-checked. Returns the number of progress rows removed.
func (c *Checker) Reset(checkerType, outputDir string) (int, error) {
	return c.store.ResetCheckerProgress(checkerType, outputDir, nil)
}
