// Package review runs resumable QA review sessions: each problem's files
// go to the reviewer agent, and every suggested edit is shown for
// approval, applied as a unified diff, and stored as a new version.
package review

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vaibhavblayer/vbagent-sub000/internal/agents"
	"github.com/vaibhavblayer/vbagent-sub000/internal/diffutil"
	"github.com/vaibhavblayer/vbagent-sub000/internal/versiondb"
)

// Options configure a review run.
type Options struct {
	OutputDir     string
	Limit         int
	Reset         bool
	Auto          bool
	MinConfidence float64
}

// Result summarizes a review run.
type Result struct {
	SessionID        string
	ProblemsReviewed int
	SuggestionsMade  int
	Approved         int
	Rejected         int
	Skipped          int
}

// Reviewer drives interactive and automatic review sessions.
type Reviewer struct {
	store  *versiondb.Store
	agents *agents.Agents
	in     *bufio.Reader
	out    io.Writer
}

// New creates a reviewer reading decisions from in and printing to out.
func New(store *versiondb.Store, ag *agents.Agents, in io.Reader, out io.Writer) *Reviewer {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Reviewer{store: store, agents: ag, in: bufio.NewReader(in), out: out}
}

// Run reviews pending problems in the output directory. An interrupted
// session for the same directory is resumed instead of starting fresh,
// picking up from its saved remaining-problem list.
func (r *Reviewer) Run(ctx context.Context, opts Options) (*Result, error) {
	problems, err := DiscoverProblems(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if len(problems) == 0 {
		return nil, fmt.Errorf("no problems found under %s", opts.OutputDir)
	}

	if _, err := r.store.InitProblemChecks(problems, opts.OutputDir, opts.Reset); err != nil {
		return nil, fmt.Errorf("registering problems: %w", err)
	}

	sessionID, pending, err := r.resumeOrCreate(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	result := &Result{SessionID: sessionID}

	if pending == nil {
		pending, err = r.store.GetPendingProblems(opts.OutputDir, opts.Limit)
		if err != nil {
			return nil, err
		}
	} else if opts.Limit > 0 && len(pending) > opts.Limit {
		pending = pending[:opts.Limit]
	}

	for i, problemID := range pending {
		if ctx.Err() != nil {
			break
		}
		fmt.Fprintf(r.out, "\n[%d/%d] Reviewing %s\n", i+1, len(pending), problemID)

		if err := r.reviewProblem(ctx, problemID, opts, result); err != nil {
			log.Printf("Error reviewing %s: %v", problemID, err)
			continue
		}
		result.ProblemsReviewed++

		r.store.SaveSessionState(sessionID, opts.OutputDir, pending[i+1:])
		r.saveCounts(sessionID, result, false)
	}

	// An interrupted session stays incomplete so a later run can resume it.
	if ctx.Err() != nil {
		r.saveCounts(sessionID, result, false)
		fmt.Fprintf(r.out, "\nSession interrupted after %d problems; run again to resume\n",
			result.ProblemsReviewed)
		return result, nil
	}

	r.saveCounts(sessionID, result, true)
	fmt.Fprintf(r.out, "\nSession complete: %d reviewed, %d suggestions (%d approved, %d rejected, %d skipped)\n",
		result.ProblemsReviewed, result.SuggestionsMade, result.Approved, result.Rejected, result.Skipped)
	return result, nil
}

// DiscoverProblems lists problem IDs by the .tex files under scans/.
func DiscoverProblems(outputDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(outputDir, "scans", "*.tex"))
	if err != nil {
		return nil, err
	}
	var problems []string
	for _, m := range matches {
		base := filepath.Base(m)
		problems = append(problems, strings.TrimSuffix(base, ".tex"))
	}
	sort.Strings(problems)
	return problems, nil
}

// ProblemFiles gathers the files belonging to a problem, keyed by path.
func ProblemFiles(outputDir, problemID string) (map[string]string, error) {
	patterns := []string{
		filepath.Join(outputDir, "scans", problemID+".tex"),
		filepath.Join(outputDir, "tikz", problemID+".tex"),
		filepath.Join(outputDir, "alternates", problemID+".tex"),
		filepath.Join(outputDir, "variants", "*", problemID+".tex"),
	}

	files := make(map[string]string)
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, path := range matches {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", path, err)
			}
			files[path] = string(data)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files for problem %s", problemID)
	}
	return files, nil
}

// resumeOrCreate finds an interrupted session for the directory and hands
// back its saved remaining-problem list, or starts a fresh session. A nil
// list means no saved state; the caller falls back to the pending query.
func (r *Reviewer) resumeOrCreate(outputDir string) (string, []string, error) {
	incomplete, err := r.store.GetIncompleteSessions()
	if err != nil {
		return "", nil, err
	}
	for _, sess := range incomplete {
		if sess.OutputDir != nil && *sess.OutputDir == outputDir {
			fmt.Fprintf(r.out, "Resuming session %s (%d problems reviewed so far)\n",
				sess.ID, sess.ProblemsReviewed)
			return sess.ID, sess.RemainingProblems, nil
		}
	}
	id, err := r.store.CreateSession()
	return id, nil, err
}

func (r *Reviewer) reviewProblem(ctx context.Context, problemID string, opts Options, result *Result) error {
	files, err := ProblemFiles(opts.OutputDir, problemID)
	if err != nil {
		return err
	}

	review, err := r.agents.Review(ctx, problemID, files)
	if err != nil {
		return err
	}

	status := versiondb.CheckPassed
	if !review.Passed {
		status = versiondb.CheckFailed
	}

	for _, sug := range review.Suggestions {
		result.SuggestionsMade++
		sug.Diff = diffutil.Generate(sug.OriginalContent, sug.SuggestedContent, sug.FilePath)
		r.handleSuggestion(problemID, sug, opts, result)
	}

	return r.store.UpdateProblemCheck(problemID, opts.OutputDir, status, len(review.Suggestions))
}

func (r *Reviewer) handleSuggestion(problemID string, sug versiondb.Suggestion, opts Options, result *Result) {
	sessionID := result.SessionID

	decision := r.decide(sug, opts)
	switch decision {
	case "a":
		applied := diffutil.Apply(sug.FilePath, sug.Diff)
		if applied.Success {
			r.store.SaveSuggestion(sug, problemID, versiondb.SuggestionApproved, &sessionID)
			result.Approved++
			fmt.Fprintf(r.out, "  Applied to %s\n", sug.FilePath)
			return
		}
		fmt.Fprintf(r.out, "  Could not apply: %s\n", applied.ErrorMessage)
		fmt.Fprintf(r.out, "  Tip: %s\n", applyTip(applied.ErrorType))
		r.store.SaveSuggestion(sug, problemID, versiondb.SuggestionRejected, &sessionID)
		result.Rejected++
	case "r":
		r.store.SaveSuggestion(sug, problemID, versiondb.SuggestionRejected, &sessionID)
		result.Rejected++
	default:
		r.store.SaveSuggestion(sug, problemID, versiondb.SuggestionPending, &sessionID)
		result.Skipped++
	}
}

// decide returns "a", "r", or "s" for a suggestion, prompting unless
// running in auto mode.
func (r *Reviewer) decide(sug versiondb.Suggestion, opts Options) string {
	if opts.Auto {
		if sug.Confidence >= opts.MinConfidence {
			return "a"
		}
		return "s"
	}

	fmt.Fprintf(r.out, "\n  [%s] %s (confidence %.2f)\n", sug.IssueType, sug.Description, sug.Confidence)
	fmt.Fprintf(r.out, "  File: %s\n", sug.FilePath)
	if sug.Reasoning != "" {
		fmt.Fprintf(r.out, "  Reasoning: %s\n", sug.Reasoning)
	}
	fmt.Fprintln(r.out, indent(sug.Diff, "  "))

	for {
		fmt.Fprint(r.out, "  [a]pprove / [r]eject / [s]kip: ")
		line, err := r.in.ReadString('\n')
		if err != nil {
			return "s"
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "a", "approve":
			return "a"
		case "r", "reject":
			return "r"
		case "s", "skip", "":
			return "s"
		}
	}
}

// applyTip maps a diff apply failure to actionable advice.
func applyTip(errorType diffutil.ErrorType) string {
	switch errorType {
	case diffutil.ErrFileNotFound:
		return "the file no longer exists; re-run the batch pipeline for this problem"
	case diffutil.ErrDiffConflict:
		return "the file changed since review; re-run 'vbagent review' on this directory"
	case diffutil.ErrPermissionDenied:
		return "check file permissions on the output directory"
	default:
		return "inspect the file manually and re-run the review"
	}
}

func (r *Reviewer) saveCounts(sessionID string, result *Result, completed bool) {
	err := r.store.UpdateSession(sessionID, versiondb.SessionCounts{
		ProblemsReviewed: &result.ProblemsReviewed,
		SuggestionsMade:  &result.SuggestionsMade,
		ApprovedCount:    &result.Approved,
		RejectedCount:    &result.Rejected,
		SkippedCount:     &result.Skipped,
	}, completed)
	if err != nil {
		log.Printf("Error saving session counters: %v", err)
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
