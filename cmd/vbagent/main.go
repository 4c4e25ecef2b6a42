package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vaibhavblayer/vbagent-sub000/internal/agents"
	"github.com/vaibhavblayer/vbagent-sub000/internal/batchdb"
	"github.com/vaibhavblayer/vbagent-sub000/internal/checker"
	"github.com/vaibhavblayer/vbagent-sub000/internal/config"
	"github.com/vaibhavblayer/vbagent-sub000/internal/diffutil"
	"github.com/vaibhavblayer/vbagent-sub000/internal/llm"
	"github.com/vaibhavblayer/vbagent-sub000/internal/pipeline"
	"github.com/vaibhavblayer/vbagent-sub000/internal/review"
	"github.com/vaibhavblayer/vbagent-sub000/internal/versiondb"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "vbagent",
	Short:   "Physics question bank agent",
	Long:    "vbagent turns physics exam question images into LaTeX question banks: classification, transcription, TikZ, variants, and reviewed suggestions.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// API keys may live in a local .env
		godotenv.Load()

		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.LoadOrDefault(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("vbagent", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/vbagent/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure the LLM provider, models, and variant types.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show batch and review status",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := batchdb.Open(".")
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.GetStats()
		if err != nil {
			return fmt.Errorf("getting batch stats: %w", err)
		}

		fmt.Println("Batch:")
		fmt.Printf("  Total images: %d\n", stats.Total)
		fmt.Printf("  Completed: %d\n", stats.Completed)
		fmt.Printf("  Failed: %d\n", stats.Failed)
		fmt.Printf("  Pending: %d\n", stats.Pending)
		fmt.Printf("  In progress: %d\n", stats.InProgress)

		vstore, err := versiondb.Open(".")
		if err != nil {
			return err
		}
		defer vstore.Close()

		rstats, err := vstore.GetStats(0)
		if err != nil {
			return fmt.Errorf("getting review stats: %w", err)
		}
		fmt.Println("\nReview:")
		fmt.Printf("  Problems reviewed: %d\n", rstats.TotalReviewed)
		fmt.Printf("  Suggestions: %d (%d approved, %d rejected, %d pending)\n",
			rstats.TotalSuggestions, rstats.ApprovedCount, rstats.RejectedCount, rstats.PendingCount)
		return nil
	},
}

// --- batch commands ---

var (
	batchOutput     string
	batchVariants   []string
	batchAlternates bool
	batchNoContext  bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Batch-process question images",
}

var batchInitCmd = &cobra.Command{
	Use:   "init [images-dir]",
	Short: "Register images and start processing",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		imagesDir := cfg.Batch.ImagesDir
		if len(args) > 0 {
			imagesDir = args[0]
		}

		store, err := batchdb.Open(".")
		if err != nil {
			return err
		}
		defer store.Close()

		variants := batchVariants
		if len(variants) == 0 {
			variants = cfg.Batch.VariantTypes
		}

		pipe := pipeline.New(store, newAgents())
		count, err := pipe.InitBatch(imagesDir, batchdb.Config{
			OutputDir:          batchOutput,
			VariantTypes:       variants,
			GenerateAlternates: batchAlternates || cfg.Batch.GenerateAlternates,
			UseContext:         !batchNoContext,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Registered %d images from %s\n", count, imagesDir)
		fmt.Printf("  Output: %s/\n", batchOutput)
		fmt.Printf("  Variants: %s\n", strings.Join(variants, ", "))

		result, err := pipe.Run(cmd.Context())
		if err != nil {
			return err
		}
		printBatchResult(result)
		return nil
	},
}

var batchContinueCmd = &cobra.Command{
	Use:   "continue",
	Short: "Resume processing pending images",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := batchdb.Open(".")
		if err != nil {
			return err
		}
		defer store.Close()
		return runBatch(cmd.Context(), store)
	},
}

func runBatch(ctx context.Context, store *batchdb.Store) error {
	pipe := pipeline.New(store, newAgents())
	result, err := pipe.Run(ctx)
	if err != nil {
		return err
	}
	printBatchResult(result)
	return nil
}

func printBatchResult(result *pipeline.Result) {
	fmt.Printf("\nBatch run: %d processed (%d completed, %d failed)\n",
		result.Processed, result.Completed, result.Failed)
	if result.Failed > 0 {
		fmt.Println("Retry failures with: vbagent batch reset-failed && vbagent batch continue")
	}
}

var batchStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show batch progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := batchdb.Open(".")
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.GetStats()
		if err != nil {
			return err
		}
		fmt.Printf("Total: %d\n", stats.Total)
		fmt.Printf("Completed: %d\n", stats.Completed)
		fmt.Printf("Failed: %d\n", stats.Failed)
		fmt.Printf("Pending: %d\n", stats.Pending)
		fmt.Printf("In progress: %d\n", stats.InProgress)

		if bcfg, _ := store.GetConfig(); bcfg != nil {
			fmt.Printf("\nImages dir: %s\n", bcfg.ImagesDir)
			fmt.Printf("Output dir: %s\n", bcfg.OutputDir)
			fmt.Printf("Variants: %s\n", strings.Join(bcfg.VariantTypes, ", "))
		}
		return nil
	},
}

var batchResetFailedCmd = &cobra.Command{
	Use:   "reset-failed",
	Short: "Reset failed images back to pending",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := batchdb.Open(".")
		if err != nil {
			return err
		}
		defer store.Close()

		count, err := store.ResetFailed()
		if err != nil {
			return err
		}
		fmt.Printf("Reset %d failed images to pending\n", count)
		return nil
	},
}

func init() {
	batchInitCmd.Flags().StringVarP(&batchOutput, "output", "o", "output", "Output directory")
	batchInitCmd.Flags().StringSliceVar(&batchVariants, "variants", nil, "Variant types to generate")
	batchInitCmd.Flags().BoolVar(&batchAlternates, "alternates", false, "Generate alternate solutions")
	batchInitCmd.Flags().BoolVar(&batchNoContext, "no-context", false, "Disable context hints for variant generation")

	batchCmd.AddCommand(batchInitCmd)
	batchCmd.AddCommand(batchContinueCmd)
	batchCmd.AddCommand(batchStatsCmd)
	batchCmd.AddCommand(batchResetFailedCmd)
}

// --- review commands ---

var (
	reviewLimit         int
	reviewReset         bool
	reviewAuto          bool
	reviewMinConfidence float64
)

var reviewCmd = &cobra.Command{
	Use:   "review [output-dir]",
	Short: "Review generated problems interactively",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputDir := cfg.GetOutputDir()
		if len(args) > 0 {
			outputDir = args[0]
		}

		store, err := versiondb.Open(".")
		if err != nil {
			return err
		}
		defer store.Close()

		minConfidence := reviewMinConfidence
		if minConfidence == 0 {
			minConfidence = cfg.Review.MinConfidence
		}

		r := review.New(store, newAgents(), os.Stdin, os.Stdout)
		_, err = r.Run(cmd.Context(), review.Options{
			OutputDir:     outputDir,
			Limit:         reviewLimit,
			Reset:         reviewReset,
			Auto:          reviewAuto,
			MinConfidence: minConfidence,
		})
		return err
	},
}

var reviewSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List incomplete review sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := versiondb.Open(".")
		if err != nil {
			return err
		}
		defer store.Close()

		sessions, err := store.GetIncompleteSessions()
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No incomplete sessions.")
			return nil
		}

		fmt.Println("Incomplete sessions:")
		for _, sess := range sessions {
			started := ""
			if sess.StartedAt != nil {
				started = *sess.StartedAt
			}
			dir := ""
			if sess.OutputDir != nil {
				dir = *sess.OutputDir
			}
			fmt.Printf("  %s  started %s  dir=%s  reviewed=%d  remaining=%d\n",
				sess.ID, started, dir, sess.ProblemsReviewed, len(sess.RemainingProblems))
		}
		return nil
	},
}

func init() {
	reviewCmd.Flags().IntVar(&reviewLimit, "limit", 0, "Maximum problems to review this run")
	reviewCmd.Flags().BoolVar(&reviewReset, "reset", false, "Reset review state for the directory")
	reviewCmd.Flags().BoolVar(&reviewAuto, "auto", false, "Apply suggestions automatically above the confidence threshold")
	reviewCmd.Flags().Float64Var(&reviewMinConfidence, "min-confidence", 0, "Confidence threshold for --auto")

	reviewCmd.AddCommand(reviewSessionsCmd)
}

// --- check commands ---

var checkCmd = &cobra.Command{
	Use:   "check [type] [output-dir]",
	Short: "Run a batch checker (solution, grammar, clarity, tikz)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		checkerType := args[0]
		outputDir := cfg.GetOutputDir()
		if len(args) > 1 {
			outputDir = args[1]
		}

		store, err := versiondb.Open(".")
		if err != nil {
			return err
		}
		defer store.Close()

		c := checker.New(store, newAgents())
		result, err := c.Run(cmd.Context(), checkerType, outputDir)
		if err != nil {
			return err
		}

		fmt.Printf("Checked %d files (%d passed, %d failed, %d skipped)\n",
			result.Checked, result.Passed, result.Failed, result.Skipped)
		if result.Suggestions > 0 {
			fmt.Printf("%d suggestions saved; inspect them with: vbagent versions list\n", result.Suggestions)
		}
		return nil
	},
}

var checkResetCmd = &cobra.Command{
	Use:   "reset [type] [output-dir]",
	Short: "Reset a checker's progress so files get re-checked",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		checkerType := args[0]
		outputDir := cfg.GetOutputDir()
		if len(args) > 1 {
			outputDir = args[1]
		}

		store, err := versiondb.Open(".")
		if err != nil {
			return err
		}
		defer store.Close()

		count, err := checker.New(store, nil).Reset(checkerType, outputDir)
		if err != nil {
			return err
		}
		fmt.Printf("Cleared %d progress entries for %s checker\n", count, checkerType)
		return nil
	},
}

func init() {
	checkCmd.AddCommand(checkResetCmd)
}

// --- versions commands ---

var (
	versionsProblem string
	versionsFile    string
	versionsDays    int
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Inspect and apply stored suggestions",
}

var versionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored suggestions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := versiondb.Open(".")
		if err != nil {
			return err
		}
		defer store.Close()

		var problemID, filePath *string
		if versionsProblem != "" {
			problemID = &versionsProblem
		}
		if versionsFile != "" {
			filePath = &versionsFile
		}

		suggestions, err := store.GetVersions(problemID, filePath)
		if err != nil {
			return err
		}
		if len(suggestions) == 0 {
			fmt.Println("No stored suggestions.")
			return nil
		}

		for _, sug := range suggestions {
			created := ""
			if sug.CreatedAt != nil {
				created = *sug.CreatedAt
			}
			fmt.Printf("[%d] v%d %s %s (%s, %.2f) %s\n",
				sug.ID, sug.Version, sug.ProblemID, sug.FilePath, sug.IssueType, sug.Confidence, sug.Status)
			fmt.Printf("      %s  %s\n", created, sug.Description)
		}
		return nil
	},
}

var versionsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a suggestion's full detail and diff",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid suggestion ID: %s", args[0])
		}

		store, err := versiondb.Open(".")
		if err != nil {
			return err
		}
		defer store.Close()

		sug, err := store.GetSuggestion(id)
		if err != nil {
			return err
		}
		if sug == nil {
			return fmt.Errorf("suggestion %d not found", id)
		}

		fmt.Printf("Suggestion [%d] v%d  %s\n", sug.ID, sug.Version, sug.Status)
		fmt.Printf("Problem: %s\n", sug.ProblemID)
		fmt.Printf("File: %s\n", sug.FilePath)
		fmt.Printf("Issue: %s (confidence %.2f)\n", sug.IssueType, sug.Confidence)
		fmt.Printf("Description: %s\n", sug.Description)
		if sug.Reasoning != "" {
			fmt.Printf("Reasoning: %s\n", sug.Reasoning)
		}
		fmt.Println("\nDiff:")
		fmt.Println(sug.Diff)
		return nil
	},
}

var versionsApplyCmd = &cobra.Command{
	Use:   "apply [id]",
	Short: "Apply a stored suggestion's diff to its file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid suggestion ID: %s", args[0])
		}

		store, err := versiondb.Open(".")
		if err != nil {
			return err
		}
		defer store.Close()

		sug, err := store.GetSuggestion(id)
		if err != nil {
			return err
		}
		if sug == nil {
			return fmt.Errorf("suggestion %d not found", id)
		}

		result := diffutil.Apply(sug.FilePath, sug.Diff)
		if !result.Success {
			return fmt.Errorf("could not apply suggestion %d: %s", id, result.ErrorMessage)
		}

		if err := store.UpdateStatus(id, versiondb.SuggestionApproved); err != nil {
			return err
		}
		fmt.Printf("Applied suggestion [%d] to %s\n", id, sug.FilePath)
		return nil
	},
}

var versionsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show review statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := versiondb.Open(".")
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.GetStats(versionsDays)
		if err != nil {
			return err
		}

		window := "all time"
		if versionsDays > 0 {
			window = fmt.Sprintf("last %d days", versionsDays)
		}
		fmt.Printf("Review stats (%s):\n", window)
		fmt.Printf("  Problems reviewed: %d\n", stats.TotalReviewed)
		fmt.Printf("  Suggestions: %d\n", stats.TotalSuggestions)
		fmt.Printf("  Approved: %d\n", stats.ApprovedCount)
		fmt.Printf("  Rejected: %d\n", stats.RejectedCount)
		fmt.Printf("  Pending: %d\n", stats.PendingCount)
		fmt.Printf("  Skipped: %d\n", stats.SkippedCount)
		fmt.Printf("  Approval rate: %.0f%%\n", stats.ApprovalRate*100)

		if len(stats.IssuesByType) > 0 {
			fmt.Println("\nIssues by type:")
			types := make([]string, 0, len(stats.IssuesByType))
			for issue := range stats.IssuesByType {
				types = append(types, issue)
			}
			sort.Slice(types, func(i, j int) bool {
				return stats.IssuesByType[types[i]] > stats.IssuesByType[types[j]]
			})
			for _, issue := range types {
				fmt.Printf("  %s: %d\n", issue, stats.IssuesByType[issue])
			}
		}
		return nil
	},
}

func init() {
	versionsListCmd.Flags().StringVar(&versionsProblem, "problem", "", "Filter by problem ID")
	versionsListCmd.Flags().StringVar(&versionsFile, "file", "", "Filter by file path")
	versionsStatsCmd.Flags().IntVar(&versionsDays, "days", 0, "Limit stats to the last N days")

	versionsCmd.AddCommand(versionsListCmd)
	versionsCmd.AddCommand(versionsShowCmd)
	versionsCmd.AddCommand(versionsApplyCmd)
	versionsCmd.AddCommand(versionsStatsCmd)
}

func newAgents() *agents.Agents {
	l := cfg.LLM
	provider := llm.CreateProvider(
		l.Provider, l.Model, l.VisionModel, l.OllamaURL,
		l.OpenAIModel, l.OpenAIKeyEnv, l.GeminiModel, l.GeminiKeyEnv,
	)
	return agents.New(provider, l.MaxTokens)
}
