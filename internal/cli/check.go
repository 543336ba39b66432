package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scdesign/factcheck/internal/acquire"
	"github.com/scdesign/factcheck/internal/model"
	"github.com/scdesign/factcheck/internal/pipeline"
	"github.com/scdesign/factcheck/internal/task"
)

var (
	checkTimeout   time.Duration
	checkWebSearch bool
	checkLanguage  string
	checkOutJSON   string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <url-or-file>",
	Short: "Fact-check a single post or media file",
	Long: `Check runs the full verification pipeline once and prints the report:
download or read the media, transcribe or encode it, verify the claims,
and optionally augment them with live web search.

Example:
  factcheck check https://www.instagram.com/reel/ABC123/
  factcheck check ./clip.mp4 --web-search --json report.json
  factcheck check ./photo.jpg --lang de`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 5*time.Minute, "overall check timeout")
	checkCmd.Flags().BoolVar(&checkWebSearch, "web-search", false, "augment claims with live web search")
	checkCmd.Flags().StringVar(&checkLanguage, "lang", "", "preferred report language (ISO 639-1)")
	checkCmd.Flags().StringVar(&checkOutJSON, "json", "", "write the full result as JSON to this path")
}

func runCheck(cmd *cobra.Command, args []string) error {
	target := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	cfg, err := model.LoadConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := os.MkdirAll(cfg.Acquire.UploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	pipe := pipeline.New(cfg, task.NewTracker(task.NewMemoryStore(cfg.Tasks.Retention)))
	opts := pipeline.Options{
		APIKey:            cfg.OpenAIKey,
		UseWebSearch:      checkWebSearch,
		PreferredLanguage: checkLanguage,
	}

	artifact, err := resolveTarget(ctx, pipe, target)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking: %s (%s)\n", target, artifact.Kind)
	}

	result, err := pipe.Process(ctx, artifact, opts)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}

	printResult(result)

	if checkOutJSON != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		if err := os.WriteFile(checkOutJSON, data, 0o644); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Result written to %s\n", checkOutJSON)
	}
	return nil
}

// resolveTarget treats the argument as a local file when one exists at
// that path, otherwise as a post URL
func resolveTarget(ctx context.Context, pipe *pipeline.Pipeline, target string) (*acquire.MediaArtifact, error) {
	if _, err := os.Stat(target); err == nil {
		f, err := os.Open(target)
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		defer f.Close()
		return pipe.SaveUpload(target, f)
	}
	return pipe.AcquireURL(ctx, target)
}

func printResult(result *model.TaskResult) {
	report := result.Report

	fmt.Printf("Verdict: %s\n", report.Verdict)
	fmt.Printf("Conclusion: %s\n\n", report.Conclusion)

	if result.Transcription != "" {
		fmt.Printf("Transcription:\n%s\n\n", result.Transcription)
	}

	if len(report.Findings) > 0 {
		fmt.Println("Findings:")
		for i, f := range report.Findings {
			fmt.Printf("  %d. [%s] %s\n", i+1, f.Accuracy, f.Claim)
			if f.Explanation != "" {
				fmt.Printf("     %s\n", f.Explanation)
			}
		}
		fmt.Println()
	}

	if len(report.Sources) > 0 {
		fmt.Println("Sources:")
		for _, s := range report.Sources {
			if s.URL != "" {
				fmt.Printf("  - %s (%s)\n", s.Description, s.URL)
			} else {
				fmt.Printf("  - %s\n", s.Description)
			}
		}
		fmt.Println()
	}

	for _, sr := range result.SearchResults {
		fmt.Printf("Web search [%s]:\n", sr.Claim)
		if sr.Error != "" {
			fmt.Printf("  check failed: %s\n", sr.Error)
			continue
		}
		fmt.Printf("  %s\n", strings.TrimSpace(sr.Answer))
	}
}
