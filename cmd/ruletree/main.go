package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ruletree/adapters/oracle"
	"ruletree/adapters/tabular"
	"ruletree/ai"
	"ruletree/app"
	"ruletree/domain/core"
	"ruletree/domain/dataset"
	"ruletree/domain/tree"
	"ruletree/internal/config"
	"ruletree/internal/profiling"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Populate the environment from .env when present
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "ruletree",
		Short: "Extract, merge and apply outlier rules for truck telemetry",
	}

	rootCmd.AddCommand(
		newExtractCmd(),
		newMergeCmd(),
		newApplyCmd(),
		newProfileCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newExtractCmd() *cobra.Command {
	var algorithm string
	var dataFile string
	var output string

	cmd := &cobra.Command{
		Use:   "extract [tree-file]",
		Short: "Extract decision rules from a trained tree dump",
		Long: `Extract IF ... THEN OUTLIER/INLIER rules from the textual dump of a
trained decision tree.

The --algorithm flag names the trainer that produced the dump: FIGS,
OptimalTree or GreedyTree. The indent dialects reference columns as
feature_<i> placeholders; pass the training dataset with --data to
substitute real column names.

Example: ruletree extract figs_tree.txt --algorithm FIGS`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(args[0], algorithm, dataFile, output)
		},
	}

	cmd.Flags().StringVar(&algorithm, "algorithm", string(tree.AlgorithmFIGS), "Trainer that produced the dump: FIGS|OptimalTree|GreedyTree")
	cmd.Flags().StringVar(&dataFile, "data", "", "Training dataset (.csv/.json/.xlsx) supplying column names for feature placeholders")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write extracted rules to a JSON file")
	return cmd
}

func runExtract(treeFile, algorithm, dataFile, output string) error {
	raw, err := os.ReadFile(treeFile)
	if err != nil {
		return fmt.Errorf("failed to read tree file: %w", err)
	}

	var columns []string
	if dataFile != "" {
		frame, err := tabular.NewReader().ReadFrame(dataFile)
		if err != nil {
			return fmt.Errorf("failed to read dataset: %w", err)
		}
		columns = frame.Columns()
	}

	result, err := app.NewRelabelService(nil).ExtractRules(app.ExtractRequest{
		Algorithm: tree.Algorithm(algorithm),
		TreeText:  strings.TrimSpace(string(raw)),
		Columns:   columns,
	})
	if err != nil {
		return err
	}

	fmt.Printf("🌳 Extracted %d rules from %s dump in %dms\n\n", len(result.Rules), algorithm, result.RuntimeMs)
	for i, text := range result.Rules.Texts() {
		fmt.Printf("%d. %s\n", i+1, text)
	}
	printDiagnostics(result.Diagnostics)

	if output != "" {
		payload := map[string]interface{}{
			"algorithm":   algorithm,
			"rules":       result.Rules.Texts(),
			"diagnostics": result.Diagnostics,
			"runtime_ms":  result.RuntimeMs,
		}
		if err := writeJSON(output, payload); err != nil {
			return err
		}
		fmt.Printf("\n💾 Rules saved to: %s\n", output)
	}
	return nil
}

func newMergeCmd() *cobra.Command {
	var taskFile string
	var output string

	cmd := &cobra.Command{
		Use:   "merge [rules-file...]",
		Short: "Merge rule sets into one contradiction-free set",
		Long: `Merge two or more rule set files (JSON arrays of rule strings) into a
single set with no disjunctions, no INLIER verdicts and no contradictions.

The merge asks an OpenAI model to combine the sets and repairs its output
until it validates or the repair budget is spent. Configuration is read
from the environment:
- OPENAI_API_KEY (required)
- LLM_MODEL (default: gpt-4o-mini)
- MAX_TOKENS, TEMPERATURE, MAX_REPAIR_ITERATIONS

Example: ruletree merge figs_rules.json optimal_rules.json -o merged.json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd.Context(), args, taskFile, output)
		},
	}

	cmd.Flags().StringVar(&taskFile, "task", "", "YAML task file overriding the built-in merge task")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write merged rules and audit to a JSON file")
	return cmd
}

func runMerge(ctx context.Context, ruleFiles []string, taskFile, output string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Oracle.Validate(); err != nil {
		return err
	}

	ruleSets := make([][]string, 0, len(ruleFiles))
	for _, path := range ruleFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read rules file: %w", err)
		}
		var set []string
		if err := json.Unmarshal(data, &set); err != nil {
			return fmt.Errorf("failed to parse %s as a JSON rule list: %w", path, err)
		}
		ruleSets = append(ruleSets, set)
	}

	var task *ai.TaskSpec
	if taskFile != "" {
		task, err = ai.LoadTaskSpec(taskFile)
		if err != nil {
			return err
		}
	}

	client, err := oracle.NewClient(oracle.Config{
		APIKey:      cfg.Oracle.APIKey,
		BaseURL:     cfg.Oracle.BaseURL,
		Temperature: cfg.Oracle.Temperature,
		Timeout:     cfg.Oracle.Timeout,
	})
	if err != nil {
		return err
	}

	fmt.Printf("🔁 Merging %d rule sets with %s...\n", len(ruleSets), cfg.Oracle.Model)
	result := app.NewMergeService(client, cfg, nil).Merge(ctx, app.MergeRequest{RuleSets: ruleSets, Task: task})

	fmt.Printf("\n📊 MERGE RESULTS\n")
	fmt.Printf("Status: %s\n", result.Audit.Status)
	fmt.Printf("Iterations: %d\n", result.Audit.Iterations)
	fmt.Printf("Runtime: %dms\n", result.RuntimeMs)
	fmt.Printf("Run ID: %s\n", result.Audit.RunID)

	if len(result.Rules) > 0 {
		fmt.Printf("\n✅ MERGED RULES:\n")
		for i, rule := range result.Rules {
			fmt.Printf("%d. %s\n", i+1, rule)
		}
	}
	if len(result.Audit.Errors) > 0 {
		fmt.Printf("\n❌ Unresolved issues:\n")
		for _, msg := range result.Audit.Errors {
			fmt.Printf("• %s\n", msg)
		}
	}

	if output != "" {
		payload := map[string]interface{}{
			"rules": result.Rules,
			"audit": map[string]interface{}{
				"run_id":        result.Audit.RunID,
				"started_at":    result.Audit.StartedAt,
				"model":         result.Audit.Model,
				"temperature":   result.Audit.Temperature,
				"max_tokens":    result.Audit.MaxTokens,
				"prompt_hash":   result.Audit.PromptHash,
				"response_hash": result.Audit.ResponseHash,
				"iterations":    result.Audit.Iterations,
				"status":        result.Audit.Status,
				"errors":        result.Audit.Errors,
			},
			"runtime_ms": result.RuntimeMs,
		}
		if err := writeJSON(output, payload); err != nil {
			return err
		}
		fmt.Printf("\n💾 Merge result saved to: %s\n", output)
	}

	if result.Audit.Status == app.MergeStatusFailed {
		return fmt.Errorf("merge failed: %s", strings.Join(result.Audit.Errors, "; "))
	}
	return nil
}

func newApplyCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "apply [rules-file] [data-file...]",
		Short: "Apply rules to datasets and relabel them",
		Long: `Apply a merged rule set to one or more telemetry datasets. Per dataset,
rows with missing values are dropped, every row matching any rule is
flagged as an outlier and the flag is converted to -1/+1 training labels.
Several datasets are relabeled concurrently.

With a single dataset, --output names the labeled CSV; with several,
each dataset is written next to its input as <name>_labeled.csv.

Example: ruletree apply merged_rules.json telemetry.xlsx -o labeled.csv`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd.Context(), args[0], args[1:], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Labeled CSV path (single dataset only)")
	return cmd
}

func runApply(ctx context.Context, rulesFile string, dataFiles []string, output string) error {
	if output != "" && len(dataFiles) > 1 {
		return fmt.Errorf("--output takes a single dataset; got %d", len(dataFiles))
	}

	data, err := os.ReadFile(rulesFile)
	if err != nil {
		return fmt.Errorf("failed to read rules file: %w", err)
	}
	var ruleTexts []string
	if err := json.Unmarshal(data, &ruleTexts); err != nil {
		return fmt.Errorf("failed to parse %s as a JSON rule list: %w", rulesFile, err)
	}

	reader := tabular.NewReader()
	frames := make(map[string]*dataset.Frame, len(dataFiles))
	for _, path := range dataFiles {
		frame, err := reader.ReadFrame(path)
		if err != nil {
			return fmt.Errorf("failed to read dataset: %w", err)
		}
		frames[path] = frame
	}

	batch, err := app.NewRelabelService(nil).ApplyBatch(ctx, app.BatchApplyRequest{
		Rules:  ruleTexts,
		Frames: frames,
	})
	if err != nil {
		return err
	}

	fmt.Printf("📊 APPLY RESULTS (%d rules, %d datasets)\n", len(ruleTexts), len(dataFiles))
	writer := tabular.NewWriter()
	for _, path := range dataFiles {
		result := batch.Results[path]
		fmt.Printf("\n• %s\n", path)
		fmt.Printf("  Rules applied: %d of %d\n", result.Applied, len(ruleTexts))
		fmt.Printf("  Rows flagged: %d of %d\n", result.RowsFlagged, result.Frame.Rows())
		fmt.Printf("  Rows dropped (missing values): %d\n", result.RowsDropped)
		printDiagnostics(result.Diagnostics)

		target := output
		if target == "" {
			target = strings.TrimSuffix(path, filepath.Ext(path)) + "_labeled.csv"
		}
		if err := writer.WriteCSV(result.Frame, target); err != nil {
			return fmt.Errorf("failed to write labeled dataset: %w", err)
		}
		fmt.Printf("  💾 Labeled dataset saved to: %s\n", target)
	}
	fmt.Printf("\nRuntime: %dms\n", batch.RuntimeMs)
	return nil
}

func newProfileCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "profile [data-file]",
		Short: "Profile the distribution of every dataset column",
		Long: `Compute distribution statistics for every column of a dataset:
moments, quartiles, IQR outlier counts and a normality verdict.

Example: ruletree profile telemetry.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfile(args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write column profiles to a JSON file")
	return cmd
}

func runProfile(dataFile, output string) error {
	frame, err := tabular.NewReader().ReadFrame(dataFile)
	if err != nil {
		return fmt.Errorf("failed to read dataset: %w", err)
	}

	profiles, err := profiling.ProfileFrame(frame)
	if err != nil {
		return err
	}

	fmt.Printf("📈 COLUMN PROFILES (%d columns, %d rows)\n", len(profiles), frame.Rows())
	for _, p := range profiles {
		fmt.Printf("\n• %s\n", p.Column)
		fmt.Printf("  mean %.3f, std %.3f, min %.3f, max %.3f\n", p.Mean, p.StdDev, p.Min, p.Max)
		fmt.Printf("  quartiles %.3f / %.3f / %.3f\n", p.Q25, p.Median, p.Q75)
		fmt.Printf("  missing %d, IQR outliers %d, noise %.2f\n", p.Missing, p.Outliers, p.Noise)
		if p.IsNormal {
			fmt.Printf("  looks normal (p=%.3f)\n", p.NormalP)
		} else {
			fmt.Printf("  not normal (p=%.3f, skew %.2f, kurtosis %.2f)\n", p.NormalP, p.Skewness, p.Kurtosis)
		}
	}

	if output != "" {
		if err := writeJSON(output, profiles); err != nil {
			return err
		}
		fmt.Printf("\n💾 Profiles saved to: %s\n", output)
	}
	return nil
}

func printDiagnostics(diags []core.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	fmt.Printf("\n⚠️  Skipped input:\n")
	for _, d := range diags {
		fmt.Printf("• %s\n", d.Message)
	}
}

func writeJSON(path string, payload interface{}) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
