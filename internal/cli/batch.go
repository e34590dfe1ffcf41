package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/wastetrack/ticketscan/internal/engine"
	"github.com/wastetrack/ticketscan/internal/model"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	// sourceHint, providerName and friends are defined in scan.go and shared here
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir-or-image>...",
	Short: "Extract data from many ticket photos in parallel",
	Long: `Batch processes many ticket images concurrently:
- Collect images from the given files and directories
- Run the full extraction pipeline per image under a concurrency limit
- A failed image yields a zero-confidence record; it never aborts the batch
- Write one JSON record per image, named after the input file

Example:
  ticketscan batch ./tickets
  ticketscan batch ./tickets --concurrency 5 --output-dir ./records
  ticketscan batch a.jpg b.jpg --source thermal`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 3, "maximum simultaneous extractions")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./ticketscan-records", "output directory for JSON records")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&providerName, "provider", "", "vision provider (anthropic, openai, ollama)")
	batchCmd.Flags().StringVar(&modelName, "model", "", "override the provider's default model")
	batchCmd.Flags().StringVar(&sourceHint, "source", "", "ticket layout hint applied to every image")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the in-memory result cache")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	paths, err := collectImages(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no ticket images found in %s", strings.Join(args, ", "))
	}

	hint, err := parseSourceHint(sourceHint)
	if err != nil {
		return err
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  ticketscan Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Images:       %d\n", len(paths))
	fmt.Fprintf(os.Stderr, "  Provider:     %s\n", eng.Provider().Name())
	fmt.Fprintf(os.Stderr, "  Concurrency:  %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	items := make([]engine.BatchItem, 0, len(paths))
	for _, path := range paths {
		image, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read image %s: %w", path, err)
		}
		items = append(items, engine.BatchItem{Image: image, MIMEType: mimeFromPath(path)})
	}

	results := eng.ProcessBatch(ctx, items, hint, concurrency)

	okCount := 0
	lowCount := 0
	failCount := 0

	for i, result := range results {
		name := strings.TrimSuffix(filepath.Base(paths[i]), filepath.Ext(paths[i]))
		outPath := filepath.Join(outputDir, name+".json")

		body, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result for %s: %w", paths[i], err)
		}
		if err := os.WriteFile(outPath, body, 0644); err != nil {
			return fmt.Errorf("write %s: %w", outPath, err)
		}

		switch {
		case result.OverallConfidence == 0:
			failCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %s\n", paths[i], firstNote(result))
		case result.OverallConfidence < cfg.Engine.ConfidenceThreshold:
			lowCount++
			fmt.Fprintf(os.Stderr, "⚠ %s (confidence %.2f, needs review)\n", paths[i], result.OverallConfidence)
		default:
			okCount++
			fmt.Fprintf(os.Stderr, "✓ %s (confidence %.2f)\n", paths[i], result.OverallConfidence)
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:        %d images\n", len(results))
	fmt.Fprintf(os.Stderr, "  Accepted:     %d\n", okCount)
	fmt.Fprintf(os.Stderr, "  Needs review: %d\n", lowCount)
	fmt.Fprintf(os.Stderr, "  Failed:       %d\n", failCount)
	fmt.Fprintf(os.Stderr, "  Output:       %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// imageExtensions are the file types batch picks up from directories
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// collectImages expands the arguments into a sorted list of image paths
func collectImages(args []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}

		if !info.IsDir() {
			add(arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", arg, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
				add(filepath.Join(arg, entry.Name()))
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func firstNote(result *model.ExtractionResult) string {
	if len(result.ProcessingNotes) > 0 {
		return result.ProcessingNotes[0]
	}
	return "no data extracted"
}
