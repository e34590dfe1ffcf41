package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/wastetrack/ticketscan/internal/classify"
	"github.com/wastetrack/ticketscan/internal/engine"
	"github.com/wastetrack/ticketscan/internal/model"
)

var (
	outJSON          string
	providerName     string
	modelName        string
	sourceHint       string
	noDetect         bool
	noCache          bool
	classifyMaterial bool
	scanTimeout      time.Duration
	maxRetries       int
	confThreshold    float64
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <image>",
	Short: "Extract structured data from a single scale ticket photo",
	Long: `Scan runs the full extraction pipeline on one ticket image:
- Detect the ticket layout (or use --source to skip detection)
- Run the layout-specific extraction prompt plus a raw OCR pass
- Score every field and retry when overall confidence is too low
- Print the extracted record as JSON

Example:
  ticketscan scan ticket.jpg
  ticketscan scan ticket.jpg --source thermal --json ticket.json
  ticketscan scan ticket.jpg --provider openai --classify`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&outJSON, "json", "", "write result JSON to this path instead of stdout")
	scanCmd.Flags().StringVar(&providerName, "provider", "", "vision provider (anthropic, openai, ollama; default: first with credentials)")
	scanCmd.Flags().StringVar(&modelName, "model", "", "override the provider's default model")
	scanCmd.Flags().StringVar(&sourceHint, "source", "", "ticket layout hint (handwritten, thermal, generic); skips detection")
	scanCmd.Flags().BoolVar(&noDetect, "no-detect", false, "skip layout detection, use the generic extractor")
	scanCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the in-memory result cache")
	scanCmd.Flags().BoolVar(&classifyMaterial, "classify", false, "classify the extracted material description against the material taxonomy")
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 5*time.Minute, "overall extraction timeout")
	scanCmd.Flags().IntVar(&maxRetries, "max-retries", 3, "extraction attempts before giving up")
	scanCmd.Flags().Float64Var(&confThreshold, "confidence-threshold", 0.75, "minimum overall confidence accepted without retry")
}

func runScan(cmd *cobra.Command, args []string) error {
	imagePath := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	image, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
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

	if verbose {
		fmt.Fprintf(os.Stderr, "Scanning: %s\n", imagePath)
		fmt.Fprintf(os.Stderr, "Provider: %s\n", eng.Provider().Name())
		if hint != "" {
			fmt.Fprintf(os.Stderr, "Source hint: %s\n", hint)
		}
		fmt.Fprintln(os.Stderr)
	}

	req := engine.NewProcessRequest(image, mimeFromPath(imagePath))
	req.SourceHint = hint
	req.AutoDetect = !noDetect

	result, err := eng.Process(ctx, req)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Source: %s\n", result.Source)
		fmt.Fprintf(os.Stderr, "✓ Overall confidence: %.2f\n", result.OverallConfidence)
		if net, ok := result.NetWeightValue(); ok {
			fmt.Fprintf(os.Stderr, "✓ Net weight: %.0f\n", net)
		}
		for _, note := range result.ProcessingNotes {
			fmt.Fprintf(os.Stderr, "  note: %s\n", note)
		}
		fmt.Fprintln(os.Stderr)
	}

	if classifyMaterial {
		description := materialText(result)
		materialType, confidence := classify.Material(description)
		fmt.Fprintf(os.Stderr, "Material: %s (confidence %.2f)\n", materialType, confidence)
	}

	return writeResultJSON(result, outJSON)
}

// buildConfig assembles the engine configuration from defaults, environment
// and flags.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.Vision.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.Vision.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.Vision.OllamaBaseURL = os.Getenv("OLLAMA_BASE_URL")
	cfg.Vision.Model = modelName
	cfg.Output.Verbose = verbose

	if providerName != "" {
		cfg.Vision.DefaultProvider = providerName
		// An explicit provider must be usable, not silently substituted
		switch strings.ToLower(providerName) {
		case "openai":
			if cfg.Vision.OpenAIAPIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
			cfg.Vision.AnthropicAPIKey = ""
			cfg.Vision.OllamaBaseURL = ""
		case "anthropic", "claude":
			if cfg.Vision.AnthropicAPIKey == "" {
				return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
			}
			cfg.Vision.OpenAIAPIKey = ""
			cfg.Vision.OllamaBaseURL = ""
		case "ollama":
			if cfg.Vision.OllamaBaseURL == "" {
				cfg.Vision.OllamaBaseURL = "http://localhost:11434"
			}
			cfg.Vision.OpenAIAPIKey = ""
			cfg.Vision.AnthropicAPIKey = ""
		default:
			return nil, fmt.Errorf("unknown provider: %s (supported: anthropic, openai, ollama)", providerName)
		}
	}

	if maxRetries > 0 {
		cfg.Engine.MaxRetries = maxRetries
	}
	if confThreshold > 0 {
		cfg.Engine.ConfidenceThreshold = confThreshold
	}
	cfg.Cache.Enabled = !noCache

	return cfg, nil
}

// parseSourceHint maps the --source flag onto a ticket source
func parseSourceHint(s string) (model.TicketSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "handwritten":
		return model.SourceHandwritten, nil
	case "thermal":
		return model.SourceThermal, nil
	case "generic":
		return model.SourceGeneric, nil
	}
	return "", fmt.Errorf("unknown source %q (supported: handwritten, thermal, generic)", s)
}

// mimeFromPath guesses the image MIME type from the file extension
func mimeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

// materialText picks the best extracted text to classify: the detailed
// description when present, the bare type field otherwise.
func materialText(result *model.ExtractionResult) string {
	if result.MaterialDescription != nil {
		if s, ok := result.MaterialDescription.Value.(string); ok {
			return s
		}
	}
	if result.MaterialType != nil {
		if s, ok := result.MaterialType.Value.(string); ok {
			return s
		}
	}
	return ""
}

// writeResultJSON renders the result to a file or stdout
func writeResultJSON(result *model.ExtractionResult, path string) error {
	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	if path == "" {
		fmt.Println(string(body))
		return nil
	}

	if err := os.WriteFile(path, body, 0644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", path)
	}
	return nil
}
