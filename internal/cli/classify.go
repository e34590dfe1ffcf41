package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wastetrack/ticketscan/internal/classify"
)

var classifyJSON bool

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <description>...",
	Short: "Classify a material description against the material taxonomy",
	Long: `Classify maps a free-text material description onto the fixed material
taxonomy using keyword scoring. It runs locally and makes no network calls.

Example:
  ticketscan classify "mixed construction debris"
  ticketscan classify clean wood pallets --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "print the classification as JSON")
}

func runClassify(cmd *cobra.Command, args []string) error {
	description := strings.Join(args, " ")
	materialType, confidence := classify.Material(description)

	if classifyJSON {
		body, err := json.Marshal(map[string]any{
			"description":   description,
			"material_type": materialType,
			"confidence":    confidence,
		})
		if err != nil {
			return err
		}
		fmt.Println(string(body))
		return nil
	}

	fmt.Printf("%s (confidence %.2f)\n", materialType, confidence)
	return nil
}
