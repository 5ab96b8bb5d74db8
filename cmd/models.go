package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pathweaver/pathweaver/internal/backend"
	"github.com/pathweaver/pathweaver/internal/config"
)

var modelsURL string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models on the configured ollama server",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := modelsURL
		if url == "" {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			url = cfg.Suggest.OllamaURL
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		models, err := backend.ListModels(ctx, url)
		if err != nil {
			return err
		}
		if len(models) == 0 {
			fmt.Println("No models found")
			return nil
		}
		for _, m := range models {
			fmt.Println(m)
		}
		return nil
	},
}

func init() {
	modelsCmd.Flags().StringVar(&modelsURL, "url", "", "Ollama server URL (overrides config)")
	rootCmd.AddCommand(modelsCmd)
}
