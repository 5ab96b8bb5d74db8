package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pathweaver/pathweaver/internal/config"
	"github.com/pathweaver/pathweaver/internal/persist"
	"github.com/pathweaver/pathweaver/internal/profile"
	"github.com/pathweaver/pathweaver/internal/prompt"
	"github.com/pathweaver/pathweaver/internal/story"
	"github.com/pathweaver/pathweaver/internal/suggest"
)

var (
	suggestCategory string
	suggestCount    int
	suggestMode     string
	suggestDirs     []string
	suggestJSON     bool
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <state.json>",
	Short: "Generate suggestions for a host-state JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var state story.State
		if err := json.Unmarshal(data, &state); err != nil {
			return fmt.Errorf("invalid state file: %w", err)
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		settings := cfg.Suggest.Normalize()
		if suggestCount > 0 {
			settings.SuggestionsCount = suggestCount
		}

		profiles, err := profile.LoadRegistry(config.ProfilesPath())
		if err != nil {
			return err
		}

		// The store is optional here; without it only builtin templates
		// resolve.
		var templates *prompt.Templates
		if store, err := persist.NewStore(config.StorePath()); err == nil {
			defer store.Close()
			templates = prompt.NewTemplates(store)
		} else {
			templates = prompt.NewTemplates(nil)
		}

		engine := suggest.NewEngine(settings, templates, profiles, nil)
		result, err := engine.Generate(context.Background(), suggest.Request{
			State:      &state,
			Category:   suggestCategory,
			Mode:       suggestMode,
			Directions: suggestDirs,
		})
		if err != nil {
			return err
		}

		if suggestJSON {
			return json.NewEncoder(os.Stdout).Encode(result)
		}

		switch result.Status {
		case suggest.StatusSuccess:
			for _, s := range result.Suggestions {
				fmt.Printf("%s %s\n   %s\n", s.Emoji, s.Title, s.Description)
			}
			return nil
		case suggest.StatusEmpty:
			fmt.Println(result.Reason)
			return nil
		default:
			return fmt.Errorf("generation %s: %s", result.Status, result.Reason)
		}
	},
}

func init() {
	suggestCmd.Flags().StringVar(&suggestCategory, "category", "context", "Suggestion category")
	suggestCmd.Flags().IntVar(&suggestCount, "count", 0, "Number of suggestions (overrides config)")
	suggestCmd.Flags().StringVar(&suggestMode, "mode", prompt.ModeSingleScene, "Director mode: single_scene or story_beats")
	suggestCmd.Flags().StringSliceVar(&suggestDirs, "direction", nil, "User direction for the director category (repeatable)")
	suggestCmd.Flags().BoolVar(&suggestJSON, "json", false, "Print the raw result as JSON")
	rootCmd.AddCommand(suggestCmd)
}
