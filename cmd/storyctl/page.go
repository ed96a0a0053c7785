package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtg123uk/storyai/internal/app"
	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/rtg123uk/storyai/internal/story"
)

var (
	pageParams storyFlags
	pageNumber int
	choiceText string
	showPhase  bool
)

var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "Generate a single story page",
	Long: `Generate one page for the given position in a story. Useful for
checking how the prompt changes between story phases.

Example:
  storyctl page --child Ava --theme dragons --pages 10 --page 9 --choice "Open the door"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		params, err := pageParams.params().Validate()
		if err != nil {
			return err
		}
		total := int(params.StoryLength)
		if pageNumber < 0 || pageNumber > total {
			return fmt.Errorf("%w: --page must be between 0 and %d", domain.ErrInvalidParameters, total)
		}

		a, err := app.New(ctx, cfg, app.Options{}, log)
		if err != nil {
			return err
		}
		defer a.Close()

		req := story.PageRequest{Params: params, CurrentPage: pageNumber, TotalPages: total}
		if choiceText != "" {
			req.ChoiceMade = &domain.Choice{Text: choiceText, NextPage: domain.UnresolvedPage}
		}
		if showPhase {
			fmt.Fprintln(cmd.ErrOrStderr(), progressStyle.Render("Phase: "+string(story.ClassifyPhase(pageNumber, total))))
		}

		content, err := a.Orchestrator.GenerateStoryPage(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), renderMarkdown(pageMarkdown(domain.Page{
			PageNumber: pageNumber,
			Title:      content.Title,
			Content:    content.Content,
			Choices:    content.Choices,
		})))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pageCmd)
	pageParams.register(pageCmd)
	pageCmd.Flags().IntVar(&pageNumber, "page", 0, "Current page number")
	pageCmd.Flags().StringVar(&choiceText, "choice", "", "Choice made on the previous page")
	pageCmd.Flags().BoolVar(&showPhase, "phase", false, "Print the story phase for the page")
}
