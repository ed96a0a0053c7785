package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/rtg123uk/storyai/internal/app"
	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/rtg123uk/storyai/internal/session"
	"github.com/rtg123uk/storyai/internal/story"
)

var (
	genParams   storyFlags
	interactive bool
	userID      string
)

// storyFlags are the story parameter flags shared by generate and page.
type storyFlags struct {
	childName string
	ageGroup  string
	theme     string
	pages     int
	style     string
	friends   []string
}

func (f *storyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.childName, "child", "", "Child's name (required)")
	cmd.Flags().StringVar(&f.ageGroup, "age", "7-9", "Age group (4-6, 7-9, 10-12)")
	cmd.Flags().StringVar(&f.theme, "theme", "", "Story theme (required)")
	cmd.Flags().IntVar(&f.pages, "pages", int(domain.DefaultStoryLength), "Number of pages")
	cmd.Flags().StringVar(&f.style, "style", domain.StyleWarm, "Narration style")
	cmd.Flags().StringSliceVar(&f.friends, "friend", nil, "Friend to include (repeatable)")
	_ = cmd.MarkFlagRequired("child")
	_ = cmd.MarkFlagRequired("theme")
}

func (f *storyFlags) params() domain.StoryParameters {
	return domain.StoryParameters{
		ChildName:      f.childName,
		AgeGroup:       f.ageGroup,
		Theme:          f.theme,
		StoryLength:    domain.StoryLength(f.pages),
		NarrationStyle: f.style,
		IncludeFriends: len(f.friends) > 0,
		FriendNames:    f.friends,
	}
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a story",
	Long: `Generate a whole story in one pass, or page by page with --interactive.

Examples:
  storyctl generate --child Ava --theme pirates --pages 5
  storyctl generate --child Leo --theme space --interactive`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	genParams.register(generateCmd)
	generateCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Choose what happens after every page")
	generateCmd.Flags().StringVar(&userID, "user", "storyctl", "Owner recorded for saved stories")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, app.Options{}, log)
	if err != nil {
		return err
	}
	defer a.Close()

	sess := session.New()
	sess.SignIn(session.User{ID: userID})
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	if interactive {
		return playInteractive(ctx, a, sess, genParams.params(), cmd.InOrStdin(), out)
	}

	var mu sync.Mutex
	st, err := a.Service.Generate(ctx, sess, genParams.params(), func(p story.Progress) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(errOut, progressLine(p))
	})
	if err != nil {
		return err
	}
	fmt.Fprint(out, renderMarkdown(storyMarkdown(st)))
	fmt.Fprintln(out, successStyle.Render("Saved as "+st.ID))
	return nil
}

// playInteractive shows each page and reads the next choice from in until
// the story is complete or in is exhausted.
func playInteractive(ctx context.Context, a *app.App, sess *session.Session, params domain.StoryParameters, in io.Reader, out io.Writer) error {
	st, err := a.Service.Initialize(ctx, sess, params)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, titleStyle.Render(st.Title))

	scanner := bufio.NewScanner(in)
	for {
		last, _ := st.LastPage()
		fmt.Fprint(out, renderMarkdown(pageMarkdown(*last)))
		if st.Complete() {
			fmt.Fprintln(out, successStyle.Render("The End."))
			return nil
		}

		idx, ok := readChoice(scanner, out, len(last.Choices))
		if !ok {
			fmt.Fprintln(out, progressStyle.Render("Stopped. Continue later with story "+st.ID))
			return scanner.Err()
		}
		st, err = a.Service.Continue(ctx, sess, st.ID, idx)
		if err != nil {
			return err
		}
	}
}

// readChoice prompts until a number between 1 and n is entered. It returns
// the zero-based index, or false at end of input.
func readChoice(scanner *bufio.Scanner, out io.Writer, n int) (int, bool) {
	for {
		fmt.Fprint(out, choiceStyle.Render(fmt.Sprintf("Your choice [1-%d]: ", n)))
		if !scanner.Scan() {
			return 0, false
		}
		v, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err == nil && v >= 1 && v <= n {
			return v - 1, true
		}
		fmt.Fprintln(out, errorStyle.Render("Please enter a number between 1 and "+strconv.Itoa(n)))
	}
}
