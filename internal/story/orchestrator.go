package story

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rtg123uk/storyai/internal/ai"
	"github.com/rtg123uk/storyai/internal/domain"
)

// Generation settings shared by both modes.
const (
	DefaultTemperature      float32 = 0.8
	PageMaxTokens                   = 1000
	DefaultAssetConcurrency         = 4
)

const (
	modeIncremental = "incremental"
	modeEager       = "eager"
)

// ChoicePolicy decides what eager pages without a choice section get.
type ChoicePolicy int

const (
	// ChoicePolicyPreserve keeps their choice list empty.
	ChoicePolicyPreserve ChoicePolicy = iota
	// ChoicePolicyPad completes them like incremental pages: defaults when
	// empty, filler up to three.
	ChoicePolicyPad
)

// ParseChoicePolicy maps "preserve" and "pad" to a policy.
func ParseChoicePolicy(s string) (ChoicePolicy, error) {
	switch s {
	case "", "preserve":
		return ChoicePolicyPreserve, nil
	case "pad":
		return ChoicePolicyPad, nil
	default:
		return ChoicePolicyPreserve, fmt.Errorf("unknown choice policy %q", s)
	}
}

// Illustrator returns an image URL for a scene, or nil.
type Illustrator interface {
	Illustrate(ctx context.Context, prompt string) *string
}

// Narrator returns audio for a page, or nil.
type Narrator interface {
	Narrate(ctx context.Context, req domain.NarrationRequest) []byte
}

// Deps are the orchestrator's collaborators. Only Text is required.
type Deps struct {
	Text     ai.TextGenerator
	Images   Illustrator
	Narrator Narrator
	Titles   *TitleDeduplicator
	Rand     *rand.Rand
	Clock    func() time.Time
	Logger   *zap.Logger
	Progress ProgressFunc
}

// Options tune generation.
type Options struct {
	AssetConcurrency int
	ChoicePolicy     ChoicePolicy
}

// Orchestrator assembles stories from the text, image and speech
// generators. It is safe for concurrent use.
type Orchestrator struct {
	deps   Deps
	opts   Options
	randMu *sync.Mutex
	logger *zap.Logger
}

func NewOrchestrator(deps Deps, opts Options) *Orchestrator {
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.AssetConcurrency < 1 {
		opts.AssetConcurrency = DefaultAssetConcurrency
	}
	return &Orchestrator{
		deps:   deps,
		opts:   opts,
		randMu: &sync.Mutex{},
		logger: deps.Logger.Named("Orchestrator"),
	}
}

// WithProgress returns a copy of o reporting to fn. The copy shares the
// random source and collaborators.
func (o *Orchestrator) WithProgress(fn ProgressFunc) *Orchestrator {
	cp := *o
	cp.deps.Progress = fn
	return &cp
}

func (o *Orchestrator) emit(p Progress) {
	if o.deps.Progress != nil {
		o.deps.Progress(p)
	}
}

func (o *Orchestrator) sampleVariety() Variety {
	o.randMu.Lock()
	defer o.randMu.Unlock()
	return SampleVariety(o.deps.Rand)
}

// PageRequest is the context for generating one page.
type PageRequest struct {
	Params        domain.StoryParameters
	ChoiceMade    *domain.Choice
	CurrentPage   int
	TotalPages    int
	PreviousPages []domain.Page
}

// GenerateStoryPage produces one page. Text generation errors are
// returned as is, without retries. At the resolution phase the page gets
// a single "The End" choice.
func (o *Orchestrator) GenerateStoryPage(ctx context.Context, req PageRequest) (PageContent, error) {
	phase := ClassifyPhase(req.CurrentPage, req.TotalPages)
	in := PageInputFromParams(req.Params)
	in.ChoiceMade = req.ChoiceMade
	in.CurrentPage = req.CurrentPage
	in.TotalPages = req.TotalPages
	in.PreviousPages = req.PreviousPages

	log := o.logger.With(zap.Int("currentPage", req.CurrentPage), zap.Int("totalPages", req.TotalPages), zap.String("phase", string(phase)))
	log.Debug("Generating story page")

	raw, err := o.deps.Text.Generate(ctx, ai.Request{
		System:      PageSystemPrompt,
		User:        BuildPagePrompt(in),
		Temperature: DefaultTemperature,
		MaxTokens:   PageMaxTokens,
	})
	if err != nil {
		log.Error("Page text generation failed", zap.Error(err))
		return PageContent{}, fmt.Errorf("generate page text: %w", err)
	}

	page := ParsePageContent(raw)
	if phase == PhaseResolution {
		page.Choices = []domain.Choice{{Text: "The End", Description: "Finish the story", NextPage: domain.UnresolvedPage}}
	}
	metricsPageGenerated(modeIncremental, phase)
	return page, nil
}

// InitializeStory starts an incremental story with its first page.
func (o *Orchestrator) InitializeStory(ctx context.Context, params domain.StoryParameters) (story *domain.Story, err error) {
	defer func() { metricsStoryGenerated(modeIncremental, err) }()

	params, err = params.Validate()
	if err != nil {
		return nil, err
	}
	params.IsInteractive = true
	total := int(params.StoryLength)

	o.emit(Progress{Stage: StageTextStarted, Page: 1, Total: total})
	first, err := o.GenerateStoryPage(ctx, PageRequest{Params: params, CurrentPage: 0, TotalPages: total})
	if err != nil {
		return nil, err
	}
	o.emit(Progress{Stage: StageTextDone, Page: 1, Total: total})

	story = &domain.Story{
		ID:    uuid.NewString(),
		Title: o.deps.Titles.Ensure(ctx, first.Title),
		Metadata: domain.StoryMetadata{
			StoryParameters: params,
			TotalPages:      total,
			CreatedAt:       o.deps.Clock(),
			CurrentPage:     0,
			StoryPath:       []int{0},
		},
	}
	story.AppendPage(domain.Page{Title: first.Title, Content: first.Content, Choices: first.Choices})
	o.attachAssets(ctx, story, []int{0})

	o.logger.Info("Story initialized", zap.String("storyID", story.ID), zap.String("title", story.Title), zap.Int("totalPages", total))
	return story, nil
}

// ContinueStory applies choiceIndex on the last page of story, generates
// the next page and links the choice to it. story is updated in place and
// returned; it is left untouched on error.
func (o *Orchestrator) ContinueStory(ctx context.Context, story *domain.Story, choiceIndex int) (*domain.Story, error) {
	if story.Complete() {
		return nil, domain.ErrStoryComplete
	}
	last, ok := story.LastPage()
	if !ok {
		return nil, fmt.Errorf("%w: story has no pages", domain.ErrInvalidChoice)
	}
	if choiceIndex < 0 || choiceIndex >= len(last.Choices) {
		return nil, fmt.Errorf("%w: %d (page %d has %d choices)", domain.ErrInvalidChoice, choiceIndex, last.PageNumber, len(last.Choices))
	}
	choice := last.Choices[choiceIndex]
	lastIndex := len(story.Pages) - 1
	nextNumber := len(story.Pages) + 1
	total := story.Metadata.TotalPages

	o.emit(Progress{Stage: StageTextStarted, Page: nextNumber, Total: total})
	content, err := o.GenerateStoryPage(ctx, PageRequest{
		Params:        story.Metadata.StoryParameters,
		ChoiceMade:    &choice,
		CurrentPage:   nextNumber,
		TotalPages:    total,
		PreviousPages: story.Pages,
	})
	if err != nil {
		return nil, err
	}
	o.emit(Progress{Stage: StageTextDone, Page: nextNumber, Total: total})

	choice.NextPage = nextNumber
	n := story.AppendPage(domain.Page{
		Title:          content.Title,
		Content:        content.Content,
		Choices:        content.Choices,
		PreviousChoice: &choice,
	})
	story.Pages[lastIndex].Choices[choiceIndex].NextPage = n
	story.Metadata.CurrentPage = n - 1
	story.Metadata.StoryPath = append(story.Metadata.StoryPath, n-1)
	o.attachAssets(ctx, story, []int{n - 1})

	if story.Complete() {
		o.emit(Progress{Stage: StageStoryComplete, Total: total})
	}
	return story, nil
}

// GenerateStory produces a whole story from a single text request, then
// illustrates and narrates every page concurrently.
func (o *Orchestrator) GenerateStory(ctx context.Context, params domain.StoryParameters) (story *domain.Story, err error) {
	defer func() { metricsStoryGenerated(modeEager, err) }()

	params, err = params.Validate()
	if err != nil {
		return nil, err
	}
	total := int(params.StoryLength)
	variety := o.sampleVariety()
	system, user := BuildStoryPrompt(params, variety)
	log := o.logger.With(zap.Int("totalPages", total), zap.Any("variety", variety))

	o.emit(Progress{Stage: StageTextStarted, Total: total})
	raw, err := o.deps.Text.Generate(ctx, ai.Request{
		System:      system,
		User:        user,
		Temperature: DefaultTemperature,
		MaxTokens:   ai.MaxTokensFor(total),
	})
	if err != nil {
		log.Error("Story text generation failed", zap.Error(err))
		return nil, fmt.Errorf("generate story text: %w", err)
	}

	blocks, err := SplitStoryMarkdown(raw)
	if err != nil {
		log.Error("Story response could not be split into pages", zap.Error(err))
		return nil, err
	}
	if len(blocks) < total {
		return nil, fmt.Errorf("%w: expected %d pages, got %d", domain.ErrMalformedResponse, total, len(blocks))
	}
	if len(blocks) > total {
		log.Warn("Dropping extra pages from story response", zap.Int("received", len(blocks)))
		blocks = blocks[:total]
	}
	o.emit(Progress{Stage: StageTextDone, Total: total})

	story = &domain.Story{
		ID:    uuid.NewString(),
		Title: o.deps.Titles.Ensure(ctx, blocks[0].Title),
		Metadata: domain.StoryMetadata{
			StoryParameters: params,
			TotalPages:      total,
			CreatedAt:       o.deps.Clock(),
			CurrentPage:     0,
			StoryPath:       []int{0},
		},
	}
	for _, b := range blocks {
		choices := b.Choices
		if o.opts.ChoicePolicy == ChoicePolicyPad {
			choices = completeChoices(choices)
		}
		story.AppendPage(domain.Page{
			Title:              b.Title,
			Content:            b.Content,
			Choices:            choices,
			IllustrationPrompt: b.IllustrationPrompt,
		})
	}
	linkPages(story)
	for _, page := range story.Pages {
		metricsPageGenerated(modeEager, ClassifyPhase(page.PageNumber, total))
	}

	indices := make([]int, len(story.Pages))
	for i := range indices {
		indices[i] = i
	}
	o.attachAssets(ctx, story, indices)

	o.emit(Progress{Stage: StageStoryComplete, Total: total})
	log.Info("Story generated", zap.String("storyID", story.ID), zap.String("title", story.Title))
	return story, nil
}

// completeChoices applies the incremental choice rules to a markdown
// choice list.
func completeChoices(choices []domain.Choice) []domain.Choice {
	if len(choices) == 0 {
		return append([]domain.Choice(nil), DefaultChoices...)
	}
	if len(choices) > choicesPerPage {
		choices = choices[:choicesPerPage]
	}
	return padChoices(choices)
}

// linkPages points every choice at the following page, records the first
// choice as the way into that page and clears the choices of the last page.
func linkPages(story *domain.Story) {
	for i := range story.Pages {
		page := &story.Pages[i]
		if i == len(story.Pages)-1 {
			page.Choices = []domain.Choice{}
			continue
		}
		for j := range page.Choices {
			page.Choices[j].NextPage = page.PageNumber + 1
		}
		taken := domain.Choice{Text: FillerChoiceText, Description: FillerChoiceDesc, NextPage: page.PageNumber + 1}
		if len(page.Choices) > 0 {
			taken = page.Choices[0]
		}
		story.Pages[i+1].PreviousChoice = &taken
	}
}

// attachAssets illustrates and narrates the pages at the given indices.
// Every task writes only its own page field; failures leave it nil.
func (o *Orchestrator) attachAssets(ctx context.Context, story *domain.Story, indices []int) {
	if o.deps.Images == nil && o.deps.Narrator == nil {
		return
	}
	var g errgroup.Group
	g.SetLimit(o.opts.AssetConcurrency)

	params := story.Metadata.StoryParameters
	total := story.Metadata.TotalPages
	pending := make([]atomic.Int32, len(indices))

	for k, idx := range indices {
		page := &story.Pages[idx]
		done := func() {
			if pending[k].Add(-1) == 0 {
				o.emit(Progress{Stage: StagePageAssets, Page: page.PageNumber, Total: total})
			}
		}

		prompt := page.IllustrationPrompt
		if prompt == "" {
			prompt = fmt.Sprintf("%s. %s", page.Title, firstLine(page.Content))
		}
		narration := domain.NarrationRequest{
			Title:           page.Title,
			Content:         page.Content,
			Choices:         page.Choices,
			Style:           params.NarrationStyle,
			UseVoice:        params.UseVoice,
			SelectedVoiceID: params.SelectedVoiceID,
		}

		doImage := o.deps.Images != nil
		doAudio := o.deps.Narrator != nil && page.Content != ""
		if doImage {
			pending[k].Add(1)
		}
		if doAudio {
			pending[k].Add(1)
		}
		if !doImage && !doAudio {
			o.emit(Progress{Stage: StagePageAssets, Page: page.PageNumber, Total: total})
			continue
		}

		if doImage {
			g.Go(func() error {
				page.Illustration = o.deps.Images.Illustrate(ctx, prompt)
				metricsAsset("illustration", page.Illustration != nil)
				if page.Illustration == nil {
					o.logger.Warn("Illustration unavailable", zap.String("storyID", story.ID), zap.Int("page", page.PageNumber))
				}
				done()
				return nil
			})
		}
		if doAudio {
			g.Go(func() error {
				page.Audio = o.deps.Narrator.Narrate(ctx, narration)
				metricsAsset("narration", page.Audio != nil)
				if page.Audio == nil {
					o.logger.Warn("Narration unavailable", zap.String("storyID", story.ID), zap.Int("page", page.PageNumber))
				}
				done()
				return nil
			})
		}
	}
	_ = g.Wait()
}
