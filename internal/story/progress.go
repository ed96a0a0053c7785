package story

// Stage names a step of story generation reported to ProgressFunc.
type Stage string

const (
	StageTextStarted   Stage = "text_started"
	StageTextDone      Stage = "text_done"
	StagePageAssets    Stage = "page_assets_done"
	StageStoryComplete Stage = "story_complete"
)

// Progress is one generation event. Page is 0 for story-level stages.
type Progress struct {
	Stage Stage `json:"stage"`
	Page  int   `json:"page,omitempty"`
	Total int   `json:"total"`
}

// ProgressFunc receives generation events. It may be called from several
// goroutines at once.
type ProgressFunc func(Progress)
