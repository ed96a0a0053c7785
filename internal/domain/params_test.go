package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoryLength_UnmarshalJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want domain.StoryLength
	}{
		{"number", `10`, 10},
		{"pages string", `"15 pages"`, 15},
		{"bare string", `"5"`, 5},
		{"garbage string", `"many pages"`, domain.DefaultStoryLength},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var l domain.StoryLength
			require.NoError(t, json.Unmarshal([]byte(tc.in), &l))
			assert.Equal(t, tc.want, l)
		})
	}

	t.Run("object is rejected", func(t *testing.T) {
		var l domain.StoryLength
		err := json.Unmarshal([]byte(`{"n":1}`), &l)
		assert.True(t, errors.Is(err, domain.ErrInvalidParameters))
	})
}

func TestStoryParameters_Validate(t *testing.T) {
	valid := domain.StoryParameters{ChildName: " Mia ", AgeGroup: "4-6", Theme: "space", StoryLength: 10}

	t.Run("fills defaults", func(t *testing.T) {
		p, err := valid.Validate()
		require.NoError(t, err)
		assert.Equal(t, "Mia", p.ChildName)
		assert.Equal(t, domain.StyleWarm, p.NarrationStyle)
	})

	t.Run("zero length defaults to five", func(t *testing.T) {
		in := valid
		in.StoryLength = 0
		p, err := in.Validate()
		require.NoError(t, err)
		assert.Equal(t, domain.StoryLength(5), p.StoryLength)
	})

	t.Run("keeps voice id", func(t *testing.T) {
		in := valid
		in.SelectedVoiceID = " sample-voice_2 "
		p, err := in.Validate()
		require.NoError(t, err)
		assert.Equal(t, "sample-voice_2", p.SelectedVoiceID)
	})

	bad := map[string]func(p *domain.StoryParameters){
		"missing name":     func(p *domain.StoryParameters) { p.ChildName = "  " },
		"missing theme":    func(p *domain.StoryParameters) { p.Theme = "" },
		"bad age group":    func(p *domain.StoryParameters) { p.AgeGroup = "1-3" },
		"bad length":       func(p *domain.StoryParameters) { p.StoryLength = 7 },
		"unknown narrator": func(p *domain.StoryParameters) { p.NarrationStyle = "spooky" },
		"voice id path":    func(p *domain.StoryParameters) { p.SelectedVoiceID = "../admin/delete?x=" },
		"voice id spaces":  func(p *domain.StoryParameters) { p.SelectedVoiceID = "a b" },
	}
	for name, mutate := range bad {
		t.Run(name, func(t *testing.T) {
			in := valid
			mutate(&in)
			_, err := in.Validate()
			assert.ErrorIs(t, err, domain.ErrInvalidParameters)
		})
	}
}

func TestStoryParameters_FriendList(t *testing.T) {
	p := domain.StoryParameters{FriendNames: []string{"Ann", " ", "Bo "}}
	assert.Empty(t, p.FriendList())

	p.IncludeFriends = true
	assert.Equal(t, "Ann, Bo", p.FriendList())
}
