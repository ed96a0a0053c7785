package story

import "math/rand"

// Option sets for the eager prompt. Sampled uniformly.
var (
	OpeningStyles = []string{"action_packed", "mysterious", "descriptive", "dialogue", "question", "daily_life"}
	Perspectives  = []string{"third_person", "first_person", "omniscient", "interactive"}
	Structures    = []string{"hero_journey", "mystery_solve", "friendship_tale", "discovery_quest", "challenge_overcome", "magical_transformation"}
)

// Variety steers the eager prompt away from repetitive stories.
type Variety struct {
	OpeningStyle string `json:"openingStyle"`
	Perspective  string `json:"perspective"`
	Structure    string `json:"structure"`
}

// SampleVariety draws one option from each set. r is not safe for
// concurrent use; callers serialize access.
func SampleVariety(r *rand.Rand) Variety {
	return Variety{
		OpeningStyle: OpeningStyles[r.Intn(len(OpeningStyles))],
		Perspective:  Perspectives[r.Intn(len(Perspectives))],
		Structure:    Structures[r.Intn(len(Structures))],
	}
}
