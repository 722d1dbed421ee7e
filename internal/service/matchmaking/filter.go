package matchmaking

import "github.com/oggyb/muzz-match/internal/db"

const (
	// DiscoveryLimit caps the number of candidates a feed returns.
	DiscoveryLimit = 20
	// AgeWindow is the inclusive distance, in years, around the requester's age.
	AgeWindow = 10
)

// GendersFor maps a preference to the candidate genders it admits.
// "Both" admits every gender, including Other.
func GendersFor(preference string) []string {
	switch preference {
	case db.PreferenceBoth:
		return []string{db.GenderMale, db.GenderFemale, db.GenderOther}
	case db.PreferenceMale:
		return []string{db.GenderMale}
	case db.PreferenceFemale:
		return []string{db.GenderFemale}
	default:
		return nil
	}
}

// AgeWindowFor returns the inclusive [min, max] candidate age range.
func AgeWindowFor(age int) (int, int) {
	return age - AgeWindow, age + AgeWindow
}

// ExclusionSet is the requester itself plus everyone they liked or matched,
// de-duplicated in first-seen order.
func ExclusionSet(self string, liked, matched []string) []string {
	seen := make(map[string]struct{}, 1+len(liked)+len(matched))
	out := make([]string, 0, 1+len(liked)+len(matched))

	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	add(self)
	for _, id := range liked {
		add(id)
	}
	for _, id := range matched {
		add(id)
	}
	return out
}
