package matchmaking

import (
	"time"

	"github.com/oggyb/muzz-match/internal/db"
)

// Location is a GeoJSON point; Coordinates is [longitude, latitude].
type Location struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// PublicUser is the client-facing view of a profile. It never carries the
// password hash or the relationship sets.
type PublicUser struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Bio        string    `json:"bio,omitempty"`
	Gender     string    `json:"gender"`
	Preference string    `json:"preference"`
	Age        int       `json:"age"`
	Photos     []string  `json:"photos"`
	Location   Location  `json:"location"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UserSummary is the reduced profile embedded in a match detail.
type UserSummary struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Photos []string `json:"photos"`
	Age    int      `json:"age"`
}

// MatchDetail is a match with both participants resolved.
type MatchDetail struct {
	ID        string         `json:"id"`
	Users     [2]UserSummary `json:"users"`
	CreatedAt time.Time      `json:"createdAt"`
}

// LikeResult reports the outcome of a like call. MatchID is set only when
// IsMatch is true.
type LikeResult struct {
	Recorded bool    `json:"recorded"`
	IsMatch  bool    `json:"isMatch"`
	MatchID  *string `json:"matchId"`
}

// Liker is one entry of the likes inbox.
type Liker struct {
	UserID  string    `json:"userId"`
	LikedAt time.Time `json:"likedAt"`
}

// ToPublic maps a stored user to its public view.
func ToPublic(u db.User) PublicUser {
	photos := u.Photos
	if photos == nil {
		photos = []string{}
	}
	return PublicUser{
		ID:         u.ID,
		Name:       u.Name,
		Bio:        u.Bio,
		Gender:     u.Gender,
		Preference: u.Preference,
		Age:        u.Age,
		Photos:     photos,
		Location: Location{
			Type:        "Point",
			Coordinates: [2]float64{u.Longitude, u.Latitude},
		},
		CreatedAt: u.CreatedAt,
	}
}

func toPublicList(users []db.User) []PublicUser {
	out := make([]PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, ToPublic(u))
	}
	return out
}

func toSummary(u db.User) UserSummary {
	photos := u.Photos
	if photos == nil {
		photos = []string{}
	}
	return UserSummary{ID: u.ID, Name: u.Name, Photos: photos, Age: u.Age}
}
