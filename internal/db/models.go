package db

import (
	"time"
)

// Gender values a profile can carry.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// Preference values. PreferenceBoth accepts every gender.
const (
	PreferenceMale   = "Male"
	PreferenceFemale = "Female"
	PreferenceBoth   = "Both"
)

// User table.
//
// Relationship sets are not embedded here: liked ids live in `likes`, matched
// ids are derived from `matches`.
type User struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Email        string    `gorm:"uniqueIndex;size:191;not null"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Name         string    `gorm:"size:64;not null"`
	Bio          string    `gorm:"size:1024"`
	Gender       string    `gorm:"size:16;not null;index:idx_gender_age,priority:1"`
	Preference   string    `gorm:"size:16;not null"`
	Age          int       `gorm:"not null;index:idx_gender_age,priority:2"`
	Photos       []string  `gorm:"serializer:json;type:text"`
	Longitude    float64   `gorm:"not null;default:0"`
	Latitude     float64   `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Like records that LikerID liked LikedID.
//
// Composite PK: (LikerID, LikedID)
//   - One row per ordered pair, so inserting twice is a no-op (set semantics).
//
// Indexes:
//   - idx_liked_created_liker(liked_id, created_at DESC, liker_id)
//     Serves the "who liked me" inbox with cursor pagination.
type Like struct {
	LikerID   string    `gorm:"primaryKey;size:36"`
	LikedID   string    `gorm:"primaryKey;size:36;index:idx_liked_created_liker,priority:1"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_liked_created_liker,priority:2,sort:desc"`
}

// Match links two users that liked each other.
//
// UserAID is the user whose like closed the match, UserBID the other one.
// PairKey is the canonical unordered pair (see PairKey) under a UNIQUE index,
// which is what guarantees a single match per pair.
type Match struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserAID   string    `gorm:"column:user_a_id;size:36;not null;index"`
	UserBID   string    `gorm:"column:user_b_id;size:36;not null;index"`
	PairKey   string    `gorm:"uniqueIndex;size:80;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// HasUser reports whether userID is one of the two participants.
func (m *Match) HasUser(userID string) bool {
	return m.UserAID == userID || m.UserBID == userID
}

// PairKey returns the order-independent key for a pair of user ids.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}
