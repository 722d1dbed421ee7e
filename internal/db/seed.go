package db

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/muzz-match/internal/logger"
)

// SeedTestData resets the database and populates it with demo users, likes
// and matches.
//
// Behavior:
//  1. Clears existing data in `matches`, `likes` and `users`.
//  2. Creates 20 users (8 male, 8 female, 4 other) aged 20-45 with mixed
//     preferences, all with the password "password".
//  3. Generates likes between compatible users (~70% of draws); every 3rd
//     pair is made mutual. Every mutual pair gets exactly one match row.
//
// Compatible with MySQL, Postgres and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	log := logger.L()

	// --- Fresh start ---
	for _, table := range []string{"matches", "likes", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Info("cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// --- Seed Users ---
	prefs := []string{PreferenceMale, PreferenceFemale, PreferenceBoth}
	users := make([]User, 0, 20)
	for i := 1; i <= 20; i++ {
		gender := GenderMale
		switch {
		case i > 16:
			gender = GenderOther
		case i > 8:
			gender = GenderFemale
		}

		users = append(users, User{
			ID:           uuid.NewString(),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Name:         fmt.Sprintf("User %d", i),
			Bio:          "Seeded profile",
			Gender:       gender,
			Preference:   prefs[r.Intn(len(prefs))],
			Age:          20 + r.Intn(26),
			Photos:       []string{fmt.Sprintf("https://picsum.photos/seed/user%d/400/600", i)},
			Longitude:    -0.1276 + r.Float64()/10,
			Latitude:     51.5072 + r.Float64()/10,
		})
	}
	if err := db.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	log.Info("seeded users", "count", len(users))

	// --- Seed Likes / Matches ---
	counter, matches := 0, 0
	for _, actor := range users {
		for j := 0; j < 8; j++ {
			target := users[r.Intn(len(users))]
			if actor.ID == target.ID || !accepts(actor.Preference, target.Gender) {
				continue
			}
			if r.Intn(100) >= 70 {
				continue
			}

			if err := insertLike(db, actor.ID, target.ID); err != nil {
				return err
			}

			// guarantee mutual likes every 3rd pair
			if counter%3 == 0 {
				if err := insertLike(db, target.ID, actor.ID); err != nil {
					return err
				}
			}
			counter++

			// a reciprocated like always has its match row
			var back int64
			if err := db.Model(&Like{}).
				Where("liker_id = ? AND liked_id = ?", target.ID, actor.ID).
				Count(&back).Error; err != nil {
				return fmt.Errorf("failed to check reciprocity: %w", err)
			}
			if back == 0 {
				continue
			}
			m := Match{
				ID:      uuid.NewString(),
				UserAID: actor.ID,
				UserBID: target.ID,
				PairKey: PairKey(actor.ID, target.ID),
			}
			res := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "pair_key"}},
				DoNothing: true,
			}).Create(&m)
			if res.Error != nil {
				return fmt.Errorf("failed to seed match: %w", res.Error)
			}
			matches += int(res.RowsAffected)
		}
	}
	log.Info("seeded likes and matches", "likes", counter, "matches", matches)

	return nil
}

func insertLike(db *gorm.DB, likerID, likedID string) error {
	err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Like{LikerID: likerID, LikedID: likedID}).Error
	if err != nil {
		return fmt.Errorf("failed to seed like: %w", err)
	}
	return nil
}

func accepts(preference, gender string) bool {
	return preference == PreferenceBoth || preference == gender
}
