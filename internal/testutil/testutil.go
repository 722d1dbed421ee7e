// Package testutil wires isolated SQLite databases and miniredis instances
// for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/cache"
	"github.com/oggyb/muzz-match/internal/config"
	"github.com/oggyb/muzz-match/internal/db"
	"github.com/oggyb/muzz-match/internal/logger"
)

// JWTSecret signs tokens issued by contexts from NewAppContext.
const JWTSecret = "test-secret"

// NewDB spins up a shared-cache in-memory SQLite database private to the test
// and applies migrations.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_busy_timeout=5000", name, uuid.NewString()[:8])
	dbase, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	// one connection keeps concurrent tests from tripping over SQLite's
	// table-level locking
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))
	return dbase
}

// NewRedis starts a miniredis and returns a cache bound to it.
func NewRedis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Client.Close() })
	return rc, mr
}

// NewAppContext wires a fresh database, a miniredis-backed cache and a
// discarding logger.
func NewAppContext(t *testing.T) (*app.AppContext, *miniredis.Miniredis) {
	t.Helper()

	gdb := NewDB(t)
	rc, mr := NewRedis(t)

	cfg := &config.Config{}
	cfg.App.ENV = "test"
	cfg.JWT.Secret = JWTSecret
	cfg.JWT.Issuer = "muzz-match-test"
	cfg.JWT.TTL = time.Hour

	return app.New(cfg, gdb, rc, logger.Discard()), mr
}

// UserOpt customises a user built by CreateUser.
type UserOpt func(*db.User)

func WithGender(g string) UserOpt     { return func(u *db.User) { u.Gender = g } }
func WithPreference(p string) UserOpt { return func(u *db.User) { u.Preference = p } }
func WithAge(a int) UserOpt           { return func(u *db.User) { u.Age = a } }
func WithEmail(e string) UserOpt      { return func(u *db.User) { u.Email = e } }

// CreateUser inserts a user with sensible defaults (Female, prefers Both,
// 30 years old) and returns it.
func CreateUser(t *testing.T, gdb *gorm.DB, name string, opts ...UserOpt) db.User {
	t.Helper()

	id := uuid.NewString()
	u := db.User{
		ID:           id,
		Email:        strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "." + id[:8] + "@test.com",
		PasswordHash: "x",
		Name:         name,
		Gender:       db.GenderFemale,
		Preference:   db.PreferenceBoth,
		Age:          30,
		Photos:       []string{"https://img.test/" + id + ".jpg"},
	}
	for _, o := range opts {
		o(&u)
	}
	require.NoError(t, gdb.Create(&u).Error)
	return u
}
