package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/auth"
	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/logger"
	"github.com/oggyb/muzz-match/internal/repository"
	"github.com/oggyb/muzz-match/internal/service/matchmaking"
	"github.com/oggyb/muzz-match/internal/validation"
)

// Location is a GeoJSON point as submitted by clients: [longitude, latitude].
type Location struct {
	Type        string    `json:"type" validate:"omitempty,eq=Point"`
	Coordinates []float64 `json:"coordinates" validate:"len=2"`
}

func (l *Location) check() error {
	lng, lat := l.Coordinates[0], l.Coordinates[1]
	if lng < -180 || lng > 180 {
		return svcErr.InvalidArgument("location longitude must be within [-180, 180]")
	}
	if lat < -90 || lat > 90 {
		return svcErr.InvalidArgument("location latitude must be within [-90, 90]")
	}
	return nil
}

type SignupInput struct {
	Email      string    `json:"email" validate:"required,email,max=191"`
	Password   string    `json:"password" validate:"required,min=6,max=72"`
	Name       string    `json:"name" validate:"required,max=64"`
	Bio        string    `json:"bio" validate:"max=1024"`
	Gender     string    `json:"gender" validate:"required,oneof=Male Female Other"`
	Preference string    `json:"preference" validate:"required,oneof=Male Female Both"`
	Age        int       `json:"age" validate:"required,gte=18"`
	Location   *Location `json:"location" validate:"required"`
}

// ProfileUpdate lists every field a user may change on their own profile.
// A nil field is left untouched. Email, password and relationship sets are
// deliberately absent.
type ProfileUpdate struct {
	Name     *string   `json:"name" validate:"omitempty,max=64"`
	Bio      *string   `json:"bio" validate:"omitempty,max=1024"`
	Age      *int      `json:"age" validate:"omitempty,gte=18"`
	Photos   []string  `json:"photos" validate:"omitempty,dive,url"`
	Location *Location `json:"location" validate:"omitempty"`
}

type LoginResult struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// Service implements registration, login and profile management.
type Service struct {
	appCtx *app.AppContext
	log    *slog.Logger
	users  *repository.UserRepository
}

func NewService(appCtx *app.AppContext) *Service {
	log := appCtx.Logger
	if log == nil {
		log = logger.L()
	}
	return &Service{
		appCtx: appCtx,
		log:    log.With("component", "account"),
		users:  repository.NewUserRepository(appCtx.DB),
	}
}

// Signup registers a new user and returns its public profile.
//
// Behavior:
//   - Input is validated (email, enums, age >= 18, coordinates in range).
//   - The email is stored lower-cased; a taken email → Conflict.
//   - The password is stored as a bcrypt hash only.
func (s *Service) Signup(ctx context.Context, in SignupInput) (matchmaking.PublicUser, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return matchmaking.PublicUser{}, svcErr.InvalidArgument(err.Error())
	}
	if err := in.Location.check(); err != nil {
		return matchmaking.PublicUser{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		s.log.Error("HashPassword failed", "err", err)
		return matchmaking.PublicUser{}, svcErr.Store(err)
	}

	u := db.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Bio:          in.Bio,
		Gender:       in.Gender,
		Preference:   in.Preference,
		Age:          in.Age,
		Photos:       []string{},
		Longitude:    in.Location.Coordinates[0],
		Latitude:     in.Location.Coordinates[1],
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return matchmaking.PublicUser{}, svcErr.ErrEmailTaken
		}
		s.log.Error("CreateUser failed", "err", err)
		return matchmaking.PublicUser{}, svcErr.Store(err)
	}

	s.log.Info("user registered", "user", u.ID)
	return matchmaking.ToPublic(u), nil
}

// Login checks the credentials and issues an access token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return LoginResult{}, svcErr.ErrInvalidCredentials
	} else if err != nil {
		s.log.Error("FindByEmail failed", "err", err)
		return LoginResult{}, svcErr.Store(err)
	}

	if !auth.CheckPassword(password, u.PasswordHash) {
		return LoginResult{}, svcErr.ErrInvalidCredentials
	}

	token, err := s.appCtx.JWT.Issue(u.ID)
	if err != nil {
		s.log.Error("token issue failed", "err", err)
		return LoginResult{}, svcErr.Store(err)
	}
	return LoginResult{UserID: u.ID, Token: token}, nil
}

// GetProfile returns the public profile of id.
func (s *Service) GetProfile(ctx context.Context, id string) (matchmaking.PublicUser, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return matchmaking.PublicUser{}, err
	}
	return matchmaking.ToPublic(*u), nil
}

// UpdateProfile applies the allow-listed fields of in to id's profile.
//
// Behavior:
//   - Only the owner may update (Forbidden otherwise).
//   - Fields left nil are not touched.
//   - Unknown user → NotFound.
func (s *Service) UpdateProfile(ctx context.Context, requesterID, id string, in ProfileUpdate) (matchmaking.PublicUser, error) {
	if requesterID != id {
		return matchmaking.PublicUser{}, svcErr.ErrNotProfileOwner
	}
	if err := validation.Struct(in); err != nil {
		return matchmaking.PublicUser{}, svcErr.InvalidArgument(err.Error())
	}
	if _, err := s.load(ctx, id); err != nil {
		return matchmaking.PublicUser{}, err
	}

	var (
		patch   db.User
		columns []string
	)
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return matchmaking.PublicUser{}, svcErr.InvalidArgument("name must not be empty")
		}
		patch.Name = name
		columns = append(columns, "name")
	}
	if in.Bio != nil {
		patch.Bio = *in.Bio
		columns = append(columns, "bio")
	}
	if in.Age != nil {
		patch.Age = *in.Age
		columns = append(columns, "age")
	}
	if in.Photos != nil {
		patch.Photos = in.Photos
		columns = append(columns, "photos")
	}
	if in.Location != nil {
		if err := in.Location.check(); err != nil {
			return matchmaking.PublicUser{}, err
		}
		patch.Longitude = in.Location.Coordinates[0]
		patch.Latitude = in.Location.Coordinates[1]
		columns = append(columns, "longitude", "latitude")
	}
	if len(columns) > 0 {
		columns = append(columns, "updated_at")
	}

	u, err := s.users.UpdateColumns(ctx, id, &patch, columns)
	if err != nil {
		s.log.Error("UpdateColumns failed", "user", id, "err", err)
		return matchmaking.PublicUser{}, svcErr.Store(err)
	}
	return matchmaking.ToPublic(*u), nil
}

// AddPhotos appends already-stored photo URLs to id's profile.
func (s *Service) AddPhotos(ctx context.Context, requesterID, id string, urls []string) (matchmaking.PublicUser, error) {
	if requesterID != id {
		return matchmaking.PublicUser{}, svcErr.ErrNotProfileOwner
	}
	if len(urls) == 0 {
		return matchmaking.PublicUser{}, svcErr.InvalidArgument("at least one photo is required")
	}

	u, err := s.users.AppendPhotos(ctx, id, urls)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return matchmaking.PublicUser{}, svcErr.ErrUserNotFound
	} else if err != nil {
		s.log.Error("AppendPhotos failed", "user", id, "err", err)
		return matchmaking.PublicUser{}, svcErr.Store(err)
	}
	return matchmaking.ToPublic(*u), nil
}

func (s *Service) load(ctx context.Context, id string) (*db.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.ErrUserNotFound
	} else if err != nil {
		s.log.Error("FindUser failed", "user", id, "err", err)
		return nil, svcErr.Store(err)
	}
	return u, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
