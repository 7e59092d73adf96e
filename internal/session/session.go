// Package session implements the mocked login flow and the profile's single
// user record. Any credentials are accepted: there is no backend to check them.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pliu/newsportal/internal/metrics"
	"github.com/pliu/newsportal/internal/models"
	"github.com/pliu/newsportal/internal/store"
	"github.com/rs/zerolog"
)

// ErrNoSession is returned when an action needs a logged-in user and the
// profile has none.
var ErrNoSession = errors.New("no active session")

// LoginID is assigned to every login.
const LoginID = "1"

// Mailer is notified after a registration.
type Mailer interface {
	SendWelcome(to, name string) error
}

type Options struct {
	// Latency simulates the network round trip before login/register resolve.
	Latency time.Duration
	Now     func() time.Time
	Mailer  Mailer
}

type Service struct {
	profiles store.Profiles
	latency  time.Duration
	now      func() time.Time
	mailer   Mailer
	log      *zerolog.Logger

	lastID atomic.Int64
}

func NewService(profiles store.Profiles, opts Options, log *zerolog.Logger) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		profiles: profiles,
		latency:  opts.Latency,
		now:      opts.Now,
		mailer:   opts.Mailer,
		log:      log,
	}
}

// Login fabricates a session from the email's local part. The password is
// not checked. If ctx ends during the simulated latency nothing is written.
func (s *Service) Login(ctx context.Context, profileID, email, password string) (*models.User, error) {
	if err := s.wait(ctx); err != nil {
		metrics.IncAuth("login", "cancelled")
		return nil, err
	}

	name, _, _ := strings.Cut(email, "@")
	user := models.User{
		ID:       LoginID,
		Name:     name,
		Email:    email,
		JoinDate: models.FormatDate(s.now()),
	}
	if err := s.profiles.Profile(profileID).SaveUser(ctx, user); err != nil {
		metrics.IncAuth("login", "error")
		return nil, fmt.Errorf("save session: %w", err)
	}

	metrics.IncAuth("login", "ok")
	s.log.Info().Str("profile", profileID).Str("user_id", user.ID).Msg("login")
	user = user.WithDefaults()
	return &user, nil
}

// Register always succeeds and assigns a fresh time-derived id.
func (s *Service) Register(ctx context.Context, profileID, name, email, password string) (*models.User, error) {
	if err := s.wait(ctx); err != nil {
		metrics.IncAuth("register", "cancelled")
		return nil, err
	}

	user := models.User{
		ID:       s.nextID(),
		Name:     name,
		Email:    email,
		JoinDate: models.FormatDate(s.now()),
	}
	if err := s.profiles.Profile(profileID).SaveUser(ctx, user); err != nil {
		metrics.IncAuth("register", "error")
		return nil, fmt.Errorf("save session: %w", err)
	}

	metrics.IncAuth("register", "ok")
	s.log.Info().Str("profile", profileID).Str("user_id", user.ID).Msg("register")

	if s.mailer != nil {
		if err := s.mailer.SendWelcome(email, name); err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("welcome mail failed")
		}
	}
	user = user.WithDefaults()
	return &user, nil
}

// Logout removes the session entirely. Logging out without a session is fine.
func (s *Service) Logout(ctx context.Context, profileID string) error {
	if err := s.profiles.Profile(profileID).DeleteUser(ctx); err != nil {
		metrics.IncAuth("logout", "error")
		return fmt.Errorf("delete session: %w", err)
	}
	metrics.IncAuth("logout", "ok")
	return nil
}

// Current returns the profile's user with display defaults applied.
func (s *Service) Current(ctx context.Context, profileID string) (*models.User, error) {
	user, err := s.load(ctx, profileID)
	if err != nil {
		return nil, err
	}
	u := user.WithDefaults()
	return &u, nil
}

// ToggleSaved adds or removes articleID from the saved set.
func (s *Service) ToggleSaved(ctx context.Context, profileID string, articleID int) (*models.User, error) {
	return s.update(ctx, profileID, func(u models.User) models.User {
		next := u.ToggleSaved(articleID)
		metrics.IncSavedToggle(next.HasSaved(articleID))
		return next
	})
}

// RemoveSaved drops articleID from the saved set; absent ids are a no-op.
func (s *Service) RemoveSaved(ctx context.Context, profileID string, articleID int) (*models.User, error) {
	return s.update(ctx, profileID, func(u models.User) models.User {
		return u.RemoveSaved(articleID)
	})
}

// UpdateProfile overwrites name and bio.
func (s *Service) UpdateProfile(ctx context.Context, profileID string, upd models.ProfileUpdate) (*models.User, error) {
	return s.update(ctx, profileID, func(u models.User) models.User {
		return u.UpdateProfile(upd)
	})
}

// update is read, transform, full write. Concurrent writers race; the last
// one wins.
func (s *Service) update(ctx context.Context, profileID string, fn func(models.User) models.User) (*models.User, error) {
	user, err := s.load(ctx, profileID)
	if err != nil {
		return nil, err
	}
	next := fn(*user)
	if err := s.profiles.Profile(profileID).SaveUser(ctx, next); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	next = next.WithDefaults()
	return &next, nil
}

func (s *Service) load(ctx context.Context, profileID string) (*models.User, error) {
	user, err := s.profiles.Profile(profileID).GetUser(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// nextID returns the current millisecond timestamp, bumped past the last id
// handed out so two registrations never share one.
func (s *Service) nextID() string {
	for {
		last := s.lastID.Load()
		id := s.now().UnixMilli()
		if id <= last {
			id = last + 1
		}
		if s.lastID.CompareAndSwap(last, id) {
			return strconv.FormatInt(id, 10)
		}
	}
}
