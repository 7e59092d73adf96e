// Package chat owns the per-profile chat log: an append-only list of messages
// rewritten in full on every send.
package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pliu/newsportal/internal/metrics"
	"github.com/pliu/newsportal/internal/models"
	"github.com/pliu/newsportal/internal/session"
	"github.com/pliu/newsportal/internal/store"
	"github.com/rs/zerolog"
)

// MaxTextLength is the longest message accepted, in characters.
const MaxTextLength = 500

const (
	SystemUserName = "Система"
	WelcomeText    = "Добро пожаловать в общий чат! Здесь вы можете обсудить новости и поделиться мнением."
)

var (
	ErrEmptyText   = errors.New("message text is empty")
	ErrTextTooLong = fmt.Errorf("message text exceeds %d characters", MaxTextLength)
	ErrNoSession   = session.ErrNoSession
)

// Publisher receives every message after it has been persisted.
type Publisher interface {
	Publish(profileID string, msg models.ChatMessage)
}

// Clock formats message timestamps as "HH:MM" in a fixed location.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

func (c Clock) now() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc)
}

func timestamp(t time.Time) string { return t.Format("15:04") }

// Welcome is the system message that seeds an empty log.
func Welcome(now time.Time) models.ChatMessage {
	return models.ChatMessage{
		ID:        1,
		UserID:    models.SystemUserID,
		UserName:  SystemUserName,
		Text:      WelcomeText,
		Timestamp: timestamp(now),
	}
}

// Append returns log with a new message from user. It fails without a user,
// with blank text, or with text over MaxTextLength. log is not modified.
func Append(log []models.ChatMessage, user *models.User, text string, now time.Time) ([]models.ChatMessage, models.ChatMessage, error) {
	if user == nil {
		return log, models.ChatMessage{}, ErrNoSession
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return log, models.ChatMessage{}, ErrEmptyText
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return log, models.ChatMessage{}, ErrTextTooLong
	}

	id := now.UnixMilli()
	if n := len(log); n > 0 && id <= log[n-1].ID {
		id = log[n-1].ID + 1
	}
	msg := models.ChatMessage{
		ID:        id,
		UserID:    user.ID,
		UserName:  user.Name,
		Text:      text,
		Timestamp: timestamp(now),
	}
	next := append(slices.Clip(log), msg)
	return next, msg, nil
}

type Service struct {
	profiles store.Profiles
	pub      Publisher
	clock    Clock
	log      *zerolog.Logger
}

// NewService wires the log. pub may be nil.
func NewService(profiles store.Profiles, pub Publisher, clock Clock, log *zerolog.Logger) *Service {
	return &Service{profiles: profiles, pub: pub, clock: clock, log: log}
}

// Messages returns the full ordered log. A profile without a log reads as the
// welcome message alone; nothing is written until the first Send.
func (s *Service) Messages(ctx context.Context, profileID string) ([]models.ChatMessage, error) {
	return s.load(ctx, s.profiles.Profile(profileID))
}

func (s *Service) load(ctx context.Context, st store.Store) ([]models.ChatMessage, error) {
	messages, err := st.GetMessages(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return []models.ChatMessage{Welcome(s.clock.now())}, nil
	}
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// Send appends text as the profile's current user and rewrites the log,
// seeding it with the welcome message on the first write.
func (s *Service) Send(ctx context.Context, profileID, text string) (*models.ChatMessage, error) {
	st := s.profiles.Profile(profileID)

	user, err := st.GetUser(ctx)
	if errors.Is(err, store.ErrNotFound) {
		user, err = nil, nil
	}
	if err != nil {
		metrics.IncChatMessage("error")
		return nil, err
	}

	messages, err := s.load(ctx, st)
	if err != nil {
		metrics.IncChatMessage("error")
		return nil, err
	}

	next, msg, err := Append(messages, user, text, s.clock.now())
	if err != nil {
		metrics.IncChatMessage(result(err))
		return nil, err
	}
	if err := st.SaveMessages(ctx, next); err != nil {
		metrics.IncChatMessage("error")
		return nil, fmt.Errorf("save chat log: %w", err)
	}
	metrics.IncChatMessage("ok")
	metrics.ObserveChatLogSize(len(next))

	s.log.Debug().Str("profile", profileID).Int64("message_id", msg.ID).Int("log_size", len(next)).Msg("chat message appended")
	if s.pub != nil {
		s.pub.Publish(profileID, msg)
	}
	return &msg, nil
}

// Notice is the text shown to the user when Send fails with err.
func Notice(err error) string {
	switch {
	case errors.Is(err, ErrNoSession):
		return "Войдите в систему, чтобы отправлять сообщения"
	case errors.Is(err, ErrEmptyText):
		return "Сообщение не может быть пустым"
	case errors.Is(err, ErrTextTooLong):
		return fmt.Sprintf("Сообщение длиннее %d символов", MaxTextLength)
	default:
		return "Не удалось отправить сообщение"
	}
}

func result(err error) string {
	switch {
	case errors.Is(err, ErrEmptyText):
		return "empty"
	case errors.Is(err, ErrTextTooLong):
		return "too_long"
	case errors.Is(err, ErrNoSession):
		return "no_session"
	default:
		return "error"
	}
}
