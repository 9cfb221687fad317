package session

import (
	"errors"
	"time"
)

// ErrInvalidUser signals a contract violation: the caller passed an
// empty user id. Fatal to the triggering task only, never the process.
var ErrInvalidUser = errors.New("session: empty user id")

const DefaultMaxHistory = 5

func NewStore(maxHistory int) *Store {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}

	return &Store{
		sessions:   make(map[string]*Session),
		maxHistory: maxHistory,
	}
}

// Get returns the session for userID, creating it if absent.
func (s *Store) Get(userID string) (*Session, error) {
	if userID == "" {
		return nil, ErrInvalidUser
	}

	s.mu.RLock()
	sess, ok := s.sessions[userID]
	s.mu.RUnlock()

	if ok {
		return sess, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok = s.sessions[userID]; ok {
		return sess, nil
	}

	sess = &Session{}
	s.sessions[userID] = sess

	return sess, nil
}

// Len reports how many sessions are live.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// AppendExchange commits a completed user/assistant pair to the user's
// history as one atomic write. Enough oldest turns are evicted first so
// the stored history never exceeds the configured cap.
func (s *Store) AppendExchange(userID, userText, assistantText string) error {
	sess, err := s.Get(userID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.history = append(sess.history,
		Turn{Role: RoleUser, Content: userText},
		Turn{Role: RoleAssistant, Content: assistantText},
	)

	if excess := len(sess.history) - s.maxHistory; excess > 0 {
		sess.history = append(sess.history[:0], sess.history[excess:]...)
	}

	return nil
}

// History returns a copy of the user's stored turns in chronological order.
func (s *Store) History(userID string) ([]Turn, error) {
	sess, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	copied := make([]Turn, len(sess.history))
	copy(copied, sess.history)

	return copied, nil
}

func (s *Store) SetCooldown(userID string, until time.Time) error {
	sess, err := s.Get(userID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.cooldownUntil = until
	return nil
}

// ClearCooldown resets the cooldown deadline back to absent.
func (s *Store) ClearCooldown(userID string) error {
	return s.SetCooldown(userID, time.Time{})
}

// CooldownActive reports whether the user's cooldown deadline is set
// and still in the future at now.
func (s *Store) CooldownActive(userID string, now time.Time) (bool, error) {
	sess, err := s.Get(userID)
	if err != nil {
		return false, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	return !sess.cooldownUntil.IsZero() && sess.cooldownUntil.After(now), nil
}

// RecordInteraction marks the time and channel of the user's most
// recently completed exchange.
func (s *Store) RecordInteraction(userID string, ts time.Time, channelID string) error {
	sess, err := s.Get(userID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.last = Interaction{Timestamp: ts, ChannelID: channelID}
	return nil
}

func (s *Store) LastInteraction(userID string) (Interaction, error) {
	sess, err := s.Get(userID)
	if err != nil {
		return Interaction{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	return sess.last, nil
}
