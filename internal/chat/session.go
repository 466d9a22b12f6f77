// Package chat holds the conversation with the assistant: the ordered
// message history, the backend conversation id and the in-flight request.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/georgeLochner/whedifaqaui/internal/api"
	"github.com/georgeLochner/whedifaqaui/internal/store"
)

// Storage keys.
const (
	MessagesKey       = "chat-messages"
	ConversationIDKey = "chat-conversation-id"
)

var (
	// ErrEmptyMessage rejects a send whose text is blank.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrInFlight rejects a send while another request is outstanding.
	ErrInFlight = errors.New("a request is already in flight")
)

// Role is who wrote a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one immutable entry of the conversation.
type Message struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Citations []api.Citation `json:"citations,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Chatter sends one chat turn to the backend.
type Chatter interface {
	Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
}

// State is a point-in-time copy of the session.
type State struct {
	Messages       []Message
	ConversationID string
	Loading        bool
	Error          string
}

// Session is the conversation state. It is safe for concurrent use; callers
// are expected not to send while Loading is true, and a send attempted
// anyway is rejected with ErrInFlight.
type Session struct {
	client  Chatter
	storage store.Storage

	mu             sync.Mutex
	messages       []Message
	conversationID string
	loading        bool
	errText        string
}

// New returns a session restored from storage. Unreadable stored state is
// dropped and the session starts empty.
func New(client Chatter, storage store.Storage) *Session {
	s := &Session{client: client, storage: storage}
	s.restore()
	return s
}

func (s *Session) restore() {
	if s.storage == nil {
		return
	}
	if raw, ok, err := s.storage.Load(MessagesKey); err != nil {
		log.Warn().Err(err).Msg("load chat messages")
	} else if ok {
		var msgs []Message
		if err := json.Unmarshal(raw, &msgs); err != nil {
			log.Warn().Err(err).Msg("decode chat messages, starting empty")
		} else {
			s.messages = msgs
		}
	}
	if raw, ok, err := s.storage.Load(ConversationIDKey); err != nil {
		log.Warn().Err(err).Msg("load conversation id")
	} else if ok {
		s.conversationID = string(raw)
	}
}

// persistLocked writes the message list and conversation id. The id is
// only written once the backend has assigned one.
func (s *Session) persistLocked() {
	if s.storage == nil {
		return
	}
	data, err := json.Marshal(s.messages)
	if err != nil {
		log.Error().Err(err).Msg("encode chat messages")
		return
	}
	if err := s.storage.Save(MessagesKey, data); err != nil {
		log.Error().Err(err).Msg("save chat messages")
	}
	if s.conversationID != "" {
		if err := s.storage.Save(ConversationIDKey, []byte(s.conversationID)); err != nil {
			log.Error().Err(err).Msg("save conversation id")
		}
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Messages:       append([]Message(nil), s.messages...),
		ConversationID: s.conversationID,
		Loading:        s.loading,
		Error:          s.errText,
	}
}

// Turn is a send that has been accepted and is waiting for the backend.
type Turn struct {
	s              *Session
	text           string
	conversationID string
	done           bool
}

// Begin accepts text as the next user message: it clears the last error,
// appends the message and marks the session loading. Blank text and sends
// while loading are rejected without touching state.
func (s *Session) Begin(text string) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return nil, ErrInFlight
	}

	s.errText = ""
	s.loading = true
	s.messages = append(s.messages, Message{
		ID:        "user-" + uuid.NewString(),
		Role:      RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	})
	s.persistLocked()

	return &Turn{s: s, text: text, conversationID: s.conversationID}, nil
}

// Text is the user message this turn carries.
func (t *Turn) Text() string { return t.text }

// Complete sends the turn to the backend. On success the assistant reply
// is appended and returned; on failure the error text is recorded and the
// history is left as it was. Loading is cleared either way.
func (t *Turn) Complete(ctx context.Context) (Message, error) {
	s := t.s
	if t.done {
		return Message{}, errors.New("turn already completed")
	}
	t.done = true

	resp, err := s.client.Chat(ctx, api.ChatRequest{
		Message:        t.text,
		ConversationID: t.conversationID,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.errText = err.Error()
		log.Debug().Err(err).Msg("chat request failed")
		return Message{}, err
	}

	if resp.ConversationID != "" {
		s.conversationID = resp.ConversationID
	}
	reply := Message{
		ID:        "assistant-" + uuid.NewString(),
		Role:      RoleAssistant,
		Content:   resp.Message,
		Citations: resp.Citations,
		Timestamp: time.Now(),
	}
	s.messages = append(s.messages, reply)
	s.persistLocked()
	return reply, nil
}

// SendMessage is Begin followed by Complete.
func (s *Session) SendMessage(ctx context.Context, text string) (Message, error) {
	turn, err := s.Begin(text)
	if err != nil {
		return Message{}, err
	}
	return turn.Complete(ctx)
}

// LastAssistant returns the most recent assistant message, if any.
func (st State) LastAssistant() (Message, bool) {
	for i := len(st.Messages) - 1; i >= 0; i-- {
		if st.Messages[i].Role == RoleAssistant {
			return st.Messages[i], true
		}
	}
	return Message{}, false
}
