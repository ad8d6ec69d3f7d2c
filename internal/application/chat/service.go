package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"serviceloop-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrNotConfigured  = errors.New("Gemini API key not configured")
	ErrInvalidMessage = errors.New("Message is required and must be a string")
	ErrUpstream       = errors.New("Gemini API failed")
)

const systemPrompt = `You are ServiceLoop Assistant, the help bot of ServiceLoop, a site where volunteers find nonprofits, sign up for events and talk in community forums.
Help people use the site, discover organizations and volunteering opportunities, and get around its features.
Answer briefly and warmly, usually in two or three sentences, and skip technical details unless asked.`

// PageContext is the optional hint the widget sends about where the user is.
type PageContext struct {
	Page   string  `json:"page"`
	UserID *string `json:"userId"`
}

type Request struct {
	Message string
	Context *PageContext
}

// ParseRequest decodes a chat body. message must be a non-empty JSON string.
func ParseRequest(body []byte) (Request, error) {
	var raw struct {
		Message json.RawMessage `json:"message"`
		Context *PageContext    `json:"context"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return Request{}, ErrInvalidMessage
	}
	var msg string
	if len(raw.Message) == 0 || json.Unmarshal(raw.Message, &msg) != nil || msg == "" {
		return Request{}, ErrInvalidMessage
	}
	return Request{Message: msg, Context: raw.Context}, nil
}

// BuildPrompt prepends the assistant instructions and page context to the question.
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	if req.Context != nil {
		page := req.Context.Page
		if page == "" {
			page = "unknown"
		}
		user := "not logged in"
		if req.Context.UserID != nil && *req.Context.UserID != "" {
			user = *req.Context.UserID
		}
		b.WriteString("\n\nUser Context:\n- Current page: " + page + "\n- User ID: " + user)
	}
	b.WriteString("\n\nUser question: " + req.Message)
	return b.String()
}

// Service forwards one message to the model. There is no retry.
type Service struct {
	DB  *gorm.DB
	LLM Completer
}

// Configured reports whether a model client is set.
func (s *Service) Configured() bool {
	return s.LLM != nil
}

func (s *Service) Reply(ctx context.Context, req Request, id *domain.Identity) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	reply, err := s.LLM.Generate(ctx, BuildPrompt(req))
	if err != nil {
		log.Error().Err(err).Msg("chat: Gemini call failed")
		return "", ErrUpstream
	}
	if id != nil {
		s.persist(ctx, id, req, reply)
	}
	return reply, nil
}

// persist keeps the exchange for signed-in users. Failures never reach the caller.
func (s *Service) persist(ctx context.Context, id *domain.Identity, req Request, reply string) {
	if s.DB == nil {
		return
	}
	contextType := "global"
	if req.Context != nil && req.Context.Page != "" {
		contextType = req.Context.Page
	}
	rows := []domain.ChatMessage{
		{UserID: id.ID, ContextType: contextType, Sender: domain.ChatSenderUser, Message: req.Message},
		{UserID: id.ID, ContextType: contextType, Sender: domain.ChatSenderAI, Message: reply},
	}
	if err := s.DB.WithContext(ctx).Create(&rows).Error; err != nil {
		log.Warn().Err(err).Str("user_id", id.ID.String()).Msg("chat: history insert failed")
	}
}
