package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/edubook/internal/model"
	"github.com/Freeeeeet/edubook/internal/repository/base"
)

// ConversationRepository переписки и их сообщения
type ConversationRepository struct {
	db            *base.Repository
	conversations *base.Collection[model.Conversation]
	messages      *base.Collection[model.Message]
}

func NewConversationRepository(db *base.Repository) *ConversationRepository {
	return &ConversationRepository{
		db:            db,
		conversations: base.NewCollection[model.Conversation](db, KeyConversations),
		messages:      base.NewCollection[model.Message](db, KeyMessages),
	}
}

// Init создаёт пустые коллекции, если их нет
func (r *ConversationRepository) Init(ctx context.Context) error {
	if _, err := r.conversations.SeedIfAbsent(ctx, nil); err != nil {
		return fmt.Errorf("init conversations: %w", err)
	}
	if _, err := r.messages.SeedIfAbsent(ctx, nil); err != nil {
		return fmt.Errorf("init messages: %w", err)
	}
	return nil
}

// ListForParticipant возвращает переписки, где userID студент или учитель.
// Порядок - порядок хранения.
func (r *ConversationRepository) ListForParticipant(ctx context.Context, userID string) ([]model.Conversation, error) {
	conversations, err := r.conversations.Filter(ctx, func(c model.Conversation) bool {
		return c.HasParticipant(userID)
	})
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return conversations, nil
}

// GetByID получает переписку по ID, nil если не найдена
func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*model.Conversation, error) {
	conv, ok, err := r.conversations.FindFirst(ctx, func(c model.Conversation) bool { return c.ID == id })
	if err != nil {
		return nil, fmt.Errorf("get conversation by id: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &conv, nil
}

// FindByPair ищет переписку студента с учителем
func (r *ConversationRepository) FindByPair(ctx context.Context, studentID, teacherID string) (*model.Conversation, error) {
	conv, ok, err := r.conversations.FindFirst(ctx, func(c model.Conversation) bool {
		return c.StudentID == studentID && c.TeacherID == teacherID
	})
	if err != nil {
		return nil, fmt.Errorf("find conversation by pair: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &conv, nil
}

// Create сохраняет новую переписку
func (r *ConversationRepository) Create(ctx context.Context, conv *model.Conversation) error {
	if conv.ID == "" {
		conv.ID = base.NewID("conv", r.db.Now())
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = r.db.Now()
	}
	if err := r.conversations.Insert(ctx, *conv); err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

// Update заменяет переписку целиком по ID
func (r *ConversationRepository) Update(ctx context.Context, conv *model.Conversation) error {
	_, err := r.conversations.UpdateWhere(ctx,
		func(c model.Conversation) bool { return c.ID == conv.ID },
		func(c *model.Conversation) error {
			*c = *conv
			return nil
		},
	)
	if err != nil {
		return fmt.Errorf("update conversation %s: %w", conv.ID, err)
	}
	return nil
}

// UpdateFunc изменяет переписку через fn под блокировкой коллекции
func (r *ConversationRepository) UpdateFunc(ctx context.Context, id string, fn func(*model.Conversation)) (*model.Conversation, error) {
	updated, err := r.conversations.UpdateWhere(ctx,
		func(c model.Conversation) bool { return c.ID == id },
		func(c *model.Conversation) error {
			fn(c)
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("update conversation %s: %w", id, err)
	}
	return &updated, nil
}

// Delete удаляет переписку и все её сообщения.
// Две перезаписи под общей блокировкой: сбой хранилища между ними оставит осиротевшие сообщения.
func (r *ConversationRepository) Delete(ctx context.Context, id string) error {
	return r.db.Locks().WithKeys(ctx, func(ctx context.Context) error {
		if _, err := r.conversations.DeleteWhere(ctx, func(c model.Conversation) bool { return c.ID == id }); err != nil {
			return fmt.Errorf("delete conversation: %w", err)
		}
		if _, err := r.messages.DeleteWhere(ctx, func(m model.Message) bool { return m.ConversationID == id }); err != nil {
			return fmt.Errorf("delete conversation messages: %w", err)
		}
		return nil
	}, KeyConversations, KeyMessages)
}

// ListMessages возвращает сообщения переписки в порядке хранения
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	messages, err := r.messages.Filter(ctx, func(m model.Message) bool { return m.ConversationID == conversationID })
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// SendMessage сохраняет сообщение. Существование переписки не проверяется.
func (r *ConversationRepository) SendMessage(ctx context.Context, msg *model.Message) error {
	if msg.ID == "" {
		msg.ID = base.NewID("msg", r.db.Now())
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = r.db.Now()
	}
	if err := r.messages.Insert(ctx, *msg); err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

// UpdateMessage заменяет сообщение целиком по ID
func (r *ConversationRepository) UpdateMessage(ctx context.Context, msg *model.Message) error {
	_, err := r.messages.UpdateWhere(ctx,
		func(m model.Message) bool { return m.ID == msg.ID },
		func(m *model.Message) error {
			*m = *msg
			return nil
		},
	)
	if err != nil {
		return fmt.Errorf("update message %s: %w", msg.ID, err)
	}
	return nil
}

// DeleteMessage удаляет сообщение, отсутствие не ошибка
func (r *ConversationRepository) DeleteMessage(ctx context.Context, id string) error {
	if _, err := r.messages.DeleteWhere(ctx, func(m model.Message) bool { return m.ID == id }); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// MarkMessagesRead помечает прочитанными чужие сообщения переписки, возвращает их число
func (r *ConversationRepository) MarkMessagesRead(ctx context.Context, conversationID, readerID string) (int, error) {
	n, err := r.messages.UpdateAll(ctx,
		func(m model.Message) bool {
			return m.ConversationID == conversationID && m.SenderID != readerID && !m.Read
		},
		func(m *model.Message) { m.Read = true },
	)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	return n, nil
}
