package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Freeeeeet/edubook/internal/activity"
	"github.com/Freeeeeet/edubook/internal/model"
	"github.com/Freeeeeet/edubook/internal/repository"
	"github.com/Freeeeeet/edubook/internal/repository/base"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// StartConversationRequest первое сообщение новой переписки
type StartConversationRequest struct {
	StudentID string `validate:"required"`
	TeacherID string `validate:"required"`
	Message   string `validate:"required"`
}

type MessagingService struct {
	db            *base.Repository
	conversations *repository.ConversationRepository
	teachers      *repository.TeacherRepository
	students      *repository.StudentRepository
	activity      *activity.Logger
	validate      *validator.Validate
	logger        *zap.Logger
}

func NewMessagingService(repos *repository.Repositories, activityLog *activity.Logger, logger *zap.Logger) *MessagingService {
	return &MessagingService{
		db:            repos.DB,
		conversations: repos.Conversations,
		teachers:      repos.Teachers,
		students:      repos.Students,
		activity:      activityLog.With("Messaging"),
		validate:      validator.New(),
		logger:        logger,
	}
}

// StartConversation открывает переписку студента с учителем и отправляет первое сообщение.
// Если переписка этой пары уже есть, сообщение уходит в неё.
func (s *MessagingService) StartConversation(ctx context.Context, actor Actor, req StartConversationRequest) (*model.Conversation, error) {
	switch actor.Role {
	case model.RoleStudent:
		req.StudentID = actor.ID
	case model.RoleTeacher:
		req.TeacherID = actor.ID
	default:
		return nil, ErrPermissionDenied
	}
	req.Message = strings.TrimSpace(req.Message)

	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	teacher, err := s.teachers.GetByID(ctx, req.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	if teacher == nil {
		return nil, fmt.Errorf("teacher %s: %w", req.TeacherID, ErrNotFound)
	}

	studentName := req.StudentID
	student, err := s.students.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student != nil && student.Name != "" {
		studentName = student.Name
	}

	var conv *model.Conversation
	created := false

	// Поиск пары и создание под одной блокировкой: два параллельных старта дают одну переписку
	err = s.db.Locks().WithKeys(ctx, func(ctx context.Context) error {
		existing, err := s.conversations.FindByPair(ctx, req.StudentID, req.TeacherID)
		if err != nil {
			return err
		}
		if existing != nil {
			if _, err := s.Send(ctx, actor, existing.ID, req.Message); err != nil {
				return err
			}
			conv, err = s.conversations.GetByID(ctx, existing.ID)
			return err
		}

		now := s.db.Now()
		conv = &model.Conversation{
			ID:              fmt.Sprintf("conv_%d_%s_%s", now.UnixMilli(), req.StudentID, req.TeacherID),
			StudentID:       req.StudentID,
			TeacherID:       req.TeacherID,
			TeacherName:     teacher.Name,
			StudentName:     studentName,
			LastMessage:     req.Message,
			LastMessageTime: now,
			CreatedAt:       now,
		}
		if err := s.conversations.Create(ctx, conv); err != nil {
			return err
		}
		created = true

		return s.conversations.SendMessage(ctx, &model.Message{
			ConversationID: conv.ID,
			SenderID:       actor.ID,
			SenderName:     displayOr(actor.Name, actor.ID),
			Message:        req.Message,
			Timestamp:      now,
		})
	}, repository.KeyConversations, repository.KeyMessages)
	if err != nil {
		return nil, fmt.Errorf("start conversation: %w", err)
	}

	if created {
		s.logger.Info("Conversation started",
			zap.String("conversation_id", conv.ID),
			zap.String("student_id", conv.StudentID),
			zap.String("teacher_id", conv.TeacherID),
		)
		s.activity.LogUserAction(ctx, actor.ID, "start_conversation", map[string]any{"conversationId": conv.ID})
	}

	return conv, nil
}

// Send отправляет сообщение участника и обновляет сводку переписки
func (s *MessagingService) Send(ctx context.Context, actor Actor, conversationID, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty message", ErrValidation)
	}

	if _, err := s.participantConversation(ctx, actor, conversationID); err != nil {
		return nil, err
	}

	msg := &model.Message{
		ConversationID: conversationID,
		SenderID:       actor.ID,
		SenderName:     displayOr(actor.Name, actor.ID),
		Message:        text,
		Timestamp:      s.db.Now(),
	}

	// Сначала сводка: если переписку успели удалить, сообщение не сохраняется
	err := s.db.Locks().WithKeys(ctx, func(ctx context.Context) error {
		_, err := s.conversations.UpdateFunc(ctx, conversationID, func(c *model.Conversation) {
			c.LastMessage = text
			c.LastMessageTime = msg.Timestamp
			c.UnreadCount++
		})
		if err != nil {
			return err
		}
		return s.conversations.SendMessage(ctx, msg)
	}, repository.KeyConversations, repository.KeyMessages)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	s.logger.Info("Message sent",
		zap.String("conversation_id", conversationID),
		zap.String("message_id", msg.ID),
		zap.String("sender_id", actor.ID),
	)

	return msg, nil
}

// Open возвращает сообщения переписки, сбрасывает счётчик непрочитанных и помечает чужие сообщения прочитанными
func (s *MessagingService) Open(ctx context.Context, actor Actor, conversationID string) ([]model.Message, error) {
	conv, err := s.participantConversation(ctx, actor, conversationID)
	if err != nil {
		return nil, err
	}

	if conv.UnreadCount > 0 {
		if _, err := s.conversations.UpdateFunc(ctx, conversationID, func(c *model.Conversation) {
			c.UnreadCount = 0
		}); err != nil {
			return nil, err
		}
	}

	marked, err := s.conversations.MarkMessagesRead(ctx, conversationID, actor.ID)
	if err != nil {
		return nil, err
	}
	if marked > 0 {
		s.logger.Debug("Messages marked as read",
			zap.String("conversation_id", conversationID),
			zap.Int("count", marked),
		)
	}

	return s.sortedMessages(ctx, conversationID)
}

// ListConversations переписки пользователя, последние активные первыми
func (s *MessagingService) ListConversations(ctx context.Context, actor Actor) ([]model.Conversation, error) {
	conversations, err := s.conversations.ListForParticipant(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastMessageTime.After(conversations[j].LastMessageTime)
	})
	return conversations, nil
}

// Messages сообщения переписки по времени отправки, без отметки о прочтении
func (s *MessagingService) Messages(ctx context.Context, actor Actor, conversationID string) ([]model.Message, error) {
	if _, err := s.participantConversation(ctx, actor, conversationID); err != nil {
		return nil, err
	}
	return s.sortedMessages(ctx, conversationID)
}

// Delete удаляет переписку вместе с сообщениями. Удаление отсутствующей переписки не ошибка.
func (s *MessagingService) Delete(ctx context.Context, actor Actor, conversationID string) error {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv == nil {
		return nil
	}
	if !actor.IsAdmin() && !conv.HasParticipant(actor.ID) {
		return ErrPermissionDenied
	}

	if err := s.conversations.Delete(ctx, conversationID); err != nil {
		return err
	}

	s.logger.Info("Conversation deleted",
		zap.String("conversation_id", conversationID),
		zap.String("actor_id", actor.ID),
	)
	s.activity.LogUserAction(ctx, actor.ID, "delete_conversation", map[string]any{"conversationId": conversationID})
	return nil
}

func (s *MessagingService) participantConversation(ctx context.Context, actor Actor, conversationID string) (*model.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	if !conv.HasParticipant(actor.ID) {
		return nil, ErrPermissionDenied
	}
	return conv, nil
}

func (s *MessagingService) sortedMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	messages, err := s.conversations.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
	return messages, nil
}
