package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/Freeeeeet/edubook/internal/kvstore"
	"github.com/Freeeeeet/edubook/internal/model"
	"github.com/Freeeeeet/edubook/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartConversation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	conv, err := env.messaging.StartConversation(ctx, student, StartConversationRequest{
		TeacherID: "teacher1",
		Message:   "  Hello, can we meet?  ",
	})
	require.NoError(t, err)

	assert.Regexp(t, `^conv_\d+_s1_teacher1$`, conv.ID)
	assert.Equal(t, "Dr. John Smith", conv.TeacherName)
	assert.Equal(t, "Sam Student", conv.StudentName)
	assert.Equal(t, "Hello, can we meet?", conv.LastMessage)
	assert.Equal(t, 0, conv.UnreadCount)

	msgs, err := env.messaging.Messages(ctx, teacher, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Sam Student", msgs[0].SenderName)
	assert.False(t, msgs[0].Read)

	// повторный запрос той же пары пишет в существующую переписку
	again, err := env.messaging.StartConversation(ctx, student, StartConversationRequest{
		TeacherID: "teacher1",
		Message:   "Following up",
	})
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)
	assert.Equal(t, "Following up", again.LastMessage)

	list, err := env.messaging.ListConversations(ctx, student)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStartConversationValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.messaging.StartConversation(ctx, student, StartConversationRequest{TeacherID: "teacher1", Message: "   "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.messaging.StartConversation(ctx, student, StartConversationRequest{TeacherID: "nobody", Message: "hi"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.messaging.StartConversation(ctx, admin, StartConversationRequest{StudentID: "s1", TeacherID: "teacher1", Message: "hi"})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = env.messaging.StartConversation(ctx, teacher, StartConversationRequest{Message: "hi"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSendAndOpen(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	conv, err := env.messaging.StartConversation(ctx, student, StartConversationRequest{TeacherID: "teacher1", Message: "Hi"})
	require.NoError(t, err)

	_, err = env.messaging.Send(ctx, other, conv.ID, "intruding")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = env.messaging.Send(ctx, teacher, "conv_missing", "hello")
	assert.ErrorIs(t, err, ErrNotFound)

	reply, err := env.messaging.Send(ctx, teacher, conv.ID, "Sure, Tuesday?")
	require.NoError(t, err)
	assert.Regexp(t, `^msg_\d+_[0-9a-f]{9}$`, reply.ID)

	stored, err := env.repos.Conversations.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sure, Tuesday?", stored.LastMessage)
	assert.Equal(t, 1, stored.UnreadCount)
	assert.Equal(t, reply.Timestamp, stored.LastMessageTime)

	msgs, err := env.messaging.Open(ctx, student, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Hi", msgs[0].Message)
	assert.False(t, msgs[0].Read, "own message stays unread")
	assert.True(t, msgs[1].Read)

	stored, err = env.repos.Conversations.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.UnreadCount)
}

func TestListConversationsNewestFirst(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	first, err := env.messaging.StartConversation(ctx, student, StartConversationRequest{TeacherID: "teacher1", Message: "one"})
	require.NoError(t, err)
	second, err := env.messaging.StartConversation(ctx, student, StartConversationRequest{TeacherID: "teacher2", Message: "two"})
	require.NoError(t, err)

	list, err := env.messaging.ListConversations(ctx, student)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	_, err = env.messaging.Send(ctx, student, first.ID, "bump")
	require.NoError(t, err)

	list, err = env.messaging.ListConversations(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, first.ID, list[0].ID)
}

func TestDeleteConversation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	conv, err := env.messaging.StartConversation(ctx, student, StartConversationRequest{TeacherID: "teacher1", Message: "Hi"})
	require.NoError(t, err)

	assert.ErrorIs(t, env.messaging.Delete(ctx, other, conv.ID), ErrPermissionDenied)
	require.NoError(t, env.messaging.Delete(ctx, teacher, conv.ID))
	require.NoError(t, env.messaging.Delete(ctx, teacher, conv.ID))

	msgs, err := env.repos.Conversations.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	list, err := env.messaging.ListConversations(ctx, student)
	require.NoError(t, err)
	assert.Empty(t, list)

	entries, err := env.activity.Entries(ctx, model.ActivityInfo, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "User action: delete_conversation", entries[0].Message)
}

func TestSendToConversationDeletedConcurrently(t *testing.T) {
	ctx := context.Background()
	store := &vanishingStore{Store: kvstore.NewMemoryStore()}
	env := newTestEnvWithStore(t, store)

	conv, err := env.messaging.StartConversation(ctx, student, StartConversationRequest{TeacherID: "teacher1", Message: "first"})
	require.NoError(t, err)

	// переписка исчезает сразу после проверки участника
	store.arm(repository.KeyConversations)
	_, err = env.messaging.Send(ctx, student, conv.ID, "second")
	assert.ErrorIs(t, err, ErrNotFound)

	msgs, err := env.repos.Conversations.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "first", msgs[0].Message)
}

func TestConcurrentStartConversationSamePair(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	const workers = 16
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, err := env.messaging.StartConversation(ctx, student, StartConversationRequest{
				TeacherID: "teacher1",
				Message:   fmt.Sprintf("hello %d", i),
			})
			if assert.NoError(t, err) {
				ids[i] = conv.ID
			}
		}(i)
	}
	wg.Wait()

	list, err := env.messaging.ListConversations(ctx, student)
	require.NoError(t, err)
	require.Len(t, list, 1)
	for _, id := range ids {
		assert.Equal(t, list[0].ID, id)
	}

	msgs, err := env.repos.Conversations.ListMessages(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Len(t, msgs, workers)
}
