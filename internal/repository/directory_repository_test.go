package repository

import (
	"context"
	"testing"

	"github.com/Freeeeeet/edubook/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSeedsTeachersOnce(t *testing.T) {
	ctx := context.Background()
	repos, store, _ := newTestRepositories(t)

	require.NoError(t, repos.Init(ctx))
	teachers, err := repos.Teachers.List(ctx)
	require.NoError(t, err)
	require.Len(t, teachers, 3)
	assert.Equal(t, []string{"teacher1", "teacher2", "teacher3"}, []string{teachers[0].ID, teachers[1].ID, teachers[2].ID})

	for _, key := range []string{KeyAppointments, KeyStudents, KeyConversations, KeyMessages} {
		raw, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok, key)
		assert.Equal(t, "[]", raw, key)
	}

	_, err = repos.Teachers.Update(ctx, "teacher1", model.TeacherPatch{Name: ptr("Dr. J. Smith")})
	require.NoError(t, err)
	require.NoError(t, repos.Init(ctx))

	t1, err := repos.Teachers.GetByID(ctx, "teacher1")
	require.NoError(t, err)
	assert.Equal(t, "Dr. J. Smith", t1.Name)
	assert.Equal(t, "Mathematics", t1.Subject)
}

func TestTeacherUpdate(t *testing.T) {
	ctx := context.Background()
	repos, _, _ := newTestRepositories(t)
	require.NoError(t, repos.Init(ctx))

	updated, err := repos.Teachers.Update(ctx, "teacher2", model.TeacherPatch{
		Available:    ptr(false),
		Availability: []string{"Saturday 10:00-11:00"},
	})
	require.NoError(t, err)
	assert.False(t, updated.Available)
	assert.Equal(t, []string{"Saturday 10:00-11:00"}, updated.Availability)
	assert.Equal(t, "Physics", updated.Subject)

	_, err = repos.Teachers.Update(ctx, "nobody", model.TeacherPatch{})
	assert.ErrorIs(t, err, ErrNotFound)

	missing, err := repos.Teachers.GetByID(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	added := &model.Teacher{Name: "Ms. New", Subject: "Biology"}
	require.NoError(t, repos.Teachers.Create(ctx, added))
	assert.NotEmpty(t, added.ID)
	teachers, _ := repos.Teachers.List(ctx)
	assert.Len(t, teachers, 4)
}

func TestStudentCreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	repos, _, _ := newTestRepositories(t)

	require.NoError(t, repos.Students.Create(ctx, &model.Student{ID: "u1", Name: "Ann", Email: "ann@x.com"}))

	updated, err := repos.Students.Update(ctx, "u1", model.StudentPatch{Program: ptr("Computer Science"), StudentID: ptr("ST001")})
	require.NoError(t, err)
	assert.Equal(t, "Ann", updated.Name)
	assert.Equal(t, "ST001", updated.StudentID)

	_, err = repos.Students.Update(ctx, "u2", model.StudentPatch{})
	assert.ErrorIs(t, err, ErrNotFound)

	students, err := repos.Students.List(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)
}
