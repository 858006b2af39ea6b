package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/registrar-api/internal/domain"
	"github.com/phrazzld/registrar-api/internal/service/auth"
)

func newStudentService(t *testing.T) (StudentService, *memStudentStore) {
	t.Helper()
	mem := newMemStore()
	studentStore := &memStudentStore{m: mem}
	svc, err := NewStudentService(studentStore, nil)
	require.NoError(t, err)
	return svc, studentStore
}

func TestCreateStudentHashesPassword(t *testing.T) {
	svc, studentStore := newStudentService(t)
	ctx := context.Background()

	student, err := domain.NewStudent(42, "password123")
	require.NoError(t, err)

	require.NoError(t, svc.CreateStudent(ctx, student))

	assert.Empty(t, student.Password, "plaintext password must be cleared")
	assert.NotEmpty(t, student.Salt)
	assert.NotEmpty(t, student.HashedPassword)
	assert.Equal(t, auth.HashPassword("password123", student.Salt), student.HashedPassword,
		"stored hash must be the derivation of the password with the stored salt")

	stored, err := studentStore.GetByID(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, student.HashedPassword, stored.HashedPassword)
}

func TestCreateStudentRejectsShortPassword(t *testing.T) {
	svc, _ := newStudentService(t)

	student, err := domain.NewStudent(42, "password123")
	require.NoError(t, err)
	student.Password = "short1"

	err = svc.CreateStudent(context.Background(), student)
	assert.ErrorIs(t, err, domain.ErrPasswordTooShort)
	assert.Empty(t, student.HashedPassword, "no hashing may happen for an invalid password")
}

func TestCreateStudentRequiresPassword(t *testing.T) {
	svc, _ := newStudentService(t)

	student, err := domain.NewStudent(42, "password123")
	require.NoError(t, err)
	student.Password = ""

	err = svc.CreateStudent(context.Background(), student)
	assert.ErrorIs(t, err, ErrPasswordRequired)
}

func TestUpdateStudentPreservesCredentialWithoutPassword(t *testing.T) {
	svc, _ := newStudentService(t)
	ctx := context.Background()

	student, err := domain.NewStudent(42, "password123")
	require.NoError(t, err)
	require.NoError(t, svc.CreateStudent(ctx, student))

	origHash := student.HashedPassword
	origSalt := student.Salt

	// Profile edit without a password: the credential must survive.
	updated := *student
	updated.Password = ""
	updated.HashedPassword = ""
	updated.Salt = ""
	updated.FirstName = "Ada"

	require.NoError(t, svc.UpdateStudent(ctx, &updated))
	assert.Equal(t, origHash, updated.HashedPassword,
		"profile edit must not invalidate the stored password")
	assert.Equal(t, origSalt, updated.Salt)
}

func TestUpdateStudentRehashesWithPassword(t *testing.T) {
	svc, _ := newStudentService(t)
	ctx := context.Background()

	student, err := domain.NewStudent(42, "password123")
	require.NoError(t, err)
	require.NoError(t, svc.CreateStudent(ctx, student))

	origHash := student.HashedPassword
	origSalt := student.Salt

	updated := *student
	updated.Password = "newpassword456"

	require.NoError(t, svc.UpdateStudent(ctx, &updated))
	assert.Empty(t, updated.Password)
	assert.NotEqual(t, origSalt, updated.Salt, "credential update must generate a fresh salt")
	assert.NotEqual(t, origHash, updated.HashedPassword)

	verifier := auth.NewPBKDF2Verifier()
	assert.True(t, verifier.Verify("newpassword456", updated.HashedPassword, updated.Salt))
	assert.False(t, verifier.Verify("password123", updated.HashedPassword, updated.Salt))
}

func TestListStudentsExcludesReservedAdmin(t *testing.T) {
	svc, _ := newStudentService(t)
	ctx := context.Background()

	admin, err := domain.NewStudent(domain.ReservedAdminNumber, "password123")
	require.NoError(t, err)
	admin.Role = domain.RoleAdmin
	require.NoError(t, svc.CreateStudent(ctx, admin))

	regular, err := domain.NewStudent(42, "password123")
	require.NoError(t, err)
	require.NoError(t, svc.CreateStudent(ctx, regular))

	students, err := svc.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 1, "reserved admin must be hidden from listings")
	assert.Equal(t, regular.ID, students[0].ID)
}
