package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"brushquest-server/internal/models"
	"brushquest-server/internal/repository"
)

func TestPossessiveForm(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Mia", "Mia's"},
		{"James", "James'"},
		{"NICOLAS", "NICOLAS'"},
		{"Ash", "Ash's"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, possessiveForm(tt.name))
	}
}

type fakeChildRepo struct {
	repository.ChildRepository

	created *models.Child
}

func (f *fakeChildRepo) Create(ctx context.Context, child *models.Child) error {
	f.created = child
	return nil
}

func TestChildCreate_AgeValidation(t *testing.T) {
	repo := &fakeChildRepo{}
	svc := NewChildService(repo, nil, nil, zap.NewNop())

	err := svc.Create(context.Background(), &models.Child{DisplayName: "Mia", Age: 3})
	require.ErrorIs(t, err, models.ErrValidation)

	err = svc.Create(context.Background(), &models.Child{DisplayName: "Mia", Age: 11})
	require.ErrorIs(t, err, models.ErrValidation)

	err = svc.Create(context.Background(), &models.Child{Age: 6})
	require.ErrorIs(t, err, models.ErrValidation)
	assert.Nil(t, repo.created)

	err = svc.Create(context.Background(), &models.Child{DisplayName: "Mia", Age: 6})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.NotEqual(t, uuid.Nil, repo.created.ID)
}

func TestChildUpdate_AgeValidation(t *testing.T) {
	svc := NewChildService(&fakeChildRepo{}, nil, nil, zap.NewNop())

	bad := 12
	_, err := svc.Update(context.Background(), uuid.New(), models.ChildUpdate{Age: &bad})
	require.ErrorIs(t, err, models.ErrValidation)
}
