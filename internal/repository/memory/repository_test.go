package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/repository"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/repository/repotest"
)

func TestRepository_DocumentStore(t *testing.T) {
	repotest.Run(t, NewRepository())
}

func TestRepository_Get_ReturnsCopy(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	assert.NoError(t, repo.Upsert(ctx, repository.CollectionProfiles, repository.Document{Key: "u", Body: []byte(`{"a":1}`)}))

	doc, err := repo.Get(ctx, repository.CollectionProfiles, "u")
	assert.NoError(t, err)
	doc.Body[0] = 'X'

	again, err := repo.Get(ctx, repository.CollectionProfiles, "u")
	assert.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(again.Body))
}

func TestRepository_CanceledContext(t *testing.T) {
	repo := NewRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, repo.Upsert(ctx, repository.CollectionProfiles, repository.Document{Key: "u"}), context.Canceled)
}
