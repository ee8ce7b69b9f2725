package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylane/flightsearch/backend/internal/domain/entities"
	apperrors "github.com/skylane/flightsearch/backend/pkg/errors"
)

func TestSessionStore_PutAndGet(t *testing.T) {
	store := NewSessionStore(nil, time.Minute)

	result := &entities.SearchResult{
		SessionToken: "token-1",
		Status:       entities.SearchStatusComplete,
	}
	require.NoError(t, store.Put(context.Background(), result))

	got, err := store.Get(context.Background(), "token-1")
	require.NoError(t, err)
	assert.Equal(t, "token-1", got.SessionToken)
	assert.Equal(t, entities.SearchStatusComplete, got.Status)
}

func TestSessionStore_UnknownTokenNotFound(t *testing.T) {
	store := NewSessionStore(nil, time.Minute)

	_, err := store.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestSessionStore_ExpiredTokenNotFound(t *testing.T) {
	store := NewSessionStore(nil, -time.Second)

	result := &entities.SearchResult{SessionToken: "token-2", Status: entities.SearchStatusComplete}
	require.NoError(t, store.Put(context.Background(), result))

	_, err := store.Get(context.Background(), "token-2")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestSessionStore_MissingTokenRejected(t *testing.T) {
	store := NewSessionStore(nil, time.Minute)

	err := store.Put(context.Background(), &entities.SearchResult{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}
