package sequence_test

import (
	"context"
	"errors"
	"testing"

	"github.com/SscSPs/escrow_ledger_app/internal/apperrors"
	"github.com/SscSPs/escrow_ledger_app/internal/sequence"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSequenceNext(t *testing.T) {
	client, mock := redismock.NewClientMock()
	seq := sequence.NewRedisSequence(client)

	mock.ExpectIncr("escrow_ledger:seq:escrow_number").SetVal(1)
	mock.ExpectIncr("escrow_ledger:seq:escrow_number").SetVal(2)

	first, err := seq.Next(context.Background(), "escrow_number")
	require.NoError(t, err)
	second, err := seq.Next(context.Background(), "escrow_number")
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisSequenceNextError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	seq := sequence.NewRedisSequence(client)

	mock.ExpectIncr("escrow_ledger:seq:escrow_number").SetErr(errors.New("connection refused"))

	_, err := seq.Next(context.Background(), "escrow_number")
	assert.ErrorIs(t, err, apperrors.ErrInternal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	_, err := sequence.NewRedisClient(context.Background(), "not-a-url")
	assert.Error(t, err)
}
