package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bank-ledger/internal/core/domain"
	"bank-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestEventDispatcher_Dispatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockEventPublisher(ctrl)
	d := NewEventDispatcher(pub, newTestLogger())

	txn := &domain.Transaction{ID: uuid.New(), Type: domain.TransactionTypeDeposit, Amount: 10}

	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, event domain.TransactionEvent) error {
			assert.Equal(t, txn.ID, event.TransactionID)
			assert.Equal(t, domain.TransactionTypeDeposit, event.Type)
			return nil
		},
	)
	pub.EXPECT().Close().Return(nil)

	d.Dispatch(txn)
	require.NoError(t, d.Close(context.Background()))
}

func TestEventDispatcher_RetriesThenSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockEventPublisher(ctrl)
	d := NewEventDispatcher(pub, newTestLogger())
	d.intervals = []time.Duration{time.Millisecond, time.Millisecond}

	gomock.InOrder(
		pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down")),
		pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil),
	)
	pub.EXPECT().Close().Return(nil)

	d.Dispatch(&domain.Transaction{ID: uuid.New()})
	require.NoError(t, d.Close(context.Background()))
}

func TestEventDispatcher_GivesUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockEventPublisher(ctrl)
	d := NewEventDispatcher(pub, newTestLogger())
	d.intervals = []time.Duration{time.Millisecond, time.Millisecond}

	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down")).Times(3)
	pub.EXPECT().Close().Return(nil)

	d.Dispatch(&domain.Transaction{ID: uuid.New()})
	require.NoError(t, d.Close(context.Background()))
}

func TestEventDispatcher_NilPublisher(t *testing.T) {
	d := NewEventDispatcher(nil, newTestLogger())
	d.Dispatch(&domain.Transaction{ID: uuid.New()})
	assert.NoError(t, d.Close(context.Background()))

	var none *EventDispatcher
	none.Dispatch(&domain.Transaction{ID: uuid.New()})
	assert.NoError(t, none.Close(context.Background()))
}
