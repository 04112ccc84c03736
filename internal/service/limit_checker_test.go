package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bank-ledger/internal/core/domain"
	"bank-ledger/internal/core/ports/mocks"
	"bank-ledger/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestLimitChecker_CheckLimit(t *testing.T) {
	// Thursday
	asOf := time.Date(2024, time.May, 16, 15, 30, 0, 0, time.UTC)
	day := domain.StartOfDay(asOf)
	week := domain.StartOfWeek(asOf)
	month := domain.StartOfMonth(asOf)

	tests := []struct {
		name    string
		daily   int64
		weekly  int64
		monthly int64
		amount  int64
		code    string
	}{
		{"under every cap", 0, 0, 0, 100, ""},
		{"daily exactly at cap", 99_000, 99_000, 99_000, 1_000, ""},
		{"daily breach", 100_000, 100_000, 100_000, 1, apperror.CodeDailyLimitExceeded},
		{"weekly breach", 0, 450_000, 450_000, 50_001, apperror.CodeWeeklyLimitExceeded},
		{"monthly breach", 0, 0, 1_990_000, 10_001, apperror.CodeMonthlyLimitExceeded},
		{"daily wins over weekly", 100_000, 500_000, 500_000, 1, apperror.CodeDailyLimitExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			txRepo := mocks.NewMockTransactionRepository(ctrl)
			checker := NewLimitChecker(txRepo)
			tx := &mockTx{}
			ctx := context.Background()

			txRepo.EXPECT().SumOutgoing(ctx, tx, int64(1111), day, asOf).Return(tt.daily, nil)
			txRepo.EXPECT().SumOutgoing(ctx, tx, int64(1111), week, asOf).Return(tt.weekly, nil).MaxTimes(1)
			txRepo.EXPECT().SumOutgoing(ctx, tx, int64(1111), month, asOf).Return(tt.monthly, nil).MaxTimes(1)

			err := checker.CheckLimit(ctx, tx, 1111, tt.amount, asOf)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assertAppError(t, err, tt.code)
		})
	}
}

func TestLimitChecker_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	txRepo := mocks.NewMockTransactionRepository(ctrl)
	checker := NewLimitChecker(txRepo)

	txRepo.EXPECT().SumOutgoing(gomock.Any(), gomock.Any(), int64(1111), gomock.Any(), gomock.Any()).
		Return(int64(0), errors.New("timeout"))

	err := checker.CheckLimit(context.Background(), &mockTx{}, 1111, 10, time.Now())
	assertAppError(t, err, "SYS_001")
	assert.ErrorContains(t, err, "DAILY")
}
