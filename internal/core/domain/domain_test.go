package domain

import (
	"testing"
	"time"

	"bank-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferFee(t *testing.T) {
	tests := []struct {
		amount int64
		want   int64
	}{
		{0, 0},
		{1, 0},
		{49, 0},
		{50, 1},
		{100, 1},
		{149, 1},
		{150, 2},
		{1_000, 10},
		{99_999, 1_000},
		{100_000, 1_000},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TransferFee(tt.amount), "fee(%d)", tt.amount)
	}
}

func TestAccount_CheckOwner(t *testing.T) {
	a := &Account{OwnerID: 7}

	assert.NoError(t, a.CheckOwner(7))
	assert.True(t, apperror.HasCode(a.CheckOwner(8), apperror.CodeNotOwner))
}

func TestAccount_CheckPassword(t *testing.T) {
	a := &Account{Password: "1234"}

	assert.NoError(t, a.CheckPassword("1234"))
	assert.True(t, apperror.HasCode(a.CheckPassword("4321"), apperror.CodeWrongPassword))
	assert.True(t, apperror.HasCode(a.CheckPassword(""), apperror.CodeWrongPassword))
}

func TestAccount_CheckSufficientFunds(t *testing.T) {
	a := &Account{Balance: 101}

	assert.NoError(t, a.CheckSufficientFunds(100, 1))
	assert.True(t, apperror.HasCode(a.CheckSufficientFunds(100, 2), apperror.CodeInsufficientBalance))
}

func TestAccount_Withdraw(t *testing.T) {
	t.Run("exact balance", func(t *testing.T) {
		a := &Account{Balance: 500}
		require.NoError(t, a.Withdraw(500, 0))
		assert.Equal(t, int64(0), a.Balance)
	})

	t.Run("one over balance leaves balance untouched", func(t *testing.T) {
		a := &Account{Balance: 500}
		err := a.Withdraw(501, 0)
		assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientBalance))
		assert.Equal(t, int64(500), a.Balance)
	})

	t.Run("fee is debited", func(t *testing.T) {
		a := &Account{Balance: 1000}
		require.NoError(t, a.Withdraw(100, TransferFee(100)))
		assert.Equal(t, int64(899), a.Balance)
	})
}

func TestAccount_Deposit(t *testing.T) {
	a := &Account{Balance: 10}
	a.Deposit(90)
	assert.Equal(t, int64(100), a.Balance)
}

func TestLimitWindows_Boundaries(t *testing.T) {
	// Thursday
	asOf := time.Date(2024, time.May, 16, 15, 30, 0, 0, time.UTC)
	windows := LimitWindows(asOf)
	require.Len(t, windows, 3)

	assert.Equal(t, LimitPeriodDaily, windows[0].Period)
	assert.Equal(t, time.Date(2024, time.May, 16, 0, 0, 0, 0, time.UTC), windows[0].Start)
	assert.Equal(t, DailyTransferLimit, windows[0].Cap)

	assert.Equal(t, LimitPeriodWeekly, windows[1].Period)
	assert.Equal(t, time.Date(2024, time.May, 13, 0, 0, 0, 0, time.UTC), windows[1].Start)
	assert.Equal(t, WeeklyTransferLimit, windows[1].Cap)

	assert.Equal(t, LimitPeriodMonthly, windows[2].Period)
	assert.Equal(t, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), windows[2].Start)
	assert.Equal(t, MonthlyTransferLimit, windows[2].Cap)

	for _, w := range windows {
		assert.Equal(t, asOf, w.End)
	}
}

func TestStartOfWeek(t *testing.T) {
	monday := time.Date(2024, time.April, 29, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   time.Time
	}{
		{"monday midnight", monday},
		{"monday noon", monday.Add(12 * time.Hour)},
		{"wednesday crossing month", time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)},
		{"sunday night", time.Date(2024, time.May, 5, 23, 59, 59, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, monday, StartOfWeek(tt.in))
		})
	}
}

func TestStartOfDay_KeepsLocation(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	asOf := time.Date(2024, time.January, 1, 0, 30, 0, 0, loc)

	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, loc), StartOfDay(asOf))
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, loc), StartOfMonth(asOf))
	// 2024-01-01 is a Monday.
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, loc), StartOfWeek(asOf))
}

func TestLimitWindow_ExceededAndErr(t *testing.T) {
	w := LimitWindow{Period: LimitPeriodDaily, Cap: DailyTransferLimit}

	assert.False(t, w.Exceeded(99_999, 1))
	assert.True(t, w.Exceeded(100_000, 1))
	assert.Equal(t, apperror.CodeDailyLimitExceeded, w.Err().Code)

	assert.Equal(t, apperror.CodeWeeklyLimitExceeded, LimitWindow{Period: LimitPeriodWeekly}.Err().Code)
	assert.Equal(t, apperror.CodeMonthlyLimitExceeded, LimitWindow{Period: LimitPeriodMonthly}.Err().Code)
}

func TestParseTransactionType(t *testing.T) {
	tests := []struct {
		in   string
		want TransactionType
		ok   bool
	}{
		{"", TransactionTypeAll, true},
		{"all", TransactionTypeAll, true},
		{"withdraw", TransactionTypeWithdraw, true},
		{"DEPOSIT", TransactionTypeDeposit, true},
		{" Transfer ", TransactionTypeTransfer, true},
		{"refund", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseTransactionType(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestTransactionType_IsOutgoing(t *testing.T) {
	assert.True(t, TransactionTypeWithdraw.IsOutgoing())
	assert.True(t, TransactionTypeTransfer.IsOutgoing())
	assert.False(t, TransactionTypeDeposit.IsOutgoing())
	assert.False(t, TransactionTypeAll.IsOutgoing())
}

func TestTransaction_Sides(t *testing.T) {
	from := &Account{ID: 1, AccountNumber: 1111, Balance: 899}
	to := &Account{ID: 2, AccountNumber: 1112, Balance: 100}

	tx := &Transaction{ID: uuid.New(), Type: TransactionTypeTransfer, Amount: 100, Fee: 1}
	tx.SetWithdrawSide(from)
	tx.SetDepositSide(to)

	// Snapshots must not track later mutations.
	from.Balance = 0

	assert.Equal(t, int64(899), *tx.WithdrawAccountBalance)
	assert.Equal(t, int64(1112), *tx.DepositAccountNumber)
	assert.True(t, tx.Touches(1))
	assert.True(t, tx.Touches(2))
	assert.False(t, tx.Touches(3))
}

func TestNewTransactionEvent_Key(t *testing.T) {
	tx := &Transaction{ID: uuid.New(), Type: TransactionTypeDeposit, Amount: 10}
	tx.SetDepositSide(&Account{ID: 2, AccountNumber: 1112})

	ev := NewTransactionEvent(tx)
	assert.Equal(t, tx.ID, ev.TransactionID)
	assert.Equal(t, "1112", ev.Key())

	tx.SetWithdrawSide(&Account{ID: 1, AccountNumber: 1111})
	assert.Equal(t, "1111", NewTransactionEvent(tx).Key())

	assert.Equal(t, tx.ID.String(), TransactionEvent{TransactionID: tx.ID}.Key())
}

func TestBuildIdempotencyKey(t *testing.T) {
	assert.Equal(t, "42:TRANSFER:abc-1", BuildIdempotencyKey(42, TransactionTypeTransfer, "abc-1"))
}
