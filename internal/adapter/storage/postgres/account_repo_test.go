package postgres

import (
	"context"
	"testing"
	"time"

	"bank-ledger/internal/core/domain"
	"bank-ledger/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccount(number int64) *domain.Account {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Account{
		ID:            10,
		AccountNumber: number,
		Password:      "1234",
		Balance:       1000,
		OwnerID:       1,
		OwnerName:     "alice",
		RegisteredAt:  now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func accountColumns() []string {
	return []string{"id", "account_number", "password", "balance", "owner_id", "username",
		"registered_at", "unregistered_at", "created_at", "updated_at"}
}

func accountRow(a *domain.Account) *pgxmock.Rows {
	return pgxmock.NewRows(accountColumns()).AddRow(
		a.ID, a.AccountNumber, a.Password, a.Balance, a.OwnerID, a.OwnerName,
		a.RegisteredAt, a.UnregisteredAt, a.CreatedAt, a.UpdatedAt,
	)
}

func TestAccountRepo_NextAccountNumber(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)

	mock.ExpectQuery(`SELECT nextval\('account_number_seq'\)`).
		WillReturnRows(pgxmock.NewRows([]string{"nextval"}).AddRow(int64(1111)))
	mock.ExpectQuery(`SELECT nextval\('account_number_seq'\)`).
		WillReturnRows(pgxmock.NewRows([]string{"nextval"}).AddRow(int64(1112)))

	first, err := repo.NextAccountNumber(context.Background())
	require.NoError(t, err)
	second, err := repo.NextAccountNumber(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.FirstAccountNumber, first)
	assert.Equal(t, int64(1112), second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	a := newTestAccount(1111)
	a.ID = 0

	mock.ExpectQuery("INSERT INTO accounts .+ RETURNING id").
		WithArgs(a.AccountNumber, a.Password, a.Balance, a.OwnerID, a.RegisteredAt, a.CreatedAt, a.UpdatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(5)))

	require.NoError(t, repo.Create(context.Background(), a))
	assert.Equal(t, int64(5), a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	a := newTestAccount(1111)

	mock.ExpectQuery("SELECT .+ FROM accounts a JOIN users u .+ WHERE a.id").
		WithArgs(a.ID).
		WillReturnRows(accountRow(a))

	result, err := repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(1111), result.AccountNumber)
	assert.Equal(t, "alice", result.OwnerName)
	assert.Nil(t, result.UnregisteredAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_ListByOwner(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	a := newTestAccount(1111)
	b := newTestAccount(1112)
	b.ID = 11

	rows := accountRow(a).AddRow(
		b.ID, b.AccountNumber, b.Password, b.Balance, b.OwnerID, b.OwnerName,
		b.RegisteredAt, b.UnregisteredAt, b.CreatedAt, b.UpdatedAt,
	)
	mock.ExpectQuery("SELECT .+ WHERE a.owner_id = .+ ORDER BY a.account_number").
		WithArgs(int64(1)).
		WillReturnRows(rows)

	accounts, err := repo.ListByOwner(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, int64(1112), accounts[1].AccountNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_GetByNumberForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	a := newTestAccount(1111)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ WHERE a.account_number = .+ FOR UPDATE OF a").
		WithArgs(a.AccountNumber).
		WillReturnRows(accountRow(a))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByNumberForUpdate(context.Background(), tx, a.AccountNumber)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(1000), result.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_GetByNumberForUpdate_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FOR UPDATE OF a").
		WithArgs(int64(9999)).
		WillReturnRows(pgxmock.NewRows(accountColumns()))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByNumberForUpdate(context.Background(), tx, 9999)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_GetByNumberForUpdate_LockTimeout(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FOR UPDATE OF a").
		WithArgs(int64(1111)).
		WillReturnError(&pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"})

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByNumberForUpdate(context.Background(), tx, 1111)
	assert.Nil(t, result)
	assert.True(t, apperror.HasCode(err, "SYS_002"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_GetByIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	a := newTestAccount(1111)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ WHERE a.id = .+ FOR UPDATE OF a").
		WithArgs(a.ID).
		WillReturnRows(accountRow(a))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByIDForUpdate(context.Background(), tx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, a.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_UpdateBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE accounts SET balance").
		WithArgs(int64(899), int64(10)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.UpdateBalance(context.Background(), tx, 10, 899))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_UpdateBalance_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE accounts SET balance").
		WithArgs(int64(1), int64(10)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateBalance(context.Background(), tx, 10, 1)
	assert.ErrorContains(t, err, "account not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM accounts WHERE id").
		WithArgs(int64(10)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.Delete(context.Background(), tx, 10))
	assert.NoError(t, mock.ExpectationsWereMet())
}
