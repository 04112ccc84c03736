package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"bank-ledger/config"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:            "localhost",
		Port:            5432,
		User:            "testuser",
		Password:        "testpass",
		DBName:          "testdb",
		SSLMode:         "disable",
		MaxConns:        20,
		MinConns:        5,
		ConnMaxLifetime: 30 * time.Minute,
		LockTimeout:     2 * time.Second,
	}

	poolCfg, err := PoolConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, int32(20), poolCfg.MaxConns)
	assert.Equal(t, int32(5), poolCfg.MinConns)
	assert.Equal(t, 30*time.Minute, poolCfg.MaxConnLifetime)
	assert.Equal(t, "localhost", poolCfg.ConnConfig.Host)
	assert.Equal(t, uint16(5432), poolCfg.ConnConfig.Port)
	assert.Equal(t, "testdb", poolCfg.ConnConfig.Database)
	assert.Equal(t, "bank-ledger", poolCfg.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, "2000", poolCfg.ConnConfig.RuntimeParams["lock_timeout"])
}

func TestPoolConfig_NoLockTimeoutByDefault(t *testing.T) {
	poolCfg, err := PoolConfig(config.DatabaseConfig{
		Host: "localhost", Port: 5432, User: "u", DBName: "d", SSLMode: "disable",
	})
	require.NoError(t, err)

	_, set := poolCfg.ConnConfig.RuntimeParams["lock_timeout"]
	assert.False(t, set)
}

func TestPoolConfig_InvalidDSN(t *testing.T) {
	_, err := PoolConfig(config.DatabaseConfig{Host: "localhost", Port: -1, SSLMode: "bogus"})
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE SEQUENCE IF NOT EXISTS account_number_seq START WITH 1111").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, Migrate(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE SEQUENCE").WillReturnError(errors.New("permission denied"))

	err = Migrate(context.Background(), mock)
	assert.ErrorContains(t, err, "apply schema")
}

func TestSchema_Embedded(t *testing.T) {
	for _, table := range []string{"users", "accounts", "transactions", "idempotency_logs", "audit_logs"} {
		assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, schemaSQL, "ON DELETE CASCADE")
}
