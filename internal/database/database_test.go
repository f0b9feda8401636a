package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portion-tracker-api/internal/models"
)

func TestConnectSQLiteAndMigrate(t *testing.T) {
	db, err := Connect("sqlite", "file:database_test?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, model := range models.All() {
		require.True(t, db.Migrator().HasTable(model))
	}
	require.True(t, db.Migrator().HasTable("user_departments"))
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect("oracle", "dsn")
	require.Error(t, err)

	_, err = Connect("sqlite", "")
	require.Error(t, err)
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	disabled, err := ConnectRedis(context.Background(), "")
	require.NoError(t, err)
	require.Nil(t, disabled)

	_, err = ConnectRedis(context.Background(), "://bad")
	require.Error(t, err)
}

func TestConnectNATSDisabled(t *testing.T) {
	conn, err := ConnectNATS("", "portion-tracker", zerolog.Nop())
	require.NoError(t, err)
	require.Nil(t, conn)
}
