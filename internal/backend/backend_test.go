package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"finboard/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "postgres"})
	assert.ErrorContains(t, err, "invalid backend type")

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:         "sheets",
		GoogleSpreadsheetID: "sheet-1",
		GoogleAccountsSheet: "Accounts",
		DataDir:             "seed",
	})
	require.NoError(t, err)
	assert.Equal(t, SheetsBackend, cfg.Type)
	assert.Equal(t, "sheet-1", cfg.GoogleSpreadsheetID)
	assert.Equal(t, "seed", cfg.DataDirectory)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"sqlite ok", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite missing path", Config{Type: SQLiteBackend}, true},
		{"sheets missing id", Config{Type: SheetsBackend}, true},
		{"memory ok", Config{Type: MemoryBackend}, false},
		{"unknown", Config{Type: "redis"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBackendTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"sqlite", "sheets", "memory"}, GetBackendTypeStrings())
}

func TestCreateMemoryBackend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "accounts.json"),
		[]byte(`[{"id":"a1","name":"Main","type":"current","balance":10}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "transactions.json"),
		[]byte(`[{"id":"t1","accountId":"a1","date":"2024-03-01","category":"Food","amount":"12.5","type":"EXPENSE"}]`), 0o644))

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	require.NoError(t, err)
	require.NotNil(t, res.Writer)
	assert.Nil(t, res.Pinger)
	assert.NoError(t, res.Close())

	accounts, err := res.Reader.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, 1, accounts[0].TransactionCount())
}

func TestCreateSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Close() })

	require.NotNil(t, res.Pinger)
	assert.NoError(t, res.Pinger.Ping(context.Background()))
	accounts, err := res.Reader.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SheetsBackend})
	assert.Error(t, err)
}
