package mariadb

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c14220110/optik-backend/config"
)

func TestDSN(t *testing.T) {
	cfg := &config.Config{
		DBUser:     "optik",
		DBPassword: "p@ss:word",
		DBHost:     "db.local",
		DBPort:     "3307",
		DBName:     "optik_test",
	}

	parsed, err := mysql.ParseDSN(DSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, "optik", parsed.User)
	assert.Equal(t, "p@ss:word", parsed.Passwd)
	assert.Equal(t, "db.local:3307", parsed.Addr)
	assert.Equal(t, "optik_test", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.True(t, parsed.ClientFoundRows)
	assert.True(t, parsed.MultiStatements)
}
