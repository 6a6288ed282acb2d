package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTestDBConfig(t *testing.T) {
	t.Run("defaults to the local compose database", func(t *testing.T) {
		for _, key := range []string{"TEST_DB_HOST", "TEST_DB_PORT", "TEST_DB_USER", "TEST_DB_PASSWORD", "TEST_DB_NAME"} {
			t.Setenv(key, "")
		}

		cfg := DefaultTestDBConfig()
		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, "55432", cfg.Port)
		assert.Equal(t, "courtlist", cfg.User)
		assert.Equal(t, "courtlist", cfg.Password)
		assert.Equal(t, "courtlist", cfg.DBName)
	})

	t.Run("respects TEST_DB_PORT", func(t *testing.T) {
		t.Setenv("TEST_DB_PORT", "5432")
		t.Setenv("TEST_DB_HOST", "postgres")

		cfg := DefaultTestDBConfig()
		assert.Equal(t, "postgres", cfg.Host)
		assert.Equal(t, "5432", cfg.Port)
	})
}

func TestRunConcurrent(t *testing.T) {
	errs := RunConcurrent(
		func() error { return nil },
		func() error { return assert.AnError },
	)
	assert.Len(t, errs, 2)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], assert.AnError)
}

func TestTestDBConfigDSN(t *testing.T) {
	t.Setenv("DB_SSL_MODE", "")
	cfg := TestDBConfig{Host: "db", Port: "5432", User: "u", Password: "p@ss", DBName: "courtlist"}

	assert.Equal(t, "postgres://u:p%40ss@db:5432/courtlist?sslmode=disable", cfg.DSN(""))
	assert.Equal(t,
		"postgres://u:p%40ss@db:5432/courtlist?search_path=t_abc%2Cpublic&sslmode=disable",
		cfg.DSN("t_abc"),
	)
}

func TestEnvBool(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " y "} {
		t.Setenv("TESTUTIL_FLAG", v)
		assert.True(t, envBool("TESTUTIL_FLAG"), v)
	}
	t.Setenv("TESTUTIL_FLAG", "off")
	assert.False(t, envBool("TESTUTIL_FLAG"))
}
