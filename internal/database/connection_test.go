package database

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/pharmgx-twin-server/internal/config"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNewConnection_InvalidDSN(t *testing.T) {
	_, err := NewConnection(context.Background(), config.DatabaseConfig{}, "not a dsn", testLogger())
	assert.Error(t, err)
}

func TestNewMigrationRunner_MissingSource(t *testing.T) {
	_, err := NewMigrationRunner(
		"postgres://localhost:5432/pharmgx?sslmode=disable",
		"/nonexistent/migrations",
		testLogger(),
	)
	assert.Error(t, err)
}
