package masker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type dbConfig struct {
	DSN  string `masked:"true"`
	Port int
}

type appConfig struct {
	Name   string
	Secret string `masked:"true"`
	DB     dbConfig
}

func TestLogConfigs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	cfg := &appConfig{Name: "clientes", Secret: "supersecret", DB: dbConfig{DSN: "postgres://x", Port: 5432}}
	assert.NoError(t, LogConfigs(logger, cfg))

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()["appConfig"].(map[string]interface{})
		assert.Equal(t, "clientes", fields["Name"])
		assert.Equal(t, "s****t", fields["Secret"])
		db := fields["DB"].(map[string]interface{})
		assert.Equal(t, "p****x", db["DSN"])
		assert.Equal(t, 5432, db["Port"])
	}

	assert.ErrorIs(t, LogConfigs(logger, *cfg), ErrConfigNotPointer)
}

func TestMaskSensitiveValues(t *testing.T) {
	assert.Equal(t, "****", Secret("ab"))
	assert.Equal(t, "a****d", Secret("abcd"))
	assert.Equal(t, "***.***.***-25", TaxID("529.982.247-25"))
	assert.Equal(t, "***.***.***-**", TaxID(""))
	assert.Equal(t, "m***@empresa.com.br", Email("maria@empresa.com.br"))
	assert.Equal(t, "n****l", Email("nomail"))
}
