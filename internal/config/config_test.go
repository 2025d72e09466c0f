package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DEFAULT_CURRENCY", "")
	t.Setenv("TAX_RATE", "not-a-number")
	t.Setenv("IMAP_SECURE", "off")
	t.Setenv("WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.DefaultCurrency)
	assert.Equal(t, 0.18, cfg.TaxRate)
	assert.False(t, cfg.IMAPSecure)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 330, cfg.TimelineUTCOffsetMin)
}

func TestRequire(t *testing.T) {
	var cfg Config
	require.Error(t, cfg.Require("IMAP_HOST", "  "))
	require.NoError(t, cfg.Require("IMAP_HOST", "imap.example.com"))
}
