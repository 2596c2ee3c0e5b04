package config

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absfs/sealfile"
)

func TestNewConfigDefaults(t *testing.T) {
	config, err := NewConfig("")
	require.NoError(t, err)

	assert.Equal(t, DefaultListen, config.Listen)
	assert.Equal(t, uint32(log.InfoLevel), config.LogLevel)
	assert.Equal(t, int64(DefaultMaxUploadBytes), config.MaxUploadBytes)
	assert.Equal(t, sealfile.CipherAES256GCM, config.Cipher)
	assert.True(t, config.RoundtripEnabled)
	assert.False(t, config.AllowEmptyPayload)
	assert.Equal(t, NewDefaultConfig(), config)
}

func TestNewConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sealfile.yaml")
	yaml := `
listen: 127.0.0.1:9090
log:
  level: debug
upload:
  max:
    bytes: 1024
cipher: chacha20-poly1305
roundtrip:
  enabled: false
payload:
  allow:
    empty: true
batch:
  max:
    workers: 3
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0600))

	config, err := NewConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", config.Listen)
	assert.Equal(t, uint32(log.DebugLevel), config.LogLevel)
	assert.Equal(t, int64(1024), config.MaxUploadBytes)
	assert.Equal(t, sealfile.CipherChaCha20Poly1305, config.Cipher)
	assert.False(t, config.RoundtripEnabled)
	assert.True(t, config.AllowEmptyPayload)
	assert.Equal(t, 3, config.BatchMaxWorkers)

	pc := config.PipelineConfig()
	assert.Equal(t, sealfile.CipherChaCha20Poly1305, pc.Cipher)
	assert.True(t, pc.AllowEmptyPayload)
	assert.Equal(t, 3, pc.Parallel.MaxWorkers)
	assert.Equal(t, sealfile.DefaultIterations, pc.KDF.Iterations)
}

func TestNewConfigEnvOverride(t *testing.T) {
	t.Setenv("SEALFILE_LISTEN", ":7000")
	t.Setenv("SEALFILE_LOG_LEVEL", "warn")
	t.Setenv("SEALFILE_UPLOAD_MAX_BYTES", "2048")

	config, err := NewConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":7000", config.Listen)
	assert.Equal(t, uint32(log.WarnLevel), config.LogLevel)
	assert.Equal(t, int64(2048), config.MaxUploadBytes)
}

func TestNewConfigErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})

	t.Run("bad level", func(t *testing.T) {
		t.Setenv("SEALFILE_LOG_LEVEL", "chatty")
		_, err := NewConfig("")
		require.Error(t, err)
	})

	t.Run("bad cipher", func(t *testing.T) {
		t.Setenv("SEALFILE_CIPHER", "des")
		_, err := NewConfig("")
		require.Error(t, err)
		assert.True(t, sealfile.IsValidationError(err))
	})

	t.Run("non-positive upload limit", func(t *testing.T) {
		t.Setenv("SEALFILE_UPLOAD_MAX_BYTES", "0")
		_, err := NewConfig("")
		require.Error(t, err)
		assert.True(t, sealfile.IsValidationError(err))
	})
}
