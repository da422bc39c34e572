package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"telemetry-viewer/src/helpers"
	"telemetry-viewer/src/logger"
	"telemetry-viewer/src/models"
	"telemetry-viewer/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
name: viewer-test
port: 8123
presign:
  region: eu-west-1
  iot_endpoint: abc-ats.iot.eu-west-1.amazonaws.com
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "viewer-test", cfg.Name)
	assert.Equal(t, 8123, cfg.Port)
	assert.Equal(t, "none", cfg.Storage.DBType)
	assert.Equal(t, "local", cfg.Presign.Mode)
	assert.Equal(t, utils.DefaultExpiresSeconds, cfg.Presign.ExpiresSeconds)
	assert.Equal(t, uint(4), cfg.Transport.ProtocolVersion)
	require.NotNil(t, cfg.Transport.CleanSession)
	assert.True(t, *cfg.Transport.CleanSession)
	assert.Equal(t, utils.DefaultMaxSeries, cfg.Viewer.MaxSeries)
	assert.Equal(t, utils.DefaultMaxPoints, cfg.Viewer.MaxPoints)
	assert.Equal(t, utils.DefaultBaselineSamples, cfg.Viewer.BaselineSamples)
	assert.Equal(t, utils.DefaultGain, cfg.Viewer.DefaultGain)
	assert.Equal(t, "relative", cfg.Viewer.DefaultMode)
	assert.Equal(t, utils.DefaultTopic, cfg.Viewer.Topic)
	assert.Equal(t, utils.DefaultMessageLogSize, cfg.Viewer.MessageLogSize)
}

func TestParseReadsEnvironment(t *testing.T) {
	t.Setenv("AWS_REGION", "us-east-2")
	t.Setenv("IOT_ENDPOINT", "env-ats.iot.us-east-2.amazonaws.com")

	cfg, err := Parse([]byte("port: 8124\n"))
	require.NoError(t, err)
	assert.Equal(t, "us-east-2", cfg.Presign.Region)
	assert.Equal(t, "env-ats.iot.us-east-2.amazonaws.com", cfg.Presign.IoTEndpoint)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad yaml":        "port: [",
		"low port":        "port: 80\n",
		"db type":         "storage:\n  db_type: mysql\n",
		"sqlite path":     "storage:\n  db_type: sqlite\n",
		"remote endpoint": "presign:\n  mode: remote\n",
		"gain range":      "viewer:\n  gain_min: 10\n  gain_max: 5\n",
		"default gain":    "viewer:\n  default_gain: 500\n",
		"view mode":       "viewer:\n  default_mode: log\n",
		"protocol":        "transport:\n  protocol_version: 5\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			require.Error(t, err)
			var cfgErr *helpers.ConfigurationError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.MConfig, loaded.MConfig)
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, LoadEnvFile(""))
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TELEMETRY_VIEWER_TEST_KEY=loaded\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("TELEMETRY_VIEWER_TEST_KEY") })

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "loaded", os.Getenv("TELEMETRY_VIEWER_TEST_KEY"))
}

func TestWatcherReloadsViewerSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0644))

	var (
		mu   sync.Mutex
		seen []models.MViewerConfig
	)
	log := logger.NewLoggerWithWriter(os.Stderr, "test", logger.LevelError)
	w, err := NewWatcher(path, log, func(v models.MViewerConfig) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, v)
	})
	require.NoError(t, err)
	defer w.Close()

	updated := minimalYAML + "viewer:\n  default_mode: absolute\n  default_gain: 42\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, v := range seen {
			if v.DefaultMode == "absolute" && v.DefaultGain == 42 {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)

	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}

func TestParseKeepsExplicitCleanSession(t *testing.T) {
	cfg, err := Parse([]byte("port: 8125\ntransport:\n  clean_session: false\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Transport.CleanSession)
	assert.False(t, *cfg.Transport.CleanSession)
	assert.False(t, cfg.Transport.Clean())
}

func TestWatcherIgnoresUnrelatedChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0644))

	var (
		mu   sync.Mutex
		seen []models.MViewerConfig
	)
	log := logger.NewLoggerWithWriter(os.Stderr, "test", logger.LevelError)
	w, err := NewWatcher(path, log, func(v models.MViewerConfig) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, v)
	})
	require.NoError(t, err)
	defer w.Close()

	// Same viewer section, different log level
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML+"log_level: DEBUG\n"), 0644))
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML+"log_level: DEBUG\nviewer:\n  default_gain: 42\n"), 0644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, v := range seen {
		assert.Equal(t, 42, v.DefaultGain)
	}
}
