package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Swind/go-task-manager/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskmanager.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		want    func(*testing.T, Settings)
	}{
		{
			name: "file values",
			content: `
name: workers
capacity: 8
monitor_interval: 2s
stop_timeout: 1m
backpressure: reject
max_queue_size: 100
`,
			want: func(t *testing.T, s Settings) {
				assert.Equal(t, "workers", s.Name)
				assert.Equal(t, 8, s.Capacity)
				assert.Equal(t, 2*time.Second, s.MonitorInterval)
				assert.Equal(t, time.Minute, s.StopTimeout)
				assert.Equal(t, "reject", s.Backpressure)
				assert.Equal(t, 100, s.MaxQueueSize)
				assert.Equal(t, core.DefaultHistorySize, s.HistorySize)
			},
		},
		{
			name:    "empty file uses defaults",
			content: "",
			want: func(t *testing.T, s Settings) {
				assert.Equal(t, Defaults(), s)
			},
		},
		{
			name:    "environment overrides file",
			content: "capacity: 8\n",
			env: map[string]string{
				"TASKMANAGER_CAPACITY":     "16",
				"TASKMANAGER_STOP_TIMEOUT": "5s",
			},
			want: func(t *testing.T, s Settings) {
				assert.Equal(t, 16, s.Capacity)
				assert.Equal(t, 5*time.Second, s.StopTimeout)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			s, err := Load(writeConfig(t, tt.content))

			require.NoError(t, err)
			tt.want(t, s)
		})
	}
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv("TASKMANAGER_NAME", "from-env")

	s, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "from-env", s.Name)
	assert.Equal(t, Defaults().Capacity, s.Capacity)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Error(t, err)
}

func TestSettings_CoreConfig(t *testing.T) {
	s := Defaults()
	s.Capacity = 3
	s.Backpressure = "block"
	s.MaxQueueSize = 10
	s.LogLevel = "warn"

	cfg, err := s.CoreConfigWithOutput(&bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Capacity)
	assert.Equal(t, core.BackpressureBlock, cfg.Backpressure)
	assert.Equal(t, 10, cfg.MaxQueueSize)
	assert.NotNil(t, cfg.Logger)
}

func TestSettings_CoreConfigInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"zero capacity", func(s *Settings) { s.Capacity = 0 }},
		{"unknown policy", func(s *Settings) { s.Backpressure = "drop" }},
		{"reject without queue", func(s *Settings) { s.Backpressure = "reject" }},
		{"bad log level", func(s *Settings) { s.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			tt.mutate(&s)

			_, err := s.CoreConfigWithOutput(&bytes.Buffer{})

			assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
		})
	}
}

func TestDump(t *testing.T) {
	s := Defaults()
	s.MetricsAddr = ":2112"
	var buf bytes.Buffer

	require.NoError(t, Dump(&buf, s))

	out := buf.String()
	assert.Contains(t, out, "monitor_interval: 5s")
	assert.Contains(t, out, "backpressure: unbounded")

	var back Settings
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, s, back)
}
