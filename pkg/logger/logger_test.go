package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"xscraper/pkg/config"
)

func bufferLogger(buf *bytes.Buffer) *zerologLogger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zlog := zerolog.New(buf).Level(zerolog.DebugLevel)
	return &zerologLogger{logger: &zlog}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug without color", cfg: &config.LoggingConfig{Level: "debug", NoColor: true}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "chatty"}, wantErr: true},
		{name: "file output", cfg: &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "x.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := NewWithWriter(tt.cfg, &buf)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, l)
		})
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xscraper.log")
	var console bytes.Buffer

	l, err := NewWithWriter(&config.LoggingConfig{Level: "info", File: path, NoColor: true}, &console)
	require.NoError(t, err)

	l.WithField("store", "out/tweets.json").Info("flush done")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"store":"out/tweets.json"`)
	assert.Contains(t, string(data), `"app":"xscraper"`)
	assert.Contains(t, console.String(), "flush done")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	l.WithField("job", "abc").
		WithFields(map[string]interface{}{"iteration": 4, "exhausted": true}).
		InfoWithFields("scrolled", map[string]interface{}{"height": int64(1500)})

	out := buf.String()
	assert.Contains(t, out, `"job":"abc"`)
	assert.Contains(t, out, `"iteration":4`)
	assert.Contains(t, out, `"exhausted":true`)
	assert.Contains(t, out, `"height":1500`)
	assert.Contains(t, out, "scrolled")
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := bufferLogger(&buf)
	_ = parent.WithField("child", true)

	parent.Info("plain")
	assert.NotContains(t, buf.String(), "child")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("store is corrupt")).Error("flush failed")
	assert.Contains(t, buf.String(), "store is corrupt")
}

func TestDomainHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogFlush(tl, "out/a.json", 3, 10, nil)
	LogFlush(tl, "out/a.json", 0, 0, errors.New("boom"))
	LogRunOutcome(tl, "from:golang", "stopped", 42, nil)

	msgs := tl.GetMessages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "DEBUG", msgs[0].Level)
	assert.Equal(t, 3, msgs[0].Fields["added"])
	assert.Equal(t, "ERROR", msgs[1].Level)
	assert.EqualError(t, msgs[1].Error, "boom")
	assert.Equal(t, "WARN", msgs[2].Level)
	assert.Equal(t, 42, msgs[2].Fields["persisted"])
}

func TestTestLoggerSharesSink(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("component", "collector")
	child.Info("started")
	tl.Warn("slow")

	assert.True(t, tl.HasMessage("started"))
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 1)
	assert.Equal(t, "collector", tl.GetMessages()[0].Fields["component"])
	assert.False(t, tl.HasError())

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.WithField("k", "v").WithError(errors.New("x")).Info("ignored")
	assert.NotNil(t, l.GetZerolog())
}

func TestRedirectKeepsFields(t *testing.T) {
	var main, job bytes.Buffer
	l := bufferLogger(&main).WithField("job", "abc")

	Redirect(l, &job).Info("collecting")

	assert.Empty(t, main.String())
	assert.Contains(t, job.String(), "collecting")
	assert.Contains(t, job.String(), "job=abc")
}
