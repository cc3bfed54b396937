package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_formatTimeAttr(t *testing.T) {
	t.Run("empty format string", func(t *testing.T) {
		f := formatTimeAttr("")
		require.Nil(t, f)
	})

	t.Run("format: none", func(t *testing.T) {
		f := formatTimeAttr("none")
		require.NotNil(t, f)
		now := time.Now()

		a := f(nil, slog.Time(slog.TimeKey, now))
		require.Equal(t, slog.Attr{}, a)

		// when not time key value is preserved
		a = f(nil, slog.Time("foo", now))
		require.True(t, a.Equal(slog.Time("foo", now)))
	})

	t.Run("format: format string", func(t *testing.T) {
		f := formatTimeAttr("15:04:05.0000")
		require.NotNil(t, f)

		// zero time is not changed
		a := f(nil, slog.Time(slog.TimeKey, time.Time{}))
		require.Equal(t, slog.Time(slog.TimeKey, time.Time{}), a)

		// valid time is converted to string representation
		now := time.Now()
		a = f(nil, slog.Time(slog.TimeKey, now))
		require.Equal(t, now.Format("15:04:05.0000"), a.Value.String())

		// value is of wrong type for time key
		require.Panics(t, func() { f(nil, slog.Int(slog.TimeKey, 42)) })

		// when not time key value is not altered
		a = f(nil, slog.Time("foo", now))
		require.True(t, a.Equal(slog.Time("foo", now)))
	})
}

func Test_attrConstructors(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := errors.New("nope")
		a := Error(err)
		require.Equal(t, ErrorKey, a.Key)
		require.Equal(t, err, a.Value.Any())
	})

	t.Run("Deploy", func(t *testing.T) {
		a := Deploy([]byte{0xde, 0xad, 0xbe, 0xef})
		require.Equal(t, DeployKey, a.Key)
		require.Equal(t, "deadbeef", a.Value.String())
	})

	t.Run("Chain", func(t *testing.T) {
		a := Chain("casper-test")
		require.Equal(t, ChainKey, a.Key)
		require.Equal(t, "casper-test", a.Value.String())
	})

	t.Run("Method", func(t *testing.T) {
		a := Method("account_put_deploy")
		require.Equal(t, MethodKey, a.Key)
		require.Equal(t, "account_put_deploy", a.Value.String())
	})

	t.Run("Node", func(t *testing.T) {
		a := Node("http://localhost:7777")
		require.Equal(t, NodeKey, a.Key)
		require.Equal(t, "http://localhost:7777", a.Value.String())
	})
}

func Test_New(t *testing.T) {
	t.Run("unknown format", func(t *testing.T) {
		log, err := New(&LogConfiguration{Format: "xml"})
		require.ErrorContains(t, err, `unknown log format "xml"`)
		require.Nil(t, log)
	})

	t.Run("defaults are assigned", func(t *testing.T) {
		cfg := LogConfiguration{}
		log, err := New(&cfg)
		require.NoError(t, err)
		require.NotNil(t, log)
		require.Equal(t, "info", cfg.Level)
		require.Equal(t, "console", cfg.Format)
		require.Equal(t, "stderr", cfg.OutputPath)
		require.NotEmpty(t, cfg.TimeFormat)
	})

	t.Run("level is respected", func(t *testing.T) {
		log, err := New(&LogConfiguration{Level: "warning", OutputPath: "discard"})
		require.NoError(t, err)
		require.False(t, log.Enabled(context.Background(), slog.LevelInfo))
		require.True(t, log.Enabled(context.Background(), slog.LevelWarn))
	})

	t.Run("json output", func(t *testing.T) {
		buf := bytes.Buffer{}
		log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{ReplaceAttr: formatTimeAttr("none")}))

		log.Info("message in a bottle", Chain("casper"))
		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		require.Equal(t, "message in a bottle", rec[slog.MessageKey])
		require.Equal(t, "casper", rec[ChainKey])
		require.NotContains(t, rec, slog.TimeKey)
	})
}
