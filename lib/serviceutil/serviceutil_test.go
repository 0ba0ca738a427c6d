package serviceutil

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFatal(t *testing.T) {
	var logs bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	defer slog.SetDefault(previous)

	code := -1
	exit = func(c int) { code = c }
	defer func() { exit = os.Exit }()

	Fatal("failed to read config", errors.New("bad json5"))
	require.Equal(t, 1, code)
	require.Contains(t, logs.String(), `msg="failed to read config"`)
	require.Contains(t, logs.String(), `err="bad json5"`)
}
