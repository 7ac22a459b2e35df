package watch

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smadhas/BIDFeeder/internal/conf"
)

var errStop = errors.New("stop before opening devices")

func newTestCommand(t *testing.T, got **conf.Settings) *cobra.Command {
	t.Helper()

	path := filepath.Join(t.TempDir(), "feederwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recording:\n  maxrecordings: 9\n"), 0o600))

	v := conf.NewViper()
	cmd := Command(v, func() (*conf.Settings, *slog.Logger, error) {
		settings, err := conf.Load(v, path)
		if err != nil {
			return nil, nil, err
		}
		*got = settings
		return nil, nil, errStop
	})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd
}

func TestFlagsOverrideSettings(t *testing.T) {
	var got *conf.Settings
	cmd := newTestCommand(t, &got)
	out := t.TempDir()
	cmd.SetArgs([]string{
		"--input", "feeder.mp4",
		"--max-recordings", "2",
		"--duration", "3s",
		"--output", out,
		"--no-preview",
	})

	require.ErrorIs(t, cmd.Execute(), errStop)
	require.NotNil(t, got)

	assert.Equal(t, "feeder.mp4", got.Camera.Input)
	assert.Equal(t, 2, got.Recording.MaxRecordings)
	assert.Equal(t, 3*time.Second, got.Recording.Duration)
	assert.Equal(t, out, got.Recording.Path)
	assert.False(t, got.Preview.Enabled)
}

func TestConfigFileUsedWithoutFlags(t *testing.T) {
	var got *conf.Settings
	cmd := newTestCommand(t, &got)
	cmd.SetArgs([]string{})

	require.ErrorIs(t, cmd.Execute(), errStop)
	require.NotNil(t, got)

	assert.Equal(t, 9, got.Recording.MaxRecordings)
	assert.Equal(t, 5*time.Second, got.Recording.Duration)
	assert.True(t, got.Preview.Enabled)
	assert.Equal(t, 0, got.Camera.Index)
}

func TestCameraAndInputAreExclusive(t *testing.T) {
	var got *conf.Settings
	cmd := newTestCommand(t, &got)
	cmd.SetArgs([]string{"--camera", "1", "--input", "feeder.mp4"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.NotErrorIs(t, err, errStop)
	assert.Nil(t, got)
}

func TestInvalidFlagValueIsRejected(t *testing.T) {
	var got *conf.Settings
	cmd := newTestCommand(t, &got)
	cmd.SetArgs([]string{"--max-recordings", "0"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.NotErrorIs(t, err, errStop)

	var ve conf.ValidationError
	assert.True(t, errors.As(err, &ve))
}
