package fat

import (
	"bytes"
	"log/slog"
	"testing"

	neoos "github.com/dani2318/NeoOS"
	fattest "github.com/dani2318/NeoOS/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mountWithLog(t *testing.T) (*Volume, *bytes.Buffer) {
	builder := fattest.NewImageBuilder(t, fattest.GetLayout(t, "fat16-small"))
	builder.AddDirectory("/BOOT")
	builder.AddDirectory("/BOOT/GRUB")
	builder.AddFile("/BOOT/LOADER.SYS", fattest.PatternData(700, 2))

	var output bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&output, &slog.HandlerOptions{Level: slog.LevelWarn}))
	volume, err := Mount(builder.Device(), Options{Logger: logger})
	require.NoError(t, err)
	return volume, &output
}

func TestCloseIntermediate__ReportsReleaseFailure(t *testing.T) {
	volume, output := mountWithLog(t)

	dir, err := volume.Open("/BOOT")
	require.NoError(t, err)
	require.NoError(t, volume.handles.Release(dir.ID()))

	volume.closeIntermediate(dir)
	assert.Contains(t, output.String(), "can't close directory during path lookup")
	assert.Contains(t, output.String(), "dir=BOOT")
	assert.False(t, dir.IsOpen())
}

func TestOpen__LookupFailuresLeaveNoHandles(t *testing.T) {
	volume, output := mountWithLog(t)

	tests := []struct {
		name     string
		path     string
		expected error
	}{
		{"missing leaf", "/BOOT/GRUB/GRUB.CFG", neoos.ErrNotFound},
		{"missing directory", "/BOOT/EFI/BOOTX64.EFI", neoos.ErrNotFound},
		{"file used as directory", "/BOOT/LOADER.SYS/X", neoos.ErrNotADirectory},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := volume.Open(tc.path)
			assert.ErrorIs(t, err, tc.expected)
			assert.Equal(t, 0, volume.OpenHandles())
		})
	}
	assert.Empty(t, output.String(), "clean lookups shouldn't log warnings")
}
