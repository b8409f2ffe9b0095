package player

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/ave/pkg/player/types"
)

func TestParseCommand(t *testing.T) {
	for line, want := range map[string]Command{
		"p":              {Kind: CommandTogglePlay},
		" r ":            {Kind: CommandReset},
		"n":              {Kind: CommandNext},
		"N":              {Kind: CommandPrev},
		"x":              {Kind: CommandRemove},
		"m[":             {Kind: CommandMarkStart},
		"m]":             {Kind: CommandMarkEnd},
		"s":              {Kind: CommandStatus},
		"q":              {Kind: CommandQuit},
		"+5":             {Kind: CommandSeek, Seek: 5 * time.Second},
		"-1.5":           {Kind: CommandSeek, Seek: -1500 * time.Millisecond},
		"l /tmp/a b.mkv": {Kind: CommandLoad, Path: "/tmp/a b.mkv"},
	} {
		t.Run(line, func(t *testing.T) {
			cmd, err := ParseCommand(line)
			require.NoError(t, err)
			require.Equal(t, want, cmd)
		})
	}

	for _, line := range []string{"", "z", "+abc", "l ", "-"} {
		_, err := ParseCommand(line)
		require.Error(t, err, line)
	}
}

func TestCommandApply(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	apply := func(line string) error {
		cmd, err := ParseCommand(line)
		require.NoError(t, err)
		return cmd.Apply(ctx, m)
	}

	require.ErrorIs(t, apply("p"), ErrNoMedia)
	require.NoError(t, apply("l /tmp/a.mp4"))
	require.NoError(t, apply("l /tmp/b.mp4"))
	require.Equal(t, 2, m.Len(ctx))

	require.NoError(t, apply("N"))
	require.Equal(t, 0, m.Index(ctx))
	require.NoError(t, apply("p"))
	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, types.StatePlaying, status.State)

	require.NoError(t, apply("+1"))
	require.NoError(t, apply("-10"))
	require.NoError(t, apply("m["))
	require.NoError(t, apply("m]"))
	require.NoError(t, apply("r"))
	require.NoError(t, apply("s"))
	require.NoError(t, apply("x"))
	require.Equal(t, 1, m.Len(ctx))
	require.NoError(t, apply("n"))
	require.NoError(t, apply("q"))
}
