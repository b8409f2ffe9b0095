package player

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xaionaro-go/ave/pkg/media"
	"github.com/xaionaro-go/ave/pkg/player/types"
)

type CommandKind int

const (
	CommandUndefined = CommandKind(iota)
	CommandTogglePlay
	CommandReset
	CommandNext
	CommandPrev
	CommandSeek
	CommandRemove
	CommandLoad
	CommandMarkStart
	CommandMarkEnd
	CommandStatus
	CommandQuit
)

func (k CommandKind) String() string {
	switch k {
	case CommandUndefined:
		return "undefined"
	case CommandTogglePlay:
		return "toggle_play"
	case CommandReset:
		return "reset"
	case CommandNext:
		return "next"
	case CommandPrev:
		return "prev"
	case CommandSeek:
		return "seek"
	case CommandRemove:
		return "remove"
	case CommandLoad:
		return "load"
	case CommandMarkStart:
		return "mark_start"
	case CommandMarkEnd:
		return "mark_end"
	case CommandStatus:
		return "status"
	case CommandQuit:
		return "quit"
	default:
		return fmt.Sprintf("unexpected_command_%d", int(k))
	}
}

// Command is a control action typed by the user, see ParseCommand.
type Command struct {
	Kind CommandKind
	Seek time.Duration
	Path string
}

// ParseCommand parses one control line:
//
//	p        toggle play/pause
//	r        reset to the beginning
//	n / N    next / previous media
//	+S / -S  seek forward / backward by S seconds (fractions allowed)
//	x        remove the current media
//	l PATH   load a media
//	m[ / m]  set the start / end marker
//	s        print the status
//	q        quit
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	switch line {
	case "p":
		return Command{Kind: CommandTogglePlay}, nil
	case "r":
		return Command{Kind: CommandReset}, nil
	case "n":
		return Command{Kind: CommandNext}, nil
	case "N":
		return Command{Kind: CommandPrev}, nil
	case "x":
		return Command{Kind: CommandRemove}, nil
	case "m[":
		return Command{Kind: CommandMarkStart}, nil
	case "m]":
		return Command{Kind: CommandMarkEnd}, nil
	case "s":
		return Command{Kind: CommandStatus}, nil
	case "q":
		return Command{Kind: CommandQuit}, nil
	case "":
		return Command{}, fmt.Errorf("empty command")
	}

	switch {
	case strings.HasPrefix(line, "l "):
		path := strings.TrimSpace(line[2:])
		if path == "" {
			return Command{}, fmt.Errorf("no path given to load")
		}
		return Command{Kind: CommandLoad, Path: path}, nil
	case line[0] == '+' || line[0] == '-':
		seconds, err := strconv.ParseFloat(line[1:], 64)
		if err != nil {
			return Command{}, fmt.Errorf("unable to parse the seek offset '%s': %w", line[1:], err)
		}
		d := time.Duration(seconds * float64(time.Second))
		if line[0] == '-' {
			d = -d
		}
		return Command{Kind: CommandSeek, Seek: d}, nil
	}
	return Command{}, fmt.Errorf("unknown command '%s'", line)
}

// Apply executes the command on m. CommandStatus and CommandQuit are
// left to the caller.
func (c Command) Apply(ctx context.Context, m *Manager) error {
	switch c.Kind {
	case CommandTogglePlay:
		return m.TogglePlay(ctx)
	case CommandReset:
		return m.Reset(ctx)
	case CommandNext:
		return m.Next(ctx)
	case CommandPrev:
		return m.Prev(ctx)
	case CommandSeek:
		direction := media.SeekDirectionForward
		if c.Seek < 0 {
			direction = media.SeekDirectionBackward
		}
		return m.Seek(ctx, c.Seek, direction)
	case CommandRemove:
		return m.Remove(ctx)
	case CommandLoad:
		_, err := m.Load(ctx, c.Path)
		return err
	case CommandMarkStart:
		return m.SetMarker(ctx, types.MarkerStart)
	case CommandMarkEnd:
		return m.SetMarker(ctx, types.MarkerEnd)
	case CommandStatus, CommandQuit:
		return nil
	default:
		return fmt.Errorf("unexpected command %s", c.Kind)
	}
}
