package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/cobra"
	"github.com/xaionaro-go/ave/pkg/clock"
	"github.com/xaionaro-go/ave/pkg/config"
	"github.com/xaionaro-go/ave/pkg/frame"
	"github.com/xaionaro-go/ave/pkg/media/libav"
	"github.com/xaionaro-go/ave/pkg/observability"
	"github.com/xaionaro-go/ave/pkg/player"
	"github.com/xaionaro-go/ave/pkg/player/types"
	"github.com/xaionaro-go/ave/pkg/xcontext"
)

const statusInterval = 5 * time.Second

func applyPlayFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("width") {
		if cfg.Video.Width, err = flags.GetInt("width"); err != nil {
			return err
		}
	}
	if flags.Changed("height") {
		if cfg.Video.Height, err = flags.GetInt("height"); err != nil {
			return err
		}
	}
	if flags.Changed("pixel-format") {
		if cfg.Video.PixelFormat, err = flags.GetString("pixel-format"); err != nil {
			return err
		}
	}
	if flags.Changed("fps") {
		if cfg.Playback.TargetFPS, err = flags.GetFloat64("fps"); err != nil {
			return err
		}
	}
	if flags.Changed("hwaccel") {
		if cfg.Decoder.HardwareDeviceType, err = flags.GetString("hwaccel"); err != nil {
			return err
		}
	}
	return cfg.Validate()
}

type playStats struct {
	videoFrames uint64
	audioFrames uint64
	bytes       uint64
}

func (s *playStats) add(f *frame.Frame) {
	switch f.Type {
	case frame.TypeVideo:
		s.videoFrames++
	case frame.TypeAudio:
		s.audioFrames++
	}
	s.bytes += uint64(len(f.Data))
}

func play(cmd *cobra.Command, args []string) error {
	ctx, cancelFn := context.WithCancel(cmd.Context())
	defer cancelFn()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyPlayFlags(cmd, &cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	paused, _ := cmd.Flags().GetBool("paused")
	exitAtEnd, _ := cmd.Flags().GetBool("exit-at-end")

	backend := libav.New(ctx, libav.Config{
		HardwareDeviceType: cfg.Decoder.HardwareDeviceType,
		HardwareDeviceName: cfg.Decoder.HardwareDeviceName,
	})
	mgr := player.NewManager(backend, cfg.PlayerOptions()...)
	defer func() {
		ctx := xcontext.DetachDone(ctx)
		if err := mgr.Close(ctx); err != nil {
			logger.Errorf(ctx, "unable to close the media: %v", err)
		}
	}()

	for _, path := range args {
		if _, err := mgr.Load(ctx, path); err != nil {
			return err
		}
	}
	// the last loaded media is current; wrap around to the first one
	if err := mgr.Next(ctx); err != nil {
		return err
	}
	if !paused {
		if err := mgr.TogglePlay(ctx); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	wakeCh := make(chan struct{}, 1)
	observability.Go(ctx, "control-reader", func(ctx context.Context) {
		defer cancelFn()
		readControl(ctx, cmd.InOrStdin(), out, mgr, wakeCh)
	})

	return playLoop(ctx, out, mgr, wakeCh, exitAtEnd)
}

func readControl(
	ctx context.Context,
	in io.Reader,
	out io.Writer,
	mgr *player.Manager,
	wakeCh chan<- struct{},
) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		command, err := player.ParseCommand(scanner.Text())
		if err != nil {
			fmt.Fprintf(out, "%v\n", err)
			continue
		}
		if command.Kind == player.CommandQuit {
			return
		}
		if err := command.Apply(ctx, mgr); err != nil {
			fmt.Fprintf(out, "unable to %s: %v\n", command.Kind, err)
		}
		if command.Kind == player.CommandStatus || command.Kind == player.CommandLoad {
			printStatus(ctx, out, mgr)
		}
		select {
		case wakeCh <- struct{}{}:
		default:
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Errorf(ctx, "unable to read the control input: %v", err)
	}
	// stdin is closed: keep playing until interrupted or finished
	<-ctx.Done()
}

func printStatus(ctx context.Context, out io.Writer, mgr *player.Manager) {
	status, err := mgr.Status(ctx)
	if err != nil {
		fmt.Fprintf(out, "%v\n", err)
		return
	}
	fmt.Fprintf(out, "[%d/%d] %s %s / %s (%s, %d queued)\n",
		status.Index+1, status.Count, status.Path,
		status.PositionString, status.DurationString,
		status.State, status.QueueLength,
	)
}

func playLoop(
	ctx context.Context,
	out io.Writer,
	mgr *player.Manager,
	wakeCh <-chan struct{},
	exitAtEnd bool,
) error {
	clk := clock.Get()
	var stats playStats
	lastStatusAt := clk.Now()
	defer func() {
		logger.Infof(ctx, "handed out %d video and %d audio frames (%s)",
			stats.videoFrames, stats.audioFrames, humanize.IBytes(stats.bytes))
	}()

	for {
		result, err := mgr.Tick(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, player.ErrNoMedia):
		default:
			fmt.Fprintf(out, "playback error: %v\n", err)
		}

		switch result.Kind {
		case types.TickProduced:
			stats.add(result.Frame)
			logger.Tracef(ctx, "frame %s", result.Frame)
		case types.TickEndOfFile:
			printStatus(ctx, out, mgr)
			if done, err := advance(ctx, mgr, exitAtEnd); done || err != nil {
				return err
			}
		}

		if now := clk.Now(); now.Sub(lastStatusAt) >= statusInterval {
			lastStatusAt = now
			if status, err := mgr.Status(ctx); err == nil {
				logger.Infof(ctx, "%s: %s / %s (%s)", status.Path, status.PositionString, status.DurationString, status.State)
			}
		}

		wait := mgr.NextWait(ctx, result)
		result.Frame.Release()
		if wait <= 0 {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		t := clk.Timer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-wakeCh:
			t.Stop()
		case <-t.C:
		}
	}
}

// advance switches to the next media after the current one ended.
// It reports true if the loop should stop.
func advance(
	ctx context.Context,
	mgr *player.Manager,
	exitAtEnd bool,
) (bool, error) {
	if mgr.Index(ctx) < mgr.Len(ctx)-1 {
		if err := mgr.Next(ctx); err != nil {
			return false, err
		}
		return false, mgr.TogglePlay(ctx)
	}
	return exitAtEnd, nil
}

