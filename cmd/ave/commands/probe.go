package commands

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/xaionaro-go/ave/pkg/frame"
	"github.com/xaionaro-go/ave/pkg/media"
	"github.com/xaionaro-go/ave/pkg/media/libav"
	"github.com/xaionaro-go/ave/pkg/media/types"
)

func probe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]
	out := cmd.OutOrStdout()

	backend := libav.New(ctx, libav.Config{})
	input, err := backend.OpenInput(ctx, path)
	if err != nil {
		return fmt.Errorf("unable to open '%s': %w", path, err)
	}
	defer input.Close()

	fmt.Fprintf(out, "file: %s\n", path)
	if fi, err := os.Stat(path); err == nil {
		fmt.Fprintf(out, "size: %s\n", humanize.IBytes(uint64(fi.Size())))
	}
	duration := input.Duration()
	if duration < 0 {
		duration = 0
	}
	fmt.Fprintf(out, "duration: %s\n", media.FormatTime(duration, types.TimeBaseQ))

	for _, s := range input.Streams() {
		fmt.Fprintf(out, "stream %s", s)
		if s.BitRate > 0 {
			fmt.Fprintf(out, " %s", humanize.SIWithDigits(float64(s.BitRate), 1, "bit/s"))
		}
		if s.Type == frame.TypeUndefined {
			fmt.Fprint(out, " (ignored)")
		}
		fmt.Fprintln(out)
	}
	return nil
}
