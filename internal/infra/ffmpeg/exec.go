package ffmpeg

import (
	"context"
	"os/exec"
)

func runFFmpeg(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}
