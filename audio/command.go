package audio

import (
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// CommandSource captures from a recorder subprocess that writes raw mono
// 16-bit little-endian PCM to stdout, for example
// "arecord -q -t raw -f S16_LE -c 1 -r 16000".
type CommandSource struct {
	*Stream
	name   string
	args   []string
	logger *logrus.Entry
}

// NewCommandSource splits command on whitespace. No shell is involved.
func NewCommandSource(command string, stream *Stream, logger *logrus.Entry) (*CommandSource, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("audio command is required")
	}
	if stream == nil {
		return nil, errors.New("stream is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &CommandSource{
		Stream: stream,
		name:   fields[0],
		args:   fields[1:],
		logger: logger,
	}, nil
}

// Run starts the recorder and pushes its output into the stream until the
// recorder exits or ctx is done. The stream is closed when Run returns.
func (c *CommandSource) Run(ctx context.Context) error {
	defer c.Stream.Close()

	cmd := exec.CommandContext(ctx, c.name, c.args...)
	stderr := c.logger.WriterLevel(logrus.DebugLevel)
	defer stderr.Close()
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "recorder stdout")
	}
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "start recorder %q", c.name)
	}
	c.logger.WithField("command", c.name).Info("🎙️ Recorder started")

	buf := make([]byte, c.Stream.FrameBytes())
	for {
		n, readErr := io.ReadFull(stdout, buf)
		if n > 0 {
			c.Stream.Push(buf[:n])
		}
		if readErr != nil {
			break
		}
	}

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return nil
	}
	if waitErr != nil {
		return errors.Wrapf(waitErr, "recorder %q exited", c.name)
	}
	c.logger.WithField("command", c.name).Warn("Recorder exited")
	return nil
}
