package reader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/ugparu/y4mstream/utils/logger"
)

// ffmpegProcess exposes the stdout of a running ffmpeg as an io.ReadCloser.
type ffmpegProcess struct {
	io.ReadCloser
	cmd       *exec.Cmd
	name      string
	closeOnce *sync.Once
	stderrWg  *sync.WaitGroup
}

func ffmpegArgs(url string, extra []string) []string {
	args := []string{"-hide_banner", "-nostdin", "-loglevel", "error", "-i", url, "-an"}
	args = append(args, extra...)
	return append(args, "-f", "yuv4mpegpipe", "-pix_fmt", "yuv420p", "-")
}

// NewFFmpeg starts bin decoding url into a YUV4MPEG2 stream on its stdout.
// extra arguments are inserted before the output options, e.g. a scale filter.
// Closing the returned reader kills the process and waits for it.
func NewFFmpeg(ctx context.Context, bin, url string, extra ...string) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, bin, ffmpegArgs(url, extra)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}
	if err = cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", bin, err)
	}

	proc := &ffmpegProcess{
		ReadCloser: stdout,
		cmd:        cmd,
		name:       "FFMPEG",
		closeOnce:  &sync.Once{},
		stderrWg:   &sync.WaitGroup{},
	}
	logger.Infof(proc, "Started pid %d for %s", cmd.Process.Pid, url)

	proc.stderrWg.Add(1)
	go proc.logStderr(stderr)
	return proc, nil
}

func (proc *ffmpegProcess) logStderr(stderr io.Reader) {
	defer proc.stderrWg.Done()
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		logger.Warning(proc, scanner.Text())
	}
}

// Close kills the process if it is still running and reaps it.
func (proc *ffmpegProcess) Close() (err error) {
	proc.closeOnce.Do(func() {
		if proc.cmd.ProcessState == nil {
			_ = proc.cmd.Process.Kill()
		}
		proc.stderrWg.Wait()
		err = proc.cmd.Wait()

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			logger.Debugf(proc, "Exited: %s", exitErr.Error())
			err = nil
		}
	})
	return err
}

// String returns a string representation of the process.
func (proc *ffmpegProcess) String() string {
	return proc.name
}
