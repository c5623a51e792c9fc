package bridge

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Momentum96/AreYouJ/internal/session"
)

// RunInteractive bridges the caller's terminal straight through to the
// wrapped CLI: stdin bytes go to the PTY as typed, PTY bytes go to stdout as
// read. No JSON framing, no readiness detection, no retries. Returns when
// the subprocess exits or the PTY master closes.
func RunInteractive(p session.PTY, in io.Reader, out io.Writer, poll time.Duration) error {
	go func() {
		if _, err := io.Copy(p, in); err != nil {
			slog.Debug("stdin copy ended", slog.String("error", err.Error()))
		}
	}()

	buf := make([]byte, 4096)
	for {
		if !p.Alive() {
			return nil
		}

		p.SetReadDeadline(time.Now().Add(poll))
		n, err := p.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if os.IsTimeout(err) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if !p.Alive() {
				return nil
			}
			return err
		}
	}
}
