package session

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotReady indicates a send was attempted while the session was not at
// its prompt.
var ErrNotReady = errors.New("session not ready")

// commitKeystroke submits the typed input to the wrapped CLI.
const commitKeystroke = "\r"

// SendOptions controls chunked delivery pacing. Large payloads written in
// one burst can overflow the line discipline's input queue or race the
// CLI's own input handling; chunking with a delay emulates human-paced
// typing.
type SendOptions struct {
	ChunkSize       int           // bytes per write
	InterChunkDelay time.Duration // pause between chunks
	SettleDelay     time.Duration // pause before the commit keystroke
}

// DefaultSendOptions returns the engine's default pacing.
func DefaultSendOptions() SendOptions {
	return SendOptions{
		ChunkSize:       1024,
		InterChunkDelay: 200 * time.Millisecond,
		SettleDelay:     300 * time.Millisecond,
	}
}

// Chunks splits message bytes into fixed-size chunks; the last chunk may be
// shorter. Concatenating the chunks in order reconstructs the message
// exactly.
func Chunks(message string, size int) [][]byte {
	if size <= 0 {
		size = DefaultSendOptions().ChunkSize
	}

	data := []byte(message)
	var chunks [][]byte
	for len(data) > 0 {
		n := size
		if n > len(data) {
			n = len(data)
		}
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	return chunks
}

// Send delivers one outbound message: paced chunk writes, a settle pause,
// then the commit keystroke. The session must be at its prompt.
func (s *Session) Send(message string, opts SendOptions) error {
	if s.State != StateReady {
		return fmt.Errorf("%w (state: %s)", ErrNotReady, s.State)
	}

	chunks := Chunks(message, opts.ChunkSize)
	for i, chunk := range chunks {
		if _, err := s.pty.Write(chunk); err != nil {
			return fmt.Errorf("write chunk %d/%d: %w", i+1, len(chunks), err)
		}
		if i < len(chunks)-1 {
			s.clock.Sleep(opts.InterChunkDelay)
		}
	}

	// Let the CLI finish processing the typed input before submitting.
	s.clock.Sleep(opts.SettleDelay)

	if _, err := s.pty.WriteString(commitKeystroke); err != nil {
		return fmt.Errorf("write commit keystroke: %w", err)
	}

	s.LastActivity = s.clock.Now()
	return nil
}
