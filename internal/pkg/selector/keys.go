package selector

import (
	"io"
	"os"
	"time"
	"unicode/utf8"

	"golang.org/x/term"
)

// Key is a decoded keyboard event.
type Key int

const (
	KeyOther Key = iota
	KeyUp
	KeyDown
	KeyEnter
	KeyEscape
)

func (k Key) String() string {
	switch k {
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyEnter:
		return "enter"
	case KeyEscape:
		return "escape"
	default:
		return "other"
	}
}

// KeyReader blocks until one key event is available.
type KeyReader interface {
	ReadKey() (Key, error)
}

// DefaultEscapeWait is how long a lone ESC waits for the rest of an arrow
// key sequence before it counts as the Escape key.
const DefaultEscapeWait = 50 * time.Millisecond

// TerminalKeyReader reads keys from a terminal, holding raw mode only for
// the duration of each read. Bytes past the first event of a read are kept
// for the next ReadKey.
type TerminalKeyReader struct {
	in       io.Reader
	fd       int
	makeRaw  func(fd int) (*term.State, error)
	restore  func(fd int, state *term.State) error
	escWait  time.Duration
	pending  []byte
	readErr  error
	inflight chan readResult
}

type readResult struct {
	data []byte
	err  error
}

// NewTerminalKeyReader reads from f, normally os.Stdin.
func NewTerminalKeyReader(f *os.File) *TerminalKeyReader {
	return &TerminalKeyReader{
		in:      f,
		fd:      int(f.Fd()),
		makeRaw: term.MakeRaw,
		restore: term.Restore,
		escWait: DefaultEscapeWait,
	}
}

// ReadKey returns the next event. Events left over from an earlier read are
// returned without touching the terminal; otherwise it enters raw mode,
// reads and restores the previous mode, also when the read fails.
func (r *TerminalKeyReader) ReadKey() (key Key, err error) {
	if k, ok := r.take(r.readErr != nil); ok {
		return k, nil
	}
	if r.readErr != nil {
		err, r.readErr = r.readErr, nil
		return KeyOther, &InputReadError{Err: err}
	}

	state, err := r.makeRaw(r.fd)
	if err != nil {
		return KeyOther, &TerminalModeError{Op: "enter raw mode", Err: err}
	}
	defer func() {
		rerr := r.restore(r.fd, state)
		if rerr == nil {
			return
		}
		if readErr, ok := err.(*InputReadError); ok {
			readErr.RestoreErr = rerr
			return
		}
		key, err = KeyOther, &TerminalModeError{Op: "restore terminal mode", Err: rerr}
	}()

	var wait time.Duration
	for {
		res, ok := r.receive(wait)
		if !ok {
			k, _ := r.take(true)
			return k, nil
		}
		if len(res.data) == 0 {
			if res.err == nil {
				res.err = io.ErrNoProgress
			}
			if len(r.pending) > 0 {
				r.readErr = res.err
				k, _ := r.take(true)
				return k, nil
			}
			return KeyOther, &InputReadError{Err: res.err}
		}
		r.pending = append(r.pending, res.data...)
		if res.err != nil {
			r.readErr = res.err
		}
		if k, ok := r.take(r.readErr != nil); ok {
			return k, nil
		}
		// Only an unfinished escape sequence gets here.
		wait = r.escWait
	}
}

// receive reads one chunk. With a positive wait it gives up after wait and
// leaves the read in flight for the next call.
func (r *TerminalKeyReader) receive(wait time.Duration) (readResult, bool) {
	if r.inflight == nil && wait <= 0 {
		return r.readChunk(), true
	}
	if r.inflight == nil {
		ch := make(chan readResult, 1)
		go func() { ch <- r.readChunk() }()
		r.inflight = ch
	}
	if wait <= 0 {
		res := <-r.inflight
		r.inflight = nil
		return res, true
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case res := <-r.inflight:
		r.inflight = nil
		return res, true
	case <-timer.C:
		return readResult{}, false
	}
}

func (r *TerminalKeyReader) readChunk() readResult {
	buf := make([]byte, 64)
	n, err := r.in.Read(buf)
	return readResult{data: buf[:n], err: err}
}

// take decodes one event from the front of pending. An unfinished escape
// sequence is left alone unless final is set, in which case a lone ESC is
// the Escape key and anything longer is discarded as KeyOther.
func (r *TerminalKeyReader) take(final bool) (Key, bool) {
	if len(r.pending) == 0 {
		return KeyOther, false
	}
	key, n, complete := nextKey(r.pending)
	if !complete {
		if !final {
			return KeyOther, false
		}
		key, n = KeyOther, len(r.pending)
		if n == 1 {
			key = KeyEscape
		}
	}
	r.pending = r.pending[n:]
	if len(r.pending) == 0 {
		r.pending = nil
	}
	return key, true
}

const (
	esc   = 0x1b
	ctrlC = 0x03
)

// nextKey decodes the event at the front of b and reports how many bytes it
// used. complete is false when b holds only the start of an escape sequence.
func nextKey(b []byte) (key Key, n int, complete bool) {
	switch b[0] {
	case ctrlC:
		return KeyEscape, 1, true
	case '\r', '\n':
		return KeyEnter, 1, true
	case esc:
		return escapeSequence(b)
	}
	_, size := utf8.DecodeRune(b)
	return KeyOther, size, true
}

func escapeSequence(b []byte) (Key, int, bool) {
	if len(b) < 2 {
		return KeyOther, 0, false
	}
	if b[1] < 0x20 || b[1] == 0x7f {
		// ESC followed by another control key: the ESC stands alone.
		return KeyEscape, 1, true
	}
	switch b[1] {
	case 'O':
		// SS3: one final byte.
		if len(b) < 3 {
			return KeyOther, 0, false
		}
		return arrow(b[2]), 3, true
	case '[':
		// CSI: parameter and intermediate bytes, then a final byte in 0x40-0x7e.
		for i := 2; i < len(b); i++ {
			if b[i] >= 0x40 && b[i] <= 0x7e {
				if i == 2 {
					return arrow(b[i]), i + 1, true
				}
				return KeyOther, i + 1, true
			}
			if b[i] < 0x20 || b[i] > 0x3f {
				return KeyOther, i, true
			}
		}
		return KeyOther, 0, false
	}
	// Alt combined with a printable key.
	return KeyOther, 2, true
}

func arrow(final byte) Key {
	switch final {
	case 'A':
		return KeyUp
	case 'B':
		return KeyDown
	default:
		return KeyOther
	}
}
