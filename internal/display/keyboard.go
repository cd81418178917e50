package display

import (
	"bufio"
	"io"
	"unicode"
)

// Keyboard adapts a byte stream (normally stdin) to the engine's key
// source. A background goroutine reads runes and queues them; Poll never
// blocks, which is what the scheduler's render loop requires.
//
// The reader is expected to be in a mode that delivers keystrokes as they
// happen. Line-buffered stdin still works for self-paced sessions, just
// with Enter after each key.
type Keyboard struct {
	keys chan string
}

const keyboardBuffer = 64

// NewKeyboard starts reading keys from r. It stops at EOF or read error.
func NewKeyboard(r io.Reader) *Keyboard {
	k := &Keyboard{keys: make(chan string, keyboardBuffer)}
	go k.feed(bufio.NewReader(r))
	return k
}

func (k *Keyboard) feed(r *bufio.Reader) {
	defer close(k.keys)
	for {
		ch, _, err := r.ReadRune()
		if err != nil {
			return
		}
		if unicode.IsSpace(ch) {
			continue
		}
		select {
		case k.keys <- string(unicode.ToLower(ch)):
		default:
			// Queue full. Dropping is safer than blocking the reader:
			// the scheduler drains every pass, so this only happens if
			// something floods the stream.
		}
	}
}

// Poll reports the next queued key, if any.
func (k *Keyboard) Poll() (string, bool) {
	select {
	case key, ok := <-k.keys:
		if !ok {
			return "", false
		}
		return key, true
	default:
		return "", false
	}
}
