// Package gesture recognizes the implicit "type a word, then space" trigger
// that opens the chat panel.
package gesture

import "time"

const DefaultWindow = 1200 * time.Millisecond

// Key names used by KeyEvent besides single characters.
const (
	KeySpace     = " "
	KeyBackspace = "backspace"
)

// KeyEvent is one key press as the host sees it.
type KeyEvent struct {
	// Key is the typed character, or a key name such as "backspace" or "enter".
	Key  string
	Ctrl bool
	Meta bool
	Alt  bool
	// InEditable is set when focus is inside an editable field of the page.
	InEditable bool
}

// Decision tells the host what to do with the key.
type Decision struct {
	Trigger bool
	// Query pre-fills the panel input when Trigger is set.
	Query          string
	PreventDefault bool
}

// Detector holds the word being typed. The host feeds it only while neither
// the chat panel nor the options panel is open.
type Detector struct {
	window time.Duration
	now    func() time.Time

	word  []byte
	start time.Time
}

func New(window time.Duration, now func() time.Time) *Detector {
	if window <= 0 {
		window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Detector{window: window, now: now}
}

// Word returns the word typed so far.
func (d *Detector) Word() string {
	return string(d.word)
}

func (d *Detector) Reset() {
	d.word = d.word[:0]
	d.start = time.Time{}
}

func (d *Detector) HandleKey(ev KeyEvent) Decision {
	if ev.InEditable {
		d.Reset()
		return Decision{}
	}
	if ev.Ctrl || ev.Meta || ev.Alt {
		return Decision{}
	}

	now := d.now()

	switch {
	case ev.Key == KeySpace:
		if len(d.word) > 0 && now.Sub(d.start) <= d.window {
			query := string(d.word) + " "
			d.Reset()
			return Decision{Trigger: true, Query: query, PreventDefault: true}
		}
		return Decision{}

	case ev.Key == KeyBackspace:
		if len(d.word) > 0 {
			d.word = d.word[:len(d.word)-1]
		}
		return Decision{}

	case isWordKey(ev.Key):
		if len(d.word) == 0 || now.Sub(d.start) > d.window {
			d.word = d.word[:0]
			d.start = now
		}
		d.word = append(d.word, ev.Key[0])
		return Decision{}
	}

	if len(d.word) > 0 {
		d.Reset()
	}
	return Decision{}
}

func isWordKey(key string) bool {
	if len(key) != 1 {
		return false
	}
	c := key[0]
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '\''
}
