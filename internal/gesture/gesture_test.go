package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newDetector() (*Detector, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New(DefaultWindow, clock.now), clock
}

func typeWord(d *Detector, clock *fakeClock, word string, gap time.Duration) {
	for _, r := range word {
		d.HandleKey(KeyEvent{Key: string(r)})
		clock.advance(gap)
	}
}

func TestHelloThenSpaceTriggers(t *testing.T) {
	d, clock := newDetector()
	typeWord(d, clock, "hello", 60*time.Millisecond) // 300ms in total
	clock.advance(500 * time.Millisecond)

	got := d.HandleKey(KeyEvent{Key: KeySpace})
	assert.Equal(t, Decision{Trigger: true, Query: "hello ", PreventDefault: true}, got)
	assert.Empty(t, d.Word())

	// state was cleared, a second space does nothing
	assert.Equal(t, Decision{}, d.HandleKey(KeyEvent{Key: KeySpace}))
}

func TestSlowWordDoesNotTrigger(t *testing.T) {
	d, clock := newDetector()
	typeWord(d, clock, "hi", 10*time.Millisecond)
	clock.advance(1300 * time.Millisecond)

	assert.False(t, d.HandleKey(KeyEvent{Key: KeySpace}).Trigger)
	// a stale space leaves the word alone
	assert.Equal(t, "hi", d.Word())
}

func TestWindowBoundaryIsInclusive(t *testing.T) {
	d, clock := newDetector()
	d.HandleKey(KeyEvent{Key: "a"})
	clock.advance(DefaultWindow)
	assert.True(t, d.HandleKey(KeyEvent{Key: KeySpace}).Trigger)
}

func TestLetterAfterWindowStartsNewWord(t *testing.T) {
	d, clock := newDetector()
	typeWord(d, clock, "old", 10*time.Millisecond)
	clock.advance(2 * time.Second)
	typeWord(d, clock, "new", 10*time.Millisecond)
	assert.Equal(t, "new", d.Word())
	assert.Equal(t, "new ", d.HandleKey(KeyEvent{Key: KeySpace}).Query)
}

func TestBackspaceEditsWordWithoutResettingTimer(t *testing.T) {
	d, clock := newDetector()
	typeWord(d, clock, "helo", 100*time.Millisecond)
	d.HandleKey(KeyEvent{Key: KeyBackspace})
	d.HandleKey(KeyEvent{Key: KeyBackspace})
	typeWord(d, clock, "llo", 100*time.Millisecond)
	assert.Equal(t, "hello", d.Word())

	// 700ms since the word started, 1400ms after this
	clock.advance(700 * time.Millisecond)
	assert.False(t, d.HandleKey(KeyEvent{Key: KeySpace}).Trigger)
}

func TestBackspaceOnEmptyWord(t *testing.T) {
	d, _ := newDetector()
	assert.Equal(t, Decision{}, d.HandleKey(KeyEvent{Key: KeyBackspace}))
	assert.Empty(t, d.Word())
}

func TestModifierIsIgnoredEntirely(t *testing.T) {
	d, clock := newDetector()
	typeWord(d, clock, "ab", 10*time.Millisecond)
	assert.Equal(t, Decision{}, d.HandleKey(KeyEvent{Key: "c", Ctrl: true}))
	assert.Equal(t, Decision{}, d.HandleKey(KeyEvent{Key: KeySpace, Meta: true}))
	assert.Equal(t, Decision{}, d.HandleKey(KeyEvent{Key: "x", Alt: true}))
	assert.Equal(t, "ab", d.Word())
	assert.True(t, d.HandleKey(KeyEvent{Key: KeySpace}).Trigger)
}

func TestEditableResetsState(t *testing.T) {
	d, clock := newDetector()
	typeWord(d, clock, "ab", 10*time.Millisecond)
	assert.Equal(t, Decision{}, d.HandleKey(KeyEvent{Key: KeySpace, InEditable: true}))
	assert.Empty(t, d.Word())
	assert.False(t, d.HandleKey(KeyEvent{Key: KeySpace}).Trigger)
}

func TestOtherKeysBreakTheWord(t *testing.T) {
	d, clock := newDetector()
	for _, key := range []string{"1", "enter", "-", "é", "down"} {
		typeWord(d, clock, "ok", 10*time.Millisecond)
		d.HandleKey(KeyEvent{Key: key})
		assert.Empty(t, d.Word(), "key %q", key)
	}
}

func TestApostropheIsPartOfWord(t *testing.T) {
	d, clock := newDetector()
	typeWord(d, clock, "don't", 10*time.Millisecond)
	assert.Equal(t, "don't ", d.HandleKey(KeyEvent{Key: KeySpace}).Query)
}

func TestSpaceWithoutWordDoesNotPreventDefault(t *testing.T) {
	d, _ := newDetector()
	assert.Equal(t, Decision{}, d.HandleKey(KeyEvent{Key: KeySpace}))
}
