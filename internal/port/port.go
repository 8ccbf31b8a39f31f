// Package port implements the named duplex channel that connects the reader
// to the relay. A Port carries models.Envelope values in order; once either
// side closes it, both sides see ErrDisconnected.
package port

import (
	"context"
	"errors"
	"sync"

	"inflow/internal/models"
)

var ErrDisconnected = errors.New("port disconnected")

type Port interface {
	// Name is the channel the port was opened on.
	Name() string
	Post(env models.Envelope) error
	// Receive blocks until the next envelope arrives or the port is disconnected.
	Receive() (models.Envelope, error)
	Close() error
}

// Dialer opens a new port to the relay.
type Dialer interface {
	Connect(ctx context.Context, name string) (Port, error)
}

const pipeBuffer = 64

type pipeEnd struct {
	name string
	in   <-chan models.Envelope
	out  chan<- models.Envelope
	done chan struct{}
	once *sync.Once
}

// Pipe returns the two connected ends of an in-memory port.
func Pipe(name string) (Port, Port) {
	ab := make(chan models.Envelope, pipeBuffer)
	ba := make(chan models.Envelope, pipeBuffer)
	done := make(chan struct{})
	once := &sync.Once{}

	a := &pipeEnd{name: name, in: ba, out: ab, done: done, once: once}
	b := &pipeEnd{name: name, in: ab, out: ba, done: done, once: once}
	return a, b
}

func (p *pipeEnd) Name() string { return p.name }

func (p *pipeEnd) Post(env models.Envelope) error {
	select {
	case <-p.done:
		return ErrDisconnected
	default:
	}
	select {
	case p.out <- env:
		return nil
	case <-p.done:
		return ErrDisconnected
	}
}

// Receive drains envelopes that were queued before the disconnect.
func (p *pipeEnd) Receive() (models.Envelope, error) {
	select {
	case env := <-p.in:
		return env, nil
	case <-p.done:
		select {
		case env := <-p.in:
			return env, nil
		default:
			return models.Envelope{}, ErrDisconnected
		}
	}
}

func (p *pipeEnd) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

// AcceptFunc serves the relay end of a freshly connected port.
type AcceptFunc func(p Port)

// LocalDialer connects to a relay running in the same process.
type LocalDialer struct {
	Accept AcceptFunc
}

func (d LocalDialer) Connect(ctx context.Context, name string) (Port, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.Accept == nil {
		return nil, errors.New("local relay is not running")
	}
	near, far := Pipe(name)
	go d.Accept(far)
	return near, nil
}
