package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/desertthunder/intmo/internal/auth"
	"github.com/desertthunder/intmo/internal/shared"
)

const ignoredInputNotice = "Ignoring input received while no authorization is pending."

type pastedLine struct {
	text string
	err  error
}

// PasteAcceptor reads the redirect URL from the user instead of listening for it.
//
// One background goroutine owns the reader and hands each line to the registration that is
// active when the line is read. Lines read while nothing is registered, such as a URL pasted
// after an attempt timed out, are discarded so they never complete a later attempt.
type PasteAcceptor struct {
	in  io.Reader
	out io.Writer

	startOnce sync.Once

	mu     sync.Mutex
	active *pasteRegistration
	ended  *pastedLine
}

var _ auth.CallbackRegistrar = (*PasteAcceptor)(nil)

// NewPasteAcceptor reads lines from in and prompts on out.
func NewPasteAcceptor(in io.Reader, out io.Writer) *PasteAcceptor {
	if out == nil {
		out = io.Discard
	}
	return &PasteAcceptor{in: in, out: out}
}

// Register prompts for the redirect URL and delivers it to handler.
//
// An empty line or end of input delivers [shared.ErrAuthorizationCancelled].
func (a *PasteAcceptor) Register(handler auth.CallbackHandler) (auth.Disposable, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active != nil {
		return nil, shared.ErrAcceptorBusy
	}

	reg := &pasteRegistration{
		owner:   a,
		handler: handler,
		lines:   make(chan pastedLine, 1),
		done:    make(chan struct{}),
	}
	a.active = reg
	if a.ended != nil {
		reg.offer(*a.ended)
	}

	fmt.Fprintln(a.out, "Paste the URL your browser was redirected to (empty line to cancel):")
	a.startOnce.Do(func() { go a.readLines() })
	go reg.wait()
	return reg, nil
}

// readLines feeds lines to the active registration until the reader fails.
func (a *PasteAcceptor) readLines() {
	r := bufio.NewReader(a.in)
	for {
		text, err := r.ReadString('\n')
		if text = strings.TrimSpace(text); text != "" || err == nil {
			a.deliver(pastedLine{text: text})
		}
		if err != nil {
			a.end(err)
			return
		}
	}
}

func (a *PasteAcceptor) deliver(line pastedLine) {
	a.mu.Lock()
	reg := a.active
	a.mu.Unlock()

	if reg == nil {
		fmt.Fprintln(a.out, ignoredInputNotice)
		return
	}
	reg.offer(line)
}

// end records the read failure so current and future registrations see it.
func (a *PasteAcceptor) end(err error) {
	line := pastedLine{err: err}

	a.mu.Lock()
	a.ended = &line
	reg := a.active
	a.mu.Unlock()

	if reg != nil {
		reg.offer(line)
	}
}

type pasteRegistration struct {
	owner   *PasteAcceptor
	handler auth.CallbackHandler
	lines   chan pastedLine
	done    chan struct{}
	once    sync.Once
}

// offer keeps the first line only.
func (r *pasteRegistration) offer(line pastedLine) {
	select {
	case r.lines <- line:
	default:
	}
}

func (r *pasteRegistration) wait() {
	var line pastedLine
	select {
	case line = <-r.lines:
	case <-r.done:
		return
	}

	switch {
	case errors.Is(line.err, io.EOF):
		r.handler(nil, shared.ErrAuthorizationCancelled)
	case line.err != nil:
		r.handler(nil, fmt.Errorf("%w: reading input: %w", shared.ErrAuthorizationCancelled, line.err))
	case line.text == "":
		r.handler(nil, shared.ErrAuthorizationCancelled)
	default:
		uri, err := url.Parse(line.text)
		if err != nil {
			r.handler(nil, fmt.Errorf("%w: not a URL: %v", shared.ErrCallbackValidation, err))
			return
		}
		r.handler(uri, nil)
	}
}

// Dispose stops waiting for input. Safe to call more than once.
func (r *pasteRegistration) Dispose() {
	r.once.Do(func() {
		close(r.done)

		r.owner.mu.Lock()
		if r.owner.active == r {
			r.owner.active = nil
		}
		r.owner.mu.Unlock()
	})
}
