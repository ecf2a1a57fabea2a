package auth

import (
	"context"
	"io"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/intmo/internal/shared"
	"golang.org/x/oauth2"
)

// events records collaborator calls in order across fakes.
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(ev string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, ev)
}

func (e *events) list() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.log...)
}

func (e *events) index(ev string) int {
	for i, v := range e.list() {
		if v == ev {
			return i
		}
	}
	return -1
}

type memStore struct {
	mu     sync.Mutex
	data   map[string]string
	gets   int
	events *events
}

func newMemStore(ev *events, kv ...string) *memStore {
	s := &memStore{data: map[string]string{}, events: ev}
	for i := 0; i+1 < len(kv); i += 2 {
		s.data[kv[i]] = kv[i+1]
	}
	return s
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	s.events.add("set:" + key)
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	s.events.add("delete:" + key)
	return nil
}

func (s *memStore) value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *memStore) getCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

type fakeProvider struct {
	mu        sync.Mutex
	exchanges []string
	refreshes []string
	states    []string

	ExchangeFunc func(code string) (*oauth2.Token, error)
	RefreshFunc  func(rt string) (*oauth2.Token, error)
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	p.mu.Lock()
	p.states = append(p.states, state)
	p.mu.Unlock()
	return "https://accounts.example.com/authorize?client_id=id&state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	p.mu.Lock()
	p.exchanges = append(p.exchanges, code)
	fn := p.ExchangeFunc
	p.mu.Unlock()

	if fn != nil {
		return fn(code)
	}
	return &oauth2.Token{AccessToken: "access-" + code, RefreshToken: "refresh-" + code}, nil
}

func (p *fakeProvider) Refresh(_ context.Context, rt string) (*oauth2.Token, error) {
	p.mu.Lock()
	p.refreshes = append(p.refreshes, rt)
	fn := p.RefreshFunc
	p.mu.Unlock()

	if fn != nil {
		return fn(rt)
	}
	return &oauth2.Token{AccessToken: "refreshed"}, nil
}

func (p *fakeProvider) exchangeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.exchanges)
}

func (p *fakeProvider) refreshCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.refreshes)
}

func (p *fakeProvider) stateList() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.states...)
}

type fakeRegistrar struct {
	mu         sync.Mutex
	handler    CallbackHandler
	registered int
	disposals  int
	events     *events
}

type fakeRegistration struct {
	r    *fakeRegistrar
	once sync.Once
}

func (d *fakeRegistration) Dispose() {
	d.once.Do(func() {
		d.r.mu.Lock()
		d.r.handler = nil
		d.r.disposals++
		d.r.mu.Unlock()
		d.r.events.add("dispose")
	})
}

func (r *fakeRegistrar) Register(h CallbackHandler) (Disposable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handler != nil {
		return nil, shared.ErrAcceptorBusy
	}
	r.handler = h
	r.registered++
	r.events.add("register")
	return &fakeRegistration{r: r}, nil
}

// deliver invokes the live handler, reporting false when none is registered.
func (r *fakeRegistrar) deliver(uri *url.URL, err error) bool {
	r.mu.Lock()
	h := r.handler
	r.mu.Unlock()
	if h == nil {
		return false
	}
	h(uri, err)
	return true
}

func (r *fakeRegistrar) deliverQuery(rawQuery string) bool {
	return r.deliver(&url.URL{Scheme: "http", Host: "127.0.0.1:8888", Path: "/callback", RawQuery: rawQuery}, nil)
}

func (r *fakeRegistrar) active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handler != nil
}

func (r *fakeRegistrar) disposeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disposals
}

// stateFromURL extracts the state parameter the session put into an authorization URL.
func stateFromURL(t *testing.T, authURL string) string {
	t.Helper()
	u, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("bad authorization URL %q: %v", authURL, err)
	}
	return u.Query().Get("state")
}

// respondWith returns an Opener that answers every authorization URL by delivering the query
// built by query(state) to reg.
func respondWith(t *testing.T, reg *fakeRegistrar, query func(state string) string) OpenerFunc {
	return func(authURL string) error {
		reg.deliverQuery(query(stateFromURL(t, authURL)))
		return nil
	}
}

func validCallback(code string) func(state string) string {
	return func(state string) string {
		return url.Values{"code": {code}, "state": {state}}.Encode()
	}
}

type harness struct {
	events    *events
	store     *memStore
	provider  *fakeProvider
	registrar *fakeRegistrar
	session   *Session
}

func newHarness(t *testing.T, opener Opener, timeout time.Duration, kv ...string) *harness {
	t.Helper()

	ev := &events{}
	h := &harness{
		events:    ev,
		store:     newMemStore(ev, kv...),
		provider:  &fakeProvider{},
		registrar: &fakeRegistrar{events: ev},
	}
	if opener == nil {
		opener = OpenerFunc(func(string) error { return nil })
	}

	session, err := NewSession(Options{
		Store:     h.store,
		Provider:  h.provider,
		Opener:    opener,
		Registrar: h.registrar,
		Logger:    shared.NewLogger(io.Discard),
		Timeout:   timeout,
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	h.session = session
	return h
}

// withOpener builds a harness whose opener needs the registrar, which only exists after the
// harness does.
func withOpener(t *testing.T, timeout time.Duration, build func(h *harness) Opener, kv ...string) *harness {
	t.Helper()
	var h *harness
	h = newHarness(t, OpenerFunc(func(u string) error {
		return build(h).Open(u)
	}), timeout, kv...)
	return h
}
