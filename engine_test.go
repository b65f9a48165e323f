package contactbook

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type memUserStore struct {
	mu      sync.Mutex
	users   map[string]User
	byEmail map[string]string

	findByIDCalls    int
	findByEmailCalls int
	createCalls      int
	updateCalls      int

	failWith error
}

func newMemUserStore() *memUserStore {
	return &memUserStore{
		users:   make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func (s *memUserStore) FindByID(ctx context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findByIDCalls++
	if s.failWith != nil {
		return User{}, s.failWith
	}
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (s *memUserStore) FindByEmail(ctx context.Context, email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findByEmailCalls++
	if s.failWith != nil {
		return User{}, s.failWith
	}
	id, ok := s.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return s.users[id], nil
}

func (s *memUserStore) Create(ctx context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if s.failWith != nil {
		return s.failWith
	}
	if _, ok := s.byEmail[user.Email]; ok {
		return ErrDuplicateIdentity
	}
	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *memUserStore) Update(ctx context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	if s.failWith != nil {
		return s.failWith
	}
	if _, ok := s.users[user.ID]; !ok {
		return ErrNotFound
	}
	s.users[user.ID] = user
	return nil
}

// setRole mutates the stored role directly, outside the engine API, the way
// an operator would via the admin tooling.
func (s *memUserStore) setRole(t *testing.T, email string, role Role) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		t.Fatalf("no user %s", email)
	}
	user := s.users[id]
	user.Role = role
	s.users[id] = user
}

type memContactStore struct {
	mu       sync.Mutex
	contacts map[string]Contact

	findByIDCalls    int
	findByOwnerCalls int
	findAllCalls     int
	createCalls      int
	updateCalls      int
	deleteCalls      int
}

func newMemContactStore() *memContactStore {
	return &memContactStore{contacts: make(map[string]Contact)}
}

func (s *memContactStore) FindByID(ctx context.Context, id string) (Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findByIDCalls++
	c, ok := s.contacts[id]
	if !ok {
		return Contact{}, ErrNotFound
	}
	return c, nil
}

func (s *memContactStore) FindByOwner(ctx context.Context, ownerID string) ([]Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findByOwnerCalls++
	var out []Contact
	for _, c := range s.contacts {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memContactStore) FindAll(ctx context.Context) ([]Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findAllCalls++
	var out []Contact
	for _, c := range s.contacts {
		out = append(out, c)
	}
	return out, nil
}

func (s *memContactStore) Create(ctx context.Context, contact Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	s.contacts[contact.ID] = contact
	return nil
}

func (s *memContactStore) Update(ctx context.Context, contact Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	stored, ok := s.contacts[contact.ID]
	if !ok {
		return ErrNotFound
	}
	contact.OwnerID = stored.OwnerID
	s.contacts[contact.ID] = contact
	return nil
}

func (s *memContactStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls++
	if _, ok := s.contacts[id]; !ok {
		return ErrNotFound
	}
	delete(s.contacts, id)
	return nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []string // recipient|subject|body
	fail  error
	calls int
}

func (n *recordingNotifier) Notify(ctx context.Context, recipient, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, recipient+"|"+subject+"|"+body)
	return nil
}

// lastBody returns the body of the most recent message sent to recipient
// under the given subject, or "" when none was sent.
func (n *recordingNotifier) lastBody(recipient, subject string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	prefix := recipient + "|" + subject + "|"
	for i := len(n.sent) - 1; i >= 0; i-- {
		if strings.HasPrefix(n.sent[i], prefix) {
			return strings.TrimPrefix(n.sent[i], prefix)
		}
	}
	return ""
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	fail   error
}

func (p *recordingPublisher) Publish(ctx context.Context, event string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.events = append(p.events, event)
	return nil
}

type testEnv struct {
	engine    *Engine
	users     *memUserStore
	contacts  *memContactStore
	notifier  *recordingNotifier
	publisher *recordingPublisher
	redis     *miniredis.Miniredis
}

func testEngineConfig() Config {
	cfg := defaultConfig()
	cfg.Token.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Metrics.Enabled = true
	// Fast parameters; the password package tests cover the strong ones.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

func newTestEngine(t *testing.T, mut func(*Config)) *testEnv {
	t.Helper()

	cfg := testEngineConfig()
	if mut != nil {
		mut(&cfg)
	}

	env := &testEnv{
		users:     newMemUserStore(),
		contacts:  newMemContactStore(),
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
	}

	b := New().
		WithConfig(cfg).
		WithUserStore(env.users).
		WithContactStore(env.contacts).
		WithNotifier(env.notifier).
		WithPublisher(env.publisher)

	if cfg.Cache.Enabled {
		mr, err := miniredis.Run()
		if err != nil {
			t.Fatalf("miniredis start: %v", err)
		}
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() {
			rdb.Close()
			mr.Close()
		})
		env.redis = mr
		b = b.WithRedis(rdb)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	env.engine = engine
	return env
}

// registerAndLogin is the common test preamble: a registered account and a
// live session token for it.
func (env *testEnv) registerAndLogin(t *testing.T, email, pwd string) (User, string) {
	t.Helper()
	ctx := context.Background()

	user, err := env.engine.Register(ctx, RegisterInput{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  pwd,
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}

	tok, err := env.engine.Login(ctx, email, pwd)
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return user, tok
}

// requestReset triggers a password reset and captures the issued token from
// the notification that carries it; the engine never hands it back directly.
func (env *testEnv) requestReset(t *testing.T, email string) string {
	t.Helper()

	if err := env.engine.RequestPasswordReset(context.Background(), email); err != nil {
		t.Fatalf("request reset for %s: %v", email, err)
	}
	tok := env.notifier.lastBody(email, "Password reset")
	if tok == "" {
		t.Fatalf("expected reset notification for %s, got %v", email, env.notifier.sent)
	}
	return tok
}

func (env *testEnv) createContact(t *testing.T, tok string, in ContactInput) Contact {
	t.Helper()
	c, err := env.engine.CreateContact(context.Background(), tok, in)
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}
	return c
}

func (env *testEnv) metric(id MetricID) uint64 {
	return env.engine.MetricsSnapshot().Counters[id]
}
