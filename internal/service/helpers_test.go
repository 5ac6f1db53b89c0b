package service_test

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"flockd/internal/security"
	"flockd/internal/service"
	"flockd/internal/store/memory"
)

type capturedMail struct {
	email  string
	ticket string
}

// captureMailer records delivered reset tickets instead of sending them.
type captureMailer struct {
	mu   sync.Mutex
	sent []capturedMail
}

func (m *captureMailer) Deliver(ctx context.Context, email, ticket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, capturedMail{email: email, ticket: ticket})
	return nil
}

func (m *captureMailer) last(t *testing.T) capturedMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	return m.sent[len(m.sent)-1]
}

// stubCropper avoids network and disk in service tests.
type stubCropper struct{}

func (stubCropper) FetchAndCrop(ctx context.Context, url string, x0, y0, x1, y1 int) (string, error) {
	return "cropped.jpg", nil
}

type env struct {
	st       *memory.Store
	auth     *service.AuthService
	users    *service.UserService
	channels *service.ChannelService
	messages *service.MessageService
	standups *service.StandupService
	mailer   *captureMailer
}

func newEnv(t *testing.T) *env {
	t.Helper()

	st := memory.New()
	codec := security.NewTokenCodec("test-secret")
	hasher := security.NewPasswordHasher(4) // low cost for tests
	mailer := &captureMailer{}
	log := zap.NewNop()

	auth := service.NewAuthService(st.Users(), codec, hasher, mailer, log)
	return &env{
		st:       st,
		auth:     auth,
		users:    service.NewUserService(auth, st.Users(), stubCropper{}),
		channels: service.NewChannelService(auth, st.Users(), st.Channels()),
		messages: service.NewMessageService(auth, st.Users(), st.Channels(), st.Messages(), service.NopSink{}, log),
		standups: service.NewStandupService(auth, st.Channels(), st.Standups(), service.NopSink{}, log),
		mailer:   mailer,
	}
}

// register creates a user with a fixed password and returns id and token.
// The n-th call per test typically registers user id n-1; the first user in
// a store is the global owner.
func (e *env) register(t *testing.T, email, first, last string) (int64, string) {
	t.Helper()
	uid, token, err := e.auth.Register(context.Background(), email, "password123", first, last)
	require.NoError(t, err)
	return uid, token
}

// channel creates a channel owned by the token's user.
func (e *env) channel(t *testing.T, token, name string, public bool) int64 {
	t.Helper()
	id, err := e.channels.Create(context.Background(), token, name, public)
	require.NoError(t, err)
	return id
}

// send posts a message and returns its id.
func (e *env) send(t *testing.T, token string, channelID int64, body string) int64 {
	t.Helper()
	id, err := e.messages.Send(context.Background(), token, channelID, body)
	require.NoError(t, err)
	return id
}

func longString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}

func uniqueEmail(n int) string {
	return "user" + strconv.Itoa(n) + "@example.com"
}
