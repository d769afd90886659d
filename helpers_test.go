package authguard

import (
	"context"
	"encoding/base32"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testConfig() Config {
	cfg := defaultConfig()
	cfg.Token.PrivateKey = []byte("test-signing-secret-0123456789ab")
	// keep the hashing cost low so the suite stays fast
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *memStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := newMemStore()

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(store).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}

	t.Cleanup(func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	})

	return engine, store, mr
}

func newTestEngineWithStore(t *testing.T, cfg Config, store CredentialStore) *Engine {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(store).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}

	t.Cleanup(func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	})

	return engine
}

// outageStore simulates a credential backend that is down: every lookup
// fails with the configured error.
type outageStore struct {
	*memStore
	err error
}

func (s *outageStore) GetUserByID(context.Context, string) (UserRecord, error) {
	return UserRecord{}, s.err
}

func (s *outageStore) GetUserByIdentifier(context.Context, string) (UserRecord, error) {
	return UserRecord{}, s.err
}

func seedUser(t *testing.T, engine *Engine, store *memStore, userID, identifier, pass string) {
	t.Helper()

	hash, err := engine.passwordHash.Hash(pass)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	store.putUser(UserRecord{
		UserID:       userID,
		Identifier:   identifier,
		PasswordHash: hash,
	})
}

// enableTwoFactor runs the full setup handshake and returns the secret and
// the plaintext backup codes.
func enableTwoFactor(t *testing.T, engine *Engine, userID string) (string, []string) {
	t.Helper()

	setup, err := engine.BeginTwoFactorSetup(context.Background(), userID)
	if err != nil {
		t.Fatalf("begin setup failed: %v", err)
	}
	code := codeForNow(t, setup.SecretBase32, engine.config.TOTP)
	if err := engine.ConfirmTwoFactorSetup(context.Background(), userID, code); err != nil {
		t.Fatalf("confirm setup failed: %v", err)
	}
	return setup.SecretBase32, setup.BackupCodes
}

func codeForNow(t *testing.T, secret string, cfg TOTPConfig) string {
	t.Helper()
	return codeForOffset(t, secret, cfg, 0)
}

func codeForOffset(t *testing.T, secret string, cfg TOTPConfig, offset int64) string {
	t.Helper()
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(secret))
	if err != nil {
		t.Fatalf("decode secret failed: %v", err)
	}
	counter := (time.Now().Unix() / int64(cfg.Period)) + offset
	code, err := hotpCode(key, counter, cfg.Digits, cfg.Algorithm)
	if err != nil {
		t.Fatalf("hotpCode failed: %v", err)
	}
	return code
}

// memStore is an in-memory CredentialStore with the locked compare-and-set
// the ConsumeBackupCode contract requires.
type memStore struct {
	mu    sync.Mutex
	users map[string]UserRecord
	byID  map[string]string
	creds map[string]*TwoFactorCredential
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[string]UserRecord),
		byID:  make(map[string]string),
		creds: make(map[string]*TwoFactorCredential),
	}
}

func (s *memStore) putUser(u UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Identifier] = u
	s.byID[u.UserID] = u.Identifier
}

func (s *memStore) GetUserByID(_ context.Context, userID string) (UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ident, ok := s.byID[userID]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return s.users[ident], nil
}

func (s *memStore) GetUserByIdentifier(_ context.Context, identifier string) (UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[identifier]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return u, nil
}

func (s *memStore) GetTwoFactor(_ context.Context, userID string) (*TwoFactorCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred := s.creds[userID]
	if cred == nil {
		return nil, nil
	}
	out := &TwoFactorCredential{
		Secret: append([]byte(nil), cred.Secret...),
		Codes:  append([]BackupCodeRecord(nil), cred.Codes...),
	}
	return out, nil
}

func (s *memStore) SaveTwoFactor(_ context.Context, userID string, secret []byte, codes []BackupCodeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[userID] = &TwoFactorCredential{
		Secret: append([]byte(nil), secret...),
		Codes:  append([]BackupCodeRecord(nil), codes...),
	}
	if ident, ok := s.byID[userID]; ok {
		u := s.users[ident]
		u.TwoFactorEnabled = true
		s.users[ident] = u
	}
	return nil
}

func (s *memStore) ClearTwoFactor(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, userID)
	if ident, ok := s.byID[userID]; ok {
		u := s.users[ident]
		u.TwoFactorEnabled = false
		s.users[ident] = u
	}
	return nil
}

func (s *memStore) ConsumeBackupCode(_ context.Context, userID string, codeHash [32]byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred := s.creds[userID]
	if cred == nil {
		return false, nil
	}
	for i := range cred.Codes {
		if cred.Codes[i].Hash == codeHash && !cred.Codes[i].Used {
			cred.Codes[i].Used = true
			return true, nil
		}
	}
	return false, nil
}
