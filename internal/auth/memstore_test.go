package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/weathercraft/weathercraft/internal/domain"
)

// memStore is an in-memory AccountStore with the same atomicity contract as
// the SQLite repository: ConsumeCode is a single locked check-and-clear.
type memStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.Account
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[uuid.UUID]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	if a.VerificationCode != nil {
		v := *a.VerificationCode
		c.VerificationCode = &v
	}
	if a.VerificationExpiresAt != nil {
		t := *a.VerificationExpiresAt
		c.VerificationExpiresAt = &t
	}
	return &c
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(acct), nil
}

func (m *memStore) GetByMinecraftUUID(_ context.Context, mcUUID string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acct := range m.accounts {
		if acct.MinecraftUUID == mcUUID {
			return cloneAccount(acct), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *memStore) GetByActiveCode(_ context.Context, code string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acct := range m.accounts {
		if acct.VerificationCode != nil && *acct.VerificationCode == code {
			return cloneAccount(acct), nil
		}
	}
	return nil, domain.ErrCodeNotFound
}

// Upsert is one locked read-then-write, mirroring the repository's
// transactional upsert: concurrent issuances for the same player converge on
// a single stored account.
func (m *memStore) Upsert(_ context.Context, candidate *domain.Account) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if candidate.VerificationCode != nil {
		for _, other := range m.accounts {
			if other.MinecraftUUID != candidate.MinecraftUUID &&
				other.VerificationCode != nil && *other.VerificationCode == *candidate.VerificationCode {
				return nil, domain.ErrCodeCollision
			}
		}
	}
	for _, acct := range m.accounts {
		if acct.MinecraftUUID == candidate.MinecraftUUID {
			acct.Username = candidate.Username
			acct.VerificationCode = candidate.VerificationCode
			acct.VerificationExpiresAt = candidate.VerificationExpiresAt
			acct.Verified = false
			return cloneAccount(acct), nil
		}
	}
	m.accounts[candidate.ID] = cloneAccount(candidate)
	return cloneAccount(candidate), nil
}

func (m *memStore) ConsumeCode(_ context.Context, id uuid.UUID, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[id]
	if !ok || acct.VerificationCode == nil || *acct.VerificationCode != code {
		return domain.ErrCodeNotFound
	}
	acct.Verified = true
	acct.VerificationCode = nil
	return nil
}

// fakeDirectory resolves names from a fixed table.
type fakeDirectory struct {
	profiles map[string][2]string // claim -> {uuid, canonical name}
	err      error
}

func (d *fakeDirectory) Resolve(_ context.Context, name string) (string, string, error) {
	if d.err != nil {
		return "", "", d.err
	}
	p, ok := d.profiles[name]
	if !ok {
		return "", "", domain.ErrLookupFailed
	}
	return p[0], p[1], nil
}
