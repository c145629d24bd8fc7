package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/stworldstudy/auth-service/internal/auth/domain"
	autherror "github.com/stworldstudy/auth-service/internal/errors"
)

// memoryStore mirrors the row filters of the postgres repositories.
type memoryStore struct {
	mu            sync.Mutex
	nextID        int64
	accounts      map[int64]*domain.Account
	byEmail       map[string]int64
	verifications map[string]*domain.EmailVerification
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		accounts:      map[int64]*domain.Account{},
		byEmail:       map[string]int64{},
		verifications: map[string]*domain.EmailVerification{},
	}
}

func (m *memoryStore) find(email string, keep func(domain.AccountState) bool) *domain.Account {
	id, ok := m.byEmail[email]
	if !ok {
		return nil
	}
	a := m.accounts[id]
	if !keep(a.State) {
		return nil
	}
	cp := *a
	return &cp
}

func anyState(domain.AccountState) bool          { return true }
func notWithdrawn(s domain.AccountState) bool    { return s != domain.StateWithdrawn }
func onlyActive(s domain.AccountState) bool      { return s == domain.StateActive }
func activeOrBlocked(s domain.AccountState) bool { return s == domain.StateActive || s == domain.StateBlocked }

func (m *memoryStore) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(email, anyState), nil
}

func (m *memoryStore) GetActiveByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(email, notWithdrawn), nil
}

func (m *memoryStore) GetForAuth(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(email, notWithdrawn), nil
}

func (m *memoryStore) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.State != domain.StateActive {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *memoryStore) GetForRefresh(ctx context.Context, id int64) (*domain.Account, error) {
	return m.GetByID(ctx, id)
}

func (m *memoryStore) Create(_ context.Context, account *domain.Account) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[account.Email]; ok {
		return 0, autherror.ErrEmailAlreadyInUse
	}
	m.nextID++
	cp := *account
	cp.ID = m.nextID
	m.accounts[cp.ID] = &cp
	m.byEmail[cp.Email] = cp.ID
	return cp.ID, nil
}

func (m *memoryStore) CreatePlaceholder(_ context.Context, email string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byEmail[email]; ok {
		return id, nil
	}
	m.nextID++
	m.accounts[m.nextID] = &domain.Account{ID: m.nextID, Email: email, State: domain.StatePlaceholder}
	m.byEmail[email] = m.nextID
	return m.nextID, nil
}

func (m *memoryStore) update(id int64, keep func(domain.AccountState) bool, apply func(*domain.Account)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || !keep(a.State) {
		return false
	}
	apply(a)
	return true
}

func (m *memoryStore) CompletePlaceholder(_ context.Context, id int64, profile domain.Profile, hash string) error {
	m.mu.Lock()
	a, ok := m.accounts[id]
	eligible := ok && a.Name == "" && (a.State == domain.StatePlaceholder || a.State == domain.StateActive)
	m.mu.Unlock()
	if !eligible {
		return autherror.ErrEmailAlreadyInUse
	}
	m.update(id, anyState, func(a *domain.Account) {
		a.Profile, a.PasswordHash, a.RefreshToken, a.State = profile, hash, "", domain.StateActive
	})
	return nil
}

func (m *memoryStore) Reactivate(_ context.Context, id int64, profile domain.Profile, hash string) error {
	ok := m.update(id, func(s domain.AccountState) bool { return s == domain.StateWithdrawn }, func(a *domain.Account) {
		a.Profile, a.PasswordHash, a.RefreshToken = profile, hash, ""
		a.State, a.WithdrawalReason = domain.StateActive, ""
	})
	if !ok {
		return autherror.ErrEmailAlreadyInUse
	}
	return nil
}

func (m *memoryStore) SetRefreshToken(_ context.Context, id int64, token string) error {
	m.update(id, onlyActive, func(a *domain.Account) { a.RefreshToken = token })
	return nil
}

func (m *memoryStore) RotateRefreshToken(_ context.Context, id int64, current, next string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.State != domain.StateActive || a.RefreshToken == "" || a.RefreshToken != current {
		return false, nil
	}
	a.RefreshToken = next
	return true, nil
}

func (m *memoryStore) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	m.update(id, activeOrBlocked, func(a *domain.Account) { a.PasswordHash = hash })
	return nil
}

func (m *memoryStore) UpdateProfileImage(_ context.Context, id int64, image int) error {
	if !m.update(id, onlyActive, func(a *domain.Account) { a.ProfileImage = image }) {
		return autherror.ErrNotFound
	}
	return nil
}

func (m *memoryStore) UpdateProfile(_ context.Context, id int64, profile domain.Profile) error {
	ok := m.update(id, onlyActive, func(a *domain.Account) {
		a.Name, a.Birthday, a.IsMentor, a.TargetLanguage = profile.Name, profile.Birthday, profile.IsMentor, profile.TargetLanguage
	})
	if !ok {
		return autherror.ErrNotFound
	}
	return nil
}

func (m *memoryStore) IncrementReportCount(_ context.Context, id int64) (int, domain.AccountState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return 0, "", autherror.ErrNotFound
	}
	a.ReportCount++
	return a.ReportCount, a.State, nil
}

func (m *memoryStore) SetBlocked(_ context.Context, id int64) error {
	m.update(id, onlyActive, func(a *domain.Account) { a.State, a.RefreshToken = domain.StateBlocked, "" })
	return nil
}

func (m *memoryStore) SetDeleted(_ context.Context, id int64, reason domain.WithdrawalReason) (bool, error) {
	return m.update(id, onlyActive, func(a *domain.Account) {
		a.State, a.WithdrawalReason, a.RefreshToken = domain.StateWithdrawn, reason, ""
	}), nil
}

// account returns the raw row for assertions.
func (m *memoryStore) account(email string) *domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(email, anyState)
}

type memoryVerifications struct {
	mu      sync.Mutex
	records map[string]*domain.EmailVerification
}

func newMemoryVerifications() *memoryVerifications {
	return &memoryVerifications{records: map[string]*domain.EmailVerification{}}
}

func (m *memoryVerifications) Upsert(_ context.Context, v *domain.EmailVerification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	cp.Verified = false
	cp.UpdatedAt = time.Now()
	m.records[v.Email] = &cp
	return nil
}

func (m *memoryVerifications) GetByEmail(_ context.Context, email string) (*domain.EmailVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.records[email]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (m *memoryVerifications) MarkVerified(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.records[email]
	if !ok || v.Verified {
		return autherror.ErrAlreadyVerified
	}
	v.Verified = true
	v.UpdatedAt = time.Now()
	return nil
}

func (m *memoryVerifications) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, email)
	return nil
}

type sentMail struct {
	to, subject, body string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (r *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}
