package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"membership-backend/internal/domain"
	"membership-backend/internal/repository"
)

// memStore is an in-memory Transactor. Transactions are serialized, which stands in for
// row locks, and a failing transaction or savepoint restores the state it started from.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID    int32
	apps      map[int32]domain.MembershipApplication
	accounts  map[int32]domain.Account
	roles     map[int32]map[domain.Role]bool
	donations map[int32]domain.DonationOrder
	failures  []domain.ProvisioningFailure

	// failCreateAccount makes every account insert fail.
	failCreateAccount error
}

type memState struct {
	nextID    int32
	apps      map[int32]domain.MembershipApplication
	accounts  map[int32]domain.Account
	roles     map[int32]map[domain.Role]bool
	donations map[int32]domain.DonationOrder
	failures  []domain.ProvisioningFailure
}

func newMemStore() *memStore {
	return &memStore{
		apps:      make(map[int32]domain.MembershipApplication),
		accounts:  make(map[int32]domain.Account),
		roles:     make(map[int32]map[domain.Role]bool),
		donations: make(map[int32]domain.DonationOrder),
	}
}

func (s *memStore) snapshot() memState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := memState{
		nextID:    s.nextID,
		apps:      make(map[int32]domain.MembershipApplication, len(s.apps)),
		accounts:  make(map[int32]domain.Account, len(s.accounts)),
		roles:     make(map[int32]map[domain.Role]bool, len(s.roles)),
		donations: make(map[int32]domain.DonationOrder, len(s.donations)),
		failures:  append([]domain.ProvisioningFailure(nil), s.failures...),
	}
	for k, v := range s.apps {
		st.apps[k] = v
	}
	for k, v := range s.accounts {
		st.accounts[k] = v
	}
	for k, v := range s.roles {
		m := make(map[domain.Role]bool, len(v))
		for r, ok := range v {
			m[r] = ok
		}
		st.roles[k] = m
	}
	for k, v := range s.donations {
		st.donations[k] = v
	}
	return st
}

func (s *memStore) restore(st memState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID = st.nextID
	s.apps = st.apps
	s.accounts = st.accounts
	s.roles = st.roles
	s.donations = st.donations
	s.failures = st.failures
}

func (s *memStore) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	st := s.snapshot()
	if err := fn(memTx{s}); err != nil {
		s.restore(st)
		return err
	}
	return nil
}

func (s *memStore) id() int32 {
	s.nextID++
	return s.nextID
}

func (s *memStore) Applications() repository.ApplicationRepository { return memApps{s} }
func (s *memStore) Accounts() repository.AccountRepository         { return memAccounts{s} }
func (s *memStore) Donations() repository.DonationRepository       { return memDonations{s} }
func (s *memStore) ProvisioningFailures() repository.ProvisioningFailureRepository {
	return memFailures{s}
}

func (s *memStore) accountCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

func (s *memStore) failureCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.failures)
}

type memTx struct{ s *memStore }

func (t memTx) Applications() repository.ApplicationRepository { return memApps{t.s} }
func (t memTx) Accounts() repository.AccountRepository         { return memAccounts{t.s} }
func (t memTx) Donations() repository.DonationRepository       { return memDonations{t.s} }
func (t memTx) ProvisioningFailures() repository.ProvisioningFailureRepository {
	return memFailures{t.s}
}

func (t memTx) Savepoint(ctx context.Context, name string, fn func() error) error {
	st := t.s.snapshot()
	if err := fn(); err != nil {
		t.s.restore(st)
		return err
	}
	return nil
}

type memApps struct{ s *memStore }

func (r memApps) Create(ctx context.Context, app *domain.MembershipApplication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, other := range r.s.apps {
		if other.NationalID == app.NationalID {
			return domain.Conflict("an application with this national ID already exists")
		}
		if strings.EqualFold(other.Email, app.Email) {
			return domain.Conflict("an application with this email already exists")
		}
	}
	app.ID = r.s.id()
	app.SubmittedAt = time.Now().UTC()
	r.s.apps[app.ID] = *app
	return nil
}

func (r memApps) GetByID(ctx context.Context, id int32) (*domain.MembershipApplication, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	app, ok := r.s.apps[id]
	if !ok {
		return nil, domain.NotFound("application not found")
	}
	return &app, nil
}

func (r memApps) GetByIDForUpdate(ctx context.Context, id int32) (*domain.MembershipApplication, error) {
	return r.GetByID(ctx, id)
}

func (r memApps) Update(ctx context.Context, app *domain.MembershipApplication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.apps[app.ID]; !ok {
		return domain.NotFound("application not found")
	}
	r.s.apps[app.ID] = *app
	return nil
}

func (r memApps) Delete(ctx context.Context, id int32) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.apps[id]; !ok {
		return domain.NotFound("application not found")
	}
	delete(r.s.apps, id)
	return nil
}

func (r memApps) List(ctx context.Context, filter domain.ApplicationFilter) ([]domain.MembershipApplication, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	wanted := make(map[int32]bool, len(filter.IDs))
	for _, id := range filter.IDs {
		wanted[id] = true
	}
	var out []domain.MembershipApplication
	for _, app := range r.s.apps {
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		if len(wanted) > 0 && !wanted[app.ID] {
			continue
		}
		out = append(out, app)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memApps) ListApprovedWithoutAccount(ctx context.Context) ([]domain.MembershipApplication, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.MembershipApplication
	for _, app := range r.s.apps {
		if app.Status == domain.ApplicationStatusApproved && app.AccountID == nil {
			out = append(out, app)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memApps) ClearCredentialsIssuedBefore(ctx context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, app := range r.s.apps {
		if app.CredentialIssuedAt != nil && app.CredentialIssuedAt.Before(before) {
			app.GeneratedCredential = nil
			app.CredentialIssuedAt = nil
			r.s.apps[id] = app
			n++
		}
	}
	return n, nil
}

type memAccounts struct{ s *memStore }

func (r memAccounts) Create(ctx context.Context, acc *domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.failCreateAccount != nil {
		return r.s.failCreateAccount
	}
	for _, other := range r.s.accounts {
		if other.Username == acc.Username {
			return domain.Conflict("username is already taken")
		}
	}
	acc.ID = r.s.id()
	r.s.accounts[acc.ID] = *acc
	return nil
}

func (r memAccounts) GetByID(ctx context.Context, id int32) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	acc, ok := r.s.accounts[id]
	if !ok {
		return nil, domain.NotFound("account not found")
	}
	return &acc, nil
}

func (r memAccounts) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, acc := range r.s.accounts {
		if acc.Username == username {
			a := acc
			return &a, nil
		}
	}
	return nil, domain.NotFound("account not found")
}

func (r memAccounts) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var found *domain.Account
	for _, acc := range r.s.accounts {
		if strings.EqualFold(acc.Email, email) && (found == nil || acc.ID < found.ID) {
			a := acc
			found = &a
		}
	}
	if found == nil {
		return nil, domain.NotFound("account not found")
	}
	return found, nil
}

func (r memAccounts) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r memAccounts) SetActive(ctx context.Context, id int32, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	acc, ok := r.s.accounts[id]
	if !ok {
		return domain.NotFound("account not found")
	}
	acc.Active = active
	r.s.accounts[id] = acc
	return nil
}

func (r memAccounts) UpdatePassword(ctx context.Context, id int32, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	acc, ok := r.s.accounts[id]
	if !ok {
		return domain.NotFound("account not found")
	}
	acc.PasswordHash = passwordHash
	r.s.accounts[id] = acc
	return nil
}

func (r memAccounts) AddRole(ctx context.Context, id int32, role domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.roles[id] == nil {
		r.s.roles[id] = make(map[domain.Role]bool)
	}
	r.s.roles[id][role] = true
	return nil
}

func (r memAccounts) HasRole(ctx context.Context, id int32, role domain.Role) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.roles[id][role], nil
}

func (r memAccounts) ListRoles(ctx context.Context, id int32) ([]domain.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var roles []domain.Role
	for role := range r.s.roles[id] {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles, nil
}

type memDonations struct{ s *memStore }

func (r memDonations) Create(ctx context.Context, order *domain.DonationOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	order.ID = r.s.id()
	order.CreatedAt = time.Now().UTC()
	r.s.donations[order.ID] = *order
	return nil
}

func (r memDonations) GetByID(ctx context.Context, id int32) (*domain.DonationOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	order, ok := r.s.donations[id]
	if !ok {
		return nil, domain.NotFound("donation order not found")
	}
	return &order, nil
}

func (r memDonations) GetByIDForUpdate(ctx context.Context, id int32) (*domain.DonationOrder, error) {
	return r.GetByID(ctx, id)
}

func (r memDonations) AttachPreference(ctx context.Context, id int32, preferenceID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	order, ok := r.s.donations[id]
	if !ok {
		return domain.NotFound("donation order not found")
	}
	order.PreferenceID = &preferenceID
	r.s.donations[id] = order
	return nil
}

func (r memDonations) Settle(ctx context.Context, order *domain.DonationOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.donations[order.ID]
	if !ok || current.Status != domain.DonationStatusPending {
		return domain.Conflict("donation order is already settled")
	}
	r.s.donations[order.ID] = *order
	return nil
}

func (r memDonations) List(ctx context.Context, page, pageSize int32) ([]domain.DonationOrder, int32, error) {
	all, _ := r.ListAll(ctx)
	start := int((page - 1) * pageSize)
	if start > len(all) {
		start = len(all)
	}
	end := start + int(pageSize)
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int32(len(all)), nil
}

func (r memDonations) ListAll(ctx context.Context) ([]domain.DonationOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domain.DonationOrder, 0, len(r.s.donations))
	for _, o := range r.s.donations {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memDonations) ListPendingCreatedBefore(ctx context.Context, before time.Time) ([]domain.DonationOrder, error) {
	all, _ := r.ListAll(ctx)
	var out []domain.DonationOrder
	for _, o := range all {
		if o.Status == domain.DonationStatusPending && o.CreatedAt.Before(before) {
			out = append(out, o)
		}
	}
	return out, nil
}

type memFailures struct{ s *memStore }

func (r memFailures) Create(ctx context.Context, f *domain.ProvisioningFailure) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	f.ID = int32(len(r.s.failures) + 1)
	f.CreatedAt = time.Now().UTC()
	r.s.failures = append(r.s.failures, *f)
	return nil
}

func (r memFailures) List(ctx context.Context, limit int32) ([]domain.ProvisioningFailure, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := append([]domain.ProvisioningFailure(nil), r.s.failures...)
	if int(limit) < len(out) {
		out = out[:limit]
	}
	return out, nil
}
