package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/conjunto-service/internal/domain"
	"github.com/spec-kit/conjunto-service/internal/repository"
)

// memPQRRepo is an in-memory PQRRepository for service tests.
type memPQRRepo struct {
	mu    sync.Mutex
	seq   int
	items map[string]*domain.PQR
}

func newMemPQRRepo() *memPQRRepo {
	return &memPQRRepo{items: make(map[string]*domain.PQR)}
}

func (r *memPQRRepo) Create(_ context.Context, pqr *domain.PQR) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	pqr.ID = fmt.Sprintf("pqr-%d", r.seq)
	if pqr.CreatedAt.IsZero() {
		pqr.CreatedAt = time.Now()
	}
	pqr.UpdatedAt = pqr.CreatedAt
	clone := *pqr
	r.items[pqr.ID] = &clone
	return nil
}

func (r *memPQRRepo) Update(_ context.Context, pqr *domain.PQR) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[pqr.ID]; !ok {
		return pgx.ErrNoRows
	}
	pqr.UpdatedAt = time.Now()
	clone := *pqr
	r.items[pqr.ID] = &clone
	return nil
}

func (r *memPQRRepo) GetByID(_ context.Context, id string) (*domain.PQR, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *item
	return &clone, nil
}

func (r *memPQRRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

func (r *memPQRRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items), nil
}

func (r *memPQRRepo) CountsByStatus(_ context.Context) (map[domain.PQRStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[domain.PQRStatus]int)
	for _, item := range r.items {
		counts[item.Status]++
	}
	return counts, nil
}

func (r *memPQRRepo) ListWithFilter(ctx context.Context, filter repository.PQRFilter) ([]domain.PQR, int, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	matched := make([]domain.PQR, 0, len(all))
	for _, item := range all {
		if filter.Status != nil && item.Status != *filter.Status {
			continue
		}
		if filter.Category != nil && item.Category != *filter.Category {
			continue
		}
		if filter.Type != nil && item.Type != *filter.Type {
			continue
		}
		if filter.Priority != nil && item.Priority != *filter.Priority {
			continue
		}
		if filter.RequesterID != nil && item.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.AssigneeID != nil && (item.AssigneeID == nil || *item.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if filter.Search != nil {
			needle := strings.ToLower(*filter.Search)
			haystack := strings.ToLower(item.Subject + " " + item.Description + " " + item.Number)
			if !strings.Contains(haystack, needle) {
				continue
			}
		}
		if filter.CreatedFrom != nil && item.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && item.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		matched = append(matched, item)
	}
	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (r *memPQRRepo) ListAll(_ context.Context) ([]domain.PQR, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]domain.PQR, 0, len(r.items))
	for _, item := range r.items {
		all = append(all, *item)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

// memAssemblyRepo is an in-memory AssemblyRepository for service tests.
type memAssemblyRepo struct {
	mu    sync.Mutex
	seq   int
	items map[string]*domain.Assembly
}

func newMemAssemblyRepo() *memAssemblyRepo {
	return &memAssemblyRepo{items: make(map[string]*domain.Assembly)}
}

func (r *memAssemblyRepo) Create(_ context.Context, assembly *domain.Assembly) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	assembly.ID = fmt.Sprintf("asm-%d", r.seq)
	assembly.CreatedAt = time.Now()
	assembly.UpdatedAt = assembly.CreatedAt
	clone := *assembly
	r.items[assembly.ID] = &clone
	return nil
}

func (r *memAssemblyRepo) Update(_ context.Context, assembly *domain.Assembly) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[assembly.ID]; !ok {
		return pgx.ErrNoRows
	}
	assembly.UpdatedAt = time.Now()
	clone := *assembly
	r.items[assembly.ID] = &clone
	return nil
}

func (r *memAssemblyRepo) GetByID(_ context.Context, id string) (*domain.Assembly, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *item
	return &clone, nil
}

func (r *memAssemblyRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

func (r *memAssemblyRepo) ListWithFilter(_ context.Context, filter repository.AssemblyFilter) ([]domain.Assembly, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]domain.Assembly, 0, len(r.items))
	for _, item := range r.items {
		if filter.Status != nil && item.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && item.Type != *filter.Type {
			continue
		}
		if filter.Search != nil {
			needle := strings.ToLower(*filter.Search)
			haystack := strings.ToLower(item.Title + " " + item.Description)
			if !strings.Contains(haystack, needle) {
				continue
			}
		}
		matched = append(matched, *item)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ScheduledAt.After(matched[j].ScheduledAt)
	})
	return matched, len(matched), nil
}

func (r *memAssemblyRepo) CountsByStatus(_ context.Context) (map[domain.AssemblyStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[domain.AssemblyStatus]int)
	for _, item := range r.items {
		counts[item.Status]++
	}
	return counts, nil
}

func (r *memAssemblyRepo) CountsByType(_ context.Context) (map[domain.AssemblyType]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[domain.AssemblyType]int)
	for _, item := range r.items {
		counts[item.Type]++
	}
	return counts, nil
}

// memTenantRepos hands the same in-memory repos back for every tenant id.
type memTenantRepos struct {
	pqrs       *memPQRRepo
	assemblies *memAssemblyRepo
}

func (m *memTenantRepos) PQRs(context.Context, string) (repository.PQRRepository, error) {
	return m.pqrs, nil
}

func (m *memTenantRepos) Assemblies(context.Context, string) (repository.AssemblyRepository, error) {
	return m.assemblies, nil
}

// fixedOwners is an OwnerCounter returning a constant denominator.
type fixedOwners int

func (f fixedOwners) CountOwnersByTenant(context.Context, string) (int, error) {
	return int(f), nil
}

// memUserRepo is an in-memory UserRepository for auth tests.
type memUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == strings.ToLower(email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = hash
	return nil
}

func (r *memUserRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		user.LastLoginAt = &at
	}
	return nil
}

func (r *memUserRepo) MarkEmailVerified(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.EmailVerified = true
	return nil
}

func (r *memUserRepo) CountOwnersByTenant(_ context.Context, tenantID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, user := range r.users {
		if user.TenantID != nil && *user.TenantID == tenantID &&
			user.Role == domain.RolePropietario && user.Active {
			count++
		}
	}
	return count, nil
}

// memConjuntoRepo is an in-memory ConjuntoRepository.
type memConjuntoRepo struct {
	mu    sync.Mutex
	seq   int
	items map[string]*domain.Conjunto
}

func newMemConjuntoRepo() *memConjuntoRepo {
	return &memConjuntoRepo{items: make(map[string]*domain.Conjunto)}
}

func (r *memConjuntoRepo) Create(_ context.Context, conjunto *domain.Conjunto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	conjunto.ID = fmt.Sprintf("conj-%d", r.seq)
	conjunto.CreatedAt = time.Now()
	conjunto.UpdatedAt = conjunto.CreatedAt
	clone := *conjunto
	r.items[conjunto.TenantID] = &clone
	return nil
}

func (r *memConjuntoRepo) GetByTenantID(_ context.Context, tenantID string) (*domain.Conjunto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conjunto, ok := r.items[tenantID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *conjunto
	return &clone, nil
}

func (r *memConjuntoRepo) GetLatest(_ context.Context) (*domain.Conjunto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.Conjunto
	for _, conjunto := range r.items {
		if latest == nil || conjunto.TenantID > latest.TenantID {
			latest = conjunto
		}
	}
	if latest == nil {
		return nil, nil
	}
	clone := *latest
	return &clone, nil
}

func (r *memConjuntoRepo) List(_ context.Context) ([]domain.Conjunto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]domain.Conjunto, 0, len(r.items))
	for _, conjunto := range r.items {
		all = append(all, *conjunto)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].TenantID < all[j].TenantID
	})
	return all, nil
}

func (r *memConjuntoRepo) SetActive(_ context.Context, tenantID string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conjunto, ok := r.items[tenantID]
	if !ok {
		return pgx.ErrNoRows
	}
	conjunto.Active = active
	return nil
}

func (r *memConjuntoRepo) Delete(_ context.Context, tenantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[tenantID]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, tenantID)
	return nil
}

// memLoginLimiter counts failures in memory.
type memLoginLimiter struct {
	mu       sync.Mutex
	failures map[string]int
	max      int
}

func newMemLoginLimiter(max int) *memLoginLimiter {
	return &memLoginLimiter{failures: make(map[string]int), max: max}
}

func (l *memLoginLimiter) TooManyAttempts(_ context.Context, email string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failures[email] >= l.max, nil
}

func (l *memLoginLimiter) RecordFailure(_ context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[email]++
	return nil
}

func (l *memLoginLimiter) Reset(_ context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, email)
	return nil
}

// memSchemaManager records provisioning calls.
type memSchemaManager struct {
	mu      sync.Mutex
	schemas map[string]bool
	failOn  string
}

func newMemSchemaManager() *memSchemaManager {
	return &memSchemaManager{schemas: make(map[string]bool)}
}

func (m *memSchemaManager) CreateSchema(_ context.Context, tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == tenantID {
		return fmt.Errorf("schema creation failed for %s", tenantID)
	}
	m.schemas[tenantID] = true
	return nil
}

func (m *memSchemaManager) DropSchema(_ context.Context, tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.schemas, tenantID)
	return nil
}

func (m *memSchemaManager) SchemaExists(_ context.Context, tenantID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.schemas[tenantID], nil
}
