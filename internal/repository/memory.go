package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain"
)

// MemoryStore объединённое in-memory хранилище и простой генератор ID
type MemoryStore struct {
	mu             sync.RWMutex
	nextProdID     int64
	nextAccountID  int64
	nextPurchaseID int64
	productsByID   map[int64]domain.Product
	accountsByID   map[int64]domain.Account
	accountByName  map[string]int64
	sessions       map[string]domain.Session
	carts          map[int64][]int64
	purchases      map[int64][]domain.Purchase
	pending        map[int64][]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextProdID:     1,
		nextAccountID:  1,
		nextPurchaseID: 1,
		productsByID:   make(map[int64]domain.Product),
		accountsByID:   make(map[int64]domain.Account),
		accountByName:  make(map[string]int64),
		sessions:       make(map[string]domain.Session),
		carts:          make(map[int64][]int64),
		purchases:      make(map[int64][]domain.Purchase),
		pending:        make(map[int64][]int64),
	}
}

type txKey struct{}

func isTx(ctx context.Context) bool {
	b, ok := ctx.Value(txKey{}).(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

var _ ProductRepository = (*MemoryStore)(nil)

func copyProduct(p domain.Product) domain.Product {
	p.Photos = append([]string(nil), p.Photos...)
	return p
}

// ProductRepository implementation
func (m *MemoryStore) Create(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	for _, existing := range m.productsByID {
		if p.Slug != "" && existing.Slug == p.Slug {
			return ErrDuplicate
		}
	}
	p.ID = m.nextProdID
	m.nextProdID++
	m.productsByID[p.ID] = copyProduct(*p)
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	p, ok := m.productsByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := copyProduct(p)
	return &cp, nil
}

func (m *MemoryStore) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	for _, p := range m.productsByID {
		if p.Slug == slug {
			cp := copyProduct(p)
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]domain.Product, 0, len(m.productsByID))
	for _, p := range m.productsByID {
		if !containsIgnoreCase(p.Title, f.TitleSubstring) {
			continue
		}
		if f.OnlyFree && !p.IsFree() {
			continue
		}
		out = append(out, copyProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MemoryAccounts AccountRepository поверх общего хранилища
type MemoryAccounts struct{ store *MemoryStore }

func NewMemoryAccounts(store *MemoryStore) *MemoryAccounts { return &MemoryAccounts{store: store} }

var _ AccountRepository = (*MemoryAccounts)(nil)

func (ma *MemoryAccounts) Create(ctx context.Context, a *domain.Account) error {
	ma.store.wlock(ctx)
	defer ma.store.wunlock(ctx)
	if _, taken := ma.store.accountByName[a.Username]; taken {
		return ErrDuplicate
	}
	a.ID = ma.store.nextAccountID
	ma.store.nextAccountID++
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	ma.store.accountsByID[a.ID] = *a
	ma.store.accountByName[a.Username] = a.ID
	return nil
}

func (ma *MemoryAccounts) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	ma.store.rlock(ctx)
	defer ma.store.runlock(ctx)
	a, ok := ma.store.accountsByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (ma *MemoryAccounts) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	ma.store.rlock(ctx)
	defer ma.store.runlock(ctx)
	id, ok := ma.store.accountByName[username]
	if !ok {
		return nil, ErrNotFound
	}
	a := ma.store.accountsByID[id]
	return &a, nil
}

// Update сохраняет изменения; смена логина переиндексирует запись
func (ma *MemoryAccounts) Update(ctx context.Context, a *domain.Account) error {
	ma.store.wlock(ctx)
	defer ma.store.wunlock(ctx)
	old, ok := ma.store.accountsByID[a.ID]
	if !ok {
		return ErrNotFound
	}
	if old.Username != a.Username {
		if _, taken := ma.store.accountByName[a.Username]; taken {
			return ErrDuplicate
		}
		delete(ma.store.accountByName, old.Username)
		ma.store.accountByName[a.Username] = a.ID
	}
	a.UpdatedAt = time.Now().UTC()
	ma.store.accountsByID[a.ID] = *a
	return nil
}

// MemorySessions SessionRepository поверх общего хранилища
type MemorySessions struct{ store *MemoryStore }

func NewMemorySessions(store *MemoryStore) *MemorySessions { return &MemorySessions{store: store} }

var _ SessionRepository = (*MemorySessions)(nil)

func (ms *MemorySessions) Save(ctx context.Context, s domain.Session) error {
	ms.store.wlock(ctx)
	defer ms.store.wunlock(ctx)
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	ms.store.sessions[s.ID] = s
	return nil
}

func (ms *MemorySessions) Get(ctx context.Context, id string) (*domain.Session, error) {
	ms.store.rlock(ctx)
	defer ms.store.runlock(ctx)
	s, ok := ms.store.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (ms *MemorySessions) Delete(ctx context.Context, id string) error {
	ms.store.wlock(ctx)
	defer ms.store.wunlock(ctx)
	if _, ok := ms.store.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(ms.store.sessions, id)
	return nil
}

// MemoryCarts CartRepository поверх общего хранилища; порядок добавления сохраняется
type MemoryCarts struct{ store *MemoryStore }

func NewMemoryCarts(store *MemoryStore) *MemoryCarts { return &MemoryCarts{store: store} }

var _ CartRepository = (*MemoryCarts)(nil)

func (mc *MemoryCarts) Add(ctx context.Context, userID, productID int64) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	for _, id := range mc.store.carts[userID] {
		if id == productID {
			return ErrDuplicate
		}
	}
	mc.store.carts[userID] = append(mc.store.carts[userID], productID)
	return nil
}

// Remove не считает ошибкой отсутствие позиции
func (mc *MemoryCarts) Remove(ctx context.Context, userID, productID int64) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	items := mc.store.carts[userID]
	out := items[:0]
	for _, id := range items {
		if id != productID {
			out = append(out, id)
		}
	}
	mc.store.carts[userID] = out
	return nil
}

func (mc *MemoryCarts) Clear(ctx context.Context, userID int64) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	delete(mc.store.carts, userID)
	return nil
}

func (mc *MemoryCarts) Items(ctx context.Context, userID int64) ([]int64, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	return append([]int64(nil), mc.store.carts[userID]...), nil
}

// MemoryPurchases PurchaseRepository поверх общего хранилища
type MemoryPurchases struct{ store *MemoryStore }

func NewMemoryPurchases(store *MemoryStore) *MemoryPurchases { return &MemoryPurchases{store: store} }

var _ PurchaseRepository = (*MemoryPurchases)(nil)

func (mp *MemoryPurchases) Create(ctx context.Context, p *domain.Purchase) error {
	mp.store.wlock(ctx)
	defer mp.store.wunlock(ctx)
	for _, existing := range mp.store.purchases[p.UserID] {
		if existing.ProductID == p.ProductID {
			return ErrDuplicate
		}
	}
	p.ID = mp.store.nextPurchaseID
	mp.store.nextPurchaseID++
	p.CreatedAt = time.Now().UTC()
	mp.store.purchases[p.UserID] = append(mp.store.purchases[p.UserID], *p)
	return nil
}

func (mp *MemoryPurchases) Has(ctx context.Context, userID, productID int64) (bool, error) {
	mp.store.rlock(ctx)
	defer mp.store.runlock(ctx)
	for _, p := range mp.store.purchases[userID] {
		if p.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (mp *MemoryPurchases) ListByUser(ctx context.Context, userID int64) ([]domain.Purchase, error) {
	mp.store.rlock(ctx)
	defer mp.store.runlock(ctx)
	return append([]domain.Purchase(nil), mp.store.purchases[userID]...), nil
}

// MemoryPending PendingRepository поверх общего хранилища
type MemoryPending struct{ store *MemoryStore }

func NewMemoryPending(store *MemoryStore) *MemoryPending { return &MemoryPending{store: store} }

var _ PendingRepository = (*MemoryPending)(nil)

func (mp *MemoryPending) Put(ctx context.Context, userID int64, productIDs []int64) error {
	mp.store.wlock(ctx)
	defer mp.store.wunlock(ctx)
	if len(productIDs) == 0 {
		delete(mp.store.pending, userID)
		return nil
	}
	mp.store.pending[userID] = append([]int64(nil), productIDs...)
	return nil
}

func (mp *MemoryPending) Take(ctx context.Context, userID int64) ([]int64, error) {
	mp.store.wlock(ctx)
	defer mp.store.wunlock(ctx)
	ids, ok := mp.store.pending[userID]
	if !ok {
		return nil, ErrNotFound
	}
	delete(mp.store.pending, userID)
	return ids, nil
}

// MemoryTx использует блокировку записи как границу транзакции
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if isTx(ctx) {
		return fn(ctx)
	}
	// репозитории внутри fn пропускают собственные локи
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}
