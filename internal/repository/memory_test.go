package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

func TestMemoryStore_Products(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	p := domain.Product{Slug: "vl80s", Title: "ВЛ80С", Price: decimal.NewFromInt(199), Photos: []string{"/a.jpg"}}
	if err := store.Create(ctx, &p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == 0 {
		t.Fatalf("no id")
	}
	dup := domain.Product{Slug: "vl80s"}
	if err := store.Create(ctx, &dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate slug, got %v", err)
	}

	got, err := store.GetBySlug(ctx, "vl80s")
	if err != nil || got.ID != p.ID {
		t.Fatalf("get by slug: %v", err)
	}
	got.Photos[0] = "/mutated.jpg"
	again, _ := store.GetByID(ctx, p.ID)
	if again.Photos[0] != "/a.jpg" {
		t.Fatalf("store leaked its photo slice")
	}
	if _, err := store.GetByID(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found")
	}
}

func TestList_Filtering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	add := func(slug, title string, price int64) {
		p := domain.Product{Slug: slug, Title: title, Price: decimal.NewFromInt(price)}
		if err := store.Create(ctx, &p); err != nil {
			t.Fatal(err)
		}
	}
	add("map-ural", "Карта Урала", 0)
	add("vl80s", "ВЛ80С", 199)
	add("chs2", "ЧС2", 0)

	list, _ := store.List(ctx, ProductFilter{TitleSubstring: "урал"})
	if len(list) != 1 || list[0].Slug != "map-ural" {
		t.Fatalf("title filter: %+v", list)
	}
	list, _ = store.List(ctx, ProductFilter{OnlyFree: true})
	if len(list) != 2 {
		t.Fatalf("free filter: %d", len(list))
	}
	list, _ = store.List(ctx, ProductFilter{})
	for i := 1; i < len(list); i++ {
		if list[i-1].ID > list[i].ID {
			t.Fatalf("list not ordered by id")
		}
	}
}

func TestMemoryAccounts_RenameReindexes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	accounts := NewMemoryAccounts(store)

	a := domain.Account{Username: "ivan"}
	if err := accounts.Create(ctx, &a); err != nil {
		t.Fatal(err)
	}
	b := domain.Account{Username: "petr"}
	if err := accounts.Create(ctx, &b); err != nil {
		t.Fatal(err)
	}
	if err := accounts.Create(ctx, &domain.Account{Username: "ivan"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate username, got %v", err)
	}

	a.Username = "petr"
	if err := accounts.Update(ctx, &a); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("rename onto taken login: %v", err)
	}
	a.Username = "ivan_2"
	if err := accounts.Update(ctx, &a); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, err := accounts.GetByUsername(ctx, "ivan"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old login still resolves")
	}
	got, err := accounts.GetByUsername(ctx, "ivan_2")
	if err != nil || got.ID != a.ID {
		t.Fatalf("new login: %v", err)
	}
}

func TestMemoryCartsAndPurchases(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	carts := NewMemoryCarts(store)
	purchases := NewMemoryPurchases(store)

	if err := carts.Add(ctx, 1, 10); err != nil {
		t.Fatal(err)
	}
	if err := carts.Add(ctx, 1, 11); err != nil {
		t.Fatal(err)
	}
	if err := carts.Add(ctx, 1, 10); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate cart item, got %v", err)
	}
	if err := carts.Remove(ctx, 1, 10); err != nil {
		t.Fatal(err)
	}
	items, _ := carts.Items(ctx, 1)
	if len(items) != 1 || items[0] != 11 {
		t.Fatalf("items after remove: %v", items)
	}
	_ = carts.Clear(ctx, 1)
	if items, _ = carts.Items(ctx, 1); len(items) != 0 {
		t.Fatalf("cart not cleared")
	}

	p := domain.Purchase{UserID: 1, ProductID: 10}
	if err := purchases.Create(ctx, &p); err != nil {
		t.Fatal(err)
	}
	if err := purchases.Create(ctx, &domain.Purchase{UserID: 1, ProductID: 10}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate purchase")
	}
	if ok, _ := purchases.Has(ctx, 1, 10); !ok {
		t.Fatalf("purchase not recorded")
	}
	if ok, _ := purchases.Has(ctx, 2, 10); ok {
		t.Fatalf("purchase leaked to another user")
	}
}

func TestMemoryTx_RollsForwardAtomically(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tx := NewMemoryTx(store)
	carts := NewMemoryCarts(store)
	purchases := NewMemoryPurchases(store)
	_ = carts.Add(ctx, 1, 5)

	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := purchases.Create(ctx, &domain.Purchase{UserID: 1, ProductID: 5}); err != nil {
			return err
		}
		// вложенная транзакция не должна повторно брать блокировку
		return tx.WithTransaction(ctx, func(ctx context.Context) error {
			return carts.Remove(ctx, 1, 5)
		})
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	items, _ := carts.Items(ctx, 1)
	if len(items) != 0 {
		t.Fatalf("cart expected empty, got %v", items)
	}
}

func TestMemorySessions(t *testing.T) {
	ctx := context.Background()
	sessions := NewMemorySessions(NewMemoryStore())
	if err := sessions.Save(ctx, domain.Session{ID: "s1", UserID: 3, CSRFToken: "tok"}); err != nil {
		t.Fatal(err)
	}
	s, err := sessions.Get(ctx, "s1")
	if err != nil || s.UserID != 3 || s.CreatedAt.IsZero() {
		t.Fatalf("get: %+v %v", s, err)
	}
	if err := sessions.Delete(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if _, err := sessions.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete")
	}
}

func TestMemoryPending_TakeOnce(t *testing.T) {
	ctx := context.Background()
	pending := NewMemoryPending(NewMemoryStore())

	if _, err := pending.Take(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := pending.Put(ctx, 1, []int64{2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := pending.Put(ctx, 1, []int64{4}); err != nil {
		t.Fatal(err)
	}
	ids, err := pending.Take(ctx, 1)
	if err != nil || len(ids) != 1 || ids[0] != 4 {
		t.Fatalf("expected latest order [4], got %v %v", ids, err)
	}
	if _, err := pending.Take(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("order must be taken once, got %v", err)
	}

	_ = pending.Put(ctx, 2, []int64{5})
	_ = pending.Put(ctx, 2, nil)
	if _, err := pending.Take(ctx, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty put drops the order, got %v", err)
	}
}
