package shop

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// DemoCatalog товары, которыми заполняется dev-бэкенд
func DemoCatalog() []domain.Product {
	return []domain.Product{
		{
			Slug:   "map-ural",
			Title:  "Карта Урала",
			Price:  decimal.Zero,
			Photos: []string{"/media/products/map-ural/1.jpg", "/media/products/map-ural/2.jpg"},
		},
		{
			Slug:  "vl80s",
			Title: "ВЛ80С",
			Price: decimal.NewFromInt(199),
			Photos: []string{
				"/media/products/vl80s/cab.jpg",
				"/media/products/vl80s/side.jpg",
				"/media/products/vl80s/depot.jpg",
			},
		},
		{
			Slug:   "chs2",
			Title:  "ЧС2",
			Price:  decimal.RequireFromString("149.50"),
			Photos: []string{"/media/products/chs2/1.jpg"},
		},
		{
			Slug:  "sound-pack",
			Title: "Звуковой пакет",
			Price: decimal.Zero,
		},
	}
}

// Seed заполняет пустой каталог
func Seed(ctx context.Context, products repository.ProductRepository, catalog []domain.Product) error {
	existing, err := products.List(ctx, repository.ProductFilter{})
	if err != nil {
		return errors.Wrap(err, "list products")
	}
	if len(existing) > 0 {
		return nil
	}
	for i := range catalog {
		p := catalog[i]
		if err := products.Create(ctx, &p); err != nil {
			return errors.Wrapf(err, "seed %s", p.Slug)
		}
	}
	return nil
}
