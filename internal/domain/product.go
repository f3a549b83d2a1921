package domain

import (
	"fmt"
	"time"
)

type ProductKind string

const (
	ProductKindHoliday ProductKind = "holiday"
	ProductKindPackage ProductKind = "package"
	ProductKindResort  ProductKind = "resort"
	ProductKindVisa    ProductKind = "visa"
	ProductKindFlight  ProductKind = "flight"
)

var ProductKinds = []ProductKind{
	ProductKindHoliday,
	ProductKindPackage,
	ProductKindResort,
	ProductKindVisa,
	ProductKindFlight,
}

func ParseProductKind(s string) (ProductKind, error) {
	for _, k := range ProductKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown product kind %q", ErrValidation, s)
}

// Product is a bookable catalog item. StartsAt is set for products with a fixed
// occurrence (a flight departure, a package start); otherwise the customer picks the date.
type Product struct {
	ID                   int64
	Kind                 ProductKind
	Name                 string
	Description          string
	PriceCents           int64
	Currency             string
	FullRefundWindowDays int
	HalfRefundWindowDays int
	StartsAt             *time.Time
	Active               bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
