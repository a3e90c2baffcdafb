package models

import (
	"fmt"

	"go.uber.org/multierr"
)

// Policy — настраиваемые ограничения валидации. Нулевое значение
// ничего не ограничивает.
type Policy struct {
	// MaxWinnersPerLot ограничивает число выигравших предложений в лоте,
	// 0 — без ограничения. Структурно несколько победителей допустимы.
	MaxWinnersPerLot int
}

// Validate проверяет агрегат закупки и возвращает все найденные
// нарушения в порядке лотов:
//
//  1. в каждом лоте есть выигравшее предложение (LotError);
//  2. supplier_id каждого выигравшего предложения есть в реестре
//     (IntegrityError — структурный дефект, а не бизнес-правило);
//  3. поставщик зарегистрирован для F-skatt (BidError);
//  4. поставщик не банкрот (BidError).
//
// Проверки идут от дешевых структурных к требующим поиска по реестру.
// Validate ничего не изменяет; пустой срез означает успех.
func (p *Procurement) Validate() []error {
	return p.ValidateWithPolicy(Policy{})
}

// ValidateWithPolicy — Validate с дополнительными ограничениями политики
func (p *Procurement) ValidateWithPolicy(pol Policy) []error {
	// Индекс реестра строится один раз на вызов, поиск за O(1)
	index := make(map[int]*Supplier, len(p.Suppliers))
	for i := range p.Suppliers {
		index[p.Suppliers[i].ID] = &p.Suppliers[i]
	}

	var failures []error
	for li := range p.Lots {
		lot := &p.Lots[li]
		winners := lot.WinningBids()
		if len(winners) == 0 {
			// Без победителей проверять в лоте нечего, идем к следующему
			failures = append(failures, &LotError{LotName: lot.Name, Reason: "no winning bid"})
			continue
		}
		if pol.MaxWinnersPerLot > 0 && len(winners) > pol.MaxWinnersPerLot {
			failures = append(failures, &LotError{
				LotName: lot.Name,
				Reason:  fmt.Sprintf("%d winning bids, policy allows at most %d", len(winners), pol.MaxWinnersPerLot),
			})
		}
		for _, bid := range winners {
			supplier, ok := index[bid.SupplierID]
			if !ok {
				failures = append(failures, &IntegrityError{LotName: lot.Name, SupplierID: bid.SupplierID})
				continue
			}
			if !supplier.TaxRegistered {
				failures = append(failures, &BidError{SupplierName: supplier.Name, Reason: "not registered for F-skatt"})
			}
			if supplier.Insolvent {
				failures = append(failures, &BidError{SupplierName: supplier.Name, Reason: "has filed for bankruptcy"})
			}
		}
	}
	return failures
}

// Check сворачивает все нарушения в одну ошибку, nil — если нарушений нет
func (p *Procurement) Check() error {
	return multierr.Combine(p.Validate()...)
}
