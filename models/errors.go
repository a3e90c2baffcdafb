package models

import "fmt"

// ValidationError — ошибка валидации поля при создании сущности
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// SchemaError — отсутствующее или некорректное поле входного документа
type SchemaError struct {
	Path   string // путь до поля, например "lots[0].bids[2].supplier_id"
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: %s: %s", e.Path, e.Reason)
}

// IntegrityError — выигравшее предложение ссылается на несуществующего поставщика
type IntegrityError struct {
	LotName    string
	SupplierID int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity: lot %q: bid references unknown supplier id %d", e.LotName, e.SupplierID)
}

// LotError — нарушение бизнес-правила на уровне лота
type LotError struct {
	LotName string
	Reason  string
}

func (e *LotError) Error() string {
	return fmt.Sprintf("lot %q: %s", e.LotName, e.Reason)
}

// BidError — поставщик выигравшего предложения не проходит проверку
type BidError struct {
	SupplierName string
	Reason       string
}

func (e *BidError) Error() string {
	return fmt.Sprintf("bid: supplier %q: %s", e.SupplierName, e.Reason)
}
