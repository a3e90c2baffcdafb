package models

import (
	"fmt"
	"strings"
)

// Значения по умолчанию (как в исходных данных закупки)
const (
	DefaultFormatVersion = "1"
	DefaultCurrency      = "SEK"
	DefaultCountry       = "Sweden"
	DefaultCountryCode   = "Q34" // Wikidata QID, чтобы не парсить названия стран
)

// ContactPerson — контактное лицо поставщика
type ContactPerson struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func NewContactPerson(name, email, phone string) (ContactPerson, error) {
	if name == "" {
		return ContactPerson{}, &ValidationError{Field: "name", Reason: "required"}
	}
	if email == "" {
		return ContactPerson{}, &ValidationError{Field: "email", Reason: "required"}
	}
	if !strings.Contains(email, "@") {
		return ContactPerson{}, &ValidationError{Field: "email", Reason: "must contain '@'"}
	}
	if phone == "" {
		return ContactPerson{}, &ValidationError{Field: "phone", Reason: "required"}
	}
	return ContactPerson{Name: name, Email: email, Phone: phone}, nil
}

// ListPrice — позиция прайс-листа предложения, валюта по умолчанию SEK
type ListPrice struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Details  string  `json:"details"`
}

func NewListPrice(name string, price float64, details string) (ListPrice, error) {
	if name == "" {
		return ListPrice{}, &ValidationError{Field: "name", Reason: "required"}
	}
	if price < 0 {
		return ListPrice{}, &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	return ListPrice{Name: name, Price: price, Currency: DefaultCurrency, Details: details}, nil
}

// Supplier — компания, размещающая предложения.
//
// Регистрацию F-skatt и банкротство проверяем на момент валидации закупки,
// organization_code нужен для этих проверок в реестрах.
type Supplier struct {
	ID               int             `json:"id"`
	Name             string          `json:"name"`
	Address          string          `json:"address"`
	City             string          `json:"city"`
	Postcode         string          `json:"postcode"`
	Country          string          `json:"country"`
	CountryCode      string          `json:"country_code"`
	OrganizationCode string          `json:"organization_code"`
	TaxRegistered    bool            `json:"tax_registered"`
	Insolvent        bool            `json:"insolvent"`
	ContactPersons   []ContactPerson `json:"contact_persons"`
}

// NewSupplier создает поставщика с дефолтной страной и статусами
// (зарегистрирован для F-skatt, не банкрот). Требуется хотя бы одно
// контактное лицо.
func NewSupplier(id int, name, address, city, postcode, organizationCode string, contacts ...ContactPerson) (Supplier, error) {
	if id <= 0 {
		return Supplier{}, &ValidationError{Field: "id", Reason: "must be positive"}
	}
	if name == "" {
		return Supplier{}, &ValidationError{Field: "name", Reason: "required"}
	}
	if organizationCode == "" {
		return Supplier{}, &ValidationError{Field: "organization_code", Reason: "required"}
	}
	if len(contacts) == 0 {
		return Supplier{}, &ValidationError{Field: "contact_persons", Reason: "at least one contact person required"}
	}
	return Supplier{
		ID:               id,
		Name:             name,
		Address:          address,
		City:             city,
		Postcode:         postcode,
		Country:          DefaultCountry,
		CountryCode:      DefaultCountryCode,
		OrganizationCode: organizationCode,
		TaxRegistered:    true,
		ContactPersons:   contacts,
	}, nil
}

// AddressLine собирает адресную строку из сохраненных полей
func (s *Supplier) AddressLine() string {
	return fmt.Sprintf("%s, %s, %s", s.Address, s.Postcode, s.Country)
}

// Bid — предложение поставщика по одному лоту. Поставщик указывается
// по идентификатору из реестра закупки, а не вложенной структурой,
// чтобы не дублировать его данные в каждом предложении.
type Bid struct {
	SupplierID  int         `json:"supplier_id"`
	Winner      bool        `json:"winner"`
	Time        string      `json:"time"` // ISO 8601
	FixedPrices []ListPrice `json:"fixed_prices"`
	HourPrices  []ListPrice `json:"hour_prices"`
}

// NewBid не проверяет, что supplierID есть в реестре: предложение может
// создаваться раньше, чем реестр закупки собран целиком. Это проверяет
// Validate на уровне агрегата.
func NewBid(supplierID int, fixedPrices, hourPrices []ListPrice, time string) (Bid, error) {
	if supplierID <= 0 {
		return Bid{}, &ValidationError{Field: "supplier_id", Reason: "must be positive"}
	}
	if time == "" {
		return Bid{}, &ValidationError{Field: "time", Reason: "required"}
	}
	return Bid{SupplierID: supplierID, FixedPrices: fixedPrices, HourPrices: hourPrices, Time: time}, nil
}

// MarkWinner — явная операция присуждения вместо свободной правки поля
func (b *Bid) MarkWinner() {
	b.Winner = true
}

// Lot — часть закупки, присуждаемая независимо
type Lot struct {
	Name    string `json:"name"`
	Details string `json:"details"`
	Bids    []Bid  `json:"bids"`
}

func NewLot(name, details string, bids ...Bid) (Lot, error) {
	if name == "" {
		return Lot{}, &ValidationError{Field: "name", Reason: "required"}
	}
	return Lot{Name: name, Details: details, Bids: bids}, nil
}

// HasWinningBid — есть ли у лота хотя бы одно выигравшее предложение
func (l *Lot) HasWinningBid() bool {
	for i := range l.Bids {
		if l.Bids[i].Winner {
			return true
		}
	}
	return false
}

// WinningBids возвращает выигравшие предложения в порядке добавления
func (l *Lot) WinningBids() []Bid {
	var winners []Bid
	for i := range l.Bids {
		if l.Bids[i].Winner {
			winners = append(winners, l.Bids[i])
		}
	}
	return winners
}

// Procurement — агрегат закупки: лоты и реестр поставщиков.
// format_version хранится вместе с документом, чтобы можно было
// мигрировать старые данные при изменении формата.
type Procurement struct {
	FormatVersion  string     `json:"format_version"`
	OrganizationID int        `json:"organization_id"`
	Name           string     `json:"name"`
	Details        string     `json:"details"`
	Time           string     `json:"time"` // ISO 8601
	Suppliers      []Supplier `json:"suppliers"`
	Lots           []Lot      `json:"lots"`
}

// NewProcurement собирает агрегат и проверяет уникальность id поставщиков
// в реестре (сам Supplier своих соседей не видит).
func NewProcurement(name, details, time string, organizationID int, lots []Lot, suppliers []Supplier) (*Procurement, error) {
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if time == "" {
		return nil, &ValidationError{Field: "time", Reason: "required"}
	}
	if organizationID <= 0 {
		return nil, &ValidationError{Field: "organization_id", Reason: "must be positive"}
	}
	seen := make(map[int]bool, len(suppliers))
	for i := range suppliers {
		if seen[suppliers[i].ID] {
			return nil, &ValidationError{Field: "suppliers", Reason: fmt.Sprintf("duplicate supplier id %d", suppliers[i].ID)}
		}
		seen[suppliers[i].ID] = true
	}
	return &Procurement{
		FormatVersion:  DefaultFormatVersion,
		OrganizationID: organizationID,
		Name:           name,
		Details:        details,
		Time:           time,
		Suppliers:      suppliers,
		Lots:           lots,
	}, nil
}

// SupplierByID ищет поставщика в реестре закупки
func (p *Procurement) SupplierByID(id int) (*Supplier, bool) {
	for i := range p.Suppliers {
		if p.Suppliers[i].ID == id {
			return &p.Suppliers[i], true
		}
	}
	return nil, false
}

// MarkWinner отмечает предложение поставщика supplierID в лоте lotName
// как выигравшее
func (p *Procurement) MarkWinner(lotName string, supplierID int) error {
	for li := range p.Lots {
		if p.Lots[li].Name != lotName {
			continue
		}
		for bi := range p.Lots[li].Bids {
			if p.Lots[li].Bids[bi].SupplierID == supplierID {
				p.Lots[li].Bids[bi].MarkWinner()
				return nil
			}
		}
		return fmt.Errorf("lot %q has no bid from supplier %d", lotName, supplierID)
	}
	return fmt.Errorf("lot %q not found", lotName)
}
