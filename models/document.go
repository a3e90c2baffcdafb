package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Канонический JSON-документ закупки. ToDocument/FromDocument — точные
// обратные операции; формат документа является контрактом хранения,
// и миграции опираются на поле format_version.

// ToDocument сериализует агрегат в канонический документ. Производные
// поля (например, адресная строка) в документ не попадают.
func (p *Procurement) ToDocument() ([]byte, error) {
	return json.Marshal(p)
}

// Промежуточные типы нужны, чтобы отличать отсутствующее поле от
// нулевого значения и применять дефолты (tax_registered по умолчанию true)
type contactDoc struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type priceDoc struct {
	Name     string   `json:"name"`
	Price    *float64 `json:"price"`
	Currency string   `json:"currency"`
	Details  string   `json:"details"`
}

type supplierDoc struct {
	ID               *int         `json:"id"`
	Name             string       `json:"name"`
	Address          string       `json:"address"`
	City             string       `json:"city"`
	Postcode         string       `json:"postcode"`
	Country          string       `json:"country"`
	CountryCode      string       `json:"country_code"`
	OrganizationCode string       `json:"organization_code"`
	TaxRegistered    *bool        `json:"tax_registered"`
	Insolvent        bool         `json:"insolvent"`
	ContactPersons   []contactDoc `json:"contact_persons"`
}

type bidDoc struct {
	SupplierID  *int       `json:"supplier_id"`
	Winner      bool       `json:"winner"`
	Time        string     `json:"time"`
	FixedPrices []priceDoc `json:"fixed_prices"`
	HourPrices  []priceDoc `json:"hour_prices"`
}

type lotDoc struct {
	Name    string   `json:"name"`
	Details string   `json:"details"`
	Bids    []bidDoc `json:"bids"`
}

type procurementDoc struct {
	FormatVersion  string        `json:"format_version"`
	OrganizationID int           `json:"organization_id"`
	Name           string        `json:"name"`
	Details        string        `json:"details"`
	Time           string        `json:"time"`
	Suppliers      []supplierDoc `json:"suppliers"`
	Lots           []lotDoc      `json:"lots"`
}

// FromDocument разбирает канонический документ. Неизвестные поля
// игнорируются (совместимость вперед по format_version), отсутствующее
// обязательное поле дает SchemaError с путем до поля.
func FromDocument(data []byte) (*Procurement, error) {
	var doc procurementDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &SchemaError{Path: "$", Reason: err.Error()}
	}

	if doc.Name == "" {
		return nil, &SchemaError{Path: "name", Reason: "required"}
	}
	if doc.Time == "" {
		return nil, &SchemaError{Path: "time", Reason: "required"}
	}
	if doc.FormatVersion == "" {
		doc.FormatVersion = DefaultFormatVersion
	}
	if doc.OrganizationID == 0 {
		doc.OrganizationID = 1
	}

	p := &Procurement{
		FormatVersion:  doc.FormatVersion,
		OrganizationID: doc.OrganizationID,
		Name:           doc.Name,
		Details:        doc.Details,
		Time:           doc.Time,
	}

	// Реестр дедуплицирован: повторный id делает разрешение
	// supplier_id неоднозначным, поэтому документ отклоняется
	seen := make(map[int]bool, len(doc.Suppliers))
	for i, sd := range doc.Suppliers {
		path := fmt.Sprintf("suppliers[%d]", i)
		supplier, err := supplierFromDoc(sd, path)
		if err != nil {
			return nil, err
		}
		if seen[supplier.ID] {
			return nil, &SchemaError{Path: path + ".id", Reason: fmt.Sprintf("duplicate supplier id %d", supplier.ID)}
		}
		seen[supplier.ID] = true
		p.Suppliers = append(p.Suppliers, supplier)
	}

	for i, ld := range doc.Lots {
		path := fmt.Sprintf("lots[%d]", i)
		if ld.Name == "" {
			return nil, &SchemaError{Path: path + ".name", Reason: "required"}
		}
		lot := Lot{Name: ld.Name, Details: ld.Details}
		for j, bd := range ld.Bids {
			bidPath := fmt.Sprintf("%s.bids[%d]", path, j)
			bid, err := bidFromDoc(bd, bidPath)
			if err != nil {
				return nil, err
			}
			lot.Bids = append(lot.Bids, bid)
		}
		p.Lots = append(p.Lots, lot)
	}
	return p, nil
}

func supplierFromDoc(sd supplierDoc, path string) (Supplier, error) {
	if sd.ID == nil {
		return Supplier{}, &SchemaError{Path: path + ".id", Reason: "required"}
	}
	if *sd.ID <= 0 {
		return Supplier{}, &SchemaError{Path: path + ".id", Reason: "must be positive"}
	}
	if sd.Name == "" {
		return Supplier{}, &SchemaError{Path: path + ".name", Reason: "required"}
	}
	supplier := Supplier{
		ID:               *sd.ID,
		Name:             sd.Name,
		Address:          sd.Address,
		City:             sd.City,
		Postcode:         sd.Postcode,
		Country:          sd.Country,
		CountryCode:      sd.CountryCode,
		OrganizationCode: sd.OrganizationCode,
		TaxRegistered:    true,
		Insolvent:        sd.Insolvent,
	}
	if sd.TaxRegistered != nil {
		supplier.TaxRegistered = *sd.TaxRegistered
	}
	if supplier.Country == "" {
		supplier.Country = DefaultCountry
	}
	if supplier.CountryCode == "" {
		supplier.CountryCode = DefaultCountryCode
	}
	if len(sd.ContactPersons) == 0 {
		return Supplier{}, &SchemaError{Path: path + ".contact_persons", Reason: "at least one contact person required"}
	}
	for j, cd := range sd.ContactPersons {
		contactPath := fmt.Sprintf("%s.contact_persons[%d]", path, j)
		if cd.Name == "" {
			return Supplier{}, &SchemaError{Path: contactPath + ".name", Reason: "required"}
		}
		if cd.Email == "" {
			return Supplier{}, &SchemaError{Path: contactPath + ".email", Reason: "required"}
		}
		if !strings.Contains(cd.Email, "@") {
			return Supplier{}, &SchemaError{Path: contactPath + ".email", Reason: "must contain '@'"}
		}
		supplier.ContactPersons = append(supplier.ContactPersons, ContactPerson{Name: cd.Name, Email: cd.Email, Phone: cd.Phone})
	}
	return supplier, nil
}

func bidFromDoc(bd bidDoc, path string) (Bid, error) {
	if bd.SupplierID == nil {
		return Bid{}, &SchemaError{Path: path + ".supplier_id", Reason: "required"}
	}
	if *bd.SupplierID <= 0 {
		return Bid{}, &SchemaError{Path: path + ".supplier_id", Reason: "must be positive"}
	}
	if bd.Time == "" {
		return Bid{}, &SchemaError{Path: path + ".time", Reason: "required"}
	}
	bid := Bid{SupplierID: *bd.SupplierID, Winner: bd.Winner, Time: bd.Time}
	var err error
	if bid.FixedPrices, err = pricesFromDoc(bd.FixedPrices, path+".fixed_prices"); err != nil {
		return Bid{}, err
	}
	if bid.HourPrices, err = pricesFromDoc(bd.HourPrices, path+".hour_prices"); err != nil {
		return Bid{}, err
	}
	return bid, nil
}

func pricesFromDoc(docs []priceDoc, path string) ([]ListPrice, error) {
	var prices []ListPrice
	for i, pd := range docs {
		pricePath := fmt.Sprintf("%s[%d]", path, i)
		if pd.Name == "" {
			return nil, &SchemaError{Path: pricePath + ".name", Reason: "required"}
		}
		if pd.Price == nil {
			return nil, &SchemaError{Path: pricePath + ".price", Reason: "required"}
		}
		if *pd.Price < 0 {
			return nil, &SchemaError{Path: pricePath + ".price", Reason: "must not be negative"}
		}
		currency := pd.Currency
		if currency == "" {
			currency = DefaultCurrency
		}
		prices = append(prices, ListPrice{Name: pd.Name, Price: *pd.Price, Currency: currency, Details: pd.Details})
	}
	return prices, nil
}
