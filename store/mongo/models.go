package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/marketplace/donation"
	"github.com/xraph/marketplace/event"
	"github.com/xraph/marketplace/id"
	"github.com/xraph/marketplace/product"
	"github.com/xraph/marketplace/service"
	"github.com/xraph/marketplace/types"
)

// ==================== Product models ====================

type productModel struct {
	ID            uint64    `bson:"_id"`
	Name          string    `bson:"name"`
	PriceAmount   int64     `bson:"price_amount"`
	PriceCurrency string    `bson:"price_currency"`
	Category      string    `bson:"category"`
	Owner         string    `bson:"owner"`
	Purchased     bool      `bson:"purchased"`
	Seller        string    `bson:"seller,omitempty"`
	AcquiredSeq   uint64    `bson:"acquired_seq"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func toProductModel(p *product.Product, seq uint64) *productModel {
	return &productModel{
		ID:            p.ID,
		Name:          p.Name,
		PriceAmount:   p.Price.Amount,
		PriceCurrency: p.Price.Currency,
		Category:      string(p.Category),
		Owner:         string(p.Owner),
		Purchased:     p.Purchased,
		Seller:        string(p.Seller),
		AcquiredSeq:   seq,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func fromProductModel(m *productModel) *product.Product {
	p := &product.Product{
		ID:        m.ID,
		Name:      m.Name,
		Price:     types.Money{Amount: m.PriceAmount, Currency: m.PriceCurrency},
		Category:  product.Category(m.Category),
		Owner:     types.Account(m.Owner),
		Purchased: m.Purchased,
		Seller:    types.Account(m.Seller),
	}
	p.CreatedAt = m.CreatedAt
	p.UpdatedAt = m.UpdatedAt
	return p
}

// ==================== Donation models ====================

type donationModel struct {
	ID             string       `bson:"_id"`
	Donor          string       `bson:"donor"`
	Amount         int64        `bson:"amount"`
	AmountCurrency string       `bson:"amount_currency"`
	DonatedAt      time.Time    `bson:"donated_at"`
	Shares         []shareModel `bson:"shares"`
	CreatedAt      time.Time    `bson:"created_at"`
	UpdatedAt      time.Time    `bson:"updated_at"`
}

type shareModel struct {
	Beneficiary    string `bson:"beneficiary"`
	Amount         int64  `bson:"amount"`
	AmountCurrency string `bson:"amount_currency"`
}

func toDonationModel(rec *donation.Record) *donationModel {
	shares := make([]shareModel, len(rec.Shares))
	for i, sh := range rec.Shares {
		shares[i] = shareModel{
			Beneficiary:    string(sh.Beneficiary),
			Amount:         sh.Amount.Amount,
			AmountCurrency: sh.Amount.Currency,
		}
	}
	return &donationModel{
		ID:             rec.ID.String(),
		Donor:          string(rec.Donor),
		Amount:         rec.Amount.Amount,
		AmountCurrency: rec.Amount.Currency,
		DonatedAt:      rec.Timestamp,
		Shares:         shares,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}

func fromDonationModel(m *donationModel) (*donation.Record, error) {
	recID, err := id.ParseDonationID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("marketplace/mongo: corrupt donation id %q: %w", m.ID, err)
	}
	shares := make([]donation.Share, len(m.Shares))
	for i, sh := range m.Shares {
		shares[i] = donation.Share{
			Beneficiary: types.Account(sh.Beneficiary),
			Amount:      types.Money{Amount: sh.Amount, Currency: sh.AmountCurrency},
		}
	}
	rec := &donation.Record{
		ID:        recID,
		Donor:     types.Account(m.Donor),
		Amount:    types.Money{Amount: m.Amount, Currency: m.AmountCurrency},
		Timestamp: m.DonatedAt,
		Shares:    shares,
	}
	rec.CreatedAt = m.CreatedAt
	rec.UpdatedAt = m.UpdatedAt
	return rec, nil
}

// ==================== Service models ====================

type serviceModel struct {
	Type          string    `bson:"_id"`
	PriceAmount   int64     `bson:"price_amount"`
	PriceCurrency string    `bson:"price_currency"`
	Seq           uint64    `bson:"seq"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func fromServiceModel(m *serviceModel) *service.Offering {
	off := &service.Offering{
		Type:  m.Type,
		Price: types.Money{Amount: m.PriceAmount, Currency: m.PriceCurrency},
	}
	off.CreatedAt = m.CreatedAt
	off.UpdatedAt = m.UpdatedAt
	return off
}

// ==================== Event models ====================

type eventModel struct {
	ID             string    `bson:"_id"`
	Kind           string    `bson:"kind"`
	OccurredAt     time.Time `bson:"occurred_at"`
	ProductID      uint64    `bson:"product_id,omitempty"`
	Name           string    `bson:"name,omitempty"`
	PriceAmount    int64     `bson:"price_amount,omitempty"`
	PriceCurrency  string    `bson:"price_currency,omitempty"`
	Owner          string    `bson:"owner,omitempty"`
	Purchased      bool      `bson:"purchased,omitempty"`
	Category       string    `bson:"category,omitempty"`
	Donor          string    `bson:"donor,omitempty"`
	Amount         int64     `bson:"amount,omitempty"`
	AmountCurrency string    `bson:"amount_currency,omitempty"`
	ServiceType    string    `bson:"service_type,omitempty"`
	Buyer          string    `bson:"buyer,omitempty"`
	Seq            uint64    `bson:"seq"`
}

func toEventModel(rec *event.Record, seq uint64) *eventModel {
	return &eventModel{
		ID:             rec.ID.String(),
		Kind:           string(rec.Kind),
		OccurredAt:     rec.Timestamp,
		ProductID:      rec.ProductID,
		Name:           rec.Name,
		PriceAmount:    rec.Price.Amount,
		PriceCurrency:  rec.Price.Currency,
		Owner:          string(rec.Owner),
		Purchased:      rec.Purchased,
		Category:       string(rec.Category),
		Donor:          string(rec.Donor),
		Amount:         rec.Amount.Amount,
		AmountCurrency: rec.Amount.Currency,
		ServiceType:    rec.ServiceType,
		Buyer:          string(rec.Buyer),
		Seq:            seq,
	}
}

func fromEventModel(m *eventModel) (*event.Record, error) {
	recID, err := id.ParseEventID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("marketplace/mongo: corrupt event id %q: %w", m.ID, err)
	}
	return &event.Record{
		ID:          recID,
		Kind:        event.Kind(m.Kind),
		Timestamp:   m.OccurredAt,
		ProductID:   m.ProductID,
		Name:        m.Name,
		Price:       types.Money{Amount: m.PriceAmount, Currency: m.PriceCurrency},
		Owner:       types.Account(m.Owner),
		Purchased:   m.Purchased,
		Category:    product.Category(m.Category),
		Donor:       types.Account(m.Donor),
		Amount:      types.Money{Amount: m.Amount, Currency: m.AmountCurrency},
		ServiceType: m.ServiceType,
		Buyer:       types.Account(m.Buyer),
	}, nil
}
