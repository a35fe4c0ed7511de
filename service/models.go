package service

import (
	"github.com/xraph/marketplace/types"
)

// Offering is a purchasable service type in the secondary catalog.
//
// Services carry no ownership: purchasing one is a direct payment to the
// catalog's owning account plus an event log entry, nothing more.
type Offering struct {
	types.Entity
	Type  string      `json:"type"`
	Price types.Money `json:"price"`
}

// Defaults returns the offerings the catalog ships with, in registration
// order. Prices are in wei.
func Defaults() []Offering {
	mk := func(typ string, wei int64) Offering {
		return Offering{Type: typ, Price: types.Wei(wei)}
	}
	return []Offering{
		mk("Repair", 100000000000000000),
		mk("Install", 50000000000000000),
		mk("Shipping", 20000000000000000),
		mk("Consultation", 150000000000000000),
		mk("Training", 200000000000000000),
		mk("Data Recovery", 300000000000000000),
		mk("Web Development", 500000000000000000),
		mk("Security Audit", 400000000000000000),
		mk("Cloud Setup", 250000000000000000),
	}
}
