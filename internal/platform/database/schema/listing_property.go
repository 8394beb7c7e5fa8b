// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// ListingPropertyTable represents the 'listing.property' table
type ListingPropertyTable struct {
	Table         string
	ID            string
	Slug          string
	Title         string
	Description   string
	Category      string
	Address       string
	Latitude      string
	Longitude     string
	Deposit       string
	MonthlyRent   string
	KeyMoney      string
	AreaSqm       string
	Floor         string
	AgentID       string
	ContactName   string
	ContactPhone  string
	AvgRentPerSqm string
	FootTraffic   string
	VacancyRate   string
	Status        string
	CreatedAt     string
	UpdatedAt     string
	DeletedAt     string
}

// ListingProperty is the schema definition for listing.property
var ListingProperty = ListingPropertyTable{
	Table:         "listing.property",
	ID:            "id",
	Slug:          "slug",
	Title:         "title",
	Description:   "description",
	Category:      "category",
	Address:       "address",
	Latitude:      "latitude",
	Longitude:     "longitude",
	Deposit:       "deposit",
	MonthlyRent:   "monthlyrent",
	KeyMoney:      "keymoney",
	AreaSqm:       "areasqm",
	Floor:         "floor",
	AgentID:       "agentid",
	ContactName:   "contactname",
	ContactPhone:  "contactphone",
	AvgRentPerSqm: "avgrentpersqm",
	FootTraffic:   "foottraffic",
	VacancyRate:   "vacancyrate",
	Status:        "status",
	CreatedAt:     "createdat",
	UpdatedAt:     "updatedat",
	DeletedAt:     "deletedat",
}

// Columns returns all standard column names
func (t ListingPropertyTable) Columns() []string {
	return []string{
		t.ID, t.Slug, t.Title, t.Description, t.Category, t.Address,
		t.Latitude, t.Longitude, t.Deposit, t.MonthlyRent, t.KeyMoney,
		t.AreaSqm, t.Floor, t.AgentID, t.ContactName, t.ContactPhone,
		t.AvgRentPerSqm, t.FootTraffic, t.VacancyRate, t.Status,
		t.CreatedAt, t.UpdatedAt,
	}
}
