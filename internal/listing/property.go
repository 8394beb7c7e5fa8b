// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package listing serves commercial property listings on the map.

Every listing read goes through a per-request lens that decides, group by
group, which sensitive fields the viewer may see. A group is shown when the
viewer holds its capability or when the blurred-field override lets them
see it. Withheld groups are omitted from the payload and named in the
view's "blurred" list so clients can render a placeholder.

# Sensitive Groups

  - key_money:     premium paid to the outgoing tenant.
  - agent_contact: listing agent's name and phone.
  - market_data:   rent per square metre, foot traffic, vacancy rate.
*/
package listing

import (
	"context"
	"time"

	"github.com/taibuivan/propmap/internal/access"
	"github.com/taibuivan/propmap/pkg/pagination"
)

// # Enumerations

// Category classifies the commercial use of a property.
type Category string

const (
	CategoryRetail     Category = "retail"
	CategoryOffice     Category = "office"
	CategoryRestaurant Category = "restaurant"
	CategoryWarehouse  Category = "warehouse"
	CategoryOther      Category = "other"
)

// Categories returns every declared category.
func Categories() []string {
	return []string{
		string(CategoryRetail), string(CategoryOffice), string(CategoryRestaurant),
		string(CategoryWarehouse), string(CategoryOther),
	}
}

// Status controls whether a listing appears on the public map.
type Status string

const (
	StatusActive Status = "active"
	StatusHidden Status = "hidden"
)

// # Domain Entities

// Property is a stored listing with every field populated.
// It never leaves the service unredacted; see [View].
type Property struct {
	ID          string
	Slug        string
	Title       string
	Description string
	Category    Category
	Address     string
	Latitude    float64
	Longitude   float64
	Deposit     int64
	MonthlyRent int64
	AreaSqm     float64
	Floor       *int
	AgentID     string
	Status      Status

	KeyMoney *int64

	ContactName  string
	ContactPhone string

	AvgRentPerSqm *float64
	FootTraffic   *int64
	VacancyRate   *float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contact is the agent-contact group.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// MarketData is the market-data group.
type MarketData struct {
	AvgRentPerSqm *float64 `json:"avg_rent_per_sqm"`
	FootTraffic   *int64   `json:"foot_traffic"`
	VacancyRate   *float64 `json:"vacancy_rate"`
}

// View is a listing as one viewer may see it.
type View struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Address     string    `json:"address"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Deposit     int64     `json:"deposit"`
	MonthlyRent int64     `json:"monthly_rent"`
	AreaSqm     float64   `json:"area_sqm"`
	Floor       *int      `json:"floor,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	KeyMoney *int64      `json:"key_money,omitempty"`
	Contact  *Contact    `json:"contact,omitempty"`
	Market   *MarketData `json:"market,omitempty"`

	// Blurred names every group withheld from this viewer.
	Blurred []Group `json:"blurred"`
}

// # Sensitive Groups

// Group names a set of fields redacted together.
type Group string

const (
	GroupKeyMoney     Group = "key_money"
	GroupAgentContact Group = "agent_contact"
	GroupMarketData   Group = "market_data"
)

// groupCapability is the capability that reveals each group outright.
var groupCapability = map[Group]access.Capability{
	GroupKeyMoney:     access.ViewKeyMoney,
	GroupAgentContact: access.ViewAgentContact,
	GroupMarketData:   access.ViewMarketData,
}

// Groups returns the sensitive groups in display order.
func Groups() []Group {
	return []Group{GroupKeyMoney, GroupAgentContact, GroupMarketData}
}

// # Queries

// BoundingBox is a map viewport in WGS84 degrees.
type BoundingBox struct {
	MinLongitude float64
	MinLatitude  float64
	MaxLongitude float64
	MaxLatitude  float64
}

// Query selects listings for the map or an export.
type Query struct {
	Bounds     *BoundingBox
	Categories []Category
	AgentID    string
	Page       pagination.Params

	// IncludeHidden admits hidden listings. Set only by the service.
	IncludeHidden bool
}

// # Repository Contracts

// Repository defines the persistence contract for listings.
type Repository interface {
	/*
		List returns one page of listings matching q, newest first.

		Returns:
		  - []*Property: One page of listings
		  - int: Total matching listings
		  - error: Storage failures
	*/
	List(ctx context.Context, q Query) ([]*Property, int, error)

	// Each streams every listing matching q, ignoring q.Page, up to limit rows.
	Each(ctx context.Context, q Query, limit int, fn func(*Property) error) error

	// FindByID returns apperr.NotFound for unknown or deleted listings.
	FindByID(ctx context.Context, id string) (*Property, error)

	// FindBySlug returns apperr.NotFound for unknown or deleted listings.
	FindBySlug(ctx context.Context, slug string) (*Property, error)

	Create(ctx context.Context, property *Property) error
	Update(ctx context.Context, property *Property) error
	SoftDelete(ctx context.Context, id string) error
}

// # Field Identifiers

const (
	FieldTitle         = "title"
	FieldDescription   = "description"
	FieldCategory      = "category"
	FieldAddress       = "address"
	FieldLatitude      = "latitude"
	FieldLongitude     = "longitude"
	FieldDeposit       = "deposit"
	FieldMonthlyRent   = "monthly_rent"
	FieldKeyMoney      = "key_money"
	FieldAreaSqm       = "area_sqm"
	FieldStatus        = "status"
	FieldFootTraffic   = "foot_traffic"
	FieldVacancyRate   = "vacancy_rate"
	FieldAvgRentPerSqm = "avg_rent_per_sqm"
	FieldBoundingBox   = "bbox"
)
