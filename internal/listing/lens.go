// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package listing

import (
	"context"
	"sync"

	"github.com/taibuivan/propmap/internal/access"
)

// BlurredVisibility evaluates the blurred-field override for a viewer.
type BlurredVisibility interface {
	CanViewBlurred(ctx context.Context, p *access.Principal) bool
}

// lens redacts listings for one viewer within one request.
//
// The override is asked at most once, and only when some group is not
// already revealed by a capability.
type lens struct {
	viewer     *access.Principal
	visibility BlurredVisibility

	once     sync.Once
	override bool
}

func newLens(viewer *access.Principal, visibility BlurredVisibility) *lens {
	return &lens{viewer: viewer, visibility: visibility}
}

// sees reports whether group is revealed to the viewer.
func (l *lens) sees(ctx context.Context, group Group) bool {
	if access.Can(l.viewer, groupCapability[group]) {
		return true
	}

	l.once.Do(func() {
		l.override = l.visibility.CanViewBlurred(ctx, l.viewer)
	})
	return l.override
}

// view projects property through the lens.
func (l *lens) view(ctx context.Context, property *Property) View {
	view := View{
		ID:          property.ID,
		Slug:        property.Slug,
		Title:       property.Title,
		Description: property.Description,
		Category:    property.Category,
		Address:     property.Address,
		Latitude:    property.Latitude,
		Longitude:   property.Longitude,
		Deposit:     property.Deposit,
		MonthlyRent: property.MonthlyRent,
		AreaSqm:     property.AreaSqm,
		Floor:       property.Floor,
		Status:      property.Status,
		CreatedAt:   property.CreatedAt,
		UpdatedAt:   property.UpdatedAt,
		Blurred:     []Group{},
	}

	if l.sees(ctx, GroupKeyMoney) {
		view.KeyMoney = property.KeyMoney
	} else {
		view.Blurred = append(view.Blurred, GroupKeyMoney)
	}

	if l.sees(ctx, GroupAgentContact) {
		view.Contact = &Contact{Name: property.ContactName, Phone: property.ContactPhone}
	} else {
		view.Blurred = append(view.Blurred, GroupAgentContact)
	}

	if l.sees(ctx, GroupMarketData) {
		view.Market = &MarketData{
			AvgRentPerSqm: property.AvgRentPerSqm,
			FootTraffic:   property.FootTraffic,
			VacancyRate:   property.VacancyRate,
		}
	} else {
		view.Blurred = append(view.Blurred, GroupMarketData)
	}

	return view
}
