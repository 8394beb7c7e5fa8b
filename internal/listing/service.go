// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package listing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/taibuivan/propmap/internal/access"
	"github.com/taibuivan/propmap/internal/platform/apperr"
	"github.com/taibuivan/propmap/internal/platform/validate"
	"github.com/taibuivan/propmap/pkg/pagination"
	"github.com/taibuivan/propmap/pkg/pointer"
	"github.com/taibuivan/propmap/pkg/slice"
	"github.com/taibuivan/propmap/pkg/slug"
	"github.com/taibuivan/propmap/pkg/uuid"
)

// ExportLimit caps the rows of a single CSV export.
const ExportLimit = 5000

// # Service Layer

// Service orchestrates listing reads, writes and exports.
type Service struct {
	repository Repository
	visibility BlurredVisibility
	logger     *slog.Logger
}

// NewService constructs a new listing [Service].
func NewService(repository Repository, visibility BlurredVisibility, logger *slog.Logger) *Service {
	return &Service{repository: repository, visibility: visibility, logger: logger}
}

// # Listing Lookups

/*
List returns one page of listings as viewer may see them.

Description: Hidden listings are included for administrators, and for an
agent filtering on their own listings.

Returns:
  - []View: Redacted listings
  - pagination.Meta: Page metadata
  - error: Validation or storage failures
*/
func (service *Service) List(ctx context.Context, viewer *access.Principal, q Query) ([]View, pagination.Meta, error) {
	if err := validateQuery(q); err != nil {
		return nil, pagination.Meta{}, err
	}

	q.IncludeHidden = managesAll(viewer) || ownsQuery(viewer, q)

	properties, total, err := service.repository.List(ctx, q)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("listing_service_list_failed: %w", err)
	}

	viewerLens := newLens(viewer, service.visibility)
	views := slice.Map(properties, func(property *Property) View {
		return viewerLens.view(ctx, property)
	})
	if views == nil {
		views = []View{}
	}

	return views, pagination.NewMeta(q.Page.Page, q.Page.Limit, total), nil
}

/*
Get fetches a single listing by UUID or slug.

Returns:
  - *View: The redacted listing
  - error: apperr.NotFound, including hidden listings the viewer may not manage
*/
func (service *Service) Get(ctx context.Context, viewer *access.Principal, identifier string) (*View, error) {
	property, err := service.find(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if property.Status == StatusHidden && !canManage(viewer, property) {
		return nil, apperr.NotFound("Property")
	}

	view := newLens(viewer, service.visibility).view(ctx, property)
	return &view, nil
}

func (service *Service) find(ctx context.Context, identifier string) (*Property, error) {
	if uuid.Valid(identifier) {
		return service.repository.FindByID(ctx, identifier)
	}
	return service.repository.FindBySlug(ctx, identifier)
}

// # Listing Management

// Input carries the writable fields of a listing.
type Input struct {
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
	Status      Status

	KeyMoney *int64

	ContactName  string
	ContactPhone string

	AvgRentPerSqm *float64
	FootTraffic   *int64
	VacancyRate   *float64
}

/*
Create publishes a listing owned by viewer.

Description: Requires CREATE_PROPERTY. The contact name defaults to the
viewer's display name. The slug is derived from the title plus a suffix of
the new id, so equal titles never collide.

Returns:
  - *View: The created listing as its owner sees it
  - error: Authorization, validation or storage failures
*/
func (service *Service) Create(ctx context.Context, viewer *access.Principal, input Input) (*View, error) {
	if err := authorize(viewer, access.CreateProperty); err != nil {
		return nil, err
	}

	if input.Status == "" {
		input.Status = StatusActive
	}
	if input.ContactName == "" {
		input.ContactName = viewer.DisplayName
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	id := uuid.New()
	property := &Property{
		ID:      id,
		Slug:    listingSlug(input.Title, id),
		AgentID: viewer.UserID(),
	}
	apply(property, input)

	if err := service.repository.Create(ctx, property); err != nil {
		return nil, fmt.Errorf("listing_service_create_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "property_created",
		slog.String("property_id", property.ID),
		slog.String("agent_id", property.AgentID),
	)

	view := newLens(viewer, service.visibility).view(ctx, property)
	return &view, nil
}

/*
Update replaces the writable fields of a listing.

Description: Requires EDIT_PROPERTY. Agents may only edit their own
listings; administrators may edit any. The slug is kept.

Returns:
  - *View: The updated listing
  - error: Authorization, NotFound, validation or storage failures
*/
func (service *Service) Update(ctx context.Context, viewer *access.Principal, id string, input Input) (*View, error) {
	if err := authorize(viewer, access.EditProperty); err != nil {
		return nil, err
	}

	property, err := service.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if property.Status == StatusHidden && !canManage(viewer, property) {
		return nil, apperr.NotFound("Property")
	}
	if !canManage(viewer, property) {
		return nil, apperr.Forbidden("You can only edit your own listings")
	}

	if input.Status == "" {
		input.Status = property.Status
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	apply(property, input)

	if err := service.repository.Update(ctx, property); err != nil {
		return nil, fmt.Errorf("listing_service_update_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "property_updated",
		slog.String("property_id", property.ID),
		slog.String("actor_id", viewer.UserID()),
	)

	view := newLens(viewer, service.visibility).view(ctx, property)
	return &view, nil
}

// Delete soft-deletes a listing. Requires DELETE_PROPERTY.
func (service *Service) Delete(ctx context.Context, viewer *access.Principal, id string) error {
	if err := authorize(viewer, access.DeleteProperty); err != nil {
		return err
	}

	if err := service.repository.SoftDelete(ctx, id); err != nil {
		return err
	}

	service.logger.InfoContext(ctx, "property_deleted",
		slog.String("property_id", id),
		slog.String("actor_id", viewer.UserID()),
	)
	return nil
}

// # Export

var exportHeader = []string{
	"id", "slug", "title", "category", "address", "latitude", "longitude",
	"deposit", "monthly_rent", "area_sqm", "floor",
	"key_money", "contact_name", "contact_phone",
	"avg_rent_per_sqm", "foot_traffic", "vacancy_rate",
}

/*
Export writes every listing matching q as CSV, up to [ExportLimit] rows.

Description: Requires EXPORT_DATA. Rows pass through the same lens as the
map, so a withheld group exports as empty cells.

Returns:
  - int: Rows written, header excluded
  - error: Authorization, validation, storage or write failures
*/
func (service *Service) Export(ctx context.Context, viewer *access.Principal, q Query, writer io.Writer) (int, error) {
	if err := authorize(viewer, access.ExportData); err != nil {
		return 0, err
	}
	if err := validateQuery(q); err != nil {
		return 0, err
	}

	q.IncludeHidden = managesAll(viewer)

	out := csv.NewWriter(writer)
	if err := out.Write(exportHeader); err != nil {
		return 0, err
	}

	viewerLens := newLens(viewer, service.visibility)
	rows := 0

	err := service.repository.Each(ctx, q, ExportLimit, func(property *Property) error {
		if err := out.Write(exportRow(viewerLens.view(ctx, property))); err != nil {
			return err
		}
		rows++
		return nil
	})
	if err != nil {
		// Rows already produced reach the client; with none, the caller
		// can still answer with an error status.
		if rows > 0 {
			out.Flush()
		}
		return rows, fmt.Errorf("listing_service_export_failed: %w", err)
	}

	out.Flush()
	if err := out.Error(); err != nil {
		return rows, err
	}

	service.logger.InfoContext(ctx, "listings_exported",
		slog.String("user_id", viewer.UserID()),
		slog.Int("rows", rows),
	)
	return rows, nil
}

func exportRow(view View) []string {
	row := []string{
		view.ID, view.Slug, view.Title, string(view.Category), view.Address,
		formatFloat(&view.Latitude), formatFloat(&view.Longitude),
		strconv.FormatInt(view.Deposit, 10), strconv.FormatInt(view.MonthlyRent, 10),
		formatFloat(&view.AreaSqm), formatInt(view.Floor),
		formatInt64(view.KeyMoney),
	}

	contact := pointer.Val(view.Contact)
	market := pointer.Val(view.Market)

	return append(row,
		contact.Name, contact.Phone,
		formatFloat(market.AvgRentPerSqm), formatInt64(market.FootTraffic), formatFloat(market.VacancyRate),
	)
}

func formatFloat(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}

func formatInt64(value *int64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatInt(*value, 10)
}

func formatInt(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}

// # Helpers

// authorize shapes a failed capability check for the client.
func authorize(viewer *access.Principal, capability access.Capability) error {
	switch {
	case access.Can(viewer, capability):
		return nil
	case viewer.IsAnonymous():
		return apperr.Unauthorized("Authentication required")
	case !viewer.IsApproved():
		return apperr.ApprovalPending()
	default:
		return apperr.CapabilityDenied(string(capability))
	}
}

// managesAll reports an administrator; only they may delete any listing.
func managesAll(viewer *access.Principal) bool {
	return access.Can(viewer, access.DeleteProperty)
}

func canManage(viewer *access.Principal, property *Property) bool {
	if managesAll(viewer) {
		return true
	}
	return access.Can(viewer, access.EditProperty) && property.AgentID == viewer.UserID()
}

func ownsQuery(viewer *access.Principal, q Query) bool {
	return q.AgentID != "" && q.AgentID == viewer.UserID() && access.Can(viewer, access.EditProperty)
}

func listingSlug(title, id string) string {
	suffix := id[strings.LastIndex(id, "-")+1:]
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}

	base := slug.From(title)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

func apply(property *Property, input Input) {
	property.Title = strings.TrimSpace(input.Title)
	property.Description = input.Description
	property.Category = input.Category
	property.Address = strings.TrimSpace(input.Address)
	property.Latitude = input.Latitude
	property.Longitude = input.Longitude
	property.Deposit = input.Deposit
	property.MonthlyRent = input.MonthlyRent
	property.AreaSqm = input.AreaSqm
	property.Floor = input.Floor
	property.Status = input.Status
	property.KeyMoney = input.KeyMoney
	property.ContactName = input.ContactName
	property.ContactPhone = input.ContactPhone
	property.AvgRentPerSqm = input.AvgRentPerSqm
	property.FootTraffic = input.FootTraffic
	property.VacancyRate = input.VacancyRate
}

func validateInput(input Input) error {
	validator := &validate.Validator{}
	validator.Required(FieldTitle, strings.TrimSpace(input.Title)).
		MaxLen(FieldTitle, input.Title, 160).
		MaxLen(FieldDescription, input.Description, 5000).
		OneOf(FieldCategory, string(input.Category), Categories()...).
		Required(FieldAddress, strings.TrimSpace(input.Address)).
		FloatRange(FieldLatitude, input.Latitude, -90, 90).
		FloatRange(FieldLongitude, input.Longitude, -180, 180).
		NonNegative(FieldDeposit, &input.Deposit).
		NonNegative(FieldMonthlyRent, &input.MonthlyRent).
		NonNegative(FieldKeyMoney, input.KeyMoney).
		NonNegative(FieldFootTraffic, input.FootTraffic).
		Custom(FieldAreaSqm, input.AreaSqm <= 0, "Must be greater than 0").
		OneOf(FieldStatus, string(input.Status), string(StatusActive), string(StatusHidden))

	if input.VacancyRate != nil {
		validator.FloatRange(FieldVacancyRate, *input.VacancyRate, 0, 1)
	}
	if input.AvgRentPerSqm != nil {
		validator.Custom(FieldAvgRentPerSqm, *input.AvgRentPerSqm < 0, "Must not be negative")
	}

	return validator.Err()
}

func validateQuery(q Query) error {
	validator := &validate.Validator{}

	for _, category := range q.Categories {
		validator.OneOf(FieldCategory, string(category), Categories()...)
	}

	if box := q.Bounds; box != nil {
		validator.
			FloatRange(FieldBoundingBox, box.MinLatitude, -90, 90).
			FloatRange(FieldBoundingBox, box.MaxLatitude, -90, 90).
			FloatRange(FieldBoundingBox, box.MinLongitude, -180, 180).
			FloatRange(FieldBoundingBox, box.MaxLongitude, -180, 180).
			Custom(FieldBoundingBox, box.MinLatitude > box.MaxLatitude || box.MinLongitude > box.MaxLongitude,
				"Minimum corner must not exceed maximum corner")
	}

	return validator.Err()
}
