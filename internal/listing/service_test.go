// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package listing

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/propmap/internal/access"
	"github.com/taibuivan/propmap/internal/platform/apperr"
	"github.com/taibuivan/propmap/internal/platform/sec"
	"github.com/taibuivan/propmap/pkg/pagination"
	"github.com/taibuivan/propmap/pkg/pointer"
	"github.com/taibuivan/propmap/pkg/uuid"
)

// # Fakes

type memoryRepository struct {
	mu         sync.Mutex
	properties map[string]*Property
	order      []string
	deleted    map[string]bool

	// eachFailsAfter makes Each fail once that many rows were handed out.
	eachFailsAfter int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{properties: make(map[string]*Property), deleted: make(map[string]bool)}
}

func (repo *memoryRepository) matches(property *Property, q Query) bool {
	if repo.deleted[property.ID] {
		return false
	}
	if !q.IncludeHidden && property.Status != StatusActive {
		return false
	}
	if box := q.Bounds; box != nil {
		if property.Latitude < box.MinLatitude || property.Latitude > box.MaxLatitude ||
			property.Longitude < box.MinLongitude || property.Longitude > box.MaxLongitude {
			return false
		}
	}
	if len(q.Categories) > 0 && !slices.Contains(q.Categories, property.Category) {
		return false
	}
	return q.AgentID == "" || q.AgentID == property.AgentID
}

func (repo *memoryRepository) filter(q Query) []*Property {
	var matched []*Property
	for i := len(repo.order) - 1; i >= 0; i-- {
		if property := repo.properties[repo.order[i]]; repo.matches(property, q) {
			copied := *property
			matched = append(matched, &copied)
		}
	}
	return matched
}

func (repo *memoryRepository) List(_ context.Context, q Query) ([]*Property, int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	matched := repo.filter(q)
	total := len(matched)
	start := min(q.Page.Offset(), total)
	end := min(start+q.Page.Limit, total)
	return matched[start:end], total, nil
}

func (repo *memoryRepository) Each(_ context.Context, q Query, limit int, fn func(*Property) error) error {
	repo.mu.Lock()
	matched := repo.filter(q)
	repo.mu.Unlock()

	for i, property := range matched {
		if i == limit {
			break
		}
		if repo.eachFailsAfter > 0 && i == repo.eachFailsAfter {
			return errors.New("connection reset by peer")
		}
		if err := fn(property); err != nil {
			return err
		}
	}
	return nil
}

func (repo *memoryRepository) FindByID(_ context.Context, id string) (*Property, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	property, ok := repo.properties[id]
	if !ok || repo.deleted[id] {
		return nil, apperr.NotFound("Property")
	}
	copied := *property
	return &copied, nil
}

func (repo *memoryRepository) FindBySlug(ctx context.Context, slug string) (*Property, error) {
	repo.mu.Lock()
	var id string
	for _, property := range repo.properties {
		if property.Slug == slug {
			id = property.ID
		}
	}
	repo.mu.Unlock()

	return repo.FindByID(ctx, id)
}

func (repo *memoryRepository) Create(_ context.Context, property *Property) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, existing := range repo.properties {
		if existing.Slug == property.Slug {
			return apperr.Conflict("A listing with this slug already exists")
		}
	}

	now := time.Now()
	property.CreatedAt, property.UpdatedAt = now, now
	copied := *property
	repo.properties[property.ID] = &copied
	repo.order = append(repo.order, property.ID)
	return nil
}

func (repo *memoryRepository) Update(_ context.Context, property *Property) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.properties[property.ID]; !ok || repo.deleted[property.ID] {
		return apperr.NotFound("Property")
	}
	property.UpdatedAt = time.Now()
	copied := *property
	repo.properties[property.ID] = &copied
	return nil
}

func (repo *memoryRepository) SoftDelete(_ context.Context, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.properties[id]; !ok || repo.deleted[id] {
		return apperr.NotFound("Property")
	}
	repo.deleted[id] = true
	return nil
}

// countingThreshold serves an adjustable min_tier and counts reads.
type countingThreshold struct {
	mu    sync.Mutex
	tier  sec.Tier
	err   error
	reads atomic.Int32
}

func (threshold *countingThreshold) set(tier sec.Tier) {
	threshold.mu.Lock()
	defer threshold.mu.Unlock()
	threshold.tier = tier
}

func (threshold *countingThreshold) BlurViewMinTier(context.Context) (sec.Tier, bool, error) {
	threshold.reads.Add(1)
	threshold.mu.Lock()
	defer threshold.mu.Unlock()
	return threshold.tier, threshold.tier != "", threshold.err
}

// # Fixture

type fixture struct {
	repository *memoryRepository
	threshold  *countingThreshold
	service    *Service
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newFixture() *fixture {
	repository := newMemoryRepository()
	threshold := &countingThreshold{tier: sec.TierGold}
	visibility := access.NewVisibility(threshold, discardLogger())

	return &fixture{
		repository: repository,
		threshold:  threshold,
		service:    NewService(repository, visibility, discardLogger()),
	}
}

func member(tier sec.Tier) *access.Principal {
	return &access.Principal{
		ID:             uuid.New(),
		Email:          string(tier) + "@propmap.test",
		Role:           sec.RoleGuest,
		Tier:           tier,
		ApprovalStatus: sec.ApprovalApproved,
	}
}

func agent(name string) *access.Principal {
	return &access.Principal{
		ID:             uuid.New(),
		Email:          name + "@propmap.test",
		Role:           sec.RoleAgent,
		Tier:           sec.TierGuest,
		ApprovalStatus: sec.ApprovalApproved,
		DisplayName:    name,
	}
}

func administrator() *access.Principal {
	return &access.Principal{
		ID:             uuid.New(),
		Email:          "admin@propmap.test",
		Role:           sec.RoleAdmin,
		Tier:           sec.TierGuest,
		ApprovalStatus: sec.ApprovalApproved,
	}
}

func shopInput(title string) Input {
	return Input{
		Title:         title,
		Description:   "Corner unit with frontage",
		Category:      CategoryRetail,
		Address:       "12 Market Street",
		Latitude:      37.5665,
		Longitude:     126.978,
		Deposit:       50_000_000,
		MonthlyRent:   2_500_000,
		AreaSqm:       66.1,
		Floor:         pointer.To(1),
		KeyMoney:      pointer.To(int64(30_000_000)),
		ContactPhone:  "010-0000-0000",
		AvgRentPerSqm: pointer.To(38_000.0),
		FootTraffic:   pointer.To(int64(12_000)),
		VacancyRate:   pointer.To(0.07),
	}
}

func (f *fixture) publish(t *testing.T, owner *access.Principal, input Input) *View {
	t.Helper()
	view, err := f.service.Create(context.Background(), owner, input)
	require.NoError(t, err)
	return view
}

func firstPage() Query {
	return Query{Page: pagination.New(1, 20)}
}

// # Redaction

func TestService_List_RedactsPerViewer(t *testing.T) {
	f := newFixture()
	f.publish(t, agent("kim"), shopInput("Gangnam corner shop"))

	tests := []struct {
		name    string
		viewer  *access.Principal
		blurred []Group
	}{
		{"anonymous", nil, []Group{GroupKeyMoney, GroupAgentContact, GroupMarketData}},
		{"pending_platinum", &access.Principal{ID: "p", Role: sec.RoleGuest, Tier: sec.TierPlatinum, ApprovalStatus: sec.ApprovalPending},
			[]Group{GroupKeyMoney, GroupAgentContact, GroupMarketData}},
		{"bronze", member(sec.TierBronze), []Group{GroupKeyMoney, GroupAgentContact, GroupMarketData}},
		{"silver", member(sec.TierSilver), []Group{GroupAgentContact, GroupMarketData}},
		{"gold_meets_threshold", member(sec.TierGold), []Group{}},
		{"platinum", member(sec.TierPlatinum), []Group{}},
		{"agent", agent("lee"), []Group{}},
		{"admin", administrator(), []Group{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			views, meta, err := f.service.List(context.Background(), tc.viewer, firstPage())
			require.NoError(t, err)
			require.Len(t, views, 1)
			assert.Equal(t, 1, meta.Total)

			view := views[0]
			assert.Equal(t, tc.blurred, view.Blurred)
			assert.Equal(t, slices.Contains(tc.blurred, GroupKeyMoney), view.KeyMoney == nil)
			assert.Equal(t, slices.Contains(tc.blurred, GroupAgentContact), view.Contact == nil)
			assert.Equal(t, slices.Contains(tc.blurred, GroupMarketData), view.Market == nil)
		})
	}
}

func TestService_List_RevealsGrantedGroups(t *testing.T) {
	f := newFixture()
	f.publish(t, agent("kim"), shopInput("Mapo office floor"))

	granted := member(sec.TierBronze)
	granted.CanViewBlurred = true

	views, _, err := f.service.List(context.Background(), granted, firstPage())
	require.NoError(t, err)
	require.Len(t, views, 1)

	assert.Empty(t, views[0].Blurred)
	require.NotNil(t, views[0].Contact)
	assert.Equal(t, "kim", views[0].Contact.Name)
	assert.Equal(t, int64(30_000_000), *views[0].KeyMoney)
}

func TestService_List_ReadsThresholdOncePerRequest(t *testing.T) {
	f := newFixture()
	owner := agent("kim")
	for _, title := range []string{"Unit A", "Unit B", "Unit C"} {
		f.publish(t, owner, shopInput(title))
	}

	f.threshold.reads.Store(0)
	views, _, err := f.service.List(context.Background(), member(sec.TierBronze), firstPage())
	require.NoError(t, err)
	assert.Len(t, views, 3)
	assert.Equal(t, int32(1), f.threshold.reads.Load())

	t.Run("not_read_when_capabilities_cover_every_group", func(t *testing.T) {
		f.threshold.reads.Store(0)
		_, _, err := f.service.List(context.Background(), member(sec.TierPlatinum), firstPage())
		require.NoError(t, err)
		assert.Zero(t, f.threshold.reads.Load())
	})
}

func TestService_List_ThresholdChangeAppliesToNextRequest(t *testing.T) {
	f := newFixture()
	f.publish(t, agent("kim"), shopInput("Itaewon cafe"))
	viewer := member(sec.TierSilver)

	views, _, err := f.service.List(context.Background(), viewer, firstPage())
	require.NoError(t, err)
	assert.Equal(t, []Group{GroupAgentContact, GroupMarketData}, views[0].Blurred)

	f.threshold.set(sec.TierSilver)

	views, _, err = f.service.List(context.Background(), viewer, firstPage())
	require.NoError(t, err)
	assert.Empty(t, views[0].Blurred)

	f.threshold.set("")

	views, _, err = f.service.List(context.Background(), viewer, firstPage())
	require.NoError(t, err)
	assert.Equal(t, []Group{GroupAgentContact, GroupMarketData}, views[0].Blurred)
}

func TestService_List_ThresholdReadFailureFailsClosed(t *testing.T) {
	f := newFixture()
	f.publish(t, agent("kim"), shopInput("Seongsu warehouse"))
	f.threshold.err = errors.New("settings store unreachable")

	views, _, err := f.service.List(context.Background(), member(sec.TierGold), firstPage())
	require.NoError(t, err)
	assert.Equal(t, []Group{GroupMarketData}, views[0].Blurred)
}

// # Filtering

func TestService_List_Filters(t *testing.T) {
	f := newFixture()
	owner := agent("kim")
	ctx := context.Background()

	inside := shopInput("Inside")
	outside := shopInput("Outside")
	outside.Latitude, outside.Longitude = 35.1796, 129.0756
	office := shopInput("Office")
	office.Category = CategoryOffice

	f.publish(t, owner, inside)
	f.publish(t, owner, outside)
	f.publish(t, owner, office)

	seoul := &BoundingBox{MinLongitude: 126.7, MinLatitude: 37.4, MaxLongitude: 127.2, MaxLatitude: 37.7}

	views, meta, err := f.service.List(ctx, nil, Query{Bounds: seoul, Page: pagination.Params{Page: 1, Limit: 20}})
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Total)
	assert.Len(t, views, 2)

	views, _, err = f.service.List(ctx, nil, Query{Bounds: seoul, Categories: []Category{CategoryOffice}, Page: pagination.Params{Page: 1, Limit: 20}})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Office", views[0].Title)

	t.Run("empty_result_is_empty_slice", func(t *testing.T) {
		views, meta, err := f.service.List(ctx, nil, Query{Categories: []Category{CategoryWarehouse}, Page: pagination.Params{Page: 1, Limit: 20}})
		require.NoError(t, err)
		assert.NotNil(t, views)
		assert.Empty(t, views)
		assert.Zero(t, meta.TotalPages)
	})

	t.Run("rejects_inverted_box", func(t *testing.T) {
		inverted := &BoundingBox{MinLongitude: 127.2, MinLatitude: 37.4, MaxLongitude: 126.7, MaxLatitude: 37.7}
		_, _, err := f.service.List(ctx, nil, Query{Bounds: inverted, Page: pagination.Params{Page: 1, Limit: 20}})
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("rejects_unknown_category", func(t *testing.T) {
		_, _, err := f.service.List(ctx, nil, Query{Categories: []Category{"casino"}, Page: pagination.Params{Page: 1, Limit: 20}})
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})
}

// # Hidden Listings

func TestService_HiddenListings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := agent("kim")
	other := agent("park")

	hidden := shopInput("Off-market unit")
	hidden.Status = StatusHidden
	created := f.publish(t, owner, hidden)

	_, err := f.service.Get(ctx, member(sec.TierPremium), created.ID)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)

	_, err = f.service.Get(ctx, other, created.Slug)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)

	view, err := f.service.Get(ctx, owner, created.Slug)
	require.NoError(t, err)
	assert.Equal(t, StatusHidden, view.Status)

	_, err = f.service.Get(ctx, administrator(), created.ID)
	assert.NoError(t, err)

	_, err = f.service.Update(ctx, other, created.ID, shopInput("Someone else's edit"))
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)

	views, _, err := f.service.List(ctx, nil, firstPage())
	require.NoError(t, err)
	assert.Empty(t, views)

	own := firstPage()
	own.AgentID = owner.ID
	views, _, err = f.service.List(ctx, owner, own)
	require.NoError(t, err)
	assert.Len(t, views, 1)

	views, _, err = f.service.List(ctx, other, own)
	require.NoError(t, err)
	assert.Empty(t, views)
}

// # Management

func TestService_Create(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := agent("kim")

	t.Run("agent_defaults", func(t *testing.T) {
		input := shopInput("Hongdae Corner Shop")
		view, err := f.service.Create(ctx, owner, input)
		require.NoError(t, err)

		assert.Equal(t, StatusActive, view.Status)
		assert.Regexp(t, `^hongdae-corner-shop-[0-9a-f]{8}$`, view.Slug)
		require.NotNil(t, view.Contact)
		assert.Equal(t, "kim", view.Contact.Name)

		stored, err := f.repository.FindByID(ctx, view.ID)
		require.NoError(t, err)
		assert.Equal(t, owner.ID, stored.AgentID)
	})

	t.Run("equal_titles_get_distinct_slugs", func(t *testing.T) {
		first := f.publish(t, owner, shopInput("Twin"))
		second := f.publish(t, owner, shopInput("Twin"))
		assert.NotEqual(t, first.Slug, second.Slug)
	})

	t.Run("denied_roles", func(t *testing.T) {
		_, err := f.service.Create(ctx, nil, shopInput("x"))
		assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)

		pending := agent("new")
		pending.ApprovalStatus = sec.ApprovalPending
		_, err = f.service.Create(ctx, pending, shopInput("x"))
		assert.Equal(t, "APPROVAL_PENDING", apperr.As(err).Code)

		_, err = f.service.Create(ctx, member(sec.TierPremium), shopInput("x"))
		assert.Equal(t, "CAPABILITY_DENIED", apperr.As(err).Code)
	})

	t.Run("validation", func(t *testing.T) {
		input := shopInput("")
		input.Latitude = 91
		input.VacancyRate = pointer.To(1.5)
		input.KeyMoney = pointer.To(int64(-1))

		_, err := f.service.Create(ctx, owner, input)
		appErr := apperr.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	})
}

func TestService_UpdateAndDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := agent("kim")
	other := agent("park")
	admin := administrator()

	created := f.publish(t, owner, shopInput("Original"))

	t.Run("owner_updates_and_keeps_slug", func(t *testing.T) {
		input := shopInput("Renamed")
		input.MonthlyRent = 3_000_000
		input.ContactName = "Kim Agent"

		view, err := f.service.Update(ctx, owner, created.ID, input)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", view.Title)
		assert.Equal(t, created.Slug, view.Slug)
		assert.Equal(t, int64(3_000_000), view.MonthlyRent)
		assert.Equal(t, StatusActive, view.Status)
	})

	t.Run("other_agent_forbidden", func(t *testing.T) {
		_, err := f.service.Update(ctx, other, created.ID, shopInput("Stolen"))
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	})

	t.Run("admin_updates_any", func(t *testing.T) {
		input := shopInput("Moderated")
		input.Status = StatusHidden
		view, err := f.service.Update(ctx, admin, created.ID, input)
		require.NoError(t, err)
		assert.Equal(t, StatusHidden, view.Status)
	})

	t.Run("only_admin_deletes", func(t *testing.T) {
		err := f.service.Delete(ctx, owner, created.ID)
		assert.Equal(t, "CAPABILITY_DENIED", apperr.As(err).Code)

		require.NoError(t, f.service.Delete(ctx, admin, created.ID))

		_, err = f.service.Get(ctx, admin, created.ID)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)

		err = f.service.Delete(ctx, admin, created.ID)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})
}

// # Export

func TestService_Export(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := agent("kim")
	f.publish(t, owner, shopInput("Export A"))
	f.publish(t, owner, shopInput("Export B"))

	t.Run("platinum_gets_every_column", func(t *testing.T) {
		var buffer bytes.Buffer
		rows, err := f.service.Export(ctx, member(sec.TierPlatinum), firstPage(), &buffer)
		require.NoError(t, err)
		assert.Equal(t, 2, rows)

		records, err := csv.NewReader(&buffer).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, exportHeader, records[0])

		row := records[1]
		assert.Equal(t, "Export B", row[2])
		assert.Equal(t, "30000000", row[11])
		assert.Equal(t, "kim", row[12])
		assert.Equal(t, "0.07", row[16])
	})

	t.Run("below_platinum_denied", func(t *testing.T) {
		var buffer bytes.Buffer
		_, err := f.service.Export(ctx, member(sec.TierGold), firstPage(), &buffer)
		assert.Equal(t, "CAPABILITY_DENIED", apperr.As(err).Code)
		assert.Zero(t, buffer.Len())

		_, err = f.service.Export(ctx, agent("lee"), firstPage(), &buffer)
		assert.Equal(t, "CAPABILITY_DENIED", apperr.As(err).Code)
	})

	t.Run("storage_failure_keeps_written_rows", func(t *testing.T) {
		f.repository.eachFailsAfter = 1
		t.Cleanup(func() { f.repository.eachFailsAfter = 0 })

		var buffer bytes.Buffer
		rows, err := f.service.Export(ctx, member(sec.TierPlatinum), firstPage(), &buffer)
		require.Error(t, err)
		assert.Equal(t, 1, rows)

		records, readErr := csv.NewReader(&buffer).ReadAll()
		require.NoError(t, readErr)
		require.Len(t, records, 2)
		assert.Equal(t, "Export B", records[1][2])
	})
}

func TestListingSlug(t *testing.T) {
	id := "01234567-0000-7000-8000-0123456789ab"
	assert.Equal(t, "seoul-shop-456789ab", listingSlug("Seoul Shop", id))
	assert.Equal(t, "cafe-456789ab", listingSlug("Café", id))
	assert.Equal(t, "456789ab", listingSlug("!!!", id))
}
