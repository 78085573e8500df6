package locations

import (
	"context"
	"testing"

	"fleetdesk-backend/internal/application/access"
	"fleetdesk-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupLocations(t *testing.T) (*Service, *gorm.DB, domain.Actor, uuid.UUID) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Listing{}, &domain.Asset{}, &domain.Photo{}, &domain.Location{}))

	host := domain.Actor{UserID: uuid.New(), Role: "host"}
	listing := &domain.Listing{OwnerID: host.UserID, BusinessName: "Dumpsters R Us", Category: "dumpsters"}
	require.NoError(t, db.Create(listing).Error)
	asset := &domain.Asset{ListingID: listing.ListingID, Name: "30yd", AssetClass: domain.ClassDumpster}
	require.NoError(t, db.Create(asset).Error)
	return &Service{DB: db}, db, host, asset.ID
}

func primaryIDs(t *testing.T, db *gorm.DB, assetID uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	require.NoError(t, db.Model(&domain.Location{}).Where("service_id = ? AND is_primary = ?", assetID, true).Pluck("id", &ids).Error)
	return ids
}

func TestCreate_SecondPrimaryDisplacesFirst(t *testing.T) {
	svc, db, host, assetID := setupLocations(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, host, assetID, LocationInput{LocationName: "Main yard", PickupAvailable: true})
	require.NoError(t, err)
	assert.True(t, first.IsPrimary, "first location defaults to primary")

	second, err := svc.Create(ctx, host, assetID, LocationInput{LocationName: "North lot", IsPrimary: true})
	require.NoError(t, err)
	assert.True(t, second.IsPrimary)

	var reloaded domain.Location
	require.NoError(t, db.First(&reloaded, "id = ?", first.ID).Error)
	assert.False(t, reloaded.IsPrimary)
	assert.Equal(t, []uuid.UUID{second.ID}, primaryIDs(t, db, assetID))

	third, err := svc.Create(ctx, host, assetID, LocationInput{LocationName: "South lot"})
	require.NoError(t, err)
	assert.False(t, third.IsPrimary)

	list, err := svc.List(ctx, host, assetID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, second.ID, list[0].ID)
}

func TestCreate_Validation(t *testing.T) {
	svc, db, host, assetID := setupLocations(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, host, assetID, LocationInput{LocationName: "  "})
	assert.ErrorIs(t, err, ErrNameRequired)
	lat := 95.0
	lng := 10.0
	_, err = svc.Create(ctx, host, assetID, LocationInput{LocationName: "Bad", Latitude: &lat, Longitude: &lng})
	assert.ErrorIs(t, err, ErrInvalidCoords)
	badLng := 181.0
	_, err = svc.Create(ctx, host, assetID, LocationInput{LocationName: "Half", Longitude: &badLng})
	assert.ErrorIs(t, err, ErrInvalidCoords)

	var count int64
	db.Model(&domain.Location{}).Count(&count)
	assert.Equal(t, int64(0), count)

	stranger := domain.Actor{UserID: uuid.New(), Role: "host"}
	_, err = svc.Create(ctx, stranger, assetID, LocationInput{LocationName: "Mine"})
	assert.ErrorIs(t, err, access.ErrForbidden)
}

func TestCreate_OnlyNameIsRequired(t *testing.T) {
	svc, _, host, assetID := setupLocations(t)
	ctx := context.Background()

	canadian := "K1A 0B6"
	short := "0210"
	lat := 45.42
	lng := -75.69
	inputs := []LocationInput{
		{LocationName: "Yard", ZipCode: &canadian},
		{LocationName: "Yard", ZipCode: &short},
		{LocationName: "Yard", Latitude: &lat},
		{LocationName: "Yard", Longitude: &lng},
	}
	for _, in := range inputs {
		loc, err := svc.Create(ctx, host, assetID, in)
		require.NoError(t, err)
		assert.Equal(t, "Yard", loc.LocationName)
	}

	list, err := svc.List(ctx, host, assetID)
	require.NoError(t, err)
	assert.Len(t, list, 4)
}

func TestSetPrimary(t *testing.T) {
	svc, db, host, assetID := setupLocations(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, host, assetID, LocationInput{LocationName: "A"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, host, assetID, LocationInput{LocationName: "B"})
	require.NoError(t, err)

	got, err := svc.SetPrimary(ctx, host, b.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPrimary)
	assert.Equal(t, []uuid.UUID{b.ID}, primaryIDs(t, db, assetID))

	_, err = svc.SetPrimary(ctx, host, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID}, primaryIDs(t, db, assetID))

	_, err = svc.SetPrimary(ctx, host, uuid.New())
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestUpdate(t *testing.T) {
	svc, db, host, assetID := setupLocations(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, host, assetID, LocationInput{LocationName: "A"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, host, assetID, LocationInput{LocationName: "B"})
	require.NoError(t, err)

	city := "Austin"
	updated, err := svc.Update(ctx, host, b.ID, LocationInput{LocationName: "B depot", City: &city, IsPrimary: true, DropoffAvailable: true})
	require.NoError(t, err)
	assert.Equal(t, "B depot", updated.LocationName)
	assert.Equal(t, "Austin", *updated.City)
	assert.True(t, updated.DropoffAvailable)
	assert.Equal(t, []uuid.UUID{b.ID}, primaryIDs(t, db, assetID))

	// unflagging the primary hands it to the other location
	_, err = svc.Update(ctx, host, b.ID, LocationInput{LocationName: "B depot"})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID}, primaryIDs(t, db, assetID))

	_, err = svc.Update(ctx, host, a.ID, LocationInput{LocationName: ""})
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestUpdate_SoleLocationStaysPrimary(t *testing.T) {
	svc, db, host, assetID := setupLocations(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, host, assetID, LocationInput{LocationName: "Only"})
	require.NoError(t, err)

	got, err := svc.Update(ctx, host, a.ID, LocationInput{LocationName: "Only one"})
	require.NoError(t, err)
	assert.True(t, got.IsPrimary)
	assert.Equal(t, []uuid.UUID{a.ID}, primaryIDs(t, db, assetID))
}

func TestDelete_PromotesRemaining(t *testing.T) {
	svc, db, host, assetID := setupLocations(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, host, assetID, LocationInput{LocationName: "A"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, host, assetID, LocationInput{LocationName: "B"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, host, a.ID))
	assert.Equal(t, []uuid.UUID{b.ID}, primaryIDs(t, db, assetID))

	require.NoError(t, svc.Delete(ctx, host, b.ID))
	assert.Empty(t, primaryIDs(t, db, assetID))
	assert.ErrorIs(t, svc.Delete(ctx, host, b.ID), ErrLocationNotFound)
}
