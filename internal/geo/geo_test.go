package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bellavista-care-home/bellavista-carehome-sub000/pkg/models"
)

func TestDistanceMilesSymmetricAndZero(t *testing.T) {
	points := [][2]float64{
		{51.405, -3.268},
		{51.4634, -3.164},
		{-33.8688, 151.2093},
		{0, 0},
		{89.9, 179.9},
		{-45.5, -120.25},
	}
	for _, a := range points {
		assert.Equal(t, 0.0, DistanceMiles(a[0], a[1], a[0], a[1]))
		for _, b := range points {
			ab := DistanceMiles(a[0], a[1], b[0], b[1])
			ba := DistanceMiles(b[0], b[1], a[0], a[1])
			assert.InDelta(t, ab, ba, 1e-9, "%v <-> %v", a, b)
		}
	}
}

func TestDistanceMilesKnownValue(t *testing.T) {
	// Barry to Cardiff Bay is about six miles.
	d := DistanceMiles(51.405, -3.268, 51.4634, -3.164)
	assert.InDelta(t, 6.0, d, 0.1)
}

func TestDistanceMilesAntipodal(t *testing.T) {
	d := DistanceMiles(51.405, -3.268, -51.405, 176.732)
	assert.False(t, math.IsNaN(d))
	assert.InDelta(t, math.Pi*EarthRadiusMiles, d, 0.01)
}

func TestFindNearestBarry(t *testing.T) {
	got, ok := FindNearest(51.405, -3.268, Facilities())
	require.True(t, ok)
	assert.Equal(t, "barry", got.Facility.ID)
	assert.Equal(t, 0.0, got.DistanceMiles)
}

func TestFindNearestIsMinimal(t *testing.T) {
	list := Facilities()
	queries := [][2]float64{
		{51.405, -3.268},   // Barry itself
		{51.4816, -3.1791}, // Cardiff centre
		{51.4386, -3.174},  // Penarth
		{51.7487, -3.3816}, // Merthyr Tydfil
		{51.6018, -3.342},  // Pontypridd
		{51.39, -3.27},     // Barry Island
		{51.62, -3.94},     // Swansea
		{51.4545, -2.5879}, // Bristol
		{53.4808, -2.2426}, // Manchester
		{55.9533, -3.1883}, // Edinburgh
		{-51.405, 176.732}, // far side of the world
		{0, 0},
	}
	for _, q := range queries {
		got, ok := FindNearest(q[0], q[1], list)
		require.True(t, ok)
		assert.False(t, math.IsNaN(got.DistanceMiles))

		want := math.Inf(1)
		for _, f := range list {
			want = math.Min(want, DistanceMiles(q[0], q[1], f.Latitude, f.Longitude))
		}
		assert.InDelta(t, math.Round(want*10)/10, got.DistanceMiles, 1e-9, "query %v", q)
		assert.InDelta(t, want, DistanceMiles(q[0], q[1], got.Facility.Latitude, got.Facility.Longitude), 1e-9, "query %v", q)
	}
}

func TestFindNearestTieKeepsFirst(t *testing.T) {
	list := []models.FacilityLocation{
		{ID: "a", Latitude: 51.5, Longitude: -3.0},
		{ID: "b", Latitude: 51.5, Longitude: -3.0},
	}
	got, ok := FindNearest(51.6, -3.0, list)
	require.True(t, ok)
	assert.Equal(t, "a", got.Facility.ID)
}

func TestFindNearestEmpty(t *testing.T) {
	_, ok := FindNearest(51.405, -3.268, nil)
	assert.False(t, ok)
}

func TestFindNearestRoundsToOneDecimal(t *testing.T) {
	got, ok := FindNearest(51.4816, -3.1791, Facilities())
	require.True(t, ok)
	assert.Equal(t, got.DistanceMiles, math.Round(got.DistanceMiles*10)/10)
}

func TestFacilitiesReturnsCopy(t *testing.T) {
	a := Facilities()
	a[0].Name = "changed"
	assert.NotEqual(t, "changed", Facilities()[0].Name)

	f, ok := FacilityByID("waverley")
	require.True(t, ok)
	assert.Equal(t, "Waverley Care Centre", f.Name)
	_, ok = FacilityByID("nowhere")
	assert.False(t, ok)
}

func TestPositionError(t *testing.T) {
	assert.ErrorIs(t, PositionError(1), ErrPermissionDenied)
	assert.ErrorIs(t, PositionError(0), ErrUnsupported)
	assert.ErrorIs(t, PositionError(2), ErrPositionUnavailable)
	assert.ErrorIs(t, PositionError(3), ErrPositionTimeout)
	assert.ErrorIs(t, PositionError(9), ErrPositionUnavailable)

	msg, ok := UserMessage(PositionError(1))
	require.True(t, ok)
	assert.Contains(t, msg, "denied")

	_, ok = UserMessage(assert.AnError)
	assert.False(t, ok)
}

func TestValidCoordinates(t *testing.T) {
	assert.NoError(t, ValidCoordinates(51.4, -3.2))
	assert.ErrorIs(t, ValidCoordinates(91, 0), ErrInvalidCoordinates)
	assert.ErrorIs(t, ValidCoordinates(0, -181), ErrInvalidCoordinates)
	assert.ErrorIs(t, ValidCoordinates(math.NaN(), 0), ErrInvalidCoordinates)
}
