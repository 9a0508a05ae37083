package geo

import "github.com/bellavista-care-home/bellavista-carehome-sub000/pkg/models"

var facilities = []models.FacilityLocation{
	{
		ID:        "barry",
		Name:      "Bellavista Nursing Home Barry",
		Address:   "Barry, Vale of Glamorgan",
		Latitude:  51.405,
		Longitude: -3.268,
		Image:     "/FrontPageBanner/barry.jpg",
		Link:      "/bellavista-barry",
	},
	{
		ID:        "cardiff",
		Name:      "Bellavista Nursing Home Cardiff",
		Address:   "Cardiff Bay, Cardiff",
		Latitude:  51.4634,
		Longitude: -3.1640,
		Image:     "/FrontPageBanner/cardiff.jpg",
		Link:      "/bellavista-cardiff",
	},
	{
		ID:        "waverley",
		Name:      "Waverley Care Centre",
		Address:   "Penarth, Vale of Glamorgan",
		Latitude:  51.4386,
		Longitude: -3.1740,
		Image:     "/FrontPageBanner/waverley.jpg",
		Link:      "/waverley-care-center",
	},
	{
		ID:        "college-fields",
		Name:      "College Fields Nursing Home",
		Address:   "College Road, Barry",
		Latitude:  51.4060,
		Longitude: -3.2960,
		Image:     "/FrontPageBanner/college-fields.jpg",
		Link:      "/college-fields-nursing-home",
	},
	{
		ID:        "baltimore",
		Name:      "Baltimore Care Home",
		Address:   "Barry Island, Barry",
		Latitude:  51.3935,
		Longitude: -3.2735,
		Image:     "/FrontPageBanner/baltimore.jpg",
		Link:      "/baltimore-care-home",
	},
	{
		ID:        "meadow-vale",
		Name:      "Meadow Vale Cwtch",
		Address:   "Merthyr Tydfil",
		Latitude:  51.7487,
		Longitude: -3.3816,
		Image:     "/FrontPageBanner/meadow-vale.jpg",
		Link:      "/meadow-vale-cwtch",
	},
	{
		ID:        "pontypridd",
		Name:      "Bellavista Pontypridd",
		Address:   "Pontypridd, Rhondda Cynon Taf",
		Latitude:  51.6018,
		Longitude: -3.3420,
		Image:     "/FrontPageBanner/pontypridd.jpg",
		Link:      "/bellavista-pontypridd",
	},
}

// Facilities returns a copy of the fixed list of homes used by the nearest search.
func Facilities() []models.FacilityLocation {
	out := make([]models.FacilityLocation, len(facilities))
	copy(out, facilities)
	return out
}

// FacilityByID looks up a facility in the fixed list.
func FacilityByID(id string) (models.FacilityLocation, bool) {
	for _, f := range facilities {
		if f.ID == id {
			return f, true
		}
	}
	return models.FacilityLocation{}, false
}
