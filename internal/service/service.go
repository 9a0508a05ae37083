package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/cache"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/content"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/geo"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/geocode"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/pkg/models"
)

// Geocoder resolves a postcode to coordinates.
type Geocoder interface {
	Lookup(ctx context.Context, postcode string) (geocode.Coordinates, error)
}

// GenericFailureMessage is shown when a write fails for a technical reason.
const GenericFailureMessage = "Something went wrong, please try again later."

// ErrNoFacilities is returned when the nearest search has nothing to search.
var ErrNoFacilities = errors.New("service: no facilities configured")

type Service struct {
	content    *content.Client
	cache      cache.Cache
	geocoder   Geocoder
	facilities []models.FacilityLocation
	logger     *zap.Logger
}

func NewService(client *content.Client, geocoder Geocoder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		content:    client,
		cache:      cache.Nop{},
		geocoder:   geocoder,
		facilities: geo.Facilities(),
		logger:     logger,
	}
}

// ForSession returns a copy of s whose reads go through one session's cache.
func (s *Service) ForSession(cc cache.Cache) *Service {
	cp := *s
	if cc == nil {
		cc = cache.Nop{}
	}
	cp.cache = cc
	cp.content = s.content.Session(cc)
	return &cp
}

// Authenticated returns a copy of s whose writes are signed by a.
func (s *Service) Authenticated(a content.AuthProvider) *Service {
	cp := *s
	cp.content = s.content.Authenticated(a)
	return &cp
}

// SetFacilities replaces the list used by the nearest search.
func (s *Service) SetFacilities(f []models.FacilityLocation) {
	s.facilities = f
}

// Content exposes the session-bound client for writes.
func (s *Service) Content() *content.Client {
	return s.content
}

// Homes returns the homes list, served from the session snapshot under
// bellavista_homes_data when present. Empty results are not stored.
func (s *Service) Homes(ctx context.Context) []models.Home {
	if raw, err := s.cache.Get(ctx, cache.HomesListKey); err == nil {
		var homes []models.Home
		derr := json.Unmarshal(raw, &homes)
		if derr == nil {
			return homes
		}
		s.logger.Warn("discarding unreadable homes snapshot", zap.Error(derr))
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("session cache read failed", zap.String("key", cache.HomesListKey), zap.Error(err))
	}

	homes := s.content.FetchHomes(ctx)
	if len(homes) == 0 {
		return homes
	}
	raw, err := json.Marshal(homes)
	if err != nil {
		s.logger.Warn("encode homes snapshot", zap.Error(err))
		return homes
	}
	if err := s.cache.Set(ctx, cache.HomesListKey, raw); err != nil {
		s.logger.Warn("session cache write failed", zap.String("key", cache.HomesListKey), zap.Error(err))
	}
	return homes
}

func (s *Service) Home(ctx context.Context, id string) *models.Home {
	return s.content.FetchHome(ctx, id)
}

func (s *Service) CareSections(ctx context.Context, homeID string) []models.CareSection {
	return s.content.FetchCareSections(ctx, homeID)
}

// NewsFilter narrows News. Category matches case-insensitively; "all" or
// empty matches everything. Location matches as a case-insensitive substring.
type NewsFilter struct {
	Category string
	Location string
	Limit    int
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// News returns matching news items, newest first.
func (s *Service) News(ctx context.Context, f NewsFilter) []models.NewsItem {
	items := s.content.FetchNewsItems(ctx)

	category := foldKey(f.Category)
	location := foldKey(f.Location)
	out := make([]models.NewsItem, 0, len(items))
	for _, n := range items {
		if category != "" && category != "all" && foldKey(n.Category) != category {
			continue
		}
		if location != "" && location != "all" && !strings.Contains(foldKey(n.Location), location) {
			continue
		}
		out = append(out, n)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt().After(out[j].PublishedAt())
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func (s *Service) NewsItem(ctx context.Context, id string) *models.NewsItem {
	return s.content.FetchNewsItemByID(ctx, id)
}

// Reviews passes the read failure on; callers show fallback reviews.
func (s *Service) Reviews(ctx context.Context, location string) ([]models.Review, error) {
	return s.content.FetchReviews(ctx, content.ReviewFilter{Location: location})
}

func (s *Service) Newsletters(ctx context.Context) []models.Newsletter {
	items := s.content.FetchNewsletters(ctx)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Year != items[j].Year {
			return items[i].Year > items[j].Year
		}
		return items[i].Month > items[j].Month
	})
	return items
}

// NearestByCoordinates finds the closest home to a visitor's position.
func (s *Service) NearestByCoordinates(lat, lon float64) (geo.Nearest, error) {
	if err := geo.ValidCoordinates(lat, lon); err != nil {
		return geo.Nearest{}, err
	}
	n, ok := geo.FindNearest(lat, lon, s.facilities)
	if !ok {
		return geo.Nearest{}, ErrNoFacilities
	}
	return n, nil
}

// NearestByPostcode geocodes a postcode then finds the closest home.
func (s *Service) NearestByPostcode(ctx context.Context, postcode string) (geo.Nearest, geocode.Coordinates, error) {
	coords, err := s.geocoder.Lookup(ctx, postcode)
	if err != nil {
		return geo.Nearest{}, geocode.Coordinates{}, err
	}
	n, err := s.NearestByCoordinates(coords.Latitude, coords.Longitude)
	return n, coords, err
}

// UserMessage turns an error into text for the visitor. Validation and
// location failures get their own text; anything else the generic message.
func UserMessage(err error) string {
	var ve *content.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	if errors.Is(err, geocode.ErrInvalidPostcode) {
		return geocode.InvalidPostcodeMessage
	}
	if msg, ok := geo.UserMessage(err); ok {
		return msg
	}
	return GenericFailureMessage
}
