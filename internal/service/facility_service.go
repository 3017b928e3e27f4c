package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"medimate-go/internal/location"
	"medimate-go/internal/model"
	"medimate-go/internal/repository"
	"medimate-go/pkg/es"
	"medimate-go/pkg/geo"
	"medimate-go/pkg/log"
	"medimate-go/pkg/places"
)

const (
	DefaultRadiusMeters = 5000
	MaxRadiusMeters     = 50000
)

// FacilitySource 是附近机构的数据源。返回结果不含距离。
type FacilitySource interface {
	Search(ctx context.Context, lat, lng float64, radiusMeters int, types []string) ([]model.Facility, error)
}

// placesSource 通过 Places API 查询，每个类别一次请求。
type placesSource struct {
	client places.Client
}

// NewPlacesSource 把 Places 客户端适配为 FacilitySource。
func NewPlacesSource(client places.Client) FacilitySource {
	return &placesSource{client: client}
}

func (p *placesSource) Search(ctx context.Context, lat, lng float64, radius int, types []string) ([]model.Facility, error) {
	seen := make(map[string]struct{})
	var out []model.Facility
	for _, t := range types {
		found, err := p.client.Nearby(ctx, lat, lng, radius, t)
		if err != nil {
			return nil, err
		}
		for _, pl := range found {
			if _, dup := seen[pl.ID]; dup {
				continue
			}
			seen[pl.ID] = struct{}{}
			out = append(out, model.Facility{ID: pl.ID, Name: pl.Name, Type: t, Address: pl.Address, Lat: pl.Lat, Lng: pl.Lng})
		}
	}
	return out, nil
}

// directorySource 从 Elasticsearch 机构目录查询。
type directorySource struct {
	dir es.Directory
}

// NewDirectorySource 把 ES 目录适配为 FacilitySource。
func NewDirectorySource(dir es.Directory) FacilitySource {
	return &directorySource{dir: dir}
}

func (d *directorySource) Search(ctx context.Context, lat, lng float64, radius int, types []string) ([]model.Facility, error) {
	docs, err := d.dir.Nearby(ctx, lat, lng, radius, types)
	if err != nil {
		return nil, err
	}
	out := make([]model.Facility, 0, len(docs))
	for _, doc := range docs {
		out = append(out, model.Facility{
			ID: doc.ID, Name: doc.Name, Type: doc.Type, Address: doc.Address, Phone: doc.Phone,
			Lat: doc.Location.Lat, Lng: doc.Location.Lon,
		})
	}
	return out, nil
}

// FacilityList 是附近机构查询的返回。
type FacilityList struct {
	Location        location.Context `json:"location"`
	Facilities      []model.Facility `json:"facilities"`
	EmergencyNumber string           `json:"emergencyNumber"`
}

// FacilityInput 是管理员录入机构目录的请求。
type FacilityInput struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Address string  `json:"address"`
	Phone   string  `json:"phone"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// FacilityService 查询附近的医院和药店。
type FacilityService interface {
	// Nearby 要求位置已解析，否则返回 ErrLocationUnavailable。radius 为 0 时使用默认值。
	Nearby(ctx context.Context, loc location.Context, category string, radiusMeters int) (*FacilityList, error)
	// Index 向 ES 目录写入一条机构，未配置目录时返回 ErrDirectoryNotReady。
	Index(ctx context.Context, in FacilityInput) error
}

type facilityService struct {
	source          FacilitySource
	directory       es.Directory
	cache           repository.FacilityCacheRepository
	emergencyNumber string
	defaultRadius   int
}

// NewFacilityService 创建 FacilityService。directory 与 cache 可以为 nil。
// defaultRadius 不在 1 到 MaxRadiusMeters 之间时使用 DefaultRadiusMeters。
func NewFacilityService(source FacilitySource, directory es.Directory, cache repository.FacilityCacheRepository, emergencyNumber string, defaultRadius int) FacilityService {
	if emergencyNumber == "" {
		emergencyNumber = "911"
	}
	if defaultRadius < 1 || defaultRadius > MaxRadiusMeters {
		defaultRadius = DefaultRadiusMeters
	}
	return &facilityService{
		source:          source,
		directory:       directory,
		cache:           cache,
		emergencyNumber: emergencyNumber,
		defaultRadius:   defaultRadius,
	}
}

func categoryTypes(category string) ([]string, error) {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "", model.FacilityAll:
		return []string{model.FacilityHospital, model.FacilityPharmacy}, nil
	case model.FacilityHospital:
		return []string{model.FacilityHospital}, nil
	case model.FacilityPharmacy:
		return []string{model.FacilityPharmacy}, nil
	}
	return nil, fmt.Errorf("%w: unknown facility type %q", ErrInvalidInput, category)
}

func (s *facilityService) Nearby(ctx context.Context, loc location.Context, category string, radius int) (*FacilityList, error) {
	if !loc.Resolved() {
		return nil, ErrLocationUnavailable
	}
	types, err := categoryTypes(category)
	if err != nil {
		return nil, err
	}
	if radius == 0 {
		radius = s.defaultRadius
	}
	if radius < 1 || radius > MaxRadiusMeters {
		return nil, fmt.Errorf("%w: radius must be between 1 and %d meters", ErrInvalidInput, MaxRadiusMeters)
	}
	if s.source == nil {
		return nil, ErrDirectoryNotReady
	}

	found, err := s.search(ctx, loc.Lat, loc.Lng, radius, types)
	if err != nil {
		return nil, err
	}

	facilities := make([]model.Facility, 0, len(found))
	for _, f := range found {
		f.DistanceKm = geo.Round1(geo.DistanceKm(loc.Lat, loc.Lng, f.Lat, f.Lng))
		f.DirectionsURL = geo.DirectionsURL(f.Lat, f.Lng)
		facilities = append(facilities, f)
	}
	sort.SliceStable(facilities, func(i, j int) bool {
		return facilities[i].DistanceKm < facilities[j].DistanceKm
	})

	return &FacilityList{Location: loc, Facilities: facilities, EmergencyNumber: s.emergencyNumber}, nil
}

// search 先查缓存，缓存故障不影响查询。
func (s *facilityService) search(ctx context.Context, lat, lng float64, radius int, types []string) ([]model.Facility, error) {
	key := repository.FacilityCacheKey(lat, lng, strings.Join(types, ","), radius)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warnw("facility cache read failed", "error", err)
		} else if ok {
			return cached, nil
		}
	}

	found, err := s.source.Search(ctx, lat, lng, radius, types)
	if err != nil {
		return nil, fmt.Errorf("search facilities: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, found); err != nil {
			log.Warnw("facility cache write failed", "error", err)
		}
	}
	return found, nil
}

func (s *facilityService) Index(ctx context.Context, in FacilityInput) error {
	if s.directory == nil {
		return ErrDirectoryNotReady
	}
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	if in.ID == "" || in.Name == "" {
		return fmt.Errorf("%w: id and name are required", ErrInvalidInput)
	}
	if in.Type != model.FacilityHospital && in.Type != model.FacilityPharmacy {
		return fmt.Errorf("%w: type must be hospital or pharmacy", ErrInvalidInput)
	}
	if !geo.Valid(in.Lat, in.Lng) {
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}
	return s.directory.Index(ctx, es.FacilityDoc{
		ID: in.ID, Name: in.Name, Type: in.Type, Address: in.Address, Phone: in.Phone,
		Location: es.GeoPoint{Lat: in.Lat, Lon: in.Lng},
	})
}
