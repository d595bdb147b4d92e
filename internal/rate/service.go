package rate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/adapters"
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/domain"
)

// Service is the read/refresh surface over the rate cache: conversion
// lookups with staleness advisories, filtered listings and the explicit
// refresh entry point.
type Service struct {
	snapshots adapters.SnapshotStore
	updater   *Updater
	cache     adapters.RateCache
	ttl       time.Duration
	now       func() time.Time
}

func NewService(snapshots adapters.SnapshotStore, updater *Updater, cache adapters.RateCache, ttl time.Duration) *Service {
	return &Service{
		snapshots: snapshots,
		updater:   updater,
		cache:     cache,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Refresh runs the merge pipeline and invalidates memoized lookups when
// the run actually fetched something.
func (s *Service) Refresh(ctx context.Context, source string) (domain.RefreshResult, error) {
	result, err := s.updater.Run(ctx, source)
	if err != nil {
		return domain.RefreshResult{}, err
	}
	if result.PairsFetched > 0 {
		s.cache.Clear()
	}
	return result, nil
}

// GetRate resolves from→to. The staleness advisory accompanies successful
// lookups and never blocks them; "no data" is the domain.ErrRateUnavailable
// sentinel, distinct from hard failures.
func (s *Service) GetRate(from, to string) (domain.RateInfo, *Staleness, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if err := ValidateCodes(from, to); err != nil {
		return domain.RateInfo{}, nil, err
	}

	snap, err := s.snapshots.Read()
	if err != nil {
		return domain.RateInfo{}, nil, err
	}
	stale := CheckFreshness(snap, s.ttl, s.now())

	key := domain.MakePairKey(from, to)
	if info, ok := s.cache.Get(key); ok {
		return info, stale, nil
	}

	value, updatedAt, ok := Resolve(snap, from, to)
	if !ok {
		return domain.RateInfo{}, stale, fmt.Errorf("%w: %s→%s", domain.ErrRateUnavailable, from, to)
	}
	if updatedAt == "" {
		updatedAt = snap.LastRefresh
	}

	info := domain.RateInfo{
		Rate:        value,
		InverseRate: domain.InverseRate(value),
		UpdatedAt:   updatedAt,
	}
	s.cache.Set(key, info)
	return info, stale, nil
}

// PairRow is one snapshot entry prepared for display.
type PairRow struct {
	From   string
	To     string
	Rate   float64
	Source string
}

// ListFilter narrows ListRates output. Currency keeps pairs involving that
// code; Base keeps pairs involving the base code; Top > 0 switches to the
// N largest rates quoted against Base.
type ListFilter struct {
	Currency string
	Base     string
	Top      int
}

// ListRates returns snapshot entries matching the filter, sorted by pair
// key (or by descending rate for Top listings).
func (s *Service) ListRates(filter ListFilter) ([]PairRow, *Staleness, error) {
	currency := strings.ToUpper(strings.TrimSpace(filter.Currency))
	base := strings.ToUpper(strings.TrimSpace(filter.Base))
	if base == "" {
		base = bridgeCurrency
	}
	if currency != "" {
		if err := ValidateCodes(currency); err != nil {
			return nil, nil, err
		}
	}
	if err := ValidateCodes(base); err != nil {
		return nil, nil, err
	}

	snap, err := s.snapshots.Read()
	if err != nil {
		return nil, nil, err
	}
	stale := CheckFreshness(snap, s.ttl, s.now())

	var rows []PairRow
	for key, entry := range snap.Pairs {
		from, to, ok := domain.SplitPairKey(key)
		if !ok {
			continue
		}
		if currency != "" && currency != from && currency != to {
			continue
		}
		if base != from && base != to {
			continue
		}
		if filter.Top > 0 && (to != base || entry.Rate <= 0) {
			continue
		}
		rows = append(rows, PairRow{From: from, To: to, Rate: entry.Rate, Source: entry.Source})
	}

	if filter.Top > 0 {
		sort.Slice(rows, func(i, j int) bool { return rows[i].Rate > rows[j].Rate })
		if len(rows) > filter.Top {
			rows = rows[:filter.Top]
		}
	} else {
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].From != rows[j].From {
				return rows[i].From < rows[j].From
			}
			return rows[i].To < rows[j].To
		})
	}
	return rows, stale, nil
}

// LastRefresh exposes the snapshot's refresh timestamp for display.
func (s *Service) LastRefresh() (string, error) {
	snap, err := s.snapshots.Read()
	if err != nil {
		return "", err
	}
	return snap.LastRefresh, nil
}
