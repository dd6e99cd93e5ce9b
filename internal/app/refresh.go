package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/courtline/internal/adapters/feed"
	"github.com/okian/courtline/internal/config"
	"github.com/okian/courtline/internal/domain/rating"
	"github.com/okian/courtline/pkg/logger"
	"github.com/okian/courtline/pkg/metrics"
)

// Refresh fetches every feed concurrently, merges them and swaps the new
// dataset in. A feed that fails is skipped and reported in the dataset's
// source status. When no feed yields a team the active dataset is kept.
func (s *Service) Refresh(ctx context.Context) (*rating.Dataset, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()
	feeds := s.cfg.Feeds
	sources := make([]rating.SourceFragments, len(feeds))
	statuses := make([]rating.SourceStatus, len(feeds))
	failures := make([]error, len(feeds))

	err := s.fetchPool.Run(ctx, len(feeds), func(ctx context.Context, i int) error {
		fc := &feeds[i]
		statuses[i] = rating.SourceStatus{Name: fc.Name, FetchedAt: time.Now().UTC()}
		frags, err := s.loadFeed(ctx, fc)
		if err != nil {
			failures[i] = err
			statuses[i].Error = err.Error()
			s.logger.Warn(ctx, "feed skipped", logger.String("feed", fc.Name), logger.Error(err))
			return nil
		}
		sources[i] = rating.SourceFragments{Source: fc.Name, Fragments: frags}
		statuses[i].Teams = len(frags)
		metrics.UpdateFeedTeams(fc.Name, len(frags))
		return nil
	})
	if err != nil {
		metrics.RecordDatasetRefresh("aborted")
		return nil, fmt.Errorf("%w: %w", ErrRefresh, err)
	}

	teams := rating.Merge(sources)
	if len(teams) == 0 {
		metrics.RecordDatasetRefresh("empty")
		if cause := errors.Join(failures...); cause != nil {
			return nil, fmt.Errorf("%w: no feed produced any team: %w", ErrRefresh, cause)
		}
		return nil, fmt.Errorf("%w: no feed produced any team", ErrRefresh)
	}

	ds := rating.NewDataset(teams, statuses, time.Now().UTC())
	s.dataset.Store(ds)

	metrics.RecordDatasetRefresh("ok")
	metrics.UpdateDatasetTeams(ds.Len())
	metrics.UpdateDatasetLastRefresh(ds.LoadedAt())
	s.logger.Info(ctx, "dataset refreshed",
		logger.Int("teams", ds.Len()),
		logger.Int("failedFeeds", countErrors(failures)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return ds, nil
}

func (s *Service) scheduledRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(s.cfg.FetchTimeoutMS)*time.Millisecond*2)
	defer cancel()
	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Error(ctx, "scheduled refresh failed", logger.Error(err))
	}
}

// loadFeed fetches one feed and extracts its fragments.
func (s *Service) loadFeed(ctx context.Context, fc *config.FeedConfig) (map[string]rating.Fragment, error) {
	rows, err := s.fetcher.Fetch(ctx, feed.Source{Name: fc.Name, URL: fc.URL, Format: fc.Format})
	if err != nil {
		return nil, err
	}
	layout, err := feedLayout(fc, rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fc.Name, err)
	}
	blend := rating.Blend{Current: s.cfg.Blend.Current, Prior: s.cfg.Blend.Prior}
	frags := rating.Extract(rows, layout, blend, s.aliases.Key)
	if len(frags) == 0 {
		return nil, fmt.Errorf("%s: %w: no team rows", fc.Name, feed.ErrFeedParse)
	}
	return frags, nil
}

// feedLayout resolves fc into column positions, detecting headers when the
// feed is header-addressed.
func feedLayout(fc *config.FeedConfig, rows [][]string) (rating.Layout, error) {
	switch fc.Layout {
	case config.LayoutHeader:
		spec := rating.HeaderSpec{Team: fc.TeamHeader, Aliases: fc.HeaderAliases, ScanRows: fc.HeaderScanRows}
		for _, v := range fc.Values {
			st, err := rating.ParseStat(v.Stat)
			if err != nil {
				return rating.Layout{}, err
			}
			spec.Values = append(spec.Values, rating.HeaderValue{
				Stat: st, Header: v.Header, PriorHeader: v.PriorHeader, Percent: v.Percent,
			})
		}
		return rating.HeaderLayout(rows, spec)
	default:
		layout := rating.Layout{TeamColumn: fc.TeamColumn, StartRow: fc.StartRow}
		for _, v := range fc.Values {
			st, err := rating.ParseStat(v.Stat)
			if err != nil {
				return rating.Layout{}, err
			}
			prior := rating.NoColumn
			if v.Prior != nil {
				prior = *v.Prior
			}
			layout.Values = append(layout.Values, rating.ValueColumn{
				Stat: st, Current: v.Column, Prior: prior, Percent: v.Percent,
			})
		}
		return layout, nil
	}
}

func countErrors(errs []error) int {
	n := 0
	for _, err := range errs {
		if err != nil {
			n++
		}
	}
	return n
}
