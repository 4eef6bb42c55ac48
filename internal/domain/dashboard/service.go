package dashboard

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"victim-aid-go/internal/domain/access"
	"victim-aid-go/internal/domain/aid"
	"victim-aid-go/internal/domain/audit"
)

const (
	ownRecentActions      = 5
	ownRecentRequests     = 5
	overviewRecentActions = 10

	defaultReportCacheTTL = time.Minute
)

type Service struct {
	repo        Repository
	now         func() time.Time
	reportTTL   time.Duration
	reportCache reportCache
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithReportCacheTTL sets how long report figures are reused. Zero disables
// caching.
func WithReportCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl < 0 {
			ttl = 0
		}
		s.reportTTL = ttl
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now, reportTTL: defaultReportCacheTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) Dashboard(ctx context.Context, actor access.Actor) (*Dashboard, error) {
	if err := access.Authorize(actor.Role, access.OpDashboardView); err != nil {
		return nil, err
	}

	switch actor.Role {
	case access.RoleAgent:
		stats, err := s.agentStats(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		return &Dashboard{Kind: KindAgent, Agent: stats}, nil
	case access.RoleAssistant:
		stats, err := s.assistantStats(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		return &Dashboard{Kind: KindAssistant, Assistant: stats}, nil
	case access.RoleResponsable, access.RoleAdmin:
		overview, err := s.overview(ctx)
		if err != nil {
			return nil, err
		}
		return &Dashboard{Kind: KindOverview, Overview: overview}, nil
	default:
		return nil, fmt.Errorf("dashboard: unsupported role %d", actor.Role)
	}
}

// FamiliesAided reports how many distinct families had at least one request
// validated.
func (s *Service) FamiliesAided(ctx context.Context, actor access.Actor) (FamiliesAided, error) {
	if err := access.Authorize(actor.Role, access.OpReportView); err != nil {
		return FamiliesAided{}, err
	}

	now := s.now()
	if s.reportTTL > 0 {
		if report, ok := s.reportCache.Get(now); ok {
			return report, nil
		}
	}

	count, err := s.repo.CountFamiliesAided(ctx)
	if err != nil {
		return FamiliesAided{}, err
	}
	report := FamiliesAided{Families: count}
	if s.reportTTL > 0 {
		s.reportCache.Set(report, now.Add(s.reportTTL))
	}
	return report, nil
}

func (s *Service) agentStats(ctx context.Context, userID uint) (*AgentStats, error) {
	victims, err := s.repo.CountVictims(ctx, &userID, nil)
	if err != nil {
		return nil, err
	}
	families, err := s.repo.CountFamiliesWithVictimsBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	actions, err := s.repo.RecentActions(ctx, &userID, ownRecentActions)
	if err != nil {
		return nil, err
	}

	return &AgentStats{
		MyVictims:     victims,
		MyFamilies:    families,
		RecentActions: nonNilEntries(actions),
	}, nil
}

func (s *Service) assistantStats(ctx context.Context, userID uint) (*AssistantStats, error) {
	stats := &AssistantStats{}

	counts := []struct {
		status *aid.Status
		dst    *int64
	}{
		{nil, &stats.MyRequests},
		{statusPtr(aid.StatusValidated), &stats.Validated},
		{statusPtr(aid.StatusSubmitted), &stats.Pending},
		{statusPtr(aid.StatusRefused), &stats.Refused},
	}
	for _, c := range counts {
		n, err := s.repo.CountRequests(ctx, &userID, c.status)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}

	followed, err := s.repo.CountFamiliesWithRequestsBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.FamiliesFollowed = followed
	stats.ValidationRate = percent(stats.Validated, stats.MyRequests)

	actions, err := s.repo.RecentActions(ctx, &userID, ownRecentActions)
	if err != nil {
		return nil, err
	}
	stats.RecentActions = nonNilEntries(actions)

	requests, err := s.repo.RecentRequests(ctx, userID, ownRecentRequests)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []aid.Request{}
	}
	stats.RecentRequests = requests

	return stats, nil
}

// overview runs its independent reads concurrently; the first failure cancels
// the rest.
func (s *Service) overview(ctx context.Context) (*Overview, error) {
	current := s.now().UTC()
	monthStart := time.Date(current.Year(), current.Month(), 1, 0, 0, 0, 0, time.UTC)

	var (
		result      Overview
		allRequests int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		result.TotalVictims, err = s.repo.CountVictims(gctx, nil, nil)
		return err
	})
	g.Go(func() (err error) {
		result.NewThisMonth, err = s.repo.CountVictims(gctx, nil, &monthStart)
		return err
	})
	g.Go(func() (err error) {
		result.ValidatedRequests, err = s.repo.CountRequests(gctx, nil, statusPtr(aid.StatusValidated))
		return err
	})
	g.Go(func() (err error) {
		allRequests, err = s.repo.CountRequests(gctx, nil, nil)
		return err
	})
	g.Go(func() error {
		actions, err := s.repo.RecentActions(gctx, nil, overviewRecentActions)
		result.RecentActions = nonNilEntries(actions)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.ResolutionRate = percent(result.ValidatedRequests, allRequests)
	return &result, nil
}

// percent returns part/total as a percentage rounded to one decimal.
func percent(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

func statusPtr(status aid.Status) *aid.Status {
	return &status
}

func nonNilEntries(entries []audit.Entry) []audit.Entry {
	if entries == nil {
		return []audit.Entry{}
	}
	return entries
}

type reportCache struct {
	mu        sync.RWMutex
	value     FamiliesAided
	expiresAt time.Time
}

func (c *reportCache) Get(now time.Time) (FamiliesAided, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.expiresAt.After(now) {
		return FamiliesAided{}, false
	}
	return c.value, true
}

func (c *reportCache) Set(value FamiliesAided, expiresAt time.Time) {
	c.mu.Lock()
	c.value = value
	c.expiresAt = expiresAt
	c.mu.Unlock()
}
