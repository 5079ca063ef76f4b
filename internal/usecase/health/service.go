package health

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates every check failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Check names.
const (
	CheckDatabase  = "database"
	CheckEmbedding = "embedding"
	CheckIndex     = "index"
)

const defaultCheckTimeout = 5 * time.Second

// Report aggregates health check results. Errors holds the failure message per failed check.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Errors map[string]string
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	indexes   IndexLister
	indexName string
	timeout   time.Duration
}

// New creates a Service. embedding can be nil.
func New(db DBPinger, embedding EmbeddingChecker) *Service {
	return &Service{db: db, embedding: embedding, timeout: defaultCheckTimeout}
}

// WithIndex adds a check that the named index exists.
func (s *Service) WithIndex(lister IndexLister, name string) *Service {
	s.indexes = lister
	s.indexName = name
	return s
}

// WithTimeout bounds each individual check.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{Checks: make(map[string]CheckResult), Errors: make(map[string]string)}

	s.run(ctx, &r, CheckDatabase, s.db.Ping)

	if s.embedding != nil {
		s.run(ctx, &r, CheckEmbedding, s.embedding.HealthCheck)
	}

	if s.indexes != nil {
		s.run(ctx, &r, CheckIndex, func(ctx context.Context) error {
			names, err := s.indexes.ListNames(ctx)
			if err != nil {
				return err
			}
			if !slices.Contains(names, s.indexName) {
				return fmt.Errorf("index %q does not exist", s.indexName)
			}
			return nil
		})
	}

	failed := len(r.Errors)
	switch {
	case failed == 0:
		r.Status = Healthy
	case failed == len(r.Checks):
		r.Status = Unhealthy
	default:
		r.Status = Degraded
	}
	return r
}

func (s *Service) run(ctx context.Context, r *Report, name string, check func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := check(ctx); err != nil {
		r.Checks[name] = CheckError
		r.Errors[name] = err.Error()
		return
	}
	r.Checks[name] = CheckOK
}
