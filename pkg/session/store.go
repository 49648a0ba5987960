package session

import (
	"context"
	"time"

	"return-insight/pkg/dataset"
	"return-insight/pkg/metrics"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// DefaultTTL est la durée d'inactivité après laquelle une session est détruite.
const DefaultTTL = 30 * time.Minute

// Loader charge le dataset au démarrage d'une session.
type Loader func(ctx context.Context) (*dataset.Frame, error)

// Store garde les sessions actives ; chaque accès prolonge leur durée de vie.
type Store struct {
	sessions *cache.Cache
	ttl      time.Duration
	load     Loader
	logger   *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewStore crée le registre de sessions.
func NewStore(load Loader, ttl time.Duration, logger *zap.Logger, m *metrics.Metrics) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		sessions: cache.New(ttl, ttl/2),
		ttl:      ttl,
		load:     load,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
	s.sessions.OnEvicted(func(id string, _ interface{}) {
		s.logger.Debug("dashboard session ended", zap.String("session", id))
	})
	return s
}

// Start charge le dataset et ouvre une session. Un échec de chargement est retourné
// tel quel (*dataset.DataLoadError) et aucune session n'est créée.
func (s *Store) Start(ctx context.Context) (*Dashboard, error) {
	frame, err := s.load(ctx)
	if err != nil {
		s.metrics.RecordLoadError()
		s.logger.Error("dashboard dataset load failed", zap.Error(err))
		return nil, err
	}
	d := newDashboard(uuid.NewString(), frame, s.now())
	s.sessions.Set(d.ID, d, s.ttl)
	s.metrics.RecordSessionStart(frame.Len())
	s.logger.Info("dashboard session started",
		zap.String("session", d.ID),
		zap.String("source", frame.Source),
		zap.Int("rows", frame.Len()),
		zap.Bool("filterable", frame.HasCategory))
	return d, nil
}

// Get retourne une session active et prolonge sa durée de vie.
func (s *Store) Get(id string) (*Dashboard, bool) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, false
	}
	d := v.(*Dashboard)
	s.sessions.Set(id, d, s.ttl)
	return d, true
}

// End détruit une session.
func (s *Store) End(id string) {
	s.sessions.Delete(id)
}

// Len retourne le nombre de sessions actives.
func (s *Store) Len() int {
	return s.sessions.ItemCount()
}
