package widget

import (
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"market-glance/internal/domain/entity"
	"market-glance/internal/infra/chart"
	"market-glance/internal/usecase/news"
	"market-glance/internal/usecase/outcome"
	"market-glance/internal/usecase/quote"
)

// SessionCookie identifies the browser whose panels a request reads and drives.
const SessionCookie = "glance_session"

const (
	defaultSessionTTL  = 30 * time.Minute
	defaultMaxSessions = 1000
)

// session is the panel state of one browser: its own trackers, its own chart
// board and use cases bound to them.
type session struct {
	id     string
	stock  *outcome.Tracker[entity.Quote]
	digest *outcome.Tracker[entity.ArticleDigest]
	board  *chart.Board
	quotes *quote.Service
	news   *news.Service

	lastSeen time.Time // guarded by sessionStore.mu
}

// sessionStore keeps sessions in memory. Idle sessions expire after ttl and
// the least recently seen one is evicted when max is reached.
type sessionStore struct {
	ttl   time.Duration
	max   int
	build func(id string) *session
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionStore(ttl time.Duration, max int, build func(id string) *session) *sessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if max <= 0 {
		max = defaultMaxSessions
	}
	return &sessionStore{
		ttl:      ttl,
		max:      max,
		build:    build,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// get returns the live session for id and refreshes its expiry.
func (s *sessionStore) get(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.Sub(sess.lastSeen) > s.ttl {
		delete(s.sessions, id)
		return nil, false
	}
	sess.lastSeen = now
	return sess, true
}

// create starts a session under a fresh random id.
func (s *sessionStore) create() *session {
	sess := s.build(uuid.NewString())

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweepLocked(now)
	if len(s.sessions) >= s.max {
		s.evictLocked(len(s.sessions) - s.max + 1)
	}
	sess.lastSeen = now
	s.sessions[sess.id] = sess
	return sess
}

func (s *sessionStore) sweepLocked(now time.Time) {
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

func (s *sessionStore) evictLocked(n int) {
	oldest := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		oldest = append(oldest, sess)
	}
	sort.Slice(oldest, func(i, j int) bool { return oldest[i].lastSeen.Before(oldest[j].lastSeen) })
	for _, sess := range oldest[:n] {
		delete(s.sessions, sess.id)
	}
}

// snapshot returns the live sessions.
func (s *sessionStore) snapshot() []*session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(s.now())
	out := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// newSession builds the panel state of one browser.
func (c *Controller) newSession(id string) *session {
	logger := c.logger.With(slog.String("session", id[:8]))
	sess := &session{
		id:     id,
		stock:  outcome.NewTracker[entity.Quote]("stock", logger),
		digest: outcome.NewTracker[entity.ArticleDigest]("news", logger),
		board:  chart.NewBoard(c.cfg.ChartOptions),
	}
	sess.quotes = c.quotes.Bind(sess.stock, sess.board)
	sess.news = c.news.Bind(sess.digest)

	sess.stock.Subscribe(func(gen uint64, s entity.OutcomeState[entity.Quote]) {
		logger.Debug("panel state changed",
			slog.String("panel", "stock"),
			slog.Uint64("generation", gen),
			slog.String("phase", s.Phase.String()))
	})
	sess.digest.Subscribe(func(gen uint64, s entity.OutcomeState[entity.ArticleDigest]) {
		logger.Debug("panel state changed",
			slog.String("panel", "news"),
			slog.Uint64("generation", gen),
			slog.String("phase", s.Phase.String()))
	})
	return sess
}

// session returns the caller's session, starting one and setting the cookie
// when the request carries none or an expired one.
func (c *Controller) session(w http.ResponseWriter, r *http.Request) *session {
	if ck, err := r.Cookie(SessionCookie); err == nil {
		if sess, ok := c.sessions.get(ck.Value); ok {
			return sess
		}
	}
	sess := c.sessions.create()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.id,
		Path:     "/",
		MaxAge:   int(c.cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}
