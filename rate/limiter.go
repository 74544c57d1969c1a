package rate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per client key. Buckets idle for longer
// than Expiry minutes are evicted.
type Limiter struct {
	Expiry  int
	Burst   int
	Limit   rate.Limit
	clients map[string]*clientLimiter
	mu      sync.Mutex
	done    chan struct{}
	once    sync.Once
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func Every(interval time.Duration) rate.Limit {
	return rate.Every(interval)
}

func PerSecond(rps float64) rate.Limit {
	return rate.Limit(rps)
}

func NewLimiter(burst int, expiry int, limit rate.Limit) *Limiter {
	lm := &Limiter{
		Expiry:  expiry,
		Limit:   limit,
		Burst:   burst,
		clients: make(map[string]*clientLimiter),
		done:    make(chan struct{}),
	}
	go lm.refresh()
	return lm
}

func (l *Limiter) Check(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	cl, ok := l.clients[id]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.Limit, l.Burst)}
		l.clients[id] = cl
	}
	cl.lastAccess = time.Now()
	return cl.limiter.Allow()
}

// Stop ends the eviction loop.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.done) })
}

func (l *Limiter) refresh() {
	t := time.NewTicker(time.Minute)
	defer t.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-t.C:
		}

		l.mu.Lock()
		for id, v := range l.clients {
			if time.Since(v.lastAccess) > time.Duration(l.Expiry)*time.Minute {
				delete(l.clients, id)
			}
		}
		l.mu.Unlock()
	}
}
