package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/community-portal/internal/http/response"
)

// ClientLimiters хранит отдельный токен-бакет для каждого клиента.
//
// Лимитер клиента, от которого не было запросов дольше idle, удаляется при
// очередном обращении, так что таблица не растёт без предела.
type ClientLimiters struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	idle      time.Duration
	now       func() time.Time
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

type clientLimiter struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewClientLimiters создаёт таблицу лимитеров с бюджетом rps/burst на клиента.
func NewClientLimiters(rps rate.Limit, burst int, idle time.Duration) *ClientLimiters {
	return &ClientLimiters{
		rps:     rps,
		burst:   burst,
		idle:    idle,
		now:     time.Now,
		clients: make(map[string]*clientLimiter),
	}
}

// Allow расходует один токен из бюджета клиента key.
func (c *ClientLimiters) Allow(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.idle > 0 && now.Sub(c.lastSweep) >= c.idle {
		for k, cl := range c.clients {
			if now.Sub(cl.seen) >= c.idle {
				delete(c.clients, k)
			}
		}
		c.lastSweep = now
	}

	cl, ok := c.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(c.rps, c.burst)}
		c.clients[key] = cl
	}
	cl.seen = now
	return cl.limiter.AllowN(now, 1)
}

// Len возвращает число клиентов, для которых сейчас хранится лимитер.
func (c *ClientLimiters) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}

// clientKey — адрес клиента без порта. RemoteAddr к этому моменту уже
// переписан middleware.RealIP, если запрос пришёл через прокси.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware ограничивает частоту запросов каждого IP отдельно.
// Каждый вызов с новой таблицей даёт независимый бюджет, поэтому вход
// каждого семейства ограничивается отдельно.
func RateLimitMiddleware(log *slog.Logger, limiters *ClientLimiters) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientKey(r)
			if !limiters.Allow(client) {
				log.Warn("too many requests",
					slog.String("path", r.URL.Path),
					slog.String("client", client),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
