package house

import (
	"context"
	"net/http"
	"time"

	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/model"
	resp "github.com/Romulus-Sol/agent-casino-sub001/internal/lib/api/response"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/lib/logger/sl"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/patrickmn/go-cache"
	"golang.org/x/exp/slog"
)

const statsCacheKey = "house_stats"

type Response struct {
	resp.Response
	Stats *model.HouseStats `json:"stats"`
}

type StatsReader interface {
	HouseStats(ctx context.Context) (*model.HouseStats, error)
}

// Stats serves the public house account snapshot. Reads hit the chain at
// most once per cache window; the stats move slowly enough that a short
// stale read is fine.
type Stats struct {
	log    *slog.Logger
	reader StatsReader
	cache  *cache.Cache
}

func NewStats(log *slog.Logger, reader StatsReader) *Stats {
	return &Stats{
		log:    log,
		reader: reader,
		cache:  cache.New(10*time.Second, time.Minute),
	}
}

func (s *Stats) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.house.stats.New"

		log := s.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if cached, found := s.cache.Get(statsCacheKey); found {
			render.JSON(w, r, Response{
				Response: resp.OK(),
				Stats:    cached.(*model.HouseStats),
			})

			return
		}

		stats, err := s.reader.HouseStats(r.Context())
		if err != nil {
			log.Error("failed to read house stats", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("failed to read house stats", resp.CodeInternal, http.StatusInternalServerError))

			return
		}

		s.cache.Set(statsCacheKey, stats, cache.DefaultExpiration)

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Stats:    stats,
		})
	}
}
