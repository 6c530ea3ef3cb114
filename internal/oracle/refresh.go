package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/neonstocks/portfolio-service/internal/models"
)

// RefreshJob warms the quote cache for the reference symbols so that
// valuations and the price stream mostly hit cached quotes.
type RefreshJob struct {
	resolver *Resolver
	symbols  []string
	log      zerolog.Logger
}

func NewRefreshJob(resolver *Resolver, symbols []string, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		resolver: resolver,
		symbols:  symbols,
		log:      log.With().Str("job", "quote-refresh").Logger(),
	}
}

func (j *RefreshJob) Name() string { return "quote-refresh" }

// Run quotes every reference symbol once. Fallback-priced symbols count
// as misses; the job fails only when nothing could be refreshed live.
func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	live := 0
	for _, symbol := range j.symbols {
		_, quality, err := j.resolver.Resolve(ctx, symbol, models.SourceLive)
		if err == nil && quality == QualityLive {
			live++
		}
	}

	j.log.Debug().Int("live", live).Int("total", len(j.symbols)).Msg("Quote cache refreshed")
	if live == 0 && len(j.symbols) > 0 {
		return fmt.Errorf("no live quotes for %d symbols", len(j.symbols))
	}
	return nil
}
