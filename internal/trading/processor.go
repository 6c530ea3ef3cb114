package trading

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/neonstocks/portfolio-service/internal/models"
)

// ErrProcessorStopped is returned for trades that were still queued, or
// submitted, after Stop.
var ErrProcessorStopped = errors.New("trade processor stopped")

type jobResult struct {
	result *TradeResult
	err    error
}

type job struct {
	execute  func() (*TradeResult, error)
	resultCh chan jobResult
}

// Processor runs trades through a bounded worker pool so a burst of
// requests cannot spawn unbounded concurrent executions. Callers block
// until their trade has been processed.
type Processor struct {
	workers int
	queue   chan job
	stopCh  chan struct{}
	wg      sync.WaitGroup
	engine  *Engine
	log     zerolog.Logger
}

func NewProcessor(engine *Engine, workers int, log zerolog.Logger) *Processor {
	if workers <= 0 {
		workers = 5
	}
	return &Processor{
		workers: workers,
		queue:   make(chan job, 100),
		stopCh:  make(chan struct{}),
		engine:  engine,
		log:     log.With().Str("component", "processor").Logger(),
	}
}

// Start launches the worker pool.
func (p *Processor) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.log.Info().Int("workers", p.workers).Msg("Trade workers started")
}

// Stop shuts the workers down and answers anything still queued, so no
// submitter is left blocked on its result channel.
func (p *Processor) Stop() {
	close(p.stopCh)
	p.wg.Wait()

	for {
		select {
		case j := <-p.queue:
			j.resultCh <- jobResult{err: ErrProcessorStopped}
		default:
			p.log.Info().Msg("Trade processor stopped")
			return
		}
	}
}

func (p *Processor) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			p.log.Debug().Int("worker", id).Msg("Worker stopping")
			return
		case j := <-p.queue:
			result, err := j.execute()
			j.resultCh <- jobResult{result: result, err: err}
		}
	}
}

func (p *Processor) submit(execute func() (*TradeResult, error)) (*TradeResult, error) {
	select {
	case <-p.stopCh:
		return nil, ErrProcessorStopped
	default:
	}

	resultCh := make(chan jobResult, 1)
	p.queue <- job{execute: execute, resultCh: resultCh}
	r := <-resultCh
	return r.result, r.err
}

// SubmitDeposit queues a deposit and waits for the result.
func (p *Processor) SubmitDeposit(ctx context.Context, accountID string, amount decimal.Decimal) (*TradeResult, error) {
	return p.submit(func() (*TradeResult, error) {
		return p.engine.Deposit(ctx, accountID, amount)
	})
}

// SubmitBuy queues a buy and waits for the result.
func (p *Processor) SubmitBuy(ctx context.Context, req models.BuyRequest) (*TradeResult, error) {
	return p.submit(func() (*TradeResult, error) {
		return p.engine.Buy(ctx, req.AccountID, req.Symbol, req.Quantity, req.Source)
	})
}

// SubmitSell queues a sell and waits for the result.
func (p *Processor) SubmitSell(ctx context.Context, req models.SellRequest) (*TradeResult, error) {
	return p.submit(func() (*TradeResult, error) {
		return p.engine.Sell(ctx, req.AccountID, req.Symbol, req.Quantity)
	})
}
