package trading

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neonstocks/portfolio-service/internal/models"
)

func TestProcessorExecutesTrades(t *testing.T) {
	env := newTestEnv(t, &stubOracle{})
	processor := NewProcessor(env.engine, 3, zerolog.Nop())
	processor.Start()
	defer processor.Stop()

	ctx := context.Background()

	result, err := processor.SubmitDeposit(ctx, env.account, decimal.NewFromInt(1000))
	require.NoError(t, err)
	assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(1000)))

	buy, err := processor.SubmitBuy(ctx, models.BuyRequest{
		AccountID: env.account,
		Symbol:    "AAPL",
		Quantity:  2,
		Source:    models.SourceFixed,
	})
	require.NoError(t, err)
	assert.True(t, buy.NewBalance.Equal(decimal.NewFromInt(640)))

	sell, err := processor.SubmitSell(ctx, models.SellRequest{
		AccountID: env.account,
		Symbol:    "AAPL",
		Quantity:  2,
	})
	require.NoError(t, err)
	assert.True(t, sell.NewBalance.Equal(decimal.NewFromInt(1000)))
}

func TestProcessorPropagatesErrors(t *testing.T) {
	env := newTestEnv(t, &stubOracle{})
	processor := NewProcessor(env.engine, 2, zerolog.Nop())
	processor.Start()
	defer processor.Stop()

	_, err := processor.SubmitBuy(context.Background(), models.BuyRequest{
		AccountID: env.account,
		Symbol:    "AAPL",
		Quantity:  1,
		Source:    models.SourceFixed,
	})
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
}

func TestStopAnswersQueuedJobs(t *testing.T) {
	env := newTestEnv(t, &stubOracle{})
	// Workers never started: the job stays queued until Stop drains it.
	processor := NewProcessor(env.engine, 1, zerolog.Nop())

	done := make(chan error, 1)
	go func() {
		_, err := processor.SubmitDeposit(context.Background(), env.account, decimal.NewFromInt(1))
		done <- err
	}()

	require.Eventually(t, func() bool { return len(processor.queue) == 1 },
		time.Second, 10*time.Millisecond)

	processor.Stop()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrProcessorStopped)
	case <-time.After(time.Second):
		t.Fatal("submitter still blocked after Stop")
	}

	// Submissions after Stop are refused outright.
	_, err := processor.SubmitDeposit(context.Background(), env.account, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrProcessorStopped)
}

func TestProcessorHandlesBurst(t *testing.T) {
	env := newTestEnv(t, &stubOracle{})
	processor := NewProcessor(env.engine, 4, zerolog.Nop())
	processor.Start()
	defer processor.Stop()

	ctx := context.Background()
	const n = 30

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := processor.SubmitDeposit(ctx, env.account, decimal.NewFromInt(1))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	balance, err := env.accounts.GetBalance(ctx, env.account)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(n)))
}
