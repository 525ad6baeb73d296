package llm

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ResilientCompleter retries transient failures with exponential backoff
// and stops calling the model while the circuit breaker is open.
type ResilientCompleter struct {
	next       Completer
	breaker    *gobreaker.CircuitBreaker
	timeout    time.Duration
	maxRetries uint64
	logger     *zap.Logger
}

// NewResilientCompleter wraps next. timeout bounds every attempt.
func NewResilientCompleter(name string, next Completer, timeout time.Duration, maxRetries uint64, logger *zap.Logger) *ResilientCompleter {
	if logger == nil {
		logger = zap.NewNop()
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("llm circuit breaker state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &ResilientCompleter{
		next:       next,
		breaker:    breaker,
		timeout:    timeout,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Complete implements Completer
func (r *ResilientCompleter) Complete(ctx context.Context, messages []Message, opts CallOptions) (string, error) {
	var reply string
	attempt := 0

	op := func() error {
		attempt++
		out, err := r.breaker.Execute(func() (interface{}, error) {
			callCtx := ctx
			if r.timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, r.timeout)
				defer cancel()
			}
			return r.next.Complete(callCtx, messages, opts)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) ||
				errors.Is(err, ErrEmptyResponse) || clientError(err) || ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			r.logger.Debug("llm call failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		reply = out.(string)
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 200 * time.Millisecond
	expo.MaxInterval = 2 * time.Second
	bo := backoff.WithContext(backoff.WithMaxRetries(expo, r.maxRetries), ctx)

	if err := backoff.Retry(op, bo); err != nil {
		return "", err
	}
	return reply, nil
}

// openai compatible clients only report the status inside the message
var statusCode = regexp.MustCompile(`status code:? (\d{3})`)

// clientError reports 4xx failures such as a rejected key or a malformed
// request. Timeouts and rate limits stay retryable.
func clientError(err error) bool {
	code := 0
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		code = respErr.StatusCode
	} else if m := statusCode.FindStringSubmatch(err.Error()); m != nil {
		code, _ = strconv.Atoi(m[1])
	}
	return code >= 400 && code < 500 &&
		code != http.StatusRequestTimeout && code != http.StatusTooManyRequests
}
