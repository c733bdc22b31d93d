// SPDX-License-Identifier: Apache-2.0

package backoff

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type Backoff interface {
	RetryNotify(Operation, Notify) error
}

type (
	Operation func() error
	Notify    func(error, time.Duration)
)

// Config configures an exponential backoff. A nil config disables retries.
type Config struct {
	InitialInterval time.Duration
	MaxElapsedTime  time.Duration
	MaxRetries      uint
}

type Provider func(ctx context.Context) Backoff

// ErrPermanent can be wrapped by an operation error to stop retrying.
var ErrPermanent = errors.New("permanent error, do not retry")

type retrier struct {
	backoff.BackOff
}

func NewProvider(cfg *Config) Provider {
	return func(ctx context.Context) Backoff {
		return New(ctx, cfg)
	}
}

func New(ctx context.Context, cfg *Config) Backoff {
	if cfg == nil {
		return &retrier{BackOff: &backoff.StopBackOff{}}
	}

	exp := backoff.NewExponentialBackOff()
	if cfg.InitialInterval > 0 {
		exp.InitialInterval = cfg.InitialInterval
	}
	exp.MaxElapsedTime = cfg.MaxElapsedTime

	var bo backoff.BackOff = exp
	if cfg.MaxRetries > 0 {
		bo = backoff.WithMaxRetries(bo, uint64(cfg.MaxRetries))
	}
	return &retrier{BackOff: backoff.WithContext(bo, ctx)}
}

func (r *retrier) RetryNotify(op Operation, notify Notify) error {
	boOp := func() error {
		err := op()
		if errors.Is(err, ErrPermanent) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(boOp, r.BackOff, backoff.Notify(notify))
}
