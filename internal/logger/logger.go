package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

func Setup(dev bool) zerolog.Logger {
	var logger zerolog.Logger
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	return logger
}

// Invocation identifies one contract call.
type Invocation struct {
	Fn     string
	Caller string
	TxID   string
}

// InvokeFunc runs an invocation and reports the status it produced.
type InvokeFunc func(ctx context.Context, inv Invocation) (int, error)

// Invocations attaches a request scoped logger to every invocation and logs
// its outcome.
type Invocations struct {
	logger zerolog.Logger
}

func NewInvocations(logger zerolog.Logger) *Invocations {
	return &Invocations{logger: logger}
}

func (c *Invocations) Wrap(next InvokeFunc) InvokeFunc {
	return InvokeFunc(func(ctx context.Context, inv Invocation) (int, error) {
		started := time.Now()

		ctx = c.logger.With().
			Str("fn", inv.Fn).
			Str("caller", inv.Caller).
			Str("tx_id", inv.TxID).
			Logger().WithContext(ctx)

		status, err := next(ctx, inv)

		if err != nil {
			zerolog.Ctx(ctx).Error().
				Err(err).
				Int("status", status).
				Dur("duration", time.Since(started)).
				Msg("contract call")

			return status, err
		}

		zerolog.Ctx(ctx).Info().
			Int("status", status).
			Dur("duration", time.Since(started)).
			Msg("contract call")

		return status, nil
	})
}
