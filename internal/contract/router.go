// Package contract exposes the PartChain operations by name. A Router decodes
// the payload of a call, runs the operation against a ledger view and turns
// the outcome into a tagged Response.
package contract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/partchain/internal/fault"
	"github.com/wolfeidau/partchain/internal/logger"
	"github.com/wolfeidau/partchain/internal/store"
	"github.com/wolfeidau/partchain/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/wolfeidau/partchain/internal/contract"

// TransientKey is the transient map entry carrying the payload of operations
// whose input must not be persisted in the transaction proposal.
const TransientKey = "privatePayload"

var errRollback = errors.New("operation failed, writes discarded")

// Response is the tagged result of an operation.
type Response struct {
	Status int        `json:"status"`
	Kind   fault.Kind `json:"kind"`
	Data   any        `json:"data,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// OK reports whether the operation succeeded.
func (r Response) OK() bool {
	return r.Status == http.StatusOK
}

func success(data any) Response {
	return Response{Status: http.StatusOK, Kind: fault.KindOK, Data: data}
}

func failure(err error) Response {
	return Response{Status: fault.Status(err), Kind: fault.KindOf(err), Error: err.Error()}
}

type handler func(ctx context.Context, l store.Ledger, tx store.Tx, payload []byte) (any, error)

type op struct {
	transient bool
	run       handler
}

// bind decodes the payload into In before calling fn.
func bind[In any](transient bool, fn func(ctx context.Context, l store.Ledger, tx store.Tx, in In) (any, error)) op {
	return op{
		transient: transient,
		run: func(ctx context.Context, l store.Ledger, tx store.Tx, payload []byte) (any, error) {
			in, err := decode[In](payload)
			if err != nil {
				return nil, err
			}
			return fn(ctx, l, tx, in)
		},
	}
}

func decode[In any](payload []byte) (In, error) {
	var in In

	if len(bytes.TrimSpace(payload)) == 0 {
		payload = []byte("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return in, fault.Validation("malformed payload: %s", err)
	}

	return in, nil
}

// Router dispatches named operations.
type Router struct {
	ops         map[string]op
	invocations *logger.Invocations
	tracer      trace.Tracer
}

// NewRouter builds a router logging every call to lg.
func NewRouter(lg zerolog.Logger) *Router {
	return &Router{
		ops:         operations(),
		invocations: logger.NewInvocations(lg),
		tracer:      otel.Tracer(tracerName),
	}
}

// Functions returns the names of every operation, sorted.
func (r *Router) Functions() []string {
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Transient reports whether fn reads its payload from the transient map.
func (r *Router) Transient(fn string) bool {
	return r.ops[fn].transient
}

// Dispatch runs fn against l. Operations flagged transient read their payload
// from tx.Transient[TransientKey] and ignore args.
func (r *Router) Dispatch(ctx context.Context, l store.Ledger, tx store.Tx, fn string, args []byte) Response {
	var resp Response

	call := r.invocations.Wrap(func(ctx context.Context, inv logger.Invocation) (int, error) {
		data, err := r.run(ctx, l, tx, fn, args)
		if err != nil {
			resp = failure(err)
			return resp.Status, err
		}
		resp = success(data)
		return resp.Status, nil
	})

	ctx, span := r.tracer.Start(ctx, fn, trace.WithAttributes(
		attribute.String("partchain.caller", tx.Caller),
		attribute.String("partchain.tx_id", tx.ID),
	))
	defer span.End()

	started := time.Now()

	_, err := call(ctx, logger.Invocation{Fn: fn, Caller: tx.Caller, TxID: tx.ID})

	attrs := metric.WithAttributes(
		attribute.String("fn", fn),
		attribute.String("kind", string(resp.Kind)),
	)
	m := telemetry.GetMetrics()
	m.InvocationsTotal.Add(ctx, 1, attrs)
	m.InvocationDuration.Record(ctx, float64(time.Since(started).Microseconds())/1000, attrs)

	span.SetAttributes(attribute.Int("partchain.status", resp.Status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(resp.Kind))
	}

	return resp
}

func (r *Router) run(ctx context.Context, l store.Ledger, tx store.Tx, fn string, args []byte) (any, error) {
	o, ok := r.ops[fn]
	if !ok {
		return nil, fault.Validation("unknown function %q", fn)
	}

	payload := args
	if o.transient {
		p, ok := tx.Transient[TransientKey]
		if !ok {
			return nil, fault.Validation("transient map is missing %s", TransientKey)
		}
		payload = p
	}

	return o.run(ctx, l, tx, payload)
}

// Invoke runs fn in its own transaction on t. A failed operation discards its
// writes. The events committed by a successful call are returned with it.
func (r *Router) Invoke(ctx context.Context, t store.Transactor, tx store.Tx, fn string, args []byte) (Response, []store.Event) {
	var resp Response

	err := t.Transact(ctx, tx, func(ctx context.Context, l store.Ledger) error {
		resp = r.Dispatch(ctx, l, tx, fn, args)
		if !resp.OK() {
			return errRollback
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, errRollback) {
			resp = failure(fault.Internal(err, "failed to commit %s", fn))
		}
		return resp, nil
	}

	events, err := t.TxEvents(ctx, tx.ID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("tx_id", tx.ID).Msg("Failed to read committed events")
		return resp, nil
	}

	telemetry.GetMetrics().EventsEmittedTotal.Add(ctx, int64(len(events)), metric.WithAttributes(attribute.String("fn", fn)))

	return resp, events
}

// serialInput names an asset by its customer serial.
type serialInput struct {
	SerialNumberCustomer string `json:"serialNumberCustomer"`
}

// keyInput names an asset by the owner scoped key carried in an event.
type keyInput struct {
	Key string `json:"key"`
}

type emptyInput struct{}
