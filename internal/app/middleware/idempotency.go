package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"staybook/internal/app/commands"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainrange "staybook/internal/domain/shared/daterange"
)

// IdempotentCommand must be implemented by commands that want idempotency guarantees.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any // should match the handler result type
}

type IdempotencyRecord struct {
	Key     string
	Payload []byte
	Error   string
	// ErrorKind tags a stored failure with its sentinel so a replay keeps
	// its errors.Is identity instead of flattening to an opaque error.
	ErrorKind  string
	OccurredAt time.Time
}

// replaySentinels maps stored failure tags back to the domain sentinels the
// HTTP layer switches on.
var replaySentinels = map[string]error{
	"booking_not_found":    domainbooking.ErrNotFound,
	"invalid_transition":   domainbooking.ErrInvalidTransition,
	"dates_unavailable":    domainbooking.ErrDatesUnavailable,
	"check_in_past":        domainbooking.ErrCheckInInPast,
	"invalid_guests":       domainbooking.ErrInvalidGuests,
	"guests_exceed_limit":  domainbooking.ErrGuestsExceedLimit,
	"stay_too_short":       domainbooking.ErrStayTooShort,
	"stay_too_long":        domainbooking.ErrStayTooLong,
	"unknown_state":        domainbooking.ErrUnknownState,
	"listing_not_found":    domainlistings.ErrNotFound,
	"listing_not_bookable": domainlistings.ErrNotBookable,
	"invalid_range":        domainrange.ErrInvalidRange,
}

func errorKind(err error) string {
	for tag, sentinel := range replaySentinels {
		if errors.Is(err, sentinel) {
			return tag
		}
	}
	return ""
}

func replayError(rec IdempotencyRecord) error {
	if sentinel, ok := replaySentinels[rec.ErrorKind]; ok {
		return sentinel
	}
	return errors.New(rec.Error)
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var (
	errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")
)

func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok {
				return nextFn(ctx, cmd)
			}
			key := idCmd.IdempotencyKey()
			if key == "" {
				return nextFn(ctx, cmd)
			}
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found {
				if rec.Error != "" {
					return nil, replayError(rec)
				}
				proto := idCmd.ResultPrototype()
				if proto == nil {
					return nil, errMissingPrototype
				}
				if err := codec.Decode(rec.Payload, proto); err != nil {
					return nil, err
				}
				return normalizePrototype(proto), nil
			}
			result, err := nextFn(ctx, cmd)
			record := IdempotencyRecord{
				Key:        key,
				OccurredAt: time.Now().UTC(),
			}
			if err != nil {
				record.Error = err.Error()
				record.ErrorKind = errorKind(err)
				if saveErr := store.Save(ctx, record); saveErr != nil {
					return nil, errors.Join(err, saveErr)
				}
				return nil, err
			}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					return nil, encErr
				}
				record.Payload = payload
			}
			if saveErr := store.Save(ctx, record); saveErr != nil {
				return nil, saveErr
			}
			return result, nil
		})
	}
}

func normalizePrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface()
	}
	return proto
}
