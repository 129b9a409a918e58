package store

import (
	"context"
	"encoding/json"

	"github.com/wolfeidau/partchain/internal/fault"
)

// GetPublicJSON decodes the public value at key into v. It reports false when
// the key is empty.
func GetPublicJSON(ctx context.Context, s PublicStore, key string, v any) (bool, error) {
	b, err := s.GetPublic(ctx, key)
	if err != nil {
		return false, fault.Internal(err, "failed to read public key %q", key)
	}
	return decode(b, key, v)
}

// PutPublicJSON encodes v and writes it to the public key.
func PutPublicJSON(ctx context.Context, s PublicStore, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fault.Internal(err, "failed to encode public key %q", key)
	}
	if err := s.PutPublic(ctx, key, b); err != nil {
		return fault.Internal(err, "failed to write public key %q", key)
	}
	return nil
}

// GetPrivateJSON decodes the value at key in partition into v. It reports
// false when the key is empty.
func GetPrivateJSON(ctx context.Context, s PrivateStore, partition, key string, v any) (bool, error) {
	b, err := s.GetPrivate(ctx, partition, key)
	if err != nil {
		return false, fault.Internal(err, "failed to read private key in %s", partition)
	}
	return decode(b, key, v)
}

// PutPrivateJSON encodes v and writes it to key in partition.
func PutPrivateJSON(ctx context.Context, s PrivateStore, partition, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fault.Internal(err, "failed to encode private value for %s", partition)
	}
	if err := s.PutPrivate(ctx, partition, key, b); err != nil {
		return fault.Internal(err, "failed to write private key in %s", partition)
	}
	return nil
}

// EmitJSON encodes v as the payload of the named event.
func EmitJSON(ctx context.Context, e EventEmitter, name string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fault.Internal(err, "failed to encode event %s", name)
	}
	if err := e.EmitEvent(ctx, name, b); err != nil {
		return fault.Internal(err, "failed to emit event %s", name)
	}
	return nil
}

func decode(b []byte, key string, v any) (bool, error) {
	if len(b) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fault.Internal(err, "failed to decode value at %q", key)
	}
	return true, nil
}
