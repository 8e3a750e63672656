// Package docstore keeps JSON documents grouped into collections. Writes merge
// top-level fields into the stored document.
package docstore

import (
	"context"
	"encoding/json"
	"errors"

	sdkcommon "github.com/sdkcommon/sdkcommon-go"
)

var (
	// ErrNotFound is returned when a document does not exist
	ErrNotFound = errors.New("document not found")
	// ErrNotObject is returned when a value does not encode to a JSON object
	ErrNotObject = errors.New("document must encode to a JSON object")
)

// Store reads and writes documents
type Store interface {
	Set(ctx context.Context, collection, id string, v any) error
	Get(ctx context.Context, collection, id string, out any) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string) ([]string, error)
}

// Get decodes the document into a new T
func Get[T any](ctx context.Context, s Store, collection, id string) (T, error) {
	var out T
	err := s.Get(ctx, collection, id, &out)
	return out, err
}

func toFields(v any) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, ErrNotObject
	}
	return fields, nil
}

// Assembly opens a sqlite store at path and registers it as the Store
// singleton. The database is closed when the container drops it.
func Assembly(path string) sdkcommon.Assembly {
	return sdkcommon.AssemblyFunc(func(c *sdkcommon.Container) error {
		return sdkcommon.Register(c, func(ctx *sdkcommon.ResolveCtx) (Store, error) {
			s, err := Open(path)
			if err != nil {
				return nil, err
			}
			ctx.OnCleanup(s.Close)
			return s, nil
		}, sdkcommon.As(sdkcommon.Singleton))
	})
}
