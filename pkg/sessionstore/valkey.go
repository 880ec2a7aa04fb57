package sessionstore

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

const DefaultKeyPrefix = "session:"

type ValkeyOptions struct {
	KeyPrefix string
}

type valkeyStore struct {
	options      ValkeyOptions
	valkeyClient valkey.Client
}

// NewValkeyStore keeps sessions in valkey so that several instances can share them.
func NewValkeyStore(valkeyClient valkey.Client, options ValkeyOptions) Store {
	if options.KeyPrefix == "" {
		options.KeyPrefix = DefaultKeyPrefix
	}
	return &valkeyStore{
		options:      options,
		valkeyClient: valkeyClient,
	}
}

func (v *valkeyStore) key(id string) string {
	return v.options.KeyPrefix + id
}

func (v *valkeyStore) Get(ctx context.Context, id string) ([]byte, error) {
	cmd := v.valkeyClient.B().Get().Key(v.key(id)).Build()
	data, err := v.valkeyClient.Do(ctx, cmd).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session from valkey: %w", err)
	}
	return data, nil
}

func (v *valkeyStore) Set(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	var err error
	if ttl > 0 {
		err = v.valkeyClient.Do(ctx, v.valkeyClient.B().Set().Key(v.key(id)).Value(valkey.BinaryString(data)).Ex(ttl).Build()).Error()
	} else {
		err = v.valkeyClient.Do(ctx, v.valkeyClient.B().Set().Key(v.key(id)).Value(valkey.BinaryString(data)).Build()).Error()
	}
	if err != nil {
		return fmt.Errorf("storing session in valkey: %w", err)
	}
	return nil
}

func (v *valkeyStore) Destroy(ctx context.Context, id string) error {
	err := v.valkeyClient.Do(ctx, v.valkeyClient.B().Del().Key(v.key(id)).Build()).Error()
	if err != nil {
		return fmt.Errorf("deleting session from valkey: %w", err)
	}
	return nil
}
