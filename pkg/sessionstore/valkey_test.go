package sessionstore_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gematik/sell-oauth/pkg/sessionstore"
	"github.com/segmentio/ksuid"
	"github.com/valkey-io/valkey-go"
)

// needs a running valkey, e.g. VALKEY_ADDR=127.0.0.1:6379
func TestValkeyStore(t *testing.T) {
	addr := os.Getenv("VALKEY_ADDR")
	if addr == "" {
		t.Skip("VALKEY_ADDR not set")
	}

	valkeyClient, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: strings.Split(addr, ","),
	})
	if err != nil {
		t.Fatalf("creating Valkey client: %v", err)
	}
	defer valkeyClient.Close()

	ctx := context.Background()
	store := sessionstore.NewValkeyStore(valkeyClient, sessionstore.ValkeyOptions{KeyPrefix: "test-session:"})
	id := ksuid.New().String()

	if _, err := store.Get(ctx, id); !errors.Is(err, sessionstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Set(ctx, id, []byte{0x00, 0xa1, 0xff}, 2*time.Second); err != nil {
		t.Fatalf("storing session: %v", err)
	}

	data, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("reading session: %v", err)
	}
	if string(data) != string([]byte{0x00, 0xa1, 0xff}) {
		t.Fatalf("unexpected data %x", data)
	}

	time.Sleep(3 * time.Second) // let the session expire

	if _, err := store.Get(ctx, id); !errors.Is(err, sessionstore.ErrNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}

	if err := store.Set(ctx, id, []byte("x"), 0); err != nil {
		t.Fatalf("storing session: %v", err)
	}
	if err := store.Destroy(ctx, id); err != nil {
		t.Fatalf("destroying session: %v", err)
	}
	if _, err := store.Get(ctx, id); !errors.Is(err, sessionstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after destroy, got %v", err)
	}
}
