package ports

import "context"

// KeyValue is the persisted device storage the stores write their serialized
// lists into. Values are opaque blobs; durability across restarts is assumed,
// transactionality across keys is not.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
