package cart

import (
	"context"
	"encoding/json"
	"time"

	"github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/google/uuid"
)

// KV is the slice of the key-value client the repository needs. Cart
// records live until explicitly cleared, so every write uses a zero TTL.
type KV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	GetOptional(ctx context.Context, key string) (string, bool, error)
	ValueLen(ctx context.Context, key string) (int64, error)
	Del(ctx context.Context, keys ...string) error

	CartKey() string
	CartMetadataKey() string
	CartIDKey() string
}

// Repository persists the cart, its metadata record, and the stable cart id
// in the key-value store. Malformed persisted payloads are treated as an
// empty cart, never as an error.
type Repository struct {
	kv     KV
	logger *logger.Logger
	now    func() time.Time
	newID  func() string
}

type RepositoryParams struct {
	KV     KV
	Logger *logger.Logger
	Now    func() time.Time
	NewID  func() string
}

func NewRepository(p RepositoryParams) (*Repository, error) {
	if p.KV == nil {
		return nil, errors.New(errors.CodeInternal, "cart repository requires a kv client")
	}
	if p.Logger == nil {
		return nil, errors.New(errors.CodeInternal, "cart repository requires a logger")
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.NewID == nil {
		p.NewID = uuid.NewString
	}
	return &Repository{kv: p.KV, logger: p.Logger, now: p.Now, newID: p.NewID}, nil
}

// Load reads the persisted cart. A missing key yields an empty cart; a
// payload that fails to decode is logged and discarded so one bad write
// cannot wedge the cart forever.
func (r *Repository) Load(ctx context.Context) ([]LineItem, error) {
	raw, ok, err := r.kv.GetOptional(ctx, r.kv.CartKey())
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorage, err, "failed to load cart")
	}
	if !ok || raw == "" {
		return []LineItem{}, nil
	}
	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		r.logger.Warn(r.logger.WithField(ctx, "error", err.Error()), "discarding malformed persisted cart")
		return []LineItem{}, nil
	}
	if items == nil {
		items = []LineItem{}
	}
	return items, nil
}

// CartID returns the stable cart identifier, generating and persisting one
// on first use. The id survives Clear and is only removed by Wipe.
func (r *Repository) CartID(ctx context.Context) (string, error) {
	raw, ok, err := r.kv.GetOptional(ctx, r.kv.CartIDKey())
	if err != nil {
		return "", errors.Wrap(errors.CodeStorage, err, "failed to load cart id")
	}
	if ok && raw != "" {
		return raw, nil
	}
	id := r.newID()
	if err := r.kv.Set(ctx, r.kv.CartIDKey(), id, 0); err != nil {
		return "", errors.Wrap(errors.CodeStorage, err, "failed to persist cart id")
	}
	return id, nil
}

// Save writes the cart payload and a freshly computed metadata record.
func (r *Repository) Save(ctx context.Context, cartID string, items []LineItem) error {
	if items == nil {
		items = []LineItem{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "failed to encode cart")
	}
	if err := r.kv.Set(ctx, r.kv.CartKey(), string(payload), 0); err != nil {
		return errors.Wrap(errors.CodeStorage, err, "failed to persist cart")
	}

	count := 0
	for _, it := range items {
		count += it.Quantity
	}
	meta, err := json.Marshal(Metadata{
		ItemCount:   count,
		LastUpdated: r.now().UTC(),
		CartID:      cartID,
	})
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "failed to encode cart metadata")
	}
	if err := r.kv.Set(ctx, r.kv.CartMetadataKey(), string(meta), 0); err != nil {
		return errors.Wrap(errors.CodeStorage, err, "failed to persist cart metadata")
	}
	return nil
}

// Clear removes the cart and its metadata but keeps the cart id.
func (r *Repository) Clear(ctx context.Context) error {
	if err := r.kv.Del(ctx, r.kv.CartKey(), r.kv.CartMetadataKey()); err != nil {
		return errors.Wrap(errors.CodeStorage, err, "failed to clear cart")
	}
	return nil
}

// Wipe removes every cart record including the stable id.
func (r *Repository) Wipe(ctx context.Context) error {
	if err := r.kv.Del(ctx, r.kv.CartKey(), r.kv.CartMetadataKey(), r.kv.CartIDKey()); err != nil {
		return errors.Wrap(errors.CodeStorage, err, "failed to wipe cart storage")
	}
	return nil
}

// Metadata reads the persisted metadata record, if any.
func (r *Repository) Metadata(ctx context.Context) (*Metadata, error) {
	raw, ok, err := r.kv.GetOptional(ctx, r.kv.CartMetadataKey())
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorage, err, "failed to load cart metadata")
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var meta Metadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		r.logger.Warn(r.logger.WithField(ctx, "error", err.Error()), "discarding malformed cart metadata")
		return nil, nil
	}
	return &meta, nil
}

// Export captures the persisted cart and metadata for diagnostics or
// migration.
func (r *Repository) Export(ctx context.Context) (*Export, error) {
	items, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	meta, err := r.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	return &Export{Items: items, Metadata: meta, ExportedAt: r.now().UTC()}, nil
}

// Import replaces the persisted cart with a previously exported snapshot.
func (r *Repository) Import(ctx context.Context, snapshot *Export) ([]LineItem, error) {
	if snapshot == nil {
		return nil, errors.New(errors.CodeValidation, "import snapshot is required")
	}
	cartID, err := r.CartID(ctx)
	if err != nil {
		return nil, err
	}
	items := snapshot.Items
	if items == nil {
		items = []LineItem{}
	}
	if err := r.Save(ctx, cartID, items); err != nil {
		return nil, err
	}
	return items, nil
}

// StorageSize reports the combined byte length of the persisted cart and
// metadata payloads.
func (r *Repository) StorageSize(ctx context.Context) (int64, error) {
	items, err := r.kv.ValueLen(ctx, r.kv.CartKey())
	if err != nil {
		return 0, errors.Wrap(errors.CodeStorage, err, "failed to measure cart storage")
	}
	meta, err := r.kv.ValueLen(ctx, r.kv.CartMetadataKey())
	if err != nil {
		return 0, errors.Wrap(errors.CodeStorage, err, "failed to measure cart metadata storage")
	}
	return items + meta, nil
}
