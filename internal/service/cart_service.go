package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront/internal/domain"
	"github.com/spec-kit/storefront/internal/repository"
)

const cartKeyPrefix = "cart:"

// ErrInvalidCartItem is returned for non-positive product ids or quantities.
var ErrInvalidCartItem = errors.New("product_id and quantity must be positive")

// CartReader loads carts by id.
type CartReader interface {
	GetCart(ctx context.Context, id int64) (*domain.Cart, error)
}

// CartReaderFunc adapts a function to CartReader.
type CartReaderFunc func(ctx context.Context, id int64) (*domain.Cart, error)

// GetCart implements CartReader.
func (f CartReaderFunc) GetCart(ctx context.Context, id int64) (*domain.Cart, error) {
	return f(ctx, id)
}

// CachedCartReader serves carts from redis and falls back to the store on a
// miss or when redis is unavailable.
type CachedCartReader struct {
	client *redis.Client
	store  CartReader
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedCartReader wraps store with a redis read-through cache.
func NewCachedCartReader(client *redis.Client, store CartReader, ttl time.Duration, logger *zap.Logger) *CachedCartReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedCartReader{client: client, store: store, ttl: ttl, logger: logger}
}

// GetCart implements CartReader.
func (r *CachedCartReader) GetCart(ctx context.Context, id int64) (*domain.Cart, error) {
	key := cartKey(id)

	payload, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cart domain.Cart
		if jsonErr := json.Unmarshal(payload, &cart); jsonErr == nil {
			return &cart, nil
		}
		r.logger.Warn("discarding undecodable cart cache entry", zap.Int64("cart_id", id))
	case errors.Is(err, redis.Nil):
	default:
		r.logger.Warn("cart cache unavailable, reading store", zap.Int64("cart_id", id), zap.Error(err))
		return r.store.GetCart(ctx, id)
	}

	cart, err := r.store.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(cart); err == nil {
		if err := r.client.Set(ctx, key, encoded, r.ttl).Err(); err != nil {
			r.logger.Warn("cart cache fill failed", zap.Int64("cart_id", id), zap.Error(err))
		}
	}
	return cart, nil
}

// Invalidate drops the cached copy of a cart.
func (r *CachedCartReader) Invalidate(ctx context.Context, id int64) {
	if err := r.client.Del(ctx, cartKey(id)).Err(); err != nil {
		r.logger.Warn("cart cache invalidation failed", zap.Int64("cart_id", id), zap.Error(err))
	}
}

func cartKey(id int64) string {
	return cartKeyPrefix + strconv.FormatInt(id, 10)
}

// CartService exposes cart reads and item updates.
type CartService struct {
	repo   repository.CartRepository
	reader CartReader
	cache  *CachedCartReader
}

// NewCartService builds the service. cache may be nil, in which case reads go
// straight to the store.
func NewCartService(repo repository.CartRepository, cache *CachedCartReader) *CartService {
	svc := &CartService{repo: repo, cache: cache}
	svc.reader = StoreReader(repo)
	if cache != nil {
		svc.reader = cache
	}
	return svc
}

// StoreReader returns the uncached read path, used as the cache's fallback.
func StoreReader(repo repository.CartRepository) CartReader {
	return CartReaderFunc(repo.GetByID)
}

// Get loads a cart.
func (s *CartService) Get(ctx context.Context, id int64) (*domain.Cart, error) {
	return s.reader.GetCart(ctx, id)
}

// AddItem adds a product line and invalidates the cached cart.
func (s *CartService) AddItem(ctx context.Context, cartID int64, item domain.CartItem) (*domain.Cart, error) {
	if item.ProductID <= 0 || item.Quantity <= 0 {
		return nil, ErrInvalidCartItem
	}
	if err := s.repo.AddItem(ctx, cartID, item); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, cartID)
	}
	return s.reader.GetCart(ctx, cartID)
}
