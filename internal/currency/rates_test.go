package currency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.StatusCmd)
}

type MockRateStorer struct {
	mock.Mock
}

func (m *MockRateStorer) ListCurrencyRates(ctx context.Context) (map[string]float64, error) {
	args := m.Called(ctx)
	var rates map[string]float64
	if arg0 := args.Get(0); arg0 != nil {
		rates = arg0.(map[string]float64)
	}
	return rates, args.Error(1)
}

func TestStoreRates_FallsBackWhenTableEmpty(t *testing.T) {
	rs := new(MockRateStorer)
	rs.On("ListCurrencyRates", mock.Anything).Return(map[string]float64{}, nil).Once()

	rates, err := NewStoreRates(rs, StaticRates{"usd": 1, "etb": 100}).Rates(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"USD": 1, "ETB": 100}, rates)
	rs.AssertExpectations(t)
}

func TestStoreRates_PropagatesErrors(t *testing.T) {
	rs := new(MockRateStorer)
	rs.On("ListCurrencyRates", mock.Anything).Return(nil, errors.New("db down")).Once()

	_, err := NewStoreRates(rs, DefaultRates()).Rates(context.Background())

	require.Error(t, err)
}

func TestCachedRates_Hit(t *testing.T) {
	client := new(MockRedisClient)
	client.On("Get", mock.Anything, ratesCacheKey).
		Return(redis.NewStringResult(`{"USD":1,"KES":128}`, nil)).Once()

	rates, err := NewCachedRates(client, failingRates{}, time.Minute).Rates(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"USD": 1, "KES": 128}, rates)
	client.AssertExpectations(t)
}

func TestCachedRates_MissLoadsAndStores(t *testing.T) {
	client := new(MockRedisClient)
	client.On("Get", mock.Anything, ratesCacheKey).Return(redis.NewStringResult("", redis.Nil)).Once()
	client.On("Set", mock.Anything, ratesCacheKey, []byte(`{"ETB":155,"USD":1}`), 10*time.Minute).
		Return(redis.NewStatusResult("OK", nil)).Once()

	rates, err := NewCachedRates(client, StaticRates{"USD": 1, "ETB": 155}, 10*time.Minute).Rates(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 155.0, rates["ETB"])
	client.AssertExpectations(t)
}

func TestCachedRates_RedisFailureFallsThrough(t *testing.T) {
	client := new(MockRedisClient)
	client.On("Get", mock.Anything, ratesCacheKey).Return(redis.NewStringResult("", errors.New("i/o timeout"))).Once()
	client.On("Set", mock.Anything, ratesCacheKey, mock.Anything, time.Minute).
		Return(redis.NewStatusResult("", errors.New("i/o timeout"))).Once()

	rates, err := NewCachedRates(client, StaticRates{"USD": 1}, time.Minute).Rates(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"USD": 1}, rates)
	client.AssertExpectations(t)
}

func TestCachedRates_SourceErrorIsReturned(t *testing.T) {
	client := new(MockRedisClient)
	client.On("Get", mock.Anything, ratesCacheKey).Return(redis.NewStringResult("", redis.Nil)).Once()

	_, err := NewCachedRates(client, failingRates{}, time.Minute).Rates(context.Background())

	require.Error(t, err)
	client.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
