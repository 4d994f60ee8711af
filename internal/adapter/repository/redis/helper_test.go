package redis

import (
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
)

// newTestRedisClient starts an in-process server for the cache, idempotency
// and stream tests. Both are torn down with the test.
func newTestRedisClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{
		Addr:     srv.Addr(),
		PoolSize: 4,
	})
	t.Cleanup(func() { _ = client.Close() })

	return client, srv
}

// ledgerKeys lists the keys the server holds under the ledger's key prefix.
func ledgerKeys(srv *miniredis.Miniredis, prefix string) []string {
	var keys []string
	for _, k := range srv.Keys() {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys
}
