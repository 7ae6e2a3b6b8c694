package remediation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mind-engage/mindengage-remedial/internal/synth"
)

type RedisCache struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(rdb *goredis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: "remedial:", ttl: ttl}
}

// Signature is order- and duplicate-insensitive.
func Signature(tags []string) string {
	set := make(map[string]struct{}, len(tags))
	uniq := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := set[t]; ok {
			continue
		}
		set[t] = struct{}{}
		uniq = append(uniq, t)
	}
	sort.Strings(uniq)
	sum := sha256.Sum256([]byte(strings.Join(uniq, "\x1f")))
	return hex.EncodeToString(sum[:])
}

func (c *RedisCache) key(tags []string) string { return c.prefix + Signature(tags) }

func (c *RedisCache) Get(ctx context.Context, tags []string) (synth.RemedialLesson, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(tags)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return synth.RemedialLesson{}, false, nil
	}
	if err != nil {
		return synth.RemedialLesson{}, false, err
	}
	var l synth.RemedialLesson
	if err := json.Unmarshal(raw, &l); err != nil {
		return synth.RemedialLesson{}, false, err
	}
	return l, true, nil
}

func (c *RedisCache) Set(ctx context.Context, tags []string, l synth.RemedialLesson) error {
	raw, err := json.Marshal(l)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(tags), raw, c.ttl).Err()
}

// NewRedisClient dials and pings addr.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
