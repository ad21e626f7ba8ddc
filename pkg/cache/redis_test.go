package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNewClientUnreachable(t *testing.T) {
	_, err := NewClient(context.Background(), Config{Host: "127.0.0.1", Port: 1, ReadTimeout: 1, WriteTimeout: 1})
	if err == nil || !strings.Contains(err.Error(), "failed to connect to Redis") {
		t.Fatalf("err = %v", err)
	}
}

func TestRedisCacheDegradesOnErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: time.Second})
	defer client.Close()

	c := New(client, Config{Prefix: "riskengine:result:"})
	if c.ttl != 10*time.Minute {
		t.Errorf("default ttl = %v", c.ttl)
	}
	if got := c.key("option:ab12"); got != "riskengine:result:option:ab12" {
		t.Errorf("key = %q", got)
	}

	var dest map[string]float64
	hit, err := c.Get(context.Background(), "option:ab12", &dest)
	if hit || err == nil {
		t.Errorf("Get on unreachable redis = %v, %v", hit, err)
	}

	if err := c.Set(context.Background(), "bad", func() {}); err == nil || !strings.Contains(err.Error(), "encode") {
		t.Errorf("Set with unencodable value = %v", err)
	}
}
