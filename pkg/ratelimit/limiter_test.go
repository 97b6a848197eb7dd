/*
Copyright 2026 The Driftcore Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/driftsentry/driftcore/pkg/ratelimit"
)

func TestRatelimit(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ratelimit Suite")
}

var _ = Describe("Limiter", func() {
	var (
		ctx         context.Context
		redisServer *miniredis.Miniredis
		redisClient *redis.Client
		limiter     *ratelimit.Limiter
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		redisServer, err = miniredis.Run()
		Expect(err).ToNot(HaveOccurred())

		redisClient = redis.NewClient(&redis.Options{Addr: redisServer.Addr()})
		limiter = ratelimit.New(redisClient, logr.Discard())
	})

	AfterEach(func() {
		_ = redisClient.Close()
		redisServer.Close()
	})

	It("allows requests under the cap", func() {
		for i := 0; i < 5; i++ {
			allowed, err := limiter.Allow(ctx, "ws-1", time.Hour, 10)
			Expect(err).ToNot(HaveOccurred())
			Expect(allowed).To(BeTrue())
		}
	})

	It("denies once the cap is exceeded", func() {
		for i := 0; i < 10; i++ {
			_, err := limiter.Allow(ctx, "ws-1", time.Hour, 10)
			Expect(err).ToNot(HaveOccurred())
		}
		allowed, err := limiter.Allow(ctx, "ws-1", time.Hour, 10)
		Expect(err).ToNot(HaveOccurred())
		Expect(allowed).To(BeFalse())
	})

	It("tracks workspaces independently", func() {
		for i := 0; i < 10; i++ {
			_, _ = limiter.Allow(ctx, "ws-1", time.Hour, 10)
		}
		allowed, err := limiter.Allow(ctx, "ws-2", time.Hour, 10)
		Expect(err).ToNot(HaveOccurred())
		Expect(allowed).To(BeTrue())
	})

	It("resets the counter once the window TTL expires", func() {
		for i := 0; i < 10; i++ {
			_, _ = limiter.Allow(ctx, "ws-1", time.Second, 10)
		}
		redisServer.FastForward(2 * time.Second)

		allowed, err := limiter.Allow(ctx, "ws-1", time.Second, 10)
		Expect(err).ToNot(HaveOccurred())
		Expect(allowed).To(BeTrue())
	})
})
