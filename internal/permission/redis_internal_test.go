package permission

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	g "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = g.Describe("RedisBroadcaster after Close", func() {
	g.It("drops an invalidation whose hook was taken before Close", func() {
		mr, err := miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		g.DeferCleanup(mr.Close)

		ctx := context.Background()
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		g.DeferCleanup(client.Close)
		listener := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		g.DeferCleanup(listener.Close)

		sub := listener.Subscribe(ctx, "hms:late")
		_, err = sub.Receive(ctx)
		Expect(err).NotTo(HaveOccurred())
		g.DeferCleanup(sub.Close)

		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		b := NewRedisBroadcaster(client, "hms:late", NewCache(nil, nil, lg), lg)
		Expect(b.Close()).To(Succeed())

		b.publishAsync("DOCTOR")

		Consistently(sub.Channel(), 100*time.Millisecond).ShouldNot(Receive())
	})
})
