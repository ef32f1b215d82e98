//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RoutePromotedEvent struct {
	RouteID      string    `json:"route_id"`
	OwnerID      string    `json:"owner_id"`
	DraftID      string    `json:"draft_id"`
	HasThumbnail bool      `json:"has_thumbnail"`
	PromotedAt   time.Time `json:"promoted_at"`
}

const stream = "stream:route:promoted"

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	routeID := flag.String("route", "", "ID сохранённого маршрута без миниатюры")
	owner := flag.String("owner", "test-user", "ID владельца")
	group := flag.String("group", "route-thumbnail-workers", "Consumer group воркера")
	flag.Parse()

	if *routeID == "" {
		log.Fatal("-route is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	event := RoutePromotedEvent{
		RouteID:    *routeID,
		OwnerID:    *owner,
		DraftID:    uuid.NewString(),
		PromotedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	id, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("✅ Event published\n")
	fmt.Printf("   Stream: %s\n", stream)
	fmt.Printf("   Message ID: %s\n", id)
	fmt.Printf("   Route ID: %s\n", event.RouteID)

	fmt.Printf("\n⏳ Waiting for %s to process the message...\n", *group)

	timeout := time.After(30 * time.Second)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			fmt.Println("❌ Timeout waiting for the worker")
			return
		case <-ticker.C:
			groups, err := client.XInfoGroups(ctx, stream).Result()
			if err != nil {
				continue
			}
			for _, g := range groups {
				if g.Name != *group {
					continue
				}
				if g.Pending == 0 && g.LastDeliveredID >= id {
					fmt.Printf("✅ Message processed (last delivered %s)\n", g.LastDeliveredID)
					return
				}
			}
		}
	}
}
