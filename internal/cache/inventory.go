package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	ListingKeyPrefix    = "listing:%d"
	PublicListKeyPrefix = "listings:public:%s:%d:%d"
	PendingCountKey     = "listings:pending:count"
	CategoriesKey       = "listings:categories"
)

const (
	ListingTTL      = 10 * time.Minute
	PublicListTTL   = 2 * time.Minute
	PendingCountTTL = 30 * time.Second
	CategoriesTTL   = 30 * time.Minute
)

func ListingKey(listingID uint) string {
	return fmt.Sprintf(ListingKeyPrefix, listingID)
}

// PublicListKey keys a page of the public directory. The category segment
// is empty for the unfiltered list.
func PublicListKey(category string, page, limit int) string {
	return fmt.Sprintf(PublicListKeyPrefix, category, page, limit)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateListing(ctx context.Context, listingID uint) {
	Invalidate(ctx, ListingKey(listingID))
}

// InvalidateListingCollections drops every cached public page and the
// pending counter. Moderation transitions move rows between the public,
// pending and trash sets, so per-page invalidation is not worth tracking.
func InvalidateListingCollections(ctx context.Context) {
	if client == nil {
		return
	}
	Invalidate(ctx, PendingCountKey)
	Invalidate(ctx, CategoriesKey)
	iter := client.Scan(ctx, 0, "listings:public:*", 100).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
}
