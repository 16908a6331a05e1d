package models

import (
	"encoding/json"
	"fmt"
)

// Offer is a confirmed, currently discounted store item.
// Non-discounted items never become Offers; the enricher rejects them first.
type Offer struct {
	AppID           int    `json:"app_id" validate:"required,gt=0"`
	Name            string `json:"name" validate:"required"`
	DiscountPercent int    `json:"discount_percent" validate:"gt=0,lte=100"`
	FinalPrice      string `json:"final_price"`
	OriginalPrice   string `json:"original_price,omitempty"`
	DetailURL       string `json:"detail_url" validate:"required,url"`
	ImageURL        string `json:"image_url,omitempty" validate:"omitempty,url"`
}

// Query describes one request for offers. Limit participates in the cache key.
type Query struct {
	TagIDs         []int
	OnlyDiscounted bool
	Limit          int
	RegionCode     string
	LanguageCode   string
}

// cacheKeyPayload fixes the serialized field order; tag order is preserved.
type cacheKeyPayload struct {
	CC             string `json:"cc"`
	Lang           string `json:"lang"`
	Limit          int    `json:"limit"`
	OnlyDiscounted bool   `json:"only_discounted"`
	TagIDs         []int  `json:"tag_ids"`
}

// CacheKey returns the canonical serialization of q. Two queries share a
// cache entry only when their keys are byte-equal, so [1,2] and [2,1] differ,
// as do queries that differ only in Limit.
func (q Query) CacheKey() string {
	tags := q.TagIDs
	if tags == nil {
		tags = []int{}
	}
	payload, err := json.Marshal(cacheKeyPayload{
		CC:             q.RegionCode,
		Lang:           q.LanguageCode,
		Limit:          q.Limit,
		OnlyDiscounted: q.OnlyDiscounted,
		TagIDs:         tags,
	})
	if err != nil {
		// Only ints, bools and strings are marshaled; this cannot fail.
		return fmt.Sprintf("deals:%v", q)
	}
	return "deals:" + string(payload)
}
