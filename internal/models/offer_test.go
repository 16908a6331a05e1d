package models

import "testing"

func TestQueryCacheKey(t *testing.T) {
	q := Query{
		TagIDs:         []int{1628},
		OnlyDiscounted: true,
		Limit:          10,
		RegionCode:     "vn",
		LanguageCode:   "english",
	}

	want := `deals:{"cc":"vn","lang":"english","limit":10,"only_discounted":true,"tag_ids":[1628]}`
	if got := q.CacheKey(); got != want {
		t.Errorf("CacheKey() = %s, want %s", got, want)
	}
}

func TestQueryCacheKey_Sensitivity(t *testing.T) {
	base := Query{TagIDs: []int{1, 2}, OnlyDiscounted: true, Limit: 10, RegionCode: "vn", LanguageCode: "english"}

	tests := []struct {
		name      string
		other     Query
		wantEqual bool
	}{
		{
			name:      "Identical query",
			other:     Query{TagIDs: []int{1, 2}, OnlyDiscounted: true, Limit: 10, RegionCode: "vn", LanguageCode: "english"},
			wantEqual: true,
		},
		{
			name:  "Limit differs",
			other: Query{TagIDs: []int{1, 2}, OnlyDiscounted: true, Limit: 5, RegionCode: "vn", LanguageCode: "english"},
		},
		{
			name:  "Tag order differs",
			other: Query{TagIDs: []int{2, 1}, OnlyDiscounted: true, Limit: 10, RegionCode: "vn", LanguageCode: "english"},
		},
		{
			name:  "Discount filter differs",
			other: Query{TagIDs: []int{1, 2}, OnlyDiscounted: false, Limit: 10, RegionCode: "vn", LanguageCode: "english"},
		},
		{
			name:  "Region differs",
			other: Query{TagIDs: []int{1, 2}, OnlyDiscounted: true, Limit: 10, RegionCode: "us", LanguageCode: "english"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			equal := base.CacheKey() == tt.other.CacheKey()
			if equal != tt.wantEqual {
				t.Errorf("keys equal = %v, want %v (%s vs %s)", equal, tt.wantEqual, base.CacheKey(), tt.other.CacheKey())
			}
		})
	}
}

func TestQueryCacheKey_NilTags(t *testing.T) {
	a := Query{Limit: 1}
	b := Query{TagIDs: []int{}, Limit: 1}
	if a.CacheKey() != b.CacheKey() {
		t.Errorf("nil and empty tag lists should share a key: %s vs %s", a.CacheKey(), b.CacheKey())
	}
}
