package locale

import (
	"slices"
	"strings"
)

const (
	DefaultTimezone = "UTC"
	DefaultRegion   = "KR"
)

type Country struct {
	Code            string   // ISO 3166-1 alpha-2 country code (e.g., "KR", "US")
	Name            string   // Human-readable country name
	PhonePrefixes   []string // Valid phone number prefixes (e.g., ["+82", "82"])
	DefaultTimezone string   // IANA timezone identifier (e.g., "Asia/Seoul")
	Language        Lang
}

var (
	Countries = map[string]Country{
		"KR": {
			Code:            "KR",
			Name:            "South Korea",
			PhonePrefixes:   []string{"+82", "82"},
			DefaultTimezone: "Asia/Seoul",
			Language:        Korean,
		},
		"US": {
			Code:            "US",
			Name:            "United States",
			PhonePrefixes:   []string{"+1", "1"},
			DefaultTimezone: "America/New_York",
			Language:        English,
		},
	}

	TimeZoneTags = map[string][]string{
		"KR": {"Asia/Seoul", "ROK"},
		"US": {"America/New_York", "America/Chicago", "America/Los_Angeles", "US/Eastern", "US/Pacific"},
	}
)

// DetectRegion maps an IANA zone to a supported region, falling back to KR.
func DetectRegion(tz string) string {
	for region, zones := range TimeZoneTags {
		for _, z := range zones {
			if strings.EqualFold(tz, z) {
				return region
			}
		}
	}
	return DefaultRegion
}

// Regions lists the supported country codes with preferred first when it is
// supported, then DefaultRegion, then the rest alphabetically.
func Regions(preferred string) []string {
	rest := make([]string, 0, len(Countries))
	for code := range Countries {
		if code != preferred && code != DefaultRegion {
			rest = append(rest, code)
		}
	}
	slices.Sort(rest)

	regions := make([]string, 0, len(Countries))
	if _, ok := Countries[preferred]; ok {
		regions = append(regions, preferred)
	}
	if preferred != DefaultRegion {
		regions = append(regions, DefaultRegion)
	}
	return append(regions, rest...)
}
