package models

import "time"

// Season is one of four fixed calendar buckets derived from a month number
type Season string

const (
	Winter Season = "Winter"
	Spring Season = "Spring"
	Summer Season = "Summer"
	Autumn Season = "Autumn"
)

// SeasonOrder is the fixed display order of the seasonal bar chart
var SeasonOrder = [...]Season{Winter, Spring, Summer, Autumn}

var seasonByIndex = map[int]Season{
	1: Winter,
	2: Spring,
	3: Summer,
	4: Autumn,
}

// SeasonForMonth maps a month to its season: ((month % 12) / 3) + 1, so
// December to February are Winter and September to November Autumn.
func SeasonForMonth(m time.Month) Season {
	return seasonByIndex[(int(m)%12)/3+1]
}
