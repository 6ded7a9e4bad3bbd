package model

import "time"

// NewsItem is a market news headline with the symbols it mentions.
type NewsItem struct {
	ID             string
	Title          string
	Summary        string
	Source         string
	URL            string
	ImageURL       *string
	Timestamp      time.Time
	RelatedSymbols []string
}
