package model

// TokenRanking is one row of a market swap ranking.
type TokenRanking struct {
	Address     string  `json:"address"`
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	PriceUSD    float64 `json:"price"`
	MarketCap   float64 `json:"market_cap"`
	Volume      float64 `json:"volume"`
	Swaps       int64   `json:"swaps"`
	Holders     int64   `json:"holder_count"`
	PriceChange float64 `json:"price_change_percent"`
	Launchpad   string  `json:"launchpad,omitempty"`
}

// Holding is a token position in a wallet.
type Holding struct {
	Address       string  `json:"address"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Balance       float64 `json:"balance"`
	USDValue      float64 `json:"usd_value"`
	UnrealizedPnL float64 `json:"unrealized_profit"`
}
