package market

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/cornip/Rina/common/httpx"
	"github.com/cornip/Rina/internal/model"
)

const (
	defaultLaunchpad    = "Pump.fun"
	defaultHoldingLimit = 50
)

// Client reads swap rankings and wallet holdings from the market data API.
type Client interface {
	SwapRankings(ctx context.Context, period, launchpad string, limit int) ([]model.TokenRanking, error)
	WalletHoldings(ctx context.Context, wallet string) ([]model.Holding, error)
}

type client struct {
	http *httpx.Client
}

func New(baseURL string) (Client, error) {
	hc, err := httpx.New(httpx.Config{
		BaseURL: baseURL,
		Headers: map[string]string{
			"Accept":     "application/json, text/plain, */*",
			"User-Agent": "okhttp/4.9.2",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("market client: %w", err)
	}
	return &client{http: hc}, nil
}

func newWithHTTP(hc *httpx.Client) Client {
	return &client{http: hc}
}

type swapRankResponse struct {
	Code int `json:"code"`
	Data struct {
		Rank []model.TokenRanking `json:"rank"`
	} `json:"data"`
}

// SwapRankings returns the top tokens by market cap for period, keeping only
// tokens launched on launchpad. An empty launchpad means Pump.fun.
func (c *client) SwapRankings(ctx context.Context, period, launchpad string, limit int) ([]model.TokenRanking, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("orderby", "marketcap")
	q.Set("direction", "desc")
	q.Add("filters[]", "renounced")
	q.Add("filters[]", "frozen")

	var resp swapRankResponse
	if err := c.http.GetJSON(ctx, "/defi/quotation/v1/rank/sol/swaps/"+url.PathEscape(period), q, &resp); err != nil {
		return nil, fmt.Errorf("fetching swap rankings: %w", err)
	}

	if launchpad == "" {
		launchpad = defaultLaunchpad
	}
	out := make([]model.TokenRanking, 0, len(resp.Data.Rank))
	for _, r := range resp.Data.Rank {
		if r.Launchpad == launchpad {
			out = append(out, r)
		}
	}
	return out, nil
}

type holdingsResponse struct {
	Data struct {
		Holdings []holdingRow `json:"holdings"`
	} `json:"data"`
}

type holdingRow struct {
	Token struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
		Name    string `json:"name"`
	} `json:"token"`
	Balance          flexFloat `json:"balance"`
	USDValue         flexFloat `json:"usd_value"`
	UnrealizedProfit flexFloat `json:"unrealized_profit"`
}

// WalletHoldings returns the wallet's positions, most recently active first.
func (c *client) WalletHoldings(ctx context.Context, wallet string) ([]model.Holding, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(defaultHoldingLimit))
	q.Set("orderby", "last_active_timestamp")
	q.Set("direction", "desc")
	q.Set("showsmall", "false")
	q.Set("sellout", "false")
	q.Set("hide_abnormal", "false")

	var resp holdingsResponse
	if err := c.http.GetJSON(ctx, "/api/v1/wallet_holdings/sol/"+url.PathEscape(wallet), q, &resp); err != nil {
		return nil, fmt.Errorf("fetching wallet holdings: %w", err)
	}

	out := make([]model.Holding, 0, len(resp.Data.Holdings))
	for _, h := range resp.Data.Holdings {
		out = append(out, model.Holding{
			Address:       h.Token.Address,
			Symbol:        h.Token.Symbol,
			Name:          h.Token.Name,
			Balance:       float64(h.Balance),
			USDValue:      float64(h.USDValue),
			UnrealizedPnL: float64(h.UnrealizedProfit),
		})
	}
	return out, nil
}
