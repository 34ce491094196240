package trading

import (
	"encoding/json"
	"fmt"

	"github.com/cornip/Rina/internal/model"
)

// DefaultPreamble is used when no persona is configured.
const DefaultPreamble = "You are a calculated Solana trading assistant. " +
	"You trade memecoins and DeFi tokens with a small portfolio, take bold positions only when the data supports them, " +
	"and never exceed 0.2 SOL per trade unless an exceptional opportunity justifies up to 0.3 SOL."

const responseFormat = `Provide a brief, concise reason (max 100 characters).
IMPORTANT: Return ONLY the raw JSON object without any markdown formatting or backticks.

Response format: {"reason": "<brief_explanation>", "action": "<buy|sell|hold|swap>", "token_address": "<address>", "amount": <sol_amount>, "tool": "<command_format>"}

Tool format:
- For buying: swap <amount> SOL to <token_address> (not symbol)
- For selling: swap <percentage>% <token_address> (not symbol) to SOL`

func trendsPrompt(rankings []model.TokenRanking, history []model.ActionRecord) string {
	return fmt.Sprintf(`Analyze the token trends and provide your trading recommendation in JSON format.
Consider market cap, smart money movement, holder distribution, volume, and liquidity.
Focus on microcap gems for higher potential returns given the small portfolio size.
If no good trading opportunities are found, use action 'hold'.
%s

Current Token Trends:
%s

Recent Trades:
%s`, responseFormat, toJSON(rankings), toJSON(history))
}

func holdingsPrompt(holdings []model.Holding, history []model.ActionRecord) string {
	return fmt.Sprintf(`Analyze my portfolio holdings and recent trades to provide a recommendation.
Consider portfolio balance and recent performance.
IMPORTANT: Maintain a maximum of 3 tokens in the portfolio at any time.
If currently holding more than 3 tokens, prioritize selling underperforming ones.
If no actions are needed at this time, use action 'hold'.
%s

Recent Trades:
%s

Current Holdings:
%s`, responseFormat, toJSON(history), toJSON(holdings))
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}
