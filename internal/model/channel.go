package model

import "strings"

// Channel identifies an independent agent loop.
type Channel string

const (
	ChannelSocial  Channel = "social"
	ChannelTrading Channel = "trading"
)

// Category is a behavior the scheduler can select within a channel.
type Category string

const (
	CategoryPost     Category = "post"
	CategoryMentions Category = "mentions"
	CategoryTimeline Category = "timeline"
	CategoryTrends   Category = "trends"
	CategoryHoldings Category = "holdings"
)

// EngagementKind is an action the attention engine gates.
type EngagementKind string

const (
	EngageReply   EngagementKind = "reply"
	EngageLike    EngagementKind = "like"
	EngageRetweet EngagementKind = "retweet"
	EngageQuote   EngagementKind = "quote"
)

// Verdict is the attention engine's decision for one engagement kind.
type Verdict string

const (
	VerdictAct    Verdict = "act"
	VerdictIgnore Verdict = "ignore"
)

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
