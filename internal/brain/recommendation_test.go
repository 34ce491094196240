package brain_test

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cornip/Rina/internal/brain"
	"github.com/cornip/Rina/internal/model"
)

var _ = Describe("ParseRecommendation", func() {
	const wallet = "W1"
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	It("decodes a complete recommendation", func() {
		rec := brain.ParseRecommendation(
			`{"action":"buy","token_address":"T1","amount":0.5,"reason":"momentum","tool":"swap 0.5 SOL to T1"}`,
			wallet, now)

		Expect(rec.Decoded).To(BeTrue())
		Expect(rec.Command).To(Equal("swap 0.5 SOL to T1"))
		Expect(rec.Record).To(Equal(model.ActionRecord{
			SubjectID: wallet,
			Category:  model.ActionBuy,
			Target:    "T1",
			Magnitude: 0.5,
			Rationale: "momentum",
			CreatedAt: now,
		}))
	})

	It("defaults every field when the text is not JSON", func() {
		rec := brain.ParseRecommendation("not json at all", wallet, now)

		Expect(rec.Decoded).To(BeFalse())
		Expect(rec.Command).To(BeEmpty())
		Expect(rec.Record.Category).To(Equal(model.ActionHold))
		Expect(rec.Record.Target).To(BeEmpty())
		Expect(rec.Record.Magnitude).To(BeZero())
		Expect(rec.Record.Rationale).To(BeEmpty())
		Expect(rec.Record.SubjectID).To(Equal(wallet))
		Expect(rec.Record.CreatedAt).To(Equal(now))
		Expect(rec.Record.ExecutionProof).To(BeNil())
	})

	It("defaults missing fields individually", func() {
		rec := brain.ParseRecommendation(`{"action":"sell"}`, wallet, now)

		Expect(rec.Decoded).To(BeTrue())
		Expect(rec.Record.Category).To(Equal(model.ActionSell))
		Expect(rec.Record.Target).To(BeEmpty())
		Expect(rec.Record.Magnitude).To(BeZero())
		Expect(rec.Record.Rationale).To(BeEmpty())
	})

	It("keeps valid fields when others have the wrong type", func() {
		rec := brain.ParseRecommendation(
			`{"action":42,"token_address":"T9","amount":"lots","reason":["x"]}`,
			wallet, now)

		Expect(rec.Record.Category).To(Equal(model.ActionHold))
		Expect(rec.Record.Target).To(Equal("T9"))
		Expect(rec.Record.Magnitude).To(BeZero())
		Expect(rec.Record.Rationale).To(BeEmpty())
	})

	DescribeTable("maps the action onto a category",
		func(action string, expected model.ActionCategory) {
			rec := brain.ParseRecommendation(`{"action":"`+action+`"}`, wallet, now)
			Expect(rec.Record.Category).To(Equal(expected))
		},
		Entry("buy", "buy", model.ActionBuy),
		Entry("upper case sell", "SELL", model.ActionSell),
		Entry("padded swap", "  Swap ", model.ActionSwap),
		Entry("hold", "hold", model.ActionHold),
		Entry("unknown yolo", "yolo", model.ActionHold),
		Entry("empty", "", model.ActionHold),
	)

	DescribeTable("normalises the amount",
		func(amount string, expected float64) {
			rec := brain.ParseRecommendation(`{"action":"buy","amount":`+amount+`}`, wallet, now)
			Expect(rec.Record.Magnitude).To(Equal(expected))
		},
		Entry("number", "1.25", 1.25),
		Entry("integer", "3", 3.0),
		Entry("numeric string", `"0.75"`, 0.75),
		Entry("negative", "-2", 0.0),
		Entry("negative string", `"-2"`, 0.0),
		Entry("NaN string", `"NaN"`, 0.0),
		Entry("infinite string", `"+Inf"`, 0.0),
		Entry("null", "null", 0.0),
	)

	It("tolerates a markdown code fence", func() {
		rec := brain.ParseRecommendation("```json\n{\"action\":\"swap\",\"token_address\":\"T2\"}\n```", wallet, now)

		Expect(rec.Decoded).To(BeTrue())
		Expect(rec.Record.Category).To(Equal(model.ActionSwap))
		Expect(rec.Record.Target).To(Equal("T2"))
	})

	It("bounds the rationale length in runes", func() {
		long := strings.Repeat("é", brain.MaxRationaleRunes+20)
		rec := brain.ParseRecommendation(`{"reason":"`+long+`"}`, wallet, now)

		Expect([]rune(rec.Record.Rationale)).To(HaveLen(brain.MaxRationaleRunes))
	})

	It("treats an empty tool as no command", func() {
		rec := brain.ParseRecommendation(`{"action":"hold","tool":"  "}`, wallet, now)
		Expect(rec.Command).To(BeEmpty())
	})

	It("never panics on arbitrary input", func() {
		for _, raw := range []string{"", "{", "[]", "null", "```", "```json", `{"amount":1e999}`, "\x00\xff"} {
			Expect(func() { brain.ParseRecommendation(raw, wallet, now) }).NotTo(Panic())
		}
	})
})
