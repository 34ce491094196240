package brain_test

import (
	"strings"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cornip/Rina/internal/brain"
)

var _ = Describe("ExtractMentions", func() {
	DescribeTable("extracts distinct lowercased handles",
		func(text string, expected []string) {
			if expected == nil {
				Expect(brain.ExtractMentions(text)).To(BeEmpty())
				return
			}
			Expect(brain.ExtractMentions(text)).To(Equal(expected))
		},
		Entry("no mentions", "gm everyone", nil),
		Entry("single mention", "hey @alice what's up", []string{"alice"}),
		Entry("multiple in order", "@alice @bob thoughts?", []string{"alice", "bob"}),
		Entry("deduplicated", "@alice @Bob @ALICE", []string{"alice", "bob"}),
		Entry("trailing punctuation", "question for @alice.", []string{"alice"}),
		Entry("inside parentheses", "hey (@alice) look", []string{"alice"}),
		Entry("hyphens and underscores", "@rina_bot @some-user", []string{"rina_bot", "some-user"}),
		Entry("email addresses ignored", "mail test@example.com", nil),
		Entry("email and mention", "mail test@example.com or @alice", []string{"alice"}),
	)

	It("builds a set", func() {
		set := brain.MentionSet("@a @b @a")
		Expect(set).To(HaveLen(2))
		Expect(set).To(HaveKey("a"))
		Expect(set).To(HaveKey("b"))
	})
})

var _ = Describe("ChunkText", func() {
	It("returns nothing for empty text", func() {
		Expect(brain.ChunkText("", brain.MaxPostRunes)).To(BeEmpty())
	})

	It("keeps short text whole", func() {
		Expect(brain.ChunkText("gm", brain.MaxPostRunes)).To(Equal([]string{"gm"}))
	})

	It("splits on rune boundaries and preserves content", func() {
		text := strings.Repeat("ab🚀", 200)
		chunks := brain.ChunkText(text, brain.MaxPostRunes)

		Expect(chunks).To(HaveLen(3))
		for _, c := range chunks {
			Expect(utf8.ValidString(c)).To(BeTrue())
			Expect(utf8.RuneCountInString(c)).To(BeNumerically("<=", brain.MaxPostRunes))
		}
		Expect(strings.Join(chunks, "")).To(Equal(text))
	})

	It("splits at exactly the limit", func() {
		text := strings.Repeat("x", brain.MaxPostRunes+1)
		chunks := brain.ChunkText(text, brain.MaxPostRunes)
		Expect(chunks).To(HaveLen(2))
		Expect(chunks[1]).To(Equal("x"))
	})
})
