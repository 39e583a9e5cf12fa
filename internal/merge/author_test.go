package merge_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/netquity/mergebot/internal/merge"
)

var _ = Describe("Author", func() {
	Describe("ParseAuthor", func() {
		It("splits a canonical identity line", func() {
			author, err := merge.ParseAuthor("Alice Example <alice@example.com>")
			Expect(err).NotTo(HaveOccurred())
			Expect(author.Name).To(Equal("Alice Example"))
			Expect(author.Email).To(Equal("alice@example.com"))
			Expect(author.String()).To(Equal("Alice Example <alice@example.com>"))
		})

		It("keeps angle brackets inside the name intact", func() {
			author, err := merge.ParseAuthor("Weird <Name> Person <weird@example.com>")
			Expect(err).NotTo(HaveOccurred())
			Expect(author.Name).To(Equal("Weird <Name> Person"))
			Expect(author.Email).To(Equal("weird@example.com"))
		})

		It("rejects lines without an email", func() {
			_, err := merge.ParseAuthor("Alice Example")
			Expect(err).To(HaveOccurred())
		})

		It("rejects lines without a name", func() {
			_, err := merge.ParseAuthor("<alice@example.com>")
			Expect(err).To(HaveOccurred())
		})

		It("rejects empty lines", func() {
			_, err := merge.ParseAuthor("   ")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ResolveAuthor", func() {
		var runner *fakeRunner

		BeforeEach(func() {
			runner = newFakeRunner()
		})

		It("fetches with pruning before the lookup", func() {
			runner.outputs["log -1"] = "Alice <alice@example.com>\n"

			author, err := merge.ResolveAuthor(context.Background(), runner, "/tmp/repos/demo", "feature-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(author.String()).To(Equal("Alice <alice@example.com>"))
			Expect(runner.commands()).To(Equal([]string{
				"fetch --prune origin",
				"log -1 --format=%an <%ae> origin/feature-1",
			}))
		})

		It("surfaces a lookup failure as a resolution error", func() {
			runner.failOn["log -1 --format=%an <%ae> origin/feature-1"] = errors.New("unknown revision")

			_, err := merge.ResolveAuthor(context.Background(), runner, "/tmp/repos/demo", "feature-1")

			var resErr *merge.ResolutionError
			Expect(errors.As(err, &resErr)).To(BeTrue())
			Expect(resErr.Branch).To(Equal("feature-1"))
		})
	})
})
