package merge_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/netquity/mergebot/internal/merge"
)

var _ = Describe("Validator", func() {
	var runner *fakeRunner

	BeforeEach(func() {
		runner = newFakeRunner()
	})

	It("lists every forbidden name when rejecting a forbidden branch", func() {
		validator := merge.NewValidator([]string{"master", "develop"}, runner)

		err := validator.Validate(context.Background(), "/tmp/repos/demo", "master")

		var vErr *merge.ValidationError
		Expect(errors.As(err, &vErr)).To(BeTrue())
		Expect(vErr.Branch).To(Equal("master"))
		Expect(vErr.Reason).To(Equal("master, develop are forbidden choices for --branch-name"))
		Expect(runner.commands()).To(BeEmpty())
	})

	It("matches forbidden branches case-sensitively", func() {
		validator := merge.NewValidator([]string{"master"}, runner)

		err := validator.Validate(context.Background(), "/tmp/repos/demo", "Master")
		Expect(err).NotTo(HaveOccurred())
		Expect(runner.commands()).To(HaveLen(2))
	})

	It("accepts a branch that resolves on origin", func() {
		validator := merge.NewValidator([]string{"master", "develop"}, runner)

		err := validator.Validate(context.Background(), "/tmp/repos/demo", "feature-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(runner.commands()).To(Equal([]string{
			"fetch --prune origin",
			"rev-parse --verify --quiet origin/feature-1^{commit}",
		}))
	})

	It("rejects a branch missing from origin after the pruning fetch", func() {
		runner.failOn["rev-parse --verify --quiet origin/gone^{commit}"] = errors.New("fatal: needed a single revision")
		validator := merge.NewValidator([]string{"master", "develop"}, runner)

		err := validator.Validate(context.Background(), "/tmp/repos/demo", "gone")

		var vErr *merge.ValidationError
		Expect(errors.As(err, &vErr)).To(BeTrue())
		Expect(vErr.Reason).To(Equal("not a valid branch name"))
	})

	It("propagates fetch failures without classifying them as validation errors", func() {
		runner.failOn["fetch --prune origin"] = errors.New("could not resolve host")
		validator := merge.NewValidator([]string{"master"}, runner)

		err := validator.Validate(context.Background(), "/tmp/repos/demo", "feature-1")
		Expect(err).To(HaveOccurred())

		var vErr *merge.ValidationError
		Expect(errors.As(err, &vErr)).To(BeFalse())
	})
})
