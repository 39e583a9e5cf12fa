package merge_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/netquity/mergebot/internal/merge"
)

var _ = Describe("Orchestrator", func() {
	var (
		ctx     context.Context
		runner  *fakeRunner
		cfg     merge.Config
		project merge.Project
	)

	BeforeEach(func() {
		ctx = context.Background()
		runner = newFakeRunner()
		runner.outputs["log -1"] = "Alice <alice@example.com>\n"
		cfg = merge.Config{ReposRoot: "/tmp/repos", IntegrationBranch: "develop"}
		project = merge.Project{Name: "demo", RepoURL: "git@github.com:netquity/demo.git", Org: "netquity"}
	})

	newOrchestrator := func() *merge.Orchestrator {
		validator := merge.NewValidator([]string{"master", "develop"}, runner)
		return merge.New(cfg, runner, validator, nil)
	}

	It("rejects forbidden branches before any git invocation", func() {
		orch := newOrchestrator()

		outcome, err := orch.Merge(ctx, merge.Request{Project: project, Branch: "develop", User: "Bob"})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Status).To(Equal(merge.StatusRejected))
		Expect(outcome.Detail).To(Equal("develop is not a valid branch choice."))
		Expect(runner.commands()).To(BeEmpty())
	})

	It("rejects branches that do not exist on origin", func() {
		runner.failOn["rev-parse --verify --quiet origin/ghost^{commit}"] = errors.New("fatal: needed a single revision")
		orch := newOrchestrator()

		outcome, err := orch.Merge(ctx, merge.Request{Project: project, Branch: "ghost", User: "Bob"})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Status).To(Equal(merge.StatusRejected))
		Expect(outcome.Detail).To(Equal("ghost is not a valid branch choice."))
		Expect(runner.commands()).To(Equal([]string{
			"fetch --prune origin",
			"rev-parse --verify --quiet origin/ghost^{commit}",
		}))
	})

	It("runs the full merge sequence in order against the project clone", func() {
		orch := newOrchestrator()

		outcome, err := orch.Merge(ctx, merge.Request{Project: project, Branch: "feature-1", User: "Bob"})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Status).To(Equal(merge.StatusMerged))
		Expect(outcome.ReceiverBranch).To(Equal("develop"))
		Expect(outcome.GiverBranch).To(Equal("feature-1"))
		Expect(outcome.Detail).To(Equal("I was able to complete the demo merge for you."))

		Expect(runner.commands()).To(Equal([]string{
			"fetch --prune origin",
			"rev-parse --verify --quiet origin/feature-1^{commit}",
			"fetch --prune origin",
			"log -1 --format=%an <%ae> origin/feature-1",
			"fetch --prune origin",
			"checkout -B develop origin/develop",
			"merge --no-ff -m Merge feature-1 to develop\n\nBranch merged by Bob. origin/feature-1",
			"commit --amend --no-edit --author=Alice <alice@example.com>",
			"push origin develop",
			"push origin --delete feature-1",
			"branch -D feature-1",
		}))

		for _, c := range runner.calls {
			Expect(c.dir).To(Equal("/tmp/repos/demo"))
		}
	})

	It("shapes the merge commit message around the branch and invoking user", func() {
		orch := newOrchestrator()

		_, err := orch.Merge(ctx, merge.Request{Project: project, Branch: "feature-x", User: "Jane Doe"})
		Expect(err).NotTo(HaveOccurred())
		Expect(runner.commands()).To(ContainElement(
			"merge --no-ff -m Merge feature-x to develop\n\nBranch merged by Jane Doe. origin/feature-x",
		))
	})

	It("aborts the remaining steps when a step fails", func() {
		runner.failOn["push origin develop"] = errors.New("remote hung up")
		orch := newOrchestrator()

		_, err := orch.Merge(ctx, merge.Request{Project: project, Branch: "feature-1", User: "Bob"})

		var stepErr *merge.StepError
		Expect(errors.As(err, &stepErr)).To(BeTrue())
		Expect(stepErr.Step).To(Equal("push"))

		cmds := runner.commands()
		Expect(cmds[len(cmds)-1]).To(Equal("push origin develop"))
		Expect(cmds).NotTo(ContainElement("push origin --delete feature-1"))
		Expect(cmds).NotTo(ContainElement("branch -D feature-1"))
	})

	It("treats a multi-line author lookup as a resolution failure", func() {
		runner.outputs["log -1"] = "Alice <alice@example.com>\nBob <bob@example.com>\n"
		orch := newOrchestrator()

		_, err := orch.Merge(ctx, merge.Request{Project: project, Branch: "feature-1", User: "Bob"})

		var resErr *merge.ResolutionError
		Expect(errors.As(err, &resErr)).To(BeTrue())
		Expect(runner.commands()).NotTo(ContainElement("checkout -B develop origin/develop"))
	})

	It("treats an empty author lookup as a resolution failure", func() {
		runner.outputs["log -1"] = ""
		orch := newOrchestrator()

		_, err := orch.Merge(ctx, merge.Request{Project: project, Branch: "feature-1", User: "Bob"})

		var resErr *merge.ResolutionError
		Expect(errors.As(err, &resErr)).To(BeTrue())
	})

	It("stops after author resolution in dry-run mode", func() {
		cfg.DryRun = true
		orch := newOrchestrator()

		outcome, err := orch.Merge(ctx, merge.Request{Project: project, Branch: "feature-1", User: "Bob"})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Status).To(Equal(merge.StatusDryRun))
		Expect(outcome.Detail).To(ContainSubstring("Alice <alice@example.com>"))
		Expect(runner.commands()).To(HaveLen(4))
	})

	It("serializes concurrent requests for the same project", func() {
		runner.delay = func() { time.Sleep(2 * time.Millisecond) }
		orch := newOrchestrator()

		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := orch.Merge(ctx, merge.Request{Project: project, Branch: "feature-1", User: "Bob"})
				Expect(err).NotTo(HaveOccurred())
			}()
		}
		wg.Wait()

		Expect(runner.maxInflight).To(Equal(1))
	})
})
