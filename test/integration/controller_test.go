//go:build integration

package integration

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/blissctl/internal/daemon"
	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
	"github.com/eliteGoblin/focusd/blissctl/internal/infra"
	"github.com/eliteGoblin/focusd/blissctl/internal/usecase"
	"github.com/eliteGoblin/focusd/blissctl/test/fixtures"
)

func kindOf(err error) domain.ErrorKind {
	var ce *domain.ClassifiedError
	Expect(errors.As(err, &ce)).To(BeTrue(), "expected a classified error, got %v", err)
	return ce.Kind
}

var _ = Describe("Controller against the engine process", func() {
	var (
		ctx    context.Context
		engine *fixtures.FakeEngine
		ctrl   *usecase.Controller
		logger *zap.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = zap.NewNop()
		engine = fixtures.NewFakeEngine(GinkgoT().TempDir())
		Expect(engine.Install()).To(Succeed())

		client := infra.NewExecEngineClient(infra.EnginePaths{Override: engine.Path()}, logger)
		ctrl = usecase.NewController(usecase.DefaultControllerConfig(), client, logger)
	})

	Describe("Synchronization", func() {
		It("reads an idle engine", func() {
			Expect(ctrl.RefreshAll(ctx)).To(Succeed())

			s := ctrl.Snapshot()
			Expect(s.Session.Status).To(Equal(domain.StatusIdle))
			Expect(s.Session.PF).To(Equal(domain.PFInactive))
			Expect(s.Lists.Websites).To(BeEmpty())
			Expect(s.Lists.Apps).To(BeEmpty())
			Expect(s.Lists.Browsers).To(BeEmpty())
			Expect(s.QuoteLength).To(Equal(domain.QuoteMedium))
			Expect(s.LastError).To(BeNil())
		})

		It("reads a running session with its end time", func() {
			end := time.Now().Add(25 * time.Minute).Truncate(time.Second)
			Expect(engine.StartSession(end)).To(Succeed())

			Expect(ctrl.PollOnce(ctx)).To(Succeed())

			s := ctrl.Snapshot()
			Expect(s.Locked()).To(BeTrue())
			Expect(s.Session.PF).To(Equal(domain.PFActive))
			Expect(s.Session.EndsAt.Equal(end)).To(BeTrue())
			Expect(s.Session.RemainingSeconds).To(Equal(25 * 60))
		})

		It("reports an unreachable root helper", func() {
			Expect(engine.SetHelperDown(true)).To(Succeed())

			err := ctrl.PollOnce(ctx)

			Expect(kindOf(err)).To(Equal(domain.KindPrivilegedHelperUnavailable))
			Expect(ctrl.Snapshot().Session.Status).To(Equal(domain.StatusError))
			Expect(ctrl.Snapshot().LastError.Message).To(Equal(domain.MsgPrivilegedHelperUnavailable))
		})

		It("reports a missing executable", func() {
			missing := filepath.Join(GinkgoT().TempDir(), "bliss")
			client := infra.NewExecEngineClient(infra.EnginePaths{Installed: missing}, logger)
			ctrl = usecase.NewController(usecase.DefaultControllerConfig(), client, logger)

			err := ctrl.PollOnce(ctx)

			Expect(kindOf(err)).To(Equal(domain.KindExecutableNotFound))
			Expect(ctrl.Snapshot().LastError.Message).To(ContainSubstring(missing))
		})
	})

	Describe("Configuration edits", func() {
		BeforeEach(func() {
			Expect(ctrl.RefreshAll(ctx)).To(Succeed())
		})

		It("adds and removes a website", func() {
			Expect(ctrl.AddWebsite(ctx, "  example.com ")).To(Succeed())
			Expect(engine.Websites()).To(Equal([]string{"example.com"}))
			Expect(ctrl.Snapshot().Lists.Websites).To(Equal([]string{"example.com"}))

			Expect(ctrl.RemoveWebsite(ctx, "example.com")).To(Succeed())
			Expect(engine.Websites()).To(BeEmpty())
			Expect(ctrl.Snapshot().Lists.Websites).To(BeEmpty())
		})

		It("removes an app by its raw identity", func() {
			Expect(ctrl.AddApp(ctx, "/Applications/Slack.app")).To(Succeed())

			apps := ctrl.Snapshot().Lists.Apps
			Expect(apps).To(HaveLen(1))
			Expect(apps[0].Name).To(Equal("Slack"))
			Expect(apps[0].BundleID).To(Equal("com.example.Slack"))
			Expect(apps[0].Path).To(Equal("/Applications/Slack.app"))

			Expect(ctrl.RemoveApp(ctx, apps[0])).To(Succeed())
			Expect(engine.Apps()).To(BeEmpty())
		})

		It("classifies a stale app reference", func() {
			stale := usecase.ParseAppEntry("Gone|bundle=com.example.Gone|path=/Applications/Gone.app")

			err := ctrl.RemoveApp(ctx, stale)

			Expect(kindOf(err)).To(Equal(domain.KindStaleReference))
		})

		It("adds a browser from its bundle path", func() {
			Expect(ctrl.AddBrowserFromAppPath(ctx, "/Applications/Firefox.app")).To(Succeed())
			Expect(engine.Browsers()).To(Equal([]string{"Firefox"}))
			Expect(ctrl.Snapshot().Lists.Browsers).To(Equal([]string{"Firefox"}))
		})

		It("persists the quote length", func() {
			Expect(ctrl.SetQuoteLength(ctx, domain.QuoteHuge)).To(Succeed())
			Expect(engine.QuoteLength()).To(Equal("huge"))
			Expect(ctrl.Snapshot().QuoteLength).To(Equal(domain.QuoteHuge))
		})
	})

	Describe("Sessions", func() {
		BeforeEach(func() {
			Expect(ctrl.RefreshAll(ctx)).To(Succeed())
		})

		It("locks configuration once a session starts", func() {
			Expect(ctrl.StartSession(ctx, "25")).To(Succeed())
			Expect(engine.SessionRunning()).To(BeTrue())
			Expect(ctrl.Snapshot().Locked()).To(BeTrue())

			err := ctrl.AddWebsite(ctx, "example.com")

			Expect(kindOf(err)).To(Equal(domain.KindSessionLocked))
			Expect(engine.Websites()).To(BeEmpty())
		})

		It("rejects a second start", func() {
			Expect(ctrl.StartSession(ctx, "25")).To(Succeed())

			Expect(kindOf(ctrl.StartSession(ctx, "10"))).To(Equal(domain.KindSessionAlreadyActive))
		})

		It("rejects invalid minutes", func() {
			Expect(kindOf(ctrl.StartSession(ctx, "abc"))).To(Equal(domain.KindInvalidDuration))
			Expect(engine.SessionRunning()).To(BeFalse())
		})

		It("surfaces the engine lock when local state is stale", func() {
			// The engine started a session the controller has not polled yet.
			Expect(engine.StartSession(time.Now().Add(time.Hour))).To(Succeed())

			err := ctrl.AddWebsite(ctx, "example.com")

			Expect(kindOf(err)).To(Equal(domain.KindSessionLocked))
			Expect(engine.Websites()).To(BeEmpty())
		})
	})

	Describe("Challenge gate", func() {
		var audit *infra.EncryptedAuditLog

		BeforeEach(func() {
			dataDir := GinkgoT().TempDir()
			var err error
			audit, err = infra.OpenAuditLogWithKeyProvider(dataDir, infra.NewFileKeyProvider(dataDir))
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(audit.Close)

			Expect(engine.StartSession(time.Now().Add(time.Hour))).To(Succeed())
			Expect(ctrl.RefreshAll(ctx)).To(Succeed())
		})

		It("keeps the session when accuracy is too low", func() {
			gate := ctrl.NewChallenge("stay focused", audit)
			gate.SetTyped("stay fxxxxxx")

			result, err := gate.Submit(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(usecase.ChallengeRejected))
			Expect(engine.SessionRunning()).To(BeTrue())

			attempts, err := audit.Recent(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(attempts).To(HaveLen(1))
			Expect(attempts[0].EngineCalled).To(BeFalse())
		})

		It("ends the session on an accurate submit", func() {
			gate := ctrl.NewChallenge("stay focused", audit)
			gate.SetTyped("stay focused")

			result, err := gate.Submit(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(usecase.ChallengeSessionEnded))
			Expect(gate.Closed()).To(BeTrue())
			Expect(engine.SessionRunning()).To(BeFalse())
			Expect(ctrl.Snapshot().Locked()).To(BeFalse())

			attempts, err := audit.Recent(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(attempts).To(HaveLen(1))
			Expect(attempts[0].Succeeded).To(BeTrue())
		})

		It("keeps the gate open when the engine refuses", func() {
			Expect(engine.EndSession()).To(Succeed())
			gate := ctrl.NewChallenge("stay focused", audit)
			gate.SetTyped("stay focused")

			result, err := gate.Submit(ctx)

			Expect(err).To(HaveOccurred())
			Expect(result).To(Equal(usecase.ChallengeEngineFailed))
			Expect(gate.Closed()).To(BeFalse())
			Expect(gate.EngineError()).NotTo(BeNil())
		})
	})

	Describe("Background loops", func() {
		It("polls session changes made outside the controller", func() {
			poller := daemon.NewPoller(daemon.PollerConfig{Interval: 50 * time.Millisecond}, ctrl, logger)
			poller.Start(ctx)
			DeferCleanup(poller.Stop)

			Eventually(func() domain.SessionStatus {
				return ctrl.Snapshot().Session.Status
			}).Should(Equal(domain.StatusIdle))

			Expect(engine.StartSession(time.Now().Add(time.Hour))).To(Succeed())

			Eventually(func() bool {
				return ctrl.Snapshot().Locked()
			}).Should(BeTrue())
		})

		It("counts down from the engine's end time", func() {
			reader := infra.NewFileEndTimeReader(engine.EndTimePath())
			clock := daemon.NewClock(daemon.DefaultClockConfig(), reader, logger)
			Expect(clock.Text()).To(Equal(daemon.ClockIdleText))

			Expect(engine.StartSession(time.Now().Add(10*time.Minute + 30*time.Second))).To(Succeed())

			Expect(clock.Text()).To(MatchRegexp(`^Bliss (10:[0-2][0-9]|10:30)$`))
		})
	})
})
