package integration_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/DeanoC/AIWhisperer-sub003/internal/agent"
	"github.com/DeanoC/AIWhisperer-sub003/internal/event"
	"github.com/DeanoC/AIWhisperer-sub003/internal/rpc"
	"github.com/DeanoC/AIWhisperer-sub003/internal/rpc/rpctest"
	"github.com/DeanoC/AIWhisperer-sub003/internal/session"
	"github.com/DeanoC/AIWhisperer-sub003/pkg/types"
)

var _ = Describe("Agent Switching", func() {
	var (
		ctx    context.Context
		bus    *event.Bus
		client *rpc.Client
		roster *agent.Registry
		sess   *agent.Session
		svc    *session.Service

		completes []event.AgentSwitchCompleteData
		mu        sync.Mutex
	)

	BeforeEach(func() {
		ctx = context.Background()
		bus = event.NewBus()
		DeferCleanup(func() { _ = bus.Close() })

		client = rpc.NewClient(backend.URL())

		roster = agent.NewRegistry()
		agents, err := client.ListAgents(ctx)
		Expect(err).NotTo(HaveOccurred())
		roster.Replace(agents)

		sess = agent.NewSession(roster, client, bus)
		svc = session.NewService(sess, roster, client, bus)
		svc.Start()
		DeferCleanup(svc.Stop)

		completes = nil
		DeferCleanup(bus.Subscribe(event.AgentSwitchComplete, func(e event.Event) {
			mu.Lock()
			defer mu.Unlock()
			completes = append(completes, e.Data.(event.AgentSwitchCompleteData))
		}))
	})

	completed := func() []event.AgentSwitchCompleteData {
		mu.Lock()
		defer mu.Unlock()
		out := make([]event.AgentSwitchCompleteData, len(completes))
		copy(out, completes)
		return out
	}

	It("activates an agent and appends a join notice", func() {
		rid, err := sess.Switch(ctx, "p")
		Expect(err).NotTo(HaveOccurred())
		Expect(rid).NotTo(BeEmpty())

		Eventually(func() agent.StateKind { return sess.State().Kind }).
			Should(Equal(agent.StateActive))
		Expect(sess.CurrentAgentID()).To(Equal("p"))

		Eventually(svc.Timeline).Should(HaveLen(1))
		notice := svc.Timeline()[0].Chat
		Expect(notice.Sender).To(Equal(types.SenderSystem))
		Expect(notice.Content).To(ContainSubstring("Patricia has joined the conversation"))

		Expect(backend.Switches()).To(HaveLen(1))
		Expect(backend.Switches()[0].RequestID).To(Equal(rid))
	})

	It("rejects agents not in the roster without touching the backend", func() {
		_, err := sess.Switch(ctx, "ghost")
		Expect(err).To(HaveOccurred())
		Expect(backend.Switches()).To(BeEmpty())
		Expect(sess.State().Kind).To(Equal(agent.StateIdle))
	})

	It("honors only the latest request when switches overlap", func() {
		gate := make(chan struct{})
		backend.SwitchHook(func(req rpctest.SwitchRequest) error {
			if req.AgentID == "t" {
				<-gate
			}
			return nil
		})

		rid1, err := sess.Switch(ctx, "t")
		Expect(err).NotTo(HaveOccurred())

		rid2, err := sess.Switch(ctx, "p")
		Expect(err).NotTo(HaveOccurred())
		Expect(rid2).NotTo(Equal(rid1))

		Eventually(func() string { return sess.CurrentAgentID() }).Should(Equal("p"))

		// Let the superseded response straggle in.
		close(gate)
		Eventually(func() int { return len(backend.Switches()) }).Should(Equal(2))

		Consistently(func() string { return sess.CurrentAgentID() }).Should(Equal("p"))
		Eventually(completed).Should(HaveLen(1))
		Expect(completed()[0].RequestID).To(Equal(rid2))
	})

	It("reverts to the previous agent when the backend refuses", func() {
		_, err := sess.Switch(ctx, "p")
		Expect(err).NotTo(HaveOccurred())
		Eventually(func() string { return sess.CurrentAgentID() }).Should(Equal("p"))

		backend.SwitchHook(func(rpctest.SwitchRequest) error {
			return errors.New("agent unavailable")
		})

		_, err = sess.Switch(ctx, "t")
		Expect(err).NotTo(HaveOccurred())

		Eventually(func() agent.StateKind { return sess.State().Kind }).
			Should(Equal(agent.StateActive))
		Expect(sess.CurrentAgentID()).To(Equal("p"))
	})
})
