package integration_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/DeanoC/AIWhisperer-sub003/internal/agent"
	"github.com/DeanoC/AIWhisperer-sub003/internal/event"
	"github.com/DeanoC/AIWhisperer-sub003/internal/rpc"
	"github.com/DeanoC/AIWhisperer-sub003/internal/session"
	"github.com/DeanoC/AIWhisperer-sub003/internal/timeline"
	"github.com/DeanoC/AIWhisperer-sub003/pkg/types"
)

var _ = Describe("Channel Streaming", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		bus    *event.Bus
		client *rpc.Client
		svc    *session.Service
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		DeferCleanup(cancel)

		bus = event.NewBus()
		DeferCleanup(func() { _ = bus.Close() })

		client = rpc.NewClient(backend.URL())

		roster := agent.NewRegistry()
		agents, err := client.ListAgents(ctx)
		Expect(err).NotTo(HaveOccurred())
		roster.Replace(agents)

		svc = session.NewService(agent.NewSession(roster, client, bus), roster, client, bus)
		svc.Start()
		DeferCleanup(svc.Stop)

		msgs, _ := client.Events(ctx)
		go func() {
			for msg := range msgs {
				bus.PublishSync(event.Event{
					Type: event.ChannelMessage,
					Data: event.ChannelMessageData{Message: msg},
				})
			}
		}()

		// Give the SSE subscription a moment to register server side.
		time.Sleep(50 * time.Millisecond)
	})

	It("delivers streamed channel messages into the timeline", func() {
		backend.PushEvent(types.ChannelMessage{
			ID: "m1", Channel: types.ChannelFinal, Content: "hello", Sequence: 1, Partial: true,
		})

		Eventually(svc.Channels).Should(HaveLen(1))
		Expect(svc.Timeline()).To(HaveLen(1))
		Expect(svc.Timeline()[0].Kind).To(Equal(timeline.KindChannel))
		Expect(svc.Timeline()[0].Channel.Content).To(Equal("hello"))
	})

	It("replaces content cumulatively without growing the timeline", func() {
		backend.PushEvent(types.ChannelMessage{
			ID: "m1", Channel: types.ChannelAnalysis, Content: "Thinking", Sequence: 1, Partial: true,
		})
		backend.PushEvent(types.ChannelMessage{
			ID: "m1", Channel: types.ChannelAnalysis, Content: "Thinking about X", Sequence: 2, Partial: true,
		})
		backend.PushEvent(types.ChannelMessage{
			ID: "m1", Channel: types.ChannelAnalysis, Content: "Final answer", Sequence: 3, Partial: false,
		})

		Eventually(func() string {
			msgs := svc.Channels()
			if len(msgs) != 1 {
				return ""
			}
			return msgs[0].Content
		}).Should(Equal("Final answer"))

		Expect(svc.Timeline()).To(HaveLen(1))
		Expect(svc.Timeline()[0].Channel.Partial).To(BeFalse())
	})

	It("drops stale sequence numbers", func() {
		backend.PushEvent(types.ChannelMessage{
			ID: "m1", Channel: types.ChannelCommentary, Content: "newer", Sequence: 5,
		})
		Eventually(svc.Channels).Should(HaveLen(1))

		backend.PushEvent(types.ChannelMessage{
			ID: "m1", Channel: types.ChannelCommentary, Content: "older", Sequence: 3,
		})
		backend.PushEvent(types.ChannelMessage{
			ID: "m2", Channel: types.ChannelCommentary, Content: "marker", Sequence: 1,
		})

		// The marker arriving proves the stale update was processed first.
		Eventually(svc.Channels).Should(HaveLen(2))
		Expect(svc.Channels()[0].Content).To(Equal("newer"))
	})

	It("keeps hidden channels counted but out of the visible set", func() {
		backend.PushEvent(types.ChannelMessage{
			ID: "a1", Channel: types.ChannelAnalysis, Content: "reasoning", Sequence: 1,
		})
		backend.PushEvent(types.ChannelMessage{
			ID: "f1", Channel: types.ChannelFinal, Content: "answer", Sequence: 1,
		})
		Eventually(svc.Channels).Should(HaveLen(2))

		result := svc.Visible(types.VisibilityPreferences{})
		Expect(result.Visible).To(HaveLen(1))
		Expect(result.Visible[0].Channel).To(Equal(types.ChannelFinal))
		Expect(result.Counts[types.ChannelAnalysis]).To(Equal(1))
		Expect(result.Counts[types.ChannelFinal]).To(Equal(1))
	})

	It("interleaves chat and channel entries by arrival", func() {
		_, err := svc.SendUserMessage(ctx, "first question")
		Expect(err).NotTo(HaveOccurred())

		backend.PushEvent(types.ChannelMessage{
			ID: "f1", Channel: types.ChannelFinal, Content: "first answer", Sequence: 1,
		})
		Eventually(svc.Channels).Should(HaveLen(1))

		_, err = svc.SendUserMessage(ctx, "second question")
		Expect(err).NotTo(HaveOccurred())

		entries := svc.Timeline()
		Expect(entries).To(HaveLen(3))
		Expect(entries[0].Kind).To(Equal(timeline.KindChat))
		Expect(entries[1].Kind).To(Equal(timeline.KindChannel))
		Expect(entries[2].Kind).To(Equal(timeline.KindChat))
		Expect(backend.Messages()).To(Equal([]string{"first question", "second question"}))
	})
})
