package integration_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/DeanoC/AIWhisperer-sub003/internal/command"
	"github.com/DeanoC/AIWhisperer-sub003/internal/rpc"
)

var _ = Describe("Command Dispatch", func() {
	var (
		ctx        context.Context
		dispatcher *command.Dispatcher
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend.SetCommands([]string{"help", "status", "agents", "clear", "session.switch_agent"})
		dispatcher = command.NewDispatcher(rpc.NewClient(backend.URL()))
	})

	It("discovers the backend's command set", func() {
		names := dispatcher.Discover(ctx)
		Expect(names).To(ContainElement("session.switch_agent"))
		Expect(dispatcher.Degraded()).To(BeFalse())
	})

	It("falls back to built-ins when discovery fails", func() {
		backend.FailDiscovery(true)

		names := dispatcher.Discover(ctx)
		Expect(dispatcher.Degraded()).To(BeTrue())
		Expect(names).To(ContainElements("help", "status", "agents", "clear"))

		// Known built-ins still dispatch against the live backend.
		result, err := dispatcher.Dispatch(ctx, "/help")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Output).To(Equal("ran help"))
	})

	It("dispatches slash input with arguments", func() {
		dispatcher.Discover(ctx)

		result, err := dispatcher.Dispatch(ctx, "/status --verbose")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Output).To(Equal("ran status"))

		sent := backend.Dispatched()
		Expect(sent).To(HaveLen(1))
		Expect(sent[0]["command"]).To(Equal("status"))
	})

	It("dispatches structured JSON input", func() {
		dispatcher.Discover(ctx)

		_, err := dispatcher.Dispatch(ctx, `{"command": "session.switch_agent", "agent": "p"}`)
		Expect(err).NotTo(HaveOccurred())

		sent := backend.Dispatched()
		Expect(sent).To(HaveLen(1))
		Expect(sent[0]["command"]).To(Equal("session.switch_agent"))
	})

	It("suggests a near miss for unknown commands", func() {
		dispatcher.Discover(ctx)

		_, err := dispatcher.Dispatch(ctx, "/stattus")
		Expect(err).To(HaveOccurred())

		var derr *command.DispatchError
		Expect(errors.As(err, &derr)).To(BeTrue())
		Expect(derr.Suggestion).To(Equal("status"))
		Expect(backend.Dispatched()).To(BeEmpty())
	})
})
