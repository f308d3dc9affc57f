package integration_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/DeanoC/AIWhisperer-sub003/internal/event"
	"github.com/DeanoC/AIWhisperer-sub003/internal/rpc"
	"github.com/DeanoC/AIWhisperer-sub003/internal/workspace"
	"github.com/DeanoC/AIWhisperer-sub003/pkg/types"
)

var _ = Describe("Workspace Saves", func() {
	var (
		ctx    context.Context
		client *rpc.Client
		bus    *event.Bus
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = rpc.NewClient(backend.URL())
		bus = event.NewBus()
		DeferCleanup(func() { _ = bus.Close() })
	})

	It("routes saves through the agent conversation by default", func() {
		coord := workspace.NewCoordinator(client, client, types.SaveConfig{}, bus)
		coord.MarkDirty("notes.md")

		Expect(coord.Save(ctx, "notes.md", "# Notes")).To(Succeed())

		Expect(backend.Writes()).To(BeEmpty())
		msgs := backend.Messages()
		Expect(msgs).To(HaveLen(1))
		Expect(msgs[0]).To(ContainSubstring("notes.md"))
		Expect(msgs[0]).To(ContainSubstring("# Notes"))
		Expect(coord.Dirty("notes.md")).To(BeFalse())
	})

	It("writes directly when force direct is configured", func() {
		coord := workspace.NewCoordinator(client, client, types.SaveConfig{ForceDirect: true}, bus)
		coord.MarkDirty("notes.md")

		Expect(coord.Save(ctx, "notes.md", "# Notes")).To(Succeed())

		Expect(backend.Messages()).To(BeEmpty())
		Expect(backend.Writes()).To(HaveLen(1))
		Expect(backend.Writes()[0].Content).To(Equal("# Notes"))

		// Round trip through the file API.
		content, err := coord.Open(ctx, "notes.md")
		Expect(err).NotTo(HaveOccurred())
		Expect(content).To(Equal("# Notes"))
	})

	It("matches force-direct glob patterns against the path", func() {
		cfg := types.SaveConfig{ForceDirectPatterns: []string{"**/*.lock"}}
		coord := workspace.NewCoordinator(client, client, cfg, bus)

		Expect(coord.Save(ctx, "deps/tool.lock", "v1")).To(Succeed())
		Expect(coord.Save(ctx, "readme.md", "hi")).To(Succeed())

		Expect(backend.Writes()).To(HaveLen(1))
		Expect(backend.Writes()[0].Path).To(Equal("deps/tool.lock"))
		Expect(backend.Messages()).To(HaveLen(1))
	})

	It("keeps the file dirty when a direct write is refused", func() {
		backend.FailWrites(true)

		coord := workspace.NewCoordinator(client, nil, types.SaveConfig{ForceDirect: true}, bus)
		coord.MarkDirty("notes.md")

		err := coord.Save(ctx, "notes.md", "# Notes")
		Expect(err).To(HaveOccurred())
		Expect(coord.Dirty("notes.md")).To(BeTrue())

		backend.FailWrites(false)
		Expect(coord.Save(ctx, "notes.md", "# Notes")).To(Succeed())
		Expect(coord.Dirty("notes.md")).To(BeFalse())
	})

	It("lists the workspace tree", func() {
		coord := workspace.NewCoordinator(client, nil, types.SaveConfig{ForceDirect: true}, bus)
		Expect(coord.Save(ctx, "a.txt", "a")).To(Succeed())
		Expect(coord.Save(ctx, "b.txt", "b")).To(Succeed())

		nodes, err := coord.ListTree(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(nodes).To(HaveLen(2))
	})
})
