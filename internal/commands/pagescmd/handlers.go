package pagescmd

import (
	"context"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-kvcms/internal/commands"
	"github.com/goliatone/go-kvcms/internal/content"
	"github.com/goliatone/go-kvcms/internal/pages"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

// Handler is the go-command Commander produced for each page command.
type Handler[T command.Message] struct {
	inner *commands.Handler[T]
}

func (h *Handler[T]) Execute(ctx context.Context, msg T) error {
	return h.inner.Execute(ctx, msg)
}

func newHandler[T command.Message](exec command.CommandFunc[T], logger interfaces.Logger, operation string, fields commands.MessageFields[T], opts []commands.HandlerOption[T]) *Handler[T] {
	handlerOpts := []commands.HandlerOption[T]{
		commands.WithLogger[T](logger),
		commands.WithOperation[T](operation),
		commands.WithMessageFields[T](fields),
	}
	return &Handler[T]{inner: commands.NewHandler[T](exec, append(handlerOpts, opts...)...)}
}

func NewPublishPageHandler(service pages.Service, logger interfaces.Logger, opts ...commands.HandlerOption[PublishPageCommand]) *Handler[PublishPageCommand] {
	return newHandler[PublishPageCommand](func(ctx context.Context, msg PublishPageCommand) error {
		_, err := service.Publish(ctx, msg.BusinessUnitKey, msg.Key, msg.ClearDraft)
		return err
	}, logger, "pages.publish", func(msg PublishPageCommand) map[string]any {
		fields := commands.EntityFields(msg.BusinessUnitKey, msg.Key)
		fields["clear_draft"] = msg.ClearDraft
		return fields
	}, opts)
}

func NewDiscardPageDraftHandler(service pages.Service, logger interfaces.Logger, opts ...commands.HandlerOption[DiscardPageDraftCommand]) *Handler[DiscardPageDraftCommand] {
	return newHandler[DiscardPageDraftCommand](func(ctx context.Context, msg DiscardPageDraftCommand) error {
		_, err := service.DiscardDraft(ctx, msg.BusinessUnitKey, msg.Key)
		return err
	}, logger, "pages.discard_draft", func(msg DiscardPageDraftCommand) map[string]any {
		return commands.EntityFields(msg.BusinessUnitKey, msg.Key)
	}, opts)
}

func NewPublishPageItemHandler(items content.Service, logger interfaces.Logger, opts ...commands.HandlerOption[PublishPageItemCommand]) *Handler[PublishPageItemCommand] {
	return newHandler[PublishPageItemCommand](func(ctx context.Context, msg PublishPageItemCommand) error {
		_, err := items.Publish(ctx, msg.BusinessUnitKey, msg.Key, msg.Value, msg.ClearDraft)
		return err
	}, logger, "pages.items.publish", func(msg PublishPageItemCommand) map[string]any {
		fields := commands.EntityFields(msg.BusinessUnitKey, msg.Key)
		fields["clear_draft"] = msg.ClearDraft
		return fields
	}, opts)
}

func NewDiscardPageItemDraftHandler(items content.Service, logger interfaces.Logger, opts ...commands.HandlerOption[DiscardPageItemDraftCommand]) *Handler[DiscardPageItemDraftCommand] {
	return newHandler[DiscardPageItemDraftCommand](func(ctx context.Context, msg DiscardPageItemDraftCommand) error {
		_, err := items.DiscardDraft(ctx, msg.BusinessUnitKey, msg.Key)
		return err
	}, logger, "pages.items.discard_draft", func(msg DiscardPageItemDraftCommand) map[string]any {
		return commands.EntityFields(msg.BusinessUnitKey, msg.Key)
	}, opts)
}
