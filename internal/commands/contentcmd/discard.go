package contentcmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-kvcms/internal/commands"
	"github.com/goliatone/go-kvcms/internal/content"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

const discardDraftMessageType = "cms.content.discard_draft"

// DiscardDraftCommand drops the draft slot of a content item and restores
// its published value.
type DiscardDraftCommand struct {
	BusinessUnitKey string `json:"businessUnitKey"`
	Key             string `json:"key"`
}

func (DiscardDraftCommand) Type() string { return discardDraftMessageType }

func (m DiscardDraftCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.BusinessUnitKey, validation.Required),
		validation.Field(&m.Key, validation.Required),
	)
}

type DiscardDraftHandler struct {
	inner *commands.Handler[DiscardDraftCommand]
}

func NewDiscardDraftHandler(service content.Service, logger interfaces.Logger, opts ...commands.HandlerOption[DiscardDraftCommand]) *DiscardDraftHandler {
	exec := func(ctx context.Context, msg DiscardDraftCommand) error {
		_, err := service.DiscardDraft(ctx, msg.BusinessUnitKey, msg.Key)
		return err
	}

	handlerOpts := []commands.HandlerOption[DiscardDraftCommand]{
		commands.WithLogger[DiscardDraftCommand](logger),
		commands.WithOperation[DiscardDraftCommand]("content.discard_draft"),
		commands.WithMessageFields[DiscardDraftCommand](func(msg DiscardDraftCommand) map[string]any {
			return commands.EntityFields(msg.BusinessUnitKey, msg.Key)
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &DiscardDraftHandler{
		inner: commands.NewHandler[DiscardDraftCommand](exec, handlerOpts...),
	}
}

func (h *DiscardDraftHandler) Execute(ctx context.Context, msg DiscardDraftCommand) error {
	return h.inner.Execute(ctx, msg)
}
