package contentcmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-kvcms/internal/commands"
	"github.com/goliatone/go-kvcms/internal/content"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

const publishContentMessageType = "cms.content.publish"

// PublishContentCommand promotes Value to the published slot of a content item.
type PublishContentCommand struct {
	BusinessUnitKey string         `json:"businessUnitKey"`
	Key             string         `json:"key"`
	Value           map[string]any `json:"value"`
	ClearDraft      bool           `json:"clearDraft"`
}

func (PublishContentCommand) Type() string { return publishContentMessageType }

func (m PublishContentCommand) Validate() error {
	errs := validation.Errors{}
	if m.BusinessUnitKey == "" {
		errs["businessUnitKey"] = validation.NewError("cms.content.publish.business_unit_required", "businessUnitKey is required")
	}
	if m.Key == "" {
		errs["key"] = validation.NewError("cms.content.publish.key_required", "key is required")
	}
	if m.Value == nil {
		errs["value"] = validation.NewError("cms.content.publish.value_required", "Value is required in the request body")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PublishContentHandler struct {
	inner *commands.Handler[PublishContentCommand]
}

// NewPublishContentHandler publishes through service. service may be the
// content item service or the page item service.
func NewPublishContentHandler(service content.Service, logger interfaces.Logger, opts ...commands.HandlerOption[PublishContentCommand]) *PublishContentHandler {
	exec := func(ctx context.Context, msg PublishContentCommand) error {
		_, err := service.Publish(ctx, msg.BusinessUnitKey, msg.Key, msg.Value, msg.ClearDraft)
		return err
	}

	handlerOpts := []commands.HandlerOption[PublishContentCommand]{
		commands.WithLogger[PublishContentCommand](logger),
		commands.WithOperation[PublishContentCommand]("content.publish"),
		commands.WithMessageFields[PublishContentCommand](func(msg PublishContentCommand) map[string]any {
			fields := commands.EntityFields(msg.BusinessUnitKey, msg.Key)
			fields["clear_draft"] = msg.ClearDraft
			return fields
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PublishContentHandler{
		inner: commands.NewHandler[PublishContentCommand](exec, handlerOpts...),
	}
}

func (h *PublishContentHandler) Execute(ctx context.Context, msg PublishContentCommand) error {
	return h.inner.Execute(ctx, msg)
}
