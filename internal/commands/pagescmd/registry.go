package pagescmd

import (
	"errors"

	"github.com/goliatone/go-kvcms/internal/commands"
	"github.com/goliatone/go-kvcms/internal/content"
	"github.com/goliatone/go-kvcms/internal/pages"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

// HandlerSet groups the page and page item command handlers.
type HandlerSet struct {
	Publish          *Handler[PublishPageCommand]
	DiscardDraft     *Handler[DiscardPageDraftCommand]
	PublishItem      *Handler[PublishPageItemCommand]
	DiscardItemDraft *Handler[DiscardPageItemDraftCommand]
	Registration     commands.Registration
}

func RegisterPageCommands(registry commands.CommandRegistry, dispatch commands.DispatchOptions, service pages.Service, items content.Service, provider interfaces.LoggerProvider) (*HandlerSet, error) {
	if service == nil || items == nil {
		return nil, errors.New("page command registration: services are required")
	}
	logger := commands.CommandLogger(provider, "pages")
	set := &HandlerSet{
		Publish:          NewPublishPageHandler(service, logger),
		DiscardDraft:     NewDiscardPageDraftHandler(service, logger),
		PublishItem:      NewPublishPageItemHandler(items, logger),
		DiscardItemDraft: NewDiscardPageItemDraftHandler(items, logger),
	}

	steps := []func() error{
		func() error { return commands.Register[PublishPageCommand](&set.Registration, registry, dispatch, set.Publish) },
		func() error { return commands.Register[DiscardPageDraftCommand](&set.Registration, registry, dispatch, set.DiscardDraft) },
		func() error { return commands.Register[PublishPageItemCommand](&set.Registration, registry, dispatch, set.PublishItem) },
		func() error {
			return commands.Register[DiscardPageItemDraftCommand](&set.Registration, registry, dispatch, set.DiscardItemDraft)
		},
	}
	for _, register := range steps {
		if err := register(); err != nil {
			set.Registration.Close()
			return nil, err
		}
	}
	return set, nil
}
