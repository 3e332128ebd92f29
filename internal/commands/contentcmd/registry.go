package contentcmd

import (
	"errors"

	"github.com/goliatone/go-kvcms/internal/commands"
	"github.com/goliatone/go-kvcms/internal/content"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

// HandlerSet groups the content item command handlers.
type HandlerSet struct {
	Publish      *PublishContentHandler
	DiscardDraft *DiscardDraftHandler
	Registration commands.Registration
}

// RegisterContentCommands builds the content item handlers, records them
// with registry when one is supplied, and subscribes them to the
// dispatcher when dispatch.Subscribe is set.
func RegisterContentCommands(registry commands.CommandRegistry, dispatch commands.DispatchOptions, service content.Service, provider interfaces.LoggerProvider) (*HandlerSet, error) {
	if service == nil {
		return nil, errors.New("content command registration: service is nil")
	}
	logger := commands.CommandLogger(provider, "content")
	set := &HandlerSet{
		Publish:      NewPublishContentHandler(service, logger),
		DiscardDraft: NewDiscardDraftHandler(service, logger),
	}
	if err := commands.Register[PublishContentCommand](&set.Registration, registry, dispatch, set.Publish); err != nil {
		return nil, err
	}
	if err := commands.Register[DiscardDraftCommand](&set.Registration, registry, dispatch, set.DiscardDraft); err != nil {
		set.Registration.Close()
		return nil, err
	}
	return set, nil
}
