package commands

import (
	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
)

// CommandRegistry is the minimal registration contract used when wiring
// handlers into a host application.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// Subscription releases a dispatcher registration.
type Subscription interface {
	Unsubscribe()
}

// Registration collects the outcome of registering a handler set.
type Registration struct {
	Handlers      []any
	Subscriptions []Subscription
}

// Close releases every dispatcher subscription.
func (r *Registration) Close() {
	if r == nil {
		return
	}
	for _, sub := range r.Subscriptions {
		sub.Unsubscribe()
	}
	r.Subscriptions = nil
}

// DispatchOptions controls whether handlers are subscribed to the go-command
// dispatcher and how failed executions are retried.
type DispatchOptions struct {
	Subscribe  bool
	MaxRetries int
}

// Register records handler with the registry and, when enabled, subscribes
// it to the dispatcher.
func Register[T command.Message](reg *Registration, registry CommandRegistry, dispatch DispatchOptions, handler command.Commander[T]) error {
	if registry != nil {
		if err := registry.RegisterCommand(handler); err != nil {
			return err
		}
	}
	reg.Handlers = append(reg.Handlers, handler)
	if dispatch.Subscribe {
		sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(dispatch.MaxRetries))
		reg.Subscriptions = append(reg.Subscriptions, sub)
	}
	return nil
}
