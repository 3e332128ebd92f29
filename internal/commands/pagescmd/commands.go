package pagescmd

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	publishPageMessageType          = "cms.pages.publish"
	discardPageDraftMessageType     = "cms.pages.discard_draft"
	publishPageItemMessageType      = "cms.pages.items.publish"
	discardPageItemDraftMessageType = "cms.pages.items.discard_draft"
)

// PublishPageCommand promotes the stored page value to its published slot.
type PublishPageCommand struct {
	BusinessUnitKey string `json:"businessUnitKey"`
	Key             string `json:"key"`
	ClearDraft      bool   `json:"clearDraft"`
}

func (PublishPageCommand) Type() string { return publishPageMessageType }

func (m PublishPageCommand) Validate() error {
	return validateEntity(m.BusinessUnitKey, m.Key)
}

type DiscardPageDraftCommand struct {
	BusinessUnitKey string `json:"businessUnitKey"`
	Key             string `json:"key"`
}

func (DiscardPageDraftCommand) Type() string { return discardPageDraftMessageType }

func (m DiscardPageDraftCommand) Validate() error {
	return validateEntity(m.BusinessUnitKey, m.Key)
}

// PublishPageItemCommand publishes Value for a page item. Unlike pages,
// page items publish the value supplied by the caller.
type PublishPageItemCommand struct {
	BusinessUnitKey string         `json:"businessUnitKey"`
	Key             string         `json:"key"`
	Value           map[string]any `json:"value"`
	ClearDraft      bool           `json:"clearDraft"`
}

func (PublishPageItemCommand) Type() string { return publishPageItemMessageType }

func (m PublishPageItemCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.BusinessUnitKey, validation.Required),
		validation.Field(&m.Key, validation.Required),
		validation.Field(&m.Value, validation.NotNil.Error("Value is required in the request body")),
	)
}

type DiscardPageItemDraftCommand struct {
	BusinessUnitKey string `json:"businessUnitKey"`
	Key             string `json:"key"`
}

func (DiscardPageItemDraftCommand) Type() string { return discardPageItemDraftMessageType }

func (m DiscardPageItemDraftCommand) Validate() error {
	return validateEntity(m.BusinessUnitKey, m.Key)
}

func validateEntity(businessUnitKey, key string) error {
	return validation.Errors{
		"businessUnitKey": validation.Validate(businessUnitKey, validation.Required),
		"key":             validation.Validate(key, validation.Required),
	}.Filter()
}
