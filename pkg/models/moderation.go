package models

import "fmt"

// ModerationState is the position of a product in the moderation pipeline.
type ModerationState string

const (
	StatePendingUncategorized ModerationState = "pending_uncategorized"
	StatePendingCategorized   ModerationState = "pending_categorized"
	StateConfirmed            ModerationState = "confirmed"
	StateDeleted              ModerationState = "deleted"
)

// ModerationEvent is an admin action applied to a product under moderation.
type ModerationEvent string

const (
	EventCategorize          ModerationEvent = "categorize"
	EventApprove             ModerationEvent = "approve"
	EventApproveWithoutPhoto ModerationEvent = "approve_without_photo"
	EventReject              ModerationEvent = "reject"
	EventSendBack            ModerationEvent = "send_back"
)

// IsPending reports whether the state is one of the pending states.
func (s ModerationState) IsPending() bool {
	return s == StatePendingUncategorized || s == StatePendingCategorized
}

// StateOf derives the moderation state of a stored product.
func StateOf(p *Product) ModerationState {
	if p.IsConfirmed {
		return StateConfirmed
	}
	if OptionalString(StringValue(p.Category)) == nil {
		return StatePendingUncategorized
	}
	return StatePendingCategorized
}

// Transition validates an event against the product and returns the resulting state.
// The photo guard for EventApprove lives here so every caller goes through it.
func Transition(p *Product, event ModerationEvent) (ModerationState, error) {
	from := StateOf(p)
	switch event {
	case EventCategorize:
		if !from.IsPending() {
			break
		}
		return StatePendingCategorized, nil
	case EventApprove:
		if !from.IsPending() {
			break
		}
		if !p.HasImage() {
			return from, ErrNoImage
		}
		return StateConfirmed, nil
	case EventApproveWithoutPhoto:
		if !from.IsPending() {
			break
		}
		return StateConfirmed, nil
	case EventReject:
		if !from.IsPending() {
			break
		}
		return StateDeleted, nil
	case EventSendBack:
		if from != StateConfirmed {
			break
		}
		if OptionalString(StringValue(p.Category)) == nil {
			return StatePendingUncategorized, nil
		}
		return StatePendingCategorized, nil
	}
	return from, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, from)
}
