// Package notify schedules the one-shot alert that fires when a reminder unlocks.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/julianstephens/dearbaby/internal/constants"
)

var ErrClosed = errors.New("scheduler is closed")

// Request is a single scheduled alert. ID is the reminder id, so scheduling the
// same reminder again replaces the earlier request.
type Request struct {
	ID     string
	FireAt time.Time
	Title  string
	Body   string
}

// Scheduler registers and cancels one-shot alerts. Schedule with an id that is
// already pending replaces it; Cancel of an unknown id is a no-op.
type Scheduler interface {
	Schedule(ctx context.Context, req Request) error
	Cancel(ctx context.Context, id string) error
}

// Deliverer shows a fired alert to the user.
type Deliverer interface {
	Deliver(ctx context.Context, req Request) error
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, req Request) error

func (f DelivererFunc) Deliver(ctx context.Context, req Request) error { return f(ctx, req) }

// Payload returns the alert title and body for a memory's reminder.
func Payload(memoryTitle, notes string) (title, body string) {
	title = constants.NotificationTitlePrefix + memoryTitle
	body = notes
	if body == "" {
		body = constants.DefaultNotificationBody
	}
	return title, body
}

// NewRequest builds the request for reminder id firing at fireAt.
func NewRequest(id string, fireAt time.Time, memoryTitle, notes string) Request {
	title, body := Payload(memoryTitle, notes)
	return Request{ID: id, FireAt: fireAt, Title: title, Body: body}
}
