// Package notify delivers threshold requests as desktop popups, showing each
// alarm once per transition into the alarmed state.
package notify

import (
	"fmt"

	"github.com/cptspacemanspiff/battery-alert/internal/alert"
)

// StateStore persists the last alarm state per key.
type StateStore interface {
	Previous(key string) (bool, error)
	Record(key string, active bool) error
}

// Popup renders a notification.
type Popup interface {
	Show(title, body string) error
}

// EdgeDelegate implements alert.Delegate on top of a StateStore and a Popup.
type EdgeDelegate struct {
	store StateStore
	popup Popup
}

// NewEdgeDelegate creates an EdgeDelegate.
func NewEdgeDelegate(store StateStore, popup Popup) *EdgeDelegate {
	return &EdgeDelegate{store: store, popup: popup}
}

// Deliver records req.Active and shows the popup when the alarm is active
// and, for edge-only requests, was not active on the previous run. The new
// state is recorded before showing so a failing notification server does
// not cause a burst of popups once it comes back.
func (d *EdgeDelegate) Deliver(req alert.Request) (alert.Outcome, error) {
	prev, err := d.store.Previous(req.StatePath)
	if err != nil {
		return alert.Inactive, err
	}
	if err := d.store.Record(req.StatePath, req.Active); err != nil {
		return alert.Inactive, err
	}

	if !req.Active {
		return alert.Inactive, nil
	}
	if req.EdgeOnly && prev {
		return alert.AlreadyNotified, nil
	}
	if err := d.popup.Show(req.Title, req.Message); err != nil {
		return alert.Notified, fmt.Errorf("show popup: %w", err)
	}
	return alert.Notified, nil
}
