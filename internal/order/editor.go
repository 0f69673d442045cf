package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sabor-pos/api/internal/gateway"
)

// Editor opens persisted orders for editing and saves the edited session
// back through the gateway.
type Editor struct {
	gw   gateway.Gateway
	clip *ExtrasClipboard
}

// NewEditor creates an Editor.
func NewEditor(gw gateway.Gateway, clip *ExtrasClipboard) *Editor {
	return &Editor{gw: gw, clip: clip}
}

// Open fetches the order and hydrates a fresh edit session from it.
func (e *Editor) Open(ctx context.Context, orderID uuid.UUID) (*Draft, error) {
	o, err := e.gw.FetchOrderWithItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("fetch order: %w", err)
	}
	return NewDraftFromOrder(o), nil
}

// Save reconciles the session against its original snapshot and applies
// the resulting plan. The returned plan carries the new authoritative
// totals. The session's clipboard scope is cleared on success.
func (e *Editor) Save(ctx context.Context, d *Draft) (*Plan, error) {
	plan, err := Reconcile(d)
	if err != nil {
		return nil, err
	}
	if err := Apply(ctx, e.gw, plan); err != nil {
		return nil, err
	}
	e.clip.Clear(d.OrderID.String())
	return plan, nil
}

// CopyExtras puts a line's extras on the session's clipboard.
func (e *Editor) CopyExtras(d *Draft, id LineIdentity) error {
	line, ok := d.find(id)
	if !ok {
		return ErrUnknownLine
	}
	e.clip.Copy(d.OrderID.String(), line.Extras)
	return nil
}

// PasteExtras stamps the clipboard's extras onto a line. Subject to the
// same rule as SetExtras: only new or replaced lines accept extras edits.
func (e *Editor) PasteExtras(d *Draft, id LineIdentity) error {
	extras, ok := e.clip.Paste(d.OrderID.String())
	if !ok {
		return nil
	}
	return d.SetExtras(id, extras)
}
