package graft

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Option configures a Hydrate call.
type Option func(*options)

type options struct {
	onConflict func(*DuplicateIdentityConflict)
	logger     *slog.Logger
}

// WithConflictHandler registers fn to receive every DuplicateIdentityConflict
// detected during the call. fn runs synchronously on the hydrating goroutine.
func WithConflictHandler(fn func(*DuplicateIdentityConflict)) Option {
	return func(o *options) {
		o.onConflict = fn
	}
}

// WithLogger sets the logger used for conflict warnings and a debug summary.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Diagnostics collects conflicts. It may be shared by concurrent calls.
type Diagnostics struct {
	mu        sync.Mutex
	conflicts []*DuplicateIdentityConflict
}

// Option returns a conflict handler option that records into d.
func (d *Diagnostics) Option() Option {
	return WithConflictHandler(func(c *DuplicateIdentityConflict) {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.conflicts = append(d.conflicts, c)
	})
}

// Conflicts returns the conflicts recorded so far.
func (d *Diagnostics) Conflicts() []*DuplicateIdentityConflict {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*DuplicateIdentityConflict(nil), d.conflicts...)
}

// Err joins the recorded conflicts, or returns nil.
func (d *Diagnostics) Err() error {
	conflicts := d.Conflicts()
	errs := make([]error, len(conflicts))
	for i, c := range conflicts {
		errs[i] = c
	}
	return errors.Join(errs...)
}

// Hydrate consumes rows once and returns the parents in first-seen order,
// each holding its junctions in first-seen order.
//
// Rows of one parent need not be adjacent. A MalformedRowError or an
// IntegrityViolationError aborts the call and no parents are returned.
func Hydrate(rows RowSeq, spec KeySpec, opts ...Option) ([]*Parent, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	h := &hydrator{
		spec:      spec,
		index:     make(map[key]*Parent),
		junctions: make(map[key]*junctionNode),
		children:  make(map[key]*Child),
		parents:   []*Parent{},
	}
	for _, opt := range opts {
		opt(&h.opts)
	}
	if h.opts.logger == nil {
		h.opts.logger = slog.New(slog.DiscardHandler)
	}
	n := 0
	for row, err := range rows {
		if err != nil {
			return nil, fmt.Errorf("graft: row %d: %w", n, err)
		}
		if err := h.add(n, row); err != nil {
			return nil, err
		}
		n++
	}
	h.opts.logger.Debug("graft: hydrated",
		"rows", n, "parents", len(h.parents), "children", len(h.children), "conflicts", h.conflicts)
	return h.parents, nil
}

// junctionNode is a junction with the keys it references. A derived
// identity embeds both keys; an independent one does not.
type junctionNode struct {
	*Junction
	pk, ck    key
	pid, ckID any
}

type hydrator struct {
	spec      KeySpec
	opts      options
	parents   []*Parent
	index     map[key]*Parent
	junctions map[key]*junctionNode
	children  map[key]*Child
	conflicts int
}

func (h *hydrator) add(n int, row Row) error {
	if row.Parent.IsNull() {
		return NewMalformedRowError(n, "parent columns are all null")
	}
	pk, pid, missing := extractKey(row.Parent, h.spec.ParentKey)
	if missing != "" {
		return NewMalformedRowError(n, fmt.Sprintf("parent key column %q is null", missing))
	}
	node, ok := h.index[pk]
	if !ok {
		node = &Parent{
			ID:       pid,
			Fields:   fields(row.Parent, h.spec.ParentKey),
			Children: []*Junction{},
		}
		h.index[pk] = node
		h.parents = append(h.parents, node)
	} else if c, x, y, differ := diff(node.Fields, fields(row.Parent, h.spec.ParentKey)); differ {
		h.conflict(n, "parent", node.ID, c, x, y)
	}
	if row.Junction.IsNull() {
		if !row.Child.IsNull() {
			return NewMalformedRowError(n, "child columns are set but junction columns are all null")
		}
		return nil
	}
	return h.addJunction(n, node, pk, row)
}

func (h *hydrator) addJunction(n int, node *Parent, pk key, row Row) error {
	s := h.spec
	fk, fkID, missing := extractKey(row.Junction, s.ParentFK)
	if missing != "" {
		return NewIntegrityViolationError(n, missing, "junction does not reference a parent")
	}
	if fk != pk {
		return NewIntegrityViolationError(n, s.ParentFK[0],
			fmt.Sprintf("junction references parent %v but was joined to parent %v", fkID, node.ID))
	}
	ck, ckID, missing := extractKey(row.Junction, s.ChildFK)
	if missing != "" {
		return NewIntegrityViolationError(n, missing, "junction does not reference a child")
	}
	var (
		jk      key
		jid     any
		keyCols []string
	)
	if s.DeriveJunctionKey {
		jk = pk + ck
	} else {
		keyCols = s.JunctionKey
		jk, jid, missing = extractKey(row.Junction, s.JunctionKey)
		if missing != "" {
			return NewIntegrityViolationError(n, missing, "junction key is null")
		}
	}
	j, seen := h.junctions[jk]
	switch {
	case seen && j.pk != pk:
		h.conflict(n, "junction", jid, s.ParentFK[0], j.pid, fkID)
		return nil
	case seen && j.ck != ck:
		h.conflict(n, "junction", jid, s.ChildFK[0], j.ckID, ckID)
		return nil
	}
	child, err := h.child(n, row, ck, ckID)
	if err != nil {
		return err
	}
	jf := fields(row.Junction, keyCols, s.ParentFK, s.ChildFK)
	if seen {
		if c, x, y, differ := diff(j.Fields, jf); differ {
			identity := jid
			if s.DeriveJunctionKey {
				identity = []any{node.ID, ckID}
			}
			h.conflict(n, "junction", identity, c, x, y)
		}
		return nil
	}
	h.junctions[jk] = &junctionNode{
		Junction: &Junction{ID: jid, Fields: jf, Item: child},
		pk:       pk,
		ck:       ck,
		pid:      node.ID,
		ckID:     ckID,
	}
	node.Children = append(node.Children, h.junctions[jk].Junction)
	return nil
}

// child returns the child referenced by the junction of row, materializing
// it on first sight.
func (h *hydrator) child(n int, row Row, ck key, ckID any) (*Child, error) {
	s := h.spec
	if len(s.ChildKey) == 0 {
		return nil, nil
	}
	if row.Child.IsNull() {
		return nil, NewIntegrityViolationError(n, s.ChildFK[0],
			fmt.Sprintf("junction references child %v, which is not present", ckID))
	}
	k, id, missing := extractKey(row.Child, s.ChildKey)
	if missing != "" {
		return nil, NewIntegrityViolationError(n, missing, "child key is null")
	}
	if k != ck {
		return nil, NewIntegrityViolationError(n, s.ChildFK[0],
			fmt.Sprintf("junction references child %v but was joined to child %v", ckID, id))
	}
	cf := fields(row.Child, s.ChildKey)
	if c, ok := h.children[k]; ok {
		if col, x, y, differ := diff(c.Fields, cf); differ {
			h.conflict(n, "child", c.ID, col, x, y)
		}
		return c, nil
	}
	c := &Child{ID: id, Fields: cf}
	h.children[k] = c
	return c, nil
}

func (h *hydrator) conflict(n int, entity string, identity any, column string, first, conflicting any) {
	c := &DuplicateIdentityConflict{
		Row:         n,
		Entity:      entity,
		Identity:    identity,
		Column:      column,
		First:       first,
		Conflicting: conflicting,
	}
	h.conflicts++
	h.opts.logger.Warn("graft: conflicting duplicate discarded",
		"row", n, "entity", entity, "identity", identity, "column", column)
	if h.opts.onConflict != nil {
		h.opts.onConflict(c)
	}
}
