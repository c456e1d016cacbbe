package stmtql

import (
	"strings"

	"github.com/zoobzio/stmtql/internal/render"
	"github.com/zoobzio/stmtql/internal/serialize"
	"github.com/zoobzio/stmtql/internal/types"
	"github.com/zoobzio/stmtql/model"
)

// includeNode is one resolved eager load.
type includeNode struct {
	assoc    *model.Association
	path     string // dot-joined aliases, e.g. posts.comments
	alias    string // table alias, e.g. posts->comments
	parent   *includeNode
	required bool
	where    any
	attrs    *types.AttributeOptions
	children []*includeNode

	// Junction of a many-to-many include.
	throughPath  string
	throughAlias string
	throughWhere any
	throughAttrs *types.AttributeOptions
}

func (n *includeNode) target() *model.Model {
	return n.assoc.Target
}

// resolveIncludes walks an include tree depth first, expanding wildcards
// and resolving every entry to an association of its parent.
func resolveIncludes(parent *model.Model, parentNode *includeNode, incs []types.Include) ([]*includeNode, error) {
	expanded, err := expandAll(parent, parentNode, incs)
	if err != nil {
		return nil, err
	}

	nodes := make([]*includeNode, 0, len(expanded))
	seen := make(map[string]bool, len(expanded))
	for _, inc := range expanded {
		assoc, err := lookupAssociation(parent, inc)
		if err != nil {
			return nil, err
		}
		if seen[assoc.As] {
			return nil, render.DuplicateAliasError{Alias: assoc.As, Parent: parentName(parent, parentNode)}
		}
		seen[assoc.As] = true

		n := &includeNode{
			assoc:  assoc,
			path:   assoc.As,
			alias:  assoc.As,
			parent: parentNode,
			where:  inc.Where,
			attrs:  inc.Attributes,
		}
		if parentNode != nil {
			n.path = parentNode.path + "." + assoc.As
			n.alias = parentNode.alias + "->" + assoc.As
		}
		if assoc.Kind == model.BelongsToMany {
			n.throughPath = n.path + "." + assoc.Through.Name
			n.throughAlias = n.alias + "->" + assoc.Through.Name
			if inc.Through != nil {
				n.throughWhere = inc.Through.Where
				n.throughAttrs = inc.Through.Attributes
			}
		}

		n.children, err = resolveIncludes(assoc.Target, n, inc.Include)
		if err != nil {
			return nil, err
		}

		switch {
		case inc.Required != nil:
			n.required = *inc.Required
		case !types.IsEmptyPredicate(inc.Where):
			n.required = true
		default:
			for _, child := range n.children {
				if child.required {
					n.required = true
					break
				}
			}
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func parentName(m *model.Model, n *includeNode) string {
	if n != nil {
		return n.path
	}
	return m.Name
}

func lookupAssociation(parent *model.Model, inc types.Include) (*model.Association, error) {
	var (
		assoc *model.Association
		ok    bool
		ref   string
	)
	switch {
	case inc.Association != "":
		ref = inc.Association
		assoc, ok = parent.Association(inc.Association)
	case inc.Model != "":
		ref = inc.Model
		if inc.As != "" {
			ref = inc.Model + " as " + inc.As
		}
		assoc, ok = parent.AssociationTo(inc.Model, inc.As)
	default:
		ref = "(empty include)"
	}
	if ok {
		return assoc, nil
	}
	err := render.InvalidAssociationReferenceError{Model: parent.Name, Reference: ref}
	switch {
	case !types.IsEmptyPredicate(inc.Where):
		err.Option = "where"
	case inc.Required != nil:
		err.Option = "required"
	}
	return nil, err
}

// expandAll replaces wildcard entries with one include per association not
// listed explicitly, in declaration order.
func expandAll(parent *model.Model, parentNode *includeNode, incs []types.Include) ([]types.Include, error) {
	hasAll := false
	explicit := make(map[string]bool)
	for _, inc := range incs {
		if inc.All {
			hasAll = true
			continue
		}
		if assoc, err := lookupAssociation(parent, inc); err == nil {
			explicit[assoc.As] = true
		}
	}
	if !hasAll {
		return incs, nil
	}

	out := make([]types.Include, 0, len(incs))
	for _, inc := range incs {
		if !inc.All {
			out = append(out, inc)
			continue
		}
		var kind model.Kind
		if inc.AllKind != "" {
			k, err := model.ParseKind(inc.AllKind)
			if err != nil {
				return nil, err
			}
			kind = k
		}
		for _, assoc := range parent.Associations() {
			if explicit[assoc.As] || (kind != 0 && assoc.Kind != kind) {
				continue
			}
			explicit[assoc.As] = true
			generated := types.Include{Association: assoc.As}
			if inc.Nested && !onChain(parent, parentNode, assoc.Target) {
				generated.Include = []types.Include{{All: true, AllKind: inc.AllKind, Nested: true}}
			}
			out = append(out, generated)
		}
	}
	return out, nil
}

// onChain reports whether m already appears on the include chain, which
// stops nested wildcards from recursing through cyclic associations.
func onChain(parent *model.Model, n *includeNode, m *model.Model) bool {
	if parent == m {
		return true
	}
	for ; n != nil; n = n.parent {
		if n.assoc.Source == m || n.target() == m {
			return true
		}
	}
	return false
}

// walk visits nodes depth first, parents before children.
func walk(nodes []*includeNode, fn func(*includeNode)) {
	for _, n := range nodes {
		fn(n)
		walk(n.children, fn)
	}
}

// includePaths maps every include path to its table for $path.attr$ keys.
func includePaths(nodes []*includeNode) map[string]serialize.Table {
	paths := make(map[string]serialize.Table)
	walk(nodes, func(n *includeNode) {
		paths[n.path] = serialize.Table{Alias: n.alias, Model: n.target()}
		if n.throughPath != "" {
			paths[n.throughPath] = serialize.Table{Alias: n.throughAlias, Model: n.assoc.Through}
		}
	})
	return paths
}

// hasMultiple reports whether any include can multiply parent rows.
func hasMultiple(nodes []*includeNode) bool {
	found := false
	walk(nodes, func(n *includeNode) {
		if n.assoc.Multiple() {
			found = true
		}
	})
	return found
}

// findPath resolves an order path of association aliases.
func findPath(nodes []*includeNode, path []string) (*includeNode, bool) {
	want := strings.Join(path, ".")
	var found *includeNode
	walk(nodes, func(n *includeNode) {
		if n.path == want {
			found = n
		}
	})
	return found, found != nil
}
