package download

import (
	"context"

	"github.com/marmos91/dittozip/internal/logger"
	"github.com/marmos91/dittozip/pkg/store/catalog"
)

// Resolver expands a caller selection into item descriptors.
//
// Ordering contract:
//   - folder requests are expanded first, in request order
//   - a files-only folder request contributes its immediate files
//   - a recursive folder request contributes every descendant, and each
//     folder appears after all of its own descendants; the requested folder
//     itself is not part of the result
//   - file requests are looked up in one batch and appended last
//
// IDs that resolve to nothing are dropped. Each item appears at most once.
type Resolver struct {
	store catalog.Store
}

// NewResolver creates a Resolver reading from store.
func NewResolver(store catalog.Store) *Resolver {
	return &Resolver{store: store}
}

// resolution accumulates the result of one Resolve call.
type resolution struct {
	items   []*catalog.Item
	seen    map[catalog.ItemID]struct{}
	visited map[catalog.ItemID]struct{}
}

func (r *resolution) add(items ...*catalog.Item) {
	for _, item := range items {
		if _, dup := r.seen[item.ID]; dup {
			continue
		}
		r.seen[item.ID] = struct{}{}
		r.items = append(r.items, item)
	}
}

// Resolve expands requested into an ordered list of items.
//
// Returns:
//   - error: *StoreAccessError when the catalog is unreachable,
//     *ProcessingError for any other catalog failure
func (r *Resolver) Resolve(ctx context.Context, requested []catalog.RequestedItem) ([]*catalog.Item, error) {
	res := &resolution{
		seen:    make(map[catalog.ItemID]struct{}),
		visited: make(map[catalog.ItemID]struct{}),
	}

	var leaves []catalog.ItemID
	for _, req := range requested {
		switch {
		case req.IsFile:
			leaves = append(leaves, req.ID)

		case req.FilesOnly:
			files, err := r.store.ListFiles(ctx, req.ID)
			if dropped(err) {
				logger.Debug("Skipping files of unresolvable folder %s: %v", req.ID, err)
				continue
			}
			if err != nil {
				return nil, classify("resolve", err)
			}
			res.add(files...)

		default:
			if err := r.expand(ctx, res, req.ID); err != nil {
				return nil, classify("resolve", err)
			}
		}
	}

	if len(leaves) > 0 {
		found, err := r.store.FindItems(ctx, leaves)
		if err != nil {
			return nil, classify("resolve", err)
		}
		for _, item := range found {
			if item.IsFile() {
				res.add(item)
			}
		}
	}

	return res.items, nil
}

// frame is one folder listing being walked.
type frame struct {
	children []*catalog.Item
	next     int
}

// expand appends the descendants of folderID in post-order using an
// explicit stack. Folders already visited are not listed again, so
// malformed trees with cycles terminate.
func (r *Resolver) expand(ctx context.Context, res *resolution, folderID catalog.ItemID) error {
	if _, ok := res.visited[folderID]; ok {
		return nil
	}
	res.visited[folderID] = struct{}{}

	children, err := r.store.ListChildren(ctx, folderID)
	if dropped(err) {
		logger.Debug("Skipping unresolvable folder %s: %v", folderID, err)
		return nil
	}
	if err != nil {
		return err
	}

	stack := []*frame{{children: children}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		top := stack[len(stack)-1]
		if top.next == len(top.children) {
			stack = stack[:len(stack)-1]
			res.add(top.children...)
			continue
		}

		child := top.children[top.next]
		top.next++
		if !child.IsFolder() {
			continue
		}
		if _, ok := res.visited[child.ID]; ok {
			continue
		}
		res.visited[child.ID] = struct{}{}

		grandChildren, err := r.store.ListChildren(ctx, child.ID)
		if dropped(err) {
			continue
		}
		if err != nil {
			return err
		}
		stack = append(stack, &frame{children: grandChildren})
	}
	return nil
}

// dropped reports catalog errors that mean "nothing to resolve here".
func dropped(err error) bool {
	return catalog.IsNotFound(err) || catalog.IsCode(err, catalog.ErrNotFolder)
}
