package listing

import (
	"context"
	"errors"
	"fmt"

	"product-listing-service/internal/logger"
	"product-listing-service/internal/query"
	"product-listing-service/internal/store"
)

// categoryResolver turns requested ids and slugs into the category id set to restrict on.
type categoryResolver struct {
	categories store.CategoryStorer
}

// resolve returns the effective category ids. Requested ids are taken as given
// and never looked up; only an unknown slug is skipped, so the result may be
// empty. That is not an error.
func (r *categoryResolver) resolve(ctx context.Context, req *Request) ([]int64, error) {
	roots := append([]int64{}, req.CategoryIDs...)
	if req.CategorySlug != "" {
		cat, err := r.categories.GetCategoryBySlug(ctx, req.CategorySlug)
		switch {
		case err == nil:
			roots = append(roots, cat.ID)
		case errors.Is(err, store.ErrCategoryNotFound):
			logger.FromContext(ctx).Warn("Category slug not found, ignoring", "slug", req.CategorySlug)
		default:
			return nil, fmt.Errorf("listing: resolve category slug: %w", err)
		}
	}
	roots = uniqueIDs(roots)
	if !req.IncludeDescendants {
		return roots, nil
	}
	return r.expand(ctx, roots)
}

// expand replaces every root with its whole subtree. A root with no subtree,
// such as an id that does not exist, stays in the set as itself.
func (r *categoryResolver) expand(ctx context.Context, roots []int64) ([]int64, error) {
	var all []int64
	for _, root := range roots {
		ids, err := r.categories.ListDescendantIDs(ctx, root)
		if err != nil {
			return nil, fmt.Errorf("listing: expand category %d: %w", root, err)
		}
		if len(ids) == 0 {
			ids = []int64{root}
		}
		all = append(all, ids...)
	}
	return uniqueIDs(all), nil
}

// filter restricts to the resolved categories. It does nothing when the request
// is category-first, because the paginator partitions on categories itself.
func (r *categoryResolver) filter(ctx context.Context, q *query.Builder, c *call) (*query.Builder, error) {
	req := c.req
	if req.CategoryFirst || !req.hasCategoryScope() {
		return q, nil
	}
	ids, err := r.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		c.debug.UnresolvedCategory = true
		logger.FromContext(ctx).Warn("No category resolved, listing without category restriction",
			"category_ids", req.CategoryIDs, "slug", req.CategorySlug)
		return q, nil
	}
	c.debug.CategoryIDs = ids
	return q.Where(query.AnyOf("p.category_id", ids)), nil
}
