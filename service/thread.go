package service

import (
	"sort"

	"github.com/dapphub-labs/dapphub/models"
)

// BuildThread assembles an unordered batch of comment projections into a
// forest. Nodes live in a flat arena indexed by comment id; children are
// attached by index so deep threads never grow the call stack.
//
// A parent id that is not in the batch demotes the comment to a root rather
// than failing: comment logs are windowed and the parent may simply be
// outside the fetched page.
//
// Roots are ordered newest first (latest discussion entry point on top);
// each node's replies are ordered oldest first (a conversation reads in
// chronological order).
func BuildThread(comments []models.Comment) []*models.CommentNode {
	arena := make([]*models.CommentNode, len(comments))
	index := make(map[string]int, len(comments))
	for i, comment := range comments {
		arena[i] = &models.CommentNode{Comment: comment, Replies: []*models.CommentNode{}}
		index[comment.ID] = i
	}

	roots := make([]*models.CommentNode, 0, len(comments))
	for i, node := range arena {
		parentIdx, ok := index[node.ParentID]
		if node.ParentID == "" || !ok || parentIdx == i {
			roots = append(roots, node)
			continue
		}
		parent := arena[parentIdx]
		parent.Replies = append(parent.Replies, node)
	}

	for _, node := range arena {
		sort.SliceStable(node.Replies, func(i, j int) bool {
			return node.Replies[i].CreatedAtMs < node.Replies[j].CreatedAtMs
		})
	}
	sort.SliceStable(roots, func(i, j int) bool {
		return roots[i].CreatedAtMs > roots[j].CreatedAtMs
	})
	return roots
}
