// Package commenttree 将扁平评论列表组装为回复树，以及树的展开、局部更新与排序
package commenttree

import (
	"sort"

	"syntagma/internal/model"
)

// Node 评论树节点
type Node struct {
	model.Comment
	Children []*Node `json:"replies"`
	Score    int64   `json:"score"`
	// Orphaned 父评论已不存在，节点被提升为根
	Orphaned bool `json:"orphaned,omitempty"`
}

// SortKey 排序字段
type SortKey string

const (
	SortByCreatedAt SortKey = "created_at"
	SortByScore     SortKey = "score"
)

// Build 按输入顺序组装森林
// 父评论缺失（或形成环）的评论作为根，并标记 Orphaned
func Build(flat []model.Comment) []*Node {
	nodes := make(map[string]*Node, len(flat))
	order := make([]*Node, 0, len(flat))
	for i := range flat {
		// 重复 ID 只保留一个节点，内容以后出现者为准
		if existing, ok := nodes[flat[i].ID]; ok {
			existing.Comment = flat[i]
			continue
		}
		n := &Node{Comment: flat[i], Children: []*Node{}}
		nodes[n.ID] = n
		order = append(order, n)
	}

	attached := make(map[*Node]*Node, len(flat))
	forest := make([]*Node, 0)
	for _, n := range order {
		parent := lookupParent(nodes, n)
		if parent != nil && !reaches(attached, parent, n) {
			parent.Children = append(parent.Children, n)
			attached[n] = parent
			continue
		}
		n.Orphaned = n.ParentID != nil
		forest = append(forest, n)
	}

	for _, n := range order {
		n.Score = n.Upvotes - n.Downvotes
	}
	return forest
}

func lookupParent(nodes map[string]*Node, n *Node) *Node {
	if n.ParentID == nil {
		return nil
	}
	return nodes[*n.ParentID]
}

// reaches 判断从 from 沿已挂接的父链能否到达 target
func reaches(attached map[*Node]*Node, from, target *Node) bool {
	for cur := from; cur != nil; cur = attached[cur] {
		if cur == target {
			return true
		}
	}
	return false
}

// Flatten 先序遍历展开森林，父节点总在其后代之前
func Flatten(forest []*Node) []model.Comment {
	out := make([]model.Comment, 0, Count(forest))
	var walk func([]*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			out = append(out, n.Comment)
			walk(n.Children)
		}
	}
	walk(forest)
	return out
}

// UpdateAtID 深度优先查找 id 并替换为 fn 的结果
// 仅复制从根到目标的路径，其余节点保持原引用；未找到时原样返回
func UpdateAtID(forest []*Node, id string, fn func(Node) Node) []*Node {
	updated, ok := updateIn(forest, id, fn)
	if !ok {
		return forest
	}
	return updated
}

func updateIn(nodes []*Node, id string, fn func(Node) Node) ([]*Node, bool) {
	for i, n := range nodes {
		if n.ID == id {
			replaced := fn(*n)
			return replaceAt(nodes, i, &replaced), true
		}
		if children, ok := updateIn(n.Children, id, fn); ok {
			copied := *n
			copied.Children = children
			return replaceAt(nodes, i, &copied), true
		}
	}
	return nodes, false
}

func replaceAt(nodes []*Node, i int, n *Node) []*Node {
	out := make([]*Node, len(nodes))
	copy(out, nodes)
	out[i] = n
	return out
}

// Find 深度优先查找节点
func Find(forest []*Node, id string) *Node {
	for _, n := range forest {
		if n.ID == id {
			return n
		}
		if found := Find(n.Children, id); found != nil {
			return found
		}
	}
	return nil
}

// Count 节点总数
func Count(forest []*Node) int {
	total := 0
	for _, n := range forest {
		total += 1 + Count(n.Children)
	}
	return total
}

// Sort 返回按 key 降序（稳定）递归排序后的新森林，输入不被修改
func Sort(forest []*Node, key SortKey) []*Node {
	out := make([]*Node, len(forest))
	for i, n := range forest {
		copied := *n
		copied.Children = Sort(n.Children, key)
		out[i] = &copied
	}

	sort.SliceStable(out, func(i, j int) bool {
		switch key {
		case SortByScore:
			return out[i].Score > out[j].Score
		default:
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
	})
	return out
}
