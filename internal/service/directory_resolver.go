package service

import (
	"context"
	"fmt"
	"people_api/internal/config"
	"people_api/internal/model"
	"people_api/internal/repository"
	"sort"
	"strings"
)

// InheritMode 决定解析结果包含哪些子目录节点。
// 注意它只影响"包含哪些节点"，每个节点的 people 始终只是它自己的成员。
type InheritMode string

const (
	InheritNone     InheritMode = "none"
	InheritChildren InheritMode = "children"
	InheritAll      InheritMode = "all"
)

// ParseInheritMode 解析继承模式，空字符串按 all 处理。
func ParseInheritMode(raw string) (InheritMode, error) {
	switch mode := InheritMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "":
		return InheritAll, nil
	case InheritNone, InheritChildren, InheritAll:
		return mode, nil
	default:
		return "", invalidInput("directory_inherit must be one of none, children, all")
	}
}

// ResolveOptions 控制一次目录解析。Fields 为空表示全部字段。
type ResolveOptions struct {
	IncludeParent bool
	Inherit       InheritMode
	Fields        model.DirectoryFieldSet
}

// DefaultResolveOptions 包含目录自身并继承全部后代。
func DefaultResolveOptions() ResolveOptions {
	return ResolveOptions{IncludeParent: true, Inherit: InheritAll}
}

// TextSearcher 是全文检索后端：MySQL LIKE（PostRepository）或 Elasticsearch。
type TextSearcher interface {
	SearchIDs(ctx context.Context, postType, term string, limit int) ([]uint, error)
}

// DirectoryResolver 解析目录层级：父链、子目录/后代集合以及成员 id。
// 未知的目录 id 返回空结果而不是错误。
type DirectoryResolver interface {
	Resolve(ctx context.Context, directoryID uint, opts ResolveOptions) ([]model.ResolvedDirectory, error)
	// Get 返回单个目录，不存在时返回 nil。
	Get(ctx context.Context, directoryID uint, fields model.DirectoryFieldSet) (*model.ResolvedDirectory, error)
	Children(ctx context.Context, directoryID uint, fields model.DirectoryFieldSet) ([]model.ResolvedDirectory, error)
	Descendants(ctx context.Context, directoryID uint, fields model.DirectoryFieldSet) ([]model.ResolvedDirectory, error)
	// Path 返回祖先路径，最近的父目录在前，根目录在最后。
	Path(ctx context.Context, directoryID uint) ([]model.PathEntry, error)
	// PeopleIDs 返回目录（includeInherited 时加上全部后代）成员 id 的并集。
	PeopleIDs(ctx context.Context, directoryID uint, includeInherited bool) ([]uint, error)
	Search(ctx context.Context, term string, inheritChildren bool) ([]model.ResolvedDirectory, error)
}

type directoryResolver struct {
	directoryRepo    repository.DirectoryRepository
	searcher         TextSearcher
	postType         string
	searchLimit      int
	editLinkTemplate string
}

func NewDirectoryResolver(directoryRepo repository.DirectoryRepository, searcher TextSearcher, content config.ContentConfig) DirectoryResolver {
	limit := content.DirectorySearchLimit
	if limit <= 0 {
		limit = 50
	}
	return &directoryResolver{
		directoryRepo:    directoryRepo,
		searcher:         searcher,
		postType:         content.DirectoryPostType,
		searchLimit:      limit,
		editLinkTemplate: content.EditLinkTemplate,
	}
}

func (r *directoryResolver) Resolve(ctx context.Context, directoryID uint, opts ResolveOptions) ([]model.ResolvedDirectory, error) {
	tree, err := r.loadTree(ctx)
	if err != nil {
		return nil, err
	}
	return r.resolveIn(tree, directoryID, opts)
}

func (r *directoryResolver) Get(ctx context.Context, directoryID uint, fields model.DirectoryFieldSet) (*model.ResolvedDirectory, error) {
	dirs, err := r.Resolve(ctx, directoryID, ResolveOptions{IncludeParent: true, Inherit: InheritNone, Fields: fields})
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		return nil, nil
	}
	return &dirs[0], nil
}

func (r *directoryResolver) Children(ctx context.Context, directoryID uint, fields model.DirectoryFieldSet) ([]model.ResolvedDirectory, error) {
	return r.Resolve(ctx, directoryID, ResolveOptions{Inherit: InheritChildren, Fields: fields})
}

func (r *directoryResolver) Descendants(ctx context.Context, directoryID uint, fields model.DirectoryFieldSet) ([]model.ResolvedDirectory, error) {
	return r.Resolve(ctx, directoryID, ResolveOptions{Inherit: InheritAll, Fields: fields})
}

func (r *directoryResolver) Path(ctx context.Context, directoryID uint) ([]model.PathEntry, error) {
	tree, err := r.loadTree(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := tree.nodes[directoryID]; !ok {
		return []model.PathEntry{}, nil
	}
	return tree.path(directoryID)
}

func (r *directoryResolver) PeopleIDs(ctx context.Context, directoryID uint, includeInherited bool) ([]uint, error) {
	opts := ResolveOptions{
		IncludeParent: true,
		Inherit:       InheritNone,
		Fields:        model.NewDirectoryFieldSet(model.DirectoryFieldID, model.DirectoryFieldPeople),
	}
	if includeInherited {
		opts.Inherit = InheritAll
	}
	dirs, err := r.Resolve(ctx, directoryID, opts)
	if err != nil {
		return nil, err
	}
	return UnionPeopleIDs(dirs), nil
}

// Search 对目录做全文匹配，最多返回 searchLimit 条。
// 只命中一个目录且 inheritChildren 时，追加该目录的全部后代（不重复包含它自己）。
func (r *directoryResolver) Search(ctx context.Context, term string, inheritChildren bool) ([]model.ResolvedDirectory, error) {
	term = strings.TrimSpace(term)
	if term == "" || r.searcher == nil {
		return []model.ResolvedDirectory{}, nil
	}

	ids, err := r.searcher.SearchIDs(ctx, r.postType, term, r.searchLimit)
	if err != nil {
		return nil, err
	}
	tree, err := r.loadTree(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]model.ResolvedDirectory, 0, len(ids))
	for _, id := range ids {
		if len(results) >= r.searchLimit {
			break
		}
		if _, ok := tree.nodes[id]; !ok {
			// 检索后端可能包含未发布或已删除的目录
			continue
		}
		dir, err := r.project(tree, tree.nodes[id], nil)
		if err != nil {
			return nil, err
		}
		results = append(results, dir)
	}

	if len(results) == 1 && inheritChildren {
		children, err := r.resolveIn(tree, results[0].ID, ResolveOptions{Inherit: InheritAll})
		if err != nil {
			return nil, err
		}
		results = append(results, children...)
	}
	return results, nil
}

func (r *directoryResolver) loadTree(ctx context.Context) (*directoryTree, error) {
	nodes, err := r.directoryRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return newDirectoryTree(nodes), nil
}

func (r *directoryResolver) resolveIn(tree *directoryTree, directoryID uint, opts ResolveOptions) ([]model.ResolvedDirectory, error) {
	root, ok := tree.nodes[directoryID]
	if !ok {
		return []model.ResolvedDirectory{}, nil
	}

	var members []*model.DirectoryNode
	if opts.IncludeParent {
		members = append(members, root)
	}

	switch opts.Inherit {
	case InheritChildren:
		children, err := tree.descendants(directoryID, 1)
		if err != nil {
			return nil, err
		}
		members = append(members, children...)
	case InheritAll, "":
		all, err := tree.descendants(directoryID, -1)
		if err != nil {
			return nil, err
		}
		members = append(members, all...)
	}

	result := make([]model.ResolvedDirectory, 0, len(members))
	for _, node := range members {
		dir, err := r.project(tree, node, opts.Fields)
		if err != nil {
			return nil, err
		}
		result = append(result, dir)
	}
	return result, nil
}

// project 只计算被请求的字段。
func (r *directoryResolver) project(tree *directoryTree, node *model.DirectoryNode, fields model.DirectoryFieldSet) (model.ResolvedDirectory, error) {
	dir := model.ResolvedDirectory{Fields: fields}
	if fields.Has(model.DirectoryFieldID) {
		dir.ID = node.ID
	}
	if fields.Has(model.DirectoryFieldSlug) {
		dir.Slug = node.Slug
	}
	if fields.Has(model.DirectoryFieldTitle) {
		dir.Title = node.Title
	}
	if fields.Has(model.DirectoryFieldPeople) {
		dir.PeopleIDs = append([]uint{}, node.MemberPersonIDs...)
	}
	if fields.Has(model.DirectoryFieldPath) {
		path, err := tree.path(node.ID)
		if err != nil {
			return model.ResolvedDirectory{}, err
		}
		dir.Path = path
	}
	if fields.Has(model.DirectoryFieldEditLink) {
		dir.EditLink = r.editLink(node.ID)
	}
	return dir, nil
}

func (r *directoryResolver) editLink(id uint) string {
	if r.editLinkTemplate == "" {
		return ""
	}
	if strings.Contains(r.editLinkTemplate, "%d") {
		return fmt.Sprintf(r.editLinkTemplate, id)
	}
	return r.editLinkTemplate + fmt.Sprint(id)
}

// UnionPeopleIDs 合并多个目录的成员 id，按首次出现顺序去重。
func UnionPeopleIDs(dirs []model.ResolvedDirectory) []uint {
	ids := make([]uint, 0)
	seen := make(map[uint]struct{})
	for _, d := range dirs {
		for _, id := range d.PeopleIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// directoryTree 是一次请求内的目录快照：id -> 节点，父 id -> 有序子 id。
type directoryTree struct {
	nodes    map[uint]*model.DirectoryNode
	children map[uint][]uint
}

func newDirectoryTree(list []model.DirectoryNode) *directoryTree {
	tree := &directoryTree{
		nodes:    make(map[uint]*model.DirectoryNode, len(list)),
		children: make(map[uint][]uint),
	}
	for i := range list {
		node := &list[i]
		tree.nodes[node.ID] = node
	}
	for _, node := range tree.nodes {
		if node.ParentID != nil {
			tree.children[*node.ParentID] = append(tree.children[*node.ParentID], node.ID)
		}
	}
	// 同级目录按 menu_order、标题（不区分大小写）、id 排序，保证输出稳定
	for parent, ids := range tree.children {
		sort.Slice(ids, func(i, j int) bool {
			a, b := tree.nodes[ids[i]], tree.nodes[ids[j]]
			if a.MenuOrder != b.MenuOrder {
				return a.MenuOrder < b.MenuOrder
			}
			at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if at != bt {
				return at < bt
			}
			return a.ID < b.ID
		})
		tree.children[parent] = ids
	}
	return tree
}

// path 沿父链向上迭代，最近的祖先在前。父节点记录缺失时视为到达根。
// 重复访问同一节点说明数据中存在环，立即返回 ErrDirectoryCycle。
func (t *directoryTree) path(id uint) ([]model.PathEntry, error) {
	path := make([]model.PathEntry, 0)
	visited := map[uint]struct{}{id: {}}

	current, ok := t.nodes[id]
	if !ok {
		return path, nil
	}
	for current.ParentID != nil {
		parentID := *current.ParentID
		if _, seen := visited[parentID]; seen {
			return nil, fmt.Errorf("%w: directory %d revisited while walking ancestors of %d", ErrDirectoryCycle, parentID, id)
		}
		parent, ok := t.nodes[parentID]
		if !ok {
			break
		}
		visited[parentID] = struct{}{}
		path = append(path, model.PathEntry{ID: parent.ID, Slug: parent.Slug, Title: parent.Title})
		current = parent
	}
	return path, nil
}

// descendants 以深度优先先序返回后代节点，不含 id 自身。
// maxDepth < 0 表示不限深度，1 表示只取直接子目录。
func (t *directoryTree) descendants(id uint, maxDepth int) ([]*model.DirectoryNode, error) {
	type frame struct {
		id    uint
		depth int
	}

	result := make([]*model.DirectoryNode, 0)
	visited := map[uint]struct{}{id: {}}

	stack := make([]frame, 0)
	pushChildren := func(parent uint, depth int) error {
		kids := t.children[parent]
		for i := len(kids) - 1; i >= 0; i-- {
			if _, seen := visited[kids[i]]; seen {
				return fmt.Errorf("%w: directory %d reached twice below %d", ErrDirectoryCycle, kids[i], id)
			}
			visited[kids[i]] = struct{}{}
			stack = append(stack, frame{id: kids[i], depth: depth})
		}
		return nil
	}

	if err := pushChildren(id, 1); err != nil {
		return nil, err
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		result = append(result, t.nodes[top.id])

		if maxDepth < 0 || top.depth < maxDepth {
			if err := pushChildren(top.id, top.depth+1); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}
