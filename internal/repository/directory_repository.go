package repository

import (
	"context"
	"people_api/internal/model"
	"people_api/pkg/cache"
	"people_api/pkg/log"
	"time"
)

// DirectoryRepository 提供目录树的快照读取。
// 目录数量很少（百级），解析器一次性加载全部节点后在内存里遍历。
type DirectoryRepository interface {
	FindAll(ctx context.Context) ([]model.DirectoryNode, error)
}

type directoryRepository struct {
	posts      PostRepository
	postType   string
	status     string
	membersKey string
}

// NewDirectoryRepository 基于 PostRepository 构建目录仓库。
// postType/status 限定目录文章，membersKey 是保存成员 id（逗号分隔）的元数据键。
func NewDirectoryRepository(posts PostRepository, postType, status, membersKey string) DirectoryRepository {
	return &directoryRepository{
		posts:      posts,
		postType:   postType,
		status:     status,
		membersKey: membersKey,
	}
}

func (r *directoryRepository) FindAll(ctx context.Context) ([]model.DirectoryNode, error) {
	posts, err := r.posts.FindPostsByType(ctx, r.postType, r.status)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return []model.DirectoryNode{}, nil
	}

	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	meta, err := r.posts.FindMeta(ctx, ids, []string{r.membersKey})
	if err != nil {
		return nil, err
	}

	nodes := make([]model.DirectoryNode, 0, len(posts))
	for _, p := range posts {
		node := model.DirectoryNode{
			ID:              p.ID,
			Slug:            p.Slug,
			Title:           p.Title,
			MenuOrder:       p.MenuOrder,
			MemberPersonIDs: model.ParseIDList(meta[p.ID][r.membersKey]),
		}
		if p.ParentID != 0 {
			parent := p.ParentID
			node.ParentID = &parent
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// cachedDirectoryRepository 在 Redis 中缓存目录树快照。
// 缓存是尽力而为的：读写失败只记日志并回源，TTL 限定了数据变化后的最长滞后时间。
type cachedDirectoryRepository struct {
	inner DirectoryRepository
	store cache.Store
	key   string
	ttl   time.Duration
}

func NewCachedDirectoryRepository(inner DirectoryRepository, store cache.Store, key string, ttl time.Duration) DirectoryRepository {
	if store == nil || ttl <= 0 {
		return inner
	}
	return &cachedDirectoryRepository{inner: inner, store: store, key: key, ttl: ttl}
}

func (r *cachedDirectoryRepository) FindAll(ctx context.Context) ([]model.DirectoryNode, error) {
	var nodes []model.DirectoryNode
	hit, err := r.store.GetJSON(ctx, r.key, &nodes)
	if err != nil {
		log.Warnw("directory cache read failed", "key", r.key, "error", err)
	} else if hit {
		return nodes, nil
	}

	nodes, err = r.inner.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.store.SetJSON(ctx, r.key, nodes, r.ttl); err != nil {
		log.Warnw("directory cache write failed", "key", r.key, "error", err)
	}
	return nodes, nil
}
