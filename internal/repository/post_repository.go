package repository

import (
	"context"
	"fmt"
	"people_api/internal/model"
	"strings"

	"gorm.io/gorm"
)

// MetaFilter 要求文章在 Keys 中任意一个元数据键上取值属于 Values（键之间为 OR）。
type MetaFilter struct {
	Keys   []string
	Values []string
}

// TaxonomyFilter 要求文章在该分类法下至少关联一个 Slugs 中的词条（IN 匹配）。
// 多个 TaxonomyFilter 之间为 AND。
type TaxonomyFilter struct {
	Taxonomy string
	Slugs    []string
}

// PostQuery 描述一次文章列表查询。
// IDs 为 nil 表示不按 id 过滤；非 nil 的空切片表示结果必然为空。
type PostQuery struct {
	PostType   string
	Status     string
	IDs        []uint
	Meta       []MetaFilter
	Taxonomies []TaxonomyFilter
	Search     string
	Limit      int // <= 0 表示不限制
	Offset     int
}

// PostRepository 定义内容库中文章、元数据的只读访问接口。
type PostRepository interface {
	FindPost(ctx context.Context, id uint, postType string) (*model.Post, error)
	// FindPostsByType 按 menu_order、title、id 升序返回某一类型、某一状态的全部文章。
	FindPostsByType(ctx context.Context, postType, status string) ([]model.Post, error)
	// FindMeta 批量读取元数据，keys 为空时读取全部键。同一键出现多次时保留第一条。
	FindMeta(ctx context.Context, postIDs []uint, keys []string) (map[uint]map[string]string, error)
	QueryPosts(ctx context.Context, q PostQuery) ([]model.Post, error)
	// SearchIDs 在标题和正文中做 LIKE 匹配，返回命中的文章 id。
	SearchIDs(ctx context.Context, postType, term string, limit int) ([]uint, error)
	// FindIDsByMeta 返回任意 keys 上取值属于 values 的文章 id。
	FindIDsByMeta(ctx context.Context, postType string, keys, values []string) ([]uint, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) FindPost(ctx context.Context, id uint, postType string) (*model.Post, error) {
	if id == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var post model.Post
	tx := r.db.WithContext(ctx).Where("id = ?", id)
	if postType != "" {
		tx = tx.Where("post_type = ?", postType)
	}
	if err := tx.First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) FindPostsByType(ctx context.Context, postType, status string) ([]model.Post, error) {
	if postType == "" {
		return nil, fmt.Errorf("post type is required")
	}

	var posts []model.Post
	tx := r.db.WithContext(ctx).Where("post_type = ?", postType)
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	if err := tx.Order("menu_order ASC, title ASC, id ASC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) FindMeta(ctx context.Context, postIDs []uint, keys []string) (map[uint]map[string]string, error) {
	result := make(map[uint]map[string]string, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	var rows []model.PostMeta
	tx := r.db.WithContext(ctx).Where("post_id IN ?", postIDs)
	if len(keys) > 0 {
		tx = tx.Where("meta_key IN ?", keys)
	}
	if err := tx.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		meta, ok := result[row.PostID]
		if !ok {
			meta = make(map[string]string)
			result[row.PostID] = meta
		}
		if _, exists := meta[row.MetaKey]; exists {
			continue
		}
		meta[row.MetaKey] = row.MetaValue
	}
	return result, nil
}

func (r *postRepository) QueryPosts(ctx context.Context, q PostQuery) ([]model.Post, error) {
	if q.PostType == "" {
		return nil, fmt.Errorf("post type is required")
	}
	if q.IDs != nil && len(q.IDs) == 0 {
		return []model.Post{}, nil
	}

	tx := r.db.WithContext(ctx).Model(&model.Post{}).Where("posts.post_type = ?", q.PostType)
	if q.Status != "" {
		tx = tx.Where("posts.status = ?", q.Status)
	}
	if q.IDs != nil {
		tx = tx.Where("posts.id IN ?", q.IDs)
	}
	for _, mf := range q.Meta {
		if len(mf.Keys) == 0 || len(mf.Values) == 0 {
			continue
		}
		tx = tx.Where("EXISTS (SELECT 1 FROM post_meta pm WHERE pm.post_id = posts.id AND pm.meta_key IN ? AND pm.meta_value IN ?)",
			mf.Keys, mf.Values)
	}
	for _, tf := range q.Taxonomies {
		if tf.Taxonomy == "" || len(tf.Slugs) == 0 {
			continue
		}
		tx = tx.Where("EXISTS (SELECT 1 FROM term_relationships tr JOIN terms t ON t.id = tr.term_id WHERE tr.post_id = posts.id AND t.taxonomy = ? AND t.slug IN ?)",
			tf.Taxonomy, tf.Slugs)
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		like := "%" + escapeLike(term) + "%"
		tx = tx.Where("(posts.title LIKE ? OR posts.content LIKE ?)", like, like)
	}

	tx = tx.Order("posts.title ASC, posts.id ASC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
		if q.Offset > 0 {
			tx = tx.Offset(q.Offset)
		}
	}

	var posts []model.Post
	if err := tx.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) SearchIDs(ctx context.Context, postType, term string, limit int) ([]uint, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []uint{}, nil
	}

	like := "%" + escapeLike(term) + "%"
	tx := r.db.WithContext(ctx).Model(&model.Post{}).
		Where("post_type = ?", postType).
		Where("(title LIKE ? OR content LIKE ?)", like, like).
		Order("title ASC, id ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var ids []uint
	if err := tx.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *postRepository) FindIDsByMeta(ctx context.Context, postType string, keys, values []string) ([]uint, error) {
	if len(keys) == 0 || len(values) == 0 {
		return []uint{}, nil
	}

	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.Post{}).
		Where("post_type = ?", postType).
		Where("EXISTS (SELECT 1 FROM post_meta pm WHERE pm.post_id = posts.id AND pm.meta_key IN ? AND pm.meta_value IN ?)", keys, values).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// escapeLike 转义 LIKE 通配符，避免用户输入被当作模式。
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
