package repository

import (
	"context"
	"fmt"
	"people_api/internal/model"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TermRepository 定义分类词条的持久化操作。
// 词条按 ParentID 组成树，和目录一样 0 表示根。
type TermRepository interface {
	FindBySlug(ctx context.Context, taxonomy, slug string) (*model.Term, error)
	// SearchByNamePrefix 按名称前缀匹配，结果按名称升序，最多 limit 条。
	SearchByNamePrefix(ctx context.Context, taxonomy, prefix string, limit int) ([]model.Term, error)
	FindByTaxonomy(ctx context.Context, taxonomy string) ([]model.Term, error)
	// FindByPosts 批量读取文章关联的词条，taxonomies 为空时不过滤分类法。
	FindByPosts(ctx context.Context, postIDs []uint, taxonomies []string) (map[uint][]model.Term, error)
	Create(ctx context.Context, term *model.Term) error

	// SetPostTerm 在事务中为一组文章统一添加（attach=true）或移除词条，
	// 返回实际受影响的关联行数。任何一步失败都会回滚，不会部分生效。
	SetPostTerm(ctx context.Context, postIDs []uint, termID uint, attach bool) (int64, error)
}

type termRepository struct {
	db *gorm.DB
}

func NewTermRepository(db *gorm.DB) TermRepository {
	return &termRepository{db: db}
}

func (r *termRepository) FindBySlug(ctx context.Context, taxonomy, slug string) (*model.Term, error) {
	if taxonomy == "" || slug == "" {
		return nil, fmt.Errorf("taxonomy and slug are required")
	}

	var term model.Term
	if err := r.db.WithContext(ctx).
		Where("taxonomy = ? AND slug = ?", taxonomy, slug).
		First(&term).Error; err != nil {
		return nil, err
	}
	return &term, nil
}

func (r *termRepository) SearchByNamePrefix(ctx context.Context, taxonomy, prefix string, limit int) ([]model.Term, error) {
	var terms []model.Term

	tx := r.db.WithContext(ctx).Where("taxonomy = ?", taxonomy)
	if p := strings.TrimSpace(prefix); p != "" {
		tx = tx.Where("name LIKE ?", escapeLike(p)+"%")
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Order("name ASC, id ASC").Find(&terms).Error; err != nil {
		return nil, err
	}
	return terms, nil
}

func (r *termRepository) FindByTaxonomy(ctx context.Context, taxonomy string) ([]model.Term, error) {
	var terms []model.Term
	if err := r.db.WithContext(ctx).
		Where("taxonomy = ?", taxonomy).
		Order("name ASC, id ASC").
		Find(&terms).Error; err != nil {
		return nil, err
	}
	return terms, nil
}

func (r *termRepository) FindByPosts(ctx context.Context, postIDs []uint, taxonomies []string) (map[uint][]model.Term, error) {
	result := make(map[uint][]model.Term, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	var rows []model.PostTerm
	tx := r.db.WithContext(ctx).
		Table("term_relationships").
		Select("term_relationships.post_id, terms.id, terms.taxonomy, terms.slug, terms.name, terms.parent_id").
		Joins("JOIN terms ON terms.id = term_relationships.term_id").
		Where("term_relationships.post_id IN ?", postIDs)
	if len(taxonomies) > 0 {
		tx = tx.Where("terms.taxonomy IN ?", taxonomies)
	}
	if err := tx.Order("terms.name ASC, terms.id ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.PostID] = append(result[row.PostID], row.Term)
	}
	return result, nil
}

func (r *termRepository) Create(ctx context.Context, term *model.Term) error {
	if term == nil {
		return fmt.Errorf("term is nil")
	}
	if term.Taxonomy == "" || term.Slug == "" || term.Name == "" {
		return fmt.Errorf("taxonomy, slug and name are required")
	}
	return r.db.WithContext(ctx).Create(term).Error
}

func (r *termRepository) SetPostTerm(ctx context.Context, postIDs []uint, termID uint, attach bool) (int64, error) {
	if termID == 0 {
		return 0, fmt.Errorf("term id is required")
	}
	if len(postIDs) == 0 {
		return 0, nil
	}

	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if attach {
			rels := make([]model.TermRelationship, 0, len(postIDs))
			for _, id := range postIDs {
				rels = append(rels, model.TermRelationship{PostID: id, TermID: termID})
			}
			// 已存在的关联保持不变
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rels)
			if res.Error != nil {
				return res.Error
			}
			affected = res.RowsAffected
			return nil
		}

		res := tx.Where("post_id IN ? AND term_id = ?", postIDs, termID).Delete(&model.TermRelationship{})
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}
