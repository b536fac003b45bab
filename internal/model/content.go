package model

import "time"

// Post 对应内容库中的 posts 表。人员档案、目录、附件都是 Post，通过 PostType 区分。
// ParentID 为 0 表示没有父节点。
type Post struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PostType  string    `gorm:"type:varchar(64);not null;index:idx_posts_type_status" json:"post_type"`
	Status    string    `gorm:"type:varchar(20);not null;default:'publish';index:idx_posts_type_status" json:"status"`
	Slug      string    `gorm:"type:varchar(200);index" json:"slug"`
	Title     string    `gorm:"type:text" json:"title"`
	Content   string    `gorm:"type:longtext" json:"content"`
	ParentID  uint      `gorm:"not null;default:0;index" json:"parent_id"`
	MenuOrder int       `gorm:"not null;default:0" json:"menu_order"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定 GORM 使用的表名
func (Post) TableName() string {
	return "posts"
}

// PostMeta 是挂在 Post 上的任意键值元数据。
type PostMeta struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    uint   `gorm:"not null;index" json:"post_id"`
	MetaKey   string `gorm:"type:varchar(255);not null;index" json:"meta_key"`
	MetaValue string `gorm:"type:longtext" json:"meta_value"`
}

func (PostMeta) TableName() string {
	return "post_meta"
}

// Term 是分类法中的一个词条，同一分类法内 slug 唯一，ParentID 为 0 表示根词条。
type Term struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Taxonomy string `gorm:"type:varchar(64);not null;uniqueIndex:idx_terms_taxonomy_slug" json:"taxonomy"`
	Slug     string `gorm:"type:varchar(200);not null;uniqueIndex:idx_terms_taxonomy_slug" json:"slug"`
	Name     string `gorm:"type:varchar(200);not null" json:"name"`
	ParentID uint   `gorm:"not null;default:0" json:"parent"`
}

func (Term) TableName() string {
	return "terms"
}

// TermRelationship 把词条关联到 Post 上。
type TermRelationship struct {
	PostID uint `gorm:"primaryKey" json:"post_id"`
	TermID uint `gorm:"primaryKey" json:"term_id"`
}

func (TermRelationship) TableName() string {
	return "term_relationships"
}

// PostTerm 是批量查询文章词条时的投影。
type PostTerm struct {
	PostID uint
	Term
}
