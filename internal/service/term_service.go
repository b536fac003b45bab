package service

import (
	"context"
	"errors"
	"people_api/internal/config"
	"people_api/internal/model"
	"people_api/internal/repository"
	"sort"
	"strings"
	"unicode"

	"gorm.io/gorm"
)

const maxTermSearchCount = 100

// 组织同步动作
const (
	SyncActionAdd    = "add"
	SyncActionRemove = "remove"
)

// SyncResult 是一次组织同步的结果。Matched 是命中的档案数，Changed 是实际新增/删除的关联数。
type SyncResult struct {
	Nid     string `json:"nid"`
	Org     string `json:"org"`
	Action  string `json:"action"`
	Matched int    `json:"matched"`
	Changed int64  `json:"changed"`
}

// TermService 封装分类词条的查询以及组织词条的写操作。
// taxonomy 参数既可以是分类组 key（university_organization / university-organization），
// 也可以是内容库中的分类法名称。
type TermService interface {
	Search(ctx context.Context, taxonomy, prefix string, count int) ([]model.Term, error)
	ListAll(ctx context.Context, taxonomy string) ([]model.Term, error)
	// ListGrouped 返回全部已配置分类组的词条，按分类组 key 分组。
	ListGrouped(ctx context.Context) (map[string][]model.Term, error)
	CreateOrganization(ctx context.Context, name, parentSlug string) (*model.Term, error)
	SyncOrganization(ctx context.Context, nid, orgSlug, action string) (*SyncResult, error)
}

type termService struct {
	termRepo repository.TermRepository
	postRepo repository.PostRepository
	content  config.ContentConfig
}

func NewTermService(termRepo repository.TermRepository, postRepo repository.PostRepository, content config.ContentConfig) TermService {
	return &termService{termRepo: termRepo, postRepo: postRepo, content: content}
}

func (s *termService) Search(ctx context.Context, taxonomy, prefix string, count int) ([]model.Term, error) {
	if s.termRepo == nil {
		return nil, ErrInternal
	}
	tax, err := s.resolveTaxonomy(taxonomy)
	if err != nil {
		return nil, err
	}

	if count <= 0 {
		count = s.content.TermSearchLimit
	}
	if count <= 0 {
		count = 10
	}
	if count > maxTermSearchCount {
		count = maxTermSearchCount
	}

	terms, err := s.termRepo.SearchByNamePrefix(ctx, tax, strings.TrimSpace(prefix), count)
	if err != nil {
		return nil, err
	}
	if terms == nil {
		terms = []model.Term{}
	}
	return terms, nil
}

func (s *termService) ListAll(ctx context.Context, taxonomy string) ([]model.Term, error) {
	if s.termRepo == nil {
		return nil, ErrInternal
	}
	tax, err := s.resolveTaxonomy(taxonomy)
	if err != nil {
		return nil, err
	}
	terms, err := s.termRepo.FindByTaxonomy(ctx, tax)
	if err != nil {
		return nil, err
	}
	if terms == nil {
		terms = []model.Term{}
	}
	return terms, nil
}

func (s *termService) ListGrouped(ctx context.Context) (map[string][]model.Term, error) {
	if s.termRepo == nil {
		return nil, ErrInternal
	}

	groups := s.content.Taxonomies.All()
	keys := make([]string, 0, len(groups))
	for key, tax := range groups {
		if tax != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	out := make(map[string][]model.Term, len(keys))
	for _, key := range keys {
		terms, err := s.termRepo.FindByTaxonomy(ctx, groups[key])
		if err != nil {
			return nil, err
		}
		if terms == nil {
			terms = []model.Term{}
		}
		out[key] = terms
	}
	return out, nil
}

// CreateOrganization 在组织分类法下创建词条。
// 关键规则：
// 1. name 必填，slug 由 name 生成，同一分类法下不能重复。
// 2. 指定 parentSlug 时父词条必须存在。
func (s *termService) CreateOrganization(ctx context.Context, name, parentSlug string) (*model.Term, error) {
	if s.termRepo == nil {
		return nil, ErrInternal
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("tag_name is required")
	}
	slug := Slugify(name)
	if slug == "" {
		return nil, invalidInput("tag_name must contain letters or digits")
	}
	tax := s.content.Taxonomies.UniversityOrganization
	if tax == "" {
		return nil, ErrInternal
	}

	// 先检查 slug 是否已存在，避免数据库唯一键报错直接外泄。
	_, err := s.termRepo.FindBySlug(ctx, tax, slug)
	if err == nil {
		return nil, ErrTermAlreadyExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var parentID uint
	if parentSlug = strings.TrimSpace(parentSlug); parentSlug != "" {
		parent, err := s.termRepo.FindBySlug(ctx, tax, parentSlug)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTermNotFound
			}
			return nil, err
		}
		parentID = parent.ID
	}

	term := &model.Term{Taxonomy: tax, Slug: slug, Name: name, ParentID: parentID}
	if err := s.termRepo.Create(ctx, term); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrTermAlreadyExists
		}
		return nil, err
	}
	return term, nil
}

// SyncOrganization 为 nid 匹配到的全部人员档案添加或移除组织词条。
// 所有参数在写入前完成校验，写入在同一个事务中完成。
func (s *termService) SyncOrganization(ctx context.Context, nid, orgSlug, action string) (*SyncResult, error) {
	if s.termRepo == nil || s.postRepo == nil {
		return nil, ErrInternal
	}

	nid = strings.TrimSpace(nid)
	orgSlug = strings.TrimSpace(orgSlug)
	action = strings.ToLower(strings.TrimSpace(action))
	switch {
	case nid == "":
		return nil, invalidInput("nid is required")
	case orgSlug == "":
		return nil, invalidInput("org is required")
	case action != SyncActionAdd && action != SyncActionRemove:
		return nil, invalidInput("action must be add or remove")
	}

	term, err := s.termRepo.FindBySlug(ctx, s.content.Taxonomies.UniversityOrganization, orgSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTermNotFound
		}
		return nil, err
	}

	ids, err := s.postRepo.FindIDsByMeta(ctx, s.content.PeoplePostType, s.content.NidKeys, []string{nid})
	if err != nil {
		return nil, err
	}
	result := &SyncResult{Nid: nid, Org: term.Slug, Action: action, Matched: len(ids)}
	if len(ids) == 0 {
		return result, nil
	}

	changed, err := s.termRepo.SetPostTerm(ctx, ids, term.ID, action == SyncActionAdd)
	if err != nil {
		return nil, err
	}
	result.Changed = changed
	return result, nil
}

// resolveTaxonomy 把请求中的分类参数转换为内容库中的分类法名称。
func (s *termService) resolveTaxonomy(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", invalidInput("taxonomy is required")
	}
	groups := s.content.Taxonomies.All()
	if tax := groups[strings.ReplaceAll(raw, "-", "_")]; tax != "" {
		return tax, nil
	}
	for _, tax := range groups {
		if tax == raw {
			return tax, nil
		}
	}
	return "", invalidInput("unknown taxonomy %q", raw)
}

// Slugify 生成小写、以连字符分隔的 slug："Lab of Soil & Water" -> "lab-of-soil-water"。
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
