package service

import (
	"context"
	"people_api/internal/config"
	"people_api/internal/model"
	"people_api/internal/repository"
	"people_api/pkg/media"
	"people_api/pkg/search"

	"gorm.io/gorm"
)

func uintPtr(v uint) *uint {
	return &v
}

// testContent 是测试使用的内容 schema，字段键刻意和默认配置不同。
func testContent() config.ContentConfig {
	return config.ContentConfig{
		PeoplePostType:       "person",
		DirectoryPostType:    "directory",
		AttachmentPostType:   "attachment",
		PublishedStatus:      "publish",
		DirectoryMembersKey:  "members",
		NidKeys:              []string{"nid", "legacy_nid"},
		DefaultPhotoSize:     "medium",
		DefaultPageSize:      10,
		DirectorySearchLimit: 50,
		TermSearchLimit:      10,
		EditLinkTemplate:     "/edit?post=%d",
		Fields: config.ProfileFieldKeys{
			Nid:       []string{"nid", "legacy_nid"},
			Name:      []string{"display_name", "ad_name"},
			FirstName: []string{"first_name"},
			LastName:  []string{"last_name"},
			Title:     []string{"title", "ad_title"},
			Email:     []string{"email", "ad_email"},
			Phone:     []string{"phone"},
			Office:    []string{"office", "ad_office"},
			Address:   []string{"address"},
			Degree:    []string{"degree"},
			Website:   []string{"website"},
			Photo:     []string{"photos", "photo"},
		},
		Taxonomies: config.TaxonomyConfig{
			Classification:         "classification",
			Category:               "category",
			UniversityLocation:     "location",
			UniversityOrganization: "org",
			ResearchInterest:       "interest",
			Tag:                    "post_tag",
			FocusArea:              "focus",
		},
	}
}

// rootDeptLab: Root(1) -> Dept(2, {10,11}) -> Lab(3, {12})
func rootDeptLab() []model.DirectoryNode {
	return []model.DirectoryNode{
		{ID: 1, Slug: "root", Title: "Root"},
		{ID: 2, Slug: "dept", Title: "Dept", ParentID: uintPtr(1), MemberPersonIDs: []uint{10, 11}},
		{ID: 3, Slug: "lab", Title: "Lab", ParentID: uintPtr(2), MemberPersonIDs: []uint{12}},
	}
}

type fakeDirectoryRepo struct {
	nodes     []model.DirectoryNode
	err       error
	findCalls int
}

func (f *fakeDirectoryRepo) FindAll(ctx context.Context) ([]model.DirectoryNode, error) {
	f.findCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.DirectoryNode, len(f.nodes))
	copy(out, f.nodes)
	return out, nil
}

type fakeSearcher struct {
	searchIDsFn func(postType, term string, limit int) ([]uint, error)
}

func (f *fakeSearcher) SearchIDs(ctx context.Context, postType, term string, limit int) ([]uint, error) {
	if f.searchIDsFn != nil {
		return f.searchIDsFn(postType, term, limit)
	}
	return []uint{}, nil
}

type fakePostRepo struct {
	findPostFn        func(id uint, postType string) (*model.Post, error)
	findPostsByTypeFn func(postType, status string) ([]model.Post, error)
	findMetaFn        func(postIDs []uint, keys []string) (map[uint]map[string]string, error)
	queryPostsFn      func(q repository.PostQuery) ([]model.Post, error)
	searchIDsFn       func(postType, term string, limit int) ([]uint, error)
	findIDsByMetaFn   func(postType string, keys, values []string) ([]uint, error)

	queryCalls int
}

func (f *fakePostRepo) FindPost(ctx context.Context, id uint, postType string) (*model.Post, error) {
	if f.findPostFn != nil {
		return f.findPostFn(id, postType)
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakePostRepo) FindPostsByType(ctx context.Context, postType, status string) ([]model.Post, error) {
	if f.findPostsByTypeFn != nil {
		return f.findPostsByTypeFn(postType, status)
	}
	return []model.Post{}, nil
}
func (f *fakePostRepo) FindMeta(ctx context.Context, postIDs []uint, keys []string) (map[uint]map[string]string, error) {
	if f.findMetaFn != nil {
		return f.findMetaFn(postIDs, keys)
	}
	return map[uint]map[string]string{}, nil
}
func (f *fakePostRepo) QueryPosts(ctx context.Context, q repository.PostQuery) ([]model.Post, error) {
	f.queryCalls++
	if f.queryPostsFn != nil {
		return f.queryPostsFn(q)
	}
	return []model.Post{}, nil
}
func (f *fakePostRepo) SearchIDs(ctx context.Context, postType, term string, limit int) ([]uint, error) {
	if f.searchIDsFn != nil {
		return f.searchIDsFn(postType, term, limit)
	}
	return []uint{}, nil
}
func (f *fakePostRepo) FindIDsByMeta(ctx context.Context, postType string, keys, values []string) ([]uint, error) {
	if f.findIDsByMetaFn != nil {
		return f.findIDsByMetaFn(postType, keys, values)
	}
	return []uint{}, nil
}

type fakeTermRepo struct {
	findBySlugFn         func(taxonomy, slug string) (*model.Term, error)
	searchByNamePrefixFn func(taxonomy, prefix string, limit int) ([]model.Term, error)
	findByTaxonomyFn     func(taxonomy string) ([]model.Term, error)
	findByPostsFn        func(postIDs []uint, taxonomies []string) (map[uint][]model.Term, error)
	createFn             func(term *model.Term) error
	setPostTermFn        func(postIDs []uint, termID uint, attach bool) (int64, error)

	createCalls      int
	setPostTermCalls int
}

func (f *fakeTermRepo) FindBySlug(ctx context.Context, taxonomy, slug string) (*model.Term, error) {
	if f.findBySlugFn != nil {
		return f.findBySlugFn(taxonomy, slug)
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeTermRepo) SearchByNamePrefix(ctx context.Context, taxonomy, prefix string, limit int) ([]model.Term, error) {
	if f.searchByNamePrefixFn != nil {
		return f.searchByNamePrefixFn(taxonomy, prefix, limit)
	}
	return nil, nil
}
func (f *fakeTermRepo) FindByTaxonomy(ctx context.Context, taxonomy string) ([]model.Term, error) {
	if f.findByTaxonomyFn != nil {
		return f.findByTaxonomyFn(taxonomy)
	}
	return nil, nil
}
func (f *fakeTermRepo) FindByPosts(ctx context.Context, postIDs []uint, taxonomies []string) (map[uint][]model.Term, error) {
	if f.findByPostsFn != nil {
		return f.findByPostsFn(postIDs, taxonomies)
	}
	return map[uint][]model.Term{}, nil
}
func (f *fakeTermRepo) Create(ctx context.Context, term *model.Term) error {
	f.createCalls++
	if f.createFn != nil {
		return f.createFn(term)
	}
	return nil
}
func (f *fakeTermRepo) SetPostTerm(ctx context.Context, postIDs []uint, termID uint, attach bool) (int64, error) {
	f.setPostTermCalls++
	if f.setPostTermFn != nil {
		return f.setPostTermFn(postIDs, termID, attach)
	}
	return int64(len(postIDs)), nil
}

// fakeImageResolver 只认识 images 中的附件，其他 id 视为已删除。
type fakeImageResolver struct {
	images map[uint]*media.Image
	err    error
	calls  []uint
}

func (f *fakeImageResolver) Resolve(ctx context.Context, attachmentID uint) (*media.Image, error) {
	f.calls = append(f.calls, attachmentID)
	if f.err != nil {
		return nil, f.err
	}
	return f.images[attachmentID], nil
}

type fakeIndexer struct {
	ensureErr error
	indexErr  error
	batches   [][]search.Document
}

func (f *fakeIndexer) EnsureIndex(ctx context.Context) error {
	return f.ensureErr
}

func (f *fakeIndexer) Index(ctx context.Context, docs []search.Document) error {
	if f.indexErr != nil {
		return f.indexErr
	}
	batch := make([]search.Document, len(docs))
	copy(batch, docs)
	f.batches = append(f.batches, batch)
	return nil
}
