package service

import (
	"context"
	"people_api/internal/config"
	"people_api/internal/model"
	"people_api/internal/repository"
	"sort"
	"strconv"
	"strings"
)

// peopleTaxonomyParams 把 /people 的查询参数名映射到分类组 key（见 TaxonomyConfig.All）。
var peopleTaxonomyParams = []struct {
	Param string
	Key   string
}{
	{"classification", "classification"},
	{"university-category", "category"},
	{"category", "category"},
	{"university-location", "university_location"},
	{"university-organization", "university_organization"},
	{"tag", "tag"},
	{"research-interest", "research_interest"},
	{"focus-area", "focus_area"},
}

// PeopleRequest 是解析后的 /people 请求。
type PeopleRequest struct {
	// IDs 非空时覆盖目录范围得到的 id 过滤。
	IDs    []uint
	Nids   []string
	Search string
	// Taxonomies 以分类组 key 为键，值为 slug 列表。
	Taxonomies       map[string][]string
	DirectoryID      uint
	DirectoryInherit InheritMode
	Page             int
	// PerPage 为 -1 表示不分页，0 表示使用默认值。
	PerPage      int
	PhotoSize    string
	ProfileOrder string
}

// ParsePeopleRequest 从查询参数读取请求，get 一般是 gin.Context.Query。
func ParsePeopleRequest(get func(string) string) (PeopleRequest, error) {
	req := PeopleRequest{
		IDs:          model.ParseIDList(get("ids")),
		Nids:         model.ParseStringList(get("nid")),
		Search:       strings.TrimSpace(get("search")),
		Taxonomies:   make(map[string][]string),
		PhotoSize:    strings.TrimSpace(get("photo-size")),
		ProfileOrder: strings.TrimSpace(get("profile-order")),
		Page:         1,
	}

	for _, p := range peopleTaxonomyParams {
		if slugs := model.ParseStringList(get(p.Param)); len(slugs) > 0 {
			req.Taxonomies[p.Key] = append(req.Taxonomies[p.Key], slugs...)
		}
	}

	if raw := strings.TrimSpace(get("directory")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return PeopleRequest{}, invalidInput("directory must be a numeric id")
		}
		req.DirectoryID = uint(id)
	}
	mode, err := ParseInheritMode(get("directory_inherit"))
	if err != nil {
		return PeopleRequest{}, err
	}
	req.DirectoryInherit = mode

	if raw := strings.TrimSpace(get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return PeopleRequest{}, invalidInput("page must be a number")
		}
		if page > 1 {
			req.Page = page
		}
	}

	switch raw := strings.TrimSpace(get("count")); {
	case raw == "":
	case strings.EqualFold(raw, "all"):
		req.PerPage = -1
	default:
		n, err := strconv.Atoi(raw)
		if err != nil || n == 0 || n < -1 {
			return PeopleRequest{}, invalidInput("count must be a positive number or All")
		}
		req.PerPage = n
	}
	return req, nil
}

// PeopleQueryPlan 是查询构建的结果。Empty 为 true 时不需要访问内容库，直接返回空列表。
type PeopleQueryPlan struct {
	Query      repository.PostQuery
	Index      PeopleIndex
	PhotoSize  string
	PinnedNids string
	Empty      bool
}

// PeopleService 处理人员列表查询。
type PeopleService interface {
	BuildQuery(ctx context.Context, req PeopleRequest) (*PeopleQueryPlan, error)
	Query(ctx context.Context, req PeopleRequest) ([]model.PersonProfile, error)
}

type peopleService struct {
	postRepo   repository.PostRepository
	resolver   DirectoryResolver
	aggregator ProfileAggregator
	searcher   TextSearcher
	content    config.ContentConfig
}

// NewPeopleService searcher 为 nil 时全文检索在 SQL 中用 LIKE 完成。
func NewPeopleService(
	postRepo repository.PostRepository,
	resolver DirectoryResolver,
	aggregator ProfileAggregator,
	searcher TextSearcher,
	content config.ContentConfig,
) PeopleService {
	return &peopleService{
		postRepo:   postRepo,
		resolver:   resolver,
		aggregator: aggregator,
		searcher:   searcher,
		content:    content,
	}
}

func (s *peopleService) BuildQuery(ctx context.Context, req PeopleRequest) (*PeopleQueryPlan, error) {
	// 零值与 Resolve 的默认一致，视为 all
	if req.DirectoryInherit == "" {
		req.DirectoryInherit = InheritAll
	}

	plan := &PeopleQueryPlan{
		Query: repository.PostQuery{
			PostType: s.content.PeoplePostType,
			Status:   s.content.PublishedStatus,
		},
		Index:      PeopleIndex{},
		PhotoSize:  req.PhotoSize,
		PinnedNids: req.ProfileOrder,
	}
	if plan.PhotoSize == "" {
		plan.PhotoSize = s.content.DefaultPhotoSize
	}

	perPage := req.PerPage
	if perPage == 0 {
		perPage = s.content.DefaultPageSize
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	if perPage > 0 {
		plan.Query.Limit = perPage
		plan.Query.Offset = (page - 1) * perPage
	}

	if len(req.Nids) > 0 {
		plan.Query.Meta = append(plan.Query.Meta, repository.MetaFilter{Keys: s.content.NidKeys, Values: req.Nids})
	}

	groups := s.content.Taxonomies.All()
	keys := make([]string, 0, len(req.Taxonomies))
	for key := range req.Taxonomies {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		tax, ok := groups[key]
		if !ok || tax == "" {
			return nil, invalidInput("unknown taxonomy filter %q", key)
		}
		plan.Query.Taxonomies = append(plan.Query.Taxonomies, repository.TaxonomyFilter{Taxonomy: tax, Slugs: req.Taxonomies[key]})
	}

	if len(req.IDs) > 0 {
		plan.Query.IDs = req.IDs
	}

	if req.DirectoryID != 0 {
		dirs, err := s.resolver.Resolve(ctx, req.DirectoryID, ResolveOptions{
			IncludeParent: true,
			Inherit:       req.DirectoryInherit,
			Fields: model.NewDirectoryFieldSet(
				model.DirectoryFieldID, model.DirectoryFieldSlug, model.DirectoryFieldTitle, model.DirectoryFieldPeople,
			),
		})
		if err != nil {
			return nil, err
		}
		plan.Index = BuildPeopleIndex(dirs)

		// 显式 ids 优先；否则目录范围决定 id 过滤，并且一次返回全部成员
		if len(req.IDs) == 0 {
			scope := dirs
			if req.DirectoryInherit != InheritAll && len(scope) > 1 {
				scope = scope[:1]
			}
			ids := UnionPeopleIDs(scope)
			if len(ids) == 0 {
				plan.Empty = true
				return plan, nil
			}
			plan.Query.IDs = ids
			plan.Query.Limit = len(ids)
			plan.Query.Offset = 0
		}
	}

	if req.Search != "" {
		if s.searcher == nil {
			plan.Query.Search = req.Search
		} else {
			hits, err := s.searcher.SearchIDs(ctx, s.content.PeoplePostType, req.Search, 0)
			if err != nil {
				return nil, err
			}
			if plan.Query.IDs != nil {
				hits = intersectIDs(plan.Query.IDs, hits)
			}
			if len(hits) == 0 {
				plan.Empty = true
				return plan, nil
			}
			plan.Query.IDs = hits
		}
	}
	return plan, nil
}

func (s *peopleService) Query(ctx context.Context, req PeopleRequest) ([]model.PersonProfile, error) {
	plan, err := s.BuildQuery(ctx, req)
	if err != nil {
		return nil, err
	}
	if plan.Empty {
		return []model.PersonProfile{}, nil
	}

	posts, err := s.postRepo.QueryPosts(ctx, plan.Query)
	if err != nil {
		return nil, err
	}
	profiles, err := s.aggregator.BuildProfiles(ctx, posts, ProfileContext{Index: plan.Index, PhotoSize: plan.PhotoSize})
	if err != nil {
		return nil, err
	}
	return OrderProfiles(profiles, plan.PinnedNids), nil
}

// intersectIDs 保留 a 中同时出现在 b 的 id，顺序以 a 为准。
func intersectIDs(a, b []uint) []uint {
	set := make(map[uint]struct{}, len(b))
	for _, id := range b {
		set[id] = struct{}{}
	}
	out := make([]uint, 0)
	for _, id := range a {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
