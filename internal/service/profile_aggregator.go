package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"people_api/internal/config"
	"people_api/internal/model"
	"people_api/internal/repository"
	"people_api/pkg/media"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// ProfileContext 是一次请求内构建档案所需的上下文。
type ProfileContext struct {
	Index     PeopleIndex
	PhotoSize string
}

// ProfileAggregator 把一篇人员文章及其元数据、词条、照片聚合成 PersonProfile。
type ProfileAggregator interface {
	// BuildProfile 构建单个档案，人员不存在或不是已发布的人员文章时返回 ErrProfileNotFound。
	BuildProfile(ctx context.Context, personID uint, pc ProfileContext) (*model.PersonProfile, error)
	// BuildProfiles 批量构建，元数据和词条各只查询一次，输出顺序与 posts 一致。
	BuildProfiles(ctx context.Context, posts []model.Post, pc ProfileContext) ([]model.PersonProfile, error)
}

type profileAggregator struct {
	postRepo repository.PostRepository
	termRepo repository.TermRepository
	images   media.ImageResolver
	renderer BodyRenderer
	content  config.ContentConfig
	metaKeys []string
}

func NewProfileAggregator(
	postRepo repository.PostRepository,
	termRepo repository.TermRepository,
	images media.ImageResolver,
	renderer BodyRenderer,
	content config.ContentConfig,
) ProfileAggregator {
	if renderer == nil {
		renderer = NewAutopRenderer()
	}
	return &profileAggregator{
		postRepo: postRepo,
		termRepo: termRepo,
		images:   images,
		renderer: renderer,
		content:  content,
		metaKeys: profileMetaKeys(content.Fields),
	}
}

func (a *profileAggregator) BuildProfile(ctx context.Context, personID uint, pc ProfileContext) (*model.PersonProfile, error) {
	post, err := a.postRepo.FindPost(ctx, personID, a.content.PeoplePostType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	if a.content.PublishedStatus != "" && post.Status != a.content.PublishedStatus {
		return nil, ErrProfileNotFound
	}

	profiles, err := a.BuildProfiles(ctx, []model.Post{*post}, pc)
	if err != nil {
		return nil, err
	}
	return &profiles[0], nil
}

func (a *profileAggregator) BuildProfiles(ctx context.Context, posts []model.Post, pc ProfileContext) ([]model.PersonProfile, error) {
	profiles := make([]model.PersonProfile, 0, len(posts))
	if len(posts) == 0 {
		return profiles, nil
	}

	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}

	meta, err := a.postRepo.FindMeta(ctx, ids, a.metaKeys)
	if err != nil {
		return nil, err
	}

	groups := a.content.Taxonomies.All()
	taxonomies := make([]string, 0, len(groups))
	for _, tax := range groups {
		if tax != "" {
			taxonomies = append(taxonomies, tax)
		}
	}
	terms, err := a.termRepo.FindByPosts(ctx, ids, taxonomies)
	if err != nil {
		return nil, err
	}

	photoSize := pc.PhotoSize
	if photoSize == "" {
		photoSize = a.content.DefaultPhotoSize
	}

	for _, post := range posts {
		profile, err := a.assemble(ctx, post, meta[post.ID], terms[post.ID], pc.Index, photoSize)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func (a *profileAggregator) assemble(ctx context.Context, post model.Post, meta map[string]string, terms []model.Term, index PeopleIndex, photoSize string) (model.PersonProfile, error) {
	f := a.content.Fields
	p := model.PersonProfile{
		PostID:    post.ID,
		Nid:       ResolveField(meta, f.Nid),
		Name:      ResolveField(meta, f.Name),
		FirstName: ResolveField(meta, f.FirstName),
		LastName:  ResolveField(meta, f.LastName),
		Title:     ResolveField(meta, f.Title),
		Email:     ResolveField(meta, f.Email),
		Phone:     ResolveField(meta, f.Phone),
		Office:    ResolveField(meta, f.Office),
		Address:   ResolveField(meta, f.Address),
		Degree:    ResolveField(meta, f.Degree),
		Website:   ResolveField(meta, f.Website),
		Bio:       a.renderer.Render(post.Content),
	}
	if p.Name == "" {
		p.Name = post.Title
	}

	byTaxonomy := make(map[string][]model.TermRef)
	for _, t := range terms {
		byTaxonomy[t.Taxonomy] = append(byTaxonomy[t.Taxonomy], model.TermRef{Slug: t.Slug, Name: t.Name})
	}
	for key, tax := range a.content.Taxonomies.All() {
		refs := byTaxonomy[tax]
		if refs == nil || tax == "" {
			refs = []model.TermRef{}
		}
		assignTermGroup(&p, key, refs)
	}

	img, err := a.resolvePhoto(ctx, meta)
	if err != nil {
		return model.PersonProfile{}, err
	}
	if img != nil {
		p.PhotoSizes = img.Sizes
		p.PhotoSrcSet = img.SrcSet
		p.Photo = img.Sizes[photoSize]
	}

	p.Directories = index.Directories(post.ID)
	return p, nil
}

// resolvePhoto 按回退键顺序尝试，第一个能解析出图片的键生效。
func (a *profileAggregator) resolvePhoto(ctx context.Context, meta map[string]string) (*media.Image, error) {
	for _, key := range a.content.Fields.Photo {
		src := parsePhotoSource(meta[key])
		if src == nil {
			continue
		}
		img, err := src.resolve(ctx, a.images)
		if err != nil {
			return nil, err
		}
		if img != nil {
			return img, nil
		}
	}
	return nil, nil
}

func assignTermGroup(p *model.PersonProfile, key string, refs []model.TermRef) {
	switch key {
	case "classification":
		p.Classification = refs
	case "category":
		p.Category = refs
	case "university_location":
		p.UniversityLocation = refs
	case "university_organization":
		p.UniversityOrganization = refs
	case "research_interest":
		p.ResearchInterest = refs
	case "tag":
		p.Tag = refs
	case "focus_area":
		p.FocusArea = refs
	}
}

func profileMetaKeys(f config.ProfileFieldKeys) []string {
	groups := [][]string{
		f.Nid, f.Name, f.FirstName, f.LastName, f.Title, f.Email,
		f.Phone, f.Office, f.Address, f.Degree, f.Website, f.Photo,
	}
	seen := make(map[string]struct{})
	keys := make([]string, 0)
	for _, g := range groups {
		for _, k := range g {
			if _, ok := seen[k]; ok || k == "" {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

// ResolveField 按顺序返回第一个规范化后非空的值，全部为空时返回空字符串。
func ResolveField(meta map[string]string, keys []string) string {
	for _, k := range keys {
		if v := normalizeText(meta[k]); v != "" {
			return v
		}
	}
	return ""
}

const nbspEntity = "&nbsp;"

// normalizeText 去掉两端的空白、不换行空格（U+00A0、U+202F、U+2007）和 &nbsp; 实体。
func normalizeText(s string) string {
	for {
		before := s
		s = strings.TrimFunc(s, isBlankRune)
		for strings.HasPrefix(s, nbspEntity) {
			s = s[len(nbspEntity):]
		}
		for strings.HasSuffix(s, nbspEntity) {
			s = s[:len(s)-len(nbspEntity)]
		}
		if s == before {
			return s
		}
	}
}

func isBlankRune(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', '\u00a0', '\u202f', '\u2007':
		return true
	}
	return false
}

// photoSource 是照片元数据的三种存储形态之一。
type photoSource interface {
	resolve(ctx context.Context, images media.ImageResolver) (*media.Image, error)
}

// attachmentListPhoto 是附件 id 列表，第一个仍然存在的附件生效。
type attachmentListPhoto []uint

func (l attachmentListPhoto) resolve(ctx context.Context, images media.ImageResolver) (*media.Image, error) {
	if images == nil {
		return nil, nil
	}
	for _, id := range l {
		img, err := images.Resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		if img != nil {
			return img, nil
		}
	}
	return nil, nil
}

// precomputedPhoto 是已经解析好的 尺寸 -> URL，原样透传。
type precomputedPhoto map[string]string

func (p precomputedPhoto) resolve(context.Context, media.ImageResolver) (*media.Image, error) {
	sizes := make(map[string]string, len(p))
	for k, v := range p {
		sizes[k] = v
	}
	return &media.Image{Sizes: sizes}, nil
}

// singleAttachmentPhoto 是单个附件 id。
type singleAttachmentPhoto uint

func (s singleAttachmentPhoto) resolve(ctx context.Context, images media.ImageResolver) (*media.Image, error) {
	if images == nil {
		return nil, nil
	}
	return images.Resolve(ctx, uint(s))
}

// parsePhotoSource 识别照片元数据的形态，无法识别时返回 nil。
func parsePhotoSource(raw string) photoSource {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
		if id == 0 {
			return nil
		}
		return singleAttachmentPhoto(id)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil
	}

	switch val := v.(type) {
	case []interface{}:
		if len(val) == 0 {
			return nil
		}
		ids := make(attachmentListPhoto, 0, len(val))
		for _, item := range val {
			id, ok := positiveID(item)
			if !ok {
				return nil
			}
			ids = append(ids, id)
		}
		return ids
	case map[string]interface{}:
		if len(val) == 0 {
			return nil
		}
		sizes := make(precomputedPhoto, len(val))
		for k, item := range val {
			url, ok := item.(string)
			if !ok {
				return nil
			}
			sizes[k] = url
		}
		return sizes
	default:
		if id, ok := positiveID(val); ok {
			return singleAttachmentPhoto(id)
		}
	}
	return nil
}

func positiveID(v interface{}) (uint, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(n.String(), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
