// Package media 把附件 id 解析为各尺寸图片 URL 和响应式 srcset。
package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"people_api/internal/repository"
	"people_api/pkg/log"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// Image 是一个附件解析后的结果。
type Image struct {
	Sizes  map[string]string
	SrcSet string
}

// ImageResolver 解析附件，附件不存在或元数据损坏时返回 (nil, nil)。
type ImageResolver interface {
	Resolve(ctx context.Context, attachmentID uint) (*Image, error)
}

// variant 是附件元数据中单个尺寸的描述。
type variant struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type attachmentResolver struct {
	posts       repository.PostRepository
	postType    string
	variantsKey string
	sizes       []string
}

// NewAttachmentResolver 从内容库的附件文章读取图片尺寸。
// 附件的 variantsKey 元数据是 JSON 对象：{"thumbnail":{"url":"...","width":150,"height":150}, ...}。
func NewAttachmentResolver(posts repository.PostRepository, postType, variantsKey string, sizes []string) ImageResolver {
	return &attachmentResolver{
		posts:       posts,
		postType:    postType,
		variantsKey: variantsKey,
		sizes:       sizes,
	}
}

func (r *attachmentResolver) Resolve(ctx context.Context, attachmentID uint) (*Image, error) {
	post, err := r.posts.FindPost(ctx, attachmentID, r.postType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if post.Status == "trash" {
		return nil, nil
	}

	meta, err := r.posts.FindMeta(ctx, []uint{post.ID}, []string{r.variantsKey})
	if err != nil {
		return nil, err
	}
	raw := meta[post.ID][r.variantsKey]
	if strings.TrimSpace(raw) == "" {
		return &Image{Sizes: map[string]string{}}, nil
	}

	var variants map[string]variant
	if err := json.Unmarshal([]byte(raw), &variants); err != nil {
		// 单个附件数据损坏不影响整个列表，按未解析处理
		log.Warnw("attachment variants malformed", "attachment_id", attachmentID, "error", err)
		return nil, nil
	}
	return &Image{
		Sizes:  r.sizeURLs(variants),
		SrcSet: buildSrcSet(variants),
	}, nil
}

// sizeURLs 为每个配置的尺寸选 URL，缺失的尺寸回退到 full。
func (r *attachmentResolver) sizeURLs(variants map[string]variant) map[string]string {
	full := variants["full"].URL
	urls := make(map[string]string, len(r.sizes))
	for _, size := range r.sizes {
		if v, ok := variants[size]; ok && v.URL != "" {
			urls[size] = v.URL
			continue
		}
		if full != "" {
			urls[size] = full
		}
	}
	return urls
}

// buildSrcSet 按宽度升序拼接 "url 300w, url 1024w"，同一 URL 只出现一次。
func buildSrcSet(variants map[string]variant) string {
	list := make([]variant, 0, len(variants))
	for _, v := range variants {
		if v.URL != "" && v.Width > 0 {
			list = append(list, v)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Width != list[j].Width {
			return list[i].Width < list[j].Width
		}
		return list[i].URL < list[j].URL
	})

	seen := make(map[string]struct{}, len(list))
	parts := make([]string, 0, len(list))
	for _, v := range list {
		if _, ok := seen[v.URL]; ok {
			continue
		}
		seen[v.URL] = struct{}{}
		parts = append(parts, fmt.Sprintf("%s %dw", v.URL, v.Width))
	}
	return strings.Join(parts, ", ")
}
