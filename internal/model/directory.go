package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DirectoryNode 是内容库中的一条目录记录。
// 目录通过 ParentID 组成森林；MemberPersonIDs 只包含显式分配给该目录的人员（已去重）。
type DirectoryNode struct {
	ID              uint   `json:"id"`
	Slug            string `json:"slug"`
	Title           string `json:"title"`
	ParentID        *uint  `json:"parent_id"`
	MenuOrder       int    `json:"menu_order"`
	MemberPersonIDs []uint `json:"members"`
}

// DirectoryField 是 ResolvedDirectory 中可选择的字段。
type DirectoryField string

const (
	DirectoryFieldID       DirectoryField = "id"
	DirectoryFieldSlug     DirectoryField = "slug"
	DirectoryFieldTitle    DirectoryField = "title"
	DirectoryFieldPeople   DirectoryField = "people"
	DirectoryFieldPath     DirectoryField = "path"
	DirectoryFieldEditLink DirectoryField = "editLink"
)

// AllDirectoryFields 按响应中的顺序列出全部字段。
var AllDirectoryFields = []DirectoryField{
	DirectoryFieldID,
	DirectoryFieldSlug,
	DirectoryFieldTitle,
	DirectoryFieldPeople,
	DirectoryFieldPath,
	DirectoryFieldEditLink,
}

// DirectoryFieldSet 是调用方请求的字段集合；空集合表示全部字段。
type DirectoryFieldSet map[DirectoryField]struct{}

func NewDirectoryFieldSet(fields ...DirectoryField) DirectoryFieldSet {
	set := make(DirectoryFieldSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Has 判断字段是否被请求。
func (s DirectoryFieldSet) Has(f DirectoryField) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[f]
	return ok
}

// ParseDirectoryFields 解析逗号分隔的字段列表，未知字段返回错误。
func ParseDirectoryFields(raw string) (DirectoryFieldSet, error) {
	set := DirectoryFieldSet{}
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		known := false
		for _, f := range AllDirectoryFields {
			if string(f) == name {
				set[f] = struct{}{}
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown directory field %q", name)
		}
	}
	return set, nil
}

// DirectoryRef 是人员档案中的目录标注，也是 PeopleIndex 的条目。
type DirectoryRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PathEntry 是祖先路径上的一个节点。
type PathEntry struct {
	ID    uint   `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// ResolvedDirectory 是目录解析器的输出投影。
// 只有 Fields 中请求的字段会被计算和序列化，缺失字段仅代表"未请求"。
type ResolvedDirectory struct {
	ID        uint
	Slug      string
	Title     string
	PeopleIDs []uint
	Path      []PathEntry
	EditLink  string
	Fields    DirectoryFieldSet
}

// MarshalJSON 只输出被请求的字段。
func (d ResolvedDirectory) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(AllDirectoryFields))
	if d.Fields.Has(DirectoryFieldID) {
		out[string(DirectoryFieldID)] = d.ID
	}
	if d.Fields.Has(DirectoryFieldSlug) {
		out[string(DirectoryFieldSlug)] = d.Slug
	}
	if d.Fields.Has(DirectoryFieldTitle) {
		out[string(DirectoryFieldTitle)] = d.Title
	}
	if d.Fields.Has(DirectoryFieldPeople) {
		people := d.PeopleIDs
		if people == nil {
			people = []uint{}
		}
		out[string(DirectoryFieldPeople)] = people
	}
	if d.Fields.Has(DirectoryFieldPath) {
		path := d.Path
		if path == nil {
			path = []PathEntry{}
		}
		out[string(DirectoryFieldPath)] = path
	}
	if d.Fields.Has(DirectoryFieldEditLink) {
		out[string(DirectoryFieldEditLink)] = d.EditLink
	}
	return json.Marshal(out)
}
