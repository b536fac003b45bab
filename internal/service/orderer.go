package service

import (
	"people_api/internal/model"
	"sort"
	"strings"
)

// OrderProfiles 先按 pinnedNids（逗号分隔）顺序置顶，每个 nid 只取第一个匹配，
// 没有匹配的 nid 直接忽略；其余档案按姓氏不区分大小写稳定排序。
func OrderProfiles(profiles []model.PersonProfile, pinnedNids string) []model.PersonProfile {
	rest := make([]model.PersonProfile, len(profiles))
	copy(rest, profiles)

	pinned := make([]model.PersonProfile, 0)
	for _, nid := range model.ParseStringList(pinnedNids) {
		for i := range rest {
			if strings.EqualFold(strings.TrimSpace(rest[i].Nid), nid) {
				pinned = append(pinned, rest[i])
				rest = append(rest[:i], rest[i+1:]...)
				break
			}
		}
	}

	sort.SliceStable(rest, func(i, j int) bool {
		return strings.ToLower(sortLastName(rest[i])) < strings.ToLower(sortLastName(rest[j]))
	})
	return append(pinned, rest...)
}

// sortLastName 优先使用显式姓氏，否则取姓名中最后一个以空白分隔的词。
func sortLastName(p model.PersonProfile) string {
	if ln := strings.TrimSpace(p.LastName); ln != "" {
		return ln
	}
	parts := strings.Fields(p.Name)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
