package service

import "people_api/internal/model"

// PeopleIndex 把人员 id 映射到其所属目录列表，只在一次请求内有效。
type PeopleIndex map[uint][]model.DirectoryRef

// BuildPeopleIndex 按目录输入顺序为每个成员追加 {name: title, slug}。
// people 为空的目录不产生条目。
func BuildPeopleIndex(dirs []model.ResolvedDirectory) PeopleIndex {
	index := make(PeopleIndex)
	for _, dir := range dirs {
		if len(dir.PeopleIDs) == 0 {
			continue
		}
		ref := model.DirectoryRef{Name: dir.Title, Slug: dir.Slug}
		for _, personID := range dir.PeopleIDs {
			index[personID] = append(index[personID], ref)
		}
	}
	return index
}

// Directories 返回人员所属目录，未收录时返回空切片而不是 nil。
func (idx PeopleIndex) Directories(personID uint) []model.DirectoryRef {
	refs := idx[personID]
	if len(refs) == 0 {
		return []model.DirectoryRef{}
	}
	out := make([]model.DirectoryRef, len(refs))
	copy(out, refs)
	return out
}
