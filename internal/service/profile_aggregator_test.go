package service

import (
	"context"
	"errors"
	"people_api/internal/model"
	"people_api/pkg/media"
	"testing"
)

func TestResolveField_Precedence(t *testing.T) {
	keys := []string{"a", "b"}

	if got := ResolveField(map[string]string{"b": "legacy"}, keys); got != "legacy" {
		t.Fatalf("expect fallback to b, got %q", got)
	}
	if got := ResolveField(map[string]string{"a": "  &nbsp;", "b": "legacy"}, keys); got != "legacy" {
		t.Fatalf("blank a should fall back to b, got %q", got)
	}
	if got := ResolveField(map[string]string{"a": "new", "b": "legacy"}, keys); got != "new" {
		t.Fatalf("expect a to win, got %q", got)
	}
	if got := ResolveField(nil, keys); got != "" {
		t.Fatalf("expect empty string, got %q", got)
	}
}

func TestNormalizeText(t *testing.T) {
	cases := map[string]string{
		"  plain  ":                   "plain",
		"\u00a0Room 101\u202f":        "Room 101",
		"&nbsp; 509-555-0100&nbsp;":   "509-555-0100",
		"\u2007&nbsp;\u00a0inner x\t": "inner x",
		"a&nbsp;b":                    "a&nbsp;b",
	}
	for in, want := range cases {
		if got := normalizeText(in); got != want {
			t.Fatalf("normalizeText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParsePhotoSource(t *testing.T) {
	cases := []struct {
		raw  string
		want interface{}
	}{
		{"[101, 102]", attachmentListPhoto{101, 102}},
		{"42", singleAttachmentPhoto(42)},
		{" 42 ", singleAttachmentPhoto(42)},
		{`{"medium":"m.jpg","full":"f.jpg"}`, precomputedPhoto{"medium": "m.jpg", "full": "f.jpg"}},
		{"", nil},
		{"0", nil},
		{"[]", nil},
		{"[1, \"x\"]", nil},
		{"[1.5]", nil},
		{`{"medium": 3}`, nil},
		{"not json", nil},
	}
	for _, tc := range cases {
		got := parsePhotoSource(tc.raw)
		switch want := tc.want.(type) {
		case nil:
			if got != nil {
				t.Fatalf("parsePhotoSource(%q) = %#v, want nil", tc.raw, got)
			}
		case attachmentListPhoto:
			list, ok := got.(attachmentListPhoto)
			if !ok || len(list) != len(want) || list[0] != want[0] {
				t.Fatalf("parsePhotoSource(%q) = %#v, want %#v", tc.raw, got, want)
			}
		case singleAttachmentPhoto:
			if got != want {
				t.Fatalf("parsePhotoSource(%q) = %#v, want %#v", tc.raw, got, want)
			}
		case precomputedPhoto:
			m, ok := got.(precomputedPhoto)
			if !ok || len(m) != len(want) || m["medium"] != want["medium"] {
				t.Fatalf("parsePhotoSource(%q) = %#v, want %#v", tc.raw, got, want)
			}
		}
	}
}

func newTestAggregator(posts *fakePostRepo, terms *fakeTermRepo, images media.ImageResolver) ProfileAggregator {
	return NewProfileAggregator(posts, terms, images, nil, testContent())
}

// TestBuildProfile_PhotoSkipsMissingAttachment 附件 101 已删除时使用 102。
func TestBuildProfile_PhotoSkipsMissingAttachment(t *testing.T) {
	posts := &fakePostRepo{
		findPostFn: func(id uint, postType string) (*model.Post, error) {
			return &model.Post{ID: id, PostType: postType, Status: "publish", Title: "Jane Doe"}, nil
		},
		findMetaFn: func(postIDs []uint, keys []string) (map[uint]map[string]string, error) {
			return map[uint]map[string]string{10: {"photos": "[101, 102]"}}, nil
		},
	}
	images := &fakeImageResolver{images: map[uint]*media.Image{
		102: {Sizes: map[string]string{"medium": "102-m.jpg", "full": "102.jpg"}, SrcSet: "102-m.jpg 300w"},
	}}
	agg := newTestAggregator(posts, &fakeTermRepo{}, images)

	p, err := agg.BuildProfile(context.Background(), 10, ProfileContext{})
	if err != nil {
		t.Fatalf("BuildProfile() error = %v", err)
	}
	if p.Photo != "102-m.jpg" || p.PhotoSrcSet != "102-m.jpg 300w" || p.PhotoSizes["full"] != "102.jpg" {
		t.Fatalf("photo should come from 102, got %+v", p)
	}
	if len(images.calls) != 2 || images.calls[0] != 101 {
		t.Fatalf("expect 101 then 102 to be resolved, got %v", images.calls)
	}
}

func TestBuildProfile_NoPhotoIsNull(t *testing.T) {
	posts := &fakePostRepo{
		findPostFn: func(id uint, postType string) (*model.Post, error) {
			return &model.Post{ID: id, Status: "publish"}, nil
		},
		findMetaFn: func(postIDs []uint, keys []string) (map[uint]map[string]string, error) {
			return map[uint]map[string]string{10: {"photos": "[101]", "photo": "garbage"}}, nil
		},
	}
	agg := newTestAggregator(posts, &fakeTermRepo{}, &fakeImageResolver{})

	p, err := agg.BuildProfile(context.Background(), 10, ProfileContext{})
	if err != nil {
		t.Fatalf("BuildProfile() error = %v", err)
	}
	if p.PhotoSizes != nil || p.Photo != "" {
		t.Fatalf("expect no photo, got %+v", p)
	}
}

func TestBuildProfile_NotFound(t *testing.T) {
	agg := newTestAggregator(&fakePostRepo{}, &fakeTermRepo{}, nil)
	if _, err := agg.BuildProfile(context.Background(), 1, ProfileContext{}); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expect ErrProfileNotFound, got %v", err)
	}

	drafts := &fakePostRepo{
		findPostFn: func(id uint, postType string) (*model.Post, error) {
			return &model.Post{ID: id, Status: "draft"}, nil
		},
	}
	agg = newTestAggregator(drafts, &fakeTermRepo{}, nil)
	if _, err := agg.BuildProfile(context.Background(), 1, ProfileContext{}); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("draft: expect ErrProfileNotFound, got %v", err)
	}
}

func TestBuildProfiles_FieldsTermsAndDirectories(t *testing.T) {
	var metaCalls, termCalls int
	posts := &fakePostRepo{
		findMetaFn: func(postIDs []uint, keys []string) (map[uint]map[string]string, error) {
			metaCalls++
			return map[uint]map[string]string{
				10: {
					"nid":       " jdoe ",
					"ad_name":   "Jane Q. Doe",
					"last_name": "Doe",
					"title":     "",
					"ad_title":  "Professor ",
					"email":     "&nbsp;jane@example.edu",
					"photos":    `{"medium":"pre-m.jpg"}`,
				},
				11: {"legacy_nid": "bsmith"},
			}, nil
		},
	}
	terms := &fakeTermRepo{
		findByPostsFn: func(postIDs []uint, taxonomies []string) (map[uint][]model.Term, error) {
			termCalls++
			return map[uint][]model.Term{
				10: {
					{Taxonomy: "org", Slug: "cahnrs", Name: "CAHNRS"},
					{Taxonomy: "location", Slug: "pullman", Name: "Pullman"},
					{Taxonomy: "unrelated", Slug: "x", Name: "X"},
				},
			}, nil
		},
	}
	agg := newTestAggregator(posts, terms, &fakeImageResolver{})
	index := BuildPeopleIndex([]model.ResolvedDirectory{{Slug: "dept", Title: "Dept", PeopleIDs: []uint{10}}})

	list := []model.Post{
		{ID: 10, Title: "Doe, Jane", Content: "Bio text"},
		{ID: 11, Title: "Bob Smith"},
	}
	profiles, err := agg.BuildProfiles(context.Background(), list, ProfileContext{Index: index, PhotoSize: "medium"})
	if err != nil {
		t.Fatalf("BuildProfiles() error = %v", err)
	}
	if metaCalls != 1 || termCalls != 1 {
		t.Fatalf("expect one batched meta and term query, got %d/%d", metaCalls, termCalls)
	}
	if len(profiles) != 2 {
		t.Fatalf("expect 2 profiles, got %d", len(profiles))
	}

	jane := profiles[0]
	if jane.Nid != "jdoe" || jane.Name != "Jane Q. Doe" || jane.Title != "Professor" || jane.Email != "jane@example.edu" {
		t.Fatalf("unexpected scalar fields: %+v", jane)
	}
	if jane.Bio != "<p>Bio text</p>\n" {
		t.Fatalf("unexpected bio %q", jane.Bio)
	}
	if len(jane.UniversityOrganization) != 1 || jane.UniversityOrganization[0].Slug != "cahnrs" {
		t.Fatalf("unexpected org terms: %+v", jane.UniversityOrganization)
	}
	if len(jane.UniversityLocation) != 1 || jane.Tag == nil || len(jane.Tag) != 0 {
		t.Fatalf("unexpected term groups: %+v", jane)
	}
	if jane.Photo != "pre-m.jpg" || jane.PhotoSrcSet != "" {
		t.Fatalf("precomputed photo should pass through, got %+v", jane)
	}
	if len(jane.Directories) != 1 || jane.Directories[0].Name != "Dept" {
		t.Fatalf("unexpected directories: %+v", jane.Directories)
	}

	bob := profiles[1]
	if bob.Nid != "bsmith" || bob.Name != "Bob Smith" {
		t.Fatalf("expect nid fallback and title as name, got %+v", bob)
	}
	if bob.Directories == nil || len(bob.Directories) != 0 {
		t.Fatalf("expect empty directories, got %v", bob.Directories)
	}
}

func TestBuildProfiles_UpstreamError(t *testing.T) {
	posts := &fakePostRepo{
		findMetaFn: func(postIDs []uint, keys []string) (map[uint]map[string]string, error) {
			return nil, errors.New("db down")
		},
	}
	agg := newTestAggregator(posts, &fakeTermRepo{}, nil)

	if _, err := agg.BuildProfiles(context.Background(), []model.Post{{ID: 1}}, ProfileContext{}); err == nil {
		t.Fatalf("expect error, got nil")
	}
}
