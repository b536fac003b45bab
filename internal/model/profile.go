package model

// TermRef 是人员档案中的分类词条投影。
type TermRef struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// PersonProfile 是 /people 接口返回的人员档案。
// 标量字段都通过有序回退键读取，全部为空时为空字符串。
type PersonProfile struct {
	PostID    uint   `json:"post_id"`
	Nid       string `json:"nid"`
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	Title   string `json:"title"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Office  string `json:"office"`
	Address string `json:"address"`
	Degree  string `json:"degree"`
	Website string `json:"website"`

	Bio                    string    `json:"bio"`
	Classification         []TermRef `json:"classification"`
	Category               []TermRef `json:"category"`
	UniversityLocation     []TermRef `json:"university_location"`
	UniversityOrganization []TermRef `json:"university_organization"`
	ResearchInterest       []TermRef `json:"research_interest"`
	Tag                    []TermRef `json:"tag"`
	FocusArea              []TermRef `json:"focus_area"`

	// PhotoSizes 为 nil 表示没有可用照片。
	PhotoSizes  map[string]string `json:"photo_sizes"`
	PhotoSrcSet string            `json:"photo_srcset"`
	Photo       string            `json:"photo"`

	Directories []DirectoryRef `json:"directories"`
}
