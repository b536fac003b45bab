// Package config 负责加载和管理应用程序的配置。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Content       ContentConfig       `mapstructure:"content"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	Mode        string   `mapstructure:"mode"`
	RoutePrefix string   `mapstructure:"route_prefix"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

type MySQLConfig struct {
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// RedisConfig Addr 为空时不启用目录树缓存。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ElasticsearchConfig Addresses 为空时全文检索回退到 MySQL LIKE 查询。
type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type CacheConfig struct {
	DirectoryTTL time.Duration `mapstructure:"directory_ttl"`
}

// AuthConfig 控制写接口（create/sync organization）是否需要编辑者令牌。
type AuthConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	Secret           string `mapstructure:"secret"`
	TokenExpireHours int    `mapstructure:"token_expire_hours"`
}

// ContentConfig 描述内容库的 schema：文章类型、分类法、元数据键以及字段回退表。
// 核心组件在构造时显式接收该配置，测试可以替换成其他 schema。
type ContentConfig struct {
	PeoplePostType       string           `mapstructure:"people_post_type"`
	DirectoryPostType    string           `mapstructure:"directory_post_type"`
	AttachmentPostType   string           `mapstructure:"attachment_post_type"`
	PublishedStatus      string           `mapstructure:"published_status"`
	DirectoryMembersKey  string           `mapstructure:"directory_members_key"`
	NidKeys              []string         `mapstructure:"nid_keys"`
	Fields               ProfileFieldKeys `mapstructure:"fields"`
	Taxonomies           TaxonomyConfig   `mapstructure:"taxonomies"`
	ImageSizes           []string         `mapstructure:"image_sizes"`
	ImageVariantsKey     string           `mapstructure:"image_variants_key"`
	DefaultPhotoSize     string           `mapstructure:"default_photo_size"`
	DefaultPageSize      int              `mapstructure:"default_page_size"`
	DirectorySearchLimit int              `mapstructure:"directory_search_limit"`
	TermSearchLimit      int              `mapstructure:"term_search_limit"`
	EditLinkTemplate     string           `mapstructure:"edit_link_template"`
}

// ProfileFieldKeys 是人员字段的有序回退键表：按顺序读取，第一个非空值生效。
// 新字段排在前面，用来覆盖历史迁移前的旧字段。
type ProfileFieldKeys struct {
	Nid       []string `mapstructure:"nid"`
	Name      []string `mapstructure:"name"`
	FirstName []string `mapstructure:"first_name"`
	LastName  []string `mapstructure:"last_name"`
	Title     []string `mapstructure:"title"`
	Email     []string `mapstructure:"email"`
	Phone     []string `mapstructure:"phone"`
	Office    []string `mapstructure:"office"`
	Address   []string `mapstructure:"address"`
	Degree    []string `mapstructure:"degree"`
	Website   []string `mapstructure:"website"`
	Photo     []string `mapstructure:"photo"`
}

// TaxonomyConfig 把人员档案上的分类组映射到内容库里的分类法名称。
type TaxonomyConfig struct {
	Classification         string `mapstructure:"classification"`
	Category               string `mapstructure:"category"`
	UniversityLocation     string `mapstructure:"university_location"`
	UniversityOrganization string `mapstructure:"university_organization"`
	ResearchInterest       string `mapstructure:"research_interest"`
	Tag                    string `mapstructure:"tag"`
	FocusArea              string `mapstructure:"focus_area"`
}

// All 返回 key -> 分类法名称 的映射，key 与响应 JSON 中的字段名一致。
func (t TaxonomyConfig) All() map[string]string {
	return map[string]string{
		"classification":          t.Classification,
		"category":                t.Category,
		"university_location":     t.UniversityLocation,
		"university_organization": t.UniversityOrganization,
		"research_interest":       t.ResearchInterest,
		"tag":                     t.Tag,
		"focus_area":              t.FocusArea,
	}
}

// Init 从指定路径读取 YAML 配置并写入全局 Conf，失败直接 panic。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	Conf = *cfg
}

// Load 读取配置。优先级：环境变量(PEOPLE_API_*) > 配置文件 > 默认值。
// configPath 为空时只使用默认值和环境变量。
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PEOPLE_API")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查启动必需的配置项。
func (c *Config) Validate() error {
	if c.Content.PeoplePostType == "" || c.Content.DirectoryPostType == "" {
		return errors.New("content post types are required")
	}
	if c.Auth.Enabled && c.Auth.Secret == "" {
		return errors.New("auth.secret is required when auth is enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.route_prefix", "/wp-json/peopleapi/v1")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.mysql.auto_migrate", false)
	v.SetDefault("elasticsearch.index", "people-api-content")
	v.SetDefault("cache.directory_ttl", time.Minute)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.token_expire_hours", 24)

	v.SetDefault("content.people_post_type", "wsuwp_people_profile")
	v.SetDefault("content.directory_post_type", "wsu_directory")
	v.SetDefault("content.attachment_post_type", "attachment")
	v.SetDefault("content.published_status", "publish")
	v.SetDefault("content.directory_members_key", "wsu_people")
	v.SetDefault("content.nid_keys", []string{"_wsuwp_profile_ad_nid", "_wsuwp_nid"})
	v.SetDefault("content.image_sizes", []string{"thumbnail", "medium", "medium_large", "large", "full"})
	v.SetDefault("content.image_variants_key", "_image_variants")
	v.SetDefault("content.default_photo_size", "medium")
	v.SetDefault("content.default_page_size", 10)
	v.SetDefault("content.directory_search_limit", 50)
	v.SetDefault("content.term_search_limit", 10)
	v.SetDefault("content.edit_link_template", "/wp-admin/post.php?post=%d&action=edit")

	v.SetDefault("content.fields.nid", []string{"_wsuwp_profile_ad_nid", "_wsuwp_nid"})
	v.SetDefault("content.fields.name", []string{"_wsuwp_profile_alt_name", "_wsuwp_profile_ad_name"})
	v.SetDefault("content.fields.first_name", []string{"_wsuwp_profile_alt_first_name", "_wsuwp_profile_ad_name_first"})
	v.SetDefault("content.fields.last_name", []string{"_wsuwp_profile_alt_last_name", "_wsuwp_profile_ad_name_last"})
	v.SetDefault("content.fields.title", []string{"_wsuwp_profile_title", "_wsuwp_profile_ad_title"})
	v.SetDefault("content.fields.email", []string{"_wsuwp_profile_alt_email", "_wsuwp_profile_ad_email"})
	v.SetDefault("content.fields.phone", []string{"_wsuwp_profile_alt_phone", "_wsuwp_profile_ad_phone"})
	v.SetDefault("content.fields.office", []string{"_wsuwp_profile_alt_office", "_wsuwp_profile_ad_office"})
	v.SetDefault("content.fields.address", []string{"_wsuwp_profile_alt_address", "_wsuwp_profile_ad_address"})
	v.SetDefault("content.fields.degree", []string{"_wsuwp_profile_degree"})
	v.SetDefault("content.fields.website", []string{"_wsuwp_profile_website"})
	v.SetDefault("content.fields.photo", []string{"_wsuwp_profile_photos", "_wsuwp_profile_photo"})

	v.SetDefault("content.taxonomies.classification", "classification")
	v.SetDefault("content.taxonomies.category", "wsuwp_university_category")
	v.SetDefault("content.taxonomies.university_location", "wsuwp_university_location")
	v.SetDefault("content.taxonomies.university_organization", "wsuwp_university_org")
	v.SetDefault("content.taxonomies.research_interest", "wsuwp_research_interest")
	v.SetDefault("content.taxonomies.tag", "post_tag")
	v.SetDefault("content.taxonomies.focus_area", "wsuwp_focus_area")
}
