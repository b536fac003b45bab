package main

import (
	"context"
	"fmt"
	"time"

	"people_api/internal/config"
	"people_api/internal/repository"
	"people_api/internal/service"
	"people_api/pkg/cache"
	"people_api/pkg/database"
	"people_api/pkg/log"
	"people_api/pkg/media"
	"people_api/pkg/search"
)

const cachePrefix = "people_api:"

// directoryCacheKey 按目录文章类型区分目录树快照。
func directoryCacheKey(cfg *config.Config) string {
	return "directory:tree:" + cfg.Content.DirectoryPostType
}

// app 持有进程级依赖。Redis 和 Elasticsearch 都是可选的。
type app struct {
	cfg *config.Config

	postRepo repository.PostRepository
	termRepo repository.TermRepository
	dirRepo  repository.DirectoryRepository

	store cache.Store
	es    *search.Client
}

func newApp(cfg *config.Config) (*app, error) {
	if err := database.InitMySQL(cfg.Database.MySQL.DSN); err != nil {
		return nil, err
	}
	if cfg.Database.MySQL.AutoMigrate {
		if err := database.RunMigrate(); err != nil {
			return nil, err
		}
	}

	a := &app{cfg: cfg}
	a.postRepo = repository.NewPostRepository(database.DB)
	a.termRepo = repository.NewTermRepository(database.DB)
	a.dirRepo = repository.NewDirectoryRepository(
		a.postRepo,
		cfg.Content.DirectoryPostType,
		cfg.Content.PublishedStatus,
		cfg.Content.DirectoryMembersKey,
	)

	if cfg.Database.Redis.Addr != "" {
		if err := database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB); err != nil {
			// 缓存不可用时直接读库
			log.Warnf("Redis unavailable, directory cache disabled: %v", err)
		} else {
			a.store = cache.NewRedisStore(database.RDB, cachePrefix)
			a.dirRepo = repository.NewCachedDirectoryRepository(a.dirRepo, a.store, directoryCacheKey(cfg), cfg.Cache.DirectoryTTL)
		}
	}

	if len(cfg.Elasticsearch.Addresses) > 0 {
		es, err := search.NewClient(cfg.Elasticsearch.Addresses, cfg.Elasticsearch.Username, cfg.Elasticsearch.Password, cfg.Elasticsearch.Index)
		if err != nil {
			return nil, err
		}
		a.es = es
	}
	return a, nil
}

// searcher 返回全文检索实现：配置了 Elasticsearch 时用索引，否则用 MySQL LIKE。
func (a *app) searcher() service.TextSearcher {
	if a.es != nil {
		return a.es
	}
	return a.postRepo
}

func (a *app) peopleSearcher() service.TextSearcher {
	if a.es != nil {
		return a.es
	}
	// nil 表示在 PostQuery 内用 LIKE 过滤
	return nil
}

func (a *app) directoryResolver() service.DirectoryResolver {
	return service.NewDirectoryResolver(a.dirRepo, a.searcher(), a.cfg.Content)
}

func (a *app) peopleService(resolver service.DirectoryResolver) service.PeopleService {
	images := media.NewAttachmentResolver(
		a.postRepo,
		a.cfg.Content.AttachmentPostType,
		a.cfg.Content.ImageVariantsKey,
		a.cfg.Content.ImageSizes,
	)
	aggregator := service.NewProfileAggregator(a.postRepo, a.termRepo, images, nil, a.cfg.Content)
	return service.NewPeopleService(a.postRepo, resolver, aggregator, a.peopleSearcher(), a.cfg.Content)
}

func (a *app) termService() service.TermService {
	return service.NewTermService(a.termRepo, a.postRepo, a.cfg.Content)
}

// invalidateDirectoryCache 在内容变更后清掉目录树缓存。
func (a *app) invalidateDirectoryCache(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	if err := a.store.Delete(ctx, directoryCacheKey(a.cfg)); err != nil {
		return fmt.Errorf("invalidate directory cache: %w", err)
	}
	return nil
}

func (a *app) pingMySQL(ctx context.Context) error {
	sqlDB, err := database.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *app) pingRedis(ctx context.Context) error {
	return database.RDB.Ping(ctx).Err()
}

func (a *app) close() {
	if database.RDB != nil {
		_ = database.RDB.Close()
	}
	if database.DB != nil {
		if sqlDB, err := database.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func tokenDuration(cfg *config.Config) time.Duration {
	hours := cfg.Auth.TokenExpireHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}
