package service

import (
	"context"
	"people_api/internal/config"
	"people_api/internal/repository"
	"people_api/pkg/log"
	"people_api/pkg/search"
)

const reindexBatchSize = 500

// DocumentIndexer 是全文检索索引的写入端，由 search.Client 实现。
type DocumentIndexer interface {
	EnsureIndex(ctx context.Context) error
	Index(ctx context.Context, docs []search.Document) error
}

// ReindexService 把已发布的人员和目录文章全量写入检索索引。
type ReindexService interface {
	Reindex(ctx context.Context) (int, error)
}

type reindexService struct {
	postRepo repository.PostRepository
	indexer  DocumentIndexer
	content  config.ContentConfig
}

func NewReindexService(postRepo repository.PostRepository, indexer DocumentIndexer, content config.ContentConfig) ReindexService {
	return &reindexService{postRepo: postRepo, indexer: indexer, content: content}
}

func (s *reindexService) Reindex(ctx context.Context) (int, error) {
	if s.postRepo == nil || s.indexer == nil {
		return 0, ErrInternal
	}
	if err := s.indexer.EnsureIndex(ctx); err != nil {
		return 0, err
	}

	total := 0
	for _, postType := range []string{s.content.PeoplePostType, s.content.DirectoryPostType} {
		posts, err := s.postRepo.FindPostsByType(ctx, postType, s.content.PublishedStatus)
		if err != nil {
			return total, err
		}

		batch := make([]search.Document, 0, reindexBatchSize)
		for _, p := range posts {
			batch = append(batch, search.Document{PostID: p.ID, PostType: p.PostType, Title: p.Title, Content: p.Content})
			if len(batch) == reindexBatchSize {
				if err := s.indexer.Index(ctx, batch); err != nil {
					return total, err
				}
				total += len(batch)
				batch = batch[:0]
			}
		}
		if err := s.indexer.Index(ctx, batch); err != nil {
			return total, err
		}
		total += len(batch)
		log.Infow("reindexed post type", "post_type", postType, "count", len(posts))
	}
	return total, nil
}
