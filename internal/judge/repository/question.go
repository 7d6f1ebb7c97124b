package repository

import (
	"context"
	"errors"
	"time"

	"github.com/harsh-s15/iitj-coder/internal/common/cache"
	"github.com/harsh-s15/iitj-coder/internal/common/db"
	"github.com/harsh-s15/iitj-coder/internal/judge/model"
	appErr "github.com/harsh-s15/iitj-coder/pkg/errors"
)

const (
	questionCacheTTL     = 10 * time.Minute
	questionCacheNullTTL = 1 * time.Minute
)

// QuestionRepository reads question records with a cache-aside layer, since
// the same question is fetched for every job against it.
type QuestionRepository struct {
	db    db.Database
	cache cache.Cache
}

func NewQuestionRepository(database db.Database, c cache.Cache) *QuestionRepository {
	return &QuestionRepository{db: database, cache: c}
}

func questionCacheKey(id string) string {
	return "question:" + id
}

func (r *QuestionRepository) GetByID(ctx context.Context, id string) (*model.Question, error) {
	if id == "" {
		return nil, appErr.Newf(appErr.InvalidParams, "question id is required")
	}

	q, err := cache.GetWithCached(ctx, r.cache, questionCacheKey(id),
		questionCacheTTL, questionCacheNullTTL,
		func(ctx context.Context) (*model.Question, error) {
			return r.loadQuestion(ctx, id)
		})
	if err != nil {
		if errors.Is(err, cache.ErrNilValue) {
			return nil, appErr.Newf(appErr.QuestionNotFound, "question %s not found", id)
		}
		return nil, err
	}
	return q, nil
}

func (r *QuestionRepository) loadQuestion(ctx context.Context, id string) (*model.Question, error) {
	query := `SELECT id, title, time_limit, memory_limit, COALESCE(visible_test_cases, '')
	          FROM questions WHERE id = ?`
	row := r.db.QueryRow(ctx, query, id)

	var q model.Question
	err := row.Scan(&q.ID, &q.Title, &q.TimeLimit, &q.MemoryLimit, &q.VisibleTestCases)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, appErr.Wrapf(err, appErr.DatabaseError, "query question")
	}
	return &q, nil
}

// InvalidateCache drops the cached copy after test case uploads change the
// question's judging data.
func (r *QuestionRepository) InvalidateCache(ctx context.Context, id string) error {
	if err := r.cache.Del(ctx, questionCacheKey(id)); err != nil {
		return appErr.Wrapf(err, appErr.CacheError, "invalidate question cache")
	}
	return nil
}
