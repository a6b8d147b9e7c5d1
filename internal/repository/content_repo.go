package repository

import (
	"context"

	"syntagma/internal/model"

	"gorm.io/gorm"
)

type ArticleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// ListAll 按条文编号排序返回全部条文
func (r *ArticleRepository) ListAll(ctx context.Context) ([]model.Article, error) {
	var articles []model.Article
	if err := r.db.WithContext(ctx).Order("number ASC").Order("id ASC").Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

func (r *ArticleRepository) GetByID(ctx context.Context, id string) (*model.Article, error) {
	var article model.Article
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&article).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

// ReplaceAll 在事务内整体替换条文集合
func (r *ArticleRepository) ReplaceAll(ctx context.Context, articles []model.Article) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Article{}).Error; err != nil {
			return err
		}
		if len(articles) == 0 {
			return nil
		}
		return tx.Create(&articles).Error
	})
}

type FAQRepository struct {
	db *gorm.DB
}

func NewFAQRepository(db *gorm.DB) *FAQRepository {
	return &FAQRepository{db: db}
}

func (r *FAQRepository) ListAll(ctx context.Context) ([]model.FAQ, error) {
	var faqs []model.FAQ
	if err := r.db.WithContext(ctx).Order("sort_order ASC").Order("id ASC").Find(&faqs).Error; err != nil {
		return nil, err
	}
	return faqs, nil
}

// ReplaceAll 在事务内整体替换常见问题
func (r *FAQRepository) ReplaceAll(ctx context.Context, faqs []model.FAQ) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.FAQ{}).Error; err != nil {
			return err
		}
		if len(faqs) == 0 {
			return nil
		}
		return tx.Create(&faqs).Error
	})
}
