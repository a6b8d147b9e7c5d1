package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"syntagma/internal/model"
	"syntagma/internal/repository"
	"syntagma/internal/service"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// SeedFile 初始化数据文件
type SeedFile struct {
	Articles []SeedArticle `yaml:"articles"`
	FAQs     []SeedFAQ     `yaml:"faqs"`
	Comments []SeedComment `yaml:"comments"`
}

type SeedArticle struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Number  int    `yaml:"number"`
	Content string `yaml:"content"`
}

type SeedFAQ struct {
	ID       string `yaml:"id"`
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
	Order    int    `yaml:"order"`
}

type SeedComment struct {
	ID        string    `yaml:"id"`
	ParentID  string    `yaml:"parent_id"`
	Username  string    `yaml:"username"`
	Comment   string    `yaml:"comment"`
	Upvotes   int64     `yaml:"upvotes"`
	Downvotes int64     `yaml:"downvotes"`
	Pinned    bool      `yaml:"pinned"`
	CreatedAt time.Time `yaml:"created_at"`
}

// SeedResult 写入统计
type SeedResult struct {
	Articles int
	FAQs     int
	Comments int
}

func NewSeedCommand(opts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load articles, FAQs and comments from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			seed, err := LoadSeed(f)
			if err != nil {
				return err
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			db, err := opts.openDatabase(cfg)
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			res, err := ApplySeed(cmd.Context(), db, seed, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d articles, %d faqs, %d comments\n", res.Articles, res.FAQs, res.Comments)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "seed.yaml", "seed file")
	return cmd
}

// LoadSeed 解析 YAML 初始化数据
func LoadSeed(r io.Reader) (*SeedFile, error) {
	var seed SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &seed, nil
}

// ApplySeed 写入初始化数据。条文与常见问题整体替换，评论按父子顺序追加
func ApplySeed(ctx context.Context, db *gorm.DB, seed *SeedFile, now time.Time) (*SeedResult, error) {
	content := service.NewContentService(repository.NewArticleRepository(db), repository.NewFAQRepository(db), nil, 0, nil)
	res := &SeedResult{}

	if len(seed.Articles) > 0 {
		articles := make([]model.Article, 0, len(seed.Articles))
		for _, a := range seed.Articles {
			articles = append(articles, model.Article{ID: a.ID, Name: a.Name, Number: a.Number, Content: a.Content})
		}
		if err := content.SaveArticles(ctx, articles); err != nil {
			return nil, fmt.Errorf("seed articles: %w", err)
		}
		res.Articles = len(articles)
	}

	if len(seed.FAQs) > 0 {
		faqs := make([]model.FAQ, 0, len(seed.FAQs))
		for _, q := range seed.FAQs {
			faqs = append(faqs, model.FAQ{ID: q.ID, Question: q.Question, Answer: q.Answer, Order: q.Order})
		}
		if err := content.SaveFAQs(ctx, faqs); err != nil {
			return nil, fmt.Errorf("seed faqs: %w", err)
		}
		res.FAQs = len(faqs)
	}

	repo := repository.NewCommentRepository(db)
	comments, pinned, err := orderSeedComments(ctx, repo, seed.Comments, now)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		if err := repo.Insert(ctx, &comments[i]); err != nil {
			return nil, fmt.Errorf("seed comment %s: %w", comments[i].ID, err)
		}
	}
	if pinned != "" {
		if _, err := repo.SetPinned(ctx, pinned, true); err != nil {
			return nil, fmt.Errorf("pin seed comment %s: %w", pinned, err)
		}
	}
	res.Comments = len(comments)
	return res, nil
}

type parentLookup interface {
	GetByID(ctx context.Context, id string) (*model.Comment, error)
}

// orderSeedComments 按父评论先于子评论排序并计算深度，返回需置顶的评论
func orderSeedComments(ctx context.Context, existing parentLookup, entries []SeedComment, now time.Time) ([]model.Comment, string, error) {
	depth := make(map[string]int, len(entries))
	out := make([]model.Comment, 0, len(entries))
	pending := make([]int, 0, len(entries))
	var pinned string

	for i, e := range entries {
		if strings.TrimSpace(e.ID) == "" {
			return nil, "", fmt.Errorf("seed comment #%d: id is required", i+1)
		}
		if strings.TrimSpace(e.Username) == "" || strings.TrimSpace(e.Comment) == "" {
			return nil, "", fmt.Errorf("seed comment %s: username and comment are required", e.ID)
		}
		if e.Pinned {
			if pinned != "" {
				return nil, "", fmt.Errorf("seed comments %s and %s are both pinned", pinned, e.ID)
			}
			pinned = e.ID
		}
		pending = append(pending, i)
	}

	for len(pending) > 0 {
		var next []int
		for _, i := range pending {
			e := entries[i]
			c := model.Comment{
				ID:        e.ID,
				Username:  strings.TrimSpace(e.Username),
				Body:      strings.TrimSpace(e.Comment),
				Upvotes:   e.Upvotes,
				Downvotes: e.Downvotes,
				CreatedAt: e.CreatedAt,
			}
			if c.CreatedAt.IsZero() {
				// 保留文件中的先后顺序
				c.CreatedAt = now.Add(time.Duration(i) * time.Millisecond).UTC()
			}

			if e.ParentID != "" {
				parentDepth, ok := depth[e.ParentID]
				if !ok {
					if seedHas(entries, e.ParentID) {
						next = append(next, i)
						continue
					}
					parent, err := existing.GetByID(ctx, e.ParentID)
					if err != nil {
						if errors.Is(err, gorm.ErrRecordNotFound) {
							return nil, "", fmt.Errorf("seed comment %s: parent %s not found", e.ID, e.ParentID)
						}
						return nil, "", err
					}
					parentDepth = parent.Depth
				}
				parentID := e.ParentID
				c.ParentID = &parentID
				c.Depth = parentDepth + 1
			}

			depth[c.ID] = c.Depth
			out = append(out, c)
		}
		if len(next) == len(pending) {
			return nil, "", fmt.Errorf("seed comments form a parent cycle starting at %s", entries[next[0]].ID)
		}
		pending = next
	}
	return out, pinned, nil
}

func seedHas(entries []SeedComment, id string) bool {
	for _, e := range entries {
		if e.ID == id {
			return true
		}
	}
	return false
}
