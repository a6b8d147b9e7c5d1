package model

// Article 宪法条文
type Article struct {
	ID      string `gorm:"type:varchar(64);primaryKey;comment:条文ID" json:"id"`
	Name    string `gorm:"type:varchar(255);not null;comment:条文标题" json:"name"`
	Number  int    `gorm:"not null;index:idx_articles_number;comment:条文编号" json:"number"`
	Content string `gorm:"type:text;comment:条文内容(HTML)" json:"content"`
}

func (Article) TableName() string {
	return "articles"
}

// FAQ 常见问题
type FAQ struct {
	ID       string `gorm:"type:varchar(64);primaryKey;comment:问题ID" json:"id"`
	Question string `gorm:"type:text;not null;comment:问题" json:"question"`
	Answer   string `gorm:"type:text;comment:回答" json:"answer"`
	Order    int    `gorm:"column:sort_order;not null;default:0;comment:排序" json:"order"`
}

func (FAQ) TableName() string {
	return "faqs"
}
