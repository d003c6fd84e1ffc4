package domain

// Article is a single piece of stored content, originating from a feed,
// a manual URL conversion or an AI-generated summary
type Article struct {
	ID          string   `json:"id"`
	FeedID      string   `json:"feedId"`
	Title       string   `json:"title"`
	Author      string   `json:"author,omitempty"`
	PublishDate int64    `json:"publishDate"` // epoch milliseconds
	Content     string   `json:"content"`     // markdown or sanitized html
	Summary     string   `json:"summary,omitempty"`
	URL         string   `json:"url"`
	IsRead      bool     `json:"isRead"`
	IsFavorite  bool     `json:"isFavorite"`
	Tags        []string `json:"tags"`
	CreatedAt   int64    `json:"createdAt"` // epoch milliseconds
}

// Note is a free-form annotation attached to an article
type Note struct {
	ID        string   `json:"id"`
	ArticleID string   `json:"articleId"`
	Content   string   `json:"content"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt int64    `json:"updatedAt"`
	Tags      []string `json:"tags"`
}

// Highlight marks a text range within an article, optionally linked to a note
type Highlight struct {
	ID        string `json:"id"`
	ArticleID string `json:"articleId"`
	NoteID    string `json:"noteId,omitempty"`
	Text      string `json:"text"`
	Color     string `json:"color"`
	PosStart  int    `json:"posStart"`
	PosEnd    int    `json:"posEnd"`
	CreatedAt int64  `json:"createdAt"`
}
