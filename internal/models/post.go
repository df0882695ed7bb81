package models

import "time"

// DefaultPostImage is used when a post is created without an image.
const DefaultPostImage = "https://via.placeholder.com/300x150"

// DateLayout is the wire format of Post.DatePosted.
const DateLayout = "2006-01-02"

// Post represents a blog post.
type Post struct {
	ID         uint      `gorm:"primaryKey"`
	Title      string    `gorm:"size:200;not null"`
	Content    string    `gorm:"type:text;not null"`
	AuthorID   uint      `gorm:"not null;index"`
	Author     User      `gorm:"foreignKey:AuthorID"`
	DatePosted time.Time `gorm:"type:date;not null"`
	ImageURL   string    `gorm:"size:500"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PostView is the serialized form of a post, and the value stored in the cache.
type PostView struct {
	ID         uint          `json:"id"`
	Title      string        `json:"title"`
	Content    string        `json:"content"`
	Author     AuthorSummary `json:"author"`
	DatePosted string        `json:"date_posted"`
	ImageURL   string        `json:"image_url"`
}

// View renders p for responses. Author must be loaded.
func (p *Post) View() PostView {
	return PostView{
		ID:         p.ID,
		Title:      p.Title,
		Content:    p.Content,
		Author:     p.Author.Summary(),
		DatePosted: p.DatePosted.Format(DateLayout),
		ImageURL:   p.ImageURL,
	}
}

// PostViews renders a slice of posts.
func PostViews(posts []*Post) []PostView {
	out := make([]PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.View())
	}
	return out
}
