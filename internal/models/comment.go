package models

import "time"

// Comment is a reply attached to a post.
type Comment struct {
	ID         uint      `gorm:"primaryKey"`
	PostID     uint      `gorm:"not null;index"`
	AuthorID   uint      `gorm:"not null;index"`
	Author     User      `gorm:"foreignKey:AuthorID"`
	Content    string    `gorm:"type:text;not null"`
	DatePosted time.Time `gorm:"not null"`
}

// CommentView is the serialized form of a comment.
type CommentView struct {
	ID         uint          `json:"id"`
	Post       uint          `json:"post"`
	Author     AuthorSummary `json:"author"`
	Content    string        `json:"content"`
	DatePosted time.Time     `json:"date_posted"`
}

// View renders c for responses. Author must be loaded.
func (c *Comment) View() CommentView {
	return CommentView{
		ID:         c.ID,
		Post:       c.PostID,
		Author:     c.Author.Summary(),
		Content:    c.Content,
		DatePosted: c.DatePosted,
	}
}

// CommentViews renders a slice of comments.
func CommentViews(comments []*Comment) []CommentView {
	out := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		out = append(out, c.View())
	}
	return out
}
