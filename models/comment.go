// models/comment.go
package models

import "time"

type Comment struct {
	ID         string    `json:"id" bson:"id"`
	ActionID   string    `json:"actionId" bson:"actionId"`
	AuthorID   string    `json:"authorId" bson:"authorId"`
	AuthorName string    `json:"authorName,omitempty" bson:"authorName,omitempty"`
	Text       string    `json:"text" bson:"text"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}
