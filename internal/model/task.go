package model

// Task represents a single to-do entry.
type Task struct {
	ID        string   `json:"-"`
	Text      string   `json:"text"`
	Category  Category `json:"category"`
	IsDone    bool     `json:"isDone"`
	IsEditing bool     `json:"isEditing"`
}
