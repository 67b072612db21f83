package dto

// CreateFriendRequest defines a contact.
type CreateFriendRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Phone string `json:"phone" binding:"max=20"`
	Email string `json:"email" binding:"omitempty,email"`
}

// UpdateFriendRequest edits a contact.
type UpdateFriendRequest struct {
	Name  *string `json:"name" binding:"omitempty,max=100"`
	Phone *string `json:"phone" binding:"omitempty,max=20"`
	Email *string `json:"email" binding:"omitempty,email"`
}
