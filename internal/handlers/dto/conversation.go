package dto

type CreatePrivateRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type CreateGroupRequest struct {
	Name      string   `json:"name" binding:"required"`
	MemberIDs []string `json:"member_ids"`
}
