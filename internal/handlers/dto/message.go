package dto

type SendMessageRequest struct {
	Content  string `json:"content"`
	Type     string `json:"type"`
	MediaURL string `json:"media_url"`
}
