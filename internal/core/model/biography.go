package model

type BiographyDraft struct {
	Biography string `json:"biography"`
}
