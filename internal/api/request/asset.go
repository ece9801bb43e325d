package request

// CreateAssetRequest is the payload for registering a tracked asset.
type CreateAssetRequest struct {
	FullName  string `json:"fullName"`
	APIIDName string `json:"apiIdName"`
	Acronym   string `json:"acronym"`
}
