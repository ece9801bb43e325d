package request

// UpsertCredentialRequest is the payload for storing exchange API access.
type UpsertCredentialRequest struct {
	Exchange  string `json:"exchange"`
	APIKey    string `json:"apiKey"`
	APISecret string `json:"apiSecret"`
}
