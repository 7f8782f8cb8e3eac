package model

// AIState is the persisted part of the AI feature.
type AIState struct {
	QueryCount   int     `json:"queryCount"`
	CustomAPIKey *string `json:"customApiKey"` // nil = use the default key
}

// HasCustomKey reports whether the user supplied their own credential.
func (s AIState) HasCustomKey() bool {
	return s.CustomAPIKey != nil && *s.CustomAPIKey != ""
}
