package models

// RegisterRequest is the JSON body for POST /records.
type RegisterRequest struct {
	Metadata    Metadata `json:"metadata"`
	Location    Location `json:"location"`
	ContentHash string   `json:"content_hash"`
	IsPublic    bool     `json:"is_public"`
}

// UpdateMetadataRequest is the JSON body for PUT /records/{id}/metadata.
type UpdateMetadataRequest struct {
	Metadata Metadata `json:"metadata"`
	IsPublic bool     `json:"is_public"`
}

// TransferRequest is the JSON body for POST /records/{id}/transfer.
type TransferRequest struct {
	NewOwner string `json:"new_owner"`
}

// SetAdminRequest is the JSON body for PUT /admin.
type SetAdminRequest struct {
	NewAdmin string `json:"new_admin"`
}
