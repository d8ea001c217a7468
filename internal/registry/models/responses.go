package models

// RegisterResponse returns the id assigned to a newly registered record.
type RegisterResponse struct {
	ID RecordID `json:"id"`
}

// RecordResponse wraps a full record for GET /records/{id}.
type RecordResponse struct {
	Record *DatasetRecord `json:"record"`
}

// OwnerRecordsResponse lists the ids currently owned by a principal, in
// acquisition order.
type OwnerRecordsResponse struct {
	Owner   string     `json:"owner"`
	Records []RecordID `json:"records"`
}

// CountResponse reports the total number of records ever issued.
type CountResponse struct {
	Count uint64 `json:"count"`
}

// VisibilityResponse reports whether a record is public.
type VisibilityResponse struct {
	ID       RecordID `json:"id"`
	IsPublic bool     `json:"is_public"`
}

// AttestationsResponse lists a record's attestations in arrival order.
type AttestationsResponse struct {
	ID           RecordID      `json:"id"`
	Attestations []Attestation `json:"attestations"`
}

// AdminResponse reports the current admin principal.
type AdminResponse struct {
	Admin string `json:"admin"`
}
