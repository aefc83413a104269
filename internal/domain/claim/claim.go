package claim

// ClaimType identifies the line of business a claim is filed under
type ClaimType string

const (
	TypeHealth ClaimType = "health"
	TypeAuto   ClaimType = "auto"
	TypeHome   ClaimType = "home"
	TypeLife   ClaimType = "life"
)

var validTypes = map[ClaimType]bool{
	TypeHealth: true,
	TypeAuto:   true,
	TypeHome:   true,
	TypeLife:   true,
}

// IsValid returns true if the claim type is a known line of business
func (t ClaimType) IsValid() bool {
	return validTypes[t]
}

// String returns the string representation of the claim type
func (t ClaimType) String() string {
	return string(t)
}

// Submission holds the fields a claimant provides when filing a claim
type Submission struct {
	PolicyNumber  string    `json:"policy_number"`
	ClaimType     ClaimType `json:"claim_type"`
	Amount        float64   `json:"claim_amount"`
	IncidentDate  string    `json:"incident_date"` // YYYY-MM-DD
	Description   string    `json:"description"`
	ClaimantName  string    `json:"claimant_name"`
	ClaimantEmail string    `json:"claimant_email"`
	Documents     []string  `json:"documents,omitempty"`
}

// SimilarClaim is one entry returned by the vector similarity collaborator
type SimilarClaim struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
	ClaimType   string  `json:"claim_type"`
	Score       float64 `json:"similarity_score"`
}
