package models

import "time"

// PartRecord is one row of the parts catalog. Two rows sharing a MaterialNumber
// describe the same catalog item seen in different procurement contexts.
type PartRecord struct {
	ID                 string   `json:"id"`
	MaterialNumber     string   `json:"material_number"`
	Description        string   `json:"description,omitempty"`
	OldDescription     string   `json:"old_description,omitempty"`
	BasicMaterial      string   `json:"basic_material,omitempty"`
	MaterialGroup      string   `json:"material_group,omitempty"`
	MaterialType       string   `json:"material_type,omitempty"`
	ExtMaterialGroup   string   `json:"ext_material_group,omitempty"`
	SizeDimension      string   `json:"size_dimension,omitempty"`
	VendorCode         string   `json:"vendor_code,omitempty"`
	VendorName         string   `json:"vendor_name,omitempty"`
	BusinessPartner    string   `json:"business_partner,omitempty"`
	PurchasingDocument string   `json:"purchasing_document,omitempty"`
	PurchaseDocItem    string   `json:"purchase_doc_item,omitempty"`
	PurchasingOrg      string   `json:"purchasing_org,omitempty"`
	Division           string   `json:"division,omitempty"`
	OrganizationalUnit string   `json:"organizational_unit,omitempty"`
	POValue            *float64 `json:"po_value,omitempty"`
	POQuantity         *float64 `json:"po_quantity,omitempty"`
	Quantity           *float64 `json:"quantity,omitempty"`
	InStock            bool     `json:"in_stock"`
	Location           string   `json:"location,omitempty"`
	Price              *float64 `json:"price,omitempty"`
	Weight             *float64 `json:"weight,omitempty"`
	Grade              string   `json:"grade,omitempty"`
	Certifications     []string `json:"certifications,omitempty"`
	CreatedBy          string   `json:"created_by,omitempty"`
	ChangedBy          string   `json:"changed_by,omitempty"`
	CreatedOn          string   `json:"created_on,omitempty"`
	ChangedOn          string   `json:"changed_on,omitempty"`
	CompanyCreated     string   `json:"company_created,omitempty"`
}

// MatchBreakdown carries per-attribute sub-scores shown alongside the
// overall match score.
type MatchBreakdown struct {
	Size           int `json:"size"`
	Material       int `json:"material"`
	Grade          int `json:"grade"`
	Specifications int `json:"specifications"`
}

// SearchResult decorates a PartRecord with ranking metadata.
type SearchResult struct {
	PartRecord
	MatchScore       int             `json:"match_score"`
	MatchBreakdown   *MatchBreakdown `json:"match_breakdown,omitempty"`
	SimilarityScore  int             `json:"similarity_score,omitempty"`
	SimilarityReason string          `json:"similarity_reason,omitempty"`
}

// SearchHistoryEntry records one executed search, most recent first.
type SearchHistoryEntry struct {
	ID          string    `json:"id"`
	QueryText   string    `json:"query_text"`
	Timestamp   time.Time `json:"timestamp"`
	ResultCount int       `json:"result_count"`
}

type MessageRole string

const (
	RoleUser   MessageRole = "user"
	RoleSystem MessageRole = "system"
)

// Message is one entry of a session conversation. System messages may carry
// the result set they reported.
type Message struct {
	ID      string         `json:"id"`
	Role    MessageRole    `json:"role"`
	Text    string         `json:"text"`
	Results []SearchResult `json:"results,omitempty"`
}
