// Package parser defines the boundary to the report parsing library. The
// pipeline hands it raw report text and receives structured field data; the
// grammar itself lives behind this interface.
package parser

import "time"

// ReportKind selects the parser entry point for a case report.
type ReportKind string

const (
	KindDocket         ReportKind = "docket"
	KindDocketHistory  ReportKind = "docket_history"
	KindAppellate      ReportKind = "appellate"
	KindClaimsRegister ReportKind = "claims_register"
)

// CaseReportData is the parsed form of a case report. A parse that yields no
// usable data is represented as a nil *CaseReportData with a nil error.
type CaseReportData struct {
	CourtID          string     `json:"court_id"`
	CaseSystemID     string     `json:"case_system_id"`
	DocketNumber     string     `json:"docket_number"`
	CaseName         string     `json:"case_name"`
	DateFiled        *time.Time `json:"date_filed,omitempty"`
	DateTerminated   *time.Time `json:"date_terminated,omitempty"`
	NatureOfSuit     string     `json:"nature_of_suit,omitempty"`
	JurisdictionType string     `json:"jurisdiction_type,omitempty"`

	OrderedBy string `json:"ordered_by,omitempty"`

	Entries     []EntryData      `json:"entries,omitempty"`
	Parties     []PartyData      `json:"parties,omitempty"`
	Claims      []ClaimData      `json:"claims,omitempty"`
	Originating *OriginatingData `json:"originating,omitempty"`
}

type EntryData struct {
	EntryNumber      int64      `json:"entry_number"`
	DocumentNumber   string     `json:"document_number,omitempty"`
	DateFiled        *time.Time `json:"date_filed,omitempty"`
	Description      string     `json:"description,omitempty"`
	DocSystemID      string     `json:"doc_system_id,omitempty"`
	ShortDescription string     `json:"short_description,omitempty"`
}

type PartyData struct {
	Name      string         `json:"name"`
	Role      string         `json:"role,omitempty"`
	Attorneys []AttorneyData `json:"attorneys,omitempty"`
}

type AttorneyData struct {
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
}

type ClaimData struct {
	ClaimNumber    string     `json:"claim_number"`
	Creditor       string     `json:"creditor,omitempty"`
	Description    string     `json:"description,omitempty"`
	AmountClaimed  string     `json:"amount_claimed,omitempty"`
	DateClaimFiled *time.Time `json:"date_claim_filed,omitempty"`
}

type OriginatingData struct {
	CourtID      string     `json:"court_id"`
	DocketNumber string     `json:"docket_number"`
	AssignedTo   string     `json:"assigned_to,omitempty"`
	DateFiled    *time.Time `json:"date_filed,omitempty"`
	DateDisposed *time.Time `json:"date_disposed,omitempty"`
}

// AttachmentPageData is the parsed form of an attachment menu page.
type AttachmentPageData struct {
	CaseSystemID   string           `json:"case_system_id,omitempty"`
	DocSystemID    string           `json:"doc_system_id,omitempty"`
	DocumentNumber string           `json:"document_number,omitempty"`
	Attachments    []AttachmentData `json:"attachments,omitempty"`
}

type AttachmentData struct {
	AttachmentNumber int    `json:"attachment_number"`
	DocSystemID      string `json:"doc_system_id,omitempty"`
	Description      string `json:"description,omitempty"`
	PageCount        *int   `json:"page_count,omitempty"`
}

// CaseLookupData is the result of resolving a docket number to the remote
// system's case id.
type CaseLookupData struct {
	CaseSystemID string `json:"case_system_id"`
	CaseName     string `json:"case_name"`
}

// ReportParser turns raw report text into structured data. Implementations
// return (nil, nil) when the text contains no parseable report, and an error
// only for internal faults.
type ReportParser interface {
	Parse(kind ReportKind, courtID, text string) (*CaseReportData, error)
	ParseAttachmentPage(courtID, text string) (*AttachmentPageData, error)
}
