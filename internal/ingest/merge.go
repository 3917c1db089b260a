package ingest

import (
	"errors"

	"github.com/casepulse/casepulse-backend/internal/data/repos/court"
	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/parser"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

// ErrMainDocumentNotFound means an attachment page arrived before the main
// document it attaches to. A concurrently-running docket upload may create
// the document, so this condition is retryable.
var ErrMainDocumentNotFound = errors.New("main document not found for attachment page")

// MergeResult reports what an entry merge changed, so callers can decide
// whether downstream consumers need notifying.
type MergeResult struct {
	CreatedDocuments []*types.CaseDocument
	ContentUpdated   bool
}

// Merger applies parsed report data onto case records. Field merges fill
// gaps: a field already populated is never overwritten by report data.
type Merger struct {
	entries     court.CaseEntryRepo
	documents   court.CaseDocumentRepo
	parties     court.PartyRepo
	claims      court.CaseClaimRepo
	originating court.OriginatingCourtInfoRepo
	log         *logger.Logger
}

func NewMerger(
	entries court.CaseEntryRepo,
	documents court.CaseDocumentRepo,
	parties court.PartyRepo,
	claims court.CaseClaimRepo,
	originating court.OriginatingCourtInfoRepo,
	baseLog *logger.Logger,
) *Merger {
	return &Merger{
		entries:     entries,
		documents:   documents,
		parties:     parties,
		claims:      claims,
		originating: originating,
		log:         baseLog.With("component", "Merger"),
	}
}

// MergeCaseFields copies report fields onto the case record in memory.
func (m *Merger) MergeCaseFields(courtCase *types.Case, data *parser.CaseReportData) {
	if courtCase == nil || data == nil {
		return
	}
	if courtCase.CaseSystemID == nil && data.CaseSystemID != "" {
		id := data.CaseSystemID
		courtCase.CaseSystemID = &id
	}
	if courtCase.DocketNumber == "" {
		courtCase.DocketNumber = data.DocketNumber
	}
	if courtCase.CaseName == "" && data.CaseName != "" {
		courtCase.CaseName = HarmonizeCaseName(data.CaseName)
	}
	if courtCase.DateFiled == nil {
		courtCase.DateFiled = data.DateFiled
	}
	if courtCase.DateTerminated == nil {
		courtCase.DateTerminated = data.DateTerminated
	}
	if courtCase.NatureOfSuit == "" {
		courtCase.NatureOfSuit = data.NatureOfSuit
	}
	if courtCase.JurisdictionType == "" {
		courtCase.JurisdictionType = data.JurisdictionType
	}
}

// MergeReference copies reference-database fields onto the case in memory.
func (m *Merger) MergeReference(courtCase *types.Case, ref *types.ReferenceCase) {
	if courtCase == nil || ref == nil {
		return
	}
	if courtCase.CaseSystemID == nil && ref.CaseSystemID != nil {
		courtCase.CaseSystemID = ref.CaseSystemID
	}
	if courtCase.DocketNumber == "" {
		courtCase.DocketNumber = ref.DocketNumber
	}
	if courtCase.CaseName == "" {
		courtCase.CaseName = HarmonizeCaseName(ref.CaseName())
	}
	if courtCase.DateFiled == nil {
		courtCase.DateFiled = ref.DateFiled
	}
	if courtCase.DateTerminated == nil {
		courtCase.DateTerminated = ref.DateTerminated
	}
	if courtCase.NatureOfSuit == "" {
		courtCase.NatureOfSuit = ref.NatureOfSuit
	}
	if courtCase.JurisdictionType == "" {
		courtCase.JurisdictionType = ref.JurisdictionType
	}
}

// MergeEntries creates or updates the case's entries and their main
// documents from parsed report lines.
func (m *Merger) MergeEntries(dbc dbctx.Context, courtCase *types.Case, entries []parser.EntryData) (*MergeResult, error) {
	res := &MergeResult{}
	for i := range entries {
		data := &entries[i]
		entry, err := m.entries.GetByCaseAndNumber(dbc, courtCase.ID, data.EntryNumber)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			entry = &types.CaseEntry{
				CaseID:      courtCase.ID,
				EntryNumber: data.EntryNumber,
				DateFiled:   data.DateFiled,
				Description: data.Description,
			}
			if err := m.entries.Create(dbc, entry); err != nil {
				return nil, err
			}
			res.ContentUpdated = true
		} else {
			changed := false
			if entry.DateFiled == nil && data.DateFiled != nil {
				entry.DateFiled = data.DateFiled
				changed = true
			}
			if entry.Description == "" && data.Description != "" {
				entry.Description = data.Description
				changed = true
			}
			if changed {
				if err := m.entries.Save(dbc, entry); err != nil {
					return nil, err
				}
				res.ContentUpdated = true
			}
		}

		if data.DocumentNumber == "" {
			continue
		}
		doc, err := m.documents.GetByEntryNumberType(dbc, entry.ID, data.DocumentNumber, nil, types.DocTypeMain)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			doc = &types.CaseDocument{
				EntryID:        entry.ID,
				DocumentNumber: data.DocumentNumber,
				DocumentType:   types.DocTypeMain,
				Description:    data.ShortDescription,
			}
			if data.DocSystemID != "" {
				id := data.DocSystemID
				doc.DocSystemID = &id
			}
			if err := m.documents.Create(dbc, doc); err != nil {
				return nil, err
			}
			res.CreatedDocuments = append(res.CreatedDocuments, doc)
			res.ContentUpdated = true
		} else if doc.DocSystemID == nil && data.DocSystemID != "" {
			id := data.DocSystemID
			doc.DocSystemID = &id
			if err := m.documents.Save(dbc, doc); err != nil {
				return nil, err
			}
			res.ContentUpdated = true
		}
	}
	return res, nil
}

// MergeParties creates missing party and attorney records.
func (m *Merger) MergeParties(dbc dbctx.Context, courtCase *types.Case, parties []parser.PartyData) error {
	for i := range parties {
		data := &parties[i]
		if data.Name == "" {
			continue
		}
		party, err := m.parties.GetByCaseNameRole(dbc, courtCase.ID, data.Name, data.Role)
		if err != nil {
			return err
		}
		if party == nil {
			party = &types.Party{
				CaseID: courtCase.ID,
				Name:   data.Name,
				Role:   data.Role,
			}
			if err := m.parties.Create(dbc, party); err != nil {
				return err
			}
		}
		for j := range data.Attorneys {
			att := &data.Attorneys[j]
			if att.Name == "" {
				continue
			}
			existing, err := m.parties.GetAttorney(dbc, party.ID, att.Name)
			if err != nil {
				return err
			}
			if existing == nil {
				if err := m.parties.CreateAttorney(dbc, &types.PartyAttorney{
					PartyID: party.ID,
					Name:    att.Name,
					Contact: att.Contact,
				}); err != nil {
					return err
				}
			} else if existing.Contact == "" && att.Contact != "" {
				existing.Contact = att.Contact
				if err := m.parties.SaveAttorney(dbc, existing); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// MergeClaims creates or backfills bankruptcy claims keyed by claim number.
func (m *Merger) MergeClaims(dbc dbctx.Context, courtCase *types.Case, claims []parser.ClaimData) (*MergeResult, error) {
	res := &MergeResult{}
	for i := range claims {
		data := &claims[i]
		if data.ClaimNumber == "" {
			continue
		}
		claim, err := m.claims.GetByCaseAndNumber(dbc, courtCase.ID, data.ClaimNumber)
		if err != nil {
			return nil, err
		}
		if claim == nil {
			if err := m.claims.Create(dbc, &types.CaseClaim{
				CaseID:         courtCase.ID,
				ClaimNumber:    data.ClaimNumber,
				Creditor:       data.Creditor,
				Description:    data.Description,
				AmountClaimed:  data.AmountClaimed,
				DateClaimFiled: data.DateClaimFiled,
			}); err != nil {
				return nil, err
			}
			res.ContentUpdated = true
			continue
		}
		changed := false
		if claim.Creditor == "" && data.Creditor != "" {
			claim.Creditor = data.Creditor
			changed = true
		}
		if claim.Description == "" && data.Description != "" {
			claim.Description = data.Description
			changed = true
		}
		if claim.AmountClaimed == "" && data.AmountClaimed != "" {
			claim.AmountClaimed = data.AmountClaimed
			changed = true
		}
		if claim.DateClaimFiled == nil && data.DateClaimFiled != nil {
			claim.DateClaimFiled = data.DateClaimFiled
			changed = true
		}
		if changed {
			if err := m.claims.Save(dbc, claim); err != nil {
				return nil, err
			}
			res.ContentUpdated = true
		}
	}
	return res, nil
}

// MergeOriginatingCourt creates or backfills the appellate case's
// originating-court record.
func (m *Merger) MergeOriginatingCourt(dbc dbctx.Context, courtCase *types.Case, data *parser.OriginatingData) error {
	if data == nil {
		return nil
	}
	info, err := m.originating.GetByCase(dbc, courtCase.ID)
	if err != nil {
		return err
	}
	if info == nil {
		return m.originating.Create(dbc, &types.OriginatingCourtInfo{
			CaseID:       courtCase.ID,
			CourtID:      data.CourtID,
			DocketNumber: data.DocketNumber,
			AssignedTo:   data.AssignedTo,
			DateFiled:    data.DateFiled,
			DateDisposed: data.DateDisposed,
		})
	}
	changed := false
	if info.CourtID == "" && data.CourtID != "" {
		info.CourtID = data.CourtID
		changed = true
	}
	if info.DocketNumber == "" && data.DocketNumber != "" {
		info.DocketNumber = data.DocketNumber
		changed = true
	}
	if info.AssignedTo == "" && data.AssignedTo != "" {
		info.AssignedTo = data.AssignedTo
		changed = true
	}
	if info.DateFiled == nil && data.DateFiled != nil {
		info.DateFiled = data.DateFiled
		changed = true
	}
	if info.DateDisposed == nil && data.DateDisposed != nil {
		info.DateDisposed = data.DateDisposed
		changed = true
	}
	if changed {
		return m.originating.Save(dbc, info)
	}
	return nil
}

// MergeAttachmentPage attaches parsed attachment rows beneath the main
// document's entry. Returns ErrMainDocumentNotFound when the main document
// is not yet known.
func (m *Merger) MergeAttachmentPage(dbc dbctx.Context, courtID string, data *parser.AttachmentPageData) (*types.CaseDocument, error) {
	if data == nil || data.DocSystemID == "" {
		return nil, ErrMainDocumentNotFound
	}
	mainDoc, err := m.documents.GetBySystemID(dbc, courtID, data.DocSystemID)
	if err != nil {
		return nil, err
	}
	if mainDoc == nil {
		return nil, ErrMainDocumentNotFound
	}

	for i := range data.Attachments {
		att := &data.Attachments[i]
		attNum := att.AttachmentNumber
		doc, err := m.documents.GetByEntryNumberType(dbc, mainDoc.EntryID, mainDoc.DocumentNumber, &attNum, types.DocTypeAttachment)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			doc = &types.CaseDocument{
				EntryID:          mainDoc.EntryID,
				DocumentNumber:   mainDoc.DocumentNumber,
				AttachmentNumber: &attNum,
				DocumentType:     types.DocTypeAttachment,
				Description:      att.Description,
				PageCount:        att.PageCount,
			}
			if att.DocSystemID != "" {
				id := att.DocSystemID
				doc.DocSystemID = &id
			}
			if err := m.documents.Create(dbc, doc); err != nil {
				return nil, err
			}
			continue
		}
		changed := false
		if doc.Description == "" && att.Description != "" {
			doc.Description = att.Description
			changed = true
		}
		if doc.DocSystemID == nil && att.DocSystemID != "" {
			id := att.DocSystemID
			doc.DocSystemID = &id
			changed = true
		}
		if doc.PageCount == nil && att.PageCount != nil {
			doc.PageCount = att.PageCount
			changed = true
		}
		if changed {
			if err := m.documents.Save(dbc, doc); err != nil {
				return nil, err
			}
		}
	}
	return mainDoc, nil
}
