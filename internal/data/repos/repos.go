// Package repos wires the per-entity repositories into one bundle so the
// application can pass a single value around.
package repos

import (
	"gorm.io/gorm"

	"github.com/casepulse/casepulse-backend/internal/data/repos/court"
	"github.com/casepulse/casepulse-backend/internal/data/repos/queue"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

type Repos struct {
	Case        court.CaseRepo
	Entry       court.CaseEntryRepo
	Document    court.CaseDocumentRepo
	Party       court.PartyRepo
	Claim       court.CaseClaimRepo
	Originating court.OriginatingCourtInfoRepo
	ReportFile  court.CaseReportFileRepo
	Reference   court.ReferenceCaseRepo

	Processing queue.ProcessingQueueRepo
	Fetch      queue.FetchQueueRepo
	WorkTask   queue.WorkTaskRepo
}

func New(db *gorm.DB, baseLog *logger.Logger) *Repos {
	return &Repos{
		Case:        court.NewCaseRepo(db, baseLog),
		Entry:       court.NewCaseEntryRepo(db, baseLog),
		Document:    court.NewCaseDocumentRepo(db, baseLog),
		Party:       court.NewPartyRepo(db, baseLog),
		Claim:       court.NewCaseClaimRepo(db, baseLog),
		Originating: court.NewOriginatingCourtInfoRepo(db, baseLog),
		ReportFile:  court.NewCaseReportFileRepo(db, baseLog),
		Reference:   court.NewReferenceCaseRepo(db, baseLog),
		Processing:  queue.NewProcessingQueueRepo(db, baseLog),
		Fetch:       queue.NewFetchQueueRepo(db, baseLog),
		WorkTask:    queue.NewWorkTaskRepo(db, baseLog),
	}
}
