package domain

import (
	"github.com/casepulse/casepulse-backend/internal/domain/court"
	"github.com/casepulse/casepulse-backend/internal/domain/queue"
)

// Court records.
type (
	Case                 = court.Case
	CaseEntry            = court.CaseEntry
	CaseDocument         = court.CaseDocument
	Party                = court.Party
	PartyAttorney        = court.PartyAttorney
	CaseClaim            = court.CaseClaim
	OriginatingCourtInfo = court.OriginatingCourtInfo
	CaseReportFile       = court.CaseReportFile
	ReferenceCase        = court.ReferenceCase
)

const (
	SourceUpload    = court.SourceUpload
	SourceFetch     = court.SourceFetch
	SourceReference = court.SourceReference

	DocTypeMain       = court.DocTypeMain
	DocTypeAttachment = court.DocTypeAttachment
)

// Queues.
type (
	ProcessingQueueItem = queue.ProcessingQueueItem
	FetchQueueItem      = queue.FetchQueueItem
	WorkTask            = queue.WorkTask
	Status              = queue.Status
	UploadType          = queue.UploadType
	RequestType         = queue.RequestType
)

const (
	StatusEnqueued       = queue.StatusEnqueued
	StatusSuccessful     = queue.StatusSuccessful
	StatusFailed         = queue.StatusFailed
	StatusInProgress     = queue.StatusInProgress
	StatusQueuedForRetry = queue.StatusQueuedForRetry
	StatusInvalidContent = queue.StatusInvalidContent
	StatusNeedsInfo      = queue.StatusNeedsInfo

	UploadCaseDocket              = queue.UploadCaseDocket
	UploadAttachmentPage          = queue.UploadAttachmentPage
	UploadDocument                = queue.UploadDocument
	UploadCaseDocketHistory       = queue.UploadCaseDocketHistory
	UploadAppellateDocket         = queue.UploadAppellateDocket
	UploadAppellateAttachmentPage = queue.UploadAppellateAttachmentPage
	UploadClaimsRegister          = queue.UploadClaimsRegister
	UploadDocumentArchive         = queue.UploadDocumentArchive

	FetchCase           = queue.FetchCase
	FetchDocument       = queue.FetchDocument
	FetchAttachmentPage = queue.FetchAttachmentPage

	TaskQueued    = queue.TaskQueued
	TaskRunning   = queue.TaskRunning
	TaskSucceeded = queue.TaskSucceeded
	TaskFailed    = queue.TaskFailed

	QueueKindProcessing = queue.QueueKindProcessing
	QueueKindFetch      = queue.QueueKindFetch
)
