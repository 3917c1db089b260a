package pipeline

import (
	"fmt"

	"github.com/casepulse/casepulse-backend/internal/jobs/runtime"
)

// runCaseReindex publishes a reindex notification for one case. Runs as the
// tail step of report and fetch chains so search only hears about cases whose
// merge completed.
func (p *Pipeline) runCaseReindex(tc *runtime.TaskContext) (*runtime.StepResult, error) {
	caseID, ok := tc.PayloadUUID("case_id")
	if !ok {
		return nil, fmt.Errorf("case reindex task %s carries no case_id", tc.Task.ID)
	}
	if err := p.search.NotifyCaseChanged(tc.Ctx, caseID); err != nil {
		return nil, runtime.Retry(err)
	}
	return runtime.Continue(nil), nil
}

// runDocumentExtract pulls the stored PDF and extracts its text. Extraction
// failures are transient as far as the task is concerned; the document row
// simply keeps its empty plain_text until a later attempt lands.
func (p *Pipeline) runDocumentExtract(tc *runtime.TaskContext) (*runtime.StepResult, error) {
	documentID, ok := tc.PayloadUUID("document_id")
	if !ok {
		return nil, fmt.Errorf("document extract task %s carries no document_id", tc.Task.ID)
	}
	if err := p.extractor.ExtractDocument(tc.Ctx, documentID); err != nil {
		return nil, runtime.Retry(err)
	}
	return runtime.Continue(map[string]any{"document_id": documentID.String()}), nil
}
