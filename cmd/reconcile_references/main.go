// Command reconcile_references bulk-merges reference-database rows into the
// case store. Rows already claimed by a case are skipped; the rest resolve
// per the matcher heuristic (create, direct merge, or name-similarity pick).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/casepulse/casepulse-backend/internal/data/db"
	"github.com/casepulse/casepulse-backend/internal/data/repos"
	"github.com/casepulse/casepulse-backend/internal/ingest"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

func main() {
	var batchSize int
	var dryRun bool
	flag.IntVar(&batchSize, "batch", 500, "rows per batch")
	flag.BoolVar(&dryRun, "dry-run", false, "list unlinked rows without reconciling")
	flag.Parse()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}

	reposet := repos.New(pg.DB(), log)
	merger := ingest.NewMerger(
		reposet.Entry,
		reposet.Document,
		reposet.Party,
		reposet.Claim,
		reposet.Originating,
		log,
	)
	reconciler := ingest.NewReconciler(reposet.Case, merger, log)

	dbc := dbctx.Context{Ctx: context.Background()}

	var afterID uuid.UUID
	total, reconciled, failed := 0, 0, 0
	for {
		rows, err := reposet.Reference.ListUnlinked(dbc, afterID, batchSize)
		if err != nil {
			log.Error("Reference row listing failed", "error", err)
			os.Exit(1)
		}
		if len(rows) == 0 {
			break
		}
		for _, ref := range rows {
			afterID = ref.ID
			total++
			if dryRun {
				fmt.Printf("[dry-run] reconcile reference_id=%s court=%s docket=%s\n",
					ref.ID, ref.CourtID, ref.DocketNumber)
				continue
			}
			if _, err := reconciler.ReconcileRow(dbc, ref); err != nil {
				failed++
				log.Warn("Reference row reconcile failed", "reference_id", ref.ID, "error", err)
				continue
			}
			reconciled++
		}
	}

	log.Info("Reference reconciliation done",
		"total", total,
		"reconciled", reconciled,
		"failed", failed,
	)
}
