package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/eigo-backend/internal/data/aggregates"
	"github.com/yungbote/eigo-backend/internal/data/repos"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
	"github.com/yungbote/eigo-backend/internal/services"
)

type Services struct {
	Accounts  services.AccountService
	Hierarchy services.HierarchyService
	Query     services.QueryService
	Answers   services.AnswerService
	Importer  services.ImportService
	// Auth is nil for command-line use, which has no OAuth clients.
	Auth services.AuthService
}

// wireDataServices builds everything that only needs the database.
func wireDataServices(db *gorm.DB, log *logger.Logger, rs repos.Set) Services {
	log.Info("Wiring services...")
	tx := aggregates.NewGormTxRunner(db)
	locker := aggregates.NewScopeLocker(db)
	return Services{
		Accounts:  services.NewAccountService(db, log, tx, rs),
		Hierarchy: services.NewHierarchyService(db, log, tx, locker, rs),
		Query:     services.NewQueryService(db, log, tx, rs),
		Answers:   services.NewAnswerService(db, log, tx, rs),
		Importer:  services.NewImportService(db, log, tx, locker, rs),
	}
}

func wireAuth(log *logger.Logger, svc Services, clients Clients) services.AuthService {
	return services.NewAuthService(log, clients.Google, clients.Verifier, svc.Accounts, clients.Locks)
}
