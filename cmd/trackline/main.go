package main

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"

	"github.com/mfalkner/trackline/internal/cli"
	"github.com/mfalkner/trackline/internal/db"
	"github.com/mfalkner/trackline/internal/repository"
	"github.com/mfalkner/trackline/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Determine DB path: env var or default ~/.trackline/trackline.db
	dbPath := os.Getenv("TRACKLINE_DB")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".trackline", "trackline.db")
	}

	database, err := db.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	projectRepo := repository.NewSQLiteProjectRepo(database)
	nodeRepo := repository.NewSQLitePlanNodeRepo(database)
	milestoneRepo := repository.NewSQLiteMilestoneRepo(database)
	deliverableRepo := repository.NewSQLiteDeliverableRepo(database)
	versionRepo := repository.NewSQLiteBaselineVersionRepo(database)

	// Wire unit of work for transactional operations
	uow := db.NewSQLiteUnitOfWork(database)

	// Wire services
	resolver := service.NewLinkResolver(nodeRepo, milestoneRepo, deliverableRepo)
	breachSvc := service.NewBreachService(milestoneRepo, deliverableRepo)
	observer := service.NewLogUseCaseObserver(observerWriter())

	app := &cli.App{
		Projects:     service.NewProjectService(projectRepo),
		Plans:        service.NewPlanService(nodeRepo, milestoneRepo, deliverableRepo, uow),
		Milestones:   service.NewMilestoneService(milestoneRepo),
		Deliverables: service.NewDeliverableService(deliverableRepo, milestoneRepo, breachSvc),
		Baselines:    service.NewBaselineService(milestoneRepo, versionRepo, uow, observer),
		Breaches:     breachSvc,
		Deletions:    service.NewDeletionService(nodeRepo, milestoneRepo, deliverableRepo, resolver, uow),
		Resolver:     resolver,
		ActorID:      actorID(),
	}

	// Detect interactive terminal for prompts and the board view.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).Execute()
}

// actorID resolves who performs destructive operations: explicit env var
// first, then the OS user.
func actorID() string {
	if actor := os.Getenv("TRACKLINE_ACTOR"); actor != "" {
		return actor
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}

// observerWriter returns the use-case log destination: stderr when
// TRACKLINE_LOG is set, otherwise nil (a no-op observer).
func observerWriter() io.Writer {
	if os.Getenv("TRACKLINE_LOG") != "" {
		return os.Stderr
	}
	return nil
}
