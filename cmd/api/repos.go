package main

import (
	"database/sql"

	"github.com/bryanwahyu/rootcause/internal/domain/aioutputs"
	"github.com/bryanwahyu/rootcause/internal/domain/analyses"
	"github.com/bryanwahyu/rootcause/internal/domain/audit"
	"github.com/bryanwahyu/rootcause/internal/domain/auth"
	"github.com/bryanwahyu/rootcause/internal/domain/tasks"
	"github.com/bryanwahyu/rootcause/internal/infra/db/mysql"
	"github.com/bryanwahyu/rootcause/internal/infra/db/postgres"
)

func repoFor(driver string, db *sql.DB) analyses.Repository {
	if driver == "postgres" {
		return postgres.NewAnalysisRepository(db)
	}
	return mysql.NewAnalysisRepository(db)
}

func outputRepoFor(driver string, db *sql.DB) aioutputs.Repository {
	if driver == "postgres" {
		return postgres.NewAiOutputRepository(db)
	}
	return mysql.NewAiOutputRepository(db)
}

func taskRepoFor(driver string, db *sql.DB) tasks.Repository {
	if driver == "postgres" {
		return postgres.NewTaskRepository(db)
	}
	return mysql.NewTaskRepository(db)
}

func auditRepoFor(driver string, db *sql.DB) audit.Recorder {
	if driver == "postgres" {
		return postgres.NewAuditRepository(db)
	}
	return mysql.NewAuditRepository(db)
}

func directoryFor(driver string, db *sql.DB) auth.Directory {
	if driver == "postgres" {
		return postgres.NewTeamDirectory(db)
	}
	return mysql.NewTeamDirectory(db)
}
