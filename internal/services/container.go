package services

import (
	"github.com/sirupsen/logrus"

	"timesheet-admin/internal/config"
	"timesheet-admin/internal/repository/sqlite"
)

// NewServiceContainer wires the services over one repository
func NewServiceContainer(repo sqlite.Repository, cfg *config.Config, logger logrus.FieldLogger, deps TimesheetDeps) *ServiceContainer {
	if deps.Logger == nil {
		deps.Logger = logger
	}
	return &ServiceContainer{
		EntryService:     NewEntryService(repo, cfg, logger, NewDayLocker()),
		TimesheetService: NewTimesheetService(repo, deps),
	}
}
