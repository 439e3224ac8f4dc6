package main

import (
	"context"
	"errors"
	"os"

	"go-leave/internal/employee"
	employeeerrors "go-leave/internal/employee/errors"
	"go-leave/internal/leave"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/connection"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Seeds a handful of demo employees and leave requests through the
// regular services, so defaults and validation apply. Safe to re-run:
// duplicate emails are skipped.
func main() {
	_ = godotenv.Load()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("unwrap sql.DB failed", zap.Error(err))
	}
	defer sqlDB.Close()

	employeeService := employee.NewService(sqlDB, employee.NewRepository(gormDB), nil, logger)
	leaveService := leave.NewService(sqlDB, leave.NewRepository(gormDB), logger)

	ctx := context.Background()

	demoEmployees := []employee.CreateEmployeeRequest{
		{
			FirstName:  "John",
			LastName:   "Doe",
			Email:      "john.doe@company.com",
			Department: "Engineering",
			Position:   "Senior Developer",
			HireDate:   "2020-01-15",
		},
		{
			FirstName:  "Jane",
			LastName:   "Smith",
			Email:      "jane.smith@company.com",
			Department: "Marketing",
			Position:   "Marketing Manager",
			HireDate:   "2019-03-20",
		},
		{
			FirstName:  "Mike",
			LastName:   "Johnson",
			Email:      "mike.johnson@company.com",
			Department: "Engineering",
			Position:   "Team Lead",
			HireDate:   "2018-06-10",
		},
	}

	createdIDs := make([]int64, 0, len(demoEmployees))
	for _, req := range demoEmployees {
		resp, err := employeeService.Create(ctx, req)
		if err != nil {
			if errors.Is(err, employeeerrors.ErrEmailAlreadyExists) {
				logger.Info("employee already seeded", zap.String("email", req.Email))
				continue
			}
			logger.Fatal("seed employee failed", zap.String("email", req.Email), zap.Error(err))
		}
		createdIDs = append(createdIDs, resp.ID)
		logger.Info("seeded employee", zap.Int64("id", resp.ID), zap.String("email", resp.Email))
	}

	demoLeaves := []leave.SubmitLeaveRequest{
		{
			LeaveType: "annual",
			StartDate: "2025-07-01",
			EndDate:   "2025-07-05",
			Reason:    "Summer vacation",
		},
		{
			LeaveType: "sick",
			StartDate: "2025-06-25",
			EndDate:   "2025-06-26",
			Reason:    "Doctor appointment",
		},
	}

	for i, req := range demoLeaves {
		if i >= len(createdIDs) {
			break
		}
		req.EmployeeID = createdIDs[i]
		resp, err := leaveService.Submit(ctx, req)
		if err != nil {
			logger.Fatal("seed leave request failed", zap.Int64("employee_id", req.EmployeeID), zap.Error(err))
		}
		logger.Info("seeded leave request",
			zap.Int64("id", resp.ID),
			zap.Int64("employee_id", resp.EmployeeID),
			zap.String("leave_type", resp.LeaveType),
		)
	}

	logger.Info("seed complete",
		zap.Int("employees_created", len(createdIDs)),
	)
}
